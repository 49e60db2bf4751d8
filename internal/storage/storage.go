// Package storage defines the Storage interface — the contract every
// database backend (SQLite, MongoDB) must satisfy to serve student
// records.
//
// Adapters only persist. They never validate input; that is the job of
// internal/validation. They do classify their own failures:
//
//   - an email uniqueness violation is returned as ErrDuplicateKey
//     (possibly wrapped), whatever the engine's native signal is;
//   - "no such record" is reported through a found/matched boolean,
//     never as an error;
//   - anything else is a *BackendError.
//
// IDs are opaque strings. An id the backend cannot even parse simply
// matches nothing.
package storage

import (
	"context"
	"errors"

	"github.com/aanand-mishra/alunos-api/internal/types"
)

// Storage is the persistence contract implemented by each backend.
type Storage interface {
	// ListStudents returns every student, newest first.
	// Returns an empty slice (not nil) if there are no students.
	ListStudents(ctx context.Context) ([]types.Student, error)

	// GetStudent fetches one student by id. found is false if no record
	// has that id.
	GetStudent(ctx context.Context, id string) (student types.Student, found bool, err error)

	// InsertStudent stores a new student and returns its generated id.
	InsertStudent(ctx context.Context, in types.StudentInput) (string, error)

	// ReplaceStudent overwrites the four editable fields of a student.
	// matched is false if no record has that id.
	ReplaceStudent(ctx context.Context, id string, in types.StudentInput) (matched bool, err error)

	// DeleteStudent removes a student permanently.
	// matched is false if no record had that id.
	DeleteStudent(ctx context.Context, id string) (matched bool, err error)

	// Close releases the connection to the backend.
	Close(ctx context.Context) error
}

// ErrDuplicateKey is returned by adapters when a write would break the
// uniqueness of the email field.
var ErrDuplicateKey = errors.New("duplicate key")

// BackendError wraps any engine failure that is not a duplicate key:
// connection problems, SQL errors, decoding errors and so on.
type BackendError struct {
	Op  string // adapter operation, e.g. "sqlite.InsertStudent"
	Err error
}

func (e *BackendError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Detail is the engine's own message, suitable for the "detalhes" field
// of an error response.
func (e *BackendError) Detail() string {
	return e.Err.Error()
}

// Fail wraps err in a *BackendError for op.
func Fail(op string, err error) error {
	return &BackendError{Op: op, Err: err}
}

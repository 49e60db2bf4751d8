// Package records is the single entry point for student record operations.
//
// A Service validates input, sends each operation to whichever backend is
// active when the call is made, and turns adapter results into one error
// taxonomy: callers see ErrNotFound, ErrDuplicateEmail, a
// *validation.Error, backend.ErrNoBackendSelected or a
// *storage.BackendError, whichever engine is underneath.
package records

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aanand-mishra/alunos-api/internal/backend"
	"github.com/aanand-mishra/alunos-api/internal/metrics"
	"github.com/aanand-mishra/alunos-api/internal/storage"
	"github.com/aanand-mishra/alunos-api/internal/types"
	"github.com/aanand-mishra/alunos-api/internal/validation"
)

var (
	// ErrNotFound means no record has the requested id.
	ErrNotFound = errors.New("student not found")

	// ErrDuplicateEmail means another record already uses the email.
	ErrDuplicateEmail = errors.New("email already registered")
)

// Backends resolves the adapter to use for an operation.
// *backend.Selector implements it.
type Backends interface {
	Active() (backend.Kind, storage.Storage, error)
}

// Service implements list, get, create, update and delete over the active
// backend.
type Service struct {
	backends Backends
}

// New returns a Service dispatching through backends.
func New(backends Backends) *Service {
	return &Service{backends: backends}
}

// normalize applies the canonical form stored by every backend.
func normalize(in types.StudentInput) types.StudentInput {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	return in
}

// track resolves the active backend once and returns a func that records
// the operation's outcome. The backend read here is the one the whole
// operation uses.
func (s *Service) track(op string) (storage.Storage, func(error), error) {
	kind, store, err := s.backends.Active()
	if err != nil {
		return nil, nil, err
	}

	start := time.Now()
	return store, func(err error) {
		metrics.ObserveStoreOp(string(kind), op, outcome(err), time.Since(start))
	}, nil
}

func outcome(err error) string {
	var backendErr *storage.BackendError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &backendErr):
		return "error"
	default:
		return "rejected"
	}
}

// List returns every record, newest first.
func (s *Service) List(ctx context.Context) (students []types.Student, err error) {
	store, done, err := s.track("list")
	if err != nil {
		return nil, err
	}
	defer func() { done(err) }()

	return store.ListStudents(ctx)
}

// Get returns the record with id, or ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (student types.Student, err error) {
	store, done, err := s.track("get")
	if err != nil {
		return types.Student{}, err
	}
	defer func() { done(err) }()

	student, found, err := store.GetStudent(ctx, id)
	if err != nil {
		return types.Student{}, err
	}
	if !found {
		return types.Student{}, ErrNotFound
	}
	return student, nil
}

// Create validates in, stores it and returns the new record's id.
func (s *Service) Create(ctx context.Context, in types.StudentInput) (id string, err error) {
	if err := validation.Student(in); err != nil {
		return "", err
	}

	store, done, err := s.track("create")
	if err != nil {
		return "", err
	}
	defer func() { done(err) }()

	id, err = store.InsertStudent(ctx, normalize(in))
	if errors.Is(err, storage.ErrDuplicateKey) {
		return "", ErrDuplicateEmail
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

// Update validates in and replaces the editable fields of record id.
// id and creation time never change.
func (s *Service) Update(ctx context.Context, id string, in types.StudentInput) (err error) {
	if err := validation.Student(in); err != nil {
		return err
	}

	store, done, err := s.track("update")
	if err != nil {
		return err
	}
	defer func() { done(err) }()

	matched, err := store.ReplaceStudent(ctx, id, normalize(in))
	if errors.Is(err, storage.ErrDuplicateKey) {
		return ErrDuplicateEmail
	}
	if err != nil {
		return err
	}
	if !matched {
		return ErrNotFound
	}
	return nil
}

// Delete removes record id permanently, or returns ErrNotFound.
func (s *Service) Delete(ctx context.Context, id string) (err error) {
	store, done, err := s.track("delete")
	if err != nil {
		return err
	}
	defer func() { done(err) }()

	matched, err := store.DeleteStudent(ctx, id)
	if err != nil {
		return err
	}
	if !matched {
		return ErrNotFound
	}
	return nil
}

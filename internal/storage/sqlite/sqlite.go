// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// Records live in a single "alunos" table keyed by an auto-incrementing
// integer. The id is handed to callers as its decimal string, and the
// uniqueness of email is enforced by a UNIQUE constraint on the column.
//
// Importing go-sqlite3 registers the "sqlite3" driver with database/sql;
// its Error type is also how constraint violations are recognised.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/aanand-mishra/alunos-api/internal/config"
	"github.com/aanand-mishra/alunos-api/internal/storage"
	"github.com/aanand-mishra/alunos-api/internal/types"
	"github.com/mattn/go-sqlite3"
)

// SQLite is the relational implementation of storage.Storage.
// It holds a *sql.DB which is a connection pool managed by database/sql.
// A single *sql.DB is safe for concurrent use by multiple goroutines.
type SQLite struct {
	Db *sql.DB
}

var _ storage.Storage = (*SQLite)(nil)

// New opens the SQLite database at cfg.SQLite.Path, creates the alunos
// table if it does not already exist, and returns a ready-to-use *SQLite.
func New(cfg *config.Config) (*SQLite, error) {
	// _busy_timeout makes concurrent writers wait for the file lock
	// instead of failing immediately with SQLITE_BUSY.
	db, err := sql.Open("sqlite3", cfg.SQLite.Path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// CREATE TABLE IF NOT EXISTS is idempotent — safe to run on every
	// startup.
	//
	// Schema:
	//   id             — integer primary key, auto-incremented by SQLite
	//   email          — UNIQUE: the store itself rejects duplicates
	//   createdAt      — filled in by SQLite on insert, never updated
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS alunos (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			nome           TEXT    NOT NULL,
			telefone       TEXT    NOT NULL,
			dataNascimento TEXT    NOT NULL,
			email          TEXT    NOT NULL UNIQUE,
			createdAt      DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	return &SQLite{Db: db}, nil
}

// classify turns a driver error into the storage error taxonomy.
func classify(op string, err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return fmt.Errorf("%s: %w", op, storage.ErrDuplicateKey)
	}
	return storage.Fail(op, err)
}

// parseID converts an opaque id back to the integer primary key.
// ok is false for anything that cannot be a row id.
func parseID(id string) (int64, bool) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

const selectColumns = "SELECT id, nome, telefone, dataNascimento, email, createdAt FROM alunos"

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanStudent(row scanner) (types.Student, error) {
	var (
		student types.Student
		id      int64
	)
	// The order of variables must match the order of columns in SELECT.
	if err := row.Scan(
		&id,
		&student.Name,
		&student.Phone,
		&student.BirthDate,
		&student.Email,
		&student.CreatedAt,
	); err != nil {
		return types.Student{}, err
	}
	student.ID = strconv.FormatInt(id, 10)
	return student, nil
}

// ListStudents returns all rows, newest first. Ids only ever grow, so
// ordering by id descending is ordering by creation.
func (s *SQLite) ListStudents(ctx context.Context) ([]types.Student, error) {
	const op = "sqlite.ListStudents"

	rows, err := s.Db.QueryContext(ctx, selectColumns+" ORDER BY id DESC")
	if err != nil {
		return nil, storage.Fail(op, err)
	}
	defer rows.Close() // must close rows to free the DB connection

	// Returning [] instead of null in JSON is better API behaviour.
	students := make([]types.Student, 0)

	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, storage.Fail(op, err)
		}
		students = append(students, student)
	}

	if err := rows.Err(); err != nil {
		return nil, storage.Fail(op, err)
	}

	return students, nil
}

// GetStudent fetches exactly one row matched by primary key.
func (s *SQLite) GetStudent(ctx context.Context, id string) (types.Student, bool, error) {
	const op = "sqlite.GetStudent"

	intID, ok := parseID(id)
	if !ok {
		return types.Student{}, false, nil
	}

	student, err := scanStudent(s.Db.QueryRowContext(ctx, selectColumns+" WHERE id = ? LIMIT 1", intID))
	if errors.Is(err, sql.ErrNoRows) {
		return types.Student{}, false, nil
	}
	if err != nil {
		return types.Student{}, false, storage.Fail(op, err)
	}

	return student, true, nil
}

// InsertStudent inserts a new row and returns its primary key.
//
// Values go through ? placeholders; the driver sends them separately from
// the SQL so they are never interpreted as SQL syntax.
func (s *SQLite) InsertStudent(ctx context.Context, in types.StudentInput) (string, error) {
	const op = "sqlite.InsertStudent"

	stmt, err := s.Db.PrepareContext(ctx,
		"INSERT INTO alunos (nome, telefone, dataNascimento, email) VALUES (?, ?, ?, ?)",
	)
	if err != nil {
		return "", storage.Fail(op, err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, in.Name, in.Phone, in.BirthDate, in.Email)
	if err != nil {
		return "", classify(op, err)
	}

	lastID, err := result.LastInsertId()
	if err != nil {
		return "", storage.Fail(op, err)
	}

	return strconv.FormatInt(lastID, 10), nil
}

// ReplaceStudent overwrites the editable columns. A zero rows-affected
// count means no row had that id.
func (s *SQLite) ReplaceStudent(ctx context.Context, id string, in types.StudentInput) (bool, error) {
	const op = "sqlite.ReplaceStudent"

	intID, ok := parseID(id)
	if !ok {
		return false, nil
	}

	stmt, err := s.Db.PrepareContext(ctx,
		"UPDATE alunos SET nome = ?, telefone = ?, dataNascimento = ?, email = ? WHERE id = ?",
	)
	if err != nil {
		return false, storage.Fail(op, err)
	}
	defer stmt.Close()

	// Argument order matches the ? order in the SQL.
	result, err := stmt.ExecContext(ctx, in.Name, in.Phone, in.BirthDate, in.Email, intID)
	if err != nil {
		return false, classify(op, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, storage.Fail(op, err)
	}

	return affected > 0, nil
}

// DeleteStudent removes a row by primary key.
func (s *SQLite) DeleteStudent(ctx context.Context, id string) (bool, error) {
	const op = "sqlite.DeleteStudent"

	intID, ok := parseID(id)
	if !ok {
		return false, nil
	}

	result, err := s.Db.ExecContext(ctx, "DELETE FROM alunos WHERE id = ?", intID)
	if err != nil {
		return false, storage.Fail(op, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, storage.Fail(op, err)
	}

	return affected > 0, nil
}

// Close closes the underlying connection pool.
func (s *SQLite) Close(_ context.Context) error {
	return s.Db.Close()
}

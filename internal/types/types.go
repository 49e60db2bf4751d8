// Package types holds all shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles —
// handlers, the record service, and every storage backend can import
// types without depending on each other.
package types

import "time"

// Student is a persisted student record as returned to API clients.
//
// ID is an opaque token. Its concrete shape depends on the backend that
// produced it (a decimal integer for SQLite, a hex ObjectID for MongoDB),
// but nothing above the storage layer ever looks inside it.
type Student struct {
	ID        string    `json:"id"`
	Name      string    `json:"nome"`
	Phone     string    `json:"telefone"`
	BirthDate string    `json:"dataNascimento"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// StudentInput carries the four editable fields of a student, as sent by
// clients on create and update.
//
// Field order matters: validation reports only the first failing field,
// and go-playground/validator walks fields in declaration order.
//
//	validate:"..." — rules checked by internal/validation.
type StudentInput struct {
	Name      string `json:"nome"           validate:"required,min=3"`
	Phone     string `json:"telefone"       validate:"notblank"`
	BirthDate string `json:"dataNascimento" validate:"required"`
	Email     string `json:"email"          validate:"required,contains=@"`
}

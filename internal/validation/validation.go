// Package validation checks candidate student records against the
// business rules shared by every storage backend.
//
// Rules are checked in a fixed order and only the first violation is
// reported:
//
//  1. nome           — present, at least 3 characters
//  2. telefone       — present and not only whitespace
//  3. dataNascimento — present (no date parsing)
//  4. email          — present and contains "@"
//
// Nothing here does I/O. Storage adapters never validate; this package is
// the single source of truth for the rules.
package validation

import (
	"errors"
	"strings"

	"github.com/aanand-mishra/alunos-api/internal/types"
	"github.com/go-playground/validator/v10"
)

// Field names reported in Error.Field, matching the JSON keys clients send.
const (
	FieldName      = "nome"
	FieldPhone     = "telefone"
	FieldBirthDate = "dataNascimento"
	FieldEmail     = "email"
)

// messages maps each field to the message shown to API clients when any
// rule on that field fails.
var messages = map[string]string{
	FieldName:      "Nome é obrigatório e deve ter no mínimo 3 caracteres",
	FieldPhone:     "Telefone é obrigatório",
	FieldBirthDate: "Data de nascimento é obrigatória",
	FieldEmail:     "Email válido é obrigatório",
}

// structField maps Go struct field names to the JSON names above.
var structField = map[string]string{
	"Name":      FieldName,
	"Phone":     FieldPhone,
	"BirthDate": FieldBirthDate,
	"Email":     FieldEmail,
}

// Error is the first rule violation found in a candidate record.
type Error struct {
	Field   string // JSON field name, e.g. "nome"
	Rule    string // validator tag that failed, e.g. "min"
	Message string // user-facing message
}

func (e *Error) Error() string {
	return e.Message
}

// validate is shared: a *validator.Validate caches struct metadata and is
// safe for concurrent use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// notblank: the string must contain something other than whitespace.
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return v
}

// Student validates in and returns nil or the first *Error.
func Student(in types.StudentInput) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}

	// Errors come back in struct declaration order, so the first one is
	// the first rule that failed.
	first := fieldErrs[0]
	field := structField[first.StructField()]

	return &Error{
		Field:   field,
		Rule:    first.Tag(),
		Message: messages[field],
	}
}

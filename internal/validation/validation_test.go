package validation

import (
	"testing"

	"github.com/aanand-mishra/alunos-api/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() types.StudentInput {
	return types.StudentInput{
		Name:      "Maria Silva",
		Phone:     "11999990000",
		BirthDate: "2000-01-01",
		Email:     "maria@example.com",
	}
}

func TestStudent_Valid(t *testing.T) {
	assert.NoError(t, Student(validInput()))
}

func TestStudent_Rules(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*types.StudentInput)
		field   string
		message string
	}{
		{
			name:    "missing name",
			mutate:  func(in *types.StudentInput) { in.Name = "" },
			field:   FieldName,
			message: "Nome é obrigatório e deve ter no mínimo 3 caracteres",
		},
		{
			name:    "name too short",
			mutate:  func(in *types.StudentInput) { in.Name = "Jo" },
			field:   FieldName,
			message: "Nome é obrigatório e deve ter no mínimo 3 caracteres",
		},
		{
			name:    "missing phone",
			mutate:  func(in *types.StudentInput) { in.Phone = "" },
			field:   FieldPhone,
			message: "Telefone é obrigatório",
		},
		{
			name:    "blank phone",
			mutate:  func(in *types.StudentInput) { in.Phone = "   " },
			field:   FieldPhone,
			message: "Telefone é obrigatório",
		},
		{
			name:    "missing birth date",
			mutate:  func(in *types.StudentInput) { in.BirthDate = "" },
			field:   FieldBirthDate,
			message: "Data de nascimento é obrigatória",
		},
		{
			name:    "missing email",
			mutate:  func(in *types.StudentInput) { in.Email = "" },
			field:   FieldEmail,
			message: "Email válido é obrigatório",
		},
		{
			name:    "email without at sign",
			mutate:  func(in *types.StudentInput) { in.Email = "maria.example.com" },
			field:   FieldEmail,
			message: "Email válido é obrigatório",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)

			err := Student(in)
			require.Error(t, err)

			var verr *Error
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, tt.message, verr.Error())
		})
	}
}

func TestStudent_FirstViolationWins(t *testing.T) {
	// Everything is wrong; only the name rule is reported.
	err := Student(types.StudentInput{Name: "Jo", Email: "nope"})

	var verr *Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, FieldName, verr.Field)
	assert.Equal(t, "min", verr.Rule)

	// Name fixed: phone is next in line, not email.
	err = Student(types.StudentInput{Name: "Joana", Email: "nope"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, FieldPhone, verr.Field)
}

func TestStudent_NoFormatChecks(t *testing.T) {
	in := validInput()
	in.Phone = "not a phone"
	in.BirthDate = "sometime in spring"
	in.Email = "@"

	assert.NoError(t, Student(in))
}

// Package student contains the HTTP handlers for the /alunos resource.
//
// Handlers follow the factory pattern: each exported function receives
// its dependencies (the record service) once at route registration and
// returns the http.HandlerFunc the router calls on every request.
//
//	router.HandleFunc("POST /alunos", student.New(svc))
//
// Handlers never look at which backend is active; the record service
// hides it, and every error it returns is mapped to a status code here.
package student

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/aanand-mishra/alunos-api/internal/backend"
	"github.com/aanand-mishra/alunos-api/internal/records"
	"github.com/aanand-mishra/alunos-api/internal/storage"
	"github.com/aanand-mishra/alunos-api/internal/types"
	"github.com/aanand-mishra/alunos-api/internal/utils/response"
	"github.com/aanand-mishra/alunos-api/internal/validation"
)

const (
	msgNotFound          = "Aluno não encontrado"
	msgNoBackendSelected = "Nenhum banco de dados selecionado. Use POST /select-db primeiro."
	msgInvalidBody       = "Corpo da requisição inválido"
)

// failure holds the per-operation messages for errors whose wording
// depends on what the client was doing.
type failure struct {
	internal  string // 500 erro
	duplicate string // 400 erro on email collision
}

var (
	failList   = failure{internal: "Erro ao listar alunos"}
	failGet    = failure{internal: "Erro ao buscar aluno"}
	failCreate = failure{internal: "Erro ao adicionar aluno", duplicate: "Email já cadastrado"}
	failUpdate = failure{internal: "Erro ao editar aluno", duplicate: "Email já cadastrado para outro aluno"}
	failDelete = failure{internal: "Erro ao deletar aluno"}
)

// writeError maps a record service error to a response.
//
//	*validation.Error, duplicate email, no backend → 400
//	not found                                       → 404
//	anything else                                   → 500 with detalhes
func writeError(w http.ResponseWriter, err error, f failure) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		response.WriteError(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, records.ErrDuplicateEmail):
		response.WriteError(w, http.StatusBadRequest, f.duplicate)
	case errors.Is(err, backend.ErrNoBackendSelected):
		response.WriteError(w, http.StatusBadRequest, msgNoBackendSelected)
	case errors.Is(err, records.ErrNotFound):
		response.WriteError(w, http.StatusNotFound, msgNotFound)
	default:
		detail := err.Error()
		var backendErr *storage.BackendError
		if errors.As(err, &backendErr) {
			detail = backendErr.Detail()
		}
		slog.Error(f.internal, slog.String("error", err.Error()))
		response.WriteFailure(w, http.StatusInternalServerError, f.internal, detail)
	}
}

// decodeInput reads the body as JSON, or as an HTML form when the
// Content-Type says so. An empty body decodes to an empty input, which
// validation then rejects field by field.
func decodeInput(w http.ResponseWriter, r *http.Request) (types.StudentInput, bool) {
	var in types.StudentInput

	if mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mediaType == "application/x-www-form-urlencoded" {
		if err := r.ParseForm(); err != nil {
			response.WriteFailure(w, http.StatusBadRequest, msgInvalidBody, err.Error())
			return types.StudentInput{}, false
		}
		in.Name = r.PostForm.Get("nome")
		in.Phone = r.PostForm.Get("telefone")
		in.BirthDate = r.PostForm.Get("dataNascimento")
		in.Email = r.PostForm.Get("email")
		return in, true
	}

	err := json.NewDecoder(r.Body).Decode(&in)
	if err != nil && !errors.Is(err, io.EOF) {
		response.WriteFailure(w, http.StatusBadRequest, msgInvalidBody, err.Error())
		return types.StudentInput{}, false
	}

	return in, true
}

// ─────────────────────────────────────────────────────────────────────────────
// GetList handles GET /alunos
// Returns every student, newest first. [] when there are none.
// ─────────────────────────────────────────────────────────────────────────────
func GetList(svc *records.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("listing students")

		students, err := svc.List(r.Context())
		if err != nil {
			writeError(w, err, failList)
			return
		}

		response.WriteJSON(w, http.StatusOK, students)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetByID handles GET /alunos/{id}
//
// Success response (200 OK):
//
//	{ "id": "1", "nome": "Maria", "telefone": "...", "dataNascimento": "...",
//	  "email": "maria@example.com", "createdAt": "..." }
//
// ─────────────────────────────────────────────────────────────────────────────
func GetByID(svc *records.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("getting a student", slog.String("id", id))

		student, err := svc.Get(r.Context(), id)
		if err != nil {
			writeError(w, err, failGet)
			return
		}

		response.WriteJSON(w, http.StatusOK, student)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /alunos
//
// Request body (JSON):
//
//	{ "nome": "Maria", "telefone": "11999990000",
//	  "dataNascimento": "2000-01-01", "email": "maria@example.com" }
//
// Success response (201 Created):
//
//	{ "mensagem": "Aluno cadastrado com sucesso!", "id": "1" }
//
// ─────────────────────────────────────────────────────────────────────────────
func New(svc *records.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a student")

		in, ok := decodeInput(w, r)
		if !ok {
			return
		}

		id, err := svc.Create(r.Context(), in)
		if err != nil {
			writeError(w, err, failCreate)
			return
		}

		slog.Info("student created", slog.String("id", id))

		response.WriteJSON(w, http.StatusCreated, struct {
			Mensagem string `json:"mensagem"`
			ID       string `json:"id"`
		}{
			Mensagem: "Aluno cadastrado com sucesso!",
			ID:       id,
		})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PUT /alunos/{id}
// Replaces all four editable fields; same body as New.
// ─────────────────────────────────────────────────────────────────────────────
func Update(svc *records.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("updating a student", slog.String("id", id))

		in, ok := decodeInput(w, r)
		if !ok {
			return
		}

		if err := svc.Update(r.Context(), id, in); err != nil {
			writeError(w, err, failUpdate)
			return
		}

		slog.Info("student updated", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, response.Message{Mensagem: "Aluno atualizado com sucesso!"})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Delete handles DELETE /alunos/{id}
// Permanently removes a student.
// ─────────────────────────────────────────────────────────────────────────────
func Delete(svc *records.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("deleting a student", slog.String("id", id))

		if err := svc.Delete(r.Context(), id); err != nil {
			writeError(w, err, failDelete)
			return
		}

		slog.Info("student deleted", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, response.Message{Mensagem: "Aluno removido com sucesso!"})
	}
}

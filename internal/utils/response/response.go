// Package response provides helpers for writing consistent JSON HTTP responses.
//
// Every handler in this application sends JSON back to the client.
// Rather than repeating the same three lines (set header, set status,
// encode JSON) in every handler, we centralise them here.
//
// Error responses always have the same shape:
//
//	{ "erro": "Aluno não encontrado" }
//	{ "erro": "Erro ao listar alunos", "detalhes": "database is locked" }
package response

import (
	"encoding/json"
	"net/http"
)

// Error is the envelope returned for every error case. Detalhes is only
// present for internal failures.
type Error struct {
	Erro     string `json:"erro"`
	Detalhes string `json:"detalhes,omitempty"`
}

// Message is the envelope for successful writes that have nothing else
// to return.
type Message struct {
	Mensagem string `json:"mensagem"`
}

// WriteJSON writes data JSON-encoded with the given HTTP status code.
//
// IMPORTANT ORDER: Header() → WriteHeader() → body writes.
// Once WriteHeader is called (or the first Write), headers are locked.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes {erro} with status.
func WriteError(w http.ResponseWriter, status int, erro string) error {
	return WriteJSON(w, status, Error{Erro: erro})
}

// WriteFailure writes {erro, detalhes} with status.
func WriteFailure(w http.ResponseWriter, status int, erro, detalhes string) error {
	return WriteJSON(w, status, Error{Erro: erro, Detalhes: detalhes})
}

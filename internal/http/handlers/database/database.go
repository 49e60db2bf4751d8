// Package database contains the HTTP handlers that choose and report the
// active storage backend.
package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aanand-mishra/alunos-api/internal/backend"
	"github.com/aanand-mishra/alunos-api/internal/metrics"
	"github.com/aanand-mishra/alunos-api/internal/utils/response"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

type selectRequest struct {
	Database string `json:"database"`
}

// currentResponse encodes an unset backend as "database": null.
type currentResponse struct {
	Database *string `json:"database"`
}

func current(sel *backend.Selector) *string {
	kind := sel.Current()
	if kind == backend.None {
		return nil
	}
	s := string(kind)
	return &s
}

// ─────────────────────────────────────────────────────────────────────────────
// Select handles POST /select-db
//
// Request body (JSON):
//
//	{ "database": "sqlite" }   or   { "database": "mongodb" }
//
// Success response (200 OK):
//
//	{ "mensagem": "Banco de dados SQLITE selecionado com sucesso!", "database": "sqlite" }
//
// Error responses:
//
//	400 Bad Request  — missing or unknown token
//	500 Internal     — the backend could not be reached
//
// ─────────────────────────────────────────────────────────────────────────────
func Select(sel *backend.Selector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req selectRequest
		// A body that is not JSON carries no valid token either.
		_ = json.NewDecoder(r.Body).Decode(&req)

		slog.Info("selecting backend", slog.String("database", req.Database))

		kind, err := backend.ParseKind(req.Database)
		if err != nil {
			response.WriteError(w, http.StatusBadRequest,
				`Banco de dados inválido. Use "sqlite" ou "mongodb"`)
			return
		}

		if err := sel.Select(r.Context(), kind); err != nil {
			metrics.ObserveSelect(string(kind), false)

			detail := err.Error()
			var connErr *backend.ConnectError
			if errors.As(err, &connErr) {
				detail = connErr.Err.Error()
			}
			response.WriteFailure(w, http.StatusInternalServerError,
				"Erro ao conectar ao banco de dados", detail)
			return
		}
		metrics.ObserveSelect(string(kind), true)

		response.WriteJSON(w, http.StatusOK, struct {
			Mensagem string `json:"mensagem"`
			Database string `json:"database"`
		}{
			Mensagem: fmt.Sprintf("Banco de dados %s selecionado com sucesso!", strings.ToUpper(string(kind))),
			Database: string(kind),
		})
	}
}

// Current handles GET /current-db
//
//	{ "database": "mongodb" }   or   { "database": null }
func Current(sel *backend.Selector) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		response.WriteJSON(w, http.StatusOK, currentResponse{Database: current(sel)})
	}
}

// Info handles GET /
func Info(sel *backend.Selector) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		active := "Nenhum banco selecionado"
		if c := current(sel); c != nil {
			active = *c
		}

		response.WriteJSON(w, http.StatusOK, struct {
			Mensagem   string `json:"mensagem"`
			Versao     string `json:"versao"`
			BancoAtual string `json:"bancoAtual"`
		}{
			Mensagem:   "API de CRUD de Alunos",
			Versao:     Version,
			BancoAtual: active,
		})
	}
}

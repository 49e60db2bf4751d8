// Package router builds the HTTP route table.
//
// Route table:
//
//	GET    /              → API info and active backend
//	POST   /select-db     → choose "sqlite" or "mongodb"
//	GET    /current-db    → report the active backend
//	GET    /alunos        → list all students, newest first
//	GET    /alunos/{id}   → get one student
//	POST   /alunos        → create a student
//	PUT    /alunos/{id}   → replace a student's fields
//	DELETE /alunos/{id}   → delete a student
//	GET    /metrics       → Prometheus metrics
//
// Anything else is answered with 404 {erro: "Rota não encontrada"}.
package router

import (
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/alunos-api/internal/backend"
	"github.com/aanand-mishra/alunos-api/internal/http/handlers/database"
	"github.com/aanand-mishra/alunos-api/internal/http/handlers/student"
	"github.com/aanand-mishra/alunos-api/internal/http/middleware"
	"github.com/aanand-mishra/alunos-api/internal/metrics"
	"github.com/aanand-mishra/alunos-api/internal/records"
	"github.com/aanand-mishra/alunos-api/internal/utils/response"
)

// New returns the full handler: routes wrapped in recovery, logging and
// CORS.
func New(sel *backend.Selector, svc *records.Service, log *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", database.Info(sel))
	mux.HandleFunc("POST /select-db", database.Select(sel))
	mux.HandleFunc("GET /current-db", database.Current(sel))

	mux.HandleFunc("GET /alunos", student.GetList(svc))
	mux.HandleFunc("GET /alunos/{id}", student.GetByID(svc))
	mux.HandleFunc("POST /alunos", student.New(svc))
	mux.HandleFunc("PUT /alunos/{id}", student.Update(svc))
	mux.HandleFunc("DELETE /alunos/{id}", student.Delete(svc))

	mux.HandleFunc("GET /metrics", metrics.Handler())

	// "/" matches every request no other pattern claims, including known
	// paths with an unsupported method.
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		response.WriteError(w, http.StatusNotFound, "Rota não encontrada")
	})

	return middleware.Chain(mux,
		middleware.Recover(log),
		middleware.Logger(log),
		middleware.CORS,
	)
}

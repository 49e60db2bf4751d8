// Package metrics exposes request and storage counters in Prometheus text
// format, backed by github.com/VictoriaMetrics/metrics.
package metrics

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/VictoriaMetrics/metrics"
)

// ObserveRequest records one served HTTP request.
// route is the matched mux pattern, or "unmatched".
func ObserveRequest(method, route string, status int, elapsed time.Duration) {
	metrics.GetOrCreateCounter(fmt.Sprintf(
		`alunos_http_requests_total{method=%q,route=%q,status="%d"}`, method, route, status,
	)).Inc()
	metrics.GetOrCreateHistogram(fmt.Sprintf(
		`alunos_http_request_duration_seconds{method=%q,route=%q}`, method, route,
	)).Update(elapsed.Seconds())
}

// ObserveStoreOp records one record operation against a backend.
// result is "ok", "rejected" (not found, duplicate) or "error".
func ObserveStoreOp(backend, op, result string, elapsed time.Duration) {
	metrics.GetOrCreateCounter(fmt.Sprintf(
		`alunos_store_operations_total{backend=%q,op=%q,result=%q}`, backend, op, result,
	)).Inc()
	metrics.GetOrCreateHistogram(fmt.Sprintf(
		`alunos_store_operation_duration_seconds{backend=%q,op=%q}`, backend, op,
	)).Update(elapsed.Seconds())
}

// ObserveSelect records one backend selection attempt.
func ObserveSelect(backend string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	metrics.GetOrCreateCounter(fmt.Sprintf(
		`alunos_backend_selections_total{backend=%q,result=%q}`, backend, result,
	)).Inc()
}

// Write writes every metric, plus Go process metrics, to w.
func Write(w io.Writer) {
	metrics.WritePrometheus(w, true)
}

// Handler serves GET /metrics.
func Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		Write(w)
	}
}

// Package http assembles the service router: platform middleware, public
// probes, and the per-feature route groups behind authentication.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	attendancehandler "rollcall/internal/attendance/handler"
	"rollcall/internal/auth"
	"rollcall/internal/class"
	"rollcall/internal/dispute"
	"rollcall/internal/enrollment"
	"rollcall/internal/lecture"
	"rollcall/internal/platform/metrics"
	"rollcall/internal/platform/middleware"
)

// Handlers collects the per-feature handlers the router mounts.
type Handlers struct {
	Auth       *auth.Handler
	Class      *class.Handler
	Enrollment *enrollment.Handler
	Lecture    *lecture.Handler
	Attendance *attendancehandler.Handler
	Dispute    *dispute.Handler
}

// New builds the service router.
func New(logger *slog.Logger, m *metrics.Metrics, validator middleware.JWTValidator, h Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Latency(m))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		h.Auth.Routes(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireAuth(validator, logger))
		h.Class.Routes(r)
		h.Enrollment.Routes(r)
		h.Lecture.Routes(r)
		h.Attendance.Routes(r)
		h.Dispute.Routes(r)
	})

	return r
}

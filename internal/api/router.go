package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	mw "github.com/mltrain/trainwatch/internal/api/middleware"
	"github.com/mltrain/trainwatch/internal/api/response"
)

// Dependencies holds all handlers for the router.
type Dependencies struct {
	HealthHandler   http.HandlerFunc
	ViewHandler     http.HandlerFunc
	JobsHandler     http.HandlerFunc
	SelectHandler   http.HandlerFunc
	DeselectHandler http.HandlerFunc
	EventsHandler   http.HandlerFunc
	ChartHandler    http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", orNotImplemented(deps.HealthHandler))
		r.Get("/view", orNotImplemented(deps.ViewHandler))
		r.Get("/jobs", orNotImplemented(deps.JobsHandler))

		r.Route("/selection", func(r chi.Router) {
			r.Delete("/", orNotImplemented(deps.DeselectHandler))
			r.Get("/events", orNotImplemented(deps.EventsHandler))
			r.Get("/chart.png", orNotImplemented(deps.ChartHandler))
			r.Put("/{jobID}", orNotImplemented(deps.SelectHandler))
		})
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}

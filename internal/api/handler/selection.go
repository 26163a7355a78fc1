package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/mltrain/trainwatch/internal/api/response"
	"github.com/mltrain/trainwatch/internal/monitor"
)

const maxJobIDLen = 256

// NewSelectHandler returns an http.HandlerFunc for PUT /api/v1/selection/{jobID}.
// The detail fetch runs asynchronously, so the response is 202 with the
// view as of the switch; follow /selection/events for the outcome.
func NewSelectHandler(m Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := strings.TrimSpace(chi.URLParam(r, "jobID"))
		if len(jobID) > maxJobIDLen {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "job id is too long", nil)
			return
		}

		if err := m.Select(jobID); err != nil {
			if errors.Is(err, monitor.ErrEmptyJobID) {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "job id is required", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		response.Accepted(w, m.View())
	}
}

// NewDeselectHandler returns an http.HandlerFunc for DELETE /api/v1/selection.
func NewDeselectHandler(m Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		m.Deselect()
		response.Accepted(w, m.View())
	}
}

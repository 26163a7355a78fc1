package handler

import (
	"net/http"

	"github.com/mltrain/trainwatch/internal/api/response"
)

// NewViewHandler returns an http.HandlerFunc for GET /api/v1/view.
func NewViewHandler(m Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		response.JSON(w, m.View())
	}
}

// NewJobsHandler returns an http.HandlerFunc for GET /api/v1/jobs.
// A failed directory load shows up as an empty list with loaded=false.
func NewJobsHandler(m Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		v := m.View()
		response.Collection(w, v.Jobs, response.ListMeta{
			Total:  len(v.Jobs),
			Loaded: v.DirectoryLoaded,
		})
	}
}

package handler

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mltrain/trainwatch/internal/api/response"
	"github.com/mltrain/trainwatch/internal/render"
)

const (
	minChartSize = 100
	maxChartSize = 4000
)

// NewChartHandler returns an http.HandlerFunc for GET /api/v1/selection/chart.png.
// Optional width and height query params are clamped to a sane range.
func NewChartHandler(m Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sel := m.Selection()

		opts := render.Options{
			Title:  sel.JobID,
			Width:  sizeParam(r, "width", render.DefaultWidth),
			Height: sizeParam(r, "height", render.DefaultHeight),
		}
		if sel.Detail != nil && sel.Detail.Name != nil && *sel.Detail.Name != "" {
			opts.Title = *sel.Detail.Name
		}

		var buf bytes.Buffer
		if err := render.PNG(&buf, sel.Columns, sel.Rows, opts); err != nil {
			if errors.Is(err, render.ErrNoRows) {
				response.Error(w, http.StatusNotFound, "NO_METRICS",
					"No metrics to chart for the current selection", nil)
				return
			}
			slog.Error("render chart", "job_id", sel.JobID, "error", err)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.WriteHeader(http.StatusOK)
		if _, err := buf.WriteTo(w); err != nil {
			slog.Warn("write chart", "error", err)
		}
	}
}

func sizeParam(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	if n < minChartSize {
		return minChartSize
	}
	if n > maxChartSize {
		return maxChartSize
	}
	return n
}

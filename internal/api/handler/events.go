package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mltrain/trainwatch/internal/api/response"
)

// DefaultKeepAlive is how often an idle event stream sends a comment line.
const DefaultKeepAlive = 15 * time.Second

// NewEventsHandler returns an http.HandlerFunc for GET /api/v1/selection/events.
// It streams every published selection as a server-sent "selection" event,
// starting with the current one. Slow clients skip intermediate updates.
func NewEventsHandler(m Monitor, keepAlive time.Duration) http.HandlerFunc {
	if keepAlive <= 0 {
		keepAlive = DefaultKeepAlive
	}
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			response.Error(w, http.StatusInternalServerError, "STREAMING_UNSUPPORTED",
				"Streaming is not supported", nil)
			return
		}
		// The server write timeout would otherwise cut long-lived streams.
		if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
			slog.Debug("clear write deadline", "error", err)
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		updates, unsubscribe := m.Subscribe()
		defer unsubscribe()

		ticker := time.NewTicker(keepAlive)
		defer ticker.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case sel := <-updates:
				data, err := json.Marshal(sel)
				if err != nil {
					slog.Error("encode selection event", "error", err)
					continue
				}
				if _, err := fmt.Fprintf(w, "event: selection\ndata: %s\n\n", data); err != nil {
					return
				}
				flusher.Flush()
			case <-ticker.C:
				if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}

package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/jobiai/jobiai-assess/internal/events"
)

type EventReader interface {
	Since(ctx context.Context, after int64, limit int) ([]events.Entry, error)
}

type eventView struct {
	Offset     int64           `json:"offset"`
	RoutingKey string          `json:"routingKey"`
	Payload    json.RawMessage `json:"payload"`
	CreatedAt  int64           `json:"createdAt"`
}

// GET /events?after=<offset>&limit=<n>: the local event log, oldest first.
// Consumers page by passing the last offset they saw.
func ListEventsHandler(log EventReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		after, err := strconv.ParseInt(r.URL.Query().Get("after"), 10, 64)
		if err != nil && r.URL.Query().Get("after") != "" {
			http.Error(w, "after must be an offset", http.StatusBadRequest)
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit <= 0 || limit > 500 {
			limit = 100
		}
		es, err := log.Since(r.Context(), after, limit)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		out := make([]eventView, 0, len(es))
		for _, e := range es {
			out = append(out, eventView{Offset: e.Offset, RoutingKey: e.RoutingKey, Payload: json.RawMessage(e.Payload), CreatedAt: e.CreatedAt})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

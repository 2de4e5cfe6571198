package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/webmark/webmark/internal/httpserver/deps"
)

type componentStatus struct {
	OK          bool   `json:"ok"`
	Highlights  *int   `json:"highlights,omitempty"`
	Subscribers *int   `json:"subscribers,omitempty"`
	Mode        string `json:"mode,omitempty"`
	Error       string `json:"error,omitempty"`
}

type statusResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

// Status reports the health of the store, the sync layer and the
// persistence backend.
func Status(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		count := d.Store.Count()
		subs := d.Broker.SubscriberCount()

		components := map[string]componentStatus{
			"store": {
				OK:         true,
				Highlights: &count,
			},
			"sync": {
				OK:          true,
				Subscribers: &subs,
			},
			"redis": checkRedis(d),
		}

		mode := "durable"
		if !components["redis"].OK {
			// Memory-only: mutations still work but do not survive a
			// restart.
			mode = "volatile"
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(statusResponse{
			Mode:       mode,
			Components: components,
		})
	}
}

func checkRedis(d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{
			OK:    false,
			Mode:  "memory-only",
			Error: "client not initialized",
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{
			OK:    false,
			Mode:  "memory-only",
			Error: "timeout",
		}
	}

	return componentStatus{OK: true, Mode: "durable"}
}

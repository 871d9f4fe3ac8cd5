package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/MrSnakeDoc/smartmarks/internal/httpserver/deps"
)

type componentStatus struct {
	OK      bool   `json:"ok"`
	Backend string `json:"backend,omitempty"`
	Impact  string `json:"impact,omitempty"`
	Error   string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports the state of each backend and the resulting service mode:
// "optimal", "degraded" (live updates down) or "critical" (store down).
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()

		components := map[string]componentStatus{
			"store": checkStore(ctx, d),
			"feed":  checkFeed(ctx, d),
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(infraResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

func determineMode(components map[string]componentStatus) string {
	if store, ok := components["store"]; ok && !store.OK {
		return "critical"
	}
	if feed, ok := components["feed"]; ok && !feed.OK {
		return "degraded"
	}
	return "optimal"
}

func checkStore(ctx context.Context, d deps.Deps) componentStatus {
	if err := d.Bookmarks.Ping(ctx); err != nil {
		return componentStatus{
			OK:      false,
			Backend: d.StoreBackend,
			Impact:  "bookmarks-unavailable",
			Error:   err.Error(),
		}
	}
	return componentStatus{OK: true, Backend: d.StoreBackend}
}

// checkFeed pings Redis when the feed runs on it. The local feed has
// nothing to fail.
func checkFeed(ctx context.Context, d deps.Deps) componentStatus {
	if d.FeedBackend != "redis" {
		return componentStatus{OK: true, Backend: d.FeedBackend}
	}
	if d.RedisClient == nil {
		return componentStatus{
			OK:      false,
			Backend: d.FeedBackend,
			Impact:  "live-updates-disabled",
			Error:   "client not initialized",
		}
	}
	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{
			OK:      false,
			Backend: d.FeedBackend,
			Impact:  "live-updates-disabled",
			Error:   "timeout",
		}
	}
	return componentStatus{OK: true, Backend: d.FeedBackend}
}

package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MrSnakeDoc/smartmarks/internal/auth"
	"github.com/MrSnakeDoc/smartmarks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/smartmarks/internal/logger"
	"github.com/MrSnakeDoc/smartmarks/internal/ui"
)

const defaultHeartbeat = 25 * time.Second

// Stream keeps the signed-in user's list current over server-sent events.
// Each connection owns one ListView; every state change is sent as an
// "event: list" carrying the rendered list fragment. The view is
// deactivated, and its subscription closed, when the client goes away.
// The session is checked again on every heartbeat; once it is gone the
// stream sends "event: unauthorized" and ends.
func Stream(d deps.Deps) http.HandlerFunc {
	heartbeat := d.Heartbeat
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}

	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := auth.UserFrom(r.Context())
		if !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		rc := http.NewResponseController(w)
		// The server write timeout is for ordinary requests, not streams.
		_ = rc.SetWriteDeadline(time.Time{})

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)

		ctx := r.Context()
		log := d.Logger.With(logger.String("user_id", u.ID))

		view := ui.NewListView(d.Bookmarks, log, ui.WithDedupe(d.DedupeLive))
		view.Activate(ctx, u.ID)
		defer view.Deactivate()

		send := func() bool {
			html, err := d.Renderer.ListHTML(view.State())
			if err != nil {
				log.Error("failed to render list", logger.Error(err))
				return false
			}
			if err := writeEvent(w, "list", html); err != nil {
				return false
			}
			return rc.Flush() == nil
		}

		if !send() {
			return
		}

		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-d.Closing:
				return
			case <-view.Changed():
				if !send() {
					return
				}
			case <-ticker.C:
				if _, ok := d.Sessions.CurrentUser(r); !ok {
					log.Info("session ended, closing stream")
					if writeEvent(w, "unauthorized", "") == nil {
						_ = rc.Flush()
					}
					return
				}
				if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
					return
				}
				if rc.Flush() != nil {
					return
				}
			}
		}
	}
}

// writeEvent writes one SSE event. Multi-line data is split into one
// data: line per line, which the browser joins back with "\n".
func writeEvent(w io.Writer, event, data string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "event: %s\n", event)
	for _, line := range strings.Split(data, "\n") {
		b.WriteString("data: ")
		b.WriteString(strings.TrimSuffix(line, "\r"))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}

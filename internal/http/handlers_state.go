package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/target/rentdesk/internal/domain/guard"
)

// streamKeepAlive is how often an idle auth-state stream sends a comment line.
const streamKeepAlive = 25 * time.Second

// StateStream streams the caller's auth state as Server-Sent Events. Each
// snapshot is sent as an "auth_state" event; the tracker and its event
// subscription are released when the client disconnects.
// GET /auth/state/stream.
func (h *AuthHandlers) StateStream(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	ctx := r.Context()

	tracker := h.States.ForSession(sessionIDFromRequest(r))
	defer func() {
		if err := tracker.Close(); err != nil {
			h.logger().WarnContext(ctx, "closing auth state tracker failed", "error", err)
		}
	}()

	updates, cancel := tracker.Watch()
	defer cancel()

	if err := tracker.Start(ctx); err != nil {
		h.logger().ErrorContext(ctx, "starting auth state stream failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "stream_unavailable",
			Err:     errors.New("auth state stream unavailable"),
		})
		return
	}

	h.Opts.Metrics.StreamOpened()
	defer h.Opts.Metrics.StreamClosed()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	keepAlive := time.NewTicker(streamKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
		case snap, ok := <-updates:
			if !ok {
				return
			}
			if err := writeStateEvent(w, snap); err != nil {
				h.logger().DebugContext(ctx, "auth state stream write failed", "error", err)
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func writeStateEvent(w http.ResponseWriter, snap guard.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal auth state: %w", err)
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: auth_state\ndata: %s\n\n", snap.Seq, data)
	return err
}

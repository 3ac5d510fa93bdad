package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/telematics/internal/domain/model"
	"github.com/okian/telematics/internal/domain/types"
)

const defaultKeepAlive = 15 * time.Second

// StreamOption configures the stream handler.
type StreamOption func(*StreamHandler)

// WithKeepAlive sets the interval between SSE comment frames.
func WithKeepAlive(d time.Duration) StreamOption {
	return func(h *StreamHandler) {
		if d > 0 {
			h.keepAlive = d
		}
	}
}

// StreamHandler pushes live feedback as server-sent events.
type StreamHandler struct {
	deps      StreamDependencies
	keepAlive time.Duration
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(deps StreamDependencies, opts ...StreamOption) *StreamHandler {
	h := &StreamHandler{deps: deps, keepAlive: defaultKeepAlive}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleStream handles GET /api/sessions/{id}/stream. Each tick is sent as a
// "feedback" event and the end of a run as an "idle" event carrying the
// session state. A "closed" event ends the stream when the session goes away.
func (h *StreamHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	const op = "api.stream"
	sub, err := h.deps.Subscribe(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	defer sub.Close()

	rc := http.NewResponseController(w)
	// The server write timeout would otherwise cut long-lived streams.
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprint(w, ": connected\n\n"); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		return
	}

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case n, ok := <-sub.C:
			if !ok {
				_, _ = fmt.Fprint(w, "event: closed\ndata: {}\n\n")
				_ = rc.Flush()
				return
			}
			frame, err := encodeEvent(n)
			if err != nil {
				continue
			}
			if _, err := io.WriteString(w, frame); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

// encodeEvent renders one notification as an SSE frame.
func encodeEvent(n model.Notification) (string, error) { //nolint:gocritic // hugeParam: value semantics
	if n.Kind == model.NotificationIdle {
		data, err := json.Marshal(types.NewStateEvent(n))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("event: idle\ndata: %s\n\n", data), nil
	}
	data, err := json.Marshal(types.NewFeedEvent(n))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("id: %s\nevent: feedback\ndata: %s\n\n", n.Feedback.ID, data), nil
}

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/stacklok/cartsync/internal/logger"
)

// streamEvents serves GET /v1/cart/events as server-sent events. The current
// value is sent on connect and again after every store change. Changes that
// arrive while a write is pending collapse into one event.
func (h *handlers) streamEvents(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		logger.Debugf("Failed to clear write deadline for event stream: %v", err)
	}

	streamID := uuid.NewString()
	notify := make(chan struct{}, 1)
	sub := h.cart.On(func() {
		select {
		case notify <- struct{}{}:
		default:
		}
	})
	defer h.cart.Off(sub)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := rc.Flush(); err != nil {
		logger.Warnf("Cart event stream %s: streaming unsupported: %v", streamID, err)
		return
	}

	logger.Debugf("Cart event stream %s opened", streamID)
	defer logger.Debugf("Cart event stream %s closed", streamID)

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	var seq uint64
	send := func() error {
		data, err := json.Marshal(h.cart.Get())
		if err != nil {
			return err
		}
		seq++
		if _, err := fmt.Fprintf(w, "id: %s-%d\nevent: change\ndata: %s\n\n", streamID, seq, data); err != nil {
			return err
		}
		return rc.Flush()
	}

	if err := send(); err != nil {
		logger.Warnf("Cart event stream %s: %v", streamID, err)
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-notify:
			if err := send(); err != nil {
				logger.Warnf("Cart event stream %s: %v", streamID, err)
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

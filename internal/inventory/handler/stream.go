package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/omiam/omiam-backend/internal/notify"
	"github.com/omiam/omiam-backend/pkg/actor"
	"github.com/omiam/omiam-backend/pkg/errors"
	"github.com/omiam/omiam-backend/pkg/httputil"
	"github.com/omiam/omiam-backend/pkg/permissions"
)

// EventConnected is the first event written on every stream
const EventConnected = "connected"

// Stream holds a server-sent events connection open and relays messages
// from the notification registry until the client goes away.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	if !authorize(w, r, permissions.InventoryRead) {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok || h.registry == nil {
		httputil.Error(w, errors.Internal("streaming is not supported"))
		return
	}

	userID := actor.IDFromContext(r.Context())
	if userID == "" {
		userID = "anonymous"
	}

	// Streams are exempt from the server write timeout
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	conn := h.registry.Register(userID)
	defer h.registry.Unregister(conn)

	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, notify.NewMessage(EventConnected, map[string]string{"userId": userID})); err != nil {
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, open := <-conn.Messages():
			if !open {
				return
			}
			if err := writeEvent(w, msg); err != nil {
				h.logger.Debug().Err(err).Str("user_id", userID).Msg("notification stream write failed")
				return
			}
			flusher.Flush()
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, msg notify.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", msg.ID, msg.Event, data)
	return err
}

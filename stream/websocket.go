package stream

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// Handler streams a session's events over a WebSocket. It expects to be
// mounted on a route with an {id} wildcard, e.g. "GET /sessions/{id}/events".
type Handler struct {
	manager  *Manager
	upgrader websocket.Upgrader
	buffer   int
	logger   *slog.Logger
}

// NewHandler creates a handler serving buses owned by manager.
func NewHandler(manager *Manager, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		manager: manager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		buffer: DefaultBuffer,
		logger: logger.With("component", "stream-ws"),
	}
}

// ServeHTTP upgrades the connection and relays events until the bus completes
// or the client goes away.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	bus, ok := h.manager.Get(id)
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "session", id, "err", err)
		return
	}
	defer conn.Close()

	sub := bus.Subscribe(h.buffer)
	defer bus.Unsubscribe(sub)

	// Client messages are ignored; reading only detects disconnects.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			h.logger.Debug("client disconnected", "session", id)
			return
		case ev, ok := <-sub.C:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "stream complete"),
					time.Now().Add(writeWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				h.logger.Warn("websocket write failed", "session", id, "err", err)
				return
			}
		}
	}
}

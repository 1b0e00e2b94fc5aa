package handlers

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/itdesk/internal/realtime"
)

// NotificationsHandler upgrades authenticated requests to WebSocket and
// streams hub broadcasts to them.
type NotificationsHandler struct {
	hub    *realtime.Hub
	logger *zap.Logger
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(hub *realtime.Hub, logger *zap.Logger) *NotificationsHandler {
	return &NotificationsHandler{hub: hub, logger: logger}
}

// Upgrade rejects plain HTTP requests before the websocket handler runs.
func (h *NotificationsHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Stream is the websocket endpoint. Every connected client receives every
// broadcast; there is no per-client filtering and no replay of missed
// events for late joiners.
func (h *NotificationsHandler) Stream() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		client := h.hub.Register()
		defer h.hub.Unregister(client)

		done := make(chan struct{})

		// Reads are discarded; the loop exists to detect the peer closing.
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case payload, ok := <-client.Send():
				if !ok {
					_ = conn.WriteMessage(websocket.CloseMessage, nil)
					return
				}
				if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
					h.logger.Debug("realtime write failed", zap.Error(err))
					return
				}
			case <-done:
				return
			}
		}
	})
}

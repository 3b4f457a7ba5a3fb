package handlers

import (
	"log/slog"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rihlahq/crm-backend/internal/realtime"
)

// WSHandler upgrades HTTP connections to websockets and attaches them to the hub
type WSHandler struct {
	hub      *realtime.Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWSHandler creates a new WSHandler
func NewWSHandler(hub *realtime.Hub, upgrader websocket.Upgrader, logger *slog.Logger) *WSHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSHandler{hub: hub, upgrader: upgrader, logger: logger}
}

// Serve handles GET /ws
func (h *WSHandler) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade writes the error response itself
		h.logger.Warn("websocket upgrade failed",
			"remote_addr", c.RealIP(),
			"error", err)
		return nil
	}

	client := realtime.NewClient(h.hub, conn, h.logger)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	return nil
}

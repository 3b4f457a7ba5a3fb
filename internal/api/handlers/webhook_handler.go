package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rihlahq/crm-backend/internal/api/response"
	"github.com/rihlahq/crm-backend/internal/logger"
	"github.com/rihlahq/crm-backend/internal/services"
	"github.com/rihlahq/crm-backend/internal/whatsapp"
)

// WebhookHandler handles the provider-facing webhook endpoints
type WebhookHandler struct {
	inbox       *services.InboxService
	verifyToken string
	secLog      *logger.SecurityLogger
	logger      *slog.Logger
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(inbox *services.InboxService, verifyToken string, secLog *logger.SecurityLogger, log *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		inbox:       inbox,
		verifyToken: verifyToken,
		secLog:      secLog,
		logger:      log,
	}
}

// Verify handles GET /webhook/messages - the provider's subscription
// handshake. Echoes hub.challenge on a token match, 403 otherwise.
func (h *WebhookHandler) Verify(c echo.Context) error {
	mode := c.QueryParam("hub.mode")
	token := c.QueryParam("hub.verify_token")
	challenge := c.QueryParam("hub.challenge")

	if mode == "subscribe" && token != "" && token == h.verifyToken {
		return c.String(http.StatusOK, challenge)
	}

	if h.secLog != nil {
		h.secLog.WebhookVerificationFailure(c.RealIP(), mode)
	}
	return response.Forbidden(c, "webhook verification failed")
}

// Receive handles POST /webhook/messages - one message delivery from the
// provider. Payloads that don't carry the expected message path are
// answered 200 without side effects: the provider disables subscriptions
// that keep failing, so "not for us" must never look like an error.
func (h *WebhookHandler) Receive(c echo.Context) error {
	var payload whatsapp.WebhookPayload
	if err := c.Bind(&payload); err != nil {
		if h.logger != nil {
			h.logger.Debug("undecodable webhook body, ignoring", slog.Any("error", err))
		}
		return c.JSON(http.StatusOK, map[string]bool{"success": true})
	}

	if err := h.inbox.ProcessInbound(c.Request().Context(), &payload); err != nil {
		if h.logger != nil {
			h.logger.Error("webhook processing failed", slog.Any("error", err))
		}
		// 500 makes the provider redeliver; at-least-once is the retry path
		return response.Error(c, err)
	}

	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rihlahq/crm-backend/internal/api/response"
	apperrors "github.com/rihlahq/crm-backend/internal/errors"
	"github.com/rihlahq/crm-backend/internal/repository"
	"github.com/rihlahq/crm-backend/internal/services"
	"github.com/rihlahq/crm-backend/internal/storage"
	"github.com/rihlahq/crm-backend/internal/validator"
)

// SendHandler handles the outbound reply and send-media endpoints
type SendHandler struct {
	inbox *services.InboxService
}

// NewSendHandler creates a new SendHandler
func NewSendHandler(inbox *services.InboxService) *SendHandler {
	return &SendHandler{inbox: inbox}
}

// ReplyRequest is the body of POST /webhook/reply
type ReplyRequest struct {
	Recipient string `json:"recipient"`
	Text      string `json:"text"`
	LeadID    uint   `json:"lead_id"`
}

// ReplyResponse mirrors the shape the browser client expects
type ReplyResponse struct {
	Success   bool      `json:"success"`
	Timestamp time.Time `json:"timestamp"`
	MessageID string    `json:"message_id"`
}

// Reply handles POST /webhook/reply
func (h *SendHandler) Reply(c echo.Context) error {
	var req ReplyRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	if req.Text == "" {
		return response.BadRequest(c, "text is required")
	}
	if req.LeadID == 0 {
		return response.BadRequest(c, "lead_id is required")
	}
	if err := validator.ValidatePhone(req.Recipient); err != nil {
		return response.BadRequest(c, "invalid recipient phone number")
	}

	message, err := h.inbox.Reply(c.Request().Context(), req.LeadID, req.Recipient, req.Text)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "lead not found")
		}
		if apperrors.IsProviderError(err) {
			return response.Error(c, err)
		}
		return response.InternalError(c, "failed to send reply")
	}

	return c.JSON(http.StatusOK, ReplyResponse{
		Success:   true,
		Timestamp: message.Timestamp,
		MessageID: message.WamID,
	})
}

// SendMediaResponse mirrors the shape the browser client expects
type SendMediaResponse struct {
	Success   bool              `json:"success"`
	Data      map[string]string `json:"data"`
	MessageID string            `json:"message_id"`
}

// SendMedia handles POST /webhook/send-media (multipart)
func (h *SendHandler) SendMedia(c echo.Context) error {
	recipient := c.FormValue("recipient")
	mediaType := c.FormValue("mediaType")
	leadIDRaw := c.FormValue("leadId")

	leadID, err := strconv.ParseUint(leadIDRaw, 10, 32)
	if err != nil || leadID == 0 {
		return response.BadRequest(c, "invalid lead ID")
	}
	if err := validator.ValidatePhone(recipient); err != nil {
		return response.BadRequest(c, "invalid recipient phone number")
	}
	if err := validator.ValidateMediaType(mediaType); err != nil {
		return response.BadRequest(c, "unsupported media type")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return response.BadRequest(c, "file is required")
	}

	filename := validator.SanitizeFilename(fileHeader.Filename)
	if err := storage.ValidateUpload(filename, fileHeader.Size); err != nil {
		return response.BadRequest(c, err.Error())
	}

	src, err := fileHeader.Open()
	if err != nil {
		return response.InternalError(c, "failed to read upload")
	}
	defer src.Close()

	mimeType := fileHeader.Header.Get("Content-Type")
	result, err := h.inbox.SendMedia(c.Request().Context(), uint(leadID), recipient, mediaType, filename, mimeType, src)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "lead not found")
		}
		if apperrors.IsProviderError(err) {
			return response.Error(c, err)
		}
		return response.InternalError(c, "failed to send media")
	}

	return c.JSON(http.StatusOK, SendMediaResponse{
		Success:   true,
		Data:      map[string]string{"url": result.URL},
		MessageID: result.Message.WamID,
	})
}

package handlers

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rihlahq/crm-backend/internal/api/response"
	"github.com/rihlahq/crm-backend/internal/repository"
	"github.com/rihlahq/crm-backend/internal/services"
	"github.com/rihlahq/crm-backend/internal/validator"
)

// ChatHandler handles the chat-list and thread HTTP requests
type ChatHandler struct {
	inbox       *services.InboxService
	messageRepo repository.MessageRepository
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(inbox *services.InboxService, messageRepo repository.MessageRepository) *ChatHandler {
	return &ChatHandler{
		inbox:       inbox,
		messageRepo: messageRepo,
	}
}

// ListThread handles GET /webhook/messages/:leadId
func (h *ChatHandler) ListThread(c echo.Context) error {
	leadID, err := strconv.ParseUint(c.Param("leadId"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "invalid lead ID")
	}

	limit, offset := paginationParams(c)

	messages, total, err := h.messageRepo.ListByLead(c.Request().Context(), uint(leadID), limit, offset)
	if err != nil {
		return response.InternalError(c, "failed to list messages")
	}

	return response.Paginated(c, messages, total, limit, offset)
}

// LastMessageTime handles GET /messages/last-message-time/:chatId
func (h *ChatHandler) LastMessageTime(c echo.Context) error {
	chatID, err := strconv.ParseUint(c.Param("chatId"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "invalid chat ID")
	}

	info, err := h.messageRepo.LastMessage(c.Request().Context(), uint(chatID))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "no messages for this chat")
		}
		return response.InternalError(c, "failed to get last message")
	}

	return response.Success(c, info)
}

// FilteredChats handles GET /webhook/filtered-chats?filter=&user_id=&searchQuery=
func (h *ChatHandler) FilteredChats(c echo.Context) error {
	filter := c.QueryParam("filter")
	userID := parseUserID(c)
	search := validator.SanitizeString(c.QueryParam("searchQuery"), 128)
	limit, offset := paginationParams(c)

	chats, total, err := h.inbox.FilteredChats(c.Request().Context(), filter, userID, search, limit, offset)
	if err != nil {
		return response.InternalError(c, "failed to filter chats")
	}

	return response.Paginated(c, chats, total, limit, offset)
}

// UnreadCounts handles GET /webhook/unread-counts?user_id=
func (h *ChatHandler) UnreadCounts(c echo.Context) error {
	userID := parseUserID(c)

	snapshot, err := h.inbox.UnreadSnapshot(c.Request().Context(), userID)
	if err != nil {
		return response.InternalError(c, "failed to compute unread counts")
	}

	return response.Success(c, snapshot)
}

// MarkThreadRead handles POST /webhook/messages/:leadId/read?user_id=
// The acting user arrives as a plain query parameter for compatibility with
// the existing browser client; there is no server-side identity check.
func (h *ChatHandler) MarkThreadRead(c echo.Context) error {
	leadID, err := strconv.ParseUint(c.Param("leadId"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "invalid lead ID")
	}
	userID := parseUserID(c)

	snapshot, err := h.inbox.MarkThreadRead(c.Request().Context(), uint(leadID), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "lead not found")
		}
		return response.InternalError(c, "failed to mark thread as read")
	}

	return response.Success(c, snapshot)
}

// parseUserID reads the user_id query parameter, zero when absent
func parseUserID(c echo.Context) uint {
	raw := c.QueryParam("user_id")
	if raw == "" {
		return 0
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0
	}
	return uint(id)
}

// paginationParams reads and sanitizes limit/offset query parameters
func paginationParams(c echo.Context) (int, int) {
	limit := 0
	offset := 0

	if l := c.QueryParam("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			limit = parsed
		}
	}
	if o := c.QueryParam("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil {
			offset = parsed
		}
	}

	return validator.ValidatePagination(limit, offset)
}

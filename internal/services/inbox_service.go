package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/rihlahq/crm-backend/internal/models"
	"github.com/rihlahq/crm-backend/internal/realtime"
	"github.com/rihlahq/crm-backend/internal/repository"
	"github.com/rihlahq/crm-backend/internal/storage"
	"github.com/rihlahq/crm-backend/internal/whatsapp"
)

// InboxService orchestrates the webhook ingestion and unread-count
// synchronization pipeline: resolve-or-create the lead, classify and persist
// the message, recompute the unread snapshot, and broadcast both events.
type InboxService struct {
	leadRepo    repository.LeadRepository
	messageRepo repository.MessageRepository
	provider    whatsapp.Client
	broadcaster realtime.Broadcaster
	mediaStore  storage.MediaStorage
	notifier    LeadNotifier
	defaults    repository.LeadDefaults
	logger      *slog.Logger
}

// InboxServiceConfig holds dependencies for the InboxService
type InboxServiceConfig struct {
	LeadRepo    repository.LeadRepository
	MessageRepo repository.MessageRepository
	Provider    whatsapp.Client
	Broadcaster realtime.Broadcaster
	MediaStore  storage.MediaStorage
	Notifier    LeadNotifier // optional
	Defaults    repository.LeadDefaults
	Logger      *slog.Logger
}

// NewInboxService creates a new InboxService
func NewInboxService(cfg *InboxServiceConfig) *InboxService {
	return &InboxService{
		leadRepo:    cfg.LeadRepo,
		messageRepo: cfg.MessageRepo,
		provider:    cfg.Provider,
		broadcaster: cfg.Broadcaster,
		mediaStore:  cfg.MediaStore,
		notifier:    cfg.Notifier,
		defaults:    cfg.Defaults,
		logger:      cfg.Logger,
	}
}

// ProcessInbound runs the full ingestion pipeline for one webhook delivery.
// A payload without the expected message path is a silent no-op: the
// provider disables subscriptions that answer non-2xx too often, so
// unrecognized deliveries must still look successful.
func (s *InboxService) ProcessInbound(ctx context.Context, payload *whatsapp.WebhookPayload) error {
	inbound := payload.FirstMessage()
	if inbound == nil {
		if s.logger != nil {
			s.logger.Debug("webhook delivery without message payload, ignoring",
				slog.String("object", payload.Object))
		}
		return nil
	}

	lead, created, err := s.leadRepo.GetOrCreateByPhone(ctx, inbound.From, s.defaults)
	if err != nil {
		return fmt.Errorf("failed to resolve lead for %s: %w", inbound.From, err)
	}

	classified := whatsapp.Classify(inbound)

	mediaURL := ""
	if classified.MediaID != "" {
		mediaURL, err = s.provider.ResolveMediaURL(ctx, classified.MediaID)
		if err != nil {
			return fmt.Errorf("failed to resolve media for message %s: %w", inbound.ID, err)
		}
	}

	message := &models.Message{
		LeadID:     lead.ID,
		Phone:      inbound.From,
		Body:       classified.Body,
		MediaURL:   mediaURL,
		Type:       classified.Type,
		Timestamp:  inbound.Time(),
		IsOutgoing: false,
		IsRead:     false,
		WamID:      inbound.ID,
	}
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return fmt.Errorf("failed to persist inbound message: %w", err)
	}

	if err := s.publishAfterMutation(ctx, lead, message); err != nil {
		return err
	}

	if created {
		s.notifyNewLead(ctx, lead, classified.Body)
	}

	if s.logger != nil {
		s.logger.Info("inbound message processed",
			slog.Uint64("lead_id", uint64(lead.ID)),
			slog.String("type", string(message.Type)),
			slog.Bool("lead_created", created))
	}
	return nil
}

// publishAfterMutation recomputes the snapshot and broadcasts the
// unread-counts event followed by the new-message event.
func (s *InboxService) publishAfterMutation(ctx context.Context, lead *models.Lead, message *models.Message) error {
	snapshot, err := s.UnreadSnapshot(ctx, assignedOrZero(lead))
	if err != nil {
		return err
	}

	s.broadcaster.Publish(realtime.EventUnreadCounts, snapshot)
	s.broadcaster.Publish(realtime.EventNewMessage, &realtime.NewMessagePayload{
		LeadID:         lead.ID,
		Name:           lead.Name,
		AssignedUserID: lead.AssignedUserID,
		UnreadCount:    snapshot.PerChat[lead.ID],
		Phone:          message.Phone,
		Type:           message.Type,
		Body:           message.Body,
		MediaURL:       message.MediaURL,
		IsOutgoing:     message.IsOutgoing,
		Timestamp:      message.Timestamp,
	})
	return nil
}

// UnreadSnapshot recomputes the derived unread-count view for a requesting
// user: per-chat counts plus the unassigned and mine buckets. The snapshot
// is never cached; every trigger recomputes it from the message table.
func (s *InboxService) UnreadSnapshot(ctx context.Context, userID uint) (*models.UnreadSnapshot, error) {
	perChat, err := s.messageRepo.UnreadPerLead(ctx)
	if err != nil {
		return nil, err
	}

	unassigned, mine, err := s.messageRepo.CountUnreadBuckets(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &models.UnreadSnapshot{
		Unassigned: unassigned,
		Mine:       mine,
		PerChat:    perChat,
	}, nil
}

// MarkThreadRead flips every unread inbound message for a lead to read,
// then recomputes and broadcasts the snapshot. Idempotent: a second call
// matches zero rows and broadcasts an unchanged snapshot.
func (s *InboxService) MarkThreadRead(ctx context.Context, leadID, userID uint) (*models.UnreadSnapshot, error) {
	if _, err := s.leadRepo.GetByID(ctx, leadID); err != nil {
		return nil, err
	}

	affected, err := s.messageRepo.MarkThreadRead(ctx, leadID)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.UnreadSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.broadcaster.Publish(realtime.EventUnreadCounts, snapshot)

	if s.logger != nil {
		s.logger.Debug("thread marked as read",
			slog.Uint64("lead_id", uint64(leadID)),
			slog.Int64("rows", affected))
	}
	return snapshot, nil
}

// FilteredChats returns chat-list entries for a tab filter. The pinned and
// mentions tabs are UI-only placeholders with no backing data and always
// resolve to an empty list without touching the store.
func (s *InboxService) FilteredChats(ctx context.Context, filter string, userID uint, search string, limit, offset int) ([]models.ChatListItem, int64, error) {
	if filter == "pinned" || filter == "mentions" {
		return []models.ChatListItem{}, 0, nil
	}
	return s.leadRepo.FilterChats(ctx, filter, userID, search, limit, offset)
}

// Reply sends an outbound text message via the provider and persists it as
// an outgoing (already read) message in the lead's thread.
func (s *InboxService) Reply(ctx context.Context, leadID uint, recipient, text string) (*models.Message, error) {
	lead, err := s.leadRepo.GetByID(ctx, leadID)
	if err != nil {
		return nil, err
	}

	wamID, err := s.provider.SendText(ctx, recipient, text)
	if err != nil {
		return nil, err
	}

	message := &models.Message{
		LeadID:     lead.ID,
		Phone:      recipient,
		Body:       text,
		Type:       models.MessageTypeText,
		Timestamp:  time.Now(),
		IsOutgoing: true,
		IsRead:     true,
		WamID:      wamID,
	}
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("sent but failed to persist outgoing message: %w", err)
	}

	if err := s.publishAfterMutation(ctx, lead, message); err != nil {
		return nil, err
	}
	return message, nil
}

// SendMediaResult carries the stored message and the resolved media URL
type SendMediaResult struct {
	Message *models.Message
	URL     string
}

// SendMedia archives the uploaded file locally, pushes it to the provider,
// sends it to the recipient, and persists the outgoing message with a
// placeholder body matching the inbound classification rules.
func (s *InboxService) SendMedia(ctx context.Context, leadID uint, recipient, mediaType, filename, mimeType string, content io.Reader) (*SendMediaResult, error) {
	lead, err := s.leadRepo.GetByID(ctx, leadID)
	if err != nil {
		return nil, err
	}

	// Stream to local storage first so a provider failure never loses the upload
	storedPath, err := s.mediaStore.Save(filename, content)
	if err != nil {
		return nil, fmt.Errorf("failed to store media upload: %w", err)
	}

	stored, err := s.mediaStore.Get(storedPath)
	if err != nil {
		return nil, fmt.Errorf("failed to reopen stored media: %w", err)
	}
	defer stored.Close()

	mediaID, err := s.provider.UploadMedia(ctx, filename, mimeType, stored)
	if err != nil {
		return nil, err
	}

	wamID, err := s.provider.SendMedia(ctx, recipient, mediaType, mediaID, filename)
	if err != nil {
		return nil, err
	}

	mediaURL, err := s.provider.ResolveMediaURL(ctx, mediaID)
	if err != nil {
		return nil, err
	}

	message := &models.Message{
		LeadID:     lead.ID,
		Phone:      recipient,
		Body:       mediaPlaceholder(mediaType, filename),
		MediaURL:   mediaURL,
		Type:       models.MessageType(mediaType),
		Timestamp:  time.Now(),
		IsOutgoing: true,
		IsRead:     true,
		WamID:      wamID,
	}
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("sent but failed to persist outgoing message: %w", err)
	}

	if err := s.publishAfterMutation(ctx, lead, message); err != nil {
		return nil, err
	}
	return &SendMediaResult{Message: message, URL: mediaURL}, nil
}

// notifyNewLead fires the optional new-lead alert; failures are logged, not
// propagated, because the message is already safely stored.
func (s *InboxService) notifyNewLead(ctx context.Context, lead *models.Lead, preview string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyNewLead(ctx, lead, preview); err != nil && s.logger != nil {
		s.logger.Warn("new-lead notification failed",
			slog.Uint64("lead_id", uint64(lead.ID)),
			slog.Any("error", err))
	}
}

// mediaPlaceholder mirrors the inbound placeholder text for outbound media
func mediaPlaceholder(mediaType, filename string) string {
	switch models.MessageType(mediaType) {
	case models.MessageTypeImage:
		return "[Image Message]"
	case models.MessageTypeAudio:
		return "[Audio Message]"
	case models.MessageTypeVideo:
		return "[Video Message]"
	case models.MessageTypeDocument:
		if filename == "" {
			filename = "Unnamed"
		}
		return fmt.Sprintf("[Document: %s]", filename)
	default:
		return fmt.Sprintf("[%s Message]", mediaType)
	}
}

// assignedOrZero resolves the snapshot's requesting user for webhook-driven
// recomputes: the lead's assignee when set, otherwise zero (no user).
func assignedOrZero(lead *models.Lead) uint {
	if lead.AssignedUserID != nil {
		return *lead.AssignedUserID
	}
	return 0
}

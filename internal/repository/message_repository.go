package repository

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/rihlahq/crm-backend/internal/models"
	"gorm.io/gorm"
)

// PreviewLength is the maximum rune count of a last-message preview
const PreviewLength = 80

// MessageRepository defines the interface for message data access
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, id uint) (*models.Message, error)
	ListByLead(ctx context.Context, leadID uint, limit, offset int) ([]models.Message, int64, error)
	LastMessage(ctx context.Context, leadID uint) (*models.LastMessageInfo, error)
	MarkThreadRead(ctx context.Context, leadID uint) (int64, error)
	CountUnreadForLead(ctx context.Context, leadID uint) (int64, error)
	UnreadPerLead(ctx context.Context) (map[uint]int64, error)
	CountUnreadBuckets(ctx context.Context, userID uint) (unassigned, mine int64, err error)
}

// messageRepository implements MessageRepository using GORM
type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new MessageRepository instance
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// Create creates a new message
func (r *messageRepository) Create(ctx context.Context, message *models.Message) error {
	result := r.db.WithContext(ctx).Create(message)
	if result.Error != nil {
		return fmt.Errorf("failed to create message: %w", result.Error)
	}
	return nil
}

// GetByID retrieves a message by its ID
func (r *messageRepository) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	var message models.Message
	result := r.db.WithContext(ctx).First(&message, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get message by ID: %w", result.Error)
	}
	return &message, nil
}

// ListByLead retrieves the thread for a lead with pagination, ordered by
// timestamp ascending.
func (r *messageRepository) ListByLead(ctx context.Context, leadID uint, limit, offset int) ([]models.Message, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Message{}).Where("lead_id = ?", leadID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	var messages []models.Message
	result := r.db.WithContext(ctx).
		Where("lead_id = ?", leadID).
		Order("timestamp ASC").
		Limit(limit).
		Offset(offset).
		Find(&messages)
	if result.Error != nil {
		return nil, 0, fmt.Errorf("failed to list messages: %w", result.Error)
	}

	return messages, total, nil
}

// LastMessage retrieves the most recent message's timestamp and a truncated
// body preview for a lead.
func (r *messageRepository) LastMessage(ctx context.Context, leadID uint) (*models.LastMessageInfo, error) {
	var message models.Message
	result := r.db.WithContext(ctx).
		Where("lead_id = ?", leadID).
		Order("timestamp DESC").
		First(&message)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get last message: %w", result.Error)
	}

	return &models.LastMessageInfo{
		Timestamp: message.Timestamp,
		Preview:   truncatePreview(message.Body, PreviewLength),
	}, nil
}

// MarkThreadRead flips is_read on every unread inbound message for a lead.
// Returns the number of rows affected; zero rows is not an error, which is
// what makes the operation idempotent.
func (r *messageRepository) MarkThreadRead(ctx context.Context, leadID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("lead_id = ? AND is_outgoing = ? AND is_read = ?", leadID, false, false).
		Update("is_read", true)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark thread as read: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// CountUnreadForLead counts unread inbound messages for a single lead
func (r *messageRepository) CountUnreadForLead(ctx context.Context, leadID uint) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("lead_id = ? AND is_outgoing = ? AND is_read = ?", leadID, false, false).
		Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", result.Error)
	}
	return count, nil
}

// leadUnreadRow is the scan target for the per-lead unread aggregate
type leadUnreadRow struct {
	LeadID uint  `gorm:"column:lead_id"`
	Count  int64 `gorm:"column:count"`
}

// UnreadPerLead returns the unread inbound message count per lead as a
// single indexed GROUP BY, leaving leads with no unread messages absent
// from the map.
func (r *messageRepository) UnreadPerLead(ctx context.Context) (map[uint]int64, error) {
	query := `
		SELECT m.lead_id, COUNT(*) as count
		FROM messages m
		WHERE m.is_outgoing = ? AND m.is_read = ?
		GROUP BY m.lead_id
	`

	var rows []leadUnreadRow
	if err := r.db.WithContext(ctx).Raw(query, false, false).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate unread counts: %w", err)
	}

	perLead := make(map[uint]int64, len(rows))
	for _, row := range rows {
		perLead[row.LeadID] = row.Count
	}
	return perLead, nil
}

// CountUnreadBuckets counts distinct leads holding at least one unread
// inbound message, bucketed into unassigned leads and leads assigned to the
// given user. A lead contributes to at most one bucket.
func (r *messageRepository) CountUnreadBuckets(ctx context.Context, userID uint) (int64, int64, error) {
	const unassignedQuery = `
		SELECT COUNT(DISTINCT m.lead_id)
		FROM messages m
		JOIN leads l ON l.id = m.lead_id
		WHERE m.is_outgoing = ? AND m.is_read = ? AND l.assigned_user_id IS NULL
	`

	var unassigned int64
	if err := r.db.WithContext(ctx).Raw(unassignedQuery, false, false).Scan(&unassigned).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count unassigned unread chats: %w", err)
	}

	const mineQuery = `
		SELECT COUNT(DISTINCT m.lead_id)
		FROM messages m
		JOIN leads l ON l.id = m.lead_id
		WHERE m.is_outgoing = ? AND m.is_read = ? AND l.assigned_user_id = ?
	`

	var mine int64
	if err := r.db.WithContext(ctx).Raw(mineQuery, false, false, userID).Scan(&mine).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count assigned unread chats: %w", err)
	}

	return unassigned, mine, nil
}

// truncatePreview shortens a message body to at most max runes
func truncatePreview(body string, max int) string {
	if utf8.RuneCountInString(body) <= max {
		return body
	}
	runes := []rune(body)
	return string(runes[:max])
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rihlahq/crm-backend/internal/models"
	"gorm.io/gorm"
)

// LeadDefaults carries the master-data references applied to leads the
// webhook auto-creates from an unrecognized phone number.
type LeadDefaults struct {
	SourceID uint
	StageID  uint
}

// LeadRepository defines the interface for lead data access
type LeadRepository interface {
	Create(ctx context.Context, lead *models.Lead) error
	GetByID(ctx context.Context, id uint) (*models.Lead, error)
	GetByPhone(ctx context.Context, phone string) (*models.Lead, error)
	GetOrCreateByPhone(ctx context.Context, phone string, defaults LeadDefaults) (*models.Lead, bool, error)
	FilterChats(ctx context.Context, filter string, userID uint, search string, limit, offset int) ([]models.ChatListItem, int64, error)
}

// leadRepository implements LeadRepository using GORM
type leadRepository struct {
	db *gorm.DB
}

// NewLeadRepository creates a new LeadRepository instance
func NewLeadRepository(db *gorm.DB) LeadRepository {
	return &leadRepository{db: db}
}

// Create creates a new lead
func (r *leadRepository) Create(ctx context.Context, lead *models.Lead) error {
	result := r.db.WithContext(ctx).Create(lead)
	if result.Error != nil {
		if isDuplicateKeyError(result.Error) {
			return fmt.Errorf("lead with phone '%s' already exists: %w", lead.Phone, ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create lead: %w", result.Error)
	}
	return nil
}

// GetByID retrieves a lead by its ID
func (r *leadRepository) GetByID(ctx context.Context, id uint) (*models.Lead, error) {
	var lead models.Lead
	result := r.db.WithContext(ctx).First(&lead, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get lead by ID: %w", result.Error)
	}
	return &lead, nil
}

// GetByPhone retrieves a lead by exact phone match
func (r *leadRepository) GetByPhone(ctx context.Context, phone string) (*models.Lead, error) {
	var lead models.Lead
	result := r.db.WithContext(ctx).Where("phone = ?", phone).First(&lead)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get lead by phone: %w", result.Error)
	}
	return &lead, nil
}

// GetOrCreateByPhone retrieves the lead owning a phone number or creates it.
// The phone column carries a unique index, so two near-simultaneous first
// messages from the same number race at the insert; the loser re-fetches the
// winner's row instead of creating a duplicate thread.
// Returns the lead, a boolean indicating if it was created, and any error.
func (r *leadRepository) GetOrCreateByPhone(ctx context.Context, phone string, defaults LeadDefaults) (*models.Lead, bool, error) {
	lead, err := r.GetByPhone(ctx, phone)
	if err == nil {
		return lead, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	lead = &models.Lead{
		Name:         fmt.Sprintf("WhatsApp Lead %s", phone),
		Phone:        phone,
		IsActive:     true,
		SourceID:     defaults.SourceID,
		StageID:      defaults.StageID,
		FollowUpDate: time.Now(),
	}

	if err := r.Create(ctx, lead); err != nil {
		if errors.Is(err, ErrDuplicateEntry) {
			lead, err = r.GetByPhone(ctx, phone)
			if err != nil {
				return nil, false, err
			}
			return lead, false, nil
		}
		return nil, false, err
	}

	return lead, true, nil
}

// chatFilterClause maps a chat-list tab filter to a SQL predicate.
// pinned/mentions never reach here; the service short-circuits them.
func chatFilterClause(filter string, userID uint) (string, []interface{}) {
	switch filter {
	case "unassigned":
		return "l.assigned_user_id IS NULL", nil
	case "mine":
		return "l.assigned_user_id = ?", []interface{}{userID}
	case "open":
		return "l.is_active = ?", []interface{}{true}
	case "resolved":
		return "l.is_active = ?", []interface{}{false}
	default:
		return "1 = 1", nil
	}
}

// FilterChats retrieves chat-list entries (lead + last-message preview +
// unread count) for a tab filter with optional name/phone search.
func (r *leadRepository) FilterChats(ctx context.Context, filter string, userID uint, search string, limit, offset int) ([]models.ChatListItem, int64, error) {
	where, args := chatFilterClause(filter, userID)

	if search != "" {
		where += " AND (LOWER(l.name) LIKE ? OR l.phone LIKE ?)"
		pattern := "%" + strings.ToLower(search) + "%"
		args = append(args, pattern, "%"+search+"%")
	}

	var total int64
	countQuery := "SELECT COUNT(*) FROM leads l WHERE " + where
	if err := r.db.WithContext(ctx).Raw(countQuery, args...).Scan(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count chats: %w", err)
	}

	query := `
		SELECT
			l.id,
			l.name,
			l.phone,
			l.is_active,
			l.assigned_user_id,
			COALESCE((SELECT m.body FROM messages m WHERE m.lead_id = l.id ORDER BY m.timestamp DESC LIMIT 1), '') as last_message,
			(SELECT m.timestamp FROM messages m WHERE m.lead_id = l.id ORDER BY m.timestamp DESC LIMIT 1) as last_message_at,
			COALESCE((SELECT COUNT(*) FROM messages m WHERE m.lead_id = l.id AND m.is_outgoing = ? AND m.is_read = ?), 0) as unread_count
		FROM leads l
		WHERE ` + where + `
		ORDER BY COALESCE((SELECT MAX(m2.timestamp) FROM messages m2 WHERE m2.lead_id = l.id), l.created_at) DESC
		LIMIT ? OFFSET ?
	`

	queryArgs := append([]interface{}{false, false}, args...)
	queryArgs = append(queryArgs, limit, offset)

	var results []models.ChatListItem
	if err := r.db.WithContext(ctx).Raw(query, queryArgs...).Scan(&results).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to filter chats: %w", err)
	}

	return results, total, nil
}

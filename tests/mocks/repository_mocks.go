package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/rihlahq/crm-backend/internal/models"
	"github.com/rihlahq/crm-backend/internal/repository"
)

// MockLeadRepository implements repository.LeadRepository
type MockLeadRepository struct {
	mock.Mock
}

// Create creates a new lead
func (m *MockLeadRepository) Create(ctx context.Context, lead *models.Lead) error {
	args := m.Called(ctx, lead)
	return args.Error(0)
}

// GetByID retrieves a lead by its ID
func (m *MockLeadRepository) GetByID(ctx context.Context, id uint) (*models.Lead, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Lead), args.Error(1)
}

// GetByPhone retrieves a lead by its WhatsApp phone number
func (m *MockLeadRepository) GetByPhone(ctx context.Context, phone string) (*models.Lead, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Lead), args.Error(1)
}

// GetOrCreateByPhone finds or provisions the lead owning a phone number
func (m *MockLeadRepository) GetOrCreateByPhone(ctx context.Context, phone string, defaults repository.LeadDefaults) (*models.Lead, bool, error) {
	args := m.Called(ctx, phone, defaults)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Lead), args.Bool(1), args.Error(2)
}

// FilterChats lists chat entries for a sidebar tab
func (m *MockLeadRepository) FilterChats(ctx context.Context, filter string, userID uint, search string, limit, offset int) ([]models.ChatListItem, int64, error) {
	args := m.Called(ctx, filter, userID, search, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]models.ChatListItem), args.Get(1).(int64), args.Error(2)
}

// MockMessageRepository implements repository.MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

// Create stores a new message
func (m *MockMessageRepository) Create(ctx context.Context, message *models.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

// GetByID retrieves a message by its ID
func (m *MockMessageRepository) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

// ListByLead lists a chat thread in chronological order
func (m *MockMessageRepository) ListByLead(ctx context.Context, leadID uint, limit, offset int) ([]models.Message, int64, error) {
	args := m.Called(ctx, leadID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]models.Message), args.Get(1).(int64), args.Error(2)
}

// LastMessage returns the newest message preview for a chat
func (m *MockMessageRepository) LastMessage(ctx context.Context, leadID uint) (*models.LastMessageInfo, error) {
	args := m.Called(ctx, leadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LastMessageInfo), args.Error(1)
}

// MarkThreadRead flips unread inbound messages of a thread to read
func (m *MockMessageRepository) MarkThreadRead(ctx context.Context, leadID uint) (int64, error) {
	args := m.Called(ctx, leadID)
	return args.Get(0).(int64), args.Error(1)
}

// CountUnreadForLead counts unread inbound messages for one lead
func (m *MockMessageRepository) CountUnreadForLead(ctx context.Context, leadID uint) (int64, error) {
	args := m.Called(ctx, leadID)
	return args.Get(0).(int64), args.Error(1)
}

// UnreadPerLead returns unread counts keyed by lead id
func (m *MockMessageRepository) UnreadPerLead(ctx context.Context) (map[uint]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uint]int64), args.Error(1)
}

// CountUnreadBuckets counts leads with unread messages per sidebar bucket
func (m *MockMessageRepository) CountUnreadBuckets(ctx context.Context, userID uint) (int64, int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

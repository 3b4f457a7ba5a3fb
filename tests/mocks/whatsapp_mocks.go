package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/rihlahq/crm-backend/internal/models"
)

// MockWhatsAppClient implements whatsapp.Client
type MockWhatsAppClient struct {
	mock.Mock
}

// SendText sends a text message and returns the provider message id
func (m *MockWhatsAppClient) SendText(ctx context.Context, to, body string) (string, error) {
	args := m.Called(ctx, to, body)
	return args.String(0), args.Error(1)
}

// SendMedia sends a previously uploaded media object as a message
func (m *MockWhatsAppClient) SendMedia(ctx context.Context, to, mediaType, mediaID, filename string) (string, error) {
	args := m.Called(ctx, to, mediaType, mediaID, filename)
	return args.String(0), args.Error(1)
}

// UploadMedia uploads media content and returns the provider media id
func (m *MockWhatsAppClient) UploadMedia(ctx context.Context, filename, mimeType string, content io.Reader) (string, error) {
	args := m.Called(ctx, filename, mimeType, content)
	return args.String(0), args.Error(1)
}

// ResolveMediaURL exchanges a media id for a downloadable URL
func (m *MockWhatsAppClient) ResolveMediaURL(ctx context.Context, mediaID string) (string, error) {
	args := m.Called(ctx, mediaID)
	return args.String(0), args.Error(1)
}

// MockLeadNotifier implements services.LeadNotifier
type MockLeadNotifier struct {
	mock.Mock
}

// NotifyNewLead records the notification
func (m *MockLeadNotifier) NotifyNewLead(ctx context.Context, lead *models.Lead, preview string) error {
	args := m.Called(ctx, lead, preview)
	return args.Error(0)
}

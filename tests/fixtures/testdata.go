package fixtures

import (
	"fmt"
	"time"

	"github.com/rihlahq/crm-backend/internal/models"
)

// LeadBuilder creates test Lead instances with fluent API
type LeadBuilder struct {
	lead models.Lead
}

// NewLeadBuilder creates a new LeadBuilder with sensible defaults
func NewLeadBuilder() *LeadBuilder {
	now := time.Now()
	return &LeadBuilder{
		lead: models.Lead{
			ID:        1,
			Name:      "WhatsApp Lead +628123456789",
			Phone:     "+628123456789",
			IsActive:  true,
			SourceID:  3,
			StageID:   1,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

// WithID sets the lead ID
func (b *LeadBuilder) WithID(id uint) *LeadBuilder {
	b.lead.ID = id
	return b
}

// WithName sets the lead name
func (b *LeadBuilder) WithName(name string) *LeadBuilder {
	b.lead.Name = name
	return b
}

// WithPhone sets the lead phone number
func (b *LeadBuilder) WithPhone(phone string) *LeadBuilder {
	b.lead.Phone = phone
	return b
}

// WithAssignedUser assigns the lead to an agent
func (b *LeadBuilder) WithAssignedUser(userID uint) *LeadBuilder {
	b.lead.AssignedUserID = &userID
	return b
}

// Unassigned clears the lead's agent assignment
func (b *LeadBuilder) Unassigned() *LeadBuilder {
	b.lead.AssignedUserID = nil
	return b
}

// WithActive sets the lead's active flag
func (b *LeadBuilder) WithActive(active bool) *LeadBuilder {
	b.lead.IsActive = active
	return b
}

// WithSourceID sets the lead source
func (b *LeadBuilder) WithSourceID(sourceID uint) *LeadBuilder {
	b.lead.SourceID = sourceID
	return b
}

// WithStageID sets the pipeline stage
func (b *LeadBuilder) WithStageID(stageID uint) *LeadBuilder {
	b.lead.StageID = stageID
	return b
}

// Build returns the constructed Lead
func (b *LeadBuilder) Build() *models.Lead {
	return &b.lead
}

// BuildValue returns the constructed Lead as a value (not pointer)
func (b *LeadBuilder) BuildValue() models.Lead {
	return b.lead
}

// MessageBuilder creates test Message instances with fluent API
type MessageBuilder struct {
	message models.Message
}

// NewMessageBuilder creates a new MessageBuilder with sensible defaults
func NewMessageBuilder() *MessageBuilder {
	return &MessageBuilder{
		message: models.Message{
			ID:         1,
			LeadID:     1,
			Phone:      "+628123456789",
			Body:       "Assalamualaikum, I would like to ask about the Umrah package",
			Type:       models.MessageTypeText,
			Timestamp:  time.Now(),
			IsOutgoing: false,
			IsRead:     false,
			WamID:      "wamid.test.1",
		},
	}
}

// WithID sets the message ID
func (b *MessageBuilder) WithID(id uint) *MessageBuilder {
	b.message.ID = id
	return b
}

// WithLeadID sets the owning lead
func (b *MessageBuilder) WithLeadID(leadID uint) *MessageBuilder {
	b.message.LeadID = leadID
	return b
}

// WithPhone sets the counterparty phone number
func (b *MessageBuilder) WithPhone(phone string) *MessageBuilder {
	b.message.Phone = phone
	return b
}

// WithBody sets the message text
func (b *MessageBuilder) WithBody(body string) *MessageBuilder {
	b.message.Body = body
	return b
}

// WithType sets the message type
func (b *MessageBuilder) WithType(t models.MessageType) *MessageBuilder {
	b.message.Type = t
	return b
}

// WithMediaURL sets the resolved media URL
func (b *MessageBuilder) WithMediaURL(url string) *MessageBuilder {
	b.message.MediaURL = url
	return b
}

// WithTimestamp sets the provider timestamp
func (b *MessageBuilder) WithTimestamp(t time.Time) *MessageBuilder {
	b.message.Timestamp = t
	return b
}

// Outgoing marks the message as agent-sent and read
func (b *MessageBuilder) Outgoing() *MessageBuilder {
	b.message.IsOutgoing = true
	b.message.IsRead = true
	return b
}

// Read marks the message as read
func (b *MessageBuilder) Read() *MessageBuilder {
	b.message.IsRead = true
	return b
}

// WithWamID sets the provider message id
func (b *MessageBuilder) WithWamID(wamID string) *MessageBuilder {
	b.message.WamID = wamID
	return b
}

// Build returns the constructed Message
func (b *MessageBuilder) Build() *models.Message {
	return &b.message
}

// BuildValue returns the constructed Message as a value (not pointer)
func (b *MessageBuilder) BuildValue() models.Message {
	return b.message
}

// WebhookDeliveryBuilder builds raw Cloud API webhook JSON bodies for
// endpoint tests. The output mirrors the shape Meta actually delivers,
// including the entry/changes/value nesting.
type WebhookDeliveryBuilder struct {
	from      string
	name      string
	msgType   string
	timestamp string
	wamID     string
	body      string
	mediaID   string
	filename  string
}

// NewWebhookDeliveryBuilder creates a builder with a plain inbound text
func NewWebhookDeliveryBuilder() *WebhookDeliveryBuilder {
	return &WebhookDeliveryBuilder{
		from:      "628123456789",
		name:      "Ahmad",
		msgType:   "text",
		timestamp: "1700000000",
		wamID:     "wamid.fixture.1",
		body:      "Assalamualaikum",
	}
}

// From sets the sender phone number
func (b *WebhookDeliveryBuilder) From(phone string) *WebhookDeliveryBuilder {
	b.from = phone
	return b
}

// SenderName sets the profile display name
func (b *WebhookDeliveryBuilder) SenderName(name string) *WebhookDeliveryBuilder {
	b.name = name
	return b
}

// Text makes the delivery a text message with the given body
func (b *WebhookDeliveryBuilder) Text(body string) *WebhookDeliveryBuilder {
	b.msgType = "text"
	b.body = body
	return b
}

// Document makes the delivery a document message
func (b *WebhookDeliveryBuilder) Document(mediaID, filename string) *WebhookDeliveryBuilder {
	b.msgType = "document"
	b.mediaID = mediaID
	b.filename = filename
	return b
}

// Image makes the delivery an image message
func (b *WebhookDeliveryBuilder) Image(mediaID string) *WebhookDeliveryBuilder {
	b.msgType = "image"
	b.mediaID = mediaID
	return b
}

// Timestamp sets the epoch-seconds timestamp string
func (b *WebhookDeliveryBuilder) Timestamp(epoch string) *WebhookDeliveryBuilder {
	b.timestamp = epoch
	return b
}

// WamID sets the provider message id
func (b *WebhookDeliveryBuilder) WamID(id string) *WebhookDeliveryBuilder {
	b.wamID = id
	return b
}

// BuildJSON returns the webhook request body as a JSON string
func (b *WebhookDeliveryBuilder) BuildJSON() string {
	var content string
	switch b.msgType {
	case "text":
		content = fmt.Sprintf(`"text":{"body":%q}`, b.body)
	case "document":
		content = fmt.Sprintf(`"document":{"id":%q,"filename":%q,"mime_type":"application/pdf"}`, b.mediaID, b.filename)
	case "image":
		content = fmt.Sprintf(`"image":{"id":%q,"mime_type":"image/jpeg"}`, b.mediaID)
	default:
		content = fmt.Sprintf(`"%s":{}`, b.msgType)
	}
	return fmt.Sprintf(`{
  "object": "whatsapp_business_account",
  "entry": [{
    "id": "entry-1",
    "changes": [{
      "field": "messages",
      "value": {
        "messaging_product": "whatsapp",
        "metadata": {"display_phone_number": "6280000000", "phone_number_id": "phone-1"},
        "contacts": [{"profile": {"name": %q}, "wa_id": %q}],
        "messages": [{
          "from": %q,
          "id": %q,
          "timestamp": %q,
          "type": %q,
          %s
        }]
      }
    }]
  }]
}`, b.name, b.from, b.from, b.wamID, b.timestamp, b.msgType, content)
}

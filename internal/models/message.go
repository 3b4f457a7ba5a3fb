package models

import (
	"time"
)

// MessageType is the closed set of chat message kinds the pipeline knows
// how to store. Unknown provider types map to MessageTypeOther.
type MessageType string

const (
	MessageTypeText     MessageType = "text"
	MessageTypeImage    MessageType = "image"
	MessageTypeAudio    MessageType = "audio"
	MessageTypeVideo    MessageType = "video"
	MessageTypeDocument MessageType = "document"
	MessageTypeOther    MessageType = "other"
)

// Message represents one inbound or outbound chat event in a lead's thread.
// Rows are insert-only except for the is_read flip; thread order is by
// Timestamp ascending.
type Message struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	LeadID     uint        `gorm:"not null;index" json:"lead_id"`
	Phone      string      `gorm:"not null;size:32" json:"phone"`
	Body       string      `json:"message"`
	MediaURL   string      `gorm:"size:2048" json:"media_url,omitempty"`
	Type       MessageType `gorm:"not null;size:16;default:text" json:"type"`
	Timestamp  time.Time   `gorm:"not null;index" json:"timestamp"`
	IsOutgoing bool        `gorm:"default:false" json:"is_outgoing"`
	IsRead     bool        `gorm:"default:false" json:"is_read"`
	WamID      string      `gorm:"size:128" json:"wam_id,omitempty"`
	CreatedAt  time.Time   `gorm:"autoCreateTime" json:"created_at"`

	// Relationships
	Lead Lead `gorm:"foreignKey:LeadID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for Message
func (Message) TableName() string {
	return "messages"
}

// LastMessageInfo is the projection returned by the last-message-time
// endpoint: the most recent message's timestamp and a truncated preview.
type LastMessageInfo struct {
	Timestamp time.Time `json:"timestamp"`
	Preview   string    `json:"preview"`
}

// UnreadSnapshot is the derived unread-count view. It is recomputed from the
// message table on every trigger and is never a source of truth.
type UnreadSnapshot struct {
	Unassigned int64          `json:"unassigned"`
	Mine       int64          `json:"mine"`
	PerChat    map[uint]int64 `json:"perChat"`
}

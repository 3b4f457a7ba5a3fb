package models

import (
	"time"
)

// Lead represents a contact/prospect. A lead owns every message in its
// conversation thread; the phone number is the correlation key used by the
// WhatsApp webhook.
type Lead struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"not null;size:255" json:"name"`
	Phone          string    `gorm:"uniqueIndex;not null;size:32" json:"phone"`
	Email          string    `gorm:"size:255" json:"email,omitempty"`
	// No gorm default tag: gorm omits zero-value fields that carry one,
	// which would make an inactive lead impossible to insert. Creation
	// paths set the flag explicitly.
	IsActive       bool      `json:"is_active"`
	AssignedUserID *uint     `gorm:"index" json:"assigned_user_id"`
	SourceID       uint      `json:"source_id"`
	StageID        uint      `json:"stage_id"`
	ProductID      uint      `json:"product_id"`
	FollowUpDate   time.Time `json:"follow_up_date"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Messages []Message `gorm:"foreignKey:LeadID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for Lead
func (Lead) TableName() string {
	return "leads"
}

// ChatListItem is the chat-list projection of a lead: the lead fields the
// inbox needs plus the last-message preview and the unread count.
type ChatListItem struct {
	ID             uint       `json:"id"`
	Name           string     `json:"name"`
	Phone          string     `json:"phone"`
	IsActive       bool       `json:"is_active"`
	AssignedUserID *uint      `json:"assigned_user_id"`
	LastMessage    string     `json:"last_message,omitempty"`
	LastMessageAt  *time.Time `json:"last_message_at,omitempty"`
	UnreadCount    int64      `json:"unread_count"`
}

// Package whatsapp implements the WhatsApp Cloud API surface the inbox
// pipeline touches: webhook payload decoding, message-type classification,
// and the outbound send/upload/media-resolve client.
package whatsapp

import (
	"strconv"
	"time"
)

// WebhookObject is the object field value of a business-account delivery
const WebhookObject = "whatsapp_business_account"

// WebhookPayload is the provider-shaped body of a webhook delivery
type WebhookPayload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry is one business-account entry in a webhook delivery
type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

// Change is one field change within an entry
type Change struct {
	Field string      `json:"field"`
	Value ChangeValue `json:"value"`
}

// ChangeValue carries the message batch and sender contacts
type ChangeValue struct {
	MessagingProduct string           `json:"messaging_product"`
	Metadata         Metadata         `json:"metadata"`
	Contacts         []Contact        `json:"contacts,omitempty"`
	Messages         []InboundMessage `json:"messages,omitempty"`
}

// Metadata identifies the receiving business phone number
type Metadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

// Contact carries the sender's WhatsApp profile
type Contact struct {
	WaID    string  `json:"wa_id"`
	Profile Profile `json:"profile"`
}

// Profile is the sender's display profile
type Profile struct {
	Name string `json:"name"`
}

// InboundMessage is one message event inside a webhook delivery. Timestamp
// is epoch seconds encoded as a string, per the provider's wire format.
type InboundMessage struct {
	From      string           `json:"from"`
	ID        string           `json:"id"`
	Timestamp string           `json:"timestamp"`
	Type      string           `json:"type"`
	Text      *TextContent     `json:"text,omitempty"`
	Image     *MediaContent    `json:"image,omitempty"`
	Audio     *MediaContent    `json:"audio,omitempty"`
	Video     *MediaContent    `json:"video,omitempty"`
	Document  *DocumentContent `json:"document,omitempty"`
}

// TextContent is the body of a text message
type TextContent struct {
	Body string `json:"body"`
}

// MediaContent is the media-id indirection for image/audio/video messages
type MediaContent struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type,omitempty"`
	SHA256   string `json:"sha256,omitempty"`
	Caption  string `json:"caption,omitempty"`
}

// DocumentContent is the media-id indirection for document messages
type DocumentContent struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type,omitempty"`
	SHA256   string `json:"sha256,omitempty"`
	Filename string `json:"filename,omitempty"`
}

// FirstMessage extracts the first inbound message from a delivery, walking
// the entry[0].changes[0].value.messages[0] path the provider documents.
// Returns nil when the path is absent, which callers treat as a no-op.
func (p *WebhookPayload) FirstMessage() *InboundMessage {
	if p.Object != WebhookObject {
		return nil
	}
	if len(p.Entry) == 0 || len(p.Entry[0].Changes) == 0 {
		return nil
	}
	value := p.Entry[0].Changes[0].Value
	if len(value.Messages) == 0 {
		return nil
	}
	return &value.Messages[0]
}

// SenderName extracts the sender's profile name when the delivery carries it
func (p *WebhookPayload) SenderName() string {
	if len(p.Entry) == 0 || len(p.Entry[0].Changes) == 0 {
		return ""
	}
	contacts := p.Entry[0].Changes[0].Value.Contacts
	if len(contacts) == 0 {
		return ""
	}
	return contacts[0].Profile.Name
}

// Time converts the provider epoch-seconds timestamp to a time.Time,
// falling back to server now when absent or malformed.
func (m *InboundMessage) Time() time.Time {
	if m.Timestamp == "" {
		return time.Now()
	}
	secs, err := strconv.ParseInt(m.Timestamp, 10, 64)
	if err != nil {
		return time.Now()
	}
	return time.Unix(secs, 0).UTC()
}

// Package realtime implements the pub/sub channel that pushes inbox events
// to connected browser sessions. Handlers depend on the Broadcaster
// interface, never on a concrete hub, so tests can inject capture doubles
// and deployments can fan out to more than one transport.
package realtime

import (
	"time"

	"github.com/rihlahq/crm-backend/internal/models"
)

// Event names on the realtime channel
const (
	EventNewMessage   = "new_whatsapp_message"
	EventUnreadCounts = "unread_counts_update"
)

// Broadcaster is the process-wide publish side of the realtime channel.
// Delivery is best-effort and at-most-once: subscribers connected at publish
// time receive the event, everyone else pulls current state on connect.
type Broadcaster interface {
	Publish(event string, payload interface{})
}

// Envelope is the wire shape of every realtime event
type Envelope struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// NewMessagePayload is the payload of a new_whatsapp_message event: the
// stored message fields plus the chat-list context the client needs to
// merge the event without a re-fetch.
type NewMessagePayload struct {
	LeadID         uint               `json:"lead_id"`
	Name           string             `json:"name"`
	AssignedUserID *uint              `json:"assigned_user_id"`
	UnreadCount    int64              `json:"unread_count"`
	Phone          string             `json:"phone"`
	Type           models.MessageType `json:"type"`
	Body           string             `json:"message"`
	MediaURL       string             `json:"media_url,omitempty"`
	IsOutgoing     bool               `json:"is_outgoing"`
	Timestamp      time.Time          `json:"timestamp"`
}

// Multi fans a publish out to several broadcasters, e.g. the websocket hub
// plus the AMQP relay.
type Multi []Broadcaster

// Publish implements Broadcaster
func (m Multi) Publish(event string, payload interface{}) {
	for _, b := range m {
		b.Publish(event, payload)
	}
}

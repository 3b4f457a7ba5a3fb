package mocks

import (
	"sync"

	"github.com/rihlahq/crm-backend/internal/models"
	"github.com/rihlahq/crm-backend/internal/realtime"
)

// EventRecord records one event published through the recording broadcaster
type EventRecord struct {
	Event   string
	Payload interface{}
}

// RecordingBroadcaster implements realtime.Broadcaster and keeps every
// published event for later inspection. Safe for concurrent use.
type RecordingBroadcaster struct {
	mu     sync.Mutex
	events []EventRecord
}

// NewRecordingBroadcaster creates a new RecordingBroadcaster instance
func NewRecordingBroadcaster() *RecordingBroadcaster {
	return &RecordingBroadcaster{events: make([]EventRecord, 0)}
}

// Publish records the event
func (b *RecordingBroadcaster) Publish(event string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, EventRecord{Event: event, Payload: payload})
}

// Events returns a copy of all recorded events in publish order
func (b *RecordingBroadcaster) Events() []EventRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]EventRecord, len(b.events))
	copy(out, b.events)
	return out
}

// EventNames returns just the event names in publish order
func (b *RecordingBroadcaster) EventNames() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	names := make([]string, len(b.events))
	for i, e := range b.events {
		names[i] = e.Event
	}
	return names
}

// LastSnapshot returns the payload of the most recent unread_counts_update
// event, or nil when none was published.
func (b *RecordingBroadcaster) LastSnapshot() *models.UnreadSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.events) - 1; i >= 0; i-- {
		if b.events[i].Event == realtime.EventUnreadCounts {
			if s, ok := b.events[i].Payload.(*models.UnreadSnapshot); ok {
				return s
			}
		}
	}
	return nil
}

// LastNewMessage returns the payload of the most recent new_whatsapp_message
// event, or nil when none was published.
func (b *RecordingBroadcaster) LastNewMessage() *realtime.NewMessagePayload {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.events) - 1; i >= 0; i-- {
		if b.events[i].Event == realtime.EventNewMessage {
			if p, ok := b.events[i].Payload.(*realtime.NewMessagePayload); ok {
				return p
			}
		}
	}
	return nil
}

// Clear drops all recorded events
func (b *RecordingBroadcaster) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = b.events[:0]
}

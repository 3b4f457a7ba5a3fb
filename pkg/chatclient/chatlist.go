package chatclient

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/rihlahq/crm-backend/internal/models"
	"github.com/rihlahq/crm-backend/internal/realtime"
)

// searchDebounce is how long keystrokes are coalesced before a server-side
// search fires.
const searchDebounce = 300 * time.Millisecond

// ChatListConfig holds dependencies for the ChatList
type ChatListConfig struct {
	API      API
	UserID   uint
	Filter   string            // initial tab, empty = all
	OnSelect func(leadID uint) // invoked after Select clears the unread flag
	OnChange func()            // invoked after any state change, e.g. to re-render
	Logger   *slog.Logger
}

// ChatList is the client-side state of the chat list view: the visible
// entries for the active tab plus the unread badge snapshot. Realtime events
// mutate it incrementally; Refresh re-pulls everything.
type ChatList struct {
	api      API
	userID   uint
	onSelect func(leadID uint)
	onChange func()
	logger   *slog.Logger

	mu          sync.Mutex
	filter      string
	search      string
	entries     []models.ChatListItem
	snapshot    models.UnreadSnapshot
	searchTimer *time.Timer
}

// NewChatList creates a ChatList
func NewChatList(cfg ChatListConfig) *ChatList {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatList{
		api:      cfg.API,
		userID:   cfg.UserID,
		filter:   cfg.Filter,
		onSelect: cfg.OnSelect,
		onChange: cfg.OnChange,
		logger:   logger,
	}
}

// Refresh pulls the entries for the active tab and the unread snapshot.
// Called on start and again after every reconnect, since events missed while
// offline are not replayed.
func (l *ChatList) Refresh(ctx context.Context) error {
	l.mu.Lock()
	filter, search := l.filter, l.search
	l.mu.Unlock()

	entries, err := l.api.FilteredChats(ctx, filter, l.userID, search)
	if err != nil {
		return err
	}
	snapshot, err := l.api.UnreadCounts(ctx, l.userID)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.entries = entries
	l.snapshot = *snapshot
	l.mu.Unlock()

	l.notify()
	return nil
}

// wireEnvelope defers payload decoding until the event name is known
type wireEnvelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// HandleEvent merges one raw realtime frame into the list state. Unknown
// events and undecodable payloads are logged and dropped.
func (l *ChatList) HandleEvent(data []byte) {
	var env wireEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		l.logger.Warn("undecodable realtime frame", "error", err)
		return
	}

	switch env.Event {
	case realtime.EventNewMessage:
		var p realtime.NewMessagePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			l.logger.Warn("undecodable new-message payload", "error", err)
			return
		}
		l.applyNewMessage(p)
	case realtime.EventUnreadCounts:
		var s models.UnreadSnapshot
		if err := json.Unmarshal(env.Payload, &s); err != nil {
			l.logger.Warn("undecodable unread-counts payload", "error", err)
			return
		}
		l.applySnapshot(s)
	default:
		l.logger.Debug("ignoring unknown realtime event", "event", env.Event)
	}
}

// applyNewMessage updates an existing entry's preview in place, or prepends
// a synthesized entry when the lead is not in the visible list yet.
func (l *ChatList) applyNewMessage(p realtime.NewMessagePayload) {
	ts := p.Timestamp

	l.mu.Lock()
	found := false
	for i := range l.entries {
		if l.entries[i].ID == p.LeadID {
			l.entries[i].LastMessage = p.Body
			l.entries[i].LastMessageAt = &ts
			l.entries[i].UnreadCount = p.UnreadCount
			found = true
			break
		}
	}
	if !found {
		entry := models.ChatListItem{
			ID:             p.LeadID,
			Name:           p.Name,
			Phone:          p.Phone,
			IsActive:       true,
			AssignedUserID: p.AssignedUserID,
			LastMessage:    p.Body,
			LastMessageAt:  &ts,
			UnreadCount:    p.UnreadCount,
		}
		l.entries = append([]models.ChatListItem{entry}, l.entries...)
	}
	l.mu.Unlock()

	l.notify()
}

// applySnapshot replaces the badge state wholesale: every entry's count is
// taken from the snapshot, entries absent from it drop to zero.
func (l *ChatList) applySnapshot(s models.UnreadSnapshot) {
	l.mu.Lock()
	l.snapshot = s
	for i := range l.entries {
		l.entries[i].UnreadCount = s.PerChat[l.entries[i].ID]
	}
	l.mu.Unlock()

	l.notify()
}

// Search coalesces keystrokes and fires one server-side search after the
// debounce window closes.
func (l *ChatList) Search(ctx context.Context, query string) {
	l.mu.Lock()
	l.search = query
	if l.searchTimer != nil {
		l.searchTimer.Stop()
	}
	l.searchTimer = time.AfterFunc(searchDebounce, func() {
		if err := l.Refresh(ctx); err != nil {
			l.logger.Warn("search refresh failed", "error", err)
		}
	})
	l.mu.Unlock()
}

// SetFilter switches the active tab and re-fetches immediately
func (l *ChatList) SetFilter(ctx context.Context, filter string) error {
	l.mu.Lock()
	l.filter = filter
	l.mu.Unlock()
	return l.Refresh(ctx)
}

// Select opens a conversation: the thread is marked read on the server, the
// local unread flag clears immediately, and the selection callback fires.
// A failed mark-read is logged and left alone; the next snapshot event or
// refresh reconciles the badge.
func (l *ChatList) Select(ctx context.Context, leadID uint) {
	l.mu.Lock()
	for i := range l.entries {
		if l.entries[i].ID == leadID {
			l.entries[i].UnreadCount = 0
			break
		}
	}
	delete(l.snapshot.PerChat, leadID)
	l.mu.Unlock()

	if err := l.api.MarkRead(ctx, leadID, l.userID); err != nil {
		l.logger.Warn("mark-read failed",
			"lead_id", leadID,
			"error", err)
	}

	l.notify()
	if l.onSelect != nil {
		l.onSelect(leadID)
	}
}

// Entries returns a copy of the visible chat entries
func (l *ChatList) Entries() []models.ChatListItem {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.ChatListItem, len(l.entries))
	copy(out, l.entries)
	return out
}

// Snapshot returns the current unread badge state
func (l *ChatList) Snapshot() models.UnreadSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshot
}

func (l *ChatList) notify() {
	if l.onChange != nil {
		l.onChange()
	}
}

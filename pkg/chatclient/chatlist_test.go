package chatclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rihlahq/crm-backend/internal/models"
	"github.com/rihlahq/crm-backend/internal/realtime"
)

// fakeAPI is a scriptable in-memory API for list tests
type fakeAPI struct {
	mu          sync.Mutex
	chats       []models.ChatListItem
	snapshot    models.UnreadSnapshot
	chatsErr    error
	markReadErr error

	fetches    int
	lastFilter string
	lastSearch string
	markedRead []uint
}

func (f *fakeAPI) FilteredChats(ctx context.Context, filter string, userID uint, search string) ([]models.ChatListItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	f.lastFilter = filter
	f.lastSearch = search
	if f.chatsErr != nil {
		return nil, f.chatsErr
	}
	out := make([]models.ChatListItem, len(f.chats))
	copy(out, f.chats)
	return out, nil
}

func (f *fakeAPI) UnreadCounts(ctx context.Context, userID uint) (*models.UnreadSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.snapshot
	if s.PerChat == nil {
		s.PerChat = map[uint]int64{}
	}
	return &s, nil
}

func (f *fakeAPI) MarkRead(ctx context.Context, leadID, userID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markedRead = append(f.markedRead, leadID)
	return f.markReadErr
}

func (f *fakeAPI) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func frame(t *testing.T, event string, payload interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(realtime.Envelope{Event: event, Payload: payload})
	require.NoError(t, err)
	return data
}

func TestRefresh_PullsEntriesAndSnapshot(t *testing.T) {
	api := &fakeAPI{
		chats: []models.ChatListItem{
			{ID: 1, Name: "Ahmad", Phone: "+628111111111"},
			{ID: 2, Name: "Siti", Phone: "+628222222222"},
		},
		snapshot: models.UnreadSnapshot{Unassigned: 1, PerChat: map[uint]int64{1: 4}},
	}
	changed := 0
	list := NewChatList(ChatListConfig{API: api, UserID: 7, OnChange: func() { changed++ }, Logger: testLogger()})

	require.NoError(t, list.Refresh(context.Background()))

	entries := list.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "Ahmad", entries[0].Name)
	assert.Equal(t, int64(4), list.Snapshot().PerChat[1])
	assert.Equal(t, 1, changed)
}

func TestHandleEvent_NewMessageUpdatesExistingEntry(t *testing.T) {
	api := &fakeAPI{chats: []models.ChatListItem{{ID: 1, Name: "Ahmad"}, {ID: 2, Name: "Siti"}}}
	list := NewChatList(ChatListConfig{API: api, Logger: testLogger()})
	require.NoError(t, list.Refresh(context.Background()))

	ts := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	list.HandleEvent(frame(t, realtime.EventNewMessage, realtime.NewMessagePayload{
		LeadID:      2,
		Name:        "Siti",
		Body:        "kapan berangkat?",
		UnreadCount: 3,
		Timestamp:   ts,
	}))

	entries := list.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "kapan berangkat?", entries[1].LastMessage)
	assert.Equal(t, int64(3), entries[1].UnreadCount)
	require.NotNil(t, entries[1].LastMessageAt)
	assert.True(t, entries[1].LastMessageAt.Equal(ts))
}

func TestHandleEvent_NewMessagePrependsUnknownLead(t *testing.T) {
	api := &fakeAPI{chats: []models.ChatListItem{{ID: 1, Name: "Ahmad"}}}
	list := NewChatList(ChatListConfig{API: api, Logger: testLogger()})
	require.NoError(t, list.Refresh(context.Background()))

	list.HandleEvent(frame(t, realtime.EventNewMessage, realtime.NewMessagePayload{
		LeadID:      9,
		Name:        "WhatsApp Lead +628999999999",
		Phone:       "+628999999999",
		Body:        "Assalamualaikum",
		UnreadCount: 1,
	}))

	entries := list.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, uint(9), entries[0].ID)
	assert.True(t, entries[0].IsActive)
	assert.Equal(t, int64(1), entries[0].UnreadCount)
}

func TestHandleEvent_SnapshotReplacesBadgesWholesale(t *testing.T) {
	api := &fakeAPI{
		chats:    []models.ChatListItem{{ID: 1, UnreadCount: 5}, {ID: 2, UnreadCount: 2}},
		snapshot: models.UnreadSnapshot{PerChat: map[uint]int64{1: 5, 2: 2}},
	}
	list := NewChatList(ChatListConfig{API: api, Logger: testLogger()})
	require.NoError(t, list.Refresh(context.Background()))

	// Lead 2 is absent from the new snapshot: its badge must drop to zero,
	// not keep a stale count.
	list.HandleEvent(frame(t, realtime.EventUnreadCounts, models.UnreadSnapshot{
		Unassigned: 1,
		PerChat:    map[uint]int64{1: 6},
	}))

	entries := list.Entries()
	assert.Equal(t, int64(6), entries[0].UnreadCount)
	assert.Zero(t, entries[1].UnreadCount)
	assert.Equal(t, int64(1), list.Snapshot().Unassigned)
}

func TestHandleEvent_UnknownEventIgnored(t *testing.T) {
	list := NewChatList(ChatListConfig{API: &fakeAPI{}, Logger: testLogger()})
	list.HandleEvent([]byte(`{"event":"typing_indicator","payload":{}}`))
	assert.Empty(t, list.Entries())
}

func TestHandleEvent_GarbageFrameIgnored(t *testing.T) {
	list := NewChatList(ChatListConfig{API: &fakeAPI{}, Logger: testLogger()})
	list.HandleEvent([]byte("not json"))
	assert.Empty(t, list.Entries())
}

func TestSelect_ClearsBadgeAndMarksRead(t *testing.T) {
	api := &fakeAPI{
		chats:    []models.ChatListItem{{ID: 1, UnreadCount: 4}},
		snapshot: models.UnreadSnapshot{PerChat: map[uint]int64{1: 4}},
	}
	var selected uint
	list := NewChatList(ChatListConfig{
		API:      api,
		UserID:   7,
		OnSelect: func(leadID uint) { selected = leadID },
		Logger:   testLogger(),
	})
	require.NoError(t, list.Refresh(context.Background()))

	list.Select(context.Background(), 1)

	assert.Zero(t, list.Entries()[0].UnreadCount)
	assert.NotContains(t, list.Snapshot().PerChat, uint(1))
	assert.Equal(t, []uint{1}, api.markedRead)
	assert.Equal(t, uint(1), selected)
}

func TestSelect_MarkReadFailureKeepsLocalClear(t *testing.T) {
	api := &fakeAPI{
		chats:       []models.ChatListItem{{ID: 1, UnreadCount: 4}},
		snapshot:    models.UnreadSnapshot{PerChat: map[uint]int64{1: 4}},
		markReadErr: errors.New("server unreachable"),
	}
	list := NewChatList(ChatListConfig{API: api, Logger: testLogger()})
	require.NoError(t, list.Refresh(context.Background()))

	list.Select(context.Background(), 1)

	// Optimistic clear stands; the next snapshot reconciles it
	assert.Zero(t, list.Entries()[0].UnreadCount)
}

func TestSearch_DebouncesToSingleFetch(t *testing.T) {
	api := &fakeAPI{}
	list := NewChatList(ChatListConfig{API: api, Logger: testLogger()})

	list.Search(context.Background(), "a")
	list.Search(context.Background(), "ah")
	list.Search(context.Background(), "ahm")

	// Only the last query survives the debounce window
	require.Eventually(t, func() bool {
		return api.fetchCount() == 1
	}, time.Second, 10*time.Millisecond)

	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Equal(t, "ahm", api.lastSearch)
}

func TestSetFilter_RefetchesImmediately(t *testing.T) {
	api := &fakeAPI{}
	list := NewChatList(ChatListConfig{API: api, Logger: testLogger()})

	require.NoError(t, list.SetFilter(context.Background(), "unassigned"))

	assert.Equal(t, 1, api.fetchCount())
	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Equal(t, "unassigned", api.lastFilter)
}

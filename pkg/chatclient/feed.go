package chatclient

import (
	"context"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	reconnectDelay    = 2 * time.Second
	maxReconnectDelay = 30 * time.Second
)

// Feed keeps a websocket subscription to the realtime channel alive and
// pushes every frame into the chat list. Events are not replayed by the
// server, so each (re)connect triggers a full refresh first.
type Feed struct {
	url    string
	list   *ChatList
	logger *slog.Logger
}

// NewFeed creates a Feed for the given ws:// or wss:// URL
func NewFeed(url string, list *ChatList, logger *slog.Logger) *Feed {
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed{url: url, list: list, logger: logger}
}

// Run connects and reads until ctx is cancelled, reconnecting with capped
// backoff on any failure.
func (f *Feed) Run(ctx context.Context) {
	delay := reconnectDelay
	for {
		if err := f.connectAndRead(ctx); err != nil {
			f.logger.Warn("realtime feed disconnected", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}

func (f *Feed) connectAndRead(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Close the socket when ctx ends so ReadMessage unblocks
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	if err := f.list.Refresh(ctx); err != nil {
		return err
	}
	f.logger.Info("realtime feed connected", "url", f.url)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		f.list.HandleEvent(data)
	}
}

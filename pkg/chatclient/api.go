// Package chatclient implements the chat-list view model consumed by
// frontend shells: a REST client for the inbox endpoints plus a small state
// machine that merges realtime events into the visible list.
package chatclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rihlahq/crm-backend/internal/models"
)

// API is the server surface the chat list depends on
type API interface {
	FilteredChats(ctx context.Context, filter string, userID uint, search string) ([]models.ChatListItem, error)
	UnreadCounts(ctx context.Context, userID uint) (*models.UnreadSnapshot, error)
	MarkRead(ctx context.Context, leadID, userID uint) error
}

// HTTPAPI implements API against the inbox REST endpoints
type HTTPAPI struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPAPI creates an HTTPAPI for the given server base URL
func NewHTTPAPI(baseURL, apiKey string) *HTTPAPI {
	return &HTTPAPI{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type chatsResponse struct {
	Success bool                  `json:"success"`
	Data    []models.ChatListItem `json:"data"`
	Error   string                `json:"error"`
}

type snapshotResponse struct {
	Success bool                   `json:"success"`
	Data    *models.UnreadSnapshot `json:"data"`
	Error   string                 `json:"error"`
}

// FilteredChats calls GET /webhook/filtered-chats
func (a *HTTPAPI) FilteredChats(ctx context.Context, filter string, userID uint, search string) ([]models.ChatListItem, error) {
	q := url.Values{}
	if filter != "" {
		q.Set("filter", filter)
	}
	if userID > 0 {
		q.Set("user_id", strconv.FormatUint(uint64(userID), 10))
	}
	if search != "" {
		q.Set("searchQuery", search)
	}

	var res chatsResponse
	if err := a.get(ctx, "/webhook/filtered-chats?"+q.Encode(), &res); err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, fmt.Errorf("filtered-chats: %s", res.Error)
	}
	return res.Data, nil
}

// UnreadCounts calls GET /webhook/unread-counts
func (a *HTTPAPI) UnreadCounts(ctx context.Context, userID uint) (*models.UnreadSnapshot, error) {
	q := url.Values{}
	if userID > 0 {
		q.Set("user_id", strconv.FormatUint(uint64(userID), 10))
	}

	var res snapshotResponse
	if err := a.get(ctx, "/webhook/unread-counts?"+q.Encode(), &res); err != nil {
		return nil, err
	}
	if !res.Success || res.Data == nil {
		return nil, fmt.Errorf("unread-counts: %s", res.Error)
	}
	return res.Data, nil
}

// MarkRead calls POST /webhook/messages/:leadId/read
func (a *HTTPAPI) MarkRead(ctx context.Context, leadID, userID uint) error {
	path := fmt.Sprintf("/webhook/messages/%d/read", leadID)
	if userID > 0 {
		path += "?user_id=" + strconv.FormatUint(uint64(userID), 10)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, nil)
	if err != nil {
		return err
	}
	a.authorize(req)

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mark-read: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (a *HTTPAPI) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, nil)
	if err != nil {
		return err
	}
	a.authorize(req)

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (a *HTTPAPI) authorize(req *http.Request) {
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}
}

//go:build api
// +build api

// Package api contains tests that run against a real backend server.
// Run with: go test -tags=api ./tests/api/... -v
// Requires backend to be running on localhost:8081
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/rihlahq/crm-backend/tests/fixtures"
)

const (
	defaultBaseURL     = "http://localhost:8081"
	defaultAPIKey      = "test-api-key-for-development-only-32chars"
	defaultVerifyToken = "test-verify-token"
)

// APITestSuite is the test suite for real API endpoint testing
type APITestSuite struct {
	suite.Suite
	baseURL     string
	apiKey      string
	verifyToken string
	client      *http.Client
}

func TestAPIEndpoints(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}

func (s *APITestSuite) SetupSuite() {
	s.baseURL = os.Getenv("API_BASE_URL")
	if s.baseURL == "" {
		s.baseURL = defaultBaseURL
	}

	s.apiKey = os.Getenv("API_KEY")
	if s.apiKey == "" {
		s.apiKey = defaultAPIKey
	}

	s.verifyToken = os.Getenv("WEBHOOK_VERIFY_TOKEN")
	if s.verifyToken == "" {
		s.verifyToken = defaultVerifyToken
	}

	s.client = &http.Client{
		Timeout: 30 * time.Second,
	}

	// Verify server is running
	resp, err := s.client.Get(s.baseURL + "/health")
	require.NoError(s.T(), err, "Backend server must be running on %s", s.baseURL)
	defer resp.Body.Close()
	require.Equal(s.T(), http.StatusOK, resp.StatusCode, "Health check should return 200")
}

// Helper methods
func (s *APITestSuite) doRequest(method, path string, body interface{}) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, s.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	return s.client.Do(req)
}

// deliverWebhook posts a raw provider payload; the webhook route is unauthenticated
func (s *APITestSuite) deliverWebhook(rawJSON string) *http.Response {
	resp, err := s.client.Post(s.baseURL+"/webhook/messages", "application/json", strings.NewReader(rawJSON))
	require.NoError(s.T(), err)
	return resp
}

func (s *APITestSuite) parseResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, target)
}

// uniquePhone gives each test run a fresh lead so reruns don't collide
func uniquePhone() string {
	return fmt.Sprintf("62811%08d", time.Now().UnixNano()%100000000)
}

// =============================================================================
// HEALTH ENDPOINTS
// =============================================================================

func (s *APITestSuite) TestHealth_ReturnsHealthy() {
	resp, err := s.client.Get(s.baseURL + "/health")
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	assert.Equal(s.T(), http.StatusOK, resp.StatusCode)

	var result map[string]interface{}
	err = json.NewDecoder(resp.Body).Decode(&result)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "healthy", result["status"])
}

func (s *APITestSuite) TestReady_ReturnsReady() {
	resp, err := s.client.Get(s.baseURL + "/ready")
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	assert.Equal(s.T(), http.StatusOK, resp.StatusCode)

	var result map[string]interface{}
	err = json.NewDecoder(resp.Body).Decode(&result)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "ready", result["status"])
}

// =============================================================================
// WEBHOOK VERIFICATION
// =============================================================================

func (s *APITestSuite) TestWebhookVerify_EchoesChallenge() {
	url := fmt.Sprintf("%s/webhook/messages?hub.mode=subscribe&hub.verify_token=%s&hub.challenge=challenge-123",
		s.baseURL, s.verifyToken)

	resp, err := s.client.Get(url)
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	assert.Equal(s.T(), http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "challenge-123", string(body))
}

func (s *APITestSuite) TestWebhookVerify_RejectsWrongToken() {
	url := s.baseURL + "/webhook/messages?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=challenge-123"

	resp, err := s.client.Get(url)
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	assert.Equal(s.T(), http.StatusForbidden, resp.StatusCode)
}

// =============================================================================
// WEBHOOK DELIVERY -> CHAT LIST FLOW
// =============================================================================

func (s *APITestSuite) TestWebhookDelivery_CreatesLeadAndThread() {
	phone := uniquePhone()

	resp := s.deliverWebhook(fixtures.NewWebhookDeliveryBuilder().
		From(phone).
		SenderName("Ahmad").
		Text("Assalamualaikum, mau tanya paket umrah").
		WamID(fmt.Sprintf("wamid.api.%d", time.Now().UnixNano())).
		BuildJSON())
	defer resp.Body.Close()
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)

	// The lead shows up on the unassigned tab with one unread message
	listResp, err := s.doRequest(http.MethodGet, "/webhook/filtered-chats?filter=unassigned&searchQuery="+phone, nil)
	require.NoError(s.T(), err)

	var list struct {
		Success bool `json:"success"`
		Data    []struct {
			ID          uint   `json:"id"`
			Phone       string `json:"phone"`
			LastMessage string `json:"last_message"`
			UnreadCount int64  `json:"unread_count"`
		} `json:"data"`
	}
	require.NoError(s.T(), s.parseResponse(listResp, &list))
	require.True(s.T(), list.Success)
	require.Len(s.T(), list.Data, 1)
	assert.Equal(s.T(), phone, list.Data[0].Phone)
	assert.Equal(s.T(), int64(1), list.Data[0].UnreadCount)

	leadID := list.Data[0].ID

	// The thread endpoint returns the stored message
	threadResp, err := s.doRequest(http.MethodGet, fmt.Sprintf("/webhook/messages/%d", leadID), nil)
	require.NoError(s.T(), err)

	var thread struct {
		Success bool `json:"success"`
		Data    []struct {
			Message    string `json:"message"`
			IsOutgoing bool   `json:"is_outgoing"`
			IsRead     bool   `json:"is_read"`
		} `json:"data"`
	}
	require.NoError(s.T(), s.parseResponse(threadResp, &thread))
	require.Len(s.T(), thread.Data, 1)
	assert.Equal(s.T(), "Assalamualaikum, mau tanya paket umrah", thread.Data[0].Message)
	assert.False(s.T(), thread.Data[0].IsOutgoing)
	assert.False(s.T(), thread.Data[0].IsRead)

	// Mark read drops the chat from the unread snapshot
	readResp, err := s.doRequest(http.MethodPost, fmt.Sprintf("/webhook/messages/%d/read?user_id=7", leadID), nil)
	require.NoError(s.T(), err)

	var snapshot struct {
		Success bool `json:"success"`
		Data    struct {
			PerChat map[string]int64 `json:"perChat"`
		} `json:"data"`
	}
	require.NoError(s.T(), s.parseResponse(readResp, &snapshot))
	assert.NotContains(s.T(), snapshot.Data.PerChat, fmt.Sprintf("%d", leadID))
}

func (s *APITestSuite) TestWebhookDelivery_SecondMessageReusesLead() {
	phone := uniquePhone()

	for i := 0; i < 2; i++ {
		resp := s.deliverWebhook(fixtures.NewWebhookDeliveryBuilder().
			From(phone).
			Text(fmt.Sprintf("pesan ke-%d", i+1)).
			WamID(fmt.Sprintf("wamid.api.%d.%d", time.Now().UnixNano(), i)).
			BuildJSON())
		resp.Body.Close()
	}

	listResp, err := s.doRequest(http.MethodGet, "/webhook/filtered-chats?searchQuery="+phone, nil)
	require.NoError(s.T(), err)

	var list struct {
		Data []struct {
			UnreadCount int64 `json:"unread_count"`
		} `json:"data"`
	}
	require.NoError(s.T(), s.parseResponse(listResp, &list))
	require.Len(s.T(), list.Data, 1, "two deliveries from one phone must map to one lead")
	assert.Equal(s.T(), int64(2), list.Data[0].UnreadCount)
}

func (s *APITestSuite) TestWebhook_StatusOnlyDeliveryAccepted() {
	resp := s.deliverWebhook(`{"object":"whatsapp_business_account","entry":[{"changes":[{"value":{"statuses":[{"id":"wamid.x","status":"read"}]}}]}]}`)
	defer resp.Body.Close()
	assert.Equal(s.T(), http.StatusOK, resp.StatusCode)
}

// =============================================================================
// UNREAD COUNTS
// =============================================================================

func (s *APITestSuite) TestUnreadCounts_ReturnsSnapshot() {
	resp, err := s.doRequest(http.MethodGet, "/webhook/unread-counts?user_id=7", nil)
	require.NoError(s.T(), err)

	var result struct {
		Success bool `json:"success"`
		Data    struct {
			Unassigned int64            `json:"unassigned"`
			Mine       int64            `json:"mine"`
			PerChat    map[string]int64 `json:"perChat"`
		} `json:"data"`
	}
	require.NoError(s.T(), s.parseResponse(resp, &result))
	assert.True(s.T(), result.Success)
	assert.GreaterOrEqual(s.T(), result.Data.Unassigned, int64(0))
}

// =============================================================================
// AUTH
// =============================================================================

func (s *APITestSuite) TestAuth_UIEndpointsRequireKey() {
	req, err := http.NewRequest(http.MethodGet, s.baseURL+"/webhook/filtered-chats", nil)
	require.NoError(s.T(), err)

	resp, err := s.client.Do(req)
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	assert.Equal(s.T(), http.StatusUnauthorized, resp.StatusCode)
}

func (s *APITestSuite) TestAuth_WebhookEndpointNeedsNoKey() {
	resp := s.deliverWebhook(`{"object":"whatsapp_business_account","entry":[]}`)
	defer resp.Body.Close()
	assert.Equal(s.T(), http.StatusOK, resp.StatusCode)
}

// =============================================================================
// REALTIME
// =============================================================================

func (s *APITestSuite) TestWebsocket_ReceivesNewMessageEvent() {
	wsURL := "ws" + strings.TrimPrefix(s.baseURL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(s.T(), err)
	defer conn.Close()

	phone := uniquePhone()
	resp := s.deliverWebhook(fixtures.NewWebhookDeliveryBuilder().
		From(phone).
		Text("halo admin").
		WamID(fmt.Sprintf("wamid.ws.%d", time.Now().UnixNano())).
		BuildJSON())
	resp.Body.Close()

	// Expect the snapshot event and then the message event, in that order
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var sawCounts, sawMessage bool
	for i := 0; i < 2; i++ {
		_, frame, err := conn.ReadMessage()
		require.NoError(s.T(), err)

		var env struct {
			Event string `json:"event"`
		}
		require.NoError(s.T(), json.Unmarshal(frame, &env))
		switch env.Event {
		case "unread_counts_update":
			sawCounts = true
			assert.False(s.T(), sawMessage, "snapshot must arrive before the message event")
		case "new_whatsapp_message":
			sawMessage = true
		}
	}
	assert.True(s.T(), sawCounts)
	assert.True(s.T(), sawMessage)
}

package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	apperrors "github.com/rihlahq/crm-backend/internal/errors"
)

// DefaultRequestTimeout bounds every outbound provider call
const DefaultRequestTimeout = 30 * time.Second

// Client defines the interface for outbound WhatsApp Cloud API operations
type Client interface {
	// SendText sends a text message and returns the provider message id
	SendText(ctx context.Context, to, body string) (string, error)

	// SendMedia sends a previously uploaded media object as a message
	SendMedia(ctx context.Context, to, mediaType, mediaID, filename string) (string, error)

	// UploadMedia uploads media content and returns the provider media id
	UploadMedia(ctx context.Context, filename, mimeType string, content io.Reader) (string, error)

	// ResolveMediaURL exchanges a media id for a downloadable URL
	ResolveMediaURL(ctx context.Context, mediaID string) (string, error)
}

// ClientConfig holds the Cloud API coordinates. Empty credentials are
// permitted at construction; calls fail at request time instead, matching
// the deployment model where the webhook can run without send capability.
type ClientConfig struct {
	BaseURL       string // e.g. https://graph.facebook.com/v18.0
	PhoneNumberID string
	AccessToken   string
}

// client implements Client against the Graph API
type client struct {
	cfg  ClientConfig
	http *http.Client
}

// NewClient creates a new Cloud API client
func NewClient(cfg ClientConfig) Client {
	return &client{
		cfg:  cfg,
		http: &http.Client{Timeout: DefaultRequestTimeout},
	}
}

// NewClientWithHTTP creates a client with a caller-supplied http.Client,
// used by tests to point at an httptest server.
func NewClientWithHTTP(cfg ClientConfig, httpClient *http.Client) Client {
	return &client{cfg: cfg, http: httpClient}
}

func (c *client) checkCredentials(op string) error {
	if c.cfg.AccessToken == "" || c.cfg.PhoneNumberID == "" || c.cfg.BaseURL == "" {
		return fmt.Errorf("%s: whatsapp credentials not configured: %w", op, apperrors.ErrProviderUnavailable)
	}
	return nil
}

// sendResponse is the provider's reply to a message send
type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// SendText sends a text message via POST /{phone_number_id}/messages
func (c *client) SendText(ctx context.Context, to, body string) (string, error) {
	if err := c.checkCredentials("send text"); err != nil {
		return "", err
	}

	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "text",
		"text":              map[string]string{"body": body},
	}

	return c.postMessage(ctx, "send text", payload)
}

// SendMedia sends an uploaded media object via POST /{phone_number_id}/messages
func (c *client) SendMedia(ctx context.Context, to, mediaType, mediaID, filename string) (string, error) {
	if err := c.checkCredentials("send media"); err != nil {
		return "", err
	}

	media := map[string]string{"id": mediaID}
	if mediaType == "document" && filename != "" {
		media["filename"] = filename
	}

	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              mediaType,
		mediaType:           media,
	}

	return c.postMessage(ctx, "send media", payload)
}

// postMessage performs the shared send call and extracts the message id
func (c *client) postMessage(ctx context.Context, op string, payload interface{}) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s payload: %w", op, err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.cfg.BaseURL, c.cfg.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build %s request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s request failed: %w", op, apperrors.Wrap(apperrors.ErrProviderUnavailable, err.Error()))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", apperrors.NewProviderError(op, resp.StatusCode, readErrorBody(resp.Body))
	}

	var parsed sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode %s response: %w", op, err)
	}
	if len(parsed.Messages) == 0 {
		return "", fmt.Errorf("%s response carried no message id", op)
	}
	return parsed.Messages[0].ID, nil
}

// UploadMedia uploads media content via POST /{phone_number_id}/media
func (c *client) UploadMedia(ctx context.Context, filename, mimeType string, content io.Reader) (string, error) {
	if err := c.checkCredentials("upload media"); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", fmt.Errorf("failed to buffer upload content: %w", err)
	}
	_ = writer.WriteField("messaging_product", "whatsapp")
	_ = writer.WriteField("type", mimeType)
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize upload form: %w", err)
	}

	url := fmt.Sprintf("%s/%s/media", c.cfg.BaseURL, c.cfg.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload media request failed: %w", apperrors.Wrap(apperrors.ErrProviderUnavailable, err.Error()))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", apperrors.NewProviderError("upload media", resp.StatusCode, readErrorBody(resp.Body))
	}

	var parsed struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	if parsed.ID == "" {
		return "", fmt.Errorf("upload response carried no media id")
	}
	return parsed.ID, nil
}

// ResolveMediaURL exchanges a media id for a downloadable URL via GET /{media_id}
func (c *client) ResolveMediaURL(ctx context.Context, mediaID string) (string, error) {
	if c.cfg.AccessToken == "" || c.cfg.BaseURL == "" {
		return "", fmt.Errorf("resolve media: whatsapp credentials not configured: %w", apperrors.ErrProviderUnavailable)
	}

	url := fmt.Sprintf("%s/%s", c.cfg.BaseURL, mediaID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build media request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("resolve media request failed: %w", apperrors.Wrap(apperrors.ErrProviderUnavailable, err.Error()))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", apperrors.NewProviderError("resolve media", resp.StatusCode, readErrorBody(resp.Body))
	}

	var parsed struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode media response: %w", err)
	}
	return parsed.URL, nil
}

// readErrorBody drains a capped slice of an error response for logging
func readErrorBody(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, 2048))
	if err != nil {
		return ""
	}
	return string(b)
}

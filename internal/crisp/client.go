// Package crisp talks to the Crisp live-chat platform: it sends operator
// messages through the REST API and decodes webhook deliveries.
package crisp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultBaseURL is the Crisp REST API root.
const DefaultBaseURL = "https://api.crisp.chat/v1"

// Client sends messages into Crisp conversations as an operator.
type Client struct {
	baseURL    string
	websiteID  string
	tokenID    string
	tokenKey   string
	httpClient *http.Client
}

// NewClient creates a Crisp REST client using plugin token credentials.
func NewClient(websiteID, tokenID, tokenKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    DefaultBaseURL,
		websiteID:  websiteID,
		tokenID:    tokenID,
		tokenKey:   tokenKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// WithBaseURL returns a copy of the client that targets baseURL.
func (c *Client) WithBaseURL(baseURL string) *Client {
	cp := *c
	cp.baseURL = baseURL
	return &cp
}

type messageRequest struct {
	Type    string `json:"type"`
	From    string `json:"from"`
	Origin  string `json:"origin"`
	Content string `json:"content"`
}

// SendText posts a text message from the operator into a conversation.
func (c *Client) SendText(ctx context.Context, sessionID, text string) error {
	body, err := json.Marshal(messageRequest{
		Type:    "text",
		From:    "operator",
		Origin:  "chat",
		Content: text,
	})
	if err != nil {
		return fmt.Errorf("encode crisp message: %w", err)
	}

	endpoint := fmt.Sprintf("%s/website/%s/conversation/%s/message",
		c.baseURL, url.PathEscape(c.websiteID), url.PathEscape(sessionID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build crisp request: %w", err)
	}
	req.SetBasicAuth(c.tokenID, c.tokenKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Crisp-Tier", "plugin")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send crisp message: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("crisp returned %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Configured reports whether credentials were supplied.
func (c *Client) Configured() bool {
	return c.websiteID != "" && c.tokenID != "" && c.tokenKey != ""
}

package crisp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/purifyx/crisp-chatbot/internal/engine"
)

// Webhook is the envelope of a Crisp webhook delivery.
type Webhook struct {
	EventType string      `json:"event"`
	WebsiteID string      `json:"website_id,omitempty"`
	Data      WebhookData `json:"data"`
	Timestamp int64       `json:"timestamp,omitempty"`
}

// WebhookData carries the event payload. Content is raw because Crisp sends
// objects for non-text messages.
type WebhookData struct {
	SessionID   string          `json:"session_id"`
	From        string          `json:"from"`
	Type        string          `json:"type,omitempty"`
	Content     json.RawMessage `json:"content,omitempty"`
	Fingerprint json.Number     `json:"fingerprint,omitempty"`
	Email       string          `json:"email,omitempty"`
	Visitor     *Person         `json:"visitor,omitempty"`
	User        *Person         `json:"user,omitempty"`
}

// Person is the visitor or user block of a webhook.
type Person struct {
	Email    string `json:"email,omitempty"`
	Nickname string `json:"nickname,omitempty"`
}

// ParseWebhook decodes a webhook body.
func ParseWebhook(body []byte) (*Webhook, error) {
	var w Webhook
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, fmt.Errorf("decode webhook: %w", err)
	}
	return &w, nil
}

// Event converts the delivery into an engine event.
func (w *Webhook) Event() engine.Event {
	return engine.Event{
		Kind:        w.EventType,
		SessionID:   strings.TrimSpace(w.Data.SessionID),
		From:        w.Data.From,
		Content:     w.Data.text(),
		EmailHint:   w.Data.emailHint(),
		Fingerprint: w.Data.Fingerprint.String(),
	}
}

// text returns the message text, or "" for non-text content.
func (d WebhookData) text() string {
	if len(d.Content) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(d.Content, &s); err != nil {
		return ""
	}
	return s
}

// emailHint picks the first email the platform attached to the event.
func (d WebhookData) emailHint() string {
	if d.Email != "" {
		return d.Email
	}
	if d.Visitor != nil && d.Visitor.Email != "" {
		return d.Visitor.Email
	}
	if d.User != nil {
		return d.User.Email
	}
	return ""
}

package notify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/slack-go/slack"

	"github.com/purifyx/crisp-chatbot/internal/domain"
)

// Slack posts alerts to a Slack incoming webhook.
type Slack struct {
	webhookURL string
	httpClient *http.Client
}

// NewSlack creates a Slack sink for the given incoming webhook URL.
func NewSlack(webhookURL string, httpClient *http.Client) *Slack {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Slack{webhookURL: webhookURL, httpClient: httpClient}
}

// Notify implements Sink.
func (s *Slack) Notify(ctx context.Context, alert domain.Alert) error {
	msg := &slack.WebhookMessage{Text: Format(alert)}
	if err := slack.PostWebhookCustomHTTPContext(ctx, s.webhookURL, s.httpClient, msg); err != nil {
		return fmt.Errorf("post slack webhook: %w", err)
	}
	return nil
}

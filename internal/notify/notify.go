// Package notify delivers escalation alerts to the support team.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/purifyx/crisp-chatbot/internal/domain"
)

// Sink delivers one escalation alert.
type Sink interface {
	Notify(ctx context.Context, alert domain.Alert) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, alert domain.Alert) error

// Notify implements Sink.
func (f SinkFunc) Notify(ctx context.Context, alert domain.Alert) error {
	return f(ctx, alert)
}

// Format renders an alert as a chat message for the support channel.
func Format(alert domain.Alert) string {
	var sb strings.Builder
	sb.WriteString(":raising_hand: Support Request\n")
	fmt.Fprintf(&sb, "Session ID: `%s`\n", alert.SessionID)
	fmt.Fprintf(&sb, "Email: `%s`\n", alert.EmailOrUnknown())
	if alert.Reason == domain.ReasonAIUnavailable {
		sb.WriteString("Note: AI assistant unavailable\n")
	}
	fmt.Fprintf(&sb, "Issue: %s", alert.Issue)
	return sb.String()
}

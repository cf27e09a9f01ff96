package domain

import "time"

// Escalation reasons.
const (
	ReasonDetailsCollected = "details_collected"
	ReasonAIUnavailable    = "ai_unavailable"
)

// Alert is the notification sent to the support team when a conversation
// is handed to a human.
type Alert struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Email     string    `json:"email,omitempty"`
	Issue     string    `json:"issue"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// EmailOrUnknown returns the alert email, or "unknown" when none was collected.
func (a Alert) EmailOrUnknown() string {
	if a.Email == "" {
		return "unknown"
	}
	return a.Email
}

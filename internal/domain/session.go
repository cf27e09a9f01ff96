// Package domain contains core domain types for the support chatbot.
package domain

import (
	"time"
)

// Status is the position of a conversation in the escalation flow.
type Status string

const (
	StatusNew           Status = "NEW"
	StatusAwaitingEmail Status = "AWAITING_EMAIL"
	StatusAwaitingIssue Status = "AWAITING_ISSUE"
	StatusEscalated     Status = "ESCALATED"
	StatusAIActive      Status = "AI_ACTIVE"
)

// LastMessage is the most recent inbound user message of a session.
type LastMessage struct {
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Session holds the conversation state for one chat session.
// An empty Email or Issue means the value has not been collected.
type Session struct {
	ID          string      `json:"id"`
	Email       string      `json:"email,omitempty"`
	Issue       string      `json:"issue,omitempty"`
	Status      Status      `json:"status"`
	LastMessage LastMessage `json:"last_message"`
	Escalations int         `json:"escalations"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// NewSession returns a fresh session in the NEW state.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		Status:    StatusNew,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Pending reports whether the session is waiting on the user or a human.
func (s *Session) Pending() bool {
	switch s.Status {
	case StatusAwaitingEmail, StatusAwaitingIssue, StatusEscalated:
		return true
	default:
		return false
	}
}

// MidFlow reports whether the session is collecting escalation details.
func (s *Session) MidFlow() bool {
	return s.Status == StatusAwaitingEmail || s.Status == StatusAwaitingIssue
}

// IsDuplicate reports whether text repeats the last message within window.
func (s *Session) IsDuplicate(text string, now time.Time, window time.Duration) bool {
	if s.LastMessage.At.IsZero() || s.LastMessage.Text != text {
		return false
	}
	return now.Sub(s.LastMessage.At) < window
}

// Clone returns a copy of the session.
func (s *Session) Clone() *Session {
	c := *s
	return &c
}

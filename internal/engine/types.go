// Package engine implements the conversation state machine that decides,
// message by message, whether to answer a visitor with the AI assistant,
// collect escalation details, or hand the conversation to a human.
package engine

import (
	"context"
	"time"

	"github.com/purifyx/crisp-chatbot/internal/domain"
)

// Event kinds understood by the engine.
const (
	KindMessage  = "message:send"
	KindSetEmail = "session:set_email"
	KindVisit    = "website:visit"
	KindRemoved  = "session:removed"
)

// Sender roles.
const (
	FromUser     = "user"
	FromOperator = "operator"
)

// Event is one inbound chat event.
type Event struct {
	Kind      string
	SessionID string
	From      string
	Content   string
	EmailHint string
	// Fingerprint identifies a delivery of the event, when the platform
	// provides one. Redeliveries carry the same fingerprint.
	Fingerprint string
}

// Action is the single outcome of a turn.
type Action string

// Actions.
const (
	ActionAskEmail         Action = "ask_email"
	ActionAskIssue         Action = "ask_issue"
	ActionAskClarification Action = "ask_clarification"
	ActionAIReply          Action = "ai_reply"
	ActionEscalate         Action = "escalate"
	ActionIgnore           Action = "ignore"
	ActionDuplicate        Action = "duplicate"
	ActionGreeting         Action = "greeting"
	ActionResume           Action = "resume"
	ActionEmailCaptured    Action = "email_captured"
	ActionAcknowledged     Action = "acknowledged"
)

// Result acknowledges an event. OK is false only for a malformed event.
type Result struct {
	OK     bool   `json:"ok"`
	Note   string `json:"note,omitempty"`
	Error  string `json:"error,omitempty"`
	Action Action `json:"-"`
	Reply  string `json:"-"`
}

// Turn describes a processed event for observers.
type Turn struct {
	SessionID string        `json:"session_id"`
	Action    Action        `json:"action"`
	Status    domain.Status `json:"status"`
	Note      string        `json:"note,omitempty"`
	At        time.Time     `json:"at"`
}

// Replier delivers a reply into the visitor's chat.
type Replier interface {
	SendText(ctx context.Context, sessionID, text string) error
}

// Recorder persists transcript entries.
type Recorder interface {
	AppendTranscript(ctx context.Context, entry *domain.TranscriptEntry) error
}

// Observer is told about every processed turn. Observe must not block.
type Observer interface {
	Observe(turn Turn)
}

// FingerprintFilter reports whether a delivery fingerprint was already seen.
type FingerprintFilter interface {
	Seen(fingerprint string) bool
}

// SessionLocker serializes turns of a session across processes that share
// a session store. The engine always serializes within its own process.
type SessionLocker interface {
	Lock(ctx context.Context, sessionID string) (unlock func(), err error)
}

// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/purifyx/crisp-chatbot/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Repository persists conversation transcripts, escalation records and raw
// chat payloads.
type Repository interface {
	// AppendTranscript records one message of a conversation.
	AppendTranscript(ctx context.Context, entry *domain.TranscriptEntry) error

	// ListTranscript returns up to limit entries for a session, oldest first.
	ListTranscript(ctx context.Context, sessionID string, limit int) ([]*domain.TranscriptEntry, error)

	// RecordEscalation stores an escalation alert.
	RecordEscalation(ctx context.Context, alert *domain.Alert) error

	// ListEscalations returns up to limit alerts, newest first.
	ListEscalations(ctx context.Context, limit int) ([]*domain.Alert, error)

	// SaveChatPayload stores a payload received through the /chat endpoint.
	SaveChatPayload(ctx context.Context, payload *domain.ChatPayload) error

	// PruneTranscripts deletes transcript entries created before cutoff.
	PruneTranscripts(ctx context.Context, cutoff time.Time) (int64, error)

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}

// SessionStore holds live conversation state keyed by session ID.
type SessionStore interface {
	// Get returns the session, or nil when it does not exist.
	Get(ctx context.Context, id string) (*domain.Session, error)

	// Put creates or replaces a session.
	Put(ctx context.Context, session *domain.Session) error

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// Close releases any resources held by the store.
	Close() error
}

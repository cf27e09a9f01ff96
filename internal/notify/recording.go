package notify

import (
	"context"
	"fmt"

	"github.com/purifyx/crisp-chatbot/internal/domain"
)

// EscalationRecorder persists escalation alerts.
type EscalationRecorder interface {
	RecordEscalation(ctx context.Context, alert *domain.Alert) error
}

// Recording stores every alert in the repository so escalations can be
// listed through the admin API.
type Recording struct {
	repo EscalationRecorder
}

// NewRecording creates a recording sink.
func NewRecording(repo EscalationRecorder) *Recording {
	return &Recording{repo: repo}
}

// Notify implements Sink.
func (r *Recording) Notify(ctx context.Context, alert domain.Alert) error {
	if err := r.repo.RecordEscalation(ctx, &alert); err != nil {
		return fmt.Errorf("record escalation: %w", err)
	}
	return nil
}

package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/purifyx/crisp-chatbot/internal/domain"
)

// Named pairs a sink with the name used in logs and errors.
type Named struct {
	Name string
	Sink Sink
}

// Multi fans an alert out to every sink. All sinks are tried even when some
// fail; the failures are joined into the returned error.
type Multi []Named

// Notify implements Sink.
func (m Multi) Notify(ctx context.Context, alert domain.Alert) error {
	var errs []error
	for _, n := range m {
		if err := n.Sink.Notify(ctx, alert); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n.Name, err))
		}
	}
	return errors.Join(errs...)
}

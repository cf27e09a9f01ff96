package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/purifyx/crisp-chatbot/internal/domain"
)

// defaultQueueSize bounds the number of undelivered alerts.
const defaultQueueSize = 64

// Dispatcher hands alerts to a background worker so callers never wait on
// slow notification channels. Each alert is delivered with its own timeout.
type Dispatcher struct {
	sink    Sink
	queue   chan domain.Alert
	timeout time.Duration
	logger  *slog.Logger

	wg        sync.WaitGroup
	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

// NewDispatcher starts a dispatcher worker delivering to sink.
func NewDispatcher(sink Sink, queueSize int, timeout time.Duration, logger *slog.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	d := &Dispatcher{
		sink:    sink,
		queue:   make(chan domain.Alert, queueSize),
		timeout: timeout,
		logger:  logger.With("component", "notify"),
	}
	d.wg.Add(1)
	go d.run()
	return d
}

// Notify implements Sink. It enqueues the alert and returns immediately; a
// full queue drops the alert and logs it.
func (d *Dispatcher) Notify(_ context.Context, alert domain.Alert) error {
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.Warn("dispatcher closed, dropping alert", "session_id", alert.SessionID, "alert_id", alert.ID)
		return nil
	}

	select {
	case d.queue <- alert:
	default:
		d.logger.Error("alert queue full, dropping alert", "session_id", alert.SessionID, "alert_id", alert.ID)
	}
	return nil
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for alert := range d.queue {
		d.deliver(alert)
	}
}

func (d *Dispatcher) deliver(alert domain.Alert) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	start := time.Now()
	if err := d.sink.Notify(ctx, alert); err != nil {
		d.logger.Error("failed to deliver alert",
			"session_id", alert.SessionID,
			"alert_id", alert.ID,
			"error", err)
		return
	}
	d.logger.Info("alert delivered",
		"session_id", alert.SessionID,
		"alert_id", alert.ID,
		"reason", alert.Reason,
		"duration", time.Since(start))
}

// Close stops accepting alerts and waits for queued ones to be delivered.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.queue)
		d.mu.Unlock()
	})
	d.wg.Wait()
}

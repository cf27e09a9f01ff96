package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/purifyx/crisp-chatbot/internal/domain"
)

type captureSink struct {
	mu     sync.Mutex
	alerts []domain.Alert
	err    error
	block  chan struct{}
}

func (c *captureSink) Notify(ctx context.Context, alert domain.Alert) error {
	if c.block != nil {
		select {
		case <-c.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alerts = append(c.alerts, alert)
	return c.err
}

func (c *captureSink) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.alerts)
}

type capturePublisher struct {
	exchange string
	body     []byte
	err      error
}

func (p *capturePublisher) Publish(exchange string, body []byte) error {
	p.exchange = exchange
	p.body = body
	return p.err
}

type fakeEscalationRepo struct {
	saved []*domain.Alert
}

func (f *fakeEscalationRepo) RecordEscalation(_ context.Context, alert *domain.Alert) error {
	f.saved = append(f.saved, alert)
	return nil
}

func testAlert() domain.Alert {
	return domain.Alert{
		ID:        "alert-1",
		SessionID: "session_42",
		Email:     "a@b.com",
		Issue:     "cannot export leads",
		Reason:    domain.ReasonDetailsCollected,
	}
}

func TestFormat(t *testing.T) {
	msg := Format(testAlert())
	assert.Contains(t, msg, "Session ID: `session_42`")
	assert.Contains(t, msg, "Email: `a@b.com`")
	assert.Contains(t, msg, "Issue: cannot export leads")
	assert.NotContains(t, msg, "unavailable")

	alert := testAlert()
	alert.Email = ""
	alert.Reason = domain.ReasonAIUnavailable
	msg = Format(alert)
	assert.Contains(t, msg, "Email: `unknown`")
	assert.Contains(t, msg, "AI assistant unavailable")
}

func TestSlackNotify(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		_, _ = io.WriteString(w, "ok")
	}))
	defer srv.Close()

	s := NewSlack(srv.URL, srv.Client())
	require.NoError(t, s.Notify(context.Background(), testAlert()))
	assert.Contains(t, got["text"], "cannot export leads")
}

func TestSlackNotifyError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid_payload", http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewSlack(srv.URL, nil).Notify(context.Background(), testAlert())
	assert.Error(t, err)
}

func TestBusPublishesJSON(t *testing.T) {
	p := &capturePublisher{}
	bus := NewBus(p, "")

	require.NoError(t, bus.Notify(context.Background(), testAlert()))
	assert.Equal(t, "chatbot.escalations", p.exchange)

	var decoded domain.Alert
	require.NoError(t, json.Unmarshal(p.body, &decoded))
	assert.Equal(t, "session_42", decoded.SessionID)

	p.err = errors.New("channel closed")
	assert.ErrorContains(t, bus.Notify(context.Background(), testAlert()), "channel closed")
}

func TestMultiTriesEverySink(t *testing.T) {
	first := &captureSink{err: errors.New("slack down")}
	second := &captureSink{}
	m := Multi{{Name: "slack", Sink: first}, {Name: "matrix", Sink: second}}

	err := m.Notify(context.Background(), testAlert())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slack: slack down")
	assert.Equal(t, 1, first.count())
	assert.Equal(t, 1, second.count())

	assert.NoError(t, Multi{}.Notify(context.Background(), testAlert()))
}

func TestRecording(t *testing.T) {
	repo := &fakeEscalationRepo{}
	require.NoError(t, NewRecording(repo).Notify(context.Background(), testAlert()))
	require.Len(t, repo.saved, 1)
	assert.Equal(t, "cannot export leads", repo.saved[0].Issue)
}

func TestDispatcherDeliversAsync(t *testing.T) {
	sink := &captureSink{}
	d := NewDispatcher(sink, 4, time.Second, nil)

	alert := testAlert()
	alert.ID = ""
	require.NoError(t, d.Notify(context.Background(), alert))
	d.Close()

	require.Equal(t, 1, sink.count())
	assert.NotEmpty(t, sink.alerts[0].ID)
	assert.False(t, sink.alerts[0].CreatedAt.IsZero())
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	sink := &captureSink{block: make(chan struct{})}
	d := NewDispatcher(sink, 1, time.Second, nil)

	// The first alert occupies the worker, the second fills the queue and
	// the rest are dropped without blocking the caller.
	for i := 0; i < 5; i++ {
		assert.NoError(t, d.Notify(context.Background(), testAlert()))
	}
	close(sink.block)
	d.Close()

	assert.LessOrEqual(t, sink.count(), 2)
	assert.GreaterOrEqual(t, sink.count(), 1)
}

func TestDispatcherTimesOutSlowSink(t *testing.T) {
	sink := &captureSink{block: make(chan struct{})}
	d := NewDispatcher(sink, 1, 20*time.Millisecond, nil)

	require.NoError(t, d.Notify(context.Background(), testAlert()))
	d.Close()
	assert.Equal(t, 0, sink.count())
}

func TestDispatcherIgnoresAlertsAfterClose(t *testing.T) {
	sink := &captureSink{}
	d := NewDispatcher(sink, 1, time.Second, nil)
	d.Close()
	d.Close()

	assert.NoError(t, d.Notify(context.Background(), testAlert()))
	assert.Equal(t, 0, sink.count())
}

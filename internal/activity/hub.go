// Package activity streams processed conversation turns to operators over
// WebSocket.
package activity

import (
	"sync"

	"github.com/purifyx/crisp-chatbot/internal/engine"
)

const (
	defaultBacklog    = 50
	subscriberBufSize = 32
)

// Hub fans turns out to connected subscribers and keeps a short backlog
// for newcomers.
type Hub struct {
	mu      sync.RWMutex
	subs    map[uint64]chan engine.Turn
	nextID  uint64
	backlog *ring
}

// NewHub creates a hub that remembers the last backlog turns.
func NewHub(backlog int) *Hub {
	if backlog <= 0 {
		backlog = defaultBacklog
	}
	return &Hub{
		subs:    make(map[uint64]chan engine.Turn),
		backlog: newRing(backlog),
	}
}

// Observe implements engine.Observer. Slow subscribers miss turns instead
// of blocking the engine.
func (h *Hub) Observe(turn engine.Turn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.backlog.push(turn)
	for _, ch := range h.subs {
		select {
		case ch <- turn:
		default:
		}
	}
}

// Subscribe registers a subscriber. It returns the current backlog, the
// channel of new turns and a function that unregisters the subscriber.
func (h *Hub) Subscribe() ([]engine.Turn, <-chan engine.Turn, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan engine.Turn, subscriberBufSize)
	h.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
	return h.backlog.items(), ch, cancel
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// ring is a fixed-size buffer of the most recent turns.
type ring struct {
	buf  []engine.Turn
	head int
	full bool
}

func newRing(size int) *ring {
	return &ring{buf: make([]engine.Turn, size)}
}

func (r *ring) push(t engine.Turn) {
	r.buf[r.head] = t
	r.head = (r.head + 1) % len(r.buf)
	if r.head == 0 {
		r.full = true
	}
}

// items returns the buffered turns, oldest first.
func (r *ring) items() []engine.Turn {
	if !r.full {
		out := make([]engine.Turn, r.head)
		copy(out, r.buf[:r.head])
		return out
	}
	out := make([]engine.Turn, 0, len(r.buf))
	out = append(out, r.buf[r.head:]...)
	return append(out, r.buf[:r.head]...)
}

// Package dedupe remembers webhook delivery fingerprints for a short window
// so redelivered events are processed only once.
package dedupe

import (
	"container/list"
	"sync"
	"time"
)

type entry struct {
	key  string
	seen time.Time
}

// Cache is a bounded, TTL-based set of fingerprints. Entries are kept in
// first-seen order so the oldest can be evicted when the cache is full.
type Cache struct {
	mu      sync.Mutex
	index   map[string]*list.Element
	order   *list.List
	ttl     time.Duration
	maxSize int
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a cache and starts a sweeper that drops expired fingerprints
// every sweep interval. Call Close to stop it.
func New(ttl time.Duration, maxSize int, sweep time.Duration) *Cache {
	c := newCache(ttl, maxSize, time.Now)
	if sweep > 0 {
		go c.sweepLoop(sweep)
	}
	return c
}

func newCache(ttl time.Duration, maxSize int, now func() time.Time) *Cache {
	if maxSize <= 0 {
		maxSize = 10000
	}
	return &Cache{
		index:   make(map[string]*list.Element),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		now:     now,
		stop:    make(chan struct{}),
	}
}

// Seen reports whether key was recorded within the TTL and records it if not.
// An empty key is never considered seen.
func (c *Cache) Seen(key string) bool {
	if key == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if el, ok := c.index[key]; ok {
		e := el.Value.(*entry)
		if now.Sub(e.seen) < c.ttl {
			return true
		}
		e.seen = now
		c.order.MoveToBack(el)
		return false
	}

	for len(c.index) >= c.maxSize {
		c.removeLocked(c.order.Front())
	}
	c.index[key] = c.order.PushBack(&entry{key: key, seen: now})
	return false
}

// Len returns the number of fingerprints currently held.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

func (c *Cache) removeLocked(el *list.Element) {
	if el == nil {
		return
	}
	c.order.Remove(el)
	delete(c.index, el.Value.(*entry).key)
}

// expire removes every fingerprint older than the TTL.
func (c *Cache) expire() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for el := c.order.Front(); el != nil; {
		next := el.Next()
		if now.Sub(el.Value.(*entry).seen) >= c.ttl {
			c.removeLocked(el)
		}
		el = next
	}
}

func (c *Cache) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.expire()
		case <-c.stop:
			return
		}
	}
}

// Close stops the sweeper. It is safe to call more than once.
func (c *Cache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

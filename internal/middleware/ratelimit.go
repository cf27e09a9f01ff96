package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RateLimiter is a sliding-window limiter keyed by client IP.
type RateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter creates a limiter allowing limit requests per window and
// starts a goroutine that evicts idle keys. Call Close to stop it. A
// non-positive limit or window disables limiting.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	if rl.enabled() {
		go rl.evictLoop()
	}
	return rl
}

func (r *RateLimiter) enabled() bool {
	return r.limit > 0 && r.window > 0
}

// Allow records a request for key and reports whether it is within limit.
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	recent := fresh(r.requests[key], now.Add(-r.window))
	if len(recent) >= r.limit {
		r.requests[key] = recent
		return false
	}
	r.requests[key] = append(recent, now)
	return true
}

func fresh(times []time.Time, cutoff time.Time) []time.Time {
	var out []time.Time
	for _, t := range times {
		if t.After(cutoff) {
			out = append(out, t)
		}
	}
	return out
}

func (r *RateLimiter) evictLoop() {
	ticker := time.NewTicker(r.window)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.evict()
		case <-r.stop:
			return
		}
	}
}

func (r *RateLimiter) evict() {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.window)
	for key, times := range r.requests {
		if kept := fresh(times, cutoff); len(kept) == 0 {
			delete(r.requests, key)
		} else {
			r.requests[key] = kept
		}
	}
}

// Close stops the eviction goroutine.
func (r *RateLimiter) Close() {
	r.stopOnce.Do(func() { close(r.stop) })
}

// Middleware rejects requests over the limit with 429. A disabled limiter
// lets everything through.
func (r *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if r.enabled() && !r.Allow(clientIP(req)) {
			w.Header().Set("Retry-After", strconv.Itoa(int(r.window.Seconds())))
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, req)
	})
}

// clientIP returns the request IP. chi's RealIP middleware has already
// rewritten RemoteAddr from proxy headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

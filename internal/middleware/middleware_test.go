package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestCORS(t *testing.T) {
	h := CORS([]string{"https://app.purifyx.ai"})(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://app.purifyx.ai")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "https://app.purifyx.ai", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSWildcardWithoutCredentials(t *testing.T) {
	h := CORS([]string{"*"})(okHandler)

	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	req.Header.Set("Origin", "https://anywhere.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://anywhere.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestBearerAuth(t *testing.T) {
	h := BearerAuth("s3cret")(okHandler)

	tests := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{"valid header", "Bearer s3cret", "", http.StatusOK},
		{"lowercase scheme", "bearer s3cret", "", http.StatusOK},
		{"query token", "", "?token=s3cret", http.StatusOK},
		{"wrong token", "Bearer nope", "", http.StatusUnauthorized},
		{"missing", "", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/escalations"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestBearerAuthDisabledWithoutToken(t *testing.T) {
	rec := httptest.NewRecorder()
	BearerAuth("")(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/escalations", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Close()

	now := time.Unix(1000, 0)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))

	now = now.Add(61 * time.Second)
	assert.True(t, rl.Allow("a"))

	now = now.Add(2 * time.Minute)
	rl.evict()
	assert.Empty(t, rl.requests)
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	defer rl.Close()
	h := rl.Middleware(okHandler)

	do := func() int {
		req := httptest.NewRequest(http.MethodPost, "/crisp-webhook", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusOK, do())
	assert.Equal(t, http.StatusTooManyRequests, do())
}

func TestRateLimiterDisabledWithoutWindow(t *testing.T) {
	for _, window := range []time.Duration{0, -time.Second} {
		rl := NewRateLimiter(0, window)
		h := rl.Middleware(okHandler)
		for i := 0; i < 3; i++ {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat", nil))
			assert.Equal(t, http.StatusOK, rec.Code)
		}
		rl.Close()
	}

	rl := NewRateLimiter(5, 0)
	defer rl.Close()
	rec := httptest.NewRecorder()
	rl.Middleware(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

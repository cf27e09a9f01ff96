package crisp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/purifyx/crisp-chatbot/internal/engine"
)

func TestSendText(t *testing.T) {
	var (
		gotPath string
		gotTier string
		gotUser string
		gotPass string
		gotBody messageRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotTier = r.Header.Get("X-Crisp-Tier")
		gotUser, gotPass, _ = r.BasicAuth()
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		w.WriteHeader(http.StatusAccepted)
		_, _ = io.WriteString(w, `{"error":false,"reason":"dispatched"}`)
	}))
	defer srv.Close()

	c := NewClient("web-1", "tok-id", "tok-key", time.Second).WithBaseURL(srv.URL)
	require.True(t, c.Configured())
	require.NoError(t, c.SendText(context.Background(), "session_abc", "Hello!"))

	assert.Equal(t, "/website/web-1/conversation/session_abc/message", gotPath)
	assert.Equal(t, "plugin", gotTier)
	assert.Equal(t, "tok-id", gotUser)
	assert.Equal(t, "tok-key", gotPass)
	assert.Equal(t, messageRequest{Type: "text", From: "operator", Origin: "chat", Content: "Hello!"}, gotBody)
}

func TestSendTextNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"error":true,"reason":"not_allowed"}`)
	}))
	defer srv.Close()

	c := NewClient("web-1", "id", "key", time.Second).WithBaseURL(srv.URL)
	err := c.SendText(context.Background(), "s", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "not_allowed")
}

func TestConfigured(t *testing.T) {
	assert.False(t, NewClient("", "", "", 0).Configured())
}

func TestParseWebhookMessage(t *testing.T) {
	body := []byte(`{
		"event": "message:send",
		"website_id": "web-1",
		"data": {
			"session_id": "session_abc",
			"from": "user",
			"type": "text",
			"content": "I need help",
			"fingerprint": 163408415419198,
			"user": {"nickname": "Jane", "email": "jane@acme.io"}
		},
		"timestamp": 1634084154203
	}`)

	w, err := ParseWebhook(body)
	require.NoError(t, err)

	ev := w.Event()
	assert.Equal(t, engine.Event{
		Kind:        engine.KindMessage,
		SessionID:   "session_abc",
		From:        engine.FromUser,
		Content:     "I need help",
		EmailHint:   "jane@acme.io",
		Fingerprint: "163408415419198",
	}, ev)
}

func TestParseWebhookEmailSources(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"data email", `{"event":"session:set_email","data":{"session_id":"s","email":"a@b.com","visitor":{"email":"v@b.com"}}}`, "a@b.com"},
		{"visitor email", `{"event":"website:visit","data":{"session_id":"s","visitor":{"email":"v@b.com"}}}`, "v@b.com"},
		{"none", `{"event":"website:visit","data":{"session_id":"s"}}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := ParseWebhook([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, w.Event().EmailHint)
		})
	}
}

func TestParseWebhookNonTextContent(t *testing.T) {
	w, err := ParseWebhook([]byte(`{"event":"message:send","data":{"session_id":"s","from":"user","type":"file","content":{"name":"a.png","url":"https://x"}}}`))
	require.NoError(t, err)
	assert.Empty(t, w.Event().Content)
	assert.Empty(t, w.Event().Fingerprint)
}

func TestParseWebhookInvalid(t *testing.T) {
	_, err := ParseWebhook([]byte(`{not json`))
	assert.Error(t, err)
}

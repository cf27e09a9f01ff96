package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/purifyx/crisp-chatbot/internal/domain"
)

func adminRouter(conv Conversations, repo *fakeRepo) http.Handler {
	r := chi.NewRouter()
	NewAdminHandler(conv, repo).RegisterRoutes(r)
	return r
}

func TestGetSession(t *testing.T) {
	conv := newFakeConversations()
	sess := domain.NewSession("s1", time.Unix(1700000000, 0).UTC())
	sess.Status = domain.StatusAwaitingEmail
	sess.Issue = "billing is broken"
	conv.sessions["s1"] = sess
	r := adminRouter(conv, newFakeRepo())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sessions/s1", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var got domain.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "s1", got.ID)
	assert.Equal(t, domain.StatusAwaitingEmail, got.Status)
	assert.Equal(t, "billing is broken", got.Issue)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sessions/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetSessionStoreError(t *testing.T) {
	conv := newFakeConversations()
	conv.err = errors.New("redis down")

	w := httptest.NewRecorder()
	adminRouter(conv, newFakeRepo()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sessions/s1", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestResetSession(t *testing.T) {
	conv := newFakeConversations()
	conv.sessions["s1"] = domain.NewSession("s1", time.Now())

	w := httptest.NewRecorder()
	adminRouter(conv, newFakeRepo()).ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/sessions/s1", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NotContains(t, conv.sessions, "s1")
}

func TestGetTranscript(t *testing.T) {
	repo := newFakeRepo()
	repo.transcripts["s1"] = []*domain.TranscriptEntry{
		{ID: "t1", SessionID: "s1", Direction: domain.DirectionInbound, Content: "hello"},
	}
	r := adminRouter(newFakeConversations(), repo)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sessions/s1/transcript?limit=5", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, repo.lastLimit)

	var got struct {
		SessionID string                    `json:"session_id"`
		Entries   []*domain.TranscriptEntry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "s1", got.SessionID)
	require.Len(t, got.Entries, 1)
	assert.Equal(t, "hello", got.Entries[0].Content)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sessions/none/transcript", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"session_id":"none","entries":[]}`, w.Body.String())
	assert.Equal(t, defaultListLimit, repo.lastLimit)
}

func TestListEscalationsClampsLimit(t *testing.T) {
	repo := newFakeRepo()
	repo.alerts = []*domain.Alert{{ID: "a1", SessionID: "s1", Issue: "refund", Reason: domain.ReasonDetailsCollected}}

	w := httptest.NewRecorder()
	adminRouter(newFakeConversations(), repo).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/escalations?limit=999999", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, maxListLimit, repo.lastLimit)
	assert.Contains(t, w.Body.String(), `"session_id":"s1"`)
}

package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/purifyx/crisp-chatbot/internal/store"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// AdminHandler exposes session state and history to operators.
type AdminHandler struct {
	conversations Conversations
	repo          store.Repository
}

// NewAdminHandler creates an admin handler.
func NewAdminHandler(conversations Conversations, repo store.Repository) *AdminHandler {
	return &AdminHandler{conversations: conversations, repo: repo}
}

// RegisterRoutes registers admin routes. Callers wrap r with authentication.
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/sessions/{id}", h.GetSession)
	r.Delete("/api/sessions/{id}", h.ResetSession)
	r.Get("/api/sessions/{id}/transcript", h.GetTranscript)
	r.Get("/api/escalations", h.ListEscalations)
}

// GetSession returns the live state of a session.
func (h *AdminHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, ok, err := h.conversations.Snapshot(r.Context(), id)
	if err != nil {
		slog.Error("Failed to read session", "session_id", id, "error", err)
		Error(w, http.StatusInternalServerError, "failed to read session")
		return
	}
	if !ok {
		Error(w, http.StatusNotFound, "session not found")
		return
	}
	JSON(w, http.StatusOK, sess)
}

// ResetSession forgets a session.
func (h *AdminHandler) ResetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.conversations.Reset(r.Context(), id); err != nil {
		slog.Error("Failed to reset session", "session_id", id, "error", err)
		Error(w, http.StatusInternalServerError, "failed to reset session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetTranscript returns the recorded messages of a session.
func (h *AdminHandler) GetTranscript(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entries, err := h.repo.ListTranscript(r.Context(), id, listLimit(r))
	if err != nil {
		slog.Error("Failed to list transcript", "session_id", id, "error", err)
		Error(w, http.StatusInternalServerError, "failed to list transcript")
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"session_id": id,
		"entries":    nonNil(entries),
	})
}

// ListEscalations returns the most recent escalations.
func (h *AdminHandler) ListEscalations(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.repo.ListEscalations(r.Context(), listLimit(r))
	if err != nil {
		slog.Error("Failed to list escalations", "error", err)
		Error(w, http.StatusInternalServerError, "failed to list escalations")
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"escalations": nonNil(alerts),
	})
}

func listLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return defaultListLimit
	}
	return min(n, maxListLimit)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

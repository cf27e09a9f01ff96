package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/purifyx/crisp-chatbot/internal/domain"
	"github.com/purifyx/crisp-chatbot/internal/store"
)

// ChatHandler stores messages posted directly to the API.
type ChatHandler struct {
	repo store.Repository
}

// NewChatHandler creates a chat handler.
func NewChatHandler(repo store.Repository) *ChatHandler {
	return &ChatHandler{repo: repo}
}

// RegisterRoutes registers the chat route.
func (h *ChatHandler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.HandleChat)
}

// HandleChat validates and persists a chat payload.
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var payload domain.ChatPayload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&payload); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := payload.Validate(); err != nil {
		Error(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := h.repo.SaveChatPayload(r.Context(), &payload); err != nil {
		slog.Error("Failed to save chat payload", "error", err)
		Error(w, http.StatusInternalServerError, "failed to save message")
		return
	}

	JSON(w, http.StatusOK, map[string]string{
		"reply": fmt.Sprintf("Received message: '%s' from %s", payload.Content, payload.UserType),
	})
}

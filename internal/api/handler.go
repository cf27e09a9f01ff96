// Package api provides HTTP handlers for the chatbot service.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/purifyx/crisp-chatbot/internal/domain"
	"github.com/purifyx/crisp-chatbot/internal/engine"
)

// maxBodyBytes caps inbound request bodies.
const maxBodyBytes = 1 << 20

// Conversations is the engine surface used by the HTTP layer.
type Conversations interface {
	Handle(ctx context.Context, ev engine.Event) engine.Result
	Snapshot(ctx context.Context, sessionID string) (*domain.Session, bool, error)
	Reset(ctx context.Context, sessionID string) error
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// Root answers GET / with a liveness banner.
func Root(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, map[string]string{"message": "Crisp Chatbot API running"})
}

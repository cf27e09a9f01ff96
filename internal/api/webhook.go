package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/purifyx/crisp-chatbot/internal/crisp"
	"github.com/purifyx/crisp-chatbot/internal/engine"
)

// WebhookHandler receives Crisp webhook deliveries and runs them through
// the conversation engine.
type WebhookHandler struct {
	conversations Conversations
	secret        string
}

// NewWebhookHandler creates a webhook handler. A non-empty secret enables
// signature verification.
func NewWebhookHandler(conversations Conversations, secret string) *WebhookHandler {
	return &WebhookHandler{conversations: conversations, secret: secret}
}

// RegisterRoutes registers the webhook route.
func (h *WebhookHandler) RegisterRoutes(r chi.Router) {
	r.Post("/crisp-webhook", h.HandleWebhook)
}

// HandleWebhook processes one webhook delivery.
func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			JSON(w, http.StatusRequestEntityTooLarge, engine.Result{OK: false, Error: "payload too large"})
			return
		}
		JSON(w, http.StatusBadRequest, engine.Result{OK: false, Error: "failed to read body"})
		return
	}

	if err := crisp.VerifySignature(h.secret, r.Header, body); err != nil {
		slog.Warn("Webhook signature rejected", "ip", r.RemoteAddr, "request_id", middleware.GetReqID(r.Context()))
		JSON(w, http.StatusUnauthorized, engine.Result{OK: false, Error: "invalid signature"})
		return
	}

	hook, err := crisp.ParseWebhook(body)
	if err != nil {
		slog.Warn("Malformed webhook payload", "error", err, "request_id", middleware.GetReqID(r.Context()))
		JSON(w, http.StatusBadRequest, engine.Result{OK: false, Error: "invalid JSON payload"})
		return
	}

	ev := hook.Event()
	slog.Debug("Webhook received",
		"event", ev.Kind,
		"session_id", ev.SessionID,
		"from", ev.From,
		"request_id", middleware.GetReqID(r.Context()))

	JSON(w, http.StatusOK, h.conversations.Handle(r.Context(), ev))
}

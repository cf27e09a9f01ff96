package activity

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
)

const writeTimeout = 5 * time.Second

// Handler serves the activity feed as a WebSocket endpoint.
type Handler struct {
	hub            *Hub
	originPatterns []string
}

// NewHandler creates a feed handler. originPatterns restricts which browser
// origins may connect; empty means same-origin only.
func NewHandler(hub *Hub, originPatterns []string) *Handler {
	return &Handler{hub: hub, originPatterns: originPatterns}
}

type feedMessage struct {
	Type string `json:"type"`
	Turn any    `json:"turn,omitempty"`
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		slog.Error("Failed to accept activity WebSocket", "error", err, "ip", r.RemoteAddr)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "feed ended"); closeErr != nil {
			slog.Debug("Failed to close activity websocket", "error", closeErr)
		}
	}()

	backlog, turns, cancel := h.hub.Subscribe()
	defer cancel()
	slog.Info("Activity subscriber connected", "ip", r.RemoteAddr, "subscribers", h.hub.Subscribers())

	ctx, stop := context.WithCancel(r.Context())
	defer stop()

	// Reader: answers pings and notices the client going away.
	go func() {
		defer stop()
		for {
			_, data, err := ws.Read(ctx)
			if err != nil {
				if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
					slog.Debug("Activity WebSocket read error", "error", err)
				}
				return
			}
			var msg feedMessage
			if json.Unmarshal(data, &msg) == nil && msg.Type == "ping" {
				if err := writeJSON(ctx, ws, feedMessage{Type: "pong"}); err != nil {
					return
				}
			}
		}
	}()

	for _, t := range backlog {
		if err := writeJSON(ctx, ws, feedMessage{Type: "turn", Turn: t}); err != nil {
			return
		}
	}

	for {
		select {
		case t := <-turns:
			if err := writeJSON(ctx, ws, feedMessage{Type: "turn", Turn: t}); err != nil {
				slog.Debug("Activity WebSocket write failed", "error", err)
				return
			}
		case <-ctx.Done():
			slog.Info("Activity subscriber disconnected", "ip", r.RemoteAddr)
			return
		}
	}
}

func writeJSON(ctx context.Context, ws *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return ws.Write(ctx, websocket.MessageText, data)
}

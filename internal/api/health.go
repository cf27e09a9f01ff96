package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// Pinger checks connectivity to a dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports dependency health.
type HealthHandler struct {
	checks map[string]Pinger
}

// NewHealthHandler creates a health handler over named dependencies.
func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// RegisterHealth registers the health route.
func (h *HealthHandler) RegisterHealth(r chi.Router) {
	r.Get("/api/health", h.Health)
}

// Health pings every dependency and returns 503 if any is down.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			slog.Warn("Health check failed", "dependency", name, "error", err)
			results[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	JSON(w, status, map[string]interface{}{
		"status": overall,
		"checks": results,
	})
}

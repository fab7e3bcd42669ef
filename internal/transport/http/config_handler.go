package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"salesdash/internal/config"
)

// ConfigHandler serves the dashboard input defaults consumed by the frontend.
type ConfigHandler struct {
	cfg    config.DashboardConfig
	logger *slog.Logger
}

// NewConfigHandler creates a new config handler.
func NewConfigHandler(cfg config.DashboardConfig, logger *slog.Logger) *ConfigHandler {
	return &ConfigHandler{
		cfg:    cfg,
		logger: logger.With(slog.String("handler", "config")),
	}
}

// Get handles GET /api/config
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]float64{
		"default_target": h.cfg.DefaultTarget,
		"min_target":     h.cfg.MinTarget,
		"target_step":    h.cfg.TargetStep,
	})
}

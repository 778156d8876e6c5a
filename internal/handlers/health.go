package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

const ServiceName = "platformer-sim"

// Pinger is a dependency the health check can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthResponse struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Service    string            `json:"service"`
	Tick       uint64            `json:"tick"`
	Components map[string]string `json:"components"`
}

type HealthHandler struct {
	cache  Pinger
	sim    Simulation
	logger *slog.Logger
}

// NewHealthHandler reports on the simulation and, when cache is non-nil,
// on the sheet cache.
func NewHealthHandler(cache Pinger, sim Simulation, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &HealthHandler{
		cache:  cache,
		sim:    sim,
		logger: logger,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	h.logger.Debug("Health check requested",
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr)

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	components := make(map[string]string)
	overallStatus := "healthy"

	if h.cache == nil {
		components["cache"] = "disabled"
	} else if err := h.cache.Ping(ctx); err != nil {
		h.logger.Warn("Cache health check failed", "error", err)
		components["cache"] = "unhealthy"
		overallStatus = "degraded"
	} else {
		components["cache"] = "healthy"
	}

	var tick uint64
	if h.sim != nil {
		tick = h.sim.Latest().Tick
		components["simulation"] = "running"
	}

	response := HealthResponse{
		Status:     overallStatus,
		Timestamp:  time.Now(),
		Service:    ServiceName,
		Tick:       tick,
		Components: components,
	}

	statusCode := http.StatusOK
	if overallStatus != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Error encoding health response",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path)
	}
}

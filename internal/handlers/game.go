package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/platformer/internal/game"
	"github.com/jwebster45206/platformer/pkg/inventory"
	"github.com/jwebster45206/platformer/pkg/sheet"
)

// maxInputBytes bounds a POST /v1/input body.
const maxInputBytes = 4 << 10

type ErrorResponse struct {
	Error string `json:"error"`
}

// Simulation is the running game as seen from HTTP.
type Simulation interface {
	Latest() game.Frame
	Submit(in game.Input)
}

// Refresher starts a background reload of the sheet data. done runs on
// another goroutine.
type Refresher interface {
	Refresh(ctx context.Context, done func(*sheet.Data, error)) bool
}

var _ Simulation = (*game.Runner)(nil)

type GameHandler struct {
	sim       Simulation
	refresher Refresher
	reload    func(*sheet.Data)
	logger    *slog.Logger
}

// NewGameHandler serves the simulation. refresher may be nil, in which case
// refresh requests are rejected. reload receives refreshed data.
func NewGameHandler(sim Simulation, refresher Refresher, reload func(*sheet.Data), logger *slog.Logger) *GameHandler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &GameHandler{
		sim:       sim,
		refresher: refresher,
		reload:    reload,
		logger:    logger,
	}
}

// Register mounts the routes on mux.
// GET  /v1/state         - latest frame
// POST /v1/input         - queue input for the next tick
// GET  /v1/inventory     - plain text inventory listing
// POST /v1/sheet/refresh - fetch sheet data in the background
func (h *GameHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/state", h.handleState)
	mux.HandleFunc("POST /v1/input", h.handleInput)
	mux.HandleFunc("GET /v1/inventory", h.handleInventory)
	mux.HandleFunc("POST /v1/sheet/refresh", h.handleRefresh)
}

func (h *GameHandler) handleState(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.sim.Latest())
}

func (h *GameHandler) handleInput(w http.ResponseWriter, r *http.Request) {
	var in game.Input
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxInputBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		h.logger.Warn("Invalid input payload", "error", err)
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid input: " + err.Error()})
		return
	}
	if axis := in.HorizontalAxis(); axis < -1 || axis > 1 {
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "horizontal must be within [-1, 1]"})
		return
	}
	h.sim.Submit(in)
	w.WriteHeader(http.StatusAccepted)
}

func (h *GameHandler) handleInventory(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(inventory.Dump(h.sim.Latest().Inventory))); err != nil {
		h.logger.Error("Failed to write inventory listing", "error", err)
	}
}

func (h *GameHandler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if h.refresher == nil {
		h.writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "No remote sheet configured"})
		return
	}
	// The request context ends with the response; the fetch outlives it.
	started := h.refresher.Refresh(context.WithoutCancel(r.Context()), func(data *sheet.Data, err error) {
		if err != nil {
			h.logger.Warn("Sheet refresh failed", "error", err)
			return
		}
		if h.reload != nil {
			h.reload(data)
		}
	})
	if !started {
		h.writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "No remote sheet configured"})
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *GameHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

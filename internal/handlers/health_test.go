package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/jwebster45206/platformer/internal/game"
)

type fakePinger struct {
	err error
}

func (p fakePinger) Ping(context.Context) error { return p.err }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))
}

func TestHealthHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		cache          Pinger
		expectedStatus int
		expectedHealth string
		expectedCache  string
	}{
		{
			name:           "all healthy",
			cache:          fakePinger{},
			expectedStatus: http.StatusOK,
			expectedHealth: "healthy",
			expectedCache:  "healthy",
		},
		{
			name:           "unhealthy cache",
			cache:          fakePinger{err: errors.New("connection failed")},
			expectedStatus: http.StatusServiceUnavailable,
			expectedHealth: "degraded",
			expectedCache:  "unhealthy",
		},
		{
			name:           "no cache configured",
			cache:          nil,
			expectedStatus: http.StatusOK,
			expectedHealth: "healthy",
			expectedCache:  "disabled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := &fakeSim{frame: game.Frame{Tick: 42}}
			handler := NewHealthHandler(tt.cache, sim, testLogger())

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, rr.Code)
			}
			if rr.Header().Get("Content-Type") != "application/json" {
				t.Errorf("Expected Content-Type application/json, got %s", rr.Header().Get("Content-Type"))
			}

			var response HealthResponse
			if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}

			if response.Status != tt.expectedHealth {
				t.Errorf("Expected status '%s', got '%s'", tt.expectedHealth, response.Status)
			}
			if response.Service != ServiceName {
				t.Errorf("Expected service '%s', got '%s'", ServiceName, response.Service)
			}
			if response.Components["cache"] != tt.expectedCache {
				t.Errorf("Expected cache status '%s', got '%s'", tt.expectedCache, response.Components["cache"])
			}
			if response.Components["simulation"] != "running" {
				t.Errorf("Expected simulation component, got %v", response.Components)
			}
			if response.Tick != 42 {
				t.Errorf("Expected tick 42, got %d", response.Tick)
			}
		})
	}
}

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/platformer/internal/game"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// apiClient talks to the simulation's debug HTTP surface.
type apiClient struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

func (a *apiClient) testConnection() bool {
	resp, err := a.client.Get(a.baseURL + "/health")
	if err != nil {
		a.logger.Warn("Health check failed", "error", err)
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

func (a *apiClient) state() (*game.Frame, error) {
	resp, err := a.client.Get(a.baseURL + "/v1/state")
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp.StatusCode, body)
	}

	var frame game.Frame
	if err := json.Unmarshal(body, &frame); err != nil {
		return nil, fmt.Errorf("failed to parse state response: %w", err)
	}
	return &frame, nil
}

func (a *apiClient) send(in game.Input) error {
	jsonData, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal input: %w", err)
	}

	resp, err := a.client.Post(a.baseURL+"/v1/input", "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	if resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(resp.Body)
		return apiError(resp.StatusCode, body)
	}
	return nil
}

func (a *apiClient) refreshSheet() error {
	resp, err := a.client.Post(a.baseURL+"/v1/sheet/refresh", "application/json", nil)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	if resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(resp.Body)
		return apiError(resp.StatusCode, body)
	}
	return nil
}

func apiError(status int, body []byte) error {
	var errorResp ErrorResponse
	if err := json.Unmarshal(body, &errorResp); err != nil || errorResp.Error == "" {
		return fmt.Errorf("API returned status %d: %s", status, string(body))
	}
	return fmt.Errorf("API returned status %d: %s", status, errorResp.Error)
}

package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jwebster45206/platformer/internal/config"
	"github.com/jwebster45206/platformer/internal/logger"
)

type ConsoleConfig struct {
	APIBaseURL   string
	Timeout      time.Duration
	PollInterval time.Duration
	LogFile      string
}

func main() {
	cfg := &ConsoleConfig{
		APIBaseURL:   getEnv("API_BASE_URL", "http://localhost:8080"),
		Timeout:      5 * time.Second,
		PollInterval: 100 * time.Millisecond,
		LogFile:      getEnv("CONSOLE_LOG_FILE", "console.log"),
	}

	appCfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// The terminal belongs to the UI, so logs go to a file.
	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logFile.Close()
	}()
	log := logger.SetupTo(logFile, appCfg)

	client := &http.Client{
		Timeout: cfg.Timeout,
	}
	api := &apiClient{baseURL: cfg.APIBaseURL, client: client, logger: log}

	if !api.testConnection() {
		fmt.Fprintf(os.Stderr, "Could not connect to the simulation at %s. Please ensure cmd/sim is running.\n", cfg.APIBaseURL)
		os.Exit(1)
	}

	p := tea.NewProgram(NewConsoleUI(cfg, api), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

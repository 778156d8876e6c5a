package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	RedisURL      string
	SheetURL      string
	SheetID       string
	SheetFile     string
	SheetCacheTTL time.Duration

	TickRate          int
	MoveSpeed         float64
	JumpForce         float64
	GroundCheckRadius float64
	InventorySize     int
	InteractRadius    float64
	StartScene        int
	PlayerMaxHP       int
}

// Load reads the configuration from the environment. Malformed numbers
// are reported together.
func Load() (*Config, error) {
	p := &parser{}
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),

		RedisURL:      getEnv("REDIS_URL", ""),
		SheetURL:      getEnv("SHEET_URL", ""),
		SheetID:       getEnv("SHEET_ID", "default"),
		SheetFile:     getEnv("SHEET_FILE", "data/sheet.json"),
		SheetCacheTTL: p.durationVar("SHEET_CACHE_TTL", time.Hour),

		TickRate:          p.intVar("TICK_RATE", 60),
		MoveSpeed:         p.floatVar("MOVE_SPEED", 5),
		JumpForce:         p.floatVar("JUMP_FORCE", 10),
		GroundCheckRadius: p.floatVar("GROUND_CHECK_RADIUS", 0.2),
		InventorySize:     p.intVar("INVENTORY_SIZE", 20),
		InteractRadius:    p.floatVar("INTERACT_RADIUS", 1.5),
		StartScene:        p.intVar("START_SCENE", 1000),
		PlayerMaxHP:       p.intVar("PLAYER_MAX_HP", 10),
	}
	if cfg.TickRate <= 0 {
		p.errs = append(p.errs, fmt.Errorf("TICK_RATE must be positive, got %d", cfg.TickRate))
	}
	if len(p.errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(p.errs...))
	}
	return cfg, nil
}

// TickInterval is the duration of one simulation tick.
func (c *Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

type parser struct {
	errs []error
}

func (p *parser) intVar(key string, def int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (p *parser) floatVar(key string, def float64) float64 {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return f
}

func (p *parser) durationVar(key string, def time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

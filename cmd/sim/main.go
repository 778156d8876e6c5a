package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/platformer/internal/config"
	"github.com/jwebster45206/platformer/internal/events"
	"github.com/jwebster45206/platformer/internal/game"
	"github.com/jwebster45206/platformer/internal/handlers"
	"github.com/jwebster45206/platformer/internal/logger"
	"github.com/jwebster45206/platformer/internal/sheetcache"
	"github.com/jwebster45206/platformer/pkg/sheet"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	gameID := uuid.New()
	log := logger.WithSession(logger.Setup(cfg), gameID)

	log.Info("Starting platformer simulation",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"tick_rate", cfg.TickRate)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	cache := connectCache(ctx, cfg, log)
	var fetcher *sheetcache.Fetcher
	if cfg.SheetURL != "" {
		fetcher = sheetcache.NewFetcher(cfg.SheetURL, nil, log)
	}
	source := &sheetcache.Source{File: cfg.SheetFile, Cache: cache, Fetcher: fetcher, Logger: log}

	data, err := source.LoadInitial(ctx)
	if err != nil {
		logger.WithError(log, err).Error("No usable sheet data")
		os.Exit(1)
	}

	deps := game.Deps{Data: data, Logger: log}
	var broadcaster *events.Broadcaster
	if cache != nil {
		broadcaster = events.NewBroadcaster(cache.Client(), gameID, events.DefaultBuffer, log)
		deps.InventoryListener = broadcaster
		deps.DialogueListener = broadcaster
		go broadcaster.Run(ctx)
		log.Info("Publishing game events", "channel", events.Channel(gameID))
	}

	g, err := game.New(cfg, deps)
	if err != nil {
		logger.WithError(log, err).Error("Failed to build game")
		os.Exit(1)
	}

	runner := game.NewRunner(g, cfg.TickInterval(), log)
	runner.OnReload(func(d *sheet.Data) {
		if broadcaster != nil {
			broadcaster.SheetReloaded(d.Summary())
		}
	})

	var refresher handlers.Refresher
	if fetcher != nil {
		refresher = source
		source.Refresh(ctx, func(d *sheet.Data, err error) {
			if err == nil {
				runner.Reload(d)
			}
		})
	}

	go func() {
		if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Simulation stopped unexpectedly", "error", err)
		}
	}()

	mux := http.NewServeMux()
	var pinger handlers.Pinger
	if cache != nil {
		pinger = cache
	}
	mux.Handle("/health", handlers.NewHealthHandler(pinger, runner, log))
	handlers.NewGameHandler(runner, refresher, runner.Reload, log).Register(mux)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handlers.LogRequests(mux, log),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")
	stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	if cache != nil {
		if err := cache.Close(); err != nil {
			log.Error("Error closing cache connection", "error", err)
		}
	}

	log.Info("Server exited")
}

// connectCache returns nil when no Redis is configured or it never comes up;
// the simulation runs without a cache in that case.
func connectCache(ctx context.Context, cfg *config.Config, log *slog.Logger) *sheetcache.Cache {
	if cfg.RedisURL == "" {
		log.Info("REDIS_URL not set, running without sheet cache")
		return nil
	}
	cache, err := sheetcache.NewCache(cfg.RedisURL, cfg.SheetID, cfg.SheetCacheTTL, log)
	if err != nil {
		log.Warn("Sheet cache disabled", "error", err)
		return nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	if err := cache.WaitForConnection(waitCtx); err != nil {
		log.Warn("Sheet cache disabled", "error", err)
		_ = cache.Close()
		return nil
	}
	return cache
}

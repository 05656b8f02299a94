// Package main is the entry point for the candy counter server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"candycounter/internal/cache"
	"candycounter/internal/config"
	"candycounter/internal/database"
	"candycounter/internal/handlers"
	"candycounter/internal/middleware"
	"candycounter/internal/render"
	"candycounter/internal/router"
	"candycounter/internal/store"
)

func main() {
	// Structured logger for the whole process.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Load .env if present; real environment variables take precedence.
	if err := godotenv.Load(); err == nil {
		slog.Debug("loaded environment from .env")
	}

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations, including the legacy tally backfill.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed a starter catalog in development (no-op once data exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey for the dashboard page cache. The app degrades
	// to uncached rendering when Valkey is unavailable.
	var dashCache *cache.DashboardCache
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Warn("valkey unavailable, dashboard cache disabled", "error", err)
		dashCache = cache.NewDashboardCache(nil, cache.DefaultDashboardTTL)
	} else {
		defer valkeyClient.Close()
		dashCache = cache.NewDashboardCache(valkeyClient, cache.DefaultDashboardTTL)
	}

	// Initialize the HTML template renderer.
	renderer, err := render.New()
	if err != nil {
		slog.Error("failed to initialize template renderer", "error", err)
		os.Exit(1)
	}

	// Initialize data stores.
	catalogStore := store.NewCatalogStore(db)
	tallyStore := store.NewTallyStore(db)

	// Create handler groups with their dependencies.
	candyHandlers := handlers.NewCandy(renderer, tallyStore, catalogStore, dashCache)
	catalogHandlers := handlers.NewCatalog(renderer, catalogStore, dashCache)
	apiHandlers := handlers.NewAPI(tallyStore, catalogStore, dashCache)

	// Rate limiter for mutation routes.
	limiter := middleware.NewRateLimiter(60, time.Minute)
	defer limiter.Stop()

	// Set up the Chi router with all middleware and routes.
	r := router.New(candyHandlers, catalogHandlers, apiHandlers, limiter)

	// Create the HTTP server with sensible timeouts.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

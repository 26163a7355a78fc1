// Package main is the entrypoint for the trainwatch monitoring server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mltrain/trainwatch/internal/api"
	"github.com/mltrain/trainwatch/internal/api/handler"
	"github.com/mltrain/trainwatch/internal/api/response"
	"github.com/mltrain/trainwatch/internal/cache"
	"github.com/mltrain/trainwatch/internal/config"
	"github.com/mltrain/trainwatch/internal/monitor"
	"github.com/mltrain/trainwatch/internal/orchestrator"
	"github.com/mltrain/trainwatch/pkg/models"
)

const (
	shutdownTimeout = 30 * time.Second
	healthTimeout   = 5 * time.Second
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config, fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded",
		"env", cfg.Server.Env,
		"orchestrator", cfg.Orchestrator.BaseURL,
		"poll_interval", cfg.Monitor.PollInterval.String(),
		"cache_backend", cfg.Cache.Backend,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Orchestrator client
	client := orchestrator.NewHTTPClient(cfg.Orchestrator.BaseURL, cfg.Orchestrator.Timeout)

	// 3. Metric snapshot store
	store, closeStore, err := newStore(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	defer closeStore()

	// 4. View root: directory + inspector
	dir := monitor.NewDirectory(client, orchestrator.ListOptions{
		Limit:  cfg.Monitor.DirectoryLimit,
		Status: models.JobStatus(cfg.Monitor.DirectoryStatus),
	})
	insp := monitor.NewInspector(client, store, monitor.InspectorConfig{
		PollInterval: cfg.Monitor.PollInterval,
		Series:       cfg.Monitor.Series,
	})
	root := monitor.NewRoot(dir, insp)

	mountDone := make(chan error, 1)
	go func() { mountDone <- root.Mount(ctx) }()

	// 5. Build router with dependencies
	router := newRouter(root, client, store)

	// 6. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	var serveErr error
	select {
	case err := <-errCh:
		serveErr = fmt.Errorf("server error: %w", err)
		stop()
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	// Mount returns once the inspector has stopped its poller and cleared the store.
	select {
	case <-mountDone:
	case <-shutdownCtx.Done():
		slog.Warn("monitor did not stop before shutdown timeout")
	}

	if serveErr != nil {
		return serveErr
	}
	slog.Info("server stopped gracefully")
	return nil
}

func newRouter(root *monitor.Root, client *orchestrator.HTTPClient, store cache.Cache) http.Handler {
	return api.NewRouter(api.Dependencies{
		HealthHandler:   healthHandler(client, store),
		ViewHandler:     handler.NewViewHandler(root),
		JobsHandler:     handler.NewJobsHandler(root),
		SelectHandler:   handler.NewSelectHandler(root),
		DeselectHandler: handler.NewDeselectHandler(root),
		EventsHandler:   handler.NewEventsHandler(root, handler.DefaultKeepAlive),
		ChartHandler:    handler.NewChartHandler(root),
	})
}

// newStore builds the metric snapshot store for the configured backend.
// The returned func releases it.
func newStore(ctx context.Context, cfg config.CacheConfig) (cache.Cache, func(), error) {
	if cfg.Backend != config.CacheRedis {
		slog.Info("using in-memory metric store")
		return cache.NewMemoryCache(), func() {}, nil
	}

	redisCache, err := cache.NewRedisCache(cfg.RedisURL, cfg.TTL)
	if err != nil {
		return nil, nil, fmt.Errorf("create redis cache: %w", err)
	}
	if err := redisCache.Ping(ctx); err != nil {
		redisCache.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected", "ttl", cfg.TTL.String())

	return redisCache, func() {
		if err := redisCache.Close(); err != nil {
			slog.Warn("close redis", "error", err)
		}
	}, nil
}

type readier interface {
	Ready(ctx context.Context) error
}

type pinger interface {
	Ping(ctx context.Context) error
}

// healthHandler checks orchestrator reachability and cache connectivity.
func healthHandler(o readier, c pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		checks := map[string]string{
			"orchestrator": "ok",
			"cache":        "ok",
		}

		if err := o.Ready(ctx); err != nil {
			slog.Warn("orchestrator health check failed", "error", err)
			checks["orchestrator"] = "degraded"
		}
		if err := c.Ping(ctx); err != nil {
			slog.Warn("cache health check failed", "error", err)
			checks["cache"] = "degraded"
		}

		degraded := checks["orchestrator"] != "ok" || checks["cache"] != "ok"
		if degraded {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", checks)
			return
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}

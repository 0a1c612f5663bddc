// Command tracker runs the diagnostic-feed tracking service: it ingests
// spotfinding result batches over HTTP, maintains per-run history and view
// state, and streams chart snapshots to renderers over a WebSocket hub.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/zdemat/interceptor/internal/api"
	"github.com/zdemat/interceptor/internal/config"
	"github.com/zdemat/interceptor/internal/diag"
	"github.com/zdemat/interceptor/internal/receiver"
	"github.com/zdemat/interceptor/internal/run"
	"github.com/zdemat/interceptor/internal/scheduler"
	"github.com/zdemat/interceptor/internal/ws"
)

func main() {
	configPath := flag.String("config", "config/tracker.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("tracker starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	slog.Info("config loaded",
		"listen", cfg.Tracker.Listen,
		"tick", cfg.Tracker.Tick,
		"default_threshold", cfg.Tracker.DefaultThreshold,
		"beamlines", len(cfg.Tracker.Beamlines),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	metrics := diag.NewMetrics()
	reg := run.NewRegistry(cfg.Tracker.DefaultThreshold)

	// Render scheduler, the single writer over all run state.
	sched := scheduler.New(reg, metrics, cfg.Tracker.Tick)

	// WebSocket hub fans snapshots out to renderers and feeds their
	// interactive events back into the scheduler.
	hub := ws.New(sched, sched.Current)
	sched.OnSnapshot(hub.Publish)

	go sched.Run(ctx)
	go hub.Run(ctx)

	// Live reload of the default threshold for newly created runs.
	go func() {
		onChange := func(next *config.Config) {
			reg.SetDefaultThreshold(next.Tracker.DefaultThreshold)
		}
		if err := config.Watch(ctx, *configPath, onChange); err != nil {
			slog.Warn("config watch disabled", "err", err)
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/v1/records", receiver.New(sched, metrics))
	mux.Handle("/ws/stream", hub)
	mux.Handle("/metrics", metrics.Handler())
	api.New(reg, sched, cfg.Tracker.Beamlines, hub.Count).Register(mux)

	srv := &http.Server{
		Addr:    cfg.Tracker.Listen,
		Handler: mux,
	}
	go func() {
		slog.Info("HTTP server listening", "addr", cfg.Tracker.Listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("tracker shutting down")
	srv.Shutdown(context.Background()) //nolint:errcheck
}

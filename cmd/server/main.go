package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gyaneshwarpardhi/disclosure/internal/api"
	"github.com/gyaneshwarpardhi/disclosure/internal/config"
	"github.com/gyaneshwarpardhi/disclosure/internal/engine"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	cfgPath := flag.String("config", "configs/questions.yaml", "Path to questions YAML config")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// ── Load config ──────────────────────────────────────────────────────────
	loader, err := config.NewLoader(*cfgPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	cfg := loader.Config()

	// ── Engine ────────────────────────────────────────────────────────────────
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng := engine.New(ctx, nil, nil, cfg.Engine)
	if err := eng.ApplyConfig(cfg); err != nil {
		slog.Error("config rejected", "err", err)
		os.Exit(1)
	}
	slog.Info("rules loaded",
		"questions", len(cfg.Questions),
		"codebook", cfg.Codebook,
		"workers", cfg.Engine.DocumentWorkers,
		"queue_depth", cfg.Engine.QueueDepth,
	)

	// ── Hot-reload watcher ────────────────────────────────────────────────────
	// Rejections are reported by the caller of Reload (watcher log or API response).
	loader.OnChange(func(newCfg *config.RuleConfig) error {
		if err := eng.ApplyConfig(newCfg); err != nil {
			return err
		}
		slog.Info("rules hot-reloaded", "version", newCfg.Version, "questions", len(newCfg.Questions))
		return nil
	})
	stopWatch, err := loader.Watch()
	if err != nil {
		slog.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
	} else {
		defer stopWatch()
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	srv := &http.Server{
		Addr:         *addr,
		Handler:      api.New(eng, loader),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30*time.Second + time.Duration(cfg.Engine.DocumentTimeoutMs)*time.Millisecond,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	eng.Shutdown()
	cancel()
	slog.Info("goodbye")
}

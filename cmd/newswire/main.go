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

	"github.com/pevans/newswire/api"
	"github.com/pevans/newswire/config"
	"github.com/pevans/newswire/fetch"
	"github.com/pevans/newswire/reconcile"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default: $NEWSWIRE_CONFIG, then ~/.newswire/config.yaml)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger.Info("config loaded",
		"sources", len(cfg.Sources),
		"poll_interval", cfg.PollInterval,
		"recency_window", cfg.RecencyWindow,
		"date_policy", cfg.DatePolicy,
	)

	store := reconcile.NewStore()
	chain := fetch.NewDefaultChain(cfg, logger.With("component", "fetch"))
	engine := reconcile.NewEngine(store, chain, cfg.Sources, cfg.RecencyWindow,
		logger.With("component", "reconcile"))
	engine.OnNewItems(func(count int) {
		logger.Info("new items available", "count", count)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	poller := reconcile.NewPoller(engine, cfg.PollInterval, logger.With("component", "poller"))
	go poller.Start(ctx)

	srv := api.New(engine, cfg.InitialBatchSize, logger.With("component", "api"))
	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server started", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("server stopped")
}

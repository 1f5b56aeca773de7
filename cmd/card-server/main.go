package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/fire-danger-card/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/fire-danger-card/internal/adapter/kafka"
	"github.com/couchcryptid/fire-danger-card/internal/card"
	"github.com/couchcryptid/fire-danger-card/internal/catalog"
	"github.com/couchcryptid/fire-danger-card/internal/config"
	"github.com/couchcryptid/fire-danger-card/internal/observability"
	"github.com/couchcryptid/fire-danger-card/internal/pipeline"
	"github.com/couchcryptid/fire-danger-card/internal/scheduler"
	"github.com/couchcryptid/fire-danger-card/internal/statestore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	registry := catalog.NewRegistry()
	if _, err := card.Register(registry, logger); err != nil {
		logger.Error("failed to register card", "error", err)
		os.Exit(1)
	}

	renderer := card.NewRenderer()
	dashboard := card.NewDashboard(metrics, logger)
	for _, entity := range cfg.CardEntities {
		c, err := card.NewForEntity(entity, renderer, card.Options{Location: cfg.CardTimezone, Logger: logger})
		if err != nil {
			logger.Error("failed to configure card", "entity", entity, "error", err)
			os.Exit(1)
		}
		if err := dashboard.Add(c); err != nil {
			logger.Error("failed to add card", "entity", entity, "error", err)
			os.Exit(1)
		}
	}
	logger.Info("dashboard configured", "cards", len(cfg.CardEntities), "timezone", cfg.CardTimezone.String())

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	store := statestore.NewMemoryStore()

	p := pipeline.New(reader, store, dashboard, writer, logger, metrics, cfg.BatchSize)

	refresh, err := scheduler.New(cfg.CardRefreshSchedule, cfg.CardTimezone, p, logger)
	if err != nil {
		logger.Error("failed to schedule refresh", "error", err)
		os.Exit(1)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Deps{
		Ready:   p,
		Cards:   dashboard,
		Catalog: registry,
		States:  p,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start state change pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	refresh.Start()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	refresh.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}

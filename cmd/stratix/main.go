package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MikeSquared-Agency/Stratix/internal/api"
	"github.com/MikeSquared-Agency/Stratix/internal/config"
	"github.com/MikeSquared-Agency/Stratix/internal/editor"
	"github.com/MikeSquared-Agency/Stratix/internal/engine"
	"github.com/MikeSquared-Agency/Stratix/internal/hermes"
	"github.com/MikeSquared-Agency/Stratix/internal/metrics"
	"github.com/MikeSquared-Agency/Stratix/internal/rollup"
	"github.com/MikeSquared-Agency/Stratix/internal/store"
	"github.com/MikeSquared-Agency/Stratix/internal/trends"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	params, err := cfg.EngineParams()
	if err != nil {
		logger.Error("invalid engine parameters", "error", err)
		os.Exit(1)
	}
	eng := engine.New(params)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := store.NewPostgresStore(ctx, cfg.Database.URL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to database")

	// Hermes (optional)
	var hermesClient hermes.Client
	if cfg.Hermes.URL != "" {
		hc, err := hermes.NewNATSClient(ctx, cfg.Hermes.URL, logger)
		if err != nil {
			logger.Warn("failed to connect to hermes, running without events", "error", err)
		} else {
			hermesClient = hc
			defer hc.Close()
			logger.Info("connected to hermes")
		}
	}

	// Trends (optional)
	var trendsClient trends.Client
	if cfg.Trends.URL != "" {
		trendsClient = trends.NewHTTPClient(cfg.Trends.URL, cfg.Trends.Token)
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	ed := editor.NewManager(db, hermesClient, eng, m, editor.Options{
		Debounce:    cfg.Debounce(),
		IdleTimeout: cfg.IdleTimeout(),
	}, logger)
	ed.Start(ctx)
	defer ed.Stop()

	if cfg.Rollup.Enabled {
		pub := rollup.New(db, hermesClient, eng, m, rollup.Options{
			Interval:    cfg.TickInterval(),
			Concurrency: cfg.Rollup.Concurrency,
		}, logger)
		pub.Start(ctx)
		defer pub.Stop()
		logger.Info("rollup started", "tick_interval", cfg.TickInterval())
	}

	// API server
	router := api.NewRouter(db, eng, ed, trendsClient, m, cfg.Server.RateLimit, logger)
	apiServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Metrics server
	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler:           api.NewMetricsRouter(db, prometheus.DefaultGatherer),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("API server starting", "port", cfg.Server.Port)
		if err := apiServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("API server error", "error", err)
		}
	}()

	go func() {
		logger.Info("metrics server starting", "port", cfg.Server.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = apiServer.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)
	cancel()
	// Pending drafts are flushed by the deferred ed.Stop before the store closes.

	logger.Info("shutdown complete")
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yourorg/paymentcore/internal/adapter/static"
	"github.com/yourorg/paymentcore/internal/config"
	"github.com/yourorg/paymentcore/internal/logging"
	"github.com/yourorg/paymentcore/internal/orchestrator"
	"github.com/yourorg/paymentcore/internal/reporting"
	"github.com/yourorg/paymentcore/internal/txstore"
)

const journalCapacity = 1000

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.NewLogger(cfg.Environment, cfg.LogLevel)
	slog.SetDefault(logger)

	shutdownTracing, err := setupTracing(cfg.LogLevel == "debug")
	if err != nil {
		logger.Error("failed to set up tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracer shutdown failed", "error", err)
		}
	}()

	platform, err := static.Load(cfg.FixturesFile, cfg.Merchant, logger)
	if err != nil {
		logger.Error("failed to load platform fixtures", "file", cfg.FixturesFile, "error", err)
		os.Exit(1)
	}

	journal := reporting.NewJournal(journalCapacity)
	opts := []orchestrator.Option{
		orchestrator.WithHTTPClient(&http.Client{Timeout: cfg.GatewayTimeout}),
		orchestrator.WithRetry(cfg.RetryAttempts, 0),
		orchestrator.WithRecorder(journal),
	}
	if cfg.GatewayBaseURL != "" {
		opts = append(opts, orchestrator.WithBaseURL(cfg.GatewayBaseURL))
	}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		store := txstore.NewRedisStore(rdb)
		if err := store.Ping(ctx); err != nil {
			logger.Error("redis unreachable", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		opts = append(opts, orchestrator.WithStore(store))
		logger.Info("payment registry backed by redis", "addr", cfg.RedisAddr)
	}

	core, err := orchestrator.New(ctx, platform, opts...)
	if err != nil {
		logger.Error("failed to initialize engine", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           setupRouter(core, journal),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", cfg.Port, "environment", cfg.Environment, "test_mode", core.Configuration().IsTestMode())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	logger.Info("server stopped")
}

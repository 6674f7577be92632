package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Harshitk-cp/proofstream/internal/api"
	"github.com/Harshitk-cp/proofstream/internal/buildconfig"
	"github.com/Harshitk-cp/proofstream/internal/config"
	"github.com/Harshitk-cp/proofstream/internal/domain"
	"github.com/Harshitk-cp/proofstream/internal/llm"
	"github.com/Harshitk-cp/proofstream/internal/orchestrator"
	"github.com/Harshitk-cp/proofstream/internal/service"
	"github.com/Harshitk-cp/proofstream/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := config.Load(); err != nil {
		panic(err)
	}

	logger := newLogger(config.LogLevel())
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	providers, err := config.Providers()
	if err != nil {
		logger.Fatal("failed to load provider config", zap.Error(err))
	}

	clients, err := llm.NewClients(ctx, providers)
	if err != nil {
		logger.Fatal("failed to initialize model clients", zap.Error(err))
	}
	for name := range clients {
		logger.Info("model client initialized", zap.String("provider", name))
	}

	var (
		versions domain.ProofVersionStore
		ping     func(context.Context) error
	)
	if dbURL := config.DatabaseURL(); dbURL != "" {
		pool, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			logger.Fatal("failed to ping database", zap.Error(err))
		}
		logger.Info("connected to database")

		if err := store.Migrate(ctx, pool, config.MigrationsPath(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
		versions = store.NewProofVersionStore(pool)
		ping = pool.Ping
	} else {
		mem, err := store.NewMemoryProofVersionStore(config.MemoryStoreSize())
		if err != nil {
			logger.Fatal("failed to create memory store", zap.Error(err))
		}
		logger.Warn("DATABASE_URL not set, proof history is kept in memory",
			zap.Int("max_proofs", config.MemoryStoreSize()))
		versions = mem
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	orch := orchestrator.New(clients, providers, orchestrator.NewMetrics(reg), logger)
	app := api.NewApp(ctx, api.Options{
		Orchestrator:   orch,
		Proofs:         service.NewProofService(versions, logger),
		Registry:       reg,
		Ping:           ping,
		UnlockKey:      config.UnlockKey(),
		KeepAlive:      config.KeepAliveInterval(),
		RateLimitRPS:   config.RateLimitRPS(),
		RateLimitBurst: config.RateLimitBurst(),
	}, logger)

	if config.UnlockKey() == "" {
		logger.Warn("UNLOCK_KEY not set, /v1 is open")
	}

	addr := config.ServerAddr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	go func() {
		logger.Info("server starting",
			zap.String("addr", addr),
			zap.String("version", buildconfig.Version()),
			zap.String("default_provider", providers.DefaultProvider))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	// Open streams see their request context cancelled through BaseContext and
	// finish without further chunks.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

func newLogger(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

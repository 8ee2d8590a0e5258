// cmd/worker/main.go
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/ammerola/stockledger/internal/adapters/persistence"
	"github.com/ammerola/stockledger/internal/pkg/config"
	"github.com/ammerola/stockledger/internal/pkg/logger"
	"github.com/ammerola/stockledger/internal/workers"
)

// The worker applies write-behind saves and upload cleanup. Run a single
// instance: save ordering is tracked per process.
func main() {
	slogger := logger.SetupLogger("info", "json").Logger

	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Reconfigure logger with loaded settings
	slogger = logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat).Logger
	slogger.Info("starting worker",
		slog.String("environment", cfg.App.Environment),
		slog.String("persistence", cfg.Persistence.Driver),
		slog.String("redis_addr", cfg.Asynq.RedisAddr))

	if !cfg.Redis.Enabled {
		slogger.Error("the worker consumes redis queues; set REDIS_ENABLED=true")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := config.LoadSecrets(ctx, cfg, slogger); err != nil {
		slogger.Error("failed to apply secrets", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var rdb *redis.Client
	if cfg.Persistence.Driver == config.DriverRedis {
		rdb, err = persistence.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			slogger.Error("failed to connect to redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer rdb.Close()
	}

	backend, err := persistence.Open(ctx, cfg, rdb, slogger)
	if err != nil {
		slogger.Error("failed to open persistence", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer backend.Close()
	if backend.Store == nil {
		slogger.Error("the memory driver has nothing to persist; choose a storage driver")
		os.Exit(1)
	}

	uploads, err := persistence.OpenUploads(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to open upload storage", slog.String("error", err.Error()))
		os.Exit(1)
	}

	srv := workers.NewServer(cfg.Asynq, cfg.Asynq.Queues, slogger)
	mux := workers.NewPersistMux(
		workers.NewPersistProcessor(backend.Store, slogger),
		workers.NewCleanupProcessor(uploads, slogger),
	)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Run(mux); err != nil {
			slogger.Error("failed to run worker server", slog.String("error", err.Error()))
			shutdown <- syscall.SIGTERM
		}
	}()

	slogger.Info("worker started successfully",
		slog.Int("concurrency", cfg.Asynq.Concurrency),
		slog.Any("queues", cfg.Asynq.Queues))

	sig := <-shutdown
	slogger.Info("shutdown signal received", slog.String("signal", sig.String()))

	srv.Shutdown()
	slogger.Info("worker shutdown complete")
}

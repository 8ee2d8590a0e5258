// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ammerola/stockledger/internal/adapters/orderfeed"
	"github.com/ammerola/stockledger/internal/adapters/persistence"
	redis_a "github.com/ammerola/stockledger/internal/adapters/redis_adapter"
	"github.com/ammerola/stockledger/internal/adapters/storage"
	"github.com/ammerola/stockledger/internal/core/ports"
	"github.com/ammerola/stockledger/internal/core/services"
	"github.com/ammerola/stockledger/internal/handlers"
	"github.com/ammerola/stockledger/internal/handlers/middleware"
	"github.com/ammerola/stockledger/internal/pkg/config"
	"github.com/ammerola/stockledger/internal/pkg/logger"
	"github.com/ammerola/stockledger/internal/workers"
)

// Build information injected at compile time
var (
	Version   = "dev"
	BuildTime = "unknown"
	GoVersion = "unknown"
)

func main() {
	slogger := logger.SetupLogger("debug", "json").Logger

	slogger.Info("starting stockledger api",
		slog.String("version", Version),
		slog.String("build_time", BuildTime),
		slog.String("go_version", GoVersion),
	)

	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Reconfigure logger with loaded settings
	slogger = logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat).Logger
	slogger.Info("configuration loaded",
		slog.String("environment", cfg.App.Environment),
		slog.String("log_level", cfg.App.LogLevel),
		slog.String("persistence", cfg.Persistence.Driver),
		slog.Bool("redis", cfg.Redis.Enabled),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := config.LoadSecrets(ctx, cfg, slogger); err != nil {
		slogger.Error("failed to apply secrets", slog.String("error", err.Error()))
		os.Exit(1)
	}

	deps, err := initializeDependencies(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to initialize dependencies", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer deps.cleanup()

	if err := deps.startBackground(cfg, slogger); err != nil {
		slogger.Error("failed to start task processing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	server := setupHTTPServer(cfg, deps, slogger)

	serverErrors := make(chan error, 1)
	go func() {
		slogger.Info("starting HTTP server",
			slog.String("address", cfg.GetServerAddress()),
			slog.Bool("tls", cfg.Server.TLSEnabled),
		)

		if cfg.Server.TLSEnabled {
			serverErrors <- server.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		} else {
			serverErrors <- server.ListenAndServe()
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slogger.Error("server error", slog.String("error", err.Error()))
		}
	case sig := <-shutdown:
		slogger.Info("shutdown signal received",
			slog.String("signal", sig.String()),
		)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slogger.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
		server.Close()
	}
	deps.stopBackground()

	// Queued saves may not have been applied yet; the final state is written directly.
	if deps.backend.Store != nil {
		if err := deps.service.Flush(shutdownCtx, deps.backend.Store); err != nil {
			slogger.Error("failed to flush engine state", slog.String("error", err.Error()))
		}
	}

	slogger.Info("server shutdown complete")
}

// dependencies holds all application dependencies
type dependencies struct {
	backend        *persistence.Backend
	redisClient    *redis.Client
	cache          *redis_a.CacheManager
	asynqClient    *asynq.Client
	asynqInspector *asynq.Inspector
	engineServer   *asynq.Server
	scheduler      *asynq.Scheduler
	service        *services.InventoryService
	receiver       *workers.ReceiveProcessor
	uploads        storage.StorageClient
	routes         handlers.Routes
}

func (d *dependencies) cleanup() {
	if d.asynqInspector != nil {
		d.asynqInspector.Close()
	}
	if d.asynqClient != nil {
		if err := d.asynqClient.Close(); err != nil {
			slog.Error("failed to close Asynq client", slog.String("error", err.Error()))
		}
	}
	if d.redisClient != nil {
		d.redisClient.Close()
	}
	if d.backend != nil {
		d.backend.Close()
	}
}

func initializeDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*dependencies, error) {
	deps := &dependencies{}

	if cfg.Redis.Enabled {
		logger.Info("connecting to Redis",
			slog.String("host", cfg.Redis.Host),
			slog.String("port", cfg.Redis.Port),
		)
		rdb, err := persistence.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		deps.redisClient = rdb
		deps.cache = redis_a.NewCacheManager(redis_a.NewCache(rdb, cfg.Redis.TTL, logger), logger)

		opt := workers.RedisOpt(cfg.Asynq)
		deps.asynqClient = asynq.NewClient(opt)
		deps.asynqInspector = asynq.NewInspector(opt)
	}

	backend, err := persistence.Open(ctx, cfg, deps.redisClient, logger)
	if err != nil {
		deps.cleanup()
		return nil, err
	}
	deps.backend = backend

	// Saves go inline to the backend, or through the persist queue with write-behind.
	var store ports.Persistence = backend.Store
	if backend.Store != nil && cfg.Persistence.WriteBehind && deps.asynqClient != nil {
		store = workers.NewAsyncPersister(backend.Store, deps.asynqClient, logger)
	}

	var (
		locations ports.LocationStore
		prefStore ports.PreferenceStore
		itemRepo  ports.ItemRepository
	)
	if store != nil {
		locations, prefStore, itemRepo = store, store, store
	}

	registry := services.NewLocationRegistry(locations, logger)
	prefs := services.NewPreferenceModel(prefStore, logger)
	deps.service = services.NewInventoryService(registry, prefs, itemRepo, logger,
		services.WithGeneralLocation(cfg.Engine.GeneralLocation))

	if err := deps.service.Bootstrap(ctx, cfg.Engine.SeedDefaultLocations); err != nil {
		deps.cleanup()
		return nil, fmt.Errorf("failed to load engine state: %w", err)
	}

	var receipts workers.ReceiptCache
	if deps.cache != nil {
		receipts = deps.cache
	}
	deps.receiver = workers.NewReceiveProcessor(deps.service, receipts, logger)

	if err := buildRoutes(ctx, cfg, deps, logger); err != nil {
		deps.cleanup()
		return nil, err
	}

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

func buildRoutes(ctx context.Context, cfg *config.Config, deps *dependencies, logger *slog.Logger) error {
	health := handlers.HealthDeps{
		Redis: deps.redisClient,
		Asynq: deps.asynqInspector,
	}
	if deps.backend.Database != nil {
		health.Database = deps.backend.Database
	}

	orders := handlers.OrderHandlerConfig{
		Receiver:    deps.receiver,
		MaxFileSize: int64(cfg.FileProcessing.PDFMaxSizeMB) << 20,
	}
	var (
		suggestions handlers.SuggestionCache
		invalidator handlers.SuggestionInvalidator
		stats       handlers.CacheStatsSource
	)
	if deps.cache != nil {
		suggestions, invalidator, stats = deps.cache, deps.cache, deps.cache
		orders.Status = deps.cache
	}
	if deps.asynqClient != nil {
		uploads, err := persistence.OpenUploads(ctx, cfg, logger)
		if err != nil {
			return err
		}
		deps.uploads = uploads
		orders.Objects = uploads
		orders.Enqueuer = deps.asynqClient
	}

	deps.routes = handlers.Routes{
		Locations: handlers.NewLocationHandler(deps.service, invalidator, logger),
		Inventory: handlers.NewInventoryHandler(deps.service, suggestions, cfg.Engine.SuggestionTTL, logger),
		Orders:    handlers.NewOrderHandler(deps.service, orders, logger),
		Dashboard: handlers.NewDashboardHandler(deps.service, stats, logger),
	}
	if cfg.Server.EnableHealthCheck {
		deps.routes.Health = handlers.NewHealthHandler(deps.service, health, cfg, logger)
	}
	return nil
}

// startBackground runs the engine queue consumer and the periodic task
// scheduler. Both need redis; without it the API serves synchronous routes only.
func (d *dependencies) startBackground(cfg *config.Config, logger *slog.Logger) error {
	if d.redisClient == nil {
		logger.Warn("redis disabled, order imports and queued receipts are unavailable")
		return nil
	}

	engine := workers.EngineHandlers{
		Receive: d.receiver,
		Import:  workers.NewImportProcessor(d.service, d.uploads, orderfeed.NewReader(logger), d.cache, logger),
	}
	if d.backend.Store != nil {
		engine.Snapshot = workers.NewSnapshotProcessor(d.service, d.backend.Store, logger)
	}

	d.engineServer = workers.NewServer(cfg.Asynq, map[string]int{workers.QueueEngine: 1}, logger)
	if err := d.engineServer.Start(workers.NewEngineMux(engine)); err != nil {
		return fmt.Errorf("failed to start engine queue: %w", err)
	}

	d.scheduler = workers.NewScheduler(cfg.Asynq, logger)
	if engine.Snapshot != nil && cfg.Persistence.SaveInterval > 0 {
		if _, err := d.scheduler.Register(workers.EveryInterval(cfg.Persistence.SaveInterval), workers.NewSnapshotTask()); err != nil {
			return fmt.Errorf("failed to schedule snapshots: %w", err)
		}
	}
	cleanup, err := workers.NewCleanupTask(cfg.FileProcessing.UploadRetention)
	if err != nil {
		return err
	}
	if _, err := d.scheduler.Register("@hourly", cleanup); err != nil {
		return fmt.Errorf("failed to schedule upload cleanup: %w", err)
	}
	if err := d.scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	logger.Info("task processing started",
		slog.String("queue", workers.QueueEngine),
		slog.Duration("save_interval", cfg.Persistence.SaveInterval))
	return nil
}

func (d *dependencies) stopBackground() {
	if d.scheduler != nil {
		d.scheduler.Shutdown()
	}
	if d.engineServer != nil {
		d.engineServer.Shutdown()
	}
}

func setupHTTPServer(cfg *config.Config, deps *dependencies, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	deps.routes.Register(mux)

	if cfg.Server.EnablePprof && cfg.IsDevelopment() {
		mux.HandleFunc("GET /debug/pprof/", http.DefaultServeMux.ServeHTTP)
	}

	mws := []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.Logger(logger),
		middleware.Recovery(logger),
	}
	if cfg.Security.RateLimitRequests > 0 {
		mws = append(mws, middleware.RateLimit(cfg.Security.RateLimitRequests, cfg.Security.RateLimitDuration))
	}
	if len(cfg.Security.AllowedOrigins) > 0 {
		mws = append(mws, middleware.CORS(cfg.Security.AllowedOrigins))
	}
	if cfg.Security.SecureHeaders {
		mws = append(mws, middleware.SecureHeaders)
	}
	mws = append(mws, middleware.Compression)
	if cfg.Server.WriteTimeout > 0 {
		mws = append(mws, middleware.Timeout(cfg.Server.WriteTimeout))
	}

	return &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        middleware.Chain(mux, mws...),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
}

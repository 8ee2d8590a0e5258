// internal/workers/server.go
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/stockledger/internal/pkg/config"
)

// RedisOpt returns the asynq connection options from configuration
func RedisOpt(cfg config.AsynqConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
}

// NewServer creates an asynq server consuming queues
func NewServer(cfg config.AsynqConfig, queues map[string]int, logger *slog.Logger) *asynq.Server {
	l := logger.With(slog.String("component", "asynq"))
	return asynq.NewServer(RedisOpt(cfg), asynq.Config{
		Concurrency:     cfg.Concurrency,
		Queues:          queues,
		StrictPriority:  cfg.StrictPriority,
		ErrorHandler:    errorHandler(l),
		RetryDelayFunc:  ExponentialBackoff,
		ShutdownTimeout: cfg.ShutdownTimeout,
		HealthCheckFunc: func(err error) {
			if err != nil {
				l.Error("worker health check failed", slog.String("error", err.Error()))
			}
		},
		HealthCheckInterval:      cfg.HealthCheckInterval,
		DelayedTaskCheckInterval: cfg.DelayedTaskCheckTime,
		Logger:                   NewAsynqLogger(l),
	})
}

// NewScheduler creates an asynq scheduler for periodic tasks
func NewScheduler(cfg config.AsynqConfig, logger *slog.Logger) *asynq.Scheduler {
	l := logger.With(slog.String("component", "scheduler"))
	return asynq.NewScheduler(RedisOpt(cfg), &asynq.SchedulerOpts{
		Location: time.UTC,
		Logger:   NewAsynqLogger(l),
		EnqueueErrorHandler: func(task *asynq.Task, _ []asynq.Option, err error) {
			l.Error("failed to enqueue periodic task",
				slog.String("task_type", task.Type()),
				slog.String("error", err.Error()))
		},
	})
}

// EveryInterval formats a cron spec for a fixed interval
func EveryInterval(d time.Duration) string {
	return fmt.Sprintf("@every %s", d)
}

// EngineHandlers are the processors that need the in-memory engine
type EngineHandlers struct {
	Import   *ImportProcessor
	Receive  *ReceiveProcessor
	Snapshot *SnapshotProcessor
}

// NewEngineMux routes engine tasks. Nil processors are not registered.
func NewEngineMux(h EngineHandlers) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Use(loggingMiddleware)
	if h.Import != nil {
		mux.HandleFunc(TypeOrderImport, h.Import.ProcessImport)
	}
	if h.Receive != nil {
		mux.HandleFunc(TypeOrderReceive, h.Receive.ProcessReceive)
	}
	if h.Snapshot != nil {
		mux.HandleFunc(TypeSnapshot, h.Snapshot.ProcessSnapshot)
	}
	return mux
}

// NewPersistMux routes persistence and maintenance tasks. cleanup may be nil.
func NewPersistMux(persist *PersistProcessor, cleanup *CleanupProcessor) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Use(loggingMiddleware)
	mux.HandleFunc(TypePersistItems, persist.ProcessItems)
	mux.HandleFunc(TypePersistLocations, persist.ProcessLocations)
	mux.HandleFunc(TypePersistPreferences, persist.ProcessPreferences)
	if cleanup != nil {
		mux.HandleFunc(TypeCleanupImports, cleanup.CleanupImports)
	}
	return mux
}

func loggingMiddleware(next asynq.Handler) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
		start := time.Now()
		taskID, _ := asynq.GetTaskID(ctx)
		err := next.ProcessTask(ctx, t)
		slog.DebugContext(ctx, "task processed",
			slog.String("task_type", t.Type()),
			slog.String("task_id", taskID),
			slog.Duration("duration", time.Since(start)),
			slog.Bool("ok", err == nil))
		return err
	})
}

func errorHandler(logger *slog.Logger) asynq.ErrorHandlerFunc {
	return func(ctx context.Context, task *asynq.Task, err error) {
		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)
		logger.ErrorContext(ctx, "task processing failed",
			slog.String("task_type", task.Type()),
			slog.Int("retried", retried),
			slog.Int("max_retry", maxRetry),
			slog.String("error", err.Error()))
	}
}

// ExponentialBackoff doubles the retry delay from one second up to ten minutes
func ExponentialBackoff(n int, _ error, _ *asynq.Task) time.Duration {
	const (
		baseDelay = time.Second
		maxDelay  = 10 * time.Minute
	)
	if n >= 30 {
		return maxDelay
	}
	delay := baseDelay * time.Duration(1<<uint(n))
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

// asynqLogger adapts slog for Asynq
type asynqLogger struct {
	logger *slog.Logger
}

// NewAsynqLogger wraps logger as an asynq.Logger
func NewAsynqLogger(logger *slog.Logger) asynq.Logger {
	return &asynqLogger{logger: logger}
}

func (l *asynqLogger) Debug(args ...interface{}) {
	l.logger.Debug(fmt.Sprint(args...))
}

func (l *asynqLogger) Info(args ...interface{}) {
	l.logger.Info(fmt.Sprint(args...))
}

func (l *asynqLogger) Warn(args ...interface{}) {
	l.logger.Warn(fmt.Sprint(args...))
}

func (l *asynqLogger) Error(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
}

// Fatal logs at error level. Asynq only calls it on unrecoverable server
// errors, after which Run returns.
func (l *asynqLogger) Fatal(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
}

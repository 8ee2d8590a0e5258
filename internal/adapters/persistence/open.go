// internal/adapters/persistence/open.go
package persistence

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ammerola/stockledger/internal/adapters/badgerstore"
	"github.com/ammerola/stockledger/internal/adapters/db"
	redis_a "github.com/ammerola/stockledger/internal/adapters/redis_adapter"
	"github.com/ammerola/stockledger/internal/adapters/storage"
	"github.com/ammerola/stockledger/internal/core/ports"
	"github.com/ammerola/stockledger/internal/pkg/config"
)

// badgerGCInterval is how often the badger value log is compacted
const badgerGCInterval = 10 * time.Minute

// Backend is the persistence selected by configuration. Store is nil for the
// memory driver; Database is set only for the postgres driver.
type Backend struct {
	Driver   string
	Store    ports.Persistence
	Database *db.Database

	closers []func()
}

// Close releases the backend in reverse order of opening
func (b *Backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}

func (b *Backend) onClose(fn func()) {
	b.closers = append(b.closers, fn)
}

// Open connects the persistence driver named in cfg. rdb is required by the
// redis driver only. Background maintenance started here stops when ctx is done.
func Open(ctx context.Context, cfg *config.Config, rdb *redis.Client, logger *slog.Logger) (*Backend, error) {
	b := &Backend{Driver: cfg.Persistence.Driver}
	logger.InfoContext(ctx, "opening persistence", slog.String("driver", b.Driver))

	switch b.Driver {
	case config.DriverMemory:
		return b, nil

	case config.DriverPostgres:
		database, err := db.NewDatabase(ctx, DatabaseConfig(cfg), logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		b.onClose(database.Close)
		if cfg.Database.AutoMigrate {
			if err := RunMigrations(ctx, cfg, logger); err != nil {
				b.Close()
				return nil, err
			}
		}
		b.Database = database
		b.Store = db.NewStore(database, logger)

	case config.DriverRedis:
		if rdb == nil {
			return nil, fmt.Errorf("redis driver selected but redis is disabled")
		}
		b.Store = redis_a.NewStore(rdb, cfg.Persistence.RedisPrefix, logger)

	case config.DriverBadger:
		store, err := badgerstore.Open(cfg.Persistence.BadgerPath, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open badger at %s: %w", cfg.Persistence.BadgerPath, err)
		}
		gcCtx, stopGC := context.WithCancel(ctx)
		go store.RunGC(gcCtx, badgerGCInterval)
		b.onClose(func() {
			stopGC()
			if err := store.Close(); err != nil {
				logger.Error("failed to close badger", slog.String("error", err.Error()))
			}
		})
		b.Store = store

	case config.DriverS3:
		s3, err := storage.NewS3Storage(ctx, S3Config(cfg), logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize s3 storage: %w", err)
		}
		b.Store = storage.NewSnapshotStore(s3, path.Join(cfg.AWS.S3Prefix, "snapshots"), logger)

	case config.DriverLocal:
		local, err := storage.NewLocalStorage(cfg.Persistence.LocalDir, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize snapshot directory: %w", err)
		}
		b.Store = storage.NewSnapshotStore(local, "", logger)

	default:
		return nil, fmt.Errorf("unknown persistence driver %q", b.Driver)
	}
	return b, nil
}

// OpenUploads returns the object store for imported order documents: the S3
// bucket when one is configured for the s3 driver or an endpoint is set, the
// local upload directory otherwise.
func OpenUploads(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.StorageClient, error) {
	if cfg.Persistence.Driver == config.DriverS3 || cfg.AWS.S3Endpoint != "" {
		s3, err := storage.NewS3Storage(ctx, S3Config(cfg), logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize upload storage: %w", err)
		}
		return s3, nil
	}
	local, err := storage.NewLocalStorage(cfg.FileProcessing.UploadDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize upload directory: %w", err)
	}
	return local, nil
}

// NewRedisClient connects to redis and verifies the connection
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:            fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password:        cfg.Password,
		DB:              cfg.DB,
		MaxRetries:      cfg.MaxRetries,
		MinRetryBackoff: cfg.MinRetryBackoff,
		MaxRetryBackoff: cfg.MaxRetryBackoff,
		DialTimeout:     cfg.DialTimeout,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		PoolSize:        cfg.PoolSize,
		MinIdleConns:    cfg.MinIdleConns,
		ConnMaxLifetime: cfg.MaxConnAge,
		PoolTimeout:     cfg.PoolTimeout,
		ConnMaxIdleTime: cfg.IdleTimeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// DatabaseConfig maps application configuration to the pool configuration
func DatabaseConfig(cfg *config.Config) *db.Config {
	return &db.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     cfg.Database.MaxConnections,
		MinConnections:     cfg.Database.MinConnections,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		EnableQueryLogging: cfg.Database.EnableQueryLogging,
	}
}

// S3Config maps application configuration to the S3 client configuration
func S3Config(cfg *config.Config) *storage.S3Config {
	return &storage.S3Config{
		Region:          cfg.AWS.Region,
		Bucket:          cfg.AWS.S3Bucket,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
		Endpoint:        cfg.AWS.S3Endpoint,
		UsePathStyle:    cfg.AWS.UsePathStyle,
	}
}

// RunMigrations applies the schema migrations
func RunMigrations(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.InfoContext(ctx, "running database migrations")

	return db.RunMigrationsWithRetry(ctx, &db.MigrationConfig{
		DatabaseURL: cfg.GetDatabaseURL(),
		SourcePath:  cfg.Database.MigrationPath,
		TableName:   "schema_migrations",
		SchemaName:  "public",
	}, logger, 3)
}

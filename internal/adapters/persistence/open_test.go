// internal/adapters/persistence/open_test.go
package persistence_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/stockledger/internal/adapters/badgerstore"
	"github.com/ammerola/stockledger/internal/adapters/persistence"
	redis_a "github.com/ammerola/stockledger/internal/adapters/redis_adapter"
	"github.com/ammerola/stockledger/internal/adapters/storage"
	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/pkg/config"
	"github.com/ammerola/stockledger/test/helpers"
)

func TestOpen(t *testing.T) {
	tests := []struct {
		name      string
		configure func(t *testing.T, cfg *config.Config)
		withRedis bool
		wantErr   string
		check     func(t *testing.T, b *persistence.Backend)
	}{
		{
			name: "memory_has_no_store",
			check: func(t *testing.T, b *persistence.Backend) {
				assert.Nil(t, b.Store)
				assert.Nil(t, b.Database)
			},
		},
		{
			name: "local_snapshots",
			configure: func(t *testing.T, cfg *config.Config) {
				cfg.Persistence.Driver = config.DriverLocal
				cfg.Persistence.LocalDir = t.TempDir()
			},
			check: func(t *testing.T, b *persistence.Backend) {
				assert.IsType(t, &storage.SnapshotStore{}, b.Store)
			},
		},
		{
			name: "badger",
			configure: func(t *testing.T, cfg *config.Config) {
				cfg.Persistence.Driver = config.DriverBadger
				cfg.Persistence.BadgerPath = filepath.Join(t.TempDir(), "badger")
			},
			check: func(t *testing.T, b *persistence.Backend) {
				assert.IsType(t, &badgerstore.Store{}, b.Store)
			},
		},
		{
			name: "redis",
			configure: func(t *testing.T, cfg *config.Config) {
				cfg.Persistence.Driver = config.DriverRedis
			},
			withRedis: true,
			check: func(t *testing.T, b *persistence.Backend) {
				assert.IsType(t, &redis_a.Store{}, b.Store)
			},
		},
		{
			name: "redis_without_client",
			configure: func(t *testing.T, cfg *config.Config) {
				cfg.Persistence.Driver = config.DriverRedis
			},
			wantErr: "redis is disabled",
		},
		{
			name: "unknown_driver",
			configure: func(t *testing.T, cfg *config.Config) {
				cfg.Persistence.Driver = "floppy"
			},
			wantErr: "unknown persistence driver",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := helpers.LoadTestConfig()
			if tt.configure != nil {
				tt.configure(t, cfg)
			}
			var rd *helpers.TestRedis
			if tt.withRedis {
				rd = helpers.SetupTestRedis(t)
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			var b *persistence.Backend
			var err error
			if rd != nil {
				b, err = persistence.Open(ctx, cfg, rd.Client, helpers.TestLogger())
			} else {
				b, err = persistence.Open(ctx, cfg, nil, helpers.TestLogger())
			}
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			defer b.Close()
			assert.Equal(t, cfg.Persistence.Driver, b.Driver)
			tt.check(t, b)
		})
	}
}

func TestOpen_LocalRoundTrip(t *testing.T) {
	cfg := helpers.LoadTestConfig()
	cfg.Persistence.Driver = config.DriverLocal
	cfg.Persistence.LocalDir = t.TempDir()
	ctx := context.Background()

	b, err := persistence.Open(ctx, cfg, nil, helpers.TestLogger())
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, b.Store.SaveLocations(ctx, domain.DefaultLocations()))

	reopened, err := persistence.Open(ctx, cfg, nil, helpers.TestLogger())
	require.NoError(t, err)
	defer reopened.Close()

	locs, err := reopened.Store.LoadLocations(ctx)
	require.NoError(t, err)
	assert.Len(t, locs, len(domain.DefaultLocations()))
}

func TestOpenUploads_LocalDirectory(t *testing.T) {
	cfg := helpers.LoadTestConfig()
	cfg.FileProcessing.UploadDir = t.TempDir()
	ctx := context.Background()

	uploads, err := persistence.OpenUploads(ctx, cfg, helpers.TestLogger())
	require.NoError(t, err)
	require.IsType(t, &storage.LocalStorage{}, uploads)

	_, err = uploads.Upload(ctx, "imports/job-1/po.json", strings.NewReader(`{"id":"PO-1"}`), "application/json")
	require.NoError(t, err)
	exists, err := uploads.Exists(ctx, "imports/job-1/po.json")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestNewRedisClient(t *testing.T) {
	t.Run("connects", func(t *testing.T) {
		rd := helpers.SetupTestRedis(t)
		client, err := persistence.NewRedisClient(context.Background(), config.RedisConfig{
			Host: rd.Server.Host(),
			Port: rd.Server.Port(),
		})
		require.NoError(t, err)
		assert.NoError(t, client.Close())
	})

	t.Run("unreachable", func(t *testing.T) {
		_, err := persistence.NewRedisClient(context.Background(), config.RedisConfig{
			Host:        "127.0.0.1",
			Port:        "1",
			MaxRetries:  -1,
			DialTimeout: 200 * time.Millisecond,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to connect to Redis")
	})
}

func TestDatabaseConfig(t *testing.T) {
	cfg := helpers.LoadTestConfig()
	dbc := persistence.DatabaseConfig(cfg)

	assert.Equal(t, cfg.Database.Name, dbc.Database)
	assert.Equal(t, cfg.Database.Port, dbc.Port)
	assert.Equal(t, cfg.Database.MaxConnections, dbc.MaxConnections)
}

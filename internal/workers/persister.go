// internal/workers/persister.go
package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

// AsyncPersister implements ports.Persistence by queueing saves for cmd/worker.
// Loads go straight to the underlying store. When a task cannot be queued the
// save is written inline instead.
type AsyncPersister struct {
	store    ports.Persistence
	enqueuer TaskEnqueuer
	logger   *slog.Logger
}

// Statically assert that *AsyncPersister implements the Persistence interface.
var _ ports.Persistence = (*AsyncPersister)(nil)

// NewAsyncPersister creates a write-behind persister over store
func NewAsyncPersister(store ports.Persistence, enqueuer TaskEnqueuer, logger *slog.Logger) *AsyncPersister {
	return &AsyncPersister{
		store:    store,
		enqueuer: enqueuer,
		logger:   logger.With(slog.String("component", "write_behind")),
	}
}

func (p *AsyncPersister) enqueue(ctx context.Context, typ string, payload interface{}, inline func() error) error {
	task, err := newTask(typ, payload, asynq.Queue(QueuePersist), asynq.MaxRetry(10), asynq.Timeout(time.Minute))
	if err == nil {
		_, err = p.enqueuer.EnqueueContext(ctx, task)
	}
	if err == nil {
		return nil
	}

	p.logger.WarnContext(ctx, "failed to queue save, writing inline",
		slog.String("task_type", typ),
		slog.String("error", err.Error()))
	return inline()
}

// snapshotTime is when the saved collection was read, or now when the caller did not say
func snapshotTime(ctx context.Context) time.Time {
	if at, ok := ports.SnapshotTime(ctx); ok {
		return at
	}
	return time.Now().UTC()
}

// LoadLocations implements ports.LocationStore
func (p *AsyncPersister) LoadLocations(ctx context.Context) ([]domain.StorageLocation, error) {
	return p.store.LoadLocations(ctx)
}

// SaveLocations implements ports.LocationStore
func (p *AsyncPersister) SaveLocations(ctx context.Context, locations []domain.StorageLocation) error {
	payload := PersistLocationsPayload{Locations: locations, SavedAt: snapshotTime(ctx)}
	return p.enqueue(ctx, TypePersistLocations, payload, func() error {
		return p.store.SaveLocations(ctx, locations)
	})
}

// LoadPreferences implements ports.PreferenceStore
func (p *AsyncPersister) LoadPreferences(ctx context.Context) (map[string]domain.LocationPreference, error) {
	return p.store.LoadPreferences(ctx)
}

// SavePreferences implements ports.PreferenceStore
func (p *AsyncPersister) SavePreferences(ctx context.Context, prefs map[string]domain.LocationPreference) error {
	payload := PersistPreferencesPayload{Preferences: prefs, SavedAt: snapshotTime(ctx)}
	return p.enqueue(ctx, TypePersistPreferences, payload, func() error {
		return p.store.SavePreferences(ctx, prefs)
	})
}

// LoadItems implements ports.ItemRepository
func (p *AsyncPersister) LoadItems(ctx context.Context) ([]*domain.InventoryItem, error) {
	return p.store.LoadItems(ctx)
}

// SaveItems implements ports.ItemRepository
func (p *AsyncPersister) SaveItems(ctx context.Context, items []*domain.InventoryItem) error {
	if len(items) == 0 {
		return nil
	}
	return p.enqueue(ctx, TypePersistItems, PersistItemsPayload{Items: items}, func() error {
		return p.store.SaveItems(ctx, items)
	})
}

// internal/core/ports/persistence.go
package ports

import (
	"context"
	"time"

	"github.com/ammerola/stockledger/internal/core/domain"
)

// PreferenceStore loads and saves learned location preferences, keyed by supplier code
type PreferenceStore interface {
	LoadPreferences(ctx context.Context) (map[string]domain.LocationPreference, error)
	SavePreferences(ctx context.Context, prefs map[string]domain.LocationPreference) error
}

// LocationStore loads and saves the storage location registry.
// SaveLocations replaces the stored set.
type LocationStore interface {
	LoadLocations(ctx context.Context) ([]domain.StorageLocation, error)
	SaveLocations(ctx context.Context, locations []domain.StorageLocation) error
}

// ItemRepository loads item snapshots and upserts changed items
type ItemRepository interface {
	LoadItems(ctx context.Context) ([]*domain.InventoryItem, error)
	SaveItems(ctx context.Context, items []*domain.InventoryItem) error
}

// Persistence is implemented by every storage adapter
type Persistence interface {
	PreferenceStore
	LocationStore
	ItemRepository
}

type snapshotTimeKey struct{}

// WithSnapshotTime records on ctx when the snapshot passed to a Save call was taken.
// Stores that apply saves out of order use it to drop older snapshots.
func WithSnapshotTime(ctx context.Context, at time.Time) context.Context {
	return context.WithValue(ctx, snapshotTimeKey{}, at)
}

// SnapshotTime returns the time set by WithSnapshotTime
func SnapshotTime(ctx context.Context) (time.Time, bool) {
	at, ok := ctx.Value(snapshotTimeKey{}).(time.Time)
	return at, ok
}

// internal/adapters/storage/snapshot.go
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

const snapshotVersion = 1

type snapshotDoc[T any] struct {
	Version int       `json:"version"`
	SavedAt time.Time `json:"saved_at"`
	Data    T         `json:"data"`
}

// SnapshotStore persists engine state as three JSON documents in object storage.
// Items are kept in memory after the first load so SaveItems can merge without
// re-downloading the document.
type SnapshotStore struct {
	client StorageClient
	prefix string
	logger *slog.Logger

	mu     sync.Mutex
	items  map[uuid.UUID]*domain.InventoryItem
	loaded bool
}

// Statically assert that *SnapshotStore implements the Persistence interface.
var _ ports.Persistence = (*SnapshotStore)(nil)

// NewSnapshotStore creates a snapshot persistence provider writing under prefix
func NewSnapshotStore(client StorageClient, prefix string, logger *slog.Logger) *SnapshotStore {
	return &SnapshotStore{
		client: client,
		prefix: prefix,
		logger: logger.With(slog.String("adapter", "snapshot")),
		items:  make(map[uuid.UUID]*domain.InventoryItem),
	}
}

func (s *SnapshotStore) key(name string) string {
	return path.Join(s.prefix, name+".json")
}

// LoadLocations implements ports.LocationStore
func (s *SnapshotStore) LoadLocations(ctx context.Context) ([]domain.StorageLocation, error) {
	var locations []domain.StorageLocation
	if _, err := readDoc(ctx, s.client, s.key("locations"), &locations); err != nil {
		return nil, err
	}
	return locations, nil
}

// SaveLocations implements ports.LocationStore
func (s *SnapshotStore) SaveLocations(ctx context.Context, locations []domain.StorageLocation) error {
	return writeDoc(ctx, s.client, s.key("locations"), locations)
}

// LoadPreferences implements ports.PreferenceStore
func (s *SnapshotStore) LoadPreferences(ctx context.Context) (map[string]domain.LocationPreference, error) {
	prefs := map[string]domain.LocationPreference{}
	if _, err := readDoc(ctx, s.client, s.key("preferences"), &prefs); err != nil {
		return nil, err
	}
	return prefs, nil
}

// SavePreferences implements ports.PreferenceStore. The model always hands over
// the full preference set, so the document is replaced.
func (s *SnapshotStore) SavePreferences(ctx context.Context, prefs map[string]domain.LocationPreference) error {
	return writeDoc(ctx, s.client, s.key("preferences"), prefs)
}

// LoadItems implements ports.ItemRepository
func (s *SnapshotStore) LoadItems(ctx context.Context) ([]*domain.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadItemsLocked(ctx); err != nil {
		return nil, err
	}
	return s.sortedItemsLocked(), nil
}

// SaveItems implements ports.ItemRepository by merging into the items document
func (s *SnapshotStore) SaveItems(ctx context.Context, items []*domain.InventoryItem) error {
	if len(items) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadItemsLocked(ctx); err != nil {
		return err
	}
	for _, item := range items {
		s.items[item.ID] = item.Clone()
	}
	return writeDoc(ctx, s.client, s.key("items"), s.sortedItemsLocked())
}

func (s *SnapshotStore) loadItemsLocked(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	var items []*domain.InventoryItem
	found, err := readDoc(ctx, s.client, s.key("items"), &items)
	if err != nil {
		return err
	}
	for _, item := range items {
		item.Recompute()
		s.items[item.ID] = item
	}
	s.loaded = true
	s.logger.DebugContext(ctx, "items snapshot loaded",
		slog.Bool("found", found),
		slog.Int("count", len(items)))
	return nil
}

func (s *SnapshotStore) sortedItemsLocked() []*domain.InventoryItem {
	out := make([]*domain.InventoryItem, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func readDoc[T any](ctx context.Context, client StorageClient, key string, dest *T) (bool, error) {
	raw, err := client.Download(ctx, key)
	if errors.Is(err, ErrObjectNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	doc := snapshotDoc[T]{Data: *dest}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	if doc.Version != snapshotVersion {
		return false, fmt.Errorf("%s: unsupported snapshot version %d", key, doc.Version)
	}
	*dest = doc.Data
	return true, nil
}

func writeDoc[T any](ctx context.Context, client StorageClient, key string, data T) error {
	raw, err := json.Marshal(snapshotDoc[T]{Version: snapshotVersion, SavedAt: time.Now().UTC(), Data: data})
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if _, err := client.Upload(ctx, key, bytes.NewReader(raw), "application/json"); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

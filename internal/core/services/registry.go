// internal/core/services/registry.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

type locationEntry struct {
	mu  sync.Mutex
	loc domain.StorageLocation
}

// LocationRegistry holds the named storage locations.
// The map lock only guards membership; each location has its own lock for usage updates.
// Add, Update and SeedDefaults save on their own. AdjustUsage, Rename and Remove
// leave saving to the caller, which calls Persist once its locks are released.
type LocationRegistry struct {
	mu      sync.RWMutex
	entries map[string]*locationEntry
	store   ports.LocationStore
	clock   snapshotClock
	logger  *slog.Logger
}

// NewLocationRegistry creates an empty registry. store may be nil.
func NewLocationRegistry(store ports.LocationStore, logger *slog.Logger) *LocationRegistry {
	return &LocationRegistry{
		entries: make(map[string]*locationEntry),
		store:   store,
		logger:  logger.With(slog.String("service", "locations")),
	}
}

// Load replaces the registry contents with the persisted locations
func (r *LocationRegistry) Load(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	locs, err := r.store.LoadLocations(ctx)
	if err != nil {
		return fmt.Errorf("failed to load locations: %w", err)
	}

	r.mu.Lock()
	r.entries = make(map[string]*locationEntry, len(locs))
	for _, loc := range locs {
		if err := loc.Validate(); err != nil {
			r.logger.WarnContext(ctx, "skipping invalid stored location",
				slog.String("location", loc.Name), slog.String("error", err.Error()))
			continue
		}
		r.entries[loc.Name] = &locationEntry{loc: loc}
	}
	n := len(r.entries)
	r.mu.Unlock()

	r.logger.InfoContext(ctx, "loaded locations", slog.Int("count", n))
	return nil
}

// SeedDefaults registers the default locations when the registry is empty
func (r *LocationRegistry) SeedDefaults(ctx context.Context) bool {
	r.mu.Lock()
	if len(r.entries) > 0 {
		r.mu.Unlock()
		return false
	}
	for _, loc := range domain.DefaultLocations() {
		r.entries[loc.Name] = &locationEntry{loc: loc}
	}
	r.mu.Unlock()

	r.logger.InfoContext(ctx, "seeded default locations")
	r.Persist(ctx)
	return true
}

// Exists reports whether a location is registered
func (r *LocationRegistry) Exists(name string) bool {
	r.mu.RLock()
	_, ok := r.entries[name]
	r.mu.RUnlock()
	return ok
}

// Get returns a copy of a location
func (r *LocationRegistry) Get(name string) (domain.StorageLocation, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return domain.StorageLocation{}, &domain.StockError{Op: "get_location", Location: name, Err: domain.ErrUnknownLocation}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loc, nil
}

// List returns all locations sorted by name
func (r *LocationRegistry) List() []domain.StorageLocation {
	r.mu.RLock()
	entries := make([]*locationEntry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	out := make([]domain.StorageLocation, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, e.loc)
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Add registers a new location
func (r *LocationRegistry) Add(ctx context.Context, loc domain.StorageLocation) error {
	if err := loc.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	if _, ok := r.entries[loc.Name]; ok {
		r.mu.Unlock()
		return &domain.StockError{Op: "add_location", Location: loc.Name, Err: domain.ErrLocationExists}
	}
	r.entries[loc.Name] = &locationEntry{loc: loc}
	r.mu.Unlock()

	r.logger.InfoContext(ctx, "added location",
		slog.String("location", loc.Name),
		slog.String("type", string(loc.Type)),
		slog.Int("capacity", loc.Capacity))
	r.Persist(ctx)
	return nil
}

// Update applies fn to a location under its lock
func (r *LocationRegistry) Update(ctx context.Context, name string, fn func(*domain.StorageLocation) error) (domain.StorageLocation, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return domain.StorageLocation{}, &domain.StockError{Op: "update_location", Location: name, Err: domain.ErrUnknownLocation}
	}

	e.mu.Lock()
	candidate := e.loc
	if err := fn(&candidate); err != nil {
		e.mu.Unlock()
		return domain.StorageLocation{}, err
	}
	candidate.Name = name
	if err := candidate.Validate(); err != nil {
		e.mu.Unlock()
		return domain.StorageLocation{}, err
	}
	e.loc = candidate
	e.mu.Unlock()

	r.Persist(ctx)
	return candidate, nil
}

// AdjustUsage changes the advisory usage counter, clamped at zero.
// It reports whether a counter was touched.
func (r *LocationRegistry) AdjustUsage(ctx context.Context, name string, delta int) bool {
	if delta == 0 {
		return false
	}
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		r.logger.WarnContext(ctx, "usage adjustment for unknown location",
			slog.String("location", name), slog.Int("delta", delta))
		return false
	}

	e.mu.Lock()
	e.loc.CurrentUsage = max(0, e.loc.CurrentUsage+delta)
	e.mu.Unlock()
	return true
}

// Rename moves a location to a new name. Callers migrate item ledgers.
func (r *LocationRegistry) Rename(ctx context.Context, from, to string) error {
	r.mu.Lock()
	e, ok := r.entries[from]
	if !ok {
		r.mu.Unlock()
		return &domain.StockError{Op: "rename_location", Location: from, Err: domain.ErrUnknownLocation}
	}
	if _, taken := r.entries[to]; taken {
		r.mu.Unlock()
		return &domain.StockError{Op: "rename_location", Location: to, Err: domain.ErrLocationExists}
	}
	e.mu.Lock()
	e.loc.Name = to
	e.mu.Unlock()
	delete(r.entries, from)
	r.entries[to] = e
	r.mu.Unlock()
	return nil
}

// Remove deletes a location. Callers check that no item holds stock there.
func (r *LocationRegistry) Remove(ctx context.Context, name string) error {
	r.mu.Lock()
	if _, ok := r.entries[name]; !ok {
		r.mu.Unlock()
		return &domain.StockError{Op: "delete_location", Location: name, Err: domain.ErrUnknownLocation}
	}
	delete(r.entries, name)
	r.mu.Unlock()
	return nil
}

// Persist saves a snapshot tagged with the time it was taken.
// Failures are logged and never undo the in-memory change.
func (r *LocationRegistry) Persist(ctx context.Context) {
	if r.store == nil {
		return
	}
	var locs []domain.StorageLocation
	at := r.clock.stamp(func() { locs = r.List() })
	if err := r.store.SaveLocations(ports.WithSnapshotTime(ctx, at), locs); err != nil {
		r.logger.ErrorContext(ctx, "failed to save locations", slog.String("error", err.Error()))
	}
}

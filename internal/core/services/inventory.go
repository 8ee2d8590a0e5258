// internal/core/services/inventory.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

var errUnchanged = errors.New("unchanged")

// InventoryService owns the item store and coordinates ledger mutations with the
// location registry and the preference model.
//
// Lock order: structure, then a single item, then a single location or preference code.
// Item operations share structure; location renames and deletes take it exclusively
// so they never interleave with a ledger mutation. Nothing is persisted while
// structure is held: operations commit in memory, release it, then save.
type InventoryService struct {
	structure       sync.RWMutex
	items           *ItemStore
	locations       *LocationRegistry
	prefs           *PreferenceModel
	repo            ports.ItemRepository
	generalLocation string
	logger          *slog.Logger
}

// Statically assert that *InventoryService implements the InventoryService interface.
var _ ports.InventoryService = (*InventoryService)(nil)

// Option configures an InventoryService
type Option func(*InventoryService)

// WithGeneralLocation sets the location used when nothing else applies
func WithGeneralLocation(name string) Option {
	return func(s *InventoryService) {
		if name != "" {
			s.generalLocation = name
		}
	}
}

// NewInventoryService creates a new inventory service. repo may be nil.
func NewInventoryService(locations *LocationRegistry, prefs *PreferenceModel, repo ports.ItemRepository, logger *slog.Logger, opts ...Option) *InventoryService {
	s := &InventoryService{
		locations:       locations,
		prefs:           prefs,
		repo:            repo,
		generalLocation: domain.GeneralLocation,
		logger:          logger.With(slog.String("service", "inventory")),
	}
	s.items = NewItemStore(s.verify)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *InventoryService) verify(item *domain.InventoryItem) error {
	return item.CheckInvariants(s.locations.Exists)
}

// Bootstrap loads locations, preferences and items from persistence
func (s *InventoryService) Bootstrap(ctx context.Context, seedDefaults bool) error {
	if err := s.locations.Load(ctx); err != nil {
		return err
	}
	if seedDefaults {
		s.locations.SeedDefaults(ctx)
	}
	if err := s.prefs.Load(ctx); err != nil {
		return err
	}
	if s.repo == nil {
		return nil
	}

	items, err := s.repo.LoadItems(ctx)
	if err != nil {
		return fmt.Errorf("failed to load items: %w", err)
	}
	s.structure.Lock()
	rejected := s.items.Replace(items)
	s.structure.Unlock()
	for _, err := range rejected {
		s.logger.ErrorContext(ctx, "rejected stored item", slog.String("error", err.Error()))
	}
	s.logger.InfoContext(ctx, "loaded inventory items",
		slog.Int("count", len(items)-len(rejected)),
		slog.Int("rejected", len(rejected)))
	return nil
}

// Flush writes the complete engine state to dst. It is used for periodic
// snapshots and on shutdown when saves normally go through a queue.
func (s *InventoryService) Flush(ctx context.Context, dst ports.Persistence) error {
	s.structure.RLock()
	locations := s.locations.List()
	prefs := s.prefs.Snapshot()
	items := s.items.List(ports.ItemFilter{})
	s.structure.RUnlock()

	if err := dst.SaveLocations(ctx, locations); err != nil {
		return fmt.Errorf("failed to flush locations: %w", err)
	}
	if err := dst.SavePreferences(ctx, prefs); err != nil {
		return fmt.Errorf("failed to flush preferences: %w", err)
	}
	if err := dst.SaveItems(ctx, items); err != nil {
		return fmt.Errorf("failed to flush items: %w", err)
	}
	s.logger.InfoContext(ctx, "flushed engine state",
		slog.Int("locations", len(locations)),
		slog.Int("preferences", len(prefs)),
		slog.Int("items", len(items)))
	return nil
}

// CreateItem adds an item with no stock
func (s *InventoryService) CreateItem(ctx context.Context, item *domain.InventoryItem) (*domain.InventoryItem, error) {
	if err := item.Validate(); err != nil {
		return nil, err
	}

	var created *domain.InventoryItem
	err := s.shared(func() error {
		var err error
		created, err = s.insertItem(item)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "created item",
		slog.String("item_id", created.ID.String()),
		slog.String("code", created.SupplierCode),
		slog.String("name", created.DisplayName(domain.DefaultLocale)))
	s.save(ctx, created)
	return created, nil
}

func (s *InventoryService) insertItem(item *domain.InventoryItem) (*domain.InventoryItem, error) {
	candidate := item.Clone()
	if candidate.ID == uuid.Nil {
		candidate.ID = uuid.New()
	}
	if candidate.Names == nil {
		candidate.Names = map[string]string{}
	}
	candidate.Category = domain.NormalizeCategory(string(candidate.Category))
	candidate.SupplierCode = strings.TrimSpace(candidate.SupplierCode)
	candidate.ConsolidationKey = domain.ConsolidationKey(candidate.DisplayName(domain.DefaultLocale), candidate.SupplierCode)
	candidate.Ledger = domain.Ledger{}
	candidate.Count = nil
	if candidate.PrimaryLocation == "" {
		candidate.PrimaryLocation = s.placement(domain.DefaultLocationFor(candidate.Category))
	} else if !s.locations.Exists(candidate.PrimaryLocation) {
		return nil, &domain.StockError{Op: "create_item", ItemID: candidate.ID, Location: candidate.PrimaryLocation, Err: domain.ErrUnknownLocation}
	}
	now := time.Now().UTC()
	candidate.CreatedAt, candidate.UpdatedAt = now, now
	return s.items.Insert(candidate)
}

// GetItem returns a copy of an item
func (s *InventoryService) GetItem(ctx context.Context, id uuid.UUID) (*domain.InventoryItem, error) {
	s.structure.RLock()
	defer s.structure.RUnlock()
	return s.items.Get(id)
}

// ListItems returns copies of the items matching filter
func (s *InventoryService) ListItems(ctx context.Context, filter ports.ItemFilter) []*domain.InventoryItem {
	s.structure.RLock()
	defer s.structure.RUnlock()
	return s.items.List(filter)
}

// Allocate sets absolute quantities for the given locations
func (s *InventoryService) Allocate(ctx context.Context, id uuid.UUID, allocs []domain.Allocation) (*domain.InventoryItem, error) {
	var (
		item  *domain.InventoryItem
		usage bool
	)
	err := s.shared(func() error {
		for _, a := range allocs {
			if !s.locations.Exists(a.Location) {
				return domain.NewStockError("allocate", id, a.Location, nil, domain.ErrUnknownLocation)
			}
		}

		var before domain.Ledger
		var err error
		item, err = s.items.Update(id, func(it *domain.InventoryItem) error {
			before = it.Ledger.Clone()
			for _, a := range allocs {
				it.Ledger.Set(a.Location, max(0, a.Quantity))
			}
			it.Recompute()
			return nil
		})
		if err != nil {
			return wrapOp("allocate", id, err)
		}
		usage = s.applyUsage(ctx, before, item.Ledger)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "allocated item",
		slog.String("item_id", id.String()),
		slog.Int("entries", len(allocs)),
		slog.Int("total_quantity", item.TotalQuantity))
	s.commit(ctx, usage, item)
	return item, nil
}

// Transfer moves qty units of an item between two locations
func (s *InventoryService) Transfer(ctx context.Context, id uuid.UUID, from, to string, qty int) (*domain.InventoryItem, error) {
	if qty <= 0 {
		return nil, domain.NewStockError("transfer", id, from, domain.Qty(qty), domain.ErrInvalidQuantity)
	}
	if from == to {
		return nil, domain.NewStockError("transfer", id, from, domain.Qty(qty), domain.ErrIdenticalLocations)
	}

	var item *domain.InventoryItem
	err := s.shared(func() error {
		for _, loc := range []string{from, to} {
			if !s.locations.Exists(loc) {
				return domain.NewStockError("transfer", id, loc, domain.Qty(qty), domain.ErrUnknownLocation)
			}
		}

		var err error
		item, err = s.items.Update(id, func(it *domain.InventoryItem) error {
			if have := it.Ledger.Get(from); have < qty {
				return domain.NewStockError("transfer", id, from, domain.Qty(qty),
					fmt.Errorf("%w: %d available", domain.ErrInsufficientStock, have))
			}
			it.Ledger.Add(from, -qty)
			it.Ledger.Add(to, qty)
			it.Recompute()
			return nil
		})
		if err != nil {
			return wrapOp("transfer", id, err)
		}
		s.locations.AdjustUsage(ctx, from, -qty)
		s.locations.AdjustUsage(ctx, to, qty)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "transferred stock",
		slog.String("item_id", id.String()),
		slog.String("from", from),
		slog.String("to", to),
		slog.Int("quantity", qty))
	s.commit(ctx, true, item)
	return item, nil
}

// AdjustTotalQuantity rescales the ledger so it sums to newQuantity
func (s *InventoryService) AdjustTotalQuantity(ctx context.Context, id uuid.UUID, newQuantity int) (*domain.InventoryItem, error) {
	if newQuantity < 0 {
		return nil, domain.NewStockError("adjust", id, "", domain.Qty(newQuantity), domain.ErrInvalidQuantity)
	}

	var (
		item   *domain.InventoryItem
		before domain.Ledger
		usage  bool
	)
	err := s.shared(func() error {
		var err error
		item, err = s.items.Update(id, func(it *domain.InventoryItem) error {
			before = it.Ledger.Clone()
			return s.adjustLedger(it, newQuantity)
		})
		if err != nil {
			return wrapOp("adjust", id, err)
		}
		usage = s.applyUsage(ctx, before, item.Ledger)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "adjusted item quantity",
		slog.String("item_id", id.String()),
		slog.Int("old_quantity", before.Total()),
		slog.Int("new_quantity", item.TotalQuantity))
	s.commit(ctx, usage, item)
	return item, nil
}

// adjustLedger redistributes an existing ledger proportionally, or places the
// whole quantity at the item's placement location when the ledger is empty.
func (s *InventoryService) adjustLedger(it *domain.InventoryItem, newQuantity int) error {
	if it.Ledger.Total() > 0 {
		ledger, err := it.Ledger.Redistribute(newQuantity)
		if err != nil {
			return err
		}
		it.Ledger = ledger
		it.Recompute()
		return nil
	}
	if newQuantity == 0 {
		it.Recompute()
		return nil
	}

	loc := s.placement(it.PrimaryLocation)
	if loc == "" {
		return domain.NewStockError("adjust", it.ID, s.generalLocation, domain.Qty(newQuantity), domain.ErrUnknownLocation)
	}
	it.Ledger.Set(loc, newQuantity)
	it.Recompute()
	return nil
}

// placement returns preferred if registered, else the general location, else ""
func (s *InventoryService) placement(preferred string) string {
	if preferred != "" && s.locations.Exists(preferred) {
		return preferred
	}
	if s.locations.Exists(s.generalLocation) {
		return s.generalLocation
	}
	return ""
}

// RecordCount stores a physical count without touching the ledger
func (s *InventoryService) RecordCount(ctx context.Context, id uuid.UUID, physicalCount int, countedBy, note string) (domain.CountRecord, error) {
	if physicalCount < 0 {
		return domain.CountRecord{}, domain.NewStockError("record_count", id, "", domain.Qty(physicalCount), domain.ErrInvalidQuantity)
	}

	var (
		rec  domain.CountRecord
		item *domain.InventoryItem
	)
	err := s.shared(func() error {
		var err error
		item, err = s.items.Update(id, func(it *domain.InventoryItem) error {
			rec = domain.NewCountRecord(physicalCount, it.TotalQuantity, strings.TrimSpace(countedBy), note, time.Now().UTC())
			it.Count = &rec
			return nil
		})
		if err != nil {
			return wrapOp("record_count", id, err)
		}
		return nil
	})
	if err != nil {
		return domain.CountRecord{}, err
	}

	s.logger.InfoContext(ctx, "recorded count",
		slog.String("item_id", id.String()),
		slog.Int("physical_count", rec.PhysicalCount),
		slog.Int("recorded_quantity", rec.RecordedQuantity),
		slog.String("status", string(rec.Status)))
	s.save(ctx, item)
	return rec, nil
}

// ReconcileCount commits the stored physical count to the ledger
func (s *InventoryService) ReconcileCount(ctx context.Context, id uuid.UUID) (*domain.InventoryItem, error) {
	var (
		item   *domain.InventoryItem
		before domain.Ledger
		usage  bool
	)
	err := s.shared(func() error {
		var err error
		item, err = s.items.Update(id, func(it *domain.InventoryItem) error {
			if it.Count == nil {
				return domain.NewStockError("reconcile_count", id, "", nil, domain.ErrNoCountRecorded)
			}
			before = it.Ledger.Clone()
			if err := s.adjustLedger(it, it.Count.PhysicalCount); err != nil {
				return err
			}
			it.Count.Evaluate(it.TotalQuantity)
			return nil
		})
		if err != nil {
			return wrapOp("reconcile_count", id, err)
		}
		usage = s.applyUsage(ctx, before, item.Ledger)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "reconciled count",
		slog.String("item_id", id.String()),
		slog.Int("old_quantity", before.Total()),
		slog.Int("new_quantity", item.TotalQuantity))
	s.commit(ctx, usage, item)
	return item, nil
}

// Suggest proposes a placement for quantity units of a supplier code
func (s *InventoryService) Suggest(ctx context.Context, code string, quantity int, category domain.Category) ([]domain.Allocation, error) {
	return s.prefs.Suggest(ctx, code, quantity, category)
}

// Preference returns the learned preference of a supplier code
func (s *InventoryService) Preference(ctx context.Context, code string) (domain.LocationPreference, bool) {
	return s.prefs.Preference(code)
}

// ListLocations returns every registered location
func (s *InventoryService) ListLocations(ctx context.Context) []domain.StorageLocation {
	return s.locations.List()
}

// AddLocation registers a location
func (s *InventoryService) AddLocation(ctx context.Context, loc domain.StorageLocation) error {
	return s.locations.Add(ctx, loc)
}

// UpdateLocation changes the attributes of a location
func (s *InventoryService) UpdateLocation(ctx context.Context, name string, update ports.LocationUpdate) (domain.StorageLocation, error) {
	return s.locations.Update(ctx, name, func(loc *domain.StorageLocation) error {
		if update.Type != nil {
			loc.Type = *update.Type
		}
		if update.Capacity != nil {
			loc.Capacity = *update.Capacity
		}
		if update.Temperature != nil {
			loc.Temperature = *update.Temperature
		}
		return nil
	})
}

// RenameLocation renames a location and migrates every item that references it
func (s *InventoryService) RenameLocation(ctx context.Context, from, to string) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return fmt.Errorf("%w: new location name is required", domain.ErrInvalidInput)
	}
	if from == to {
		return &domain.StockError{Op: "rename_location", Location: from, Err: domain.ErrIdenticalLocations}
	}

	var (
		migrated     []*domain.InventoryItem
		prefsChanged bool
	)
	err := s.exclusive(func() error {
		if err := s.locations.Rename(ctx, from, to); err != nil {
			return err
		}
		for _, id := range s.items.IDs() {
			item, err := s.items.Update(id, func(it *domain.InventoryItem) error {
				changed := it.Ledger.Rename(from, to)
				if it.PrimaryLocation == from {
					it.PrimaryLocation = to
					changed = true
				}
				if !changed {
					return errUnchanged
				}
				it.Recompute()
				return nil
			})
			if errors.Is(err, errUnchanged) {
				continue
			}
			if err != nil {
				return fmt.Errorf("failed to migrate item %s to %q: %w", id, to, err)
			}
			migrated = append(migrated, item)
		}
		prefsChanged = s.prefs.RenameLocation(ctx, from, to)
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "renamed location",
		slog.String("from", from),
		slog.String("to", to),
		slog.Int("items_migrated", len(migrated)))
	s.commit(ctx, true, migrated...)
	if prefsChanged {
		s.prefs.Persist(ctx)
	}
	return nil
}

// DeleteLocation removes a location that holds no stock
func (s *InventoryService) DeleteLocation(ctx context.Context, name string) error {
	var cleared []*domain.InventoryItem
	err := s.exclusive(func() error {
		if !s.locations.Exists(name) {
			return &domain.StockError{Op: "delete_location", Location: name, Err: domain.ErrUnknownLocation}
		}
		if holders := s.items.List(ports.ItemFilter{Location: name}); len(holders) > 0 {
			return domain.NewStockError("delete_location", holders[0].ID, name, domain.Qty(holders[0].Ledger.Get(name)),
				fmt.Errorf("%w: %d items", domain.ErrLocationInUse, len(holders)))
		}

		for _, id := range s.items.IDs() {
			item, err := s.items.Update(id, func(it *domain.InventoryItem) error {
				if it.PrimaryLocation != name {
					return errUnchanged
				}
				it.PrimaryLocation = ""
				return nil
			})
			if err == nil {
				cleared = append(cleared, item)
			}
		}
		return s.locations.Remove(ctx, name)
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "deleted location", slog.String("location", name))
	s.commit(ctx, true, cleared...)
	return nil
}

// applyUsage moves usage counters by the ledger difference and reports whether any changed
func (s *InventoryService) applyUsage(ctx context.Context, before, after domain.Ledger) bool {
	changed := false
	seen := make(map[string]struct{}, len(before)+len(after))
	for _, l := range []domain.Ledger{before, after} {
		for _, e := range l {
			if _, ok := seen[e.Location]; ok {
				continue
			}
			seen[e.Location] = struct{}{}
			if s.locations.AdjustUsage(ctx, e.Location, after.Get(e.Location)-before.Get(e.Location)) {
				changed = true
			}
		}
	}
	return changed
}

func (s *InventoryService) shared(fn func() error) error {
	s.structure.RLock()
	defer s.structure.RUnlock()
	return fn()
}

func (s *InventoryService) exclusive(fn func() error) error {
	s.structure.Lock()
	defer s.structure.Unlock()
	return fn()
}

// commit persists the outcome of an operation. Callers must not hold structure.
func (s *InventoryService) commit(ctx context.Context, usage bool, items ...*domain.InventoryItem) {
	if usage {
		s.locations.Persist(ctx)
	}
	s.save(ctx, items...)
}

// save hands committed items to the repository. Failures are logged only.
func (s *InventoryService) save(ctx context.Context, items ...*domain.InventoryItem) {
	if s.repo == nil || len(items) == 0 {
		return
	}
	if err := s.repo.SaveItems(ctx, items); err != nil {
		s.logger.ErrorContext(ctx, "failed to save items",
			slog.Int("count", len(items)),
			slog.String("error", err.Error()))
	}
}

// wrapOp attaches the operation and item to errors that do not carry them yet
func wrapOp(op string, id uuid.UUID, err error) error {
	var se *domain.StockError
	if errors.As(err, &se) {
		return err
	}
	return domain.NewStockError(op, id, "", nil, err)
}

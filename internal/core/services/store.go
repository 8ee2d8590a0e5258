// internal/core/services/store.go
package services

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

type itemHandle struct {
	mu   sync.Mutex
	item *domain.InventoryItem
}

// ItemStore holds inventory items with one lock per item.
// Mutations work on a copy that is checked before it replaces the committed item,
// so readers only ever see a committed state.
type ItemStore struct {
	mu     sync.RWMutex
	items  map[uuid.UUID]*itemHandle
	byKey  map[string]uuid.UUID
	verify func(*domain.InventoryItem) error
}

// NewItemStore creates an empty store. verify runs before every commit.
func NewItemStore(verify func(*domain.InventoryItem) error) *ItemStore {
	return &ItemStore{
		items:  make(map[uuid.UUID]*itemHandle),
		byKey:  make(map[string]uuid.UUID),
		verify: verify,
	}
}

func (s *ItemStore) handle(id uuid.UUID) (*itemHandle, bool) {
	s.mu.RLock()
	h, ok := s.items[id]
	s.mu.RUnlock()
	return h, ok
}

// Len returns the number of items
func (s *ItemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Get returns a copy of an item
func (s *ItemStore) Get(id uuid.UUID) (*domain.InventoryItem, error) {
	h, ok := s.handle(id)
	if !ok {
		return nil, &domain.StockError{Op: "get_item", ItemID: id, Err: domain.ErrItemNotFound}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.item.Clone(), nil
}

// LookupKey returns the id of the item with a consolidation key
func (s *ItemStore) LookupKey(key string) (uuid.UUID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byKey[key]
	return id, ok
}

// FindBySupplierCode returns the ids of items carrying a supplier code
func (s *ItemStore) FindBySupplierCode(code string) []uuid.UUID {
	var out []uuid.UUID
	for _, item := range s.List(ports.ItemFilter{SupplierCode: code}) {
		out = append(out, item.ID)
	}
	return out
}

// Insert adds a new item after checking it
func (s *ItemStore) Insert(item *domain.InventoryItem) (*domain.InventoryItem, error) {
	candidate := item.Clone()
	candidate.Recompute()
	if s.verify != nil {
		if err := s.verify(candidate); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[candidate.ID]; ok {
		return nil, &domain.StockError{Op: "insert_item", ItemID: candidate.ID, Err: domain.ErrItemExists}
	}
	if _, ok := s.byKey[candidate.ConsolidationKey]; ok {
		return nil, &domain.StockError{Op: "insert_item", ItemID: candidate.ID, Err: domain.ErrItemExists}
	}
	s.items[candidate.ID] = &itemHandle{item: candidate}
	s.byKey[candidate.ConsolidationKey] = candidate.ID
	return candidate.Clone(), nil
}

// GetOrCreate returns the id of the item with key, creating it with build if absent
func (s *ItemStore) GetOrCreate(key string, build func() *domain.InventoryItem) (uuid.UUID, bool, error) {
	if id, ok := s.LookupKey(key); ok {
		return id, false, nil
	}

	candidate := build()
	candidate.ConsolidationKey = key
	candidate.Recompute()
	if s.verify != nil {
		if err := s.verify(candidate); err != nil {
			return uuid.Nil, false, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byKey[key]; ok {
		return id, false, nil
	}
	s.items[candidate.ID] = &itemHandle{item: candidate}
	s.byKey[key] = candidate.ID
	return candidate.ID, true, nil
}

// Update runs mutate on a copy of the item under its lock and commits the copy
// only when mutate and the store check succeed.
func (s *ItemStore) Update(id uuid.UUID, mutate func(*domain.InventoryItem) error) (*domain.InventoryItem, error) {
	h, ok := s.handle(id)
	if !ok {
		return nil, &domain.StockError{Op: "update_item", ItemID: id, Err: domain.ErrItemNotFound}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	candidate := h.item.Clone()
	if err := mutate(candidate); err != nil {
		return nil, err
	}
	candidate.ID = h.item.ID
	candidate.ConsolidationKey = h.item.ConsolidationKey
	candidate.Touch()
	if s.verify != nil {
		if err := s.verify(candidate); err != nil {
			return nil, err
		}
	}
	h.item = candidate
	return candidate.Clone(), nil
}

// List returns copies of the items matching filter, ordered by display name
func (s *ItemStore) List(filter ports.ItemFilter) []*domain.InventoryItem {
	s.mu.RLock()
	handles := make([]*itemHandle, 0, len(s.items))
	for _, h := range s.items {
		handles = append(handles, h)
	}
	s.mu.RUnlock()

	out := make([]*domain.InventoryItem, 0, len(handles))
	for _, h := range handles {
		h.mu.Lock()
		item := h.item
		match := matches(item, filter)
		if match {
			item = item.Clone()
		}
		h.mu.Unlock()
		if match {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ni, nj := out[i].DisplayName(domain.DefaultLocale), out[j].DisplayName(domain.DefaultLocale)
		if ni != nj {
			return ni < nj
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func matches(item *domain.InventoryItem, f ports.ItemFilter) bool {
	if f.Category != "" && item.Category != domain.NormalizeCategory(f.Category) {
		return false
	}
	if f.Location != "" && item.Ledger.Get(f.Location) == 0 {
		return false
	}
	if f.SupplierCode != "" && !strings.EqualFold(item.SupplierCode, strings.TrimSpace(f.SupplierCode)) {
		return false
	}
	if f.LowStock && !item.BelowMinimum() {
		return false
	}
	return true
}

// IDs returns every item id
func (s *ItemStore) IDs() []uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]uuid.UUID, 0, len(s.items))
	for id := range s.items {
		out = append(out, id)
	}
	return out
}

// Replace swaps the store contents for a loaded snapshot. Items failing the
// store check are returned and left out.
func (s *ItemStore) Replace(items []*domain.InventoryItem) []error {
	var errs []error
	handles := make(map[uuid.UUID]*itemHandle, len(items))
	keys := make(map[string]uuid.UUID, len(items))
	for _, item := range items {
		candidate := item.Clone()
		candidate.Recompute()
		if candidate.ConsolidationKey == "" {
			candidate.ConsolidationKey = domain.ConsolidationKey(candidate.DisplayName(domain.DefaultLocale), candidate.SupplierCode)
		}
		if s.verify != nil {
			if err := s.verify(candidate); err != nil {
				errs = append(errs, err)
				continue
			}
		}
		if _, dup := handles[candidate.ID]; dup {
			errs = append(errs, domain.NewStockError("load_item", candidate.ID, "", nil, domain.ErrItemExists))
			continue
		}
		if other, dup := keys[candidate.ConsolidationKey]; dup {
			errs = append(errs, fmt.Errorf("key %q already used by %s: %w",
				candidate.ConsolidationKey, other, domain.NewStockError("load_item", candidate.ID, "", nil, domain.ErrItemExists)))
			continue
		}
		handles[candidate.ID] = &itemHandle{item: candidate}
		keys[candidate.ConsolidationKey] = candidate.ID
	}

	s.mu.Lock()
	s.items = handles
	s.byKey = keys
	s.mu.Unlock()
	return errs
}

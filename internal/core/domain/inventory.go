// internal/core/domain/inventory.go
package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultLocale is used when an item has no display name for the requested locale
const DefaultLocale = "en"

// InventoryItem is the canonical record for a product held in one or more locations.
// TotalQuantity and Locations are derived from Ledger and must be refreshed with Recompute.
type InventoryItem struct {
	ID               uuid.UUID         `json:"id"`
	Names            map[string]string `json:"names"`
	Category         Category          `json:"category"`
	Unit             string            `json:"unit"`
	SupplierID       string            `json:"supplier_id,omitempty"`
	SupplierCode     string            `json:"supplier_code"`
	UnitPrice        decimal.Decimal   `json:"unit_price"`
	TotalCost        decimal.Decimal   `json:"total_cost"`
	MinQuantity      int               `json:"min_quantity"`
	MaxQuantity      int               `json:"max_quantity"`
	TotalQuantity    int               `json:"total_quantity"`
	Ledger           Ledger            `json:"ledger"`
	Locations        []string          `json:"locations"`
	PrimaryLocation  string            `json:"primary_location,omitempty"`
	OrderRefs        []string          `json:"order_refs,omitempty"`
	LastOrderDate    time.Time         `json:"last_order_date,omitempty"`
	Count            *CountRecord      `json:"count,omitempty"`
	ConsolidationKey string            `json:"consolidation_key"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// ConsolidationKey builds the identity used to merge line items into one item.
// Name and code are trimmed and lower-cased and joined with "|" so that
// ("ab", "c") and ("a", "bc") stay distinct.
func ConsolidationKey(name, code string) string {
	return strings.ToLower(strings.TrimSpace(name)) + "|" + strings.ToLower(strings.TrimSpace(code))
}

// NewInventoryItem creates an empty item with a fresh id and no stock
func NewInventoryItem(name, code string, category Category) *InventoryItem {
	now := time.Now().UTC()
	item := &InventoryItem{
		ID:           uuid.New(),
		Names:        map[string]string{},
		Category:     NormalizeCategory(string(category)),
		SupplierCode: strings.TrimSpace(code),
		UnitPrice:    decimal.Zero,
		TotalCost:    decimal.Zero,
		Ledger:       Ledger{},
		Locations:    []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if n := strings.TrimSpace(name); n != "" {
		item.Names[DefaultLocale] = n
	}
	item.ConsolidationKey = ConsolidationKey(name, code)
	return item
}

// Validate checks the descriptive fields of an item before it is created
func (i *InventoryItem) Validate() error {
	if i.DisplayName(DefaultLocale) == "" && strings.TrimSpace(i.SupplierCode) == "" {
		return fmt.Errorf("%w: name or supplier_code is required", ErrInvalidInput)
	}
	if i.MinQuantity < 0 || i.MaxQuantity < 0 {
		return fmt.Errorf("%w: reorder thresholds cannot be negative", ErrInvalidInput)
	}
	if i.MaxQuantity > 0 && i.MinQuantity > i.MaxQuantity {
		return fmt.Errorf("%w: min_quantity exceeds max_quantity", ErrInvalidInput)
	}
	if i.UnitPrice.IsNegative() {
		return fmt.Errorf("%w: unit_price cannot be negative", ErrInvalidInput)
	}
	if i.Category == "" {
		i.Category = CategoryGeneral
	}
	return nil
}

// DisplayName returns the name for a locale, falling back to the default locale
// and then to any name recorded.
func (i *InventoryItem) DisplayName(locale string) string {
	if n, ok := i.Names[locale]; ok && n != "" {
		return n
	}
	if n, ok := i.Names[DefaultLocale]; ok && n != "" {
		return n
	}
	keys := make([]string, 0, len(i.Names))
	for k := range i.Names {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if i.Names[k] != "" {
			return i.Names[k]
		}
	}
	return ""
}

// Recompute refreshes the fields derived from the ledger
func (i *InventoryItem) Recompute() {
	i.Ledger = i.Ledger.Compact()
	i.TotalQuantity = i.Ledger.Total()
	i.Locations = i.Ledger.Locations()
}

// CheckInvariants verifies that the item is in a state that may be committed.
// known reports whether a location is registered; nil skips that check.
func (i *InventoryItem) CheckInvariants(known func(string) bool) error {
	if err := i.Ledger.Validate(); err != nil {
		return fmt.Errorf("%w: item %s: %v", ErrInvariantViolation, i.ID, err)
	}
	if sum := i.Ledger.Total(); sum != i.TotalQuantity {
		return fmt.Errorf("%w: item %s: total %d != ledger sum %d", ErrInvariantViolation, i.ID, i.TotalQuantity, sum)
	}
	if !slices.Equal(i.Locations, i.Ledger.Locations()) {
		return fmt.Errorf("%w: item %s: location list out of sync with ledger", ErrInvariantViolation, i.ID)
	}
	if known != nil {
		for _, e := range i.Ledger {
			if !known(e.Location) {
				return fmt.Errorf("%w: item %s: ledger references unknown location %q", ErrInvariantViolation, i.ID, e.Location)
			}
		}
	}
	return nil
}

// BelowMinimum reports whether the item should be reordered
func (i *InventoryItem) BelowMinimum() bool {
	return i.MinQuantity > 0 && i.TotalQuantity < i.MinQuantity
}

// AboveMaximum reports whether the item is overstocked
func (i *InventoryItem) AboveMaximum() bool {
	return i.MaxQuantity > 0 && i.TotalQuantity > i.MaxQuantity
}

// HasOrderRef reports whether an order already contributed to the item
func (i *InventoryItem) HasOrderRef(orderID string) bool {
	return slices.Contains(i.OrderRefs, orderID)
}

// AddOrderRef records an order reference once and keeps the latest order date
func (i *InventoryItem) AddOrderRef(orderID string, date time.Time) {
	if orderID != "" && !i.HasOrderRef(orderID) {
		i.OrderRefs = append(i.OrderRefs, orderID)
	}
	if date.After(i.LastOrderDate) {
		i.LastOrderDate = date
	}
}

// Clone returns a deep copy of the item
func (i *InventoryItem) Clone() *InventoryItem {
	if i == nil {
		return nil
	}
	c := *i
	c.Names = make(map[string]string, len(i.Names))
	for k, v := range i.Names {
		c.Names[k] = v
	}
	c.Ledger = i.Ledger.Clone()
	c.Locations = slices.Clone(i.Locations)
	c.OrderRefs = slices.Clone(i.OrderRefs)
	if i.Count != nil {
		rec := *i.Count
		c.Count = &rec
	}
	return &c
}

// Touch sets the modification timestamp
func (i *InventoryItem) Touch() {
	i.UpdatedAt = time.Now().UTC()
}

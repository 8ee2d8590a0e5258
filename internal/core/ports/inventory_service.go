// internal/core/ports/inventory_service.go
package ports

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/google/uuid"
)

// InventoryService defines the application service port used by the presentation layer.
type InventoryService interface {
	// Items
	CreateItem(ctx context.Context, item *domain.InventoryItem) (*domain.InventoryItem, error)
	GetItem(ctx context.Context, id uuid.UUID) (*domain.InventoryItem, error)
	ListItems(ctx context.Context, filter ItemFilter) []*domain.InventoryItem

	// Ledger mutations
	Allocate(ctx context.Context, id uuid.UUID, allocs []domain.Allocation) (*domain.InventoryItem, error)
	Transfer(ctx context.Context, id uuid.UUID, from, to string, qty int) (*domain.InventoryItem, error)
	AdjustTotalQuantity(ctx context.Context, id uuid.UUID, newQuantity int) (*domain.InventoryItem, error)

	// Counts
	RecordCount(ctx context.Context, id uuid.UUID, physicalCount int, countedBy, note string) (domain.CountRecord, error)
	ReconcileCount(ctx context.Context, id uuid.UUID) (*domain.InventoryItem, error)

	// Orders
	ReceiveOrder(ctx context.Context, order domain.SourceOrder, decisions []Decision) (*ReceiveResult, error)
	ApplyConsolidation(ctx context.Context, orders []domain.SourceOrder) (*ConsolidationResult, error)
	Suggest(ctx context.Context, code string, quantity int, category domain.Category) ([]domain.Allocation, error)
	Preference(ctx context.Context, code string) (domain.LocationPreference, bool)

	// Locations
	ListLocations(ctx context.Context) []domain.StorageLocation
	AddLocation(ctx context.Context, loc domain.StorageLocation) error
	UpdateLocation(ctx context.Context, name string, update LocationUpdate) (domain.StorageLocation, error)
	RenameLocation(ctx context.Context, from, to string) error
	DeleteLocation(ctx context.Context, name string) error
}

// ItemFilter narrows ListItems
type ItemFilter struct {
	Category     string
	Location     string
	SupplierCode string
	LowStock     bool
}

// LocationUpdate carries the mutable attributes of a location. Nil fields are left unchanged.
type LocationUpdate struct {
	Type        *domain.LocationType
	Capacity    *int
	Temperature *string
}

// Decision is an operator-confirmed placement for one supplier code of an order
type Decision struct {
	Code        string              `json:"code"`
	Name        string              `json:"name,omitempty"`
	Allocations []domain.Allocation `json:"allocations"`
}

// LineSuggestion is the proposed placement for one order line
type LineSuggestion struct {
	Code        string              `json:"code"`
	Name        string              `json:"name"`
	Quantity    int                 `json:"quantity"`
	Category    domain.Category     `json:"category"`
	Allocations []domain.Allocation `json:"allocations"`
}

// AppliedDecision reports a decision merged into an item
type AppliedDecision struct {
	// Decision is the position of the decision in the request
	Decision      int                 `json:"decision"`
	Code          string              `json:"code"`
	ItemID        uuid.UUID           `json:"item_id"`
	Created       bool                `json:"created"`
	Allocations   []domain.Allocation `json:"allocations"`
	TotalQuantity int                 `json:"total_quantity"`
}

// DecisionFailure reports a decision that could not be applied
type DecisionFailure struct {
	Code string `json:"code"`
	Kind string `json:"kind"`
	Err  error  `json:"-"`
}

// MarshalJSON includes the error text
func (f DecisionFailure) MarshalJSON() ([]byte, error) {
	type alias struct {
		Code  string `json:"code"`
		Kind  string `json:"kind"`
		Error string `json:"error"`
	}
	msg := ""
	if f.Err != nil {
		msg = f.Err.Error()
	}
	return json.Marshal(alias{Code: f.Code, Kind: f.Kind, Error: msg})
}

// UnmarshalJSON restores the error text as a plain error
func (f *DecisionFailure) UnmarshalJSON(data []byte) error {
	var alias struct {
		Code  string `json:"code"`
		Kind  string `json:"kind"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	f.Code, f.Kind, f.Err = alias.Code, alias.Kind, nil
	if alias.Error != "" {
		f.Err = errors.New(alias.Error)
	}
	return nil
}

// ReceiveResult is the outcome of ReceiveOrder
type ReceiveResult struct {
	OrderID     string            `json:"order_id"`
	Suggestions []LineSuggestion  `json:"suggestions"`
	Applied     []AppliedDecision `json:"applied"`
	Failures    []DecisionFailure `json:"failures"`
}

// ConsolidationDiagnostics counts input problems that did not abort a batch
type ConsolidationDiagnostics struct {
	SkippedLines        int `json:"skipped_lines"`
	MalformedQuantities int `json:"malformed_quantities"`
	Orders              int `json:"orders"`
	Lines               int `json:"lines"`
}

// ConsolidationResult is the outcome of ApplyConsolidation
type ConsolidationResult struct {
	Created     int                      `json:"created"`
	Updated     int                      `json:"updated"`
	Unchanged   int                      `json:"unchanged"`
	Items       []*domain.InventoryItem  `json:"items"`
	Failures    []DecisionFailure        `json:"failures,omitempty"`
	Diagnostics ConsolidationDiagnostics `json:"diagnostics"`
}

// internal/core/domain/errors.go
package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Error kinds returned by inventory operations
var (
	ErrItemNotFound       = errors.New("item not found")
	ErrItemExists         = errors.New("item already exists")
	ErrUnknownLocation    = errors.New("unknown location")
	ErrIdenticalLocations = errors.New("source and destination are identical")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrInvalidQuantity    = errors.New("invalid quantity")
	ErrInvalidInput       = errors.New("invalid input")
	ErrLocationExists     = errors.New("location already exists")
	ErrLocationInUse      = errors.New("location holds stock")
	ErrNoCountRecorded    = errors.New("no count recorded")
	ErrInvariantViolation = errors.New("invariant violation")
)

// StockError carries the identifiers an operator needs to correct a failed operation
type StockError struct {
	Op       string
	ItemID   uuid.UUID
	Location string
	Quantity *int
	Err      error
}

func (e *StockError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.ItemID != uuid.Nil {
		fmt.Fprintf(&b, " item=%s", e.ItemID)
	}
	if e.Location != "" {
		fmt.Fprintf(&b, " location=%q", e.Location)
	}
	if e.Quantity != nil {
		fmt.Fprintf(&b, " quantity=%d", *e.Quantity)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *StockError) Unwrap() error {
	return e.Err
}

// NewStockError builds a StockError. qty is nil when no quantity is involved.
func NewStockError(op string, itemID uuid.UUID, location string, qty *int, err error) *StockError {
	return &StockError{Op: op, ItemID: itemID, Location: location, Quantity: qty, Err: err}
}

// Qty is a helper for the optional Quantity field
func Qty(n int) *int {
	return &n
}

// Kind returns the name of the error kind wrapped by err, or "internal"
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrItemNotFound):
		return "item_not_found"
	case errors.Is(err, ErrItemExists):
		return "item_exists"
	case errors.Is(err, ErrUnknownLocation):
		return "unknown_location"
	case errors.Is(err, ErrIdenticalLocations):
		return "identical_locations"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrLocationExists):
		return "location_exists"
	case errors.Is(err, ErrLocationInUse):
		return "location_in_use"
	case errors.Is(err, ErrNoCountRecorded):
		return "no_count_recorded"
	default:
		return "internal"
	}
}

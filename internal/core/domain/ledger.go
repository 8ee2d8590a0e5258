// internal/core/domain/ledger.go
package domain

import (
	"fmt"
)

// LedgerEntry is the quantity of an item held at one location
type LedgerEntry struct {
	Location string `json:"location"`
	Quantity int    `json:"quantity"`
}

// Ledger maps locations to quantities. Entries keep insertion order, which
// decides where adjustment remainders land.
type Ledger []LedgerEntry

func (l Ledger) index(location string) int {
	for i := range l {
		if l[i].Location == location {
			return i
		}
	}
	return -1
}

// Get returns the quantity held at a location
func (l Ledger) Get(location string) int {
	if i := l.index(location); i >= 0 {
		return l[i].Quantity
	}
	return 0
}

// Set stores an absolute quantity. Non-positive quantities remove the entry.
func (l *Ledger) Set(location string, qty int) {
	i := l.index(location)
	switch {
	case qty <= 0 && i >= 0:
		*l = append((*l)[:i], (*l)[i+1:]...)
	case qty <= 0:
	case i >= 0:
		(*l)[i].Quantity = qty
	default:
		*l = append(*l, LedgerEntry{Location: location, Quantity: qty})
	}
}

// Add changes the quantity at a location by delta
func (l *Ledger) Add(location string, delta int) {
	l.Set(location, l.Get(location)+delta)
}

// Rename moves an entry to a new location name in place
func (l Ledger) Rename(from, to string) bool {
	i := l.index(from)
	if i < 0 {
		return false
	}
	l[i].Location = to
	return true
}

// Total is the sum of all quantities
func (l Ledger) Total() int {
	total := 0
	for _, e := range l {
		total += e.Quantity
	}
	return total
}

// Locations returns the location names in ledger order
func (l Ledger) Locations() []string {
	out := make([]string, 0, len(l))
	for _, e := range l {
		out = append(out, e.Location)
	}
	return out
}

// Compact drops entries with non-positive quantities
func (l Ledger) Compact() Ledger {
	out := make(Ledger, 0, len(l))
	for _, e := range l {
		if e.Quantity > 0 {
			out = append(out, e)
		}
	}
	return out
}

// Clone returns a copy that shares no storage with l
func (l Ledger) Clone() Ledger {
	out := make(Ledger, len(l))
	copy(out, l)
	return out
}

// Validate checks that every entry is positive and appears once
func (l Ledger) Validate() error {
	seen := make(map[string]struct{}, len(l))
	for _, e := range l {
		if e.Location == "" {
			return fmt.Errorf("ledger entry without location")
		}
		if e.Quantity <= 0 {
			return fmt.Errorf("ledger entry %q has non-positive quantity %d", e.Location, e.Quantity)
		}
		if _, dup := seen[e.Location]; dup {
			return fmt.Errorf("ledger entry %q appears twice", e.Location)
		}
		seen[e.Location] = struct{}{}
	}
	return nil
}

// Redistribute scales the ledger to newTotal. Each entry gets
// floor(qty * newTotal / oldTotal) and the first entry absorbs the remainder.
// Entries that end at zero are dropped.
func (l Ledger) Redistribute(newTotal int) (Ledger, error) {
	oldTotal := l.Total()
	if oldTotal <= 0 {
		return nil, fmt.Errorf("%w: cannot redistribute an empty ledger", ErrInvalidQuantity)
	}
	if newTotal < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQuantity, newTotal)
	}

	out := l.Clone()
	distributed := 0
	for i := range out {
		out[i].Quantity = int(int64(out[i].Quantity) * int64(newTotal) / int64(oldTotal))
		distributed += out[i].Quantity
	}
	if len(out) > 0 {
		out[0].Quantity += newTotal - distributed
	}
	return out.Compact(), nil
}

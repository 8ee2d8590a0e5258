// internal/core/services/receiving.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

// ReceiveOrder suggests a placement for every line of order and merges the
// confirmed decisions into their items. Each decision is applied on its own;
// failures are collected in the result instead of aborting the batch.
func (s *InventoryService) ReceiveOrder(ctx context.Context, order domain.SourceOrder, decisions []ports.Decision) (*ports.ReceiveResult, error) {
	res := &ports.ReceiveResult{
		OrderID:     order.ID,
		Suggestions: make([]ports.LineSuggestion, 0, len(order.Lines)),
		Applied:     make([]ports.AppliedDecision, 0, len(decisions)),
	}

	lines := make(map[string]domain.OrderLineItem, len(order.Lines))
	for _, line := range order.Lines {
		code := normalizeCode(line.Code)
		if _, seen := lines[code]; !seen && code != "" {
			lines[code] = line
		}
		if !line.Identified() {
			continue
		}

		allocs, err := s.prefs.Suggest(ctx, code, line.Quantity, line.Category)
		if err != nil {
			res.Failures = append(res.Failures, ports.DecisionFailure{Code: code, Kind: domain.Kind(err), Err: err})
			continue
		}
		res.Suggestions = append(res.Suggestions, ports.LineSuggestion{
			Code:        code,
			Name:        strings.TrimSpace(line.Name),
			Quantity:    line.Quantity,
			Category:    domain.NormalizeCategory(string(line.Category)),
			Allocations: allocs,
		})
	}

	for i, d := range decisions {
		if err := ctx.Err(); err != nil {
			res.Failures = append(res.Failures, ports.DecisionFailure{Code: d.Code, Kind: domain.Kind(err), Err: err})
			continue
		}
		applied, err := s.applyDecision(ctx, order, lines, d)
		if err != nil {
			s.logger.WarnContext(ctx, "decision not applied",
				slog.String("order_id", order.ID),
				slog.String("code", d.Code),
				slog.String("error", err.Error()))
			res.Failures = append(res.Failures, ports.DecisionFailure{Code: d.Code, Kind: domain.Kind(err), Err: err})
			continue
		}
		applied.Decision = i
		res.Applied = append(res.Applied, applied)
	}

	s.logger.InfoContext(ctx, "received order",
		slog.String("order_id", order.ID),
		slog.Int("lines", len(order.Lines)),
		slog.Int("applied", len(res.Applied)),
		slog.Int("failed", len(res.Failures)))
	return res, nil
}

func (s *InventoryService) applyDecision(ctx context.Context, order domain.SourceOrder, lines map[string]domain.OrderLineItem, d ports.Decision) (ports.AppliedDecision, error) {
	code := normalizeCode(d.Code)
	if code == "" && strings.TrimSpace(d.Name) == "" {
		return ports.AppliedDecision{}, fmt.Errorf("%w: decision needs a code or a name", domain.ErrInvalidInput)
	}

	var (
		item    *domain.InventoryItem
		created bool
		allocs  []domain.Allocation
	)
	err := s.shared(func() error {
		allocs = make([]domain.Allocation, 0, len(d.Allocations))
		for _, a := range d.Allocations {
			if a.Quantity < 0 {
				return domain.NewStockError("receive", uuid.Nil, a.Location, domain.Qty(a.Quantity), domain.ErrInvalidQuantity)
			}
			if !s.locations.Exists(a.Location) {
				return domain.NewStockError("receive", uuid.Nil, a.Location, domain.Qty(a.Quantity), domain.ErrUnknownLocation)
			}
			if a.Quantity > 0 {
				allocs = append(allocs, a)
			}
		}
		if len(allocs) == 0 {
			return domain.NewStockError("receive", uuid.Nil, "", domain.Qty(0),
				fmt.Errorf("%w: nothing to receive for %q", domain.ErrInvalidQuantity, code))
		}

		var (
			id  uuid.UUID
			err error
		)
		id, created, err = s.resolveItem(order, lines, code, d.Name)
		if err != nil {
			return err
		}

		line, fromOrder := lines[code]
		item, err = s.items.Update(id, func(it *domain.InventoryItem) error {
			received := 0
			for _, a := range allocs {
				it.Ledger.Add(a.Location, a.Quantity)
				received += a.Quantity
			}
			if it.PrimaryLocation == "" {
				it.PrimaryLocation = allocs[0].Location
			}
			it.AddOrderRef(order.ID, order.Date)
			if fromOrder && !line.UnitPrice.IsZero() {
				it.UnitPrice = line.UnitPrice
				it.TotalCost = it.TotalCost.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(received))))
			}
			it.Recompute()
			return nil
		})
		if err != nil {
			return wrapOp("receive", id, err)
		}
		for _, a := range allocs {
			s.locations.AdjustUsage(ctx, a.Location, a.Quantity)
		}
		return nil
	})
	if err != nil {
		return ports.AppliedDecision{}, err
	}

	if item.SupplierCode != "" {
		if err := s.prefs.RecordAllocation(ctx, item.SupplierCode, allocs); err != nil {
			s.logger.WarnContext(ctx, "failed to record allocation",
				slog.String("code", item.SupplierCode),
				slog.String("error", err.Error()))
		}
	}
	s.commit(ctx, true, item)

	return ports.AppliedDecision{
		Code:          code,
		ItemID:        item.ID,
		Created:       created,
		Allocations:   allocs,
		TotalQuantity: item.TotalQuantity,
	}, nil
}

// resolveItem finds the item a decision refers to, creating an empty one if needed.
// Lines of the order identify the item by name and code; a bare code matches an
// existing item with that supplier code.
func (s *InventoryService) resolveItem(order domain.SourceOrder, lines map[string]domain.OrderLineItem, code, name string) (uuid.UUID, bool, error) {
	line, ok := lines[code]
	if !ok {
		line = domain.OrderLineItem{Code: code, Name: strings.TrimSpace(name), Category: domain.CategoryGeneral}
		if line.Name == "" {
			if ids := s.items.FindBySupplierCode(code); len(ids) > 0 {
				return ids[0], false, nil
			}
		}
	} else if strings.TrimSpace(name) != "" && line.Name == "" {
		line.Name = strings.TrimSpace(name)
	}

	return s.items.GetOrCreate(line.Key(), func() *domain.InventoryItem {
		item := domain.NewInventoryItem(line.Name, line.Code, line.Category)
		item.SupplierID = order.SupplierID
		item.Unit = strings.TrimSpace(line.Unit)
		item.UnitPrice = line.UnitPrice
		item.PrimaryLocation = s.placement(domain.DefaultLocationFor(item.Category))
		return item
	})
}

// ApplyConsolidation consolidates orders and merges the result into the store.
// Merging is incremental: an order already referenced by an item contributes
// nothing again, so re-running the same orders changes no totals, and stock
// booked by other operations is kept.
func (s *InventoryService) ApplyConsolidation(ctx context.Context, orders []domain.SourceOrder) (*ports.ConsolidationResult, error) {
	c := Consolidate(orders)
	res := &ports.ConsolidationResult{
		Items:       make([]*domain.InventoryItem, 0, len(c.Items)),
		Diagnostics: c.Diagnostics,
	}

	var (
		changed []*domain.InventoryItem
		usage   bool
	)
	_ = s.shared(func() error {
		for _, merged := range c.Items {
			m, err := s.mergeConsolidated(ctx, merged, c.Contributions[merged.ConsolidationKey])
			if err != nil {
				res.Failures = append(res.Failures, ports.DecisionFailure{Code: merged.SupplierCode, Kind: domain.Kind(err), Err: err})
				continue
			}
			switch m.outcome {
			case mergeCreated:
				res.Created++
			case mergeUpdated:
				res.Updated++
			default:
				res.Unchanged++
			}
			if m.outcome != mergeUnchanged {
				changed = append(changed, m.item)
			}
			usage = usage || m.usage
			res.Items = append(res.Items, m.item)
		}
		return nil
	})

	if c.Diagnostics.SkippedLines > 0 || c.Diagnostics.MalformedQuantities > 0 {
		s.logger.WarnContext(ctx, "consolidation input problems",
			slog.Int("skipped_lines", c.Diagnostics.SkippedLines),
			slog.Int("malformed_quantities", c.Diagnostics.MalformedQuantities))
	}
	s.logger.InfoContext(ctx, "applied consolidation",
		slog.Int("orders", c.Diagnostics.Orders),
		slog.Int("created", res.Created),
		slog.Int("updated", res.Updated),
		slog.Int("unchanged", res.Unchanged),
		slog.Int("failed", len(res.Failures)))
	s.commit(ctx, usage, changed...)
	return res, nil
}

type mergeOutcome int

const (
	mergeUnchanged mergeOutcome = iota
	mergeUpdated
	mergeCreated
)

type mergeResult struct {
	item    *domain.InventoryItem
	outcome mergeOutcome
	usage   bool
}

func (s *InventoryService) mergeConsolidated(ctx context.Context, merged *domain.InventoryItem, contribs []OrderContribution) (mergeResult, error) {
	if id, ok := s.items.LookupKey(merged.ConsolidationKey); ok {
		return s.mergeInto(ctx, id, merged, contribs)
	}

	candidate := merged.Clone()
	loc := s.placement(candidate.PrimaryLocation)
	if loc == "" && candidate.TotalQuantity > 0 {
		return mergeResult{}, domain.NewStockError("consolidate", candidate.ID, candidate.PrimaryLocation,
			domain.Qty(candidate.TotalQuantity), domain.ErrUnknownLocation)
	}
	if loc != candidate.PrimaryLocation {
		candidate.Ledger = domain.Ledger{}
		candidate.Ledger.Set(loc, candidate.TotalQuantity)
		candidate.PrimaryLocation = loc
		candidate.Recompute()
	}

	item, err := s.items.Insert(candidate)
	if errors.Is(err, domain.ErrItemExists) {
		// another writer created the key in the meantime
		if id, ok := s.items.LookupKey(merged.ConsolidationKey); ok {
			return s.mergeInto(ctx, id, merged, contribs)
		}
	}
	if err != nil {
		return mergeResult{}, err
	}
	return mergeResult{item: item, outcome: mergeCreated, usage: s.applyUsage(ctx, nil, item.Ledger)}, nil
}

// mergeInto books the contributions of orders the item has not seen yet.
// New stock lands at the item's primary location.
func (s *InventoryService) mergeInto(ctx context.Context, id uuid.UUID, merged *domain.InventoryItem, contribs []OrderContribution) (mergeResult, error) {
	var (
		before domain.Ledger
		moved  bool
	)
	item, err := s.items.Update(id, func(it *domain.InventoryItem) error {
		added, cost, fresh := 0, decimal.Zero, false
		for _, c := range contribs {
			if c.OrderID != "" && it.HasOrderRef(c.OrderID) {
				continue
			}
			fresh = true
			added += c.Quantity
			cost = cost.Add(c.Cost)
			it.AddOrderRef(c.OrderID, c.Date)
		}
		if !fresh {
			return errUnchanged
		}

		if it.Unit == "" {
			it.Unit = merged.Unit
		}
		if it.SupplierID == "" {
			it.SupplierID = merged.SupplierID
		}
		if it.PrimaryLocation == "" || !s.locations.Exists(it.PrimaryLocation) {
			it.PrimaryLocation = s.placement(merged.PrimaryLocation)
		}
		if added > 0 {
			if it.PrimaryLocation == "" {
				return domain.NewStockError("consolidate", id, merged.PrimaryLocation, domain.Qty(added), domain.ErrUnknownLocation)
			}
			before, moved = it.Ledger.Clone(), true
			it.Ledger.Add(it.PrimaryLocation, added)
			if !cost.IsZero() {
				it.UnitPrice = cost.Div(decimal.NewFromInt(int64(added))).Round(4)
			}
		}
		it.TotalCost = it.TotalCost.Add(cost).Round(2)
		it.Recompute()
		return nil
	})
	if errors.Is(err, errUnchanged) {
		current, err := s.items.Get(id)
		if err != nil {
			return mergeResult{}, wrapOp("consolidate", id, err)
		}
		return mergeResult{item: current, outcome: mergeUnchanged}, nil
	}
	if err != nil {
		return mergeResult{}, wrapOp("consolidate", id, err)
	}

	return mergeResult{item: item, outcome: mergeUpdated, usage: moved && s.applyUsage(ctx, before, item.Ledger)}, nil
}

// internal/core/services/consolidation.go
package services

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

// Consolidation is the result of merging raw order lines
type Consolidation struct {
	Items       []*domain.InventoryItem
	Diagnostics ports.ConsolidationDiagnostics
	// Contributions lists what each order added to an item, by consolidation key
	Contributions map[string][]OrderContribution
}

// OrderContribution is the quantity and cost one order adds to one item
type OrderContribution struct {
	OrderID  string
	Date     time.Time
	Quantity int
	Cost     decimal.Decimal
}

type consolidationGroup struct {
	item      *domain.InventoryItem
	quantity  int
	totalCost decimal.Decimal
	lastPrice decimal.Decimal
	contribs  []OrderContribution
	byOrder   map[string]int
}

// add books a line against its order's contribution. Lines without an order id
// each count as their own contribution.
func (g *consolidationGroup) add(o domain.SourceOrder, qty int, cost decimal.Decimal) {
	if i, ok := g.byOrder[o.ID]; ok && o.ID != "" {
		g.contribs[i].Quantity += qty
		g.contribs[i].Cost = g.contribs[i].Cost.Add(cost)
		return
	}
	g.byOrder[o.ID] = len(g.contribs)
	g.contribs = append(g.contribs, OrderContribution{OrderID: o.ID, Date: o.Date, Quantity: qty, Cost: cost})
}

// Consolidate merges order lines into one item per consolidation key.
// Quantities and costs are summed, order ids collected once each and the latest
// order date kept. The first name and category seen for a key win.
// New items are placed at their category default location.
// Lines without code and name are skipped; negative quantities count as zero.
func Consolidate(orders []domain.SourceOrder) Consolidation {
	var (
		diag   ports.ConsolidationDiagnostics
		groups = make(map[string]*consolidationGroup)
		order  []string
	)

	for _, o := range orders {
		diag.Orders++
		for _, line := range o.Lines {
			diag.Lines++
			if !line.Identified() {
				diag.SkippedLines++
				continue
			}
			qty := line.Quantity
			if qty < 0 {
				diag.MalformedQuantities++
				qty = 0
			}

			key := line.Key()
			g, ok := groups[key]
			if !ok {
				item := domain.NewInventoryItem(line.Name, line.Code, line.Category)
				item.ConsolidationKey = key
				item.SupplierID = o.SupplierID
				item.Unit = strings.TrimSpace(line.Unit)
				g = &consolidationGroup{item: item, totalCost: decimal.Zero, byOrder: make(map[string]int)}
				groups[key] = g
				order = append(order, key)
			}

			cost := line.UnitPrice.Mul(decimal.NewFromInt(int64(qty)))
			g.quantity += qty
			g.totalCost = g.totalCost.Add(cost)
			g.add(o, qty, cost)
			if !line.UnitPrice.IsZero() {
				g.lastPrice = line.UnitPrice
			}
			if g.item.Unit == "" {
				g.item.Unit = strings.TrimSpace(line.Unit)
			}
			g.item.AddOrderRef(o.ID, o.Date)
		}
	}

	items := make([]*domain.InventoryItem, 0, len(order))
	contribs := make(map[string][]OrderContribution, len(order))
	for _, key := range order {
		g := groups[key]
		contribs[key] = g.contribs
		item := g.item
		item.TotalCost = g.totalCost.Round(2)
		switch {
		case g.quantity > 0:
			item.UnitPrice = g.totalCost.Div(decimal.NewFromInt(int64(g.quantity))).Round(4)
		default:
			item.UnitPrice = g.lastPrice
		}
		item.PrimaryLocation = domain.DefaultLocationFor(item.Category)
		if len(item.Ledger) == 0 {
			item.Ledger.Set(item.PrimaryLocation, g.quantity)
		}
		item.Recompute()
		items = append(items, item)
	}

	return Consolidation{Items: items, Diagnostics: diag, Contributions: contribs}
}

// internal/adapters/orderfeed/json.go
package orderfeed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ammerola/stockledger/internal/core/domain"
)

type jsonOrder struct {
	ID         string     `json:"id"`
	OrderID    string     `json:"order_id"`
	SupplierID string     `json:"supplier_id"`
	Date       string     `json:"date"`
	Lines      []jsonLine `json:"lines"`
	Items      []jsonLine `json:"items"`
}

type jsonLine struct {
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Quantity  json.RawMessage `json:"quantity"`
	Category  string          `json:"category"`
	Unit      string          `json:"unit"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// JSONParser accepts a single order object, an array of orders or {"orders": [...]}.
// Quantities may be numbers or strings.
type JSONParser struct{}

// Parse implements Parser
func (JSONParser) Parse(_ context.Context, data []byte, meta Meta) (*Result, error) {
	orders, err := decodeOrders(data)
	if err != nil {
		return nil, err
	}

	var (
		res Result
		b   = newOrderBuilder(meta)
	)
	for oi, o := range orders {
		id := o.ID
		if id == "" {
			id = o.OrderID
		}
		date, ok := ParseDate(o.Date)
		if !ok && strings.TrimSpace(o.Date) != "" {
			res.Diagnostics.warn("order %d: unrecognized date %q", oi+1, o.Date)
		}

		for li, raw := range append(o.Lines, o.Items...) {
			res.Diagnostics.Rows++
			line := domain.OrderLineItem{
				Code:      strings.TrimSpace(raw.Code),
				Name:      strings.TrimSpace(raw.Name),
				Category:  domain.Category(strings.TrimSpace(raw.Category)),
				Unit:      strings.TrimSpace(raw.Unit),
				UnitPrice: raw.UnitPrice,
			}
			if !line.Identified() {
				res.Diagnostics.SkippedRows++
				res.Diagnostics.warn("order %d line %d: no code or name", oi+1, li+1)
				continue
			}
			rawQty := strings.Trim(string(bytes.TrimSpace(raw.Quantity)), `"`)
			qty, ok := domain.ParseQuantity(rawQty)
			if !ok {
				res.Diagnostics.MalformedQuantities++
				res.Diagnostics.warn("order %d line %d: malformed quantity %q", oi+1, li+1, rawQty)
			}
			line.Quantity = qty
			b.add(id, o.SupplierID, date, line)
		}
	}

	res.Orders = b.result()
	return &res, nil
}

func decodeOrders(data []byte) ([]jsonOrder, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty document")
	}

	if trimmed[0] == '[' {
		var orders []jsonOrder
		if err := json.Unmarshal(trimmed, &orders); err != nil {
			return nil, fmt.Errorf("failed to decode orders: %w", err)
		}
		return orders, nil
	}

	var envelope struct {
		Orders []jsonOrder `json:"orders"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	if envelope.Orders != nil {
		return envelope.Orders, nil
	}

	var single jsonOrder
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return nil, fmt.Errorf("failed to decode order: %w", err)
	}
	return []jsonOrder{single}, nil
}

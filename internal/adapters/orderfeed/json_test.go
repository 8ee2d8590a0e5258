package orderfeed_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/stockledger/internal/adapters/orderfeed"
	"github.com/ammerola/stockledger/internal/core/domain"
)

func TestJSONParser_Shapes(t *testing.T) {
	tests := []struct {
		name       string
		doc        string
		wantOrders []string
		wantLines  int
	}{
		{
			name:       "single_object",
			doc:        `{"id":"PO-1","lines":[{"code":"A","quantity":1}]}`,
			wantOrders: []string{"PO-1"},
			wantLines:  1,
		},
		{
			name:       "array",
			doc:        `[{"id":"PO-1","lines":[{"code":"A","quantity":1}]},{"order_id":"PO-2","items":[{"name":"Bread","quantity":"2"}]}]`,
			wantOrders: []string{"PO-1", "PO-2"},
			wantLines:  2,
		},
		{
			name:       "envelope",
			doc:        `{"orders":[{"id":"PO-3","lines":[{"code":"A","quantity":4},{"code":"B","quantity":5}]}]}`,
			wantOrders: []string{"PO-3"},
			wantLines:  2,
		},
		{
			name:       "missing_id_uses_meta",
			doc:        `{"lines":[{"code":"A","quantity":1}]}`,
			wantOrders: []string{"PO-META"},
			wantLines:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := orderfeed.JSONParser{}.Parse(context.Background(), []byte(tt.doc), orderfeed.Meta{OrderID: "PO-META"})
			require.NoError(t, err)

			var ids []string
			for _, o := range res.Orders {
				ids = append(ids, o.ID)
			}
			assert.Equal(t, tt.wantOrders, ids)
			assert.Equal(t, tt.wantLines, res.Lines())
		})
	}
}

func TestJSONParser_Lines(t *testing.T) {
	doc := `{
		"id": "PO-9",
		"supplier_id": "SUP-1",
		"date": "2024-03-01",
		"lines": [
			{"code": "MILK-1", "name": "Whole Milk", "quantity": 12, "category": "Dairy", "unit": "l", "unit_price": "1.20"},
			{"code": "EGG-6", "name": "Eggs", "quantity": "2.5"},
			{"code": "", "name": "", "quantity": 3},
			{"code": "FLOUR", "quantity": null}
		]
	}`
	res, err := orderfeed.JSONParser{}.Parse(context.Background(), []byte(doc), orderfeed.Meta{})
	require.NoError(t, err)
	require.Len(t, res.Orders, 1)

	order := res.Orders[0]
	assert.Equal(t, "SUP-1", order.SupplierID)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), order.Date)
	require.Len(t, order.Lines, 3)

	milk := order.Lines[0]
	assert.Equal(t, 12, milk.Quantity)
	assert.Equal(t, domain.Category("Dairy"), milk.Category)
	assert.True(t, decimal.RequireFromString("1.20").Equal(milk.UnitPrice))

	assert.Equal(t, 0, order.Lines[1].Quantity)
	assert.Equal(t, 0, order.Lines[2].Quantity)

	assert.Equal(t, 4, res.Diagnostics.Rows)
	assert.Equal(t, 1, res.Diagnostics.SkippedRows)
	assert.Equal(t, 2, res.Diagnostics.MalformedQuantities)
	assert.Len(t, res.Diagnostics.Warnings, 3)
}

func TestJSONParser_Errors(t *testing.T) {
	for name, doc := range map[string]string{
		"empty":     "  ",
		"truncated": `[{"id":"PO-1"`,
		"scalar":    `42`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := orderfeed.JSONParser{}.Parse(context.Background(), []byte(doc), orderfeed.Meta{})
			assert.Error(t, err)
		})
	}
}

package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
	"github.com/ammerola/stockledger/test/helpers"
)

func TestInventoryService_ReceiveOrder(t *testing.T) {
	ctx := context.Background()
	order := helpers.NewTestOrder("PO-9", time.Now(),
		helpers.NewTestLine("SKU1", "Milk", 20, domain.CategoryDairy),
		helpers.NewTestLine("SKU2", "Peas", 6, domain.CategoryFrozen),
	)

	t.Run("preview_only", func(t *testing.T) {
		e := newTestEngine(t, nil)
		res, err := e.svc.ReceiveOrder(ctx, order, nil)
		require.NoError(t, err)
		require.Len(t, res.Suggestions, 2)
		assert.Equal(t, []domain.Allocation{{Location: "Cooler-B1", Quantity: 20}}, res.Suggestions[0].Allocations)
		assert.Equal(t, []domain.Allocation{{Location: "Freezer-A1", Quantity: 6}}, res.Suggestions[1].Allocations)
		assert.Empty(t, res.Applied)
		assert.Empty(t, e.svc.ListItems(ctx, ports.ItemFilter{}))
	})

	t.Run("decisions_update_ledger_and_learn", func(t *testing.T) {
		e := newTestEngine(t, nil)
		res, err := e.svc.ReceiveOrder(ctx, order, []ports.Decision{
			{Code: "SKU1", Allocations: []domain.Allocation{{Location: "Cooler-B1", Quantity: 8}, {Location: "Cooler-B2", Quantity: 2}}},
		})
		require.NoError(t, err)
		require.Len(t, res.Applied, 1)
		assert.True(t, res.Applied[0].Created)
		assert.Equal(t, 10, res.Applied[0].TotalQuantity)
		assert.Empty(t, res.Failures)

		milk := findByCode(t, e, "SKU1")
		assert.Equal(t, "Milk", milk.DisplayName("en"))
		assert.Equal(t, []string{"PO-9"}, milk.OrderRefs)

		suggestion, err := e.svc.Suggest(ctx, "SKU1", 20, domain.CategoryDairy)
		require.NoError(t, err)
		assert.Equal(t, []domain.Allocation{{Location: "Cooler-B1", Quantity: 16}, {Location: "Cooler-B2", Quantity: 4}}, suggestion)

		res, err = e.svc.ReceiveOrder(ctx, order, []ports.Decision{
			{Code: "SKU1", Allocations: []domain.Allocation{{Location: "Cooler-B1", Quantity: 5}}},
		})
		require.NoError(t, err)
		assert.False(t, res.Applied[0].Created)
		milk = findByCode(t, e, "SKU1")
		assert.Equal(t, domain.Ledger{{Location: "Cooler-B1", Quantity: 13}, {Location: "Cooler-B2", Quantity: 2}}, milk.Ledger)
		assert.Equal(t, 15, milk.TotalQuantity)
		assert.Equal(t, []domain.Allocation{{Location: "Cooler-B1", Quantity: 16}, {Location: "Cooler-B2", Quantity: 4}}, res.Suggestions[0].Allocations)
	})

	t.Run("failures_are_collected_per_decision", func(t *testing.T) {
		e := newTestEngine(t, nil)
		res, err := e.svc.ReceiveOrder(ctx, order, []ports.Decision{
			{Code: "SKU1", Allocations: []domain.Allocation{{Location: "Basement", Quantity: 3}}},
			{Code: "SKU2", Allocations: []domain.Allocation{{Location: "Freezer-A1", Quantity: 6}}},
			{Code: "SKU2", Allocations: []domain.Allocation{{Location: "Freezer-A1", Quantity: -1}}},
			{Code: "", Allocations: []domain.Allocation{{Location: "Freezer-A1", Quantity: 1}}},
		})
		require.NoError(t, err)
		require.Len(t, res.Applied, 1)
		assert.Equal(t, "SKU2", res.Applied[0].Code)
		assert.Equal(t, 1, res.Applied[0].Decision)

		require.Len(t, res.Failures, 3)
		assert.Equal(t, "unknown_location", res.Failures[0].Kind)
		assert.Equal(t, "invalid_quantity", res.Failures[1].Kind)
		assert.Equal(t, "invalid_input", res.Failures[2].Kind)

		items := e.svc.ListItems(ctx, ports.ItemFilter{})
		require.Len(t, items, 1)
		assert.Equal(t, 6, items[0].TotalQuantity)
	})

	t.Run("bare_code_matches_existing_item", func(t *testing.T) {
		e := newTestEngine(t, nil)
		existing := e.stockedItem(t, domain.Allocation{Location: "A", Quantity: 1})

		res, err := e.svc.ReceiveOrder(ctx, domain.SourceOrder{ID: "PO-10"}, []ports.Decision{
			{Code: existing.SupplierCode, Allocations: []domain.Allocation{{Location: "A", Quantity: 2}}},
		})
		require.NoError(t, err)
		require.Len(t, res.Applied, 1)
		assert.Equal(t, existing.ID, res.Applied[0].ItemID)
		assert.Equal(t, 3, res.Applied[0].TotalQuantity)
	})

	t.Run("invalid_line_quantity_reported", func(t *testing.T) {
		e := newTestEngine(t, nil)
		bad := helpers.NewTestOrder("PO-11", time.Now(), helpers.NewTestLine("SKU5", "Oil", 0, domain.CategoryDry))
		res, err := e.svc.ReceiveOrder(ctx, bad, nil)
		require.NoError(t, err)
		assert.Empty(t, res.Suggestions)
		require.Len(t, res.Failures, 1)
		assert.Equal(t, "invalid_quantity", res.Failures[0].Kind)
	})
}

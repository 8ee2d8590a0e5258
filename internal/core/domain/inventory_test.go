package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/stockledger/internal/core/domain"
)

func TestInventoryItem_Validate(t *testing.T) {
	tests := []struct {
		name      string
		item      *domain.InventoryItem
		wantError bool
		errorMsg  string
	}{
		{
			name:      "valid_item_with_name_and_code",
			item:      domain.NewInventoryItem("Milk", "SKU1", domain.CategoryDairy),
			wantError: false,
		},
		{
			name:      "code_only_is_enough",
			item:      domain.NewInventoryItem("", "SKU2", domain.CategoryDry),
			wantError: false,
		},
		{
			name:      "missing_name_and_code",
			item:      domain.NewInventoryItem("  ", "", domain.CategoryDry),
			wantError: true,
			errorMsg:  "name or supplier_code is required",
		},
		{
			name: "negative_threshold",
			item: func() *domain.InventoryItem {
				i := domain.NewInventoryItem("Milk", "SKU1", domain.CategoryDairy)
				i.MinQuantity = -1
				return i
			}(),
			wantError: true,
			errorMsg:  "reorder thresholds cannot be negative",
		},
		{
			name: "min_above_max",
			item: func() *domain.InventoryItem {
				i := domain.NewInventoryItem("Milk", "SKU1", domain.CategoryDairy)
				i.MinQuantity = 10
				i.MaxQuantity = 5
				return i
			}(),
			wantError: true,
			errorMsg:  "min_quantity exceeds max_quantity",
		},
		{
			name: "negative_unit_price",
			item: func() *domain.InventoryItem {
				i := domain.NewInventoryItem("Milk", "SKU1", domain.CategoryDairy)
				i.UnitPrice = decimal.NewFromInt(-1)
				return i
			}(),
			wantError: true,
			errorMsg:  "unit_price cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if tt.wantError {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				assert.Contains(t, err.Error(), tt.errorMsg)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestInventoryItem_DefaultsCategory(t *testing.T) {
	item := &domain.InventoryItem{Names: map[string]string{"en": "Soap"}}
	require.NoError(t, item.Validate())
	assert.Equal(t, domain.CategoryGeneral, item.Category)
}

func TestConsolidationKey(t *testing.T) {
	assert.Equal(t, "milk|sku1", domain.ConsolidationKey("  Milk ", "SKU1 "))
	assert.Equal(t, domain.ConsolidationKey("MILK", "sku1"), domain.ConsolidationKey("milk", "SKU1"))
	assert.NotEqual(t, domain.ConsolidationKey("ab", "c"), domain.ConsolidationKey("a", "bc"))
	assert.NotEqual(t, domain.ConsolidationKey("Milk", "SKU1"), domain.ConsolidationKey("Milk", "SKU2"))
}

func TestInventoryItem_DisplayName(t *testing.T) {
	item := &domain.InventoryItem{Names: map[string]string{"en": "Milk", "ja": "牛乳"}}
	assert.Equal(t, "牛乳", item.DisplayName("ja"))
	assert.Equal(t, "Milk", item.DisplayName("fr"))

	item = &domain.InventoryItem{Names: map[string]string{"ja": "牛乳"}}
	assert.Equal(t, "牛乳", item.DisplayName("en"))

	item = &domain.InventoryItem{}
	assert.Empty(t, item.DisplayName("en"))
}

func TestInventoryItem_CheckInvariants(t *testing.T) {
	known := func(loc string) bool { return loc == "A" || loc == "B" }

	t.Run("consistent_item", func(t *testing.T) {
		item := domain.NewInventoryItem("Milk", "SKU1", domain.CategoryDairy)
		item.Ledger.Set("A", 6)
		item.Ledger.Set("B", 4)
		item.Recompute()
		assert.NoError(t, item.CheckInvariants(known))
		assert.Equal(t, 10, item.TotalQuantity)
		assert.Equal(t, []string{"A", "B"}, item.Locations)
	})

	t.Run("total_out_of_sync", func(t *testing.T) {
		item := domain.NewInventoryItem("Milk", "SKU1", domain.CategoryDairy)
		item.Ledger.Set("A", 6)
		item.Recompute()
		item.TotalQuantity = 7
		err := item.CheckInvariants(known)
		assert.ErrorIs(t, err, domain.ErrInvariantViolation)
	})

	t.Run("zero_entry", func(t *testing.T) {
		item := domain.NewInventoryItem("Milk", "SKU1", domain.CategoryDairy)
		item.Ledger = domain.Ledger{{Location: "A", Quantity: 0}}
		item.Locations = []string{"A"}
		assert.ErrorIs(t, item.CheckInvariants(known), domain.ErrInvariantViolation)
	})

	t.Run("unknown_location", func(t *testing.T) {
		item := domain.NewInventoryItem("Milk", "SKU1", domain.CategoryDairy)
		item.Ledger.Set("Z", 1)
		item.Recompute()
		assert.ErrorIs(t, item.CheckInvariants(known), domain.ErrInvariantViolation)
		assert.NoError(t, item.CheckInvariants(nil))
	})

	t.Run("stale_location_list", func(t *testing.T) {
		item := domain.NewInventoryItem("Milk", "SKU1", domain.CategoryDairy)
		item.Ledger.Set("A", 1)
		item.TotalQuantity = 1
		assert.ErrorIs(t, item.CheckInvariants(known), domain.ErrInvariantViolation)
	})
}

func TestInventoryItem_Clone(t *testing.T) {
	item := domain.NewInventoryItem("Milk", "SKU1", domain.CategoryDairy)
	item.Ledger.Set("A", 3)
	item.Recompute()
	item.AddOrderRef("PO-1", time.Now())
	rec := domain.NewCountRecord(3, 3, "sam", "", time.Now())
	item.Count = &rec

	c := item.Clone()
	c.Ledger.Set("A", 5)
	c.Names["en"] = "Oat Milk"
	c.OrderRefs[0] = "PO-X"
	c.Count.PhysicalCount = 99

	assert.Equal(t, 3, item.Ledger.Get("A"))
	assert.Equal(t, "Milk", item.DisplayName("en"))
	assert.Equal(t, "PO-1", item.OrderRefs[0])
	assert.Equal(t, 3, item.Count.PhysicalCount)
}

func TestInventoryItem_OrderRefs(t *testing.T) {
	item := domain.NewInventoryItem("Milk", "SKU1", domain.CategoryDairy)
	early := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(48 * time.Hour)

	item.AddOrderRef("PO-2", late)
	item.AddOrderRef("PO-1", early)
	item.AddOrderRef("PO-2", early)

	assert.Equal(t, []string{"PO-2", "PO-1"}, item.OrderRefs)
	assert.Equal(t, late, item.LastOrderDate)
}

func TestInventoryItem_ReorderThresholds(t *testing.T) {
	item := domain.NewInventoryItem("Milk", "SKU1", domain.CategoryDairy)
	item.MinQuantity = 5
	item.MaxQuantity = 20
	item.Ledger.Set("A", 3)
	item.Recompute()
	assert.True(t, item.BelowMinimum())
	assert.False(t, item.AboveMaximum())

	item.Ledger.Set("A", 25)
	item.Recompute()
	assert.False(t, item.BelowMinimum())
	assert.True(t, item.AboveMaximum())
}

func TestCountRecord(t *testing.T) {
	now := time.Now()

	rec := domain.NewCountRecord(10, 10, "sam", "shelf check", now)
	assert.Equal(t, domain.CountCounted, rec.Status)
	assert.Zero(t, rec.Variance())

	rec = domain.NewCountRecord(11, 10, "sam", "", now)
	assert.Equal(t, domain.CountDiscrepancy, rec.Status)
	assert.Equal(t, 1, rec.Variance())

	rec.Evaluate(11)
	assert.Equal(t, domain.CountCounted, rec.Status)
}

func TestDefaultLocationFor(t *testing.T) {
	tests := []struct {
		category domain.Category
		want     string
	}{
		{domain.CategoryFrozen, domain.LocationFreezerA1},
		{domain.CategoryDairy, domain.LocationCoolerB1},
		{"  Produce ", domain.LocationCoolerB1},
		{domain.CategoryCanned, domain.LocationDryC1},
		{"garden tools", domain.GeneralLocation},
		{"", domain.GeneralLocation},
	}
	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			assert.Equal(t, tt.want, domain.DefaultLocationFor(tt.category))
		})
	}
}

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		raw    string
		want   int
		wantOK bool
	}{
		{"10", 10, true},
		{" 7 ", 7, true},
		{"1,200", 1200, true},
		{"3.0", 3, true},
		{"3.5", 0, false},
		{"-2", 0, false},
		{"ten", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := domain.ParseQuantity(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestStockError(t *testing.T) {
	id := uuid.New()
	err := domain.NewStockError("transfer", id, "Cooler-B1", domain.Qty(11), domain.ErrInsufficientStock)

	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))
	assert.Contains(t, err.Error(), id.String())
	assert.Contains(t, err.Error(), `location="Cooler-B1"`)
	assert.Contains(t, err.Error(), "quantity=11")
	assert.Equal(t, "insufficient_stock", domain.Kind(err))
	assert.Equal(t, "internal", domain.Kind(domain.ErrInvariantViolation))
}

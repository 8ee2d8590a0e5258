package services_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
	"github.com/ammerola/stockledger/internal/core/services"
	"github.com/ammerola/stockledger/test/helpers"
	"github.com/ammerola/stockledger/test/mocks"
)

func TestPreferenceModel_Suggest(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		history  map[string][][]domain.Allocation
		code     string
		quantity int
		category domain.Category
		want     []domain.Allocation
	}{
		{
			name: "proportional_split",
			history: map[string][][]domain.Allocation{
				"SKU1": {{{Location: "Cooler-B1", Quantity: 8}, {Location: "Cooler-B2", Quantity: 2}}},
			},
			code:     "SKU1",
			quantity: 20,
			category: domain.CategoryDairy,
			want:     []domain.Allocation{{Location: "Cooler-B1", Quantity: 16}, {Location: "Cooler-B2", Quantity: 4}},
		},
		{
			name: "remainder_goes_to_last",
			history: map[string][][]domain.Allocation{
				"SKU1": {{{Location: "A", Quantity: 1}, {Location: "B", Quantity: 1}, {Location: "C", Quantity: 1}}},
			},
			code:     "SKU1",
			quantity: 10,
			want:     []domain.Allocation{{Location: "A", Quantity: 3}, {Location: "B", Quantity: 3}, {Location: "C", Quantity: 4}},
		},
		{
			name: "top_three_only",
			history: map[string][][]domain.Allocation{
				"SKU1": {{
					{Location: "A", Quantity: 40}, {Location: "B", Quantity: 30},
					{Location: "C", Quantity: 20}, {Location: "D", Quantity: 10},
				}},
			},
			code:     "SKU1",
			quantity: 10,
			want:     []domain.Allocation{{Location: "A", Quantity: 4}, {Location: "B", Quantity: 3}, {Location: "C", Quantity: 3}},
		},
		{
			name: "zero_shares_are_dropped",
			history: map[string][][]domain.Allocation{
				"SKU1": {{{Location: "A", Quantity: 9}, {Location: "B", Quantity: 1}}},
			},
			code:     "SKU1",
			quantity: 1,
			want:     []domain.Allocation{{Location: "B", Quantity: 1}},
		},
		{
			name:     "no_history_uses_category_default",
			code:     "SKU9",
			quantity: 7,
			category: domain.CategoryFrozen,
			want:     []domain.Allocation{{Location: "Freezer-A1", Quantity: 7}},
		},
		{
			name:     "unknown_category_uses_general",
			code:     "SKU9",
			quantity: 3,
			category: "garden",
			want:     []domain.Allocation{{Location: "General-D1", Quantity: 3}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := services.NewPreferenceModel(nil, helpers.TestLogger())
			for code, batches := range tt.history {
				for _, allocs := range batches {
					require.NoError(t, m.RecordAllocation(ctx, code, allocs))
				}
			}

			got, err := m.Suggest(ctx, tt.code, tt.quantity, tt.category)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPreferenceModel_SuggestInvalidQuantity(t *testing.T) {
	m := services.NewPreferenceModel(nil, helpers.TestLogger())
	for _, q := range []int{0, -3} {
		_, err := m.Suggest(context.Background(), "SKU1", q, domain.CategoryDry)
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	}
}

func TestPreferenceModel_RecordAllocationRequiresCode(t *testing.T) {
	m := services.NewPreferenceModel(nil, helpers.TestLogger())
	err := m.RecordAllocation(context.Background(), "  ", []domain.Allocation{{Location: "A", Quantity: 1}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPreferenceModel_SuggestionsAlwaysSumToQuantity(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(11))
	m := services.NewPreferenceModel(nil, helpers.TestLogger())

	for i := 0; i < 200; i++ {
		code := fmt.Sprintf("SKU%d", rng.Intn(20))
		var allocs []domain.Allocation
		for j := 0; j < 1+rng.Intn(4); j++ {
			allocs = append(allocs, domain.Allocation{Location: fmt.Sprintf("L%d", rng.Intn(6)), Quantity: rng.Intn(50)})
		}
		require.NoError(t, m.RecordAllocation(ctx, code, allocs))

		pref, ok := m.Preference(code)
		require.True(t, ok)
		sum := 0.0
		for _, r := range pref.Ratios {
			sum += r
		}
		require.LessOrEqual(t, math.Abs(sum-1), 1e-6)

		q := 1 + rng.Intn(500)
		got, err := m.Suggest(ctx, code, q, domain.CategoryDry)
		require.NoError(t, err)
		require.LessOrEqual(t, len(got), 3)
		total := 0
		for _, a := range got {
			require.Positive(t, a.Quantity)
			total += a.Quantity
		}
		require.Equal(t, q, total)
	}
}

func TestPreferenceModel_ConcurrentCodes(t *testing.T) {
	ctx := context.Background()
	m := services.NewPreferenceModel(nil, helpers.TestLogger())

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			code := fmt.Sprintf("SKU%d", w%4)
			for i := 0; i < 100; i++ {
				_ = m.RecordAllocation(ctx, code, []domain.Allocation{{Location: "A", Quantity: 1}})
				_, _ = m.Suggest(ctx, code, 10, domain.CategoryDry)
			}
		}(w)
	}
	wg.Wait()

	for i := 0; i < 4; i++ {
		pref, ok := m.Preference(fmt.Sprintf("SKU%d", i))
		require.True(t, ok)
		assert.Equal(t, 200.0, pref.Weights["A"])
	}
}

func TestPreferenceModel_Persistence(t *testing.T) {
	ctx := context.Background()

	t.Run("load_then_suggest", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockPreferenceStore(ctrl)
		store.EXPECT().LoadPreferences(gomock.Any()).Return(map[string]domain.LocationPreference{
			"SKU1": {Weights: map[string]float64{"Cooler-B1": 3, "Cooler-B2": 1}},
		}, nil)

		m := services.NewPreferenceModel(store, helpers.TestLogger())
		require.NoError(t, m.Load(ctx))

		got, err := m.Suggest(ctx, "SKU1", 8, domain.CategoryDairy)
		require.NoError(t, err)
		assert.Equal(t, []domain.Allocation{{Location: "Cooler-B1", Quantity: 6}, {Location: "Cooler-B2", Quantity: 2}}, got)
	})

	t.Run("save_after_record", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockPreferenceStore(ctrl)
		store.EXPECT().SavePreferences(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, prefs map[string]domain.LocationPreference) error {
				assert.Contains(t, prefs, "SKU1")
				assert.InDelta(t, 1.0, prefs["SKU1"].Ratios["A"], 1e-9)
				return nil
			})

		m := services.NewPreferenceModel(store, helpers.TestLogger())
		require.NoError(t, m.RecordAllocation(ctx, "SKU1", []domain.Allocation{{Location: "A", Quantity: 2}}))
	})

	t.Run("rename_waits_for_persist", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockPreferenceStore(ctrl)
		gomock.InOrder(
			store.EXPECT().SavePreferences(gomock.Any(), gomock.Any()).Return(nil),
			store.EXPECT().SavePreferences(gomock.Any(), gomock.Any()).
				DoAndReturn(func(ctx context.Context, prefs map[string]domain.LocationPreference) error {
					_, stamped := ports.SnapshotTime(ctx)
					assert.True(t, stamped)
					assert.Contains(t, prefs["SKU1"].Weights, "Aisle-1")
					return nil
				}),
		)

		m := services.NewPreferenceModel(store, helpers.TestLogger())
		require.NoError(t, m.RecordAllocation(ctx, "SKU1", []domain.Allocation{{Location: "A", Quantity: 2}}))
		assert.True(t, m.RenameLocation(ctx, "A", "Aisle-1"))
		assert.False(t, m.RenameLocation(ctx, "Missing", "Elsewhere"))
		m.Persist(ctx)
	})

	t.Run("save_failure_is_not_fatal", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockPreferenceStore(ctrl)
		store.EXPECT().SavePreferences(gomock.Any(), gomock.Any()).Return(errors.New("timeout"))

		m := services.NewPreferenceModel(store, helpers.TestLogger())
		require.NoError(t, m.RecordAllocation(ctx, "SKU1", []domain.Allocation{{Location: "A", Quantity: 2}}))
		_, ok := m.Preference("SKU1")
		assert.True(t, ok)
	})
}

package domain_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/stockledger/internal/core/domain"
)

func TestLedger_SetAndAdd(t *testing.T) {
	var l domain.Ledger
	l.Set("A", 5)
	l.Set("B", 3)
	l.Add("A", 2)
	assert.Equal(t, 7, l.Get("A"))
	assert.Equal(t, 10, l.Total())
	assert.Equal(t, []string{"A", "B"}, l.Locations())

	l.Add("A", -7)
	assert.Equal(t, 0, l.Get("A"))
	assert.Equal(t, []string{"B"}, l.Locations())

	l.Set("C", 0)
	assert.Equal(t, []string{"B"}, l.Locations())

	l.Set("A", 1)
	assert.Equal(t, []string{"B", "A"}, l.Locations())
	require.NoError(t, l.Validate())
}

func TestLedger_Validate(t *testing.T) {
	assert.Error(t, domain.Ledger{{Location: "A", Quantity: 0}}.Validate())
	assert.Error(t, domain.Ledger{{Location: "", Quantity: 1}}.Validate())
	assert.Error(t, domain.Ledger{{Location: "A", Quantity: 1}, {Location: "A", Quantity: 2}}.Validate())
	assert.NoError(t, domain.Ledger{}.Validate())
}

func TestLedger_Redistribute(t *testing.T) {
	tests := []struct {
		name     string
		ledger   domain.Ledger
		newTotal int
		want     domain.Ledger
	}{
		{
			name:     "shrink_remainder_to_first",
			ledger:   domain.Ledger{{Location: "A", Quantity: 6}, {Location: "B", Quantity: 4}},
			newTotal: 9,
			want:     domain.Ledger{{Location: "A", Quantity: 6}, {Location: "B", Quantity: 3}},
		},
		{
			name:     "grow_proportionally",
			ledger:   domain.Ledger{{Location: "A", Quantity: 6}, {Location: "B", Quantity: 4}},
			newTotal: 20,
			want:     domain.Ledger{{Location: "A", Quantity: 12}, {Location: "B", Quantity: 8}},
		},
		{
			name:     "to_zero_empties_ledger",
			ledger:   domain.Ledger{{Location: "A", Quantity: 6}, {Location: "B", Quantity: 4}},
			newTotal: 0,
			want:     domain.Ledger{},
		},
		{
			name:     "small_entries_drop_out",
			ledger:   domain.Ledger{{Location: "A", Quantity: 1}, {Location: "B", Quantity: 9}},
			newTotal: 5,
			want:     domain.Ledger{{Location: "A", Quantity: 1}, {Location: "B", Quantity: 4}},
		},
		{
			name:     "first_entry_floored_to_zero_gets_remainder",
			ledger:   domain.Ledger{{Location: "A", Quantity: 1}, {Location: "B", Quantity: 2}, {Location: "C", Quantity: 2}},
			newTotal: 2,
			want:     domain.Ledger{{Location: "A", Quantity: 2}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.ledger.Redistribute(tt.newTotal)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.newTotal, got.Total())
			assert.NoError(t, got.Validate())
		})
	}
}

func TestLedger_RedistributeErrors(t *testing.T) {
	_, err := domain.Ledger{}.Redistribute(5)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = domain.Ledger{{Location: "A", Quantity: 2}}.Redistribute(-1)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestLedger_RedistributeAlwaysSumsExactly(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		var l domain.Ledger
		for j := 0; j < 1+rng.Intn(5); j++ {
			l.Set(string(rune('A'+j)), 1+rng.Intn(50))
		}
		target := rng.Intn(300)
		before := l.Clone()

		got, err := l.Redistribute(target)
		require.NoError(t, err)
		require.Equal(t, target, got.Total())
		require.NoError(t, got.Validate())
		assert.Equal(t, before, l)
	}
}

func TestLedger_Rename(t *testing.T) {
	l := domain.Ledger{{Location: "A", Quantity: 1}, {Location: "B", Quantity: 2}}
	assert.True(t, l.Rename("A", "Z"))
	assert.False(t, l.Rename("missing", "Y"))
	assert.Equal(t, []string{"Z", "B"}, l.Locations())
}

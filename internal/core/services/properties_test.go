package services_test

import (
	"context"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/stockledger/internal/core/domain"
)

var propertyLocations = []string{"A", "B", "Cooler-B1", "Cooler-B2", "Dry-C1"}

func TestInventoryService_RandomOperationsKeepInvariants(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(2024))
	e := newTestEngine(t, nil)
	item := e.stockedItem(t)

	for step := 0; step < 2000; step++ {
		before, err := e.svc.GetItem(ctx, item.ID)
		require.NoError(t, err)

		var after *domain.InventoryItem
		switch rng.Intn(3) {
		case 0:
			loc := propertyLocations[rng.Intn(len(propertyLocations))]
			after, err = e.svc.Allocate(ctx, item.ID, []domain.Allocation{{Location: loc, Quantity: rng.Intn(30) - 5}})
		case 1:
			from := propertyLocations[rng.Intn(len(propertyLocations))]
			to := propertyLocations[rng.Intn(len(propertyLocations))]
			qty := rng.Intn(15) - 2
			after, err = e.svc.Transfer(ctx, item.ID, from, to, qty)
			if err == nil {
				assert.Equal(t, before.TotalQuantity, after.TotalQuantity)
				assert.Equal(t, before.Ledger.Get(from)-qty, after.Ledger.Get(from))
				assert.Equal(t, before.Ledger.Get(to)+qty, after.Ledger.Get(to))
			}
		case 2:
			after, err = e.svc.AdjustTotalQuantity(ctx, item.ID, rng.Intn(80))
		}

		current, getErr := e.svc.GetItem(ctx, item.ID)
		require.NoError(t, getErr)
		if err != nil {
			require.Equal(t, before.Ledger, current.Ledger, "failed operation must leave state intact")
			continue
		}
		require.Equal(t, after.Ledger, current.Ledger)
		require.NoError(t, current.CheckInvariants(e.reg.Exists), "step %d", step)
	}
}

func TestInventoryService_ConcurrentTransfersConserveStock(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, nil)
	item := e.stockedItem(t,
		domain.Allocation{Location: "A", Quantity: 500},
		domain.Allocation{Location: "B", Quantity: 500},
	)

	var wg sync.WaitGroup
	for w := 0; w < 16; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for i := 0; i < 200; i++ {
				from, to := "A", "B"
				if rng.Intn(2) == 0 {
					from, to = to, from
				}
				_, _ = e.svc.Transfer(ctx, item.ID, from, to, 1+rng.Intn(20))

				snapshot, err := e.svc.GetItem(ctx, item.ID)
				if assert.NoError(t, err) {
					assert.Equal(t, 1000, snapshot.Ledger.Total())
					assert.Equal(t, 1000, snapshot.TotalQuantity)
				}
			}
		}(int64(w))
	}
	wg.Wait()

	final, err := e.svc.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 1000, final.TotalQuantity)
	require.NoError(t, final.CheckInvariants(e.reg.Exists))
}

func TestInventoryService_ConcurrentRenameAndTransfer(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, nil)
	item := e.stockedItem(t, domain.Allocation{Location: "A", Quantity: 100})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_, _ = e.svc.Transfer(ctx, item.ID, "A", "B", 1)
			_, _ = e.svc.Transfer(ctx, item.ID, "Aisle", "B", 1)
		}
	}()
	go func() {
		defer wg.Done()
		_ = e.svc.RenameLocation(ctx, "A", "Aisle")
	}()
	wg.Wait()

	final, err := e.svc.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, final.TotalQuantity)
	assert.Zero(t, final.Ledger.Get("A"))
	require.NoError(t, final.CheckInvariants(e.reg.Exists))
}

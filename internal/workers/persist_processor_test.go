package workers_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/workers"
	"github.com/ammerola/stockledger/test/helpers"
	"github.com/ammerola/stockledger/test/mocks"
)

func task(t *testing.T, typ string, payload interface{}) *asynq.Task {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return asynq.NewTask(typ, raw)
}

func TestPersistProcessor_ItemsDropStaleSaves(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	store := mocks.NewMockPersistence(ctrl)

	newer := helpers.NewTestItem()
	older := newer.Clone()
	older.UpdatedAt = newer.UpdatedAt.Add(-time.Minute)

	gomock.InOrder(
		store.EXPECT().SaveItems(gomock.Any(), gomock.Len(1)).Return(nil),
		store.EXPECT().SaveItems(gomock.Any(), gomock.Len(1)).Return(nil),
	)

	p := workers.NewPersistProcessor(store, helpers.TestLogger())
	require.NoError(t, p.ProcessItems(ctx, task(t, workers.TypePersistItems, workers.PersistItemsPayload{Items: []*domain.InventoryItem{newer}})))
	// stale save is dropped without touching the store
	require.NoError(t, p.ProcessItems(ctx, task(t, workers.TypePersistItems, workers.PersistItemsPayload{Items: []*domain.InventoryItem{older}})))
	// a redelivery of the applied save is written again
	require.NoError(t, p.ProcessItems(ctx, task(t, workers.TypePersistItems, workers.PersistItemsPayload{Items: []*domain.InventoryItem{newer}})))
}

func TestPersistProcessor_Locations(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	tests := []struct {
		name       string
		payloads   []workers.PersistLocationsPayload
		setupMocks func(*mocks.MockPersistence)
		wantErr    bool
	}{
		{
			name: "applies_in_order",
			payloads: []workers.PersistLocationsPayload{
				{Locations: domain.DefaultLocations()[:1], SavedAt: now},
				{Locations: domain.DefaultLocations(), SavedAt: now.Add(time.Second)},
			},
			setupMocks: func(m *mocks.MockPersistence) {
				m.EXPECT().SaveLocations(gomock.Any(), gomock.Len(1)).Return(nil)
				m.EXPECT().SaveLocations(gomock.Any(), gomock.Len(5)).Return(nil)
			},
		},
		{
			name: "drops_out_of_order",
			payloads: []workers.PersistLocationsPayload{
				{Locations: domain.DefaultLocations(), SavedAt: now.Add(time.Second)},
				{Locations: domain.DefaultLocations()[:1], SavedAt: now},
			},
			setupMocks: func(m *mocks.MockPersistence) {
				m.EXPECT().SaveLocations(gomock.Any(), gomock.Len(5)).Return(nil)
			},
		},
		{
			name: "store_error_is_returned_for_retry",
			payloads: []workers.PersistLocationsPayload{
				{Locations: domain.DefaultLocations(), SavedAt: now},
			},
			setupMocks: func(m *mocks.MockPersistence) {
				m.EXPECT().SaveLocations(gomock.Any(), gomock.Any()).Return(errors.New("timeout"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			store := mocks.NewMockPersistence(ctrl)
			tt.setupMocks(store)

			p := workers.NewPersistProcessor(store, helpers.TestLogger())
			var err error
			for _, payload := range tt.payloads {
				err = p.ProcessLocations(ctx, task(t, workers.TypePersistLocations, payload))
			}
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestPersistProcessor_Preferences(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	store := mocks.NewMockPersistence(ctrl)
	store.EXPECT().SavePreferences(gomock.Any(), gomock.Len(2)).Return(nil)

	p := workers.NewPersistProcessor(store, helpers.TestLogger())
	err := p.ProcessPreferences(ctx, task(t, workers.TypePersistPreferences, workers.PersistPreferencesPayload{
		Preferences: map[string]domain.LocationPreference{
			"A": domain.NewLocationPreference("A"),
			"B": domain.NewLocationPreference("B"),
		},
		SavedAt: time.Now().UTC(),
	}))
	require.NoError(t, err)
}

func TestPersistProcessor_BadPayloadSkipsRetry(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := workers.NewPersistProcessor(mocks.NewMockPersistence(ctrl), helpers.TestLogger())

	err := p.ProcessItems(context.Background(), asynq.NewTask(workers.TypePersistItems, []byte("{")))
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

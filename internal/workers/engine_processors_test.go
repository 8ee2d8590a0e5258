package workers_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/stockledger/internal/adapters/orderfeed"
	redis_a "github.com/ammerola/stockledger/internal/adapters/redis_adapter"
	"github.com/ammerola/stockledger/internal/adapters/storage"
	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
	"github.com/ammerola/stockledger/internal/core/services"
	"github.com/ammerola/stockledger/internal/workers"
	"github.com/ammerola/stockledger/test/helpers"
	"github.com/ammerola/stockledger/test/mocks"
)

type engineFixture struct {
	svc     *services.InventoryService
	cache   *redis_a.CacheManager
	objects *storage.LocalStorage
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	logger := helpers.TestLogger()
	reg := services.NewLocationRegistry(nil, logger)
	reg.SeedDefaults(context.Background())
	svc := services.NewInventoryService(reg, services.NewPreferenceModel(nil, logger), nil, logger)

	rd := helpers.SetupTestRedis(t)
	cache := redis_a.NewCacheManager(redis_a.NewCache(rd.Client, time.Minute, logger), logger)

	objects, err := storage.NewLocalStorage(t.TempDir(), logger)
	require.NoError(t, err)
	return &engineFixture{svc: svc, cache: cache, objects: objects}
}

func (f *engineFixture) upload(t *testing.T, jobID, filename, body string) workers.ImportPayload {
	t.Helper()
	key := workers.ImportObjectKey(jobID, filename)
	_, err := f.objects.Upload(context.Background(), key, strings.NewReader(body), "application/json")
	require.NoError(t, err)
	return workers.ImportPayload{JobID: jobID, ObjectKey: key, Filename: filename}
}

func TestImportProcessor_ProcessImport(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)
	p := workers.NewImportProcessor(f.svc, f.objects, orderfeed.NewReader(helpers.TestLogger()), f.cache, helpers.TestLogger())

	jobID := workers.NewImportJobID()
	payload := f.upload(t, jobID, "po-1.json", `{"id":"PO-1","lines":[
		{"code":"MILK-1","name":"Whole Milk","quantity":12,"category":"dairy"},
		{"code":"BREAD","name":"Bread","quantity":"x","category":"bakery"}
	]}`)

	importTask, err := workers.NewImportTask(payload)
	require.NoError(t, err)
	require.NoError(t, p.ProcessImport(ctx, importTask))

	var status workers.ImportStatus
	require.NoError(t, f.cache.ImportStatus(ctx, jobID, &status))
	assert.Equal(t, workers.ImportCompleted, status.State)
	assert.Equal(t, 1, status.Orders)
	assert.Equal(t, 2, status.Lines)
	assert.Equal(t, 2, status.Created)
	assert.Equal(t, 1, status.Parse.MalformedQuantities)
	assert.NotNil(t, status.FinishedAt)

	milk := f.svc.ListItems(ctx, ports.ItemFilter{SupplierCode: "MILK-1"})
	require.Len(t, milk, 1)
	assert.Equal(t, 12, milk[0].TotalQuantity)
	assert.Equal(t, []string{"PO-1"}, milk[0].OrderRefs)

	exists, err := f.objects.Exists(ctx, payload.ObjectKey)
	require.NoError(t, err)
	assert.False(t, exists, "processed upload is removed")

	// re-importing the same document does not double count
	payload = f.upload(t, jobID, "po-1.json", `{"id":"PO-1","lines":[{"code":"MILK-1","name":"Whole Milk","quantity":12,"category":"dairy"}]}`)
	require.NoError(t, p.ProcessImport(ctx, task(t, workers.TypeOrderImport, payload)))
	milk = f.svc.ListItems(ctx, ports.ItemFilter{SupplierCode: "MILK-1"})
	assert.Equal(t, 12, milk[0].TotalQuantity)
	require.NoError(t, f.cache.ImportStatus(ctx, jobID, &status))
	assert.Equal(t, 1, status.Unchanged)

	// a later document for the same product adds to it
	next := workers.NewImportJobID()
	payload = f.upload(t, next, "po-2.json", `{"id":"PO-2","lines":[{"code":"MILK-1","name":"Whole Milk","quantity":5,"category":"dairy"}]}`)
	require.NoError(t, p.ProcessImport(ctx, task(t, workers.TypeOrderImport, payload)))
	require.NoError(t, f.cache.ImportStatus(ctx, next, &status))
	assert.Equal(t, 1, status.Updated)
	milk = f.svc.ListItems(ctx, ports.ItemFilter{SupplierCode: "MILK-1"})
	assert.Equal(t, 17, milk[0].TotalQuantity)
	assert.Equal(t, []string{"PO-1", "PO-2"}, milk[0].OrderRefs)
}

func TestImportProcessor_Failures(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		payload func(*testing.T, *engineFixture) workers.ImportPayload
	}{
		{
			name: "missing_upload",
			payload: func(_ *testing.T, _ *engineFixture) workers.ImportPayload {
				return workers.ImportPayload{JobID: "job-missing", ObjectKey: "imports/job-missing/x.json", Filename: "x.json"}
			},
		},
		{
			name: "unparseable_document",
			payload: func(t *testing.T, f *engineFixture) workers.ImportPayload {
				return f.upload(t, "job-bad", "x.json", `{"id":`)
			},
		},
		{
			name: "unsupported_format",
			payload: func(t *testing.T, f *engineFixture) workers.ImportPayload {
				return f.upload(t, "job-csv", "x.csv", "a,b,c")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEngineFixture(t)
			p := workers.NewImportProcessor(f.svc, f.objects, orderfeed.NewReader(helpers.TestLogger()), f.cache, helpers.TestLogger())
			payload := tt.payload(t, f)

			err := p.ProcessImport(ctx, task(t, workers.TypeOrderImport, payload))
			require.Error(t, err)
			assert.ErrorIs(t, err, asynq.SkipRetry)

			var status workers.ImportStatus
			require.NoError(t, f.cache.ImportStatus(ctx, payload.JobID, &status))
			assert.Equal(t, workers.ImportFailed, status.State)
			assert.NotEmpty(t, status.Error)
		})
	}
}

func TestReceiveProcessor_ProcessReceive(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)
	p := workers.NewReceiveProcessor(f.svc, f.cache, helpers.TestLogger())

	order := helpers.NewTestOrder("PO-9", time.Now().UTC(), helpers.NewTestLine("MILK-1", "Whole Milk", 5, domain.CategoryDairy))
	receiveTask, err := workers.NewReceiveTask(workers.ReceivePayload{
		Order: order,
		Decisions: []ports.Decision{
			{Code: "MILK-1", Allocations: []domain.Allocation{{Location: domain.LocationCoolerB1, Quantity: 5}}},
		},
	})
	require.NoError(t, err)

	require.NoError(t, p.ProcessReceive(ctx, receiveTask))
	// redelivery is ignored
	require.NoError(t, p.ProcessReceive(ctx, receiveTask))

	items := f.svc.ListItems(ctx, ports.ItemFilter{SupplierCode: "MILK-1"})
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].TotalQuantity)

	// releasing the claim allows the line to be received again
	require.NoError(t, f.cache.ReleaseReceipt(ctx, "PO-9", "MILK-1"))
	require.NoError(t, p.ProcessReceive(ctx, receiveTask))
	items = f.svc.ListItems(ctx, ports.ItemFilter{SupplierCode: "MILK-1"})
	assert.Equal(t, 10, items[0].TotalQuantity)
}

func TestReceiveProcessor_Receive_ReportsDuplicate(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)
	p := workers.NewReceiveProcessor(f.svc, f.cache, helpers.TestLogger())

	order := helpers.NewTestOrder("PO-10", time.Now().UTC(), helpers.NewTestLine("EGG-1", "Eggs", 12, domain.CategoryDairy))
	decisions := []ports.Decision{{Code: "EGG-1", Allocations: []domain.Allocation{{Location: domain.LocationCoolerB1, Quantity: 12}}}}

	res, err := p.Receive(ctx, order, decisions)
	require.NoError(t, err)
	require.Len(t, res.Applied, 1)

	_, err = p.Receive(ctx, order, decisions)
	assert.ErrorIs(t, err, workers.ErrAlreadyReceived)
}

func TestReceiveProcessor_Receive_Retries(t *testing.T) {
	ctx := context.Background()
	order := helpers.NewTestOrder("PO-11", time.Now().UTC(),
		helpers.NewTestLine("MILK-1", "Whole Milk", 6, domain.CategoryDairy),
		helpers.NewTestLine("EGG-1", "Eggs", 12, domain.CategoryDairy),
	)
	milk := ports.Decision{Code: "MILK-1", Allocations: []domain.Allocation{{Location: domain.LocationCoolerB1, Quantity: 6}}}
	eggs := ports.Decision{Code: "EGG-1", Allocations: []domain.Allocation{{Location: domain.LocationCoolerB2, Quantity: 12}}}

	tests := []struct {
		name      string
		first     []ports.Decision
		retry     []ports.Decision
		wantKinds []string
		wantTotal map[string]int
	}{
		{
			name: "failed_decision_can_be_corrected",
			first: []ports.Decision{
				{Code: "MILK-1", Allocations: []domain.Allocation{{Location: "Coolr-B1", Quantity: 6}}},
				eggs,
			},
			retry:     []ports.Decision{milk},
			wantKinds: []string{"unknown_location"},
			wantTotal: map[string]int{"MILK-1": 6, "EGG-1": 12},
		},
		{
			name:      "partial_receipt_then_remaining_line",
			first:     []ports.Decision{eggs},
			retry:     []ports.Decision{milk},
			wantTotal: map[string]int{"MILK-1": 6, "EGG-1": 12},
		},
		{
			name:      "retry_skips_lines_already_booked",
			first:     []ports.Decision{eggs},
			retry:     []ports.Decision{eggs, milk},
			wantTotal: map[string]int{"MILK-1": 6, "EGG-1": 12},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEngineFixture(t)
			p := workers.NewReceiveProcessor(f.svc, f.cache, helpers.TestLogger())

			res, err := p.Receive(ctx, order, tt.first)
			require.NoError(t, err)
			var kinds []string
			for _, failure := range res.Failures {
				kinds = append(kinds, failure.Kind)
			}
			assert.Equal(t, tt.wantKinds, kinds)

			res, err = p.Receive(ctx, order, tt.retry)
			require.NoError(t, err)
			require.NotEmpty(t, res.Applied)
			last := res.Applied[len(res.Applied)-1]
			assert.Equal(t, "MILK-1", last.Code)
			assert.Equal(t, len(tt.retry)-1, last.Decision)

			for code, want := range tt.wantTotal {
				items := f.svc.ListItems(ctx, ports.ItemFilter{SupplierCode: code})
				require.Len(t, items, 1, code)
				assert.Equal(t, want, items[0].TotalQuantity, code)
			}

			// every line is booked now
			_, err = p.Receive(ctx, order, []ports.Decision{milk, eggs})
			assert.ErrorIs(t, err, workers.ErrAlreadyReceived)
		})
	}
}

func TestReceiveProcessor_Receive_ReportsSkippedLines(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)
	p := workers.NewReceiveProcessor(f.svc, f.cache, helpers.TestLogger())

	order := helpers.NewTestOrder("PO-12", time.Now().UTC(),
		helpers.NewTestLine("MILK-1", "Whole Milk", 6, domain.CategoryDairy),
		helpers.NewTestLine("EGG-1", "Eggs", 12, domain.CategoryDairy),
	)
	milk := ports.Decision{Code: "MILK-1", Allocations: []domain.Allocation{{Location: domain.LocationCoolerB1, Quantity: 6}}}
	eggs := ports.Decision{Code: "EGG-1", Allocations: []domain.Allocation{{Location: domain.LocationCoolerB2, Quantity: 12}}}

	_, err := p.Receive(ctx, order, []ports.Decision{milk})
	require.NoError(t, err)

	res, err := p.Receive(ctx, order, []ports.Decision{milk, eggs})
	require.NoError(t, err)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "MILK-1", res.Failures[0].Code)
	assert.Equal(t, "order_received", res.Failures[0].Kind)
	assert.ErrorIs(t, res.Failures[0].Err, workers.ErrAlreadyReceived)
	require.Len(t, res.Applied, 1)
	assert.Equal(t, 1, res.Applied[0].Decision)

	items := f.svc.ListItems(ctx, ports.ItemFilter{SupplierCode: "MILK-1"})
	require.Len(t, items, 1)
	assert.Equal(t, 6, items[0].TotalQuantity)
}

func TestReceiveProcessor_RequiresOrderID(t *testing.T) {
	f := newEngineFixture(t)
	p := workers.NewReceiveProcessor(f.svc, nil, helpers.TestLogger())

	err := p.ProcessReceive(context.Background(), task(t, workers.TypeOrderReceive, workers.ReceivePayload{}))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestSnapshotProcessor_FlushesEngine(t *testing.T) {
	f := newEngineFixture(t)
	ctrl := gomock.NewController(t)
	dst := mocks.NewMockPersistence(ctrl)
	dst.EXPECT().SaveLocations(gomock.Any(), gomock.Len(5)).Return(nil)
	dst.EXPECT().SavePreferences(gomock.Any(), gomock.Any()).Return(nil)
	dst.EXPECT().SaveItems(gomock.Any(), gomock.Len(0)).Return(nil)

	p := workers.NewSnapshotProcessor(f.svc, dst, helpers.TestLogger())
	require.NoError(t, p.ProcessSnapshot(context.Background(), workers.NewSnapshotTask()))
}

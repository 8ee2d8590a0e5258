// internal/handlers/api_test.go
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	redis_a "github.com/ammerola/stockledger/internal/adapters/redis_adapter"
	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
	"github.com/ammerola/stockledger/internal/core/services"
	"github.com/ammerola/stockledger/internal/handlers"
	"github.com/ammerola/stockledger/internal/handlers/middleware"
	"github.com/ammerola/stockledger/internal/workers"
	"github.com/ammerola/stockledger/test/helpers"
)

// APISuite drives the full route table against an in-memory engine
type APISuite struct {
	suite.Suite
	svc    *services.InventoryService
	cache  *redis_a.CacheManager
	server *httptest.Server
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func (s *APISuite) SetupTest() {
	logger := helpers.TestLogger()
	reg := services.NewLocationRegistry(nil, logger)
	reg.SeedDefaults(context.Background())
	s.svc = services.NewInventoryService(reg, services.NewPreferenceModel(nil, logger), nil, logger)

	rd := helpers.SetupTestRedis(s.T())
	s.cache = redis_a.NewCacheManager(redis_a.NewCache(rd.Client, time.Minute, logger), logger)

	cfg := helpers.LoadTestConfig()
	routes := handlers.Routes{
		Health:    handlers.NewHealthHandler(s.svc, handlers.HealthDeps{Redis: rd.Client}, cfg, logger),
		Locations: handlers.NewLocationHandler(s.svc, s.cache, logger),
		Inventory: handlers.NewInventoryHandler(s.svc, s.cache, time.Minute, logger),
		Orders: handlers.NewOrderHandler(s.svc, handlers.OrderHandlerConfig{
			Receiver: workers.NewReceiveProcessor(s.svc, s.cache, logger),
			Status:   s.cache,
		}, logger),
		Dashboard: handlers.NewDashboardHandler(s.svc, s.cache, logger),
	}
	mux := http.NewServeMux()
	routes.Register(mux)

	s.server = httptest.NewServer(middleware.Chain(mux,
		middleware.RequestID,
		middleware.Logger(logger),
		middleware.Recovery(logger),
	))
	s.T().Cleanup(s.server.Close)
}

func (s *APISuite) do(method, path string, body interface{}, dest interface{}) int {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.server.URL+path, reader)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	if dest != nil && resp.StatusCode != http.StatusNoContent {
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(dest))
	}
	return resp.StatusCode
}

func (s *APISuite) createMilk(qty int) domain.InventoryItem {
	var item domain.InventoryItem
	status := s.do("POST", "/api/v1/items", map[string]interface{}{
		"name":          "Whole Milk",
		"supplier_code": "MILK-1",
		"category":      "dairy",
		"unit_price":    "1.20",
		"min_quantity":  5,
		"allocations":   []domain.Allocation{{Location: domain.LocationCoolerB1, Quantity: qty}},
	}, &item)
	s.Require().Equal(http.StatusCreated, status)
	return item
}

func (s *APISuite) TestLocations_SeededDefaults() {
	var resp struct {
		Locations []domain.StorageLocation `json:"locations"`
		Total     int                      `json:"total"`
	}
	s.Equal(http.StatusOK, s.do("GET", "/api/v1/locations", nil, &resp))
	s.Equal(5, resp.Total)
}

func (s *APISuite) TestLocations_Lifecycle() {
	var created domain.StorageLocation
	status := s.do("POST", "/api/v1/locations", map[string]interface{}{
		"name": "Cooler-B3", "type": "chilled", "capacity": 300,
	}, &created)
	s.Require().Equal(http.StatusCreated, status)
	s.Equal(domain.LocationChilled, created.Type)

	var errResp handlers.ErrorResponse
	s.Equal(http.StatusConflict, s.do("POST", "/api/v1/locations", map[string]interface{}{
		"name": "Cooler-B3", "type": "chilled",
	}, &errResp))
	s.Equal("location_exists", errResp.Kind)

	var updated domain.StorageLocation
	s.Equal(http.StatusOK, s.do("PUT", "/api/v1/locations/Cooler-B3", map[string]interface{}{"capacity": 450}, &updated))
	s.Equal(450, updated.Capacity)

	s.Equal(http.StatusNoContent, s.do("DELETE", "/api/v1/locations/Cooler-B3", nil, nil))
}

func (s *APISuite) TestItems_LedgerOperations() {
	item := s.createMilk(10)
	s.Equal(10, item.TotalQuantity)
	base := "/api/v1/items/" + item.ID.String()

	var moved domain.InventoryItem
	s.Require().Equal(http.StatusOK, s.do("POST", base+"/transfer", map[string]interface{}{
		"from": domain.LocationCoolerB1, "to": domain.LocationCoolerB2, "quantity": 4,
	}, &moved))
	s.Equal(6, moved.Ledger.Get(domain.LocationCoolerB1))
	s.Equal(4, moved.Ledger.Get(domain.LocationCoolerB2))
	s.Equal(10, moved.TotalQuantity)

	var errResp handlers.ErrorResponse
	s.Equal(http.StatusConflict, s.do("POST", base+"/transfer", map[string]interface{}{
		"from": domain.LocationCoolerB2, "to": domain.LocationCoolerB1, "quantity": 5,
	}, &errResp))
	s.Equal("insufficient_stock", errResp.Kind)
	s.Equal(domain.LocationCoolerB2, errResp.Location)

	var adjusted domain.InventoryItem
	s.Require().Equal(http.StatusOK, s.do("POST", base+"/adjust", map[string]int{"quantity": 20}, &adjusted))
	s.Equal(20, adjusted.TotalQuantity)
	s.Equal(12, adjusted.Ledger.Get(domain.LocationCoolerB1))
	s.Equal(8, adjusted.Ledger.Get(domain.LocationCoolerB2))

	var rec domain.CountRecord
	s.Require().Equal(http.StatusOK, s.do("POST", base+"/count", map[string]interface{}{
		"physical_count": 18, "counted_by": "night shift",
	}, &rec))
	s.Equal(domain.CountDiscrepancy, rec.Status)
	s.Equal(20, rec.RecordedQuantity)

	var reconciled domain.InventoryItem
	s.Require().Equal(http.StatusOK, s.do("POST", base+"/count/reconcile", nil, &reconciled))
	s.Equal(18, reconciled.TotalQuantity)

	var list struct {
		Total int `json:"total"`
	}
	s.Equal(http.StatusOK, s.do("GET", "/api/v1/items?location="+domain.LocationCoolerB2, nil, &list))
	s.Equal(1, list.Total)
}

func (s *APISuite) TestLocations_RenameMigratesStock() {
	item := s.createMilk(10)

	var renamed map[string]string
	s.Require().Equal(http.StatusOK, s.do("POST", "/api/v1/locations/"+domain.LocationCoolerB1+"/rename",
		map[string]string{"name": "Cooler-Main"}, &renamed))
	s.Equal("Cooler-Main", renamed["to"])

	var got domain.InventoryItem
	s.Require().Equal(http.StatusOK, s.do("GET", "/api/v1/items/"+item.ID.String(), nil, &got))
	s.Equal(10, got.Ledger.Get("Cooler-Main"))
	s.Equal(0, got.Ledger.Get(domain.LocationCoolerB1))

	var errResp handlers.ErrorResponse
	s.Equal(http.StatusConflict, s.do("DELETE", "/api/v1/locations/Cooler-Main", nil, &errResp))
	s.Equal("location_in_use", errResp.Kind)
}

func (s *APISuite) TestOrders_ReceiveOnce() {
	order := helpers.NewTestOrder("PO-77", time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		helpers.NewTestLine("EGG-1", "Free Range Eggs", 12, domain.CategoryChilled))
	body := map[string]interface{}{
		"order": order,
		"decisions": []ports.Decision{{
			Code:        "EGG-1",
			Allocations: []domain.Allocation{{Location: domain.LocationCoolerB1, Quantity: 12}},
		}},
	}

	var res ports.ReceiveResult
	s.Require().Equal(http.StatusOK, s.do("POST", "/api/v1/orders/receive", body, &res))
	s.Require().Len(res.Applied, 1)
	s.True(res.Applied[0].Created)
	s.Equal(12, res.Applied[0].TotalQuantity)

	var errResp handlers.ErrorResponse
	s.Equal(http.StatusConflict, s.do("POST", "/api/v1/orders/receive", body, &errResp))
	s.Equal("order_received", errResp.Kind)

	var pref domain.LocationPreference
	s.Equal(http.StatusOK, s.do("GET", "/api/v1/preferences/EGG-1", nil, &pref))
	s.Contains(pref.Ratios, domain.LocationCoolerB1)

	var suggestion handlers.SuggestionResponse
	s.Require().Equal(http.StatusOK, s.do("GET", "/api/v1/suggestions?code=EGG-1&quantity=24&category=chilled", nil, &suggestion))
	s.Require().NotEmpty(suggestion.Allocations)
	total := 0
	for _, a := range suggestion.Allocations {
		total += a.Quantity
	}
	s.Equal(24, total)
}

func (s *APISuite) TestOrders_ReceiveRetryAfterFailedDecision() {
	order := helpers.NewTestOrder("PO-79", time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC),
		helpers.NewTestLine("YOG-1", "Greek Yogurt", 8, domain.CategoryDairy))
	decide := func(location string) map[string]interface{} {
		return map[string]interface{}{
			"order": order,
			"decisions": []ports.Decision{{
				Code:        "YOG-1",
				Allocations: []domain.Allocation{{Location: location, Quantity: 8}},
			}},
		}
	}

	var res ports.ReceiveResult
	s.Require().Equal(http.StatusOK, s.do("POST", "/api/v1/orders/receive", decide("Coolr-B1"), &res))
	s.Empty(res.Applied)
	s.Require().Len(res.Failures, 1)
	s.Equal("unknown_location", res.Failures[0].Kind)

	res = ports.ReceiveResult{}
	s.Require().Equal(http.StatusOK, s.do("POST", "/api/v1/orders/receive", decide(domain.LocationCoolerB1), &res))
	s.Require().Len(res.Applied, 1)
	s.Equal(8, res.Applied[0].TotalQuantity)

	var errResp handlers.ErrorResponse
	s.Equal(http.StatusConflict, s.do("POST", "/api/v1/orders/receive", decide(domain.LocationCoolerB1), &errResp))
	s.Equal("order_received", errResp.Kind)
}

func (s *APISuite) TestOrders_PreviewDoesNotMutate() {
	order := helpers.NewTestOrder("PO-78", time.Now(),
		helpers.NewTestLine("PEAS-1", "Frozen Peas", 30, domain.CategoryFrozen))

	var res ports.ReceiveResult
	s.Require().Equal(http.StatusOK, s.do("POST", "/api/v1/orders/receive", map[string]interface{}{"order": order}, &res))
	s.Require().Len(res.Suggestions, 1)
	s.Empty(res.Applied)
	s.Empty(s.svc.ListItems(context.Background(), ports.ItemFilter{}))
}

func (s *APISuite) TestOrders_ConsolidateIsIdempotent() {
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	body := map[string]interface{}{"orders": []domain.SourceOrder{
		helpers.NewTestOrder("PO-1", date, helpers.NewTestLine("RICE-5", "Basmati Rice", 4, domain.CategoryDry)),
		helpers.NewTestOrder("PO-2", date.AddDate(0, 0, 1), helpers.NewTestLine("RICE-5", "Basmati Rice", 6, domain.CategoryDry)),
	}}

	var first ports.ConsolidationResult
	s.Require().Equal(http.StatusOK, s.do("POST", "/api/v1/orders/consolidate", body, &first))
	s.Equal(1, first.Created)
	s.Require().Len(first.Items, 1)
	s.Equal(10, first.Items[0].TotalQuantity)

	var second ports.ConsolidationResult
	s.Require().Equal(http.StatusOK, s.do("POST", "/api/v1/orders/consolidate", body, &second))
	s.Zero(second.Updated)
	s.Equal(1, second.Unchanged)
	s.Equal(10, second.Items[0].TotalQuantity)
}

func (s *APISuite) TestOrders_ImportUnavailableWithoutQueue() {
	s.Equal(http.StatusServiceUnavailable, s.do("POST", "/api/v1/orders/import", nil, nil))
	s.Equal(http.StatusNotFound, s.do("GET", "/api/v1/orders/import/unknown-job", nil, nil))
}

func (s *APISuite) TestDashboard() {
	s.createMilk(3)

	var data handlers.DashboardData
	s.Require().Equal(http.StatusOK, s.do("GET", "/api/v1/dashboard", nil, &data))
	s.Equal(1, data.Summary.TotalItems)
	s.Equal(3, data.Summary.TotalUnits)
	s.Equal("3.6", data.Summary.StockValue.String())
	s.Equal(1, data.Summary.LowStockItems)
	s.Len(data.Locations, 5)
	s.NotNil(data.Cache)
}

func (s *APISuite) TestHealth() {
	var health handlers.HealthStatus
	s.Equal(http.StatusOK, s.do("GET", "/health", nil, &health))
	s.Equal("healthy", health.Status)
	s.Equal(5, health.Engine.Locations)
	s.Contains(health.Services, "redis")

	var ready map[string]interface{}
	s.Equal(http.StatusOK, s.do("GET", "/ready", nil, &ready))
	s.Equal(true, ready["ready"])
}

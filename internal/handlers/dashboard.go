// internal/handlers/dashboard.go
package handlers

import (
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	redis_a "github.com/ammerola/stockledger/internal/adapters/redis_adapter"
	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

// CacheStatsSource reports suggestion cache hit rates
type CacheStatsSource interface {
	GetStats() redis_a.CacheStats
}

// DashboardHandler serves a stock overview computed from the engine state
type DashboardHandler struct {
	service ports.InventoryService
	cache   CacheStatsSource
	logger  *slog.Logger
}

// NewDashboardHandler creates a new dashboard handler. cache may be nil.
func NewDashboardHandler(service ports.InventoryService, cache CacheStatsSource, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		cache:   cache,
		logger:  logger.With(slog.String("handler", "dashboard")),
	}
}

type DashboardData struct {
	Summary           DashboardSummary      `json:"summary"`
	CategoryBreakdown []CategoryBreakdown   `json:"category_breakdown"`
	Locations         []LocationUtilization `json:"locations"`
	LowStock          []StockAlert          `json:"low_stock"`
	Overstock         []StockAlert          `json:"overstock"`
	Discrepancies     []StockAlert          `json:"discrepancies"`
	Cache             *redis_a.CacheStats   `json:"cache,omitempty"`
	Timestamp         time.Time             `json:"timestamp"`
}

type DashboardSummary struct {
	TotalItems     int             `json:"total_items"`
	TotalUnits     int             `json:"total_units"`
	StockValue     decimal.Decimal `json:"stock_value"`
	LowStockItems  int             `json:"low_stock_items"`
	OverstockItems int             `json:"overstock_items"`
	PendingCounts  int             `json:"pending_counts"`
}

type CategoryBreakdown struct {
	Category domain.Category `json:"category"`
	Items    int             `json:"items"`
	Units    int             `json:"units"`
	Value    decimal.Decimal `json:"value"`
}

type LocationUtilization struct {
	Name         string              `json:"name"`
	Type         domain.LocationType `json:"type"`
	Capacity     int                 `json:"capacity"`
	CurrentUsage int                 `json:"current_usage"`
	Utilization  float64             `json:"utilization"`
}

// StockAlert points at an item needing operator attention
type StockAlert struct {
	ItemID        string `json:"item_id"`
	Name          string `json:"name"`
	Code          string `json:"code"`
	TotalQuantity int    `json:"total_quantity"`
	Threshold     int    `json:"threshold,omitempty"`
}

// GetDashboard handles GET /api/v1/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	items := h.service.ListItems(ctx, ports.ItemFilter{})
	locations := h.service.ListLocations(ctx)

	data := DashboardData{
		Summary:       DashboardSummary{TotalItems: len(items), StockValue: decimal.Zero},
		LowStock:      []StockAlert{},
		Overstock:     []StockAlert{},
		Discrepancies: []StockAlert{},
		Timestamp:     time.Now().UTC(),
	}

	byCategory := make(map[domain.Category]*CategoryBreakdown)
	for _, item := range items {
		value := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.TotalQuantity)))
		data.Summary.TotalUnits += item.TotalQuantity
		data.Summary.StockValue = data.Summary.StockValue.Add(value)

		cb, ok := byCategory[item.Category]
		if !ok {
			cb = &CategoryBreakdown{Category: item.Category, Value: decimal.Zero}
			byCategory[item.Category] = cb
		}
		cb.Items++
		cb.Units += item.TotalQuantity
		cb.Value = cb.Value.Add(value)

		alert := StockAlert{
			ItemID:        item.ID.String(),
			Name:          item.DisplayName(domain.DefaultLocale),
			Code:          item.SupplierCode,
			TotalQuantity: item.TotalQuantity,
		}
		if item.BelowMinimum() {
			a := alert
			a.Threshold = item.MinQuantity
			data.LowStock = append(data.LowStock, a)
		}
		if item.AboveMaximum() {
			a := alert
			a.Threshold = item.MaxQuantity
			data.Overstock = append(data.Overstock, a)
		}
		if item.Count != nil && item.Count.Status == domain.CountDiscrepancy {
			a := alert
			a.Threshold = item.Count.PhysicalCount
			data.Discrepancies = append(data.Discrepancies, a)
		}
	}
	data.Summary.LowStockItems = len(data.LowStock)
	data.Summary.OverstockItems = len(data.Overstock)
	data.Summary.PendingCounts = len(data.Discrepancies)

	data.CategoryBreakdown = make([]CategoryBreakdown, 0, len(byCategory))
	for _, cb := range byCategory {
		data.CategoryBreakdown = append(data.CategoryBreakdown, *cb)
	}
	sort.Slice(data.CategoryBreakdown, func(i, j int) bool {
		return data.CategoryBreakdown[i].Category < data.CategoryBreakdown[j].Category
	})

	data.Locations = make([]LocationUtilization, 0, len(locations))
	for _, loc := range locations {
		u := LocationUtilization{
			Name:         loc.Name,
			Type:         loc.Type,
			Capacity:     loc.Capacity,
			CurrentUsage: loc.CurrentUsage,
		}
		if loc.Capacity > 0 {
			u.Utilization = float64(loc.CurrentUsage) / float64(loc.Capacity)
		}
		data.Locations = append(data.Locations, u)
	}

	if h.cache != nil {
		stats := h.cache.GetStats()
		data.Cache = &stats
	}

	respondJSON(h.logger, w, http.StatusOK, data)
}

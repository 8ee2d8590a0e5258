// internal/handlers/inventory.go
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	redis_a "github.com/ammerola/stockledger/internal/adapters/redis_adapter"
	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
	"github.com/ammerola/stockledger/internal/pkg/logger"
)

// SuggestionCache serves placement suggestions from a cache
type SuggestionCache interface {
	Suggestion(ctx context.Context, key string, dest interface{}, ttl time.Duration, compute func() (interface{}, error)) error
}

// InventoryHandler handles item, ledger, count and suggestion requests
type InventoryHandler struct {
	service    ports.InventoryService
	cache      SuggestionCache
	suggestTTL time.Duration
	logger     *slog.Logger
}

// NewInventoryHandler creates a new inventory handler. cache may be nil.
func NewInventoryHandler(service ports.InventoryService, cache SuggestionCache, suggestTTL time.Duration, logger *slog.Logger) *InventoryHandler {
	return &InventoryHandler{
		service:    service,
		cache:      cache,
		suggestTTL: suggestTTL,
		logger:     logger.With(slog.String("handler", "inventory")),
	}
}

// ListItems handles GET /api/v1/items
func (h *InventoryHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ports.ItemFilter{
		Category:     q.Get("category"),
		Location:     q.Get("location"),
		SupplierCode: q.Get("code"),
	}
	if v := q.Get("low_stock"); v != "" {
		low, err := strconv.ParseBool(v)
		if err != nil {
			respondError(h.logger, w, http.StatusBadRequest, "low_stock must be a boolean")
			return
		}
		filter.LowStock = low
	}

	items := h.service.ListItems(r.Context(), filter)
	respondJSON(h.logger, w, http.StatusOK, map[string]interface{}{
		"items": items,
		"total": len(items),
	})
}

// GetItem handles GET /api/v1/items/{id}
func (h *InventoryHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(h.logger, w, http.StatusBadRequest, "Invalid item ID format")
		return
	}

	item, err := h.service.GetItem(logger.WithItemID(r.Context(), id), id)
	if err != nil {
		respondServiceError(h.logger, w, r, "get item", err)
		return
	}
	respondJSON(h.logger, w, http.StatusOK, item)
}

// CreateItemRequest is the body of POST /api/v1/items
type CreateItemRequest struct {
	Name            string              `json:"name"`
	Names           map[string]string   `json:"names,omitempty"`
	SupplierCode    string              `json:"supplier_code"`
	SupplierID      string              `json:"supplier_id,omitempty"`
	Category        string              `json:"category"`
	Unit            string              `json:"unit,omitempty"`
	UnitPrice       decimal.Decimal     `json:"unit_price"`
	MinQuantity     int                 `json:"min_quantity"`
	MaxQuantity     int                 `json:"max_quantity"`
	PrimaryLocation string              `json:"primary_location,omitempty"`
	Allocations     []domain.Allocation `json:"allocations,omitempty"`
}

// ToDomain converts the request to a domain model
func (req *CreateItemRequest) ToDomain() *domain.InventoryItem {
	item := domain.NewInventoryItem(req.Name, req.SupplierCode, domain.Category(req.Category))
	for locale, name := range req.Names {
		if strings.TrimSpace(name) != "" {
			item.Names[locale] = strings.TrimSpace(name)
		}
	}
	item.SupplierID = req.SupplierID
	item.Unit = req.Unit
	item.UnitPrice = req.UnitPrice
	item.MinQuantity = req.MinQuantity
	item.MaxQuantity = req.MaxQuantity
	item.PrimaryLocation = req.PrimaryLocation
	return item
}

// CreateItem handles POST /api/v1/items. Initial allocations are applied after the item exists.
func (h *InventoryHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req CreateItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx := r.Context()
	item, err := h.service.CreateItem(ctx, req.ToDomain())
	if err != nil {
		respondServiceError(h.logger, w, r, "create item", err)
		return
	}

	if len(req.Allocations) > 0 {
		ctx = logger.WithItemID(ctx, item.ID)
		item, err = h.service.Allocate(ctx, item.ID, req.Allocations)
		if err != nil {
			respondServiceError(h.logger, w, r, "allocate new item", err)
			return
		}
	}

	h.logger.InfoContext(ctx, "item created",
		slog.String("item_id", item.ID.String()),
		slog.String("code", item.SupplierCode))
	respondJSON(h.logger, w, http.StatusCreated, item)
}

// AllocateRequest is the body of PUT /api/v1/items/{id}/allocations
type AllocateRequest struct {
	Allocations []domain.Allocation `json:"allocations"`
}

// Allocate handles PUT /api/v1/items/{id}/allocations
func (h *InventoryHandler) Allocate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(h.logger, w, http.StatusBadRequest, "Invalid item ID format")
		return
	}
	var req AllocateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Allocations) == 0 {
		respondError(h.logger, w, http.StatusBadRequest, "allocations are required")
		return
	}

	item, err := h.service.Allocate(logger.WithItemID(r.Context(), id), id, req.Allocations)
	if err != nil {
		respondServiceError(h.logger, w, r, "allocate", err)
		return
	}
	respondJSON(h.logger, w, http.StatusOK, item)
}

// TransferRequest is the body of POST /api/v1/items/{id}/transfer
type TransferRequest struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Quantity int    `json:"quantity"`
}

// Transfer handles POST /api/v1/items/{id}/transfer
func (h *InventoryHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(h.logger, w, http.StatusBadRequest, "Invalid item ID format")
		return
	}
	var req TransferRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	item, err := h.service.Transfer(logger.WithItemID(r.Context(), id), id, req.From, req.To, req.Quantity)
	if err != nil {
		respondServiceError(h.logger, w, r, "transfer", err)
		return
	}
	respondJSON(h.logger, w, http.StatusOK, item)
}

// AdjustRequest is the body of POST /api/v1/items/{id}/adjust
type AdjustRequest struct {
	Quantity *int `json:"quantity"`
}

// Adjust handles POST /api/v1/items/{id}/adjust
func (h *InventoryHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(h.logger, w, http.StatusBadRequest, "Invalid item ID format")
		return
	}
	var req AdjustRequest
	if err := decodeJSON(w, r, &req); err != nil || req.Quantity == nil {
		respondError(h.logger, w, http.StatusBadRequest, "quantity is required")
		return
	}

	item, err := h.service.AdjustTotalQuantity(logger.WithItemID(r.Context(), id), id, *req.Quantity)
	if err != nil {
		respondServiceError(h.logger, w, r, "adjust", err)
		return
	}
	respondJSON(h.logger, w, http.StatusOK, item)
}

// CountRequest is the body of POST /api/v1/items/{id}/count
type CountRequest struct {
	PhysicalCount *int   `json:"physical_count"`
	CountedBy     string `json:"counted_by"`
	Note          string `json:"note,omitempty"`
}

// RecordCount handles POST /api/v1/items/{id}/count
func (h *InventoryHandler) RecordCount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(h.logger, w, http.StatusBadRequest, "Invalid item ID format")
		return
	}
	var req CountRequest
	if err := decodeJSON(w, r, &req); err != nil || req.PhysicalCount == nil {
		respondError(h.logger, w, http.StatusBadRequest, "physical_count is required")
		return
	}

	rec, err := h.service.RecordCount(logger.WithItemID(r.Context(), id), id, *req.PhysicalCount, req.CountedBy, req.Note)
	if err != nil {
		respondServiceError(h.logger, w, r, "record count", err)
		return
	}
	respondJSON(h.logger, w, http.StatusOK, rec)
}

// ReconcileCount handles POST /api/v1/items/{id}/count/reconcile
func (h *InventoryHandler) ReconcileCount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(h.logger, w, http.StatusBadRequest, "Invalid item ID format")
		return
	}

	item, err := h.service.ReconcileCount(logger.WithItemID(r.Context(), id), id)
	if err != nil {
		respondServiceError(h.logger, w, r, "reconcile count", err)
		return
	}
	respondJSON(h.logger, w, http.StatusOK, item)
}

// GetPreference handles GET /api/v1/preferences/{code}
func (h *InventoryHandler) GetPreference(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	pref, ok := h.service.Preference(r.Context(), code)
	if !ok {
		respondError(h.logger, w, http.StatusNotFound, "No placement history for code")
		return
	}
	respondJSON(h.logger, w, http.StatusOK, pref)
}

// SuggestionResponse is the body of GET /api/v1/suggestions
type SuggestionResponse struct {
	Code        string              `json:"code"`
	Quantity    int                 `json:"quantity"`
	Category    domain.Category     `json:"category"`
	Allocations []domain.Allocation `json:"allocations"`
}

// Suggest handles GET /api/v1/suggestions?code=&quantity=&category=
func (h *InventoryHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	code := strings.TrimSpace(q.Get("code"))
	qty, err := strconv.Atoi(q.Get("quantity"))
	if err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "quantity must be an integer")
		return
	}
	category := domain.NormalizeCategory(q.Get("category"))

	compute := func() (interface{}, error) {
		allocs, err := h.service.Suggest(ctx, code, qty, category)
		if err != nil {
			return nil, err
		}
		return SuggestionResponse{Code: code, Quantity: qty, Category: category, Allocations: allocs}, nil
	}

	var resp SuggestionResponse
	if h.cache != nil && code != "" && qty > 0 {
		key := redis_a.SuggestionKey(code, qty, string(category))
		err := h.cache.Suggestion(ctx, key, &resp, h.suggestTTL, compute)
		if err == nil {
			respondJSON(h.logger, w, http.StatusOK, resp)
			return
		}
		h.logger.WarnContext(ctx, "suggestion cache unavailable, computing directly",
			slog.String("error", err.Error()))
	}

	out, err := compute()
	if err != nil {
		respondServiceError(h.logger, w, r, "suggest", err)
		return
	}
	respondJSON(h.logger, w, http.StatusOK, out)
}

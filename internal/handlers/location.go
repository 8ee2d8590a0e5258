// internal/handlers/location.go
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
	"github.com/ammerola/stockledger/internal/pkg/logger"
)

// SuggestionInvalidator drops cached suggestions. An empty code drops all of them.
type SuggestionInvalidator interface {
	InvalidateSuggestions(ctx context.Context, code string) error
}

// LocationHandler serves the storage location registry
type LocationHandler struct {
	service     ports.InventoryService
	suggestions SuggestionInvalidator
	logger      *slog.Logger
}

// NewLocationHandler creates a new location handler. suggestions may be nil.
func NewLocationHandler(service ports.InventoryService, suggestions SuggestionInvalidator, logger *slog.Logger) *LocationHandler {
	return &LocationHandler{
		service:     service,
		suggestions: suggestions,
		logger:      logger.With(slog.String("handler", "location")),
	}
}

// CreateLocationRequest is the body of POST /api/v1/locations
type CreateLocationRequest struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Capacity    int    `json:"capacity"`
	Temperature string `json:"temperature,omitempty"`
}

// UpdateLocationRequest is the body of PUT /api/v1/locations/{name}. Omitted fields are kept.
type UpdateLocationRequest struct {
	Type        *string `json:"type,omitempty"`
	Capacity    *int    `json:"capacity,omitempty"`
	Temperature *string `json:"temperature,omitempty"`
}

// RenameLocationRequest is the body of POST /api/v1/locations/{name}/rename
type RenameLocationRequest struct {
	Name string `json:"name"`
}

// ListLocations handles GET /api/v1/locations
func (h *LocationHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	locations := h.service.ListLocations(r.Context())
	respondJSON(h.logger, w, http.StatusOK, map[string]interface{}{
		"locations": locations,
		"total":     len(locations),
	})
}

// CreateLocation handles POST /api/v1/locations
func (h *LocationHandler) CreateLocation(w http.ResponseWriter, r *http.Request) {
	var req CreateLocationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	loc := domain.StorageLocation{
		Name:        req.Name,
		Type:        domain.LocationType(req.Type),
		Capacity:    req.Capacity,
		Temperature: req.Temperature,
	}
	ctx := logger.WithLocation(r.Context(), req.Name)
	if err := h.service.AddLocation(ctx, loc); err != nil {
		respondServiceError(h.logger, w, r.WithContext(ctx), "add location", err)
		return
	}

	h.logger.InfoContext(ctx, "location created")
	for _, l := range h.service.ListLocations(ctx) {
		if l.Name == loc.Name {
			respondJSON(h.logger, w, http.StatusCreated, l)
			return
		}
	}
	respondJSON(h.logger, w, http.StatusCreated, loc)
}

// UpdateLocation handles PUT /api/v1/locations/{name}
func (h *LocationHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	var req UpdateLocationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	update := ports.LocationUpdate{Capacity: req.Capacity, Temperature: req.Temperature}
	if req.Type != nil {
		t := domain.LocationType(*req.Type)
		update.Type = &t
	}

	ctx := logger.WithLocation(r.Context(), name)
	loc, err := h.service.UpdateLocation(ctx, name, update)
	if err != nil {
		respondServiceError(h.logger, w, r.WithContext(ctx), "update location", err)
		return
	}
	respondJSON(h.logger, w, http.StatusOK, loc)
}

// RenameLocation handles POST /api/v1/locations/{name}/rename
func (h *LocationHandler) RenameLocation(w http.ResponseWriter, r *http.Request) {
	from := r.PathValue("name")
	var req RenameLocationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx := logger.WithLocation(r.Context(), from)
	if err := h.service.RenameLocation(ctx, from, req.Name); err != nil {
		respondServiceError(h.logger, w, r.WithContext(ctx), "rename location", err)
		return
	}

	h.logger.InfoContext(ctx, "location renamed", slog.String("to", req.Name))
	h.dropSuggestions(ctx)
	respondJSON(h.logger, w, http.StatusOK, map[string]string{"from": from, "to": req.Name})
}

// DeleteLocation handles DELETE /api/v1/locations/{name}
func (h *LocationHandler) DeleteLocation(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	ctx := logger.WithLocation(r.Context(), name)
	if err := h.service.DeleteLocation(ctx, name); err != nil {
		respondServiceError(h.logger, w, r.WithContext(ctx), "delete location", err)
		return
	}
	h.logger.InfoContext(ctx, "location deleted")
	h.dropSuggestions(ctx)
	w.WriteHeader(http.StatusNoContent)
}

// dropSuggestions clears every cached suggestion, since any of them may name
// the location that changed
func (h *LocationHandler) dropSuggestions(ctx context.Context) {
	if h.suggestions == nil {
		return
	}
	if err := h.suggestions.InvalidateSuggestions(ctx, ""); err != nil {
		h.logger.WarnContext(ctx, "failed to drop cached suggestions", slog.String("error", err.Error()))
	}
}

// internal/handlers/response.go
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/ammerola/stockledger/internal/core/domain"
)

// maxBodyBytes bounds JSON request bodies
const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error    string `json:"error"`
	Kind     string `json:"kind,omitempty"`
	ItemID   string `json:"item_id,omitempty"`
	Location string `json:"location,omitempty"`
	Quantity *int   `json:"quantity,omitempty"`
}

func respondJSON(logger *slog.Logger, w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response",
			slog.String("error", err.Error()))
	}
}

func respondError(logger *slog.Logger, w http.ResponseWriter, status int, message string) {
	respondJSON(logger, w, status, ErrorResponse{Error: message})
}

// statusForKind maps an error kind to the HTTP status reported to the caller
func statusForKind(kind string) int {
	switch kind {
	case "item_not_found":
		return http.StatusNotFound
	case "item_exists", "location_exists", "location_in_use", "insufficient_stock", "identical_locations":
		return http.StatusConflict
	case "invalid_quantity", "invalid_input", "unknown_location", "no_count_recorded":
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError reports a failed engine operation. Stock errors keep the
// item, location and quantity so the operator can correct the request.
func respondServiceError(logger *slog.Logger, w http.ResponseWriter, r *http.Request, op string, err error) {
	kind := domain.Kind(err)
	status := statusForKind(kind)

	body := ErrorResponse{Error: err.Error(), Kind: kind}
	var se *domain.StockError
	if errors.As(err, &se) {
		if se.ItemID != uuid.Nil {
			body.ItemID = se.ItemID.String()
		}
		body.Location = se.Location
		body.Quantity = se.Quantity
	}

	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), op+" failed",
			slog.String("error", err.Error()))
		body.Error = "internal error"
	} else {
		logger.WarnContext(r.Context(), op+" rejected",
			slog.String("kind", kind),
			slog.String("error", err.Error()))
	}
	respondJSON(logger, w, status, body)
}

// decodeJSON reads a bounded JSON body into dest
func decodeJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dest)
}

// pathID parses the {id} path value
func pathID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	return id, err == nil
}

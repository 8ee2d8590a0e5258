// internal/handlers/order.go
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/ammerola/stockledger/internal/adapters/orderfeed"
	redis_a "github.com/ammerola/stockledger/internal/adapters/redis_adapter"
	"github.com/ammerola/stockledger/internal/adapters/storage"
	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
	"github.com/ammerola/stockledger/internal/workers"
)

// Receiver applies an order receipt at most once
type Receiver interface {
	Receive(ctx context.Context, order domain.SourceOrder, decisions []ports.Decision) (*ports.ReceiveResult, error)
}

// ImportStatusCache stores and serves import job status documents
type ImportStatusCache interface {
	workers.ImportStatusStore
	ImportStatus(ctx context.Context, jobID string, dest interface{}) error
}

// OrderHandler handles order receiving, consolidation and document imports
type OrderHandler struct {
	service     ports.InventoryService
	receiver    Receiver
	objects     storage.StorageClient
	enqueuer    workers.TaskEnqueuer
	status      ImportStatusCache
	maxFileSize int64
	logger      *slog.Logger
}

// OrderHandlerConfig wires the optional collaborators of OrderHandler.
// Without Objects and Enqueuer, imports and queued receipts are unavailable.
type OrderHandlerConfig struct {
	Receiver    Receiver
	Objects     storage.StorageClient
	Enqueuer    workers.TaskEnqueuer
	Status      ImportStatusCache
	MaxFileSize int64
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(service ports.InventoryService, cfg OrderHandlerConfig, logger *slog.Logger) *OrderHandler {
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 50 << 20
	}
	return &OrderHandler{
		service:     service,
		receiver:    cfg.Receiver,
		objects:     cfg.Objects,
		enqueuer:    cfg.Enqueuer,
		status:      cfg.Status,
		maxFileSize: cfg.MaxFileSize,
		logger:      logger.With(slog.String("handler", "order")),
	}
}

// ReceiveRequest is the body of POST /api/v1/orders/receive.
// Without decisions the response only carries suggestions.
type ReceiveRequest struct {
	Order     domain.SourceOrder `json:"order"`
	Decisions []ports.Decision   `json:"decisions,omitempty"`
}

// ReceiveOrder handles POST /api/v1/orders/receive. With ?async=true the
// receipt is queued and 202 is returned.
func (h *OrderHandler) ReceiveOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req ReceiveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Order.ID = strings.TrimSpace(req.Order.ID)

	if async, _ := strconv.ParseBool(r.URL.Query().Get("async")); async {
		h.queueReceipt(w, r, req)
		return
	}

	if len(req.Decisions) == 0 || h.receiver == nil {
		res, err := h.service.ReceiveOrder(ctx, req.Order, req.Decisions)
		if err != nil {
			respondServiceError(h.logger, w, r, "receive order", err)
			return
		}
		respondJSON(h.logger, w, http.StatusOK, res)
		return
	}

	res, err := h.receiver.Receive(ctx, req.Order, req.Decisions)
	if errors.Is(err, workers.ErrAlreadyReceived) {
		respondJSON(h.logger, w, http.StatusConflict, ErrorResponse{Error: err.Error(), Kind: "order_received"})
		return
	}
	if err != nil {
		respondServiceError(h.logger, w, r, "receive order", err)
		return
	}
	respondJSON(h.logger, w, http.StatusOK, res)
}

func (h *OrderHandler) queueReceipt(w http.ResponseWriter, r *http.Request, req ReceiveRequest) {
	ctx := r.Context()
	if h.enqueuer == nil {
		respondError(h.logger, w, http.StatusServiceUnavailable, "Task queue is not configured")
		return
	}
	if req.Order.ID == "" {
		respondError(h.logger, w, http.StatusBadRequest, "order.id is required for queued receipts")
		return
	}

	task, err := workers.NewReceiveTask(workers.ReceivePayload{Order: req.Order, Decisions: req.Decisions})
	if err != nil {
		respondError(h.logger, w, http.StatusInternalServerError, "Failed to build receive task")
		return
	}
	info, err := h.enqueuer.EnqueueContext(ctx, task)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to queue receipt",
			slog.String("order_id", req.Order.ID),
			slog.String("error", err.Error()))
		respondError(h.logger, w, http.StatusServiceUnavailable, "Failed to queue receipt")
		return
	}

	h.logger.InfoContext(ctx, "receipt queued",
		slog.String("order_id", req.Order.ID),
		slog.String("task_id", info.ID))
	respondJSON(h.logger, w, http.StatusAccepted, map[string]string{
		"order_id": req.Order.ID,
		"task_id":  info.ID,
		"queue":    info.Queue,
	})
}

// ConsolidateRequest is the body of POST /api/v1/orders/consolidate
type ConsolidateRequest struct {
	Orders []domain.SourceOrder `json:"orders"`
}

// Consolidate handles POST /api/v1/orders/consolidate
func (h *OrderHandler) Consolidate(w http.ResponseWriter, r *http.Request) {
	var req ConsolidateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.service.ApplyConsolidation(r.Context(), req.Orders)
	if err != nil {
		respondServiceError(h.logger, w, r, "consolidate", err)
		return
	}
	respondJSON(h.logger, w, http.StatusOK, res)
}

// ImportOrders handles POST /api/v1/orders/import. The multipart "file" is an
// order document (xlsx, pdf or json); order_id, supplier_id, date and category
// form values fill in what the document leaves out.
func (h *OrderHandler) ImportOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.objects == nil || h.enqueuer == nil {
		respondError(h.logger, w, http.StatusServiceUnavailable, "Imports are not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize)
	if err := r.ParseMultipartForm(h.maxFileSize); err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(h.logger, w, http.StatusBadRequest, "File is required")
		return
	}
	defer file.Close()

	filename := path.Base(strings.ReplaceAll(header.Filename, "\\", "/"))
	if _, err := orderfeed.DetectFormat(filename); err != nil {
		respondError(h.logger, w, http.StatusUnsupportedMediaType, "Only xlsx, pdf and json order documents are accepted")
		return
	}

	meta := orderfeed.Meta{
		OrderID:    strings.TrimSpace(r.FormValue("order_id")),
		SupplierID: strings.TrimSpace(r.FormValue("supplier_id")),
	}
	if raw := r.FormValue("date"); raw != "" {
		date, ok := orderfeed.ParseDate(raw)
		if !ok {
			respondError(h.logger, w, http.StatusBadRequest, "date is not a recognised date")
			return
		}
		meta.Date = date
	}
	if raw := r.FormValue("category"); raw != "" {
		meta.Category = domain.NormalizeCategory(raw)
	}

	jobID := workers.NewImportJobID()
	key := workers.ImportObjectKey(jobID, filename)
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if _, err := h.objects.Upload(ctx, key, file, contentType); err != nil {
		h.logger.ErrorContext(ctx, "failed to store upload",
			slog.String("key", key),
			slog.String("error", err.Error()))
		respondError(h.logger, w, http.StatusInternalServerError, "Failed to save upload")
		return
	}

	status := workers.ImportStatus{
		JobID:    jobID,
		State:    workers.ImportQueued,
		Filename: filename,
		QueuedAt: time.Now().UTC(),
	}
	h.saveStatus(ctx, status)

	task, err := workers.NewImportTask(workers.ImportPayload{
		JobID:     jobID,
		ObjectKey: key,
		Filename:  filename,
		Meta:      meta,
		QueuedAt:  status.QueuedAt,
	})
	if err == nil {
		_, err = h.enqueuer.EnqueueContext(ctx, task)
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to queue import",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()))
		if derr := h.objects.Delete(ctx, key); derr != nil {
			h.logger.WarnContext(ctx, "failed to remove unqueued upload",
				slog.String("key", key),
				slog.String("error", derr.Error()))
		}
		status.State = workers.ImportFailed
		status.Error = "failed to queue import"
		h.saveStatus(ctx, status)
		respondError(h.logger, w, http.StatusServiceUnavailable, "Failed to queue import")
		return
	}

	h.logger.InfoContext(ctx, "import queued",
		slog.String("job_id", jobID),
		slog.String("file", filename),
		slog.Int64("size", header.Size))
	respondJSON(h.logger, w, http.StatusAccepted, status)
}

func (h *OrderHandler) saveStatus(ctx context.Context, status workers.ImportStatus) {
	if h.status == nil {
		return
	}
	if err := h.status.SaveImportStatus(ctx, status.JobID, status, workers.ImportStatusTTL); err != nil {
		h.logger.WarnContext(ctx, "failed to save import status",
			slog.String("job_id", status.JobID),
			slog.String("error", err.Error()))
	}
}

// ImportStatus handles GET /api/v1/orders/import/{id}
func (h *OrderHandler) ImportStatus(w http.ResponseWriter, r *http.Request) {
	if h.status == nil {
		respondError(h.logger, w, http.StatusServiceUnavailable, "Import status is not available")
		return
	}

	jobID := r.PathValue("id")
	var status workers.ImportStatus
	err := h.status.ImportStatus(r.Context(), jobID, &status)
	if errors.Is(err, redis_a.ErrCacheMiss) {
		respondError(h.logger, w, http.StatusNotFound, "Import job not found")
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to load import status",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()))
		respondError(h.logger, w, http.StatusInternalServerError, "Failed to load import status")
		return
	}
	respondJSON(h.logger, w, http.StatusOK, status)
}

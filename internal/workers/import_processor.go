// internal/workers/import_processor.go
package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/stockledger/internal/adapters/orderfeed"
	"github.com/ammerola/stockledger/internal/adapters/storage"
	"github.com/ammerola/stockledger/internal/core/ports"
)

// Import job states
const (
	ImportQueued     = "queued"
	ImportProcessing = "processing"
	ImportCompleted  = "completed"
	ImportPartial    = "completed_with_errors"
	ImportFailed     = "failed"
)

// ImportStatusTTL is how long import job status documents are kept
const ImportStatusTTL = 7 * 24 * time.Hour

// ImportStatus is the status document of an import job
type ImportStatus struct {
	JobID         string                         `json:"job_id"`
	State         string                         `json:"state"`
	Filename      string                         `json:"filename"`
	Orders        int                            `json:"orders"`
	Lines         int                            `json:"lines"`
	Created       int                            `json:"created"`
	Updated       int                            `json:"updated"`
	Unchanged     int                            `json:"unchanged"`
	Failures      []ports.DecisionFailure        `json:"failures,omitempty"`
	Parse         orderfeed.Diagnostics          `json:"parse"`
	Consolidation ports.ConsolidationDiagnostics `json:"consolidation"`
	Error         string                         `json:"error,omitempty"`
	QueuedAt      time.Time                      `json:"queued_at"`
	FinishedAt    *time.Time                     `json:"finished_at,omitempty"`
	Duration      string                         `json:"duration,omitempty"`
}

// ImportStatusStore keeps import job status documents
type ImportStatusStore interface {
	SaveImportStatus(ctx context.Context, jobID string, status interface{}, ttl time.Duration) error
}

// ImportObjectKey is where an uploaded order document is stored
func ImportObjectKey(jobID, filename string) string {
	return path.Join("imports", jobID, path.Base(filename))
}

// ImportProcessor parses uploaded order documents and consolidates them into the inventory
type ImportProcessor struct {
	service ports.InventoryService
	objects storage.StorageClient
	reader  *orderfeed.Reader
	status  ImportStatusStore
	logger  *slog.Logger
}

// NewImportProcessor creates a new import processor. status may be nil.
func NewImportProcessor(service ports.InventoryService, objects storage.StorageClient, reader *orderfeed.Reader,
	status ImportStatusStore, logger *slog.Logger) *ImportProcessor {
	return &ImportProcessor{
		service: service,
		objects: objects,
		reader:  reader,
		status:  status,
		logger:  logger.With(slog.String("processor", "import")),
	}
}

// ProcessImport handles an order:import task
func (p *ImportProcessor) ProcessImport(ctx context.Context, t *asynq.Task) error {
	start := time.Now()

	var payload ImportPayload
	if err := decode(t, &payload); err != nil {
		return err
	}
	if payload.Meta.OrderID == "" {
		payload.Meta.OrderID = strings.TrimSuffix(path.Base(payload.Filename), path.Ext(payload.Filename))
	}

	p.logger.InfoContext(ctx, "processing import",
		slog.String("job_id", payload.JobID),
		slog.String("file", payload.Filename))

	status := ImportStatus{JobID: payload.JobID, State: ImportProcessing, Filename: payload.Filename, QueuedAt: payload.QueuedAt}
	if status.QueuedAt.IsZero() {
		status.QueuedAt = start.UTC()
	}
	p.saveStatus(ctx, status)

	fail := func(err error) error {
		status.State = ImportFailed
		status.Error = err.Error()
		p.finish(ctx, &status, start)
		return err
	}

	data, err := p.objects.Download(ctx, payload.ObjectKey)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return fail(fmt.Errorf("upload %s is gone: %w", payload.ObjectKey, asynq.SkipRetry))
	}
	if err != nil {
		return fail(fmt.Errorf("failed to download upload: %w", err))
	}

	parsed, err := p.reader.Read(ctx, payload.Filename, data, payload.Meta)
	if err != nil {
		return fail(fmt.Errorf("%v: %w", err, asynq.SkipRetry))
	}
	status.Orders = len(parsed.Orders)
	status.Lines = parsed.Lines()
	status.Parse = parsed.Diagnostics

	res, err := p.service.ApplyConsolidation(ctx, parsed.Orders)
	if err != nil {
		return fail(fmt.Errorf("failed to consolidate orders: %w", err))
	}
	status.Created = res.Created
	status.Updated = res.Updated
	status.Unchanged = res.Unchanged
	status.Failures = res.Failures
	status.Consolidation = res.Diagnostics
	status.State = ImportCompleted
	if len(res.Failures) > 0 {
		status.State = ImportPartial
	}
	p.finish(ctx, &status, start)

	if err := p.objects.Delete(ctx, payload.ObjectKey); err != nil {
		p.logger.WarnContext(ctx, "failed to delete processed upload",
			slog.String("key", payload.ObjectKey),
			slog.String("error", err.Error()))
	}

	p.logger.InfoContext(ctx, "import completed",
		slog.String("job_id", payload.JobID),
		slog.String("state", status.State),
		slog.Int("created", status.Created),
		slog.Int("updated", status.Updated),
		slog.Int("unchanged", status.Unchanged),
		slog.String("duration", status.Duration))
	return nil
}

func (p *ImportProcessor) finish(ctx context.Context, status *ImportStatus, start time.Time) {
	now := time.Now().UTC()
	status.FinishedAt = &now
	status.Duration = time.Since(start).String()
	p.saveStatus(ctx, *status)
}

func (p *ImportProcessor) saveStatus(ctx context.Context, status ImportStatus) {
	if p.status == nil {
		return
	}
	if err := p.status.SaveImportStatus(ctx, status.JobID, status, ImportStatusTTL); err != nil {
		p.logger.WarnContext(ctx, "failed to save import status",
			slog.String("job_id", status.JobID),
			slog.String("error", err.Error()))
	}
}

// internal/workers/snapshot_processor.go
package workers

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/ammerola/stockledger/internal/core/ports"
)

// Flusher writes the complete engine state to a store
type Flusher interface {
	Flush(ctx context.Context, dst ports.Persistence) error
}

// SnapshotProcessor periodically writes the full engine state, bypassing the write-behind queue
type SnapshotProcessor struct {
	engine Flusher
	dst    ports.Persistence
	logger *slog.Logger
}

// NewSnapshotProcessor creates a new snapshot processor
func NewSnapshotProcessor(engine Flusher, dst ports.Persistence, logger *slog.Logger) *SnapshotProcessor {
	return &SnapshotProcessor{
		engine: engine,
		dst:    dst,
		logger: logger.With(slog.String("processor", "snapshot")),
	}
}

// ProcessSnapshot handles an engine:snapshot task
func (p *SnapshotProcessor) ProcessSnapshot(ctx context.Context, _ *asynq.Task) error {
	return p.engine.Flush(ctx, p.dst)
}

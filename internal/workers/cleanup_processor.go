// internal/workers/cleanup_processor.go
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/ammerola/stockledger/internal/adapters/storage"
)

// DefaultUploadMaxAge is how long unprocessed import uploads are kept
const DefaultUploadMaxAge = 72 * time.Hour

// NewImportJobID returns a time-ordered job id, so upload age can be read from the key
func NewImportJobID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// CleanupProcessor removes import uploads that were never processed
type CleanupProcessor struct {
	objects storage.StorageClient
	now     func() time.Time
	logger  *slog.Logger
}

// NewCleanupProcessor creates a new cleanup processor
func NewCleanupProcessor(objects storage.StorageClient, logger *slog.Logger) *CleanupProcessor {
	return &CleanupProcessor{
		objects: objects,
		now:     time.Now,
		logger:  logger.With(slog.String("processor", "cleanup")),
	}
}

// CleanupImports deletes uploads under imports/ whose job id is older than the task's max age.
// Keys without a time-ordered job id are left alone.
func (p *CleanupProcessor) CleanupImports(ctx context.Context, t *asynq.Task) error {
	payload := CleanupPayload{MaxAge: DefaultUploadMaxAge}
	if len(t.Payload()) > 0 {
		if err := decode(t, &payload); err != nil {
			return err
		}
	}
	cutoff := p.now().Add(-payload.MaxAge)

	keys, err := p.objects.List(ctx, "imports/")
	if err != nil {
		return fmt.Errorf("failed to list uploads: %w", err)
	}

	var deleted int
	for _, key := range keys {
		created, ok := uploadTime(key)
		if !ok || !created.Before(cutoff) {
			continue
		}
		if err := p.objects.Delete(ctx, key); err != nil {
			p.logger.WarnContext(ctx, "failed to delete upload",
				slog.String("key", key),
				slog.String("error", err.Error()))
			continue
		}
		deleted++
	}

	p.logger.InfoContext(ctx, "import uploads cleaned up",
		slog.Int("scanned", len(keys)),
		slog.Int("deleted", deleted))
	return nil
}

// uploadTime reads the creation time from the job id segment of imports/<job>/<file>
func uploadTime(key string) (time.Time, bool) {
	parts := strings.Split(key, "/")
	if len(parts) < 3 || parts[0] != "imports" {
		return time.Time{}, false
	}
	id, err := uuid.Parse(parts[1])
	if err != nil || id.Version() != 7 {
		return time.Time{}, false
	}
	sec, nsec := id.Time().UnixTime()
	return time.Unix(sec, nsec), true
}

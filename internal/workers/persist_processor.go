// internal/workers/persist_processor.go
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

// PersistProcessor writes queued saves to the configured store.
// Tasks may run out of order, so a save older than the last one applied for
// the same item or set is dropped. The watermarks live in this process only;
// run a single worker on the persist queue.
type PersistProcessor struct {
	store  ports.Persistence
	logger *slog.Logger

	mu        sync.Mutex
	items     map[uuid.UUID]time.Time
	locations time.Time
	prefs     time.Time
}

// NewPersistProcessor creates a new persistence processor
func NewPersistProcessor(store ports.Persistence, logger *slog.Logger) *PersistProcessor {
	return &PersistProcessor{
		store:  store,
		logger: logger.With(slog.String("processor", "persist")),
		items:  make(map[uuid.UUID]time.Time),
	}
}

// advance moves a watermark forward and reports whether at is not older than it
func advance(mark *time.Time, at time.Time) bool {
	if at.Before(*mark) {
		return false
	}
	*mark = at
	return true
}

// ProcessItems upserts the items of a persist:items task
func (p *PersistProcessor) ProcessItems(ctx context.Context, t *asynq.Task) error {
	var payload PersistItemsPayload
	if err := decode(t, &payload); err != nil {
		return err
	}

	p.mu.Lock()
	fresh := make([]*domain.InventoryItem, 0, len(payload.Items))
	for _, item := range payload.Items {
		mark := p.items[item.ID]
		if advance(&mark, item.UpdatedAt) {
			p.items[item.ID] = mark
			fresh = append(fresh, item)
		}
	}
	p.mu.Unlock()

	if stale := len(payload.Items) - len(fresh); stale > 0 {
		p.logger.DebugContext(ctx, "dropped stale item saves", slog.Int("count", stale))
	}
	if len(fresh) == 0 {
		return nil
	}
	if err := p.store.SaveItems(ctx, fresh); err != nil {
		return fmt.Errorf("failed to save items: %w", err)
	}
	p.logger.DebugContext(ctx, "items saved", slog.Int("count", len(fresh)))
	return nil
}

// ProcessLocations replaces the stored location set
func (p *PersistProcessor) ProcessLocations(ctx context.Context, t *asynq.Task) error {
	var payload PersistLocationsPayload
	if err := decode(t, &payload); err != nil {
		return err
	}

	p.mu.Lock()
	ok := advance(&p.locations, payload.SavedAt)
	p.mu.Unlock()
	if !ok {
		p.logger.DebugContext(ctx, "dropped stale location save", slog.Time("saved_at", payload.SavedAt))
		return nil
	}

	if err := p.store.SaveLocations(ctx, payload.Locations); err != nil {
		return fmt.Errorf("failed to save locations: %w", err)
	}
	p.logger.DebugContext(ctx, "locations saved", slog.Int("count", len(payload.Locations)))
	return nil
}

// ProcessPreferences replaces the stored preference set
func (p *PersistProcessor) ProcessPreferences(ctx context.Context, t *asynq.Task) error {
	var payload PersistPreferencesPayload
	if err := decode(t, &payload); err != nil {
		return err
	}

	p.mu.Lock()
	ok := advance(&p.prefs, payload.SavedAt)
	p.mu.Unlock()
	if !ok {
		p.logger.DebugContext(ctx, "dropped stale preference save", slog.Time("saved_at", payload.SavedAt))
		return nil
	}

	if err := p.store.SavePreferences(ctx, payload.Preferences); err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	p.logger.DebugContext(ctx, "preferences saved", slog.Int("count", len(payload.Preferences)))
	return nil
}

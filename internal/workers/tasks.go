// internal/workers/tasks.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/stockledger/internal/adapters/orderfeed"
	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

const (
	TypePersistItems       = "persist:items"
	TypePersistLocations   = "persist:locations"
	TypePersistPreferences = "persist:preferences"
	TypeSnapshot           = "engine:snapshot"
	TypeOrderImport        = "order:import"
	TypeOrderReceive       = "order:receive"
	TypeCleanupImports     = "cleanup:imports"
)

// Queues. Engine tasks need the in-memory engine and are served by the API
// process; persistence and maintenance tasks are served by cmd/worker.
const (
	QueueEngine      = "engine"
	QueuePersist     = "persist"
	QueueMaintenance = "maintenance"
)

// TaskEnqueuer is the part of *asynq.Client used to queue tasks
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Statically assert that *asynq.Client implements the TaskEnqueuer interface.
var _ TaskEnqueuer = (*asynq.Client)(nil)

// PersistItemsPayload carries committed item states
type PersistItemsPayload struct {
	Items []*domain.InventoryItem `json:"items"`
}

// PersistLocationsPayload carries the full location set as of SavedAt
type PersistLocationsPayload struct {
	Locations []domain.StorageLocation `json:"locations"`
	SavedAt   time.Time                `json:"saved_at"`
}

// PersistPreferencesPayload carries the full preference set as of SavedAt
type PersistPreferencesPayload struct {
	Preferences map[string]domain.LocationPreference `json:"preferences"`
	SavedAt     time.Time                            `json:"saved_at"`
}

// ImportPayload describes an uploaded order document
type ImportPayload struct {
	JobID     string         `json:"job_id"`
	ObjectKey string         `json:"object_key"`
	Filename  string         `json:"filename"`
	Meta      orderfeed.Meta `json:"meta"`
	QueuedAt  time.Time      `json:"queued_at"`
}

// ReceivePayload is a queued ReceiveOrder call
type ReceivePayload struct {
	Order     domain.SourceOrder `json:"order"`
	Decisions []ports.Decision   `json:"decisions"`
}

// CleanupPayload bounds the age of import uploads kept in storage
type CleanupPayload struct {
	MaxAge time.Duration `json:"max_age"`
}

func newTask(typ string, payload interface{}, opts ...asynq.Option) (*asynq.Task, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", typ, err)
	}
	return asynq.NewTask(typ, raw, opts...), nil
}

func decode(t *asynq.Task, dest interface{}) error {
	if err := json.Unmarshal(t.Payload(), dest); err != nil {
		return fmt.Errorf("failed to unmarshal %s payload: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	return nil
}

// NewImportTask queues an import job on the engine queue
func NewImportTask(p ImportPayload) (*asynq.Task, error) {
	return newTask(TypeOrderImport, p, asynq.Queue(QueueEngine), asynq.MaxRetry(3), asynq.TaskID("import:"+p.JobID))
}

// NewReceiveTask queues a ReceiveOrder call on the engine queue
func NewReceiveTask(p ReceivePayload) (*asynq.Task, error) {
	return newTask(TypeOrderReceive, p, asynq.Queue(QueueEngine), asynq.MaxRetry(5))
}

// NewSnapshotTask creates the periodic full snapshot task
func NewSnapshotTask() *asynq.Task {
	return asynq.NewTask(TypeSnapshot, nil, asynq.Queue(QueueEngine), asynq.MaxRetry(1))
}

// NewCleanupTask creates the import upload cleanup task
func NewCleanupTask(maxAge time.Duration) (*asynq.Task, error) {
	return newTask(TypeCleanupImports, CleanupPayload{MaxAge: maxAge}, asynq.Queue(QueueMaintenance), asynq.MaxRetry(1))
}

// internal/core/domain/count.go
package domain

import "time"

// CountStatus is the state of a physical count
type CountStatus string

const (
	CountPending     CountStatus = "pending"
	CountCounted     CountStatus = "counted"
	CountDiscrepancy CountStatus = "discrepancy"
)

// CountRecord stores the latest physical count of an item
type CountRecord struct {
	PhysicalCount    int         `json:"physical_count"`
	RecordedQuantity int         `json:"recorded_quantity"`
	CountedBy        string      `json:"counted_by"`
	CountedAt        time.Time   `json:"counted_at"`
	Note             string      `json:"note,omitempty"`
	Status           CountStatus `json:"status"`
}

// NewCountRecord starts a pending count and evaluates it against the recorded quantity
func NewCountRecord(physical, recorded int, countedBy, note string, at time.Time) CountRecord {
	rec := CountRecord{
		PhysicalCount: physical,
		CountedBy:     countedBy,
		CountedAt:     at,
		Note:          note,
		Status:        CountPending,
	}
	rec.Evaluate(recorded)
	return rec
}

// Evaluate moves the record out of pending by comparing with the recorded quantity
func (c *CountRecord) Evaluate(recorded int) {
	c.RecordedQuantity = recorded
	if c.PhysicalCount == recorded {
		c.Status = CountCounted
		return
	}
	c.Status = CountDiscrepancy
}

// Variance is the physical count minus the recorded quantity
func (c CountRecord) Variance() int {
	return c.PhysicalCount - c.RecordedQuantity
}

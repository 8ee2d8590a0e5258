// internal/core/services/clock.go
package services

import (
	"sync"
	"time"
)

// snapshotClock orders snapshots of a shared collection. Stamps are strictly
// increasing, and a later stamp always covers a snapshot taken after the earlier one.
type snapshotClock struct {
	mu   sync.Mutex
	last time.Time
}

func (c *snapshotClock) stamp(snapshot func()) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now().UTC()
	if !now.After(c.last) {
		now = c.last.Add(time.Nanosecond)
	}
	c.last = now
	snapshot()
	return now
}

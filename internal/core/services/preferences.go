// internal/core/services/preferences.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

// maxSuggestedLocations caps how many locations one suggestion may split across
const maxSuggestedLocations = 3

type preferenceEntry struct {
	mu   sync.Mutex
	pref domain.LocationPreference
}

// PreferenceModel learns where each supplier code is usually stored.
// Updates lock a single code; suggestions for other codes proceed in parallel.
type PreferenceModel struct {
	mu      sync.RWMutex
	entries map[string]*preferenceEntry
	store   ports.PreferenceStore
	clock   snapshotClock
	logger  *slog.Logger
}

// NewPreferenceModel creates an empty model. store may be nil.
func NewPreferenceModel(store ports.PreferenceStore, logger *slog.Logger) *PreferenceModel {
	return &PreferenceModel{
		entries: make(map[string]*preferenceEntry),
		store:   store,
		logger:  logger.With(slog.String("service", "preferences")),
	}
}

func normalizeCode(code string) string {
	return strings.TrimSpace(code)
}

// Load replaces the model with the persisted preferences
func (m *PreferenceModel) Load(ctx context.Context) error {
	if m.store == nil {
		return nil
	}
	prefs, err := m.store.LoadPreferences(ctx)
	if err != nil {
		return fmt.Errorf("failed to load preferences: %w", err)
	}

	m.mu.Lock()
	m.entries = make(map[string]*preferenceEntry, len(prefs))
	for code, p := range prefs {
		p.Code = code
		p.Normalize()
		m.entries[code] = &preferenceEntry{pref: p}
	}
	m.mu.Unlock()

	m.logger.InfoContext(ctx, "loaded preferences", slog.Int("codes", len(prefs)))
	return nil
}

func (m *PreferenceModel) entry(code string, create bool) *preferenceEntry {
	m.mu.RLock()
	e, ok := m.entries[code]
	m.mu.RUnlock()
	if ok || !create {
		return e
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok = m.entries[code]; ok {
		return e
	}
	e = &preferenceEntry{pref: domain.NewLocationPreference(code)}
	m.entries[code] = e
	return e
}

// RecordAllocation adds max(1, qty) to the weight of each allocated location
// for code and renormalizes its ratios.
func (m *PreferenceModel) RecordAllocation(ctx context.Context, code string, allocs []domain.Allocation) error {
	code = normalizeCode(code)
	if code == "" {
		return fmt.Errorf("%w: supplier code is required", domain.ErrInvalidInput)
	}
	if len(allocs) == 0 {
		return nil
	}

	e := m.entry(code, true)
	e.mu.Lock()
	e.pref.Record(allocs, time.Now().UTC())
	e.mu.Unlock()

	m.logger.DebugContext(ctx, "recorded allocation",
		slog.String("code", code),
		slog.Int("locations", len(allocs)))

	m.Persist(ctx)
	return nil
}

// Suggest splits quantity across the top locations learned for code.
// Each location but the last gets floor(quantity * ratio); the last absorbs the
// remainder. Without usable history it falls back to the category default.
func (m *PreferenceModel) Suggest(ctx context.Context, code string, quantity int, fallbackCategory domain.Category) ([]domain.Allocation, error) {
	if quantity <= 0 {
		return nil, &domain.StockError{Op: "suggest", Quantity: domain.Qty(quantity), Err: domain.ErrInvalidQuantity}
	}

	if e := m.entry(normalizeCode(code), false); e != nil {
		e.mu.Lock()
		pref := e.pref.Clone()
		e.mu.Unlock()

		if out := splitByRatio(pref, quantity); len(out) > 0 {
			return out, nil
		}
	}

	loc := domain.DefaultLocationFor(fallbackCategory)
	m.logger.DebugContext(ctx, "no preference history, using category default",
		slog.String("code", code),
		slog.String("category", string(fallbackCategory)),
		slog.String("location", loc))
	return []domain.Allocation{{Location: loc, Quantity: quantity}}, nil
}

func splitByRatio(pref domain.LocationPreference, quantity int) []domain.Allocation {
	ranked := pref.Ranked()
	if len(ranked) > maxSuggestedLocations {
		ranked = ranked[:maxSuggestedLocations]
	}
	if len(ranked) == 0 {
		return nil
	}

	q := decimal.NewFromInt(int64(quantity))
	assigned := 0
	out := make([]domain.Allocation, 0, len(ranked))
	for i, loc := range ranked {
		share := quantity - assigned
		if i < len(ranked)-1 {
			share = int(q.Mul(decimal.NewFromFloat(pref.Ratios[loc])).Floor().IntPart())
		}
		assigned += share
		if share <= 0 {
			continue
		}
		out = append(out, domain.Allocation{Location: loc, Quantity: share})
	}
	return out
}

// Preference returns a copy of the preference recorded for code
func (m *PreferenceModel) Preference(code string) (domain.LocationPreference, bool) {
	e := m.entry(normalizeCode(code), false)
	if e == nil {
		return domain.LocationPreference{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pref.Clone(), true
}

// RenameLocation moves learned weights to a renamed location and reports
// whether any code changed. The caller persists.
func (m *PreferenceModel) RenameLocation(ctx context.Context, from, to string) bool {
	changed := false
	for _, e := range m.snapshotEntries() {
		e.mu.Lock()
		if e.pref.RenameLocation(from, to) {
			changed = true
		}
		e.mu.Unlock()
	}
	return changed
}

// Snapshot returns a copy of every preference
func (m *PreferenceModel) Snapshot() map[string]domain.LocationPreference {
	entries := m.snapshotEntries()
	out := make(map[string]domain.LocationPreference, len(entries))
	for code, e := range entries {
		e.mu.Lock()
		out[code] = e.pref.Clone()
		e.mu.Unlock()
	}
	return out
}

func (m *PreferenceModel) snapshotEntries() map[string]*preferenceEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]*preferenceEntry, len(m.entries))
	for code, e := range m.entries {
		out[code] = e
	}
	return out
}

// Persist saves a snapshot of every preference tagged with the time it was taken
func (m *PreferenceModel) Persist(ctx context.Context) {
	if m.store == nil {
		return
	}
	var prefs map[string]domain.LocationPreference
	at := m.clock.stamp(func() { prefs = m.Snapshot() })
	if err := m.store.SavePreferences(ports.WithSnapshotTime(ctx, at), prefs); err != nil {
		m.logger.ErrorContext(ctx, "failed to save preferences", slog.String("error", err.Error()))
	}
}

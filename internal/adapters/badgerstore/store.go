// internal/adapters/badgerstore/store.go
package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

const (
	locationPrefix   = "loc/"
	preferencePrefix = "pref/"
	itemPrefix       = "item/"
)

// Store persists engine state in an embedded badger database for
// single-node deployments
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

// Statically assert that *Store implements the Persistence interface.
var _ ports.Persistence = (*Store)(nil)

// Open opens (or creates) a badger database at path
func Open(path string, logger *slog.Logger) (*Store, error) {
	return open(badger.DefaultOptions(path), logger)
}

// OpenInMemory opens a badger database that lives only in memory
func OpenInMemory(logger *slog.Logger) (*Store, error) {
	return open(badger.DefaultOptions("").WithInMemory(true), logger)
}

func open(opts badger.Options, logger *slog.Logger) (*Store, error) {
	logger = logger.With(slog.String("adapter", "badger"))
	db, err := badger.Open(opts.WithLogger(&badgerLogger{logger: logger}))
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadLocations implements ports.LocationStore
func (s *Store) LoadLocations(ctx context.Context) ([]domain.StorageLocation, error) {
	var out []domain.StorageLocation
	err := s.scan(locationPrefix, func(_ string, raw []byte) error {
		var loc domain.StorageLocation
		if err := json.Unmarshal(raw, &loc); err != nil {
			return err
		}
		out = append(out, loc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SaveLocations implements ports.LocationStore; locations missing from the list are deleted
func (s *Store) SaveLocations(ctx context.Context, locations []domain.StorageLocation) error {
	keep := make(map[string][]byte, len(locations))
	for _, loc := range locations {
		data, err := json.Marshal(loc)
		if err != nil {
			return fmt.Errorf("failed to encode location %q: %w", loc.Name, err)
		}
		keep[locationPrefix+loc.Name] = data
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		var stale [][]byte
		it := txn.NewIterator(badger.IteratorOptions{Prefix: []byte(locationPrefix)})
		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().KeyCopy(nil)
			if _, ok := keep[string(key)]; !ok {
				stale = append(stale, key)
			}
		}
		it.Close()

		for _, key := range stale {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		for key, data := range keep {
			if err := txn.Set([]byte(key), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save locations: %w", err)
	}
	return nil
}

// LoadPreferences implements ports.PreferenceStore
func (s *Store) LoadPreferences(ctx context.Context) (map[string]domain.LocationPreference, error) {
	out := make(map[string]domain.LocationPreference)
	err := s.scan(preferencePrefix, func(code string, raw []byte) error {
		var pref domain.LocationPreference
		if err := json.Unmarshal(raw, &pref); err != nil {
			return err
		}
		out[code] = pref
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SavePreferences implements ports.PreferenceStore
func (s *Store) SavePreferences(ctx context.Context, prefs map[string]domain.LocationPreference) error {
	codes := make([]string, 0, len(prefs))
	for code := range prefs {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	return s.writeBatch(len(codes), func(i int) (string, interface{}) {
		return preferencePrefix + codes[i], prefs[codes[i]]
	})
}

// LoadItems implements ports.ItemRepository
func (s *Store) LoadItems(ctx context.Context) ([]*domain.InventoryItem, error) {
	var out []*domain.InventoryItem
	err := s.scan(itemPrefix, func(_ string, raw []byte) error {
		var item domain.InventoryItem
		if err := json.Unmarshal(raw, &item); err != nil {
			return err
		}
		item.Recompute()
		out = append(out, &item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// SaveItems implements ports.ItemRepository
func (s *Store) SaveItems(ctx context.Context, items []*domain.InventoryItem) error {
	return s.writeBatch(len(items), func(i int) (string, interface{}) {
		return itemPrefix + items[i].ID.String(), items[i]
	})
}

// RunGC rewrites value log files until ctx is done. It is a no-op for in-memory databases.
func (s *Store) RunGC(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for {
				err := s.db.RunValueLogGC(0.5)
				if err == nil {
					continue
				}
				if errors.Is(err, badger.ErrGCInMemoryMode) {
					return
				}
				if !errors.Is(err, badger.ErrNoRewrite) {
					s.logger.WarnContext(ctx, "value log gc failed", slog.String("error", err.Error()))
				}
				break
			}
		}
	}
}

func (s *Store) scan(prefix string, decode func(id string, raw []byte) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: []byte(prefix), PrefetchValues: true, PrefetchSize: 100})
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			id := string(item.Key()[len(prefix):])
			err := item.Value(func(val []byte) error {
				return decode(id, val)
			})
			if err != nil {
				return fmt.Errorf("failed to decode %s%s: %w", prefix, id, err)
			}
		}
		return nil
	})
}

func (s *Store) writeBatch(n int, entry func(i int) (string, interface{})) error {
	if n == 0 {
		return nil
	}
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for i := 0; i < n; i++ {
		key, value := entry(i)
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", key, err)
		}
		if err := wb.Set([]byte(key), data); err != nil {
			return fmt.Errorf("failed to write %s: %w", key, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("failed to flush batch: %w", err)
	}
	return nil
}

// badgerLogger routes badger's internal logging to slog. Info and debug
// chatter is demoted to debug.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

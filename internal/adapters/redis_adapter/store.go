// internal/adapters/redis_adapter/store.go
package redis_a

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

// Store persists engine state in three Redis hashes under a key prefix:
// locations by name, preferences by supplier code and items by id.
type Store struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

// Statically assert that *Store implements the Persistence interface.
var _ ports.Persistence = (*Store)(nil)

// NewStore creates a Redis persistence provider
func NewStore(client *redis.Client, prefix string, logger *slog.Logger) *Store {
	return &Store{
		client: client,
		prefix: prefix,
		logger: logger.With(slog.String("adapter", "redis")),
	}
}

func (s *Store) key(name string) string {
	return s.prefix + name
}

// LoadLocations implements ports.LocationStore
func (s *Store) LoadLocations(ctx context.Context) ([]domain.StorageLocation, error) {
	var out []domain.StorageLocation
	err := loadHash(ctx, s.client, s.key("locations"), func(_ string, raw []byte) error {
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
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// SaveLocations implements ports.LocationStore by replacing the hash atomically
func (s *Store) SaveLocations(ctx context.Context, locations []domain.StorageLocation) error {
	values := make(map[string]interface{}, len(locations))
	for _, loc := range locations {
		data, err := json.Marshal(loc)
		if err != nil {
			return fmt.Errorf("failed to encode location %q: %w", loc.Name, err)
		}
		values[loc.Name] = data
	}

	key := s.key("locations")
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(values) > 0 {
			pipe.HSet(ctx, key, values)
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
	err := loadHash(ctx, s.client, s.key("preferences"), func(code string, raw []byte) error {
		var pref domain.LocationPreference
		if err := json.Unmarshal(raw, &pref); err != nil {
			return err
		}
		if pref.Code == "" {
			pref.Code = code
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
	if len(prefs) == 0 {
		return nil
	}
	values := make(map[string]interface{}, len(prefs))
	for code, pref := range prefs {
		data, err := json.Marshal(pref)
		if err != nil {
			return fmt.Errorf("failed to encode preference %q: %w", code, err)
		}
		values[code] = data
	}
	if err := s.client.HSet(ctx, s.key("preferences"), values).Err(); err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return nil
}

// LoadItems implements ports.ItemRepository
func (s *Store) LoadItems(ctx context.Context) ([]*domain.InventoryItem, error) {
	var out []*domain.InventoryItem
	err := loadHash(ctx, s.client, s.key("items"), func(id string, raw []byte) error {
		var item domain.InventoryItem
		if err := json.Unmarshal(raw, &item); err != nil {
			return fmt.Errorf("item %s: %w", id, err)
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
	if len(items) == 0 {
		return nil
	}
	values := make(map[string]interface{}, len(items))
	for _, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("failed to encode item %s: %w", item.ID, err)
		}
		values[item.ID.String()] = data
	}
	if err := s.client.HSet(ctx, s.key("items"), values).Err(); err != nil {
		return fmt.Errorf("failed to save items: %w", err)
	}
	s.logger.DebugContext(ctx, "saved items", slog.Int("count", len(items)))
	return nil
}

func loadHash(ctx context.Context, client *redis.Client, key string, decode func(field string, raw []byte) error) error {
	fields, err := client.HGetAll(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	for field, raw := range fields {
		if err := decode(field, []byte(raw)); err != nil {
			return fmt.Errorf("failed to decode %s[%s]: %w", key, field, err)
		}
	}
	return nil
}

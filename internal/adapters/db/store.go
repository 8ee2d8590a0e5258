// internal/adapters/db/store.go
package db

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Store persists locations, preferences and item snapshots in PostgreSQL
type Store struct {
	db     *Database
	logger *slog.Logger
}

// Statically assert that *Store implements the Persistence interface.
var _ ports.Persistence = (*Store)(nil)
var _ ports.Database = (*Database)(nil)

// NewStore creates a PostgreSQL persistence provider
func NewStore(db *Database, logger *slog.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger.With(slog.String("adapter", "postgres")),
	}
}

// LoadLocations implements ports.LocationStore
func (s *Store) LoadLocations(ctx context.Context) ([]domain.StorageLocation, error) {
	query, args, err := psql.
		Select("name", "type", "capacity", "current_usage", "temperature").
		From("storage_locations").
		OrderBy("name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	return ScanMany(rows, func(r pgx.Rows) (domain.StorageLocation, error) {
		var loc domain.StorageLocation
		var typ string
		err := r.Scan(&loc.Name, &typ, &loc.Capacity, &loc.CurrentUsage, &loc.Temperature)
		loc.Type = domain.LocationType(typ)
		return loc, err
	})
}

// SaveLocations implements ports.LocationStore. Rows not in locations are removed.
func (s *Store) SaveLocations(ctx context.Context, locations []domain.StorageLocation) error {
	names := make([]string, 0, len(locations))
	for _, loc := range locations {
		names = append(names, loc.Name)
	}

	return s.db.Transaction(ctx, func(tx pgx.Tx) error {
		del, args, err := psql.Delete("storage_locations").Where(squirrel.NotEq{"name": names}).ToSql()
		if err != nil {
			return fmt.Errorf("failed to build delete: %w", err)
		}
		if _, err := tx.Exec(ctx, del, args...); err != nil {
			return fmt.Errorf("failed to prune locations: %w", err)
		}

		now := time.Now().UTC()
		for _, loc := range locations {
			query, args, err := psql.
				Insert("storage_locations").
				Columns("name", "type", "capacity", "current_usage", "temperature", "updated_at").
				Values(loc.Name, string(loc.Type), loc.Capacity, loc.CurrentUsage, loc.Temperature, now).
				Suffix(`ON CONFLICT (name) DO UPDATE SET
					type = EXCLUDED.type,
					capacity = EXCLUDED.capacity,
					current_usage = EXCLUDED.current_usage,
					temperature = EXCLUDED.temperature,
					updated_at = EXCLUDED.updated_at`).
				ToSql()
			if err != nil {
				return fmt.Errorf("failed to build upsert: %w", err)
			}
			if _, err := tx.Exec(ctx, query, args...); err != nil {
				return fmt.Errorf("failed to upsert location %q: %w", loc.Name, err)
			}
		}
		return nil
	})
}

// LoadPreferences implements ports.PreferenceStore
func (s *Store) LoadPreferences(ctx context.Context) (map[string]domain.LocationPreference, error) {
	query, args, err := psql.Select("code", "weights", "ratios", "updated_at").From("location_preferences").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query preferences: %w", err)
	}
	prefs, err := ScanMany(rows, func(r pgx.Rows) (domain.LocationPreference, error) {
		var p domain.LocationPreference
		var weights, ratios []byte
		if err := r.Scan(&p.Code, &weights, &ratios, &p.UpdatedAt); err != nil {
			return p, err
		}
		if err := json.Unmarshal(weights, &p.Weights); err != nil {
			return p, fmt.Errorf("invalid weights for %q: %w", p.Code, err)
		}
		if err := json.Unmarshal(ratios, &p.Ratios); err != nil {
			return p, fmt.Errorf("invalid ratios for %q: %w", p.Code, err)
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}

	out := make(map[string]domain.LocationPreference, len(prefs))
	for _, p := range prefs {
		out[p.Code] = p
	}
	return out, nil
}

// SavePreferences implements ports.PreferenceStore
func (s *Store) SavePreferences(ctx context.Context, prefs map[string]domain.LocationPreference) error {
	return s.db.Transaction(ctx, func(tx pgx.Tx) error {
		for code, p := range prefs {
			weights, err := json.Marshal(p.Weights)
			if err != nil {
				return fmt.Errorf("failed to encode weights for %q: %w", code, err)
			}
			ratios, err := json.Marshal(p.Ratios)
			if err != nil {
				return fmt.Errorf("failed to encode ratios for %q: %w", code, err)
			}

			query, args, err := psql.
				Insert("location_preferences").
				Columns("code", "weights", "ratios", "updated_at").
				Values(code, weights, ratios, p.UpdatedAt).
				Suffix(`ON CONFLICT (code) DO UPDATE SET
					weights = EXCLUDED.weights,
					ratios = EXCLUDED.ratios,
					updated_at = EXCLUDED.updated_at`).
				ToSql()
			if err != nil {
				return fmt.Errorf("failed to build upsert: %w", err)
			}
			if _, err := tx.Exec(ctx, query, args...); err != nil {
				return fmt.Errorf("failed to upsert preference %q: %w", code, err)
			}
		}
		return nil
	})
}

var itemColumns = []string{
	"id", "consolidation_key", "names", "category", "unit", "supplier_id", "supplier_code",
	"unit_price", "total_cost", "min_quantity", "max_quantity", "total_quantity", "ledger",
	"primary_location", "order_refs", "last_order_date", "count_record", "created_at", "updated_at",
}

// LoadItems implements ports.ItemRepository
func (s *Store) LoadItems(ctx context.Context) ([]*domain.InventoryItem, error) {
	query, args, err := psql.Select(itemColumns...).From("inventory_items").OrderBy("created_at").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	return ScanMany(rows, scanItem)
}

func scanItem(r pgx.Rows) (*domain.InventoryItem, error) {
	var (
		item                    domain.InventoryItem
		id                      uuid.UUID
		names, ledger, countRec []byte
		category                string
		unitPrice, totalCost    decimal.Decimal
		lastOrder               *time.Time
	)
	err := r.Scan(&id, &item.ConsolidationKey, &names, &category, &item.Unit, &item.SupplierID, &item.SupplierCode,
		&unitPrice, &totalCost, &item.MinQuantity, &item.MaxQuantity, &item.TotalQuantity, &ledger,
		&item.PrimaryLocation, &item.OrderRefs, &lastOrder, &countRec, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan item: %w", err)
	}

	item.ID = id
	item.Category = domain.Category(category)
	item.UnitPrice = unitPrice
	item.TotalCost = totalCost
	if lastOrder != nil {
		item.LastOrderDate = *lastOrder
	}
	if err := json.Unmarshal(names, &item.Names); err != nil {
		return nil, fmt.Errorf("invalid names for item %s: %w", id, err)
	}
	if err := json.Unmarshal(ledger, &item.Ledger); err != nil {
		return nil, fmt.Errorf("invalid ledger for item %s: %w", id, err)
	}
	if len(countRec) > 0 {
		var rec domain.CountRecord
		if err := json.Unmarshal(countRec, &rec); err != nil {
			return nil, fmt.Errorf("invalid count record for item %s: %w", id, err)
		}
		item.Count = &rec
	}
	item.Recompute()
	return &item, nil
}

// SaveItems implements ports.ItemRepository with one upsert per item in a single transaction
func (s *Store) SaveItems(ctx context.Context, items []*domain.InventoryItem) error {
	if len(items) == 0 {
		return nil
	}

	return s.db.Transaction(ctx, func(tx pgx.Tx) error {
		for _, item := range items {
			values, err := itemValues(item)
			if err != nil {
				return err
			}
			query, args, err := psql.
				Insert("inventory_items").
				Columns(itemColumns...).
				Values(values...).
				Suffix(`ON CONFLICT (id) DO UPDATE SET
					names = EXCLUDED.names,
					category = EXCLUDED.category,
					unit = EXCLUDED.unit,
					supplier_id = EXCLUDED.supplier_id,
					supplier_code = EXCLUDED.supplier_code,
					unit_price = EXCLUDED.unit_price,
					total_cost = EXCLUDED.total_cost,
					min_quantity = EXCLUDED.min_quantity,
					max_quantity = EXCLUDED.max_quantity,
					total_quantity = EXCLUDED.total_quantity,
					ledger = EXCLUDED.ledger,
					primary_location = EXCLUDED.primary_location,
					order_refs = EXCLUDED.order_refs,
					last_order_date = EXCLUDED.last_order_date,
					count_record = EXCLUDED.count_record,
					updated_at = EXCLUDED.updated_at`).
				ToSql()
			if err != nil {
				return fmt.Errorf("failed to build upsert: %w", err)
			}
			if _, err := tx.Exec(ctx, query, args...); err != nil {
				return fmt.Errorf("failed to upsert item %s: %w", item.ID, err)
			}
		}
		s.logger.DebugContext(ctx, "saved items", slog.Int("count", len(items)))
		return nil
	})
}

func itemValues(item *domain.InventoryItem) ([]interface{}, error) {
	names, err := json.Marshal(item.Names)
	if err != nil {
		return nil, fmt.Errorf("failed to encode names: %w", err)
	}
	ledger := item.Ledger
	if ledger == nil {
		ledger = domain.Ledger{}
	}
	ledgerJSON, err := json.Marshal(ledger)
	if err != nil {
		return nil, fmt.Errorf("failed to encode ledger: %w", err)
	}
	var countRec []byte
	if item.Count != nil {
		if countRec, err = json.Marshal(item.Count); err != nil {
			return nil, fmt.Errorf("failed to encode count record: %w", err)
		}
	}
	var lastOrder *time.Time
	if !item.LastOrderDate.IsZero() {
		t := item.LastOrderDate
		lastOrder = &t
	}
	refs := item.OrderRefs
	if refs == nil {
		refs = []string{}
	}

	return []interface{}{
		item.ID, item.ConsolidationKey, names, string(item.Category), item.Unit, item.SupplierID, item.SupplierCode,
		item.UnitPrice, item.TotalCost, item.MinQuantity, item.MaxQuantity, item.TotalQuantity, ledgerJSON,
		item.PrimaryLocation, refs, lastOrder, countRec, item.CreatedAt, item.UpdatedAt,
	}, nil
}

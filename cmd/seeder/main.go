// cmd/seeder/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ammerola/stockledger/internal/adapters/orderfeed"
	"github.com/ammerola/stockledger/internal/adapters/persistence"
	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
	"github.com/ammerola/stockledger/internal/core/services"
	"github.com/ammerola/stockledger/internal/pkg/config"
	"github.com/ammerola/stockledger/internal/pkg/logger"
)

// seederState tracks documents already loaded so reruns only pick up new files
type seederState struct {
	ProcessedFiles []string  `json:"processed_files"`
	ProcessedCount int       `json:"processed_count"`
	LastUpdate     time.Time `json:"last_update"`
}

// readOnly loads from the backend and drops saves. A nil backend loads nothing.
type readOnly struct {
	ports.Persistence
}

func (r readOnly) LoadLocations(ctx context.Context) ([]domain.StorageLocation, error) {
	if r.Persistence == nil {
		return nil, nil
	}
	return r.Persistence.LoadLocations(ctx)
}

func (r readOnly) LoadPreferences(ctx context.Context) (map[string]domain.LocationPreference, error) {
	if r.Persistence == nil {
		return nil, nil
	}
	return r.Persistence.LoadPreferences(ctx)
}

func (r readOnly) LoadItems(ctx context.Context) ([]*domain.InventoryItem, error) {
	if r.Persistence == nil {
		return nil, nil
	}
	return r.Persistence.LoadItems(ctx)
}

func (readOnly) SaveLocations(context.Context, []domain.StorageLocation) error { return nil }

func (readOnly) SavePreferences(context.Context, map[string]domain.LocationPreference) error {
	return nil
}

func (readOnly) SaveItems(context.Context, []*domain.InventoryItem) error { return nil }

func loadState(path string) seederState {
	var state seederState
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &state); err != nil {
			slog.Warn("ignoring unreadable state file", slog.String("error", err.Error()))
		}
	}
	return state
}

func (s *seederState) save(path string) {
	s.ProcessedCount = len(s.ProcessedFiles)
	s.LastUpdate = time.Now()
	data, _ := json.MarshalIndent(s, "", "  ")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		slog.Error("failed to write state file", slog.String("error", err.Error()))
	}
}

// orderDocuments lists every supported document in dir, sorted by name
func orderDocuments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, err := orderfeed.DetectFormat(e.Name()); err == nil {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func main() {
	var (
		ordersDir = flag.String("orders", "./orders", "Directory containing order documents (xlsx, pdf, json)")
		supplier  = flag.String("supplier", "", "Supplier id for documents that do not name one")
		category  = flag.String("category", "", "Category for lines that do not name one")
		stateFile = flag.String("state", "./.seed_state.json", "State file for tracking progress")
		logLevel  = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		dryRun    = flag.Bool("dry-run", false, "Parse and consolidate without saving")
		force     = flag.Bool("force", false, "Reprocess all documents")
	)
	flag.Parse()

	log := logger.SetupLogger(*logLevel, "json").Logger

	cfg, err := config.Load(log)
	if err != nil {
		log.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()
	if err := config.LoadSecrets(ctx, cfg, log); err != nil {
		log.Error("failed to apply secrets", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var rdb *redis.Client
	if cfg.Persistence.Driver == config.DriverRedis {
		if rdb, err = persistence.NewRedisClient(ctx, cfg.Redis); err != nil {
			log.Error("failed to connect to redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer rdb.Close()
	}

	backend, err := persistence.Open(ctx, cfg, rdb, log)
	if err != nil {
		log.Error("failed to open persistence", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer backend.Close()
	if backend.Store == nil && !*dryRun {
		log.Warn("memory driver selected, nothing will be saved")
	}

	// Saves are held back until the final flush so a dry run leaves storage untouched.
	store := readOnly{backend.Store}
	registry := services.NewLocationRegistry(store, log)
	prefs := services.NewPreferenceModel(store, log)
	svc := services.NewInventoryService(registry, prefs, store, log,
		services.WithGeneralLocation(cfg.Engine.GeneralLocation))
	if err := svc.Bootstrap(ctx, cfg.Engine.SeedDefaultLocations); err != nil {
		log.Error("failed to load engine state", slog.String("error", err.Error()))
		os.Exit(1)
	}

	state := seederState{}
	if !*force {
		state = loadState(*stateFile)
	}

	files, err := orderDocuments(*ordersDir)
	if err != nil {
		log.Error("failed to list order documents", slog.String("error", err.Error()))
		os.Exit(1)
	}

	reader := orderfeed.NewReader(log)
	meta := orderfeed.Meta{SupplierID: *supplier}
	if *category != "" {
		meta.Category = domain.NormalizeCategory(*category)
	}

	var (
		totalFiles, created, updated int
		failedFiles                  []string
		successDetails               = map[string]int{}
	)

	for i, path := range files {
		name := filepath.Base(path)
		fmt.Printf("PROGRESS: Processing %d/%d: %s\n", i+1, len(files), name)

		if slices.Contains(state.ProcessedFiles, name) {
			log.Info("skipping already processed document", slog.String("file", name))
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			failedFiles = append(failedFiles, name)
			fmt.Printf("ERROR: Failed to read %s - %v\n", name, err)
			continue
		}
		res, err := reader.Read(ctx, name, data, meta)
		if err != nil {
			failedFiles = append(failedFiles, name)
			fmt.Printf("ERROR: Failed to parse %s - %v\n", name, err)
			continue
		}
		if len(res.Orders) == 0 {
			failedFiles = append(failedFiles, fmt.Sprintf("%s (0 orders)", name))
			fmt.Printf("WARNING: No orders found in %s\n", name)
			continue
		}

		result, err := svc.ApplyConsolidation(ctx, res.Orders)
		if err != nil {
			failedFiles = append(failedFiles, name)
			fmt.Printf("ERROR: Failed to consolidate %s - %v\n", name, err)
			continue
		}

		fmt.Printf("SUCCESS: Processed %s - %d orders, %d created, %d updated, %d unchanged\n",
			name, len(res.Orders), result.Created, result.Updated, result.Unchanged)
		successDetails[name] = res.Lines()
		totalFiles++
		created += result.Created
		updated += result.Updated
		state.ProcessedFiles = append(state.ProcessedFiles, name)
	}

	if !*dryRun && backend.Store != nil {
		if err := svc.Flush(ctx, backend.Store); err != nil {
			log.Error("failed to save inventory", slog.String("error", err.Error()))
			os.Exit(1)
		}
		state.save(*stateFile)
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("SEEDING OPERATION SUMMARY")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Documents Processed: %d\n", totalFiles)
	fmt.Printf("Items Created: %d\n", created)
	fmt.Printf("Items Updated: %d\n", updated)

	if len(successDetails) > 0 {
		fmt.Printf("\nSuccessfully Processed (%d documents):\n", len(successDetails))
		for _, name := range slices.Sorted(maps.Keys(successDetails)) {
			fmt.Printf("  - %s: %d lines\n", name, successDetails[name])
		}
	}
	if len(failedFiles) > 0 {
		fmt.Printf("\nFailed/Empty Documents (%d):\n", len(failedFiles))
		for _, name := range failedFiles {
			fmt.Printf("  - %s\n", name)
		}
	}

	log.Info("seed operation completed",
		slog.Int("documents_processed", totalFiles),
		slog.Int("items_created", created),
		slog.Int("items_updated", updated),
		slog.Int("failed_documents", len(failedFiles)))

	if *dryRun {
		fmt.Println("\n[DRY RUN] No changes were saved")
	}
}

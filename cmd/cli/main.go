// Package main provides the CLI tool for the wine cellar.
// Uses Cobra for command parsing — the standard Go CLI framework
// (used by kubectl, docker, hugo, and many others).
//
// Run with: go run ./cmd/cli grapes seed
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fleveque/wine-cellar/internal/config"
	"github.com/fleveque/wine-cellar/internal/storage"
)

// defaultVarietals seeds an empty catalog. The grape catalog is not
// editable through the web UI — it's reference data the wine-facing
// flows only point at.
var defaultVarietals = []string{
	"Barbera",
	"Cabernet Sauvignon",
	"Chardonnay",
	"Gamay",
	"Grenache",
	"Merlot",
	"Nebbiolo",
	"Pinot Noir",
	"Riesling",
	"Sangiovese",
	"Syrah",
	"Tempranillo",
	"Zinfandel",
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// rootCmd creates the root command. Cobra builds a tree of commands:
// wine-cli grapes seed --file varietals.txt
// wine-cli stats
func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "wine-cli",
		Short: "Wine cellar CLI tools",
	}

	root.AddCommand(grapesCmd())
	root.AddCommand(statsCmd())
	return root
}

func grapesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grapes",
		Short: "Manage the grape varietal catalog",
	}

	var file string
	seed := &cobra.Command{
		Use:   "seed",
		Short: "Populate the varietal catalog (skips names already present)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(file)
		},
	}
	seed.Flags().StringVar(&file, "file", "", "Read varietal names from a file, one per line")

	cmd.AddCommand(seed)
	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print cellar counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats()
		},
	}
}

// openDatabase shares the config + storage bootstrap between commands.
func openDatabase() (*sqlx.DB, error) {
	cfg, err := config.Load(os.Getenv("WINE_CONFIG_PATH"))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DatabasePath), 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := storage.NewDatabase(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

func runSeed(file string) error {
	// Always use development mode for CLI output
	logger, err := zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	names := defaultVarietals
	if file != "" {
		names, err = readVarietals(file)
		if err != nil {
			return err
		}
	}

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	grapeRepo := storage.NewGrapeRepository(db)
	added, err := grapeRepo.Seed(context.Background(), names)
	if err != nil {
		return fmt.Errorf("seeding catalog: %w", err)
	}

	logger.Info("seeded grape catalog",
		zap.Int("supplied", len(names)),
		zap.Int64("added", added),
	)
	return nil
}

func runStats() error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	wines, err := storage.NewWineRepository(db).Count(ctx)
	if err != nil {
		return fmt.Errorf("counting wines: %w", err)
	}
	events, err := storage.NewLedgerRepository(db).CountEvents(ctx)
	if err != nil {
		return fmt.Errorf("counting events: %w", err)
	}
	grapes, err := storage.NewGrapeRepository(db).Catalog(ctx)
	if err != nil {
		return fmt.Errorf("listing catalog: %w", err)
	}

	fmt.Printf("wines: %d\nledger events: %d\ncatalog varietals: %d\n",
		wines, events, len(grapes))
	return nil
}

// readVarietals parses one name per line, skipping blanks and
// #-comments.
func readVarietals(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening varietal file: %w", err)
	}
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading varietal file: %w", err)
	}
	return names, nil
}

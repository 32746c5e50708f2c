package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fleveque/wine-cellar/internal/model"
)

// GrapeRepository manages the varietal catalog and the wine↔grape
// associations. Associations are replaced wholesale — Replace deletes
// the current set and inserts the new one, never diffs. The
// transaction guarantees no reader observes a partial grape set.
type GrapeRepository interface {
	Catalog(ctx context.Context) ([]model.GrapeVarietal, error)
	// Seed inserts catalog entries, skipping names that already exist.
	Seed(ctx context.Context, names []string) (int64, error)
	ForWine(ctx context.Context, wineID int64) ([]string, error)
	Replace(ctx context.Context, wineID int64, names []string) error
}

type sqliteGrapeRepository struct {
	db *sqlx.DB
}

// NewGrapeRepository creates a new SQLite-backed GrapeRepository.
func NewGrapeRepository(db *sqlx.DB) GrapeRepository {
	return &sqliteGrapeRepository{db: db}
}

func (r *sqliteGrapeRepository) Catalog(ctx context.Context) ([]model.GrapeVarietal, error) {
	var grapes []model.GrapeVarietal
	err := r.db.SelectContext(ctx, &grapes, "SELECT * FROM grapes ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing grape catalog: %w", err)
	}
	return grapes, nil
}

func (r *sqliteGrapeRepository) Seed(ctx context.Context, names []string) (int64, error) {
	var added int64
	for _, name := range names {
		result, err := r.db.ExecContext(ctx,
			"INSERT OR IGNORE INTO grapes (name) VALUES (?)", name)
		if err != nil {
			return added, fmt.Errorf("seeding grape %q: %w", name, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return added, fmt.Errorf("checking seed result: %w", err)
		}
		added += n
	}
	return added, nil
}

func (r *sqliteGrapeRepository) ForWine(ctx context.Context, wineID int64) ([]string, error) {
	var names []string
	err := r.db.SelectContext(ctx, &names,
		"SELECT grape_name FROM wine_grapes WHERE wine_id = ? ORDER BY grape_name",
		wineID)
	if err != nil {
		return nil, fmt.Errorf("getting grapes for wine %d: %w", wineID, err)
	}
	return names, nil
}

// Replace sets the association set to exactly names. An empty slice is
// a valid target: it clears every association for the wine.
func (r *sqliteGrapeRepository) Replace(ctx context.Context, wineID int64, names []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning grape transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM wine_grapes WHERE wine_id = ?", wineID); err != nil {
		return fmt.Errorf("clearing grapes for wine %d: %w", wineID, err)
	}

	for _, name := range names {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO wine_grapes (wine_id, grape_name) VALUES (?, ?)",
			wineID, name); err != nil {
			return fmt.Errorf("inserting grape %q for wine %d: %w", name, wineID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing grape replace: %w", err)
	}
	return nil
}

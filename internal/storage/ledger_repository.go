package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fleveque/wine-cellar/internal/model"
)

// LedgerRepository persists the append-only inventory event log.
// There is deliberately no Update or single-event Delete: the ledger is
// a log, and recording the same event twice creates two entries.
type LedgerRepository interface {
	// InsertEvent appends one event. Returns ErrNotFound when the wine
	// reference is invalid — checked explicitly so a bad id surfaces as
	// a domain error instead of a driver-specific constraint failure.
	InsertEvent(ctx context.Context, wineID int64, bottles int64, at time.Time) error
	ListEvents(ctx context.Context, wineID int64) ([]model.InventoryEvent, error)
	CountEvents(ctx context.Context) (int64, error)
}

type sqliteLedgerRepository struct {
	db *sqlx.DB
}

// NewLedgerRepository creates a new SQLite-backed LedgerRepository.
func NewLedgerRepository(db *sqlx.DB) LedgerRepository {
	return &sqliteLedgerRepository{db: db}
}

func (r *sqliteLedgerRepository) InsertEvent(ctx context.Context, wineID int64, bottles int64, at time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning event transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM wines WHERE id = ?)", wineID); err != nil {
		return fmt.Errorf("checking wine %d: %w", wineID, err)
	}
	if !exists {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO wine_inventory_events (wine_id, dt, bottles) VALUES (?, ?, ?)",
		wineID, at, bottles); err != nil {
		return fmt.Errorf("inserting event for wine %d: %w", wineID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing event: %w", err)
	}
	return nil
}

func (r *sqliteLedgerRepository) ListEvents(ctx context.Context, wineID int64) ([]model.InventoryEvent, error) {
	var events []model.InventoryEvent
	err := r.db.SelectContext(ctx, &events,
		"SELECT * FROM wine_inventory_events WHERE wine_id = ? ORDER BY dt",
		wineID)
	if err != nil {
		return nil, fmt.Errorf("listing events for wine %d: %w", wineID, err)
	}
	return events, nil
}

func (r *sqliteLedgerRepository) CountEvents(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM wine_inventory_events")
	return count, err
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fleveque/wine-cellar/internal/model"
)

// ErrNotFound is returned when a referenced wine doesn't exist.
// Go uses sentinel errors (predefined error values) instead of exception
// types. Callers check with errors.Is(err, ErrNotFound).
var ErrNotFound = errors.New("wine not found")

// WineRepository defines the interface for wine persistence.
// Go interfaces are implicit — any struct with these methods satisfies
// it, which makes swapping in test doubles trivial.
type WineRepository interface {
	Add(ctx context.Context, name string, year int64) (*model.Wine, error)
	Get(ctx context.Context, id int64) (*model.Wine, error)
	List(ctx context.Context) ([]model.Wine, error)
	// Delete removes the wine and every dependent row (ledger events,
	// comments, grape associations) in one transaction. An observer
	// never sees a partially deleted wine.
	Delete(ctx context.Context, id int64) error
	GetImage(ctx context.Context, id int64) ([]byte, error)
	// SetImage overwrites both stored representations in place. Old
	// bytes are discarded — no history is kept.
	SetImage(ctx context.Context, id int64, image, thumbnail []byte) error
	Count(ctx context.Context) (int64, error)
}

// sqliteWineRepository is the SQLite implementation of WineRepository.
// The struct is unexported — only the interface is public.
type sqliteWineRepository struct {
	db *sqlx.DB
}

// NewWineRepository creates a new SQLite-backed WineRepository.
func NewWineRepository(db *sqlx.DB) WineRepository {
	return &sqliteWineRepository{db: db}
}

func (r *sqliteWineRepository) Add(ctx context.Context, name string, year int64) (*model.Wine, error) {
	result, err := r.db.ExecContext(ctx,
		"INSERT INTO wines (name, year) VALUES (?, ?)", name, year)
	if err != nil {
		return nil, fmt.Errorf("adding wine: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting last insert id: %w", err)
	}
	return &model.Wine{ID: id, Name: name, Year: year}, nil
}

func (r *sqliteWineRepository) Get(ctx context.Context, id int64) (*model.Wine, error) {
	var wine model.Wine
	err := r.db.GetContext(ctx, &wine, "SELECT * FROM wines WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting wine %d: %w", id, err)
	}
	return &wine, nil
}

func (r *sqliteWineRepository) List(ctx context.Context) ([]model.Wine, error) {
	var wines []model.Wine
	err := r.db.SelectContext(ctx, &wines, "SELECT * FROM wines ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("listing wines: %w", err)
	}
	return wines, nil
}

// Delete cascades across all four tables inside a single transaction.
// The deferred Rollback is a no-op after Commit succeeds — this is the
// standard Go shape for "all-or-nothing" multi-statement work.
func (r *sqliteWineRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning delete transaction: %w", err)
	}
	defer tx.Rollback()

	if err := deleteWineTx(ctx, tx, id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing delete: %w", err)
	}
	return nil
}

// deleteWineTx holds the cascade order: dependents first, then the wine
// row itself. Split out so tests can drive it inside their own
// transaction and verify rollback leaves no partial effect.
func deleteWineTx(ctx context.Context, tx *sqlx.Tx, id int64) error {
	for _, q := range []string{
		"DELETE FROM wine_inventory_events WHERE wine_id = ?",
		"DELETE FROM wine_comments WHERE wine_id = ?",
		"DELETE FROM wine_grapes WHERE wine_id = ?",
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("cascading delete for wine %d: %w", id, err)
		}
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM wines WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting wine %d: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sqliteWineRepository) GetImage(ctx context.Context, id int64) ([]byte, error) {
	var image []byte
	err := r.db.GetContext(ctx, &image, "SELECT image FROM wines WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting image for wine %d: %w", id, err)
	}
	// image stays nil when no photo has been uploaded — that's a valid
	// state, not an error.
	return image, nil
}

func (r *sqliteWineRepository) SetImage(ctx context.Context, id int64, image, thumbnail []byte) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE wines SET image = ?, image_thumbnail = ? WHERE id = ?",
		image, thumbnail, id)
	if err != nil {
		return fmt.Errorf("setting image for wine %d: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking image update: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sqliteWineRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM wines")
	return count, err
}

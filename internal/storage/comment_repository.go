package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fleveque/wine-cellar/internal/model"
)

// CommentRepository persists free-text wine comments. Append-only:
// comments are immutable once written and only removed by the cascading
// wine delete.
type CommentRepository interface {
	Insert(ctx context.Context, wineID int64, text string, at time.Time) error
	// ListByWine returns comments newest-first.
	ListByWine(ctx context.Context, wineID int64) ([]model.Comment, error)
	// Latest returns the most recent comment, or nil when the wine has
	// none. "Most recent comment" is derived, never stored.
	Latest(ctx context.Context, wineID int64) (*model.Comment, error)
}

type sqliteCommentRepository struct {
	db *sqlx.DB
}

// NewCommentRepository creates a new SQLite-backed CommentRepository.
func NewCommentRepository(db *sqlx.DB) CommentRepository {
	return &sqliteCommentRepository{db: db}
}

func (r *sqliteCommentRepository) Insert(ctx context.Context, wineID int64, text string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO wine_comments (wine_id, dt, comment) VALUES (?, ?, ?)",
		wineID, at, text)
	if err != nil {
		return fmt.Errorf("inserting comment for wine %d: %w", wineID, err)
	}
	return nil
}

func (r *sqliteCommentRepository) ListByWine(ctx context.Context, wineID int64) ([]model.Comment, error) {
	var comments []model.Comment
	err := r.db.SelectContext(ctx, &comments,
		"SELECT * FROM wine_comments WHERE wine_id = ? ORDER BY dt DESC",
		wineID)
	if err != nil {
		return nil, fmt.Errorf("listing comments for wine %d: %w", wineID, err)
	}
	return comments, nil
}

func (r *sqliteCommentRepository) Latest(ctx context.Context, wineID int64) (*model.Comment, error) {
	var comment model.Comment
	err := r.db.GetContext(ctx, &comment,
		"SELECT * FROM wine_comments WHERE wine_id = ? ORDER BY dt DESC LIMIT 1",
		wineID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting latest comment for wine %d: %w", wineID, err)
	}
	return &comment, nil
}

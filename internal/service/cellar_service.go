package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fleveque/wine-cellar/internal/model"
	"github.com/fleveque/wine-cellar/internal/storage"
)

// CellarService orchestrates the repositories, the ledger engine and
// the image pipeline behind the HTTP handlers. It owns no state of its
// own — all durable state lives in the store, so concurrent requests
// coordinate only through its transactions.
type CellarService struct {
	wines    storage.WineRepository
	grapes   storage.GrapeRepository
	comments storage.CommentRepository
	ledger   *Ledger
	pipeline *ImagePipeline
	logger   *zap.Logger
}

// NewCellarService wires up the service with all its collaborators.
func NewCellarService(
	wines storage.WineRepository,
	grapes storage.GrapeRepository,
	comments storage.CommentRepository,
	ledger *Ledger,
	pipeline *ImagePipeline,
	logger *zap.Logger,
) *CellarService {
	return &CellarService{
		wines:    wines,
		grapes:   grapes,
		comments: comments,
		ledger:   ledger,
		pipeline: pipeline,
		logger:   logger,
	}
}

// WineDetail is everything the single-wine view renders.
type WineDetail struct {
	Wine     *model.Wine
	Stock    int64
	Events   []model.InventoryEvent
	Comments []model.Comment
	Grapes   []string
}

// Ledger exposes the inventory engine for handlers that record events
// directly.
func (s *CellarService) Ledger() *Ledger {
	return s.ledger
}

// AddWine creates a wine from name and vintage year. The image is
// attached later through the upload flow.
func (s *CellarService) AddWine(ctx context.Context, name string, year int64) (*model.Wine, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("wine name must not be empty: %w", ErrInvalidInput)
	}
	wine, err := s.wines.Add(ctx, name, year)
	if err != nil {
		return nil, err
	}
	s.logger.Info("added wine",
		zap.Int64("id", wine.ID),
		zap.String("name", wine.Name),
		zap.Int64("year", wine.Year),
	)
	return wine, nil
}

// DeleteWine removes the wine and all dependent rows atomically.
func (s *CellarService) DeleteWine(ctx context.Context, id int64) error {
	if err := s.wines.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("deleted wine", zap.Int64("id", id))
	return nil
}

// Overview assembles the wine table rows: derived stock, grape names
// and thumbnail per wine. When grapePrefix is non-empty only wines with
// at least one grape matching the prefix (case-insensitive) are kept.
func (s *CellarService) Overview(ctx context.Context, grapePrefix string) ([]model.WineOverview, error) {
	wines, err := s.wines.List(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]model.WineOverview, 0, len(wines))
	for _, wine := range wines {
		stock, err := s.ledger.CurrentStock(ctx, wine.ID)
		if err != nil {
			return nil, err
		}
		grapes, err := s.grapes.ForWine(ctx, wine.ID)
		if err != nil {
			return nil, err
		}
		if grapePrefix != "" && !HasGrapePrefix(grapes, grapePrefix) {
			continue
		}
		rows = append(rows, model.WineOverview{
			ID:        wine.ID,
			Name:      wine.Name,
			Year:      wine.Year,
			Bottles:   stock,
			Grapes:    grapes,
			Thumbnail: wine.Thumbnail,
		})
	}
	return rows, nil
}

// HasGrapePrefix reports whether any grape name starts with the given
// prefix, ignoring case. A pure predicate over the resolved set.
func HasGrapePrefix(grapes []string, prefix string) bool {
	p := strings.ToLower(prefix)
	for _, g := range grapes {
		if strings.HasPrefix(strings.ToLower(g), p) {
			return true
		}
	}
	return false
}

// Detail loads the full single-wine view: the wine row, its derived
// stock, the event history and comments (newest first), and its grapes.
func (s *CellarService) Detail(ctx context.Context, id int64) (*WineDetail, error) {
	wine, err := s.wines.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	stock, err := s.ledger.CurrentStock(ctx, id)
	if err != nil {
		return nil, err
	}
	events, err := s.ledger.Events(ctx, id)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByWine(ctx, id)
	if err != nil {
		return nil, err
	}
	grapes, err := s.grapes.ForWine(ctx, id)
	if err != nil {
		return nil, err
	}
	return &WineDetail{
		Wine:     wine,
		Stock:    stock,
		Events:   events,
		Comments: comments,
		Grapes:   grapes,
	}, nil
}

// LatestComment returns the newest comment for a wine, or nil.
func (s *CellarService) LatestComment(ctx context.Context, id int64) (*model.Comment, error) {
	return s.comments.Latest(ctx, id)
}

// AddComment appends a free-text comment stamped with the server time.
func (s *CellarService) AddComment(ctx context.Context, id int64, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("comment must not be empty: %w", ErrInvalidInput)
	}
	if _, err := s.wines.Get(ctx, id); err != nil {
		return err
	}
	return s.comments.Insert(ctx, id, text, time.Now())
}

// GrapeCatalog lists all known varietals.
func (s *CellarService) GrapeCatalog(ctx context.Context) ([]model.GrapeVarietal, error) {
	return s.grapes.Catalog(ctx)
}

// GrapesForWine lists the associated grape names for one wine.
func (s *CellarService) GrapesForWine(ctx context.Context, id int64) ([]string, error) {
	return s.grapes.ForWine(ctx, id)
}

// SetGrapes replaces the wine's association set wholesale. An empty
// selection clears it — that's a valid target, not a no-op.
func (s *CellarService) SetGrapes(ctx context.Context, id int64, names []string) error {
	if _, err := s.wines.Get(ctx, id); err != nil {
		return err
	}
	return s.grapes.Replace(ctx, id, names)
}

// UploadImage runs the derivation pipeline over raw upload bytes and
// stores the canonical PNG plus thumbnail, replacing any previous
// image.
func (s *CellarService) UploadImage(ctx context.Context, id int64, raw []byte, userAgent string) error {
	full, thumb, err := s.pipeline.Process(raw, userAgent)
	if err != nil {
		return err
	}
	if err := s.wines.SetImage(ctx, id, full, thumb); err != nil {
		return err
	}
	s.logger.Info("stored wine image",
		zap.Int64("id", id),
		zap.Int("raw_bytes", len(raw)),
		zap.Int("stored_bytes", len(full)),
	)
	return nil
}

// CropImage extracts a region from the stored image (clamped to its
// bounds) and re-derives the thumbnail from the cropped result.
func (s *CellarService) CropImage(ctx context.Context, id int64, x, y, w, h int) error {
	stored, err := s.wines.GetImage(ctx, id)
	if err != nil {
		return err
	}
	if len(stored) == 0 {
		return fmt.Errorf("wine %d has no image: %w", id, storage.ErrNotFound)
	}
	full, thumb, err := s.pipeline.Crop(stored, x, y, w, h)
	if err != nil {
		return err
	}
	return s.wines.SetImage(ctx, id, full, thumb)
}

// Image returns the stored full-size PNG bytes, nil when unset.
func (s *CellarService) Image(ctx context.Context, id int64) ([]byte, error) {
	return s.wines.GetImage(ctx, id)
}

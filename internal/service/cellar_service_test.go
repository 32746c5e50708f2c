package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/fleveque/wine-cellar/internal/storage"
)

// newTestCellar wires the service against a real SQLite database in a
// temp directory — the same stack the server runs, minus HTTP.
func newTestCellar(t *testing.T) *CellarService {
	t.Helper()

	db, err := storage.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("creating test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewCellarService(
		storage.NewWineRepository(db),
		storage.NewGrapeRepository(db),
		storage.NewCommentRepository(db),
		NewLedger(storage.NewLedgerRepository(db)),
		NewImagePipeline(512, 128),
		zap.NewNop(),
	)
}

func TestHasGrapePrefix(t *testing.T) {
	grapes := []string{"Barbera", "Pinot Noir"}

	tests := []struct {
		name   string
		prefix string
		want   bool
	}{
		{"exact lowercase prefix", "bar", true},
		{"uppercase prefix", "BAR", true},
		{"mixed case longer prefix", "Barb", true},
		{"second grape matches", "pinot", true},
		{"suffix is not a prefix", "arbera", false},
		{"no match", "merlot", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasGrapePrefix(grapes, tt.prefix); got != tt.want {
				t.Errorf("HasGrapePrefix(%v, %q) = %v, want %v", grapes, tt.prefix, got, tt.want)
			}
		})
	}
}

func TestAddWine_RejectsBlankName(t *testing.T) {
	cellar := newTestCellar(t)

	_, err := cellar.AddWine(context.Background(), "   ", 2020)
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAddComment_Validation(t *testing.T) {
	cellar := newTestCellar(t)
	ctx := context.Background()

	wine, err := cellar.AddWine(ctx, "Barolo", 2019)
	if err != nil {
		t.Fatalf("adding wine: %v", err)
	}

	if err := cellar.AddComment(ctx, wine.ID, "  "); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for blank comment, got %v", err)
	}
	if err := cellar.AddComment(ctx, 999, "fine"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown wine, got %v", err)
	}
	if err := cellar.AddComment(ctx, wine.ID, "cherry and tar"); err != nil {
		t.Fatalf("adding comment: %v", err)
	}

	latest, err := cellar.LatestComment(ctx, wine.ID)
	if err != nil {
		t.Fatalf("getting latest comment: %v", err)
	}
	if latest == nil || latest.Text != "cherry and tar" {
		t.Errorf("expected latest comment, got %+v", latest)
	}
}

// The full lifecycle: add a wine, buy a case, drink a few, check that
// the overview and detail views agree on the derived stock.
func TestCellarLifecycle(t *testing.T) {
	cellar := newTestCellar(t)
	ctx := context.Background()

	wine, err := cellar.AddWine(ctx, "Barolo", 2019)
	if err != nil {
		t.Fatalf("adding wine: %v", err)
	}
	if err := cellar.SetGrapes(ctx, wine.ID, []string{"Nebbiolo"}); err != nil {
		t.Fatalf("setting grapes: %v", err)
	}

	if err := cellar.Ledger().RecordPurchase(ctx, wine.ID, 12, "2024-01-15"); err != nil {
		t.Fatalf("recording purchase: %v", err)
	}
	if err := cellar.Ledger().RecordConsumption(ctx, wine.ID, 3, "2024-06-20"); err != nil {
		t.Fatalf("recording consumption: %v", err)
	}

	detail, err := cellar.Detail(ctx, wine.ID)
	if err != nil {
		t.Fatalf("getting detail: %v", err)
	}
	if detail.Stock != 9 {
		t.Errorf("expected stock 9, got %d", detail.Stock)
	}
	if len(detail.Events) != 2 {
		t.Errorf("expected 2 events, got %d", len(detail.Events))
	}
	if len(detail.Grapes) != 1 || detail.Grapes[0] != "Nebbiolo" {
		t.Errorf("expected [Nebbiolo], got %v", detail.Grapes)
	}

	overview, err := cellar.Overview(ctx, "")
	if err != nil {
		t.Fatalf("getting overview: %v", err)
	}
	if len(overview) != 1 {
		t.Fatalf("expected 1 row, got %d", len(overview))
	}
	if overview[0].Bottles != 9 {
		t.Errorf("overview and detail disagree on stock: %d", overview[0].Bottles)
	}
}

func TestOverview_GrapeFilter(t *testing.T) {
	cellar := newTestCellar(t)
	ctx := context.Background()

	barolo, err := cellar.AddWine(ctx, "Barolo", 2019)
	if err != nil {
		t.Fatalf("adding wine: %v", err)
	}
	rioja, err := cellar.AddWine(ctx, "Rioja", 2020)
	if err != nil {
		t.Fatalf("adding wine: %v", err)
	}
	if err := cellar.SetGrapes(ctx, barolo.ID, []string{"Nebbiolo"}); err != nil {
		t.Fatalf("setting grapes: %v", err)
	}
	if err := cellar.SetGrapes(ctx, rioja.ID, []string{"Tempranillo", "Grenache"}); err != nil {
		t.Fatalf("setting grapes: %v", err)
	}

	rows, err := cellar.Overview(ctx, "neb")
	if err != nil {
		t.Fatalf("filtering overview: %v", err)
	}
	if len(rows) != 1 || rows[0].Name != "Barolo" {
		t.Errorf("expected only Barolo for prefix 'neb', got %+v", rows)
	}

	// Empty filter keeps everything
	rows, err = cellar.Overview(ctx, "")
	if err != nil {
		t.Fatalf("listing overview: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("expected 2 rows without filter, got %d", len(rows))
	}
}

func TestSetGrapes_EmptyClears(t *testing.T) {
	cellar := newTestCellar(t)
	ctx := context.Background()

	wine, err := cellar.AddWine(ctx, "Barolo", 2019)
	if err != nil {
		t.Fatalf("adding wine: %v", err)
	}
	if err := cellar.SetGrapes(ctx, wine.ID, []string{"Nebbiolo", "Barbera"}); err != nil {
		t.Fatalf("setting grapes: %v", err)
	}
	if err := cellar.SetGrapes(ctx, wine.ID, nil); err != nil {
		t.Fatalf("clearing grapes: %v", err)
	}

	grapes, err := cellar.GrapesForWine(ctx, wine.ID)
	if err != nil {
		t.Fatalf("getting grapes: %v", err)
	}
	if len(grapes) != 0 {
		t.Errorf("expected cleared grape set, got %v", grapes)
	}

	if err := cellar.SetGrapes(ctx, 999, []string{"Merlot"}); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown wine, got %v", err)
	}
}

func TestCropImage_RequiresStoredImage(t *testing.T) {
	cellar := newTestCellar(t)
	ctx := context.Background()

	wine, err := cellar.AddWine(ctx, "Barolo", 2019)
	if err != nil {
		t.Fatalf("adding wine: %v", err)
	}

	err = cellar.CropImage(ctx, wine.ID, 0, 0, 10, 10)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound for imageless wine, got %v", err)
	}
}

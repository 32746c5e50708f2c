package storage

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

// setupTestDB creates a real SQLite database in a temp directory.
// t.TempDir() is automatically cleaned up after the test — no manual
// teardown needed.
func setupTestDB(t *testing.T) *sqliteWineRepository {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := NewDatabase(dbPath)
	if err != nil {
		t.Fatalf("creating test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return &sqliteWineRepository{db: db}
}

func TestWineRepository_AddAndGet(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	added, err := repo.Add(ctx, "Barolo", 2019)
	if err != nil {
		t.Fatalf("adding wine: %v", err)
	}
	if added.ID == 0 {
		t.Error("expected non-zero id")
	}

	got, err := repo.Get(ctx, added.ID)
	if err != nil {
		t.Fatalf("getting wine: %v", err)
	}
	if got.Name != "Barolo" || got.Year != 2019 {
		t.Errorf("got %q/%d, want Barolo/2019", got.Name, got.Year)
	}
	if got.Image != nil {
		t.Error("expected no image on a fresh wine")
	}
}

func TestWineRepository_GetNotFound(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.Get(context.Background(), 999)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestWineRepository_List(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	for _, name := range []string{"Rioja", "Chianti", "Malbec"} {
		if _, err := repo.Add(ctx, name, 2020); err != nil {
			t.Fatalf("adding %s: %v", name, err)
		}
	}

	wines, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("listing wines: %v", err)
	}
	if len(wines) != 3 {
		t.Fatalf("expected 3 wines, got %d", len(wines))
	}
	// Insertion order, by id
	if wines[0].Name != "Rioja" || wines[2].Name != "Malbec" {
		t.Errorf("unexpected order: %q .. %q", wines[0].Name, wines[2].Name)
	}
}

func TestWineRepository_SetAndGetImage(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	wine, err := repo.Add(ctx, "Barolo", 2019)
	if err != nil {
		t.Fatalf("adding wine: %v", err)
	}

	// Before any upload the image is nil, not an error
	img, err := repo.GetImage(ctx, wine.ID)
	if err != nil {
		t.Fatalf("getting empty image: %v", err)
	}
	if img != nil {
		t.Errorf("expected nil image before upload, got %d bytes", len(img))
	}

	full := []byte("full-image-bytes")
	thumb := []byte("thumb-bytes")
	if err := repo.SetImage(ctx, wine.ID, full, thumb); err != nil {
		t.Fatalf("setting image: %v", err)
	}

	img, err = repo.GetImage(ctx, wine.ID)
	if err != nil {
		t.Fatalf("getting image: %v", err)
	}
	if !bytes.Equal(img, full) {
		t.Error("stored image does not round-trip")
	}

	got, err := repo.Get(ctx, wine.ID)
	if err != nil {
		t.Fatalf("getting wine: %v", err)
	}
	if !bytes.Equal(got.Thumbnail, thumb) {
		t.Error("stored thumbnail does not round-trip")
	}
}

func TestWineRepository_SetImageNotFound(t *testing.T) {
	repo := setupTestDB(t)

	err := repo.SetImage(context.Background(), 999, []byte("x"), []byte("y"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// seedDependents attaches one ledger event, one comment, and one grape
// association to the wine so cascade behavior is observable.
func seedDependents(t *testing.T, repo *sqliteWineRepository, wineID int64) {
	t.Helper()
	ctx := context.Background()

	ledger := NewLedgerRepository(repo.db)
	if err := ledger.InsertEvent(ctx, wineID, 6, time.Now()); err != nil {
		t.Fatalf("inserting event: %v", err)
	}
	comments := NewCommentRepository(repo.db)
	if err := comments.Insert(ctx, wineID, "great nose", time.Now()); err != nil {
		t.Fatalf("inserting comment: %v", err)
	}
	grapes := NewGrapeRepository(repo.db)
	if err := grapes.Replace(ctx, wineID, []string{"Nebbiolo"}); err != nil {
		t.Fatalf("inserting grapes: %v", err)
	}
}

func countRows(t *testing.T, repo *sqliteWineRepository, table string, wineID int64) int64 {
	t.Helper()

	var n int64
	err := repo.db.Get(&n, "SELECT COUNT(*) FROM "+table+" WHERE wine_id = ?", wineID)
	if err != nil {
		t.Fatalf("counting %s: %v", table, err)
	}
	return n
}

func TestWineRepository_DeleteCascades(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	doomed, err := repo.Add(ctx, "Barolo", 2019)
	if err != nil {
		t.Fatalf("adding wine: %v", err)
	}
	survivor, err := repo.Add(ctx, "Rioja", 2020)
	if err != nil {
		t.Fatalf("adding wine: %v", err)
	}
	seedDependents(t, repo, doomed.ID)
	seedDependents(t, repo, survivor.ID)

	if err := repo.Delete(ctx, doomed.ID); err != nil {
		t.Fatalf("deleting wine: %v", err)
	}

	if _, err := repo.Get(ctx, doomed.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected deleted wine to be gone, got %v", err)
	}
	for _, table := range []string{"wine_inventory_events", "wine_comments", "wine_grapes"} {
		if n := countRows(t, repo, table, doomed.ID); n != 0 {
			t.Errorf("expected 0 rows in %s after delete, got %d", table, n)
		}
		// The other wine's rows must be untouched
		if n := countRows(t, repo, table, survivor.ID); n != 1 {
			t.Errorf("expected 1 row in %s for surviving wine, got %d", table, n)
		}
	}
}

func TestWineRepository_DeleteNotFound(t *testing.T) {
	repo := setupTestDB(t)

	err := repo.Delete(context.Background(), 999)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestWineRepository_DeleteRollbackLeavesNoTrace(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	wine, err := repo.Add(ctx, "Barolo", 2019)
	if err != nil {
		t.Fatalf("adding wine: %v", err)
	}
	seedDependents(t, repo, wine.ID)

	// Drive the cascade inside a transaction we abandon — nothing of it
	// may be visible afterwards.
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		t.Fatalf("beginning transaction: %v", err)
	}
	if err := deleteWineTx(ctx, tx, wine.ID); err != nil {
		t.Fatalf("deleting in transaction: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("rolling back: %v", err)
	}

	if _, err := repo.Get(ctx, wine.ID); err != nil {
		t.Fatalf("expected wine to survive rollback, got %v", err)
	}
	for _, table := range []string{"wine_inventory_events", "wine_comments", "wine_grapes"} {
		if n := countRows(t, repo, table, wine.ID); n != 1 {
			t.Errorf("expected 1 row in %s after rollback, got %d", table, n)
		}
	}
}

func TestWineRepository_Count(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	n, err := repo.Count(ctx)
	if err != nil || n != 0 {
		t.Fatalf("expected empty count, got %d (%v)", n, err)
	}
	if _, err := repo.Add(ctx, "Barolo", 2019); err != nil {
		t.Fatalf("adding wine: %v", err)
	}
	n, err = repo.Count(ctx)
	if err != nil || n != 1 {
		t.Errorf("expected count 1, got %d (%v)", n, err)
	}
}

package storage

import (
	"context"
	"testing"
)

func TestGrapeRepository_SeedSkipsExisting(t *testing.T) {
	wines := setupTestDB(t)
	repo := NewGrapeRepository(wines.db)
	ctx := context.Background()

	added, err := repo.Seed(ctx, []string{"Nebbiolo", "Merlot", "Syrah"})
	if err != nil {
		t.Fatalf("seeding: %v", err)
	}
	if added != 3 {
		t.Errorf("expected 3 added, got %d", added)
	}

	// Seeding again with an overlap adds only the new name
	added, err = repo.Seed(ctx, []string{"Merlot", "Gamay"})
	if err != nil {
		t.Fatalf("reseeding: %v", err)
	}
	if added != 1 {
		t.Errorf("expected 1 added on reseed, got %d", added)
	}

	catalog, err := repo.Catalog(ctx)
	if err != nil {
		t.Fatalf("listing catalog: %v", err)
	}
	if len(catalog) != 4 {
		t.Fatalf("expected 4 varietals, got %d", len(catalog))
	}
	// Catalog is sorted by name
	if catalog[0].Name != "Gamay" || catalog[3].Name != "Syrah" {
		t.Errorf("unexpected catalog order: %q .. %q", catalog[0].Name, catalog[3].Name)
	}
}

func TestGrapeRepository_ReplaceWholesale(t *testing.T) {
	wines := setupTestDB(t)
	repo := NewGrapeRepository(wines.db)
	ctx := context.Background()

	wine, err := wines.Add(ctx, "Barolo", 2019)
	if err != nil {
		t.Fatalf("adding wine: %v", err)
	}

	if err := repo.Replace(ctx, wine.ID, []string{"Nebbiolo", "Barbera"}); err != nil {
		t.Fatalf("replacing grapes: %v", err)
	}
	got, err := repo.ForWine(ctx, wine.ID)
	if err != nil {
		t.Fatalf("getting grapes: %v", err)
	}
	if len(got) != 2 || got[0] != "Barbera" || got[1] != "Nebbiolo" {
		t.Fatalf("expected [Barbera Nebbiolo], got %v", got)
	}

	// A second replace fully supersedes the first set — nothing merges
	if err := repo.Replace(ctx, wine.ID, []string{"Merlot"}); err != nil {
		t.Fatalf("replacing grapes: %v", err)
	}
	got, err = repo.ForWine(ctx, wine.ID)
	if err != nil {
		t.Fatalf("getting grapes: %v", err)
	}
	if len(got) != 1 || got[0] != "Merlot" {
		t.Errorf("expected [Merlot], got %v", got)
	}
}

func TestGrapeRepository_ReplaceEmptyClears(t *testing.T) {
	wines := setupTestDB(t)
	repo := NewGrapeRepository(wines.db)
	ctx := context.Background()

	wine, err := wines.Add(ctx, "Barolo", 2019)
	if err != nil {
		t.Fatalf("adding wine: %v", err)
	}
	if err := repo.Replace(ctx, wine.ID, []string{"Nebbiolo"}); err != nil {
		t.Fatalf("replacing grapes: %v", err)
	}

	if err := repo.Replace(ctx, wine.ID, nil); err != nil {
		t.Fatalf("clearing grapes: %v", err)
	}
	got, err := repo.ForWine(ctx, wine.ID)
	if err != nil {
		t.Fatalf("getting grapes: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty grape set, got %v", got)
	}
}

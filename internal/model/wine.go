// Package model defines the core data types for the wine cellar.
// In Go, we use structs instead of classes. Struct tags (the `db:"..."`
// annotations) tell sqlx how to map database columns to fields.
package model

import "time"

// Wine is the main domain entity. The image columns hold the canonical
// PNG bytes directly — a personal collection is small enough that blob
// storage in SQLite beats juggling a separate file tree.
//
// Image and Thumbnail are nil until a photo has been uploaded.
type Wine struct {
	ID        int64  `db:"id"`
	Name      string `db:"name"`
	Year      int64  `db:"year"`
	Image     []byte `db:"image"`
	Thumbnail []byte `db:"image_thumbnail"`
}

// InventoryEvent is one entry in the append-only bottle ledger.
// Positive bottles = acquired, negative = consumed. Events are never
// updated or deleted individually — the current stock for a wine is
// always the sum of its deltas, recomputed on read.
type InventoryEvent struct {
	WineID  int64     `db:"wine_id"`
	At      time.Time `db:"dt"`
	Bottles int64     `db:"bottles"`
}

// Comment is a free-text note on a wine, immutable once written.
type Comment struct {
	WineID int64     `db:"wine_id"`
	At     time.Time `db:"dt"`
	Text   string    `db:"comment"`
}

// GrapeVarietal is a catalog entry. The catalog is seeded out of band
// (cmd/cli `grapes seed`) — wine-facing flows only reference it.
type GrapeVarietal struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

// WineOverview is the denormalized row shape the list view renders:
// the wine plus its derived stock, its grape names, and the thumbnail.
// Bottles is computed from the ledger, never stored.
type WineOverview struct {
	ID        int64
	Name      string
	Year      int64
	Bottles   int64
	Grapes    []string
	Thumbnail []byte
}

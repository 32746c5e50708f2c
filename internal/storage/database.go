// Package storage handles data persistence for the wine cellar.
// Everything lives in a single SQLite database — wines, the inventory
// ledger, comments, grape associations, and the image blobs themselves.
package storage

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // Blank import: registers the SQLite driver.
)

// Schema is embedded directly in the binary — no migration files need
// to exist at runtime. The ledger and comment tables are append-only by
// convention: no repository issues UPDATE or single-row DELETE against
// them; rows only disappear when a whole wine is deleted.
const schema = `
CREATE TABLE IF NOT EXISTS wines (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    name            TEXT NOT NULL,
    year            INTEGER NOT NULL,
    image           BLOB,
    image_thumbnail BLOB
);

CREATE TABLE IF NOT EXISTS wine_inventory_events (
    wine_id INTEGER NOT NULL REFERENCES wines(id),
    dt      DATETIME NOT NULL,
    bottles INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS wine_comments (
    wine_id INTEGER NOT NULL REFERENCES wines(id),
    dt      DATETIME NOT NULL,
    comment TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS grapes (
    id   INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS wine_grapes (
    wine_id    INTEGER NOT NULL REFERENCES wines(id),
    grape_name TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_wine ON wine_inventory_events(wine_id);
CREATE INDEX IF NOT EXISTS idx_comments_wine ON wine_comments(wine_id);
CREATE INDEX IF NOT EXISTS idx_wine_grapes_wine ON wine_grapes(wine_id);
`

// NewDatabase opens the SQLite database and applies the schema.
// sqlx wraps database/sql with convenience methods like StructScan.
//
// Key Go pattern: the constructor creates the resource AND validates it
// (Ping). If anything fails, we return an error — the caller decides
// what to do.
func NewDatabase(dbPath string) (*sqlx.DB, error) {
	// The DSN configures SQLite pragmas:
	// - WAL mode: allows concurrent reads while writing
	// - foreign_keys: enforce referential integrity
	// - busy_timeout: wait up to 5s instead of failing on lock contention
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000", dbPath)

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Ping actually opens the connection (Open is lazy in database/sql)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// SQLite performs best with a single writer connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return db, nil
}

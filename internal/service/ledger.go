package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fleveque/wine-cellar/internal/model"
	"github.com/fleveque/wine-cellar/internal/storage"
)

// DateFormat is the calendar date layout accepted from callers
// (HTML date inputs produce exactly this).
const DateFormat = "2006-01-02"

// Ledger maintains the append-only inventory event log and derives
// stock levels from it. Current stock is never stored — it is always
// the sum of the wine's event deltas, recomputed on read.
//
// Policy note: zero deltas are permitted. They carry no meaning but the
// ledger is a log, not a set, so a harmless no-op entry beats a special
// case.
type Ledger struct {
	repo storage.LedgerRepository

	// now is swappable in tests; everywhere else it's time.Now.
	now func() time.Time
}

// NewLedger creates a ledger engine over the given event repository.
func NewLedger(repo storage.LedgerRepository) *Ledger {
	return &Ledger{repo: repo, now: time.Now}
}

// RecordEvent appends one event with the given signed delta. It does
// not verify the wine itself — an invalid reference surfaces as
// storage.ErrNotFound from the persistence boundary. Calling twice
// records twice; events are never deduplicated.
func (l *Ledger) RecordEvent(ctx context.Context, wineID, deltaBottles int64, at time.Time) error {
	return l.repo.InsertEvent(ctx, wineID, deltaBottles, at)
}

// CurrentStock returns the sum of all deltas for the wine. A wine with
// no events has a stock of 0 — that's a valid answer, not an error.
func (l *Ledger) CurrentStock(ctx context.Context, wineID int64) (int64, error) {
	events, err := l.repo.ListEvents(ctx, wineID)
	if err != nil {
		return 0, err
	}
	var stock int64
	for _, evt := range events {
		stock += evt.Bottles
	}
	return stock, nil
}

// Events returns the raw ledger entries for a wine, oldest first.
func (l *Ledger) Events(ctx context.Context, wineID int64) ([]model.InventoryEvent, error) {
	return l.repo.ListEvents(ctx, wineID)
}

// RecordPurchase appends a positive delta for the given calendar date.
// bottles must be > 0; nothing is written on rejection.
func (l *Ledger) RecordPurchase(ctx context.Context, wineID, bottles int64, date string) error {
	at, err := l.eventTime(bottles, date)
	if err != nil {
		return err
	}
	return l.RecordEvent(ctx, wineID, bottles, at)
}

// RecordConsumption appends a negative delta for the given calendar
// date. Callers always supply the positive quantity consumed — the
// engine encodes direction by negating it. bottles must be > 0.
func (l *Ledger) RecordConsumption(ctx context.Context, wineID, bottles int64, date string) error {
	at, err := l.eventTime(bottles, date)
	if err != nil {
		return err
	}
	return l.RecordEvent(ctx, wineID, -bottles, at)
}

// eventTime validates the bottle count and composes the event
// timestamp: the calendar date comes from the user, the time of day
// from the server clock. Multiple events on the same day therefore stay
// distinguishable and ordered by when they were recorded.
func (l *Ledger) eventTime(bottles int64, date string) (time.Time, error) {
	if bottles <= 0 {
		return time.Time{}, fmt.Errorf("bottle count must be positive, got %d: %w", bottles, ErrInvalidInput)
	}
	d, err := time.ParseInLocation(DateFormat, date, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad date %q (want YYYY-MM-DD): %w", date, ErrInvalidInput)
	}
	clock := l.now()
	return time.Date(d.Year(), d.Month(), d.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), clock.Nanosecond(),
		time.Local), nil
}

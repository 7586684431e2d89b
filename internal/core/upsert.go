package core

import (
	"context"
	"fmt"

	"github.com/seckatie/coffee/internal/core/db"
)

// Store is the write side of the daily store used by the scraper.
type Store interface {
	SaveDaily(ctx context.Context, rec db.DailyRecord, authors, links []string) (db.DailyRecord, error)
	SaveDegraded(ctx context.Context, date, pageURL, exception, bullet string) (db.DailyRecord, error)
}

// BulletOutcome says how a bullet ended up in the store.
type BulletOutcome int

const (
	// BulletStored means the bullet was saved with its authors and links.
	BulletStored BulletOutcome = iota
	// BulletDegraded means the save failed and an audit record was written
	// instead.
	BulletDegraded
)

func (o BulletOutcome) String() string {
	switch o {
	case BulletStored:
		return "stored"
	case BulletDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// StoreBullet writes one parsed bullet for date (YYYY-MM-DD) and pageURL.
//
// Fallback field values are stored as-is. If the normal save fails, nothing
// from it is kept and a degraded record carrying the error and the raw markup
// is written instead; only a failure of that second write is returned.
func StoreBullet(ctx context.Context, store Store, date, pageURL string, b Bullet) (BulletOutcome, error) {
	rec := db.DailyRecord{
		Date:    date,
		Title:   b.Title.Value,
		PageURL: pageURL,
	}
	_, saveErr := store.SaveDaily(ctx, rec, b.Authors.Value, b.Links.Value)
	if saveErr == nil {
		return BulletStored, nil
	}

	exception := fmt.Sprintf("error parsing bullet: %v", saveErr)
	if _, err := store.SaveDegraded(ctx, date, pageURL, exception, b.Raw); err != nil {
		return BulletDegraded, fmt.Errorf("failed to save degraded record for bullet %d (%v): %w", b.Index, saveErr, err)
	}
	return BulletDegraded, nil
}

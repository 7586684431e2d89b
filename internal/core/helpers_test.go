package core

import (
	"context"
	"errors"
	"testing"

	"github.com/seckatie/coffee/internal/core/db"
	"github.com/stretchr/testify/require"
)

// newTestStore returns a migrated in-memory store.
func newTestStore(t *testing.T) *db.DB {
	t.Helper()
	store, err := db.NewSQLiteDB(":memory:", nil)
	require.NoError(t, err)
	require.NoError(t, store.Migrate())
	t.Cleanup(func() { store.Close() })
	return store
}

var errWriteConflict = errors.New("write conflict")

// failingStore rejects SaveDaily for one title and passes everything else to
// the real store.
type failingStore struct {
	*db.DB
	failTitle      string
	failDegraded   bool
	saveDailyCalls int
}

func (f *failingStore) SaveDaily(ctx context.Context, rec db.DailyRecord, authors, links []string) (db.DailyRecord, error) {
	f.saveDailyCalls++
	if rec.Title == f.failTitle {
		return db.DailyRecord{}, errWriteConflict
	}
	return f.DB.SaveDaily(ctx, rec, authors, links)
}

func (f *failingStore) SaveDegraded(ctx context.Context, date, pageURL, exception, bullet string) (db.DailyRecord, error) {
	if f.failDegraded {
		return db.DailyRecord{}, errors.New("disk full")
	}
	return f.DB.SaveDegraded(ctx, date, pageURL, exception, bullet)
}

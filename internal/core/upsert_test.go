package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreBullet(t *testing.T) {
	ctx := context.Background()

	t.Run("stores bullet with associations", func(t *testing.T) {
		store := newTestStore(t)
		b := Bullet{
			Title:   extracted("Dark matter"),
			Authors: extracted([]string{"Alice", "Bob"}),
			Links:   extracted([]string{"https://arxiv.org/abs/1"}),
		}

		outcome, err := StoreBullet(ctx, store, "2003-01-02", "https://x/2003Jan02.html", b)
		require.NoError(t, err)
		assert.Equal(t, BulletStored, outcome)

		rec, err := store.GetDaily(ctx, "2003-01-02", "Dark matter")
		require.NoError(t, err)
		assert.Equal(t, "2003-01-02 Dark matter", rec.PK)
		assert.Equal(t, "https://x/2003Jan02.html", rec.PageURL)
		assert.False(t, rec.Degraded())

		authors, err := store.AuthorsFor(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"Alice", "Bob"}, authors)
	})

	t.Run("fallback values are stored as data", func(t *testing.T) {
		store := newTestStore(t)
		b := Bullet{
			Title:   fallback("", errNoText),
			Authors: fallback([]string{AuthorsFallback}, errNoAuthorRow),
			Links:   fallback([]string{LinksFallback}, errMissingHref),
		}

		outcome, err := StoreBullet(ctx, store, "2003-01-02", "u", b)
		require.NoError(t, err)
		assert.Equal(t, BulletStored, outcome)

		rec, err := store.GetDaily(ctx, "2003-01-02", "")
		require.NoError(t, err)
		authors, _ := store.AuthorsFor(ctx, rec.ID)
		links, _ := store.LinksFor(ctx, rec.ID)
		assert.Equal(t, []string{AuthorsFallback}, authors)
		assert.Equal(t, []string{LinksFallback}, links)
	})

	t.Run("failed write becomes one degraded record", func(t *testing.T) {
		store := &failingStore{DB: newTestStore(t), failTitle: "Explodes"}
		b := Bullet{
			Index:   4,
			Title:   extracted("Explodes"),
			Authors: extracted([]string{"Alice"}),
			Links:   extracted([]string{"https://a"}),
			Raw:     "<li>Explodes\nAlice</li>",
		}

		outcome, err := StoreBullet(ctx, store, "2003-01-02", "u", b)
		require.NoError(t, err)
		assert.Equal(t, BulletDegraded, outcome)

		records, err := store.ListDailyByDate(ctx, "2003-01-02")
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.True(t, records[0].Degraded())
		assert.Equal(t, "error parsing bullet: write conflict", records[0].ErrException)
		assert.Equal(t, "<li>Explodes\nAlice</li>", records[0].ErrBullet)
		assert.NotEqual(t, "Explodes", records[0].Title)

		counts, err := store.CountJoins(ctx)
		require.NoError(t, err)
		assert.Zero(t, counts.Authors)
		assert.Zero(t, counts.Links)
		assert.Zero(t, counts.DailyAuthors)
		assert.Zero(t, counts.DailyLinks)
	})

	t.Run("degraded write failure is returned", func(t *testing.T) {
		store := &failingStore{DB: newTestStore(t), failTitle: "Explodes", failDegraded: true}
		b := Bullet{Title: extracted("Explodes")}

		_, err := StoreBullet(ctx, store, "2003-01-02", "u", b)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
		assert.Contains(t, err.Error(), "write conflict")
	})
}

func TestBulletOutcomeString(t *testing.T) {
	assert.Equal(t, "stored", BulletStored.String())
	assert.Equal(t, "degraded", BulletDegraded.String())
	assert.Equal(t, "unknown", BulletOutcome(9).String())
}

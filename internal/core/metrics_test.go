package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.observeFetch(nil)
		m.observeSkip()
		m.MarkCompleted()
		m.Subscribe(newTestStore(t))
	})
	assert.Nil(t, m.Registry())
	assert.NoError(t, m.WriteTextfile(filepath.Join(t.TempDir(), "coffee.prom")))
}

func TestMetricsObserveFetch(t *testing.T) {
	m := NewMetrics()
	m.observeFetch(nil)
	m.observeFetch(nil)
	m.observeFetch(&HTTPError{URL: "u", StatusCode: 404})
	m.observeFetch(&HTTPError{URL: "u", StatusCode: 500})
	m.observeFetch(errors.New("connection refused"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.pagesFetched.WithLabelValues(fetchResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pagesFetched.WithLabelValues(fetchResultNotFound)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pagesFetched.WithLabelValues(fetchResultHTTPError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pagesFetched.WithLabelValues(fetchResultError)))
}

func TestMetricsScrapeRun(t *testing.T) {
	ctx := context.Background()
	srv := newArchiveServer(t, defaultRoutes())
	store := &failingStore{DB: newTestStore(t), failTitle: "Hot Jupiters"}
	m := NewMetrics()
	m.Subscribe(store.DB)

	s := NewScraper(store, NewHTTPFetcher(time.Second), Options{
		BaseURL: srv.URL + "/Archive/",
		Metrics: m,
	})
	_, err := s.ScrapeBack(ctx, day("2003-01-02"), 3)
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.pagesFetched.WithLabelValues(fetchResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pagesFetched.WithLabelValues(fetchResultNotFound)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pagesSkipped))

	// Jan02 stores one bullet and degrades one; Dec31 stores one.
	assert.Equal(t, 2.0, testutil.ToFloat64(m.bullets.WithLabelValues(BulletStored.String())))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bullets.WithLabelValues(BulletDegraded.String())))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.authorsLinked))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.linksLinked))
}

func TestMetricsWriteTextfile(t *testing.T) {
	m := NewMetrics()
	m.observeFetch(nil)
	m.MarkCompleted()

	path := filepath.Join(t.TempDir(), "coffee.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `coffee_pages_fetched_total{result="ok"} 1`)
	assert.Contains(t, out, "coffee_last_run_completion_timestamp_seconds")

	count, err := testutil.GatherAndCount(m.Registry(), "coffee_pages_skipped_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.False(t, strings.Contains(out, "coffee_bullets_total{"), "no bullets were observed")
}

func TestMetricsWriteTextfileBadPath(t *testing.T) {
	m := NewMetrics()
	err := m.WriteTextfile(filepath.Join(t.TempDir(), "missing", "coffee.prom"))
	assert.Error(t, err)
}

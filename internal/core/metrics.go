package core

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/seckatie/coffee/internal/core/db"
)

// Fetch results used as the "result" label on coffee_pages_fetched_total.
const (
	fetchResultOK        = "ok"
	fetchResultNotFound  = "not_found"
	fetchResultHTTPError = "http_error"
	fetchResultError     = "error"
)

// Metrics counts what a single scrape run did. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	pagesFetched   *prometheus.CounterVec
	pagesSkipped   prometheus.Counter
	bullets        *prometheus.CounterVec
	authorsLinked  prometheus.Counter
	linksLinked    prometheus.Counter
	lastCompletion prometheus.Gauge
}

// NewMetrics builds the collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		pagesFetched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coffee_pages_fetched_total",
				Help: "Archive page fetches, labeled by result.",
			},
			[]string{"result"},
		),
		pagesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coffee_pages_skipped_total",
			Help: "Archive pages skipped after an HTTP error.",
		}),
		bullets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coffee_bullets_total",
				Help: "Bullets written to the store, labeled by outcome.",
			},
			[]string{"outcome"},
		),
		authorsLinked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coffee_author_associations_total",
			Help: "Author associations written (including ones already present).",
		}),
		linksLinked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coffee_link_associations_total",
			Help: "Link associations written (including ones already present).",
		}),
		lastCompletion: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "coffee_last_run_completion_timestamp_seconds",
			Help: "Unix time the last scrape run finished without error.",
		}),
	}
	m.registry.MustRegister(
		m.pagesFetched,
		m.pagesSkipped,
		m.bullets,
		m.authorsLinked,
		m.linksLinked,
		m.lastCompletion,
	)
	return m
}

// Registry exposes the run's registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// eventSource is implemented by *db.DB.
type eventSource interface {
	RegisterEventListener(kind db.EventKind, listener db.EventListener)
}

// Subscribe counts bullets from the store's write events.
func (m *Metrics) Subscribe(src eventSource) {
	if m == nil {
		return
	}
	src.RegisterEventListener(db.OnDailySavedEvent, func(event db.Event) error {
		ev, ok := event.(db.DailySavedEvent)
		if !ok {
			return fmt.Errorf("unexpected event %T", event)
		}
		m.bullets.WithLabelValues(BulletStored.String()).Inc()
		m.authorsLinked.Add(float64(len(ev.Authors)))
		m.linksLinked.Add(float64(len(ev.Links)))
		return nil
	})
	src.RegisterEventListener(db.OnDegradedSavedEvent, func(event db.Event) error {
		m.bullets.WithLabelValues(BulletDegraded.String()).Inc()
		return nil
	})
}

func (m *Metrics) observeFetch(err error) {
	if m == nil {
		return
	}
	result := fetchResultOK
	switch {
	case err == nil:
	case IsNotFound(err):
		result = fetchResultNotFound
	case IsHTTPError(err):
		result = fetchResultHTTPError
	default:
		result = fetchResultError
	}
	m.pagesFetched.WithLabelValues(result).Inc()
}

func (m *Metrics) observeSkip() {
	if m == nil {
		return
	}
	m.pagesSkipped.Inc()
}

// MarkCompleted records a successful run.
func (m *Metrics) MarkCompleted() {
	if m == nil {
		return
	}
	m.lastCompletion.SetToCurrentTime()
}

// WriteTextfile writes the registry in the text exposition format, for
// node_exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}

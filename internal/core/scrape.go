package core

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

var (
	// ErrNoMonths is returned by ScrapeMonth when no month is requested.
	ErrNoMonths = errors.New("at least one month is required")
	// ErrInvalidMonth is returned by ScrapeMonth for a month outside 1..12.
	ErrInvalidMonth = errors.New("invalid month")
)

// Options configures a Scraper.
type Options struct {
	// IndexFetcher fetches month index pages. If nil, the page fetcher is used.
	IndexFetcher Fetcher
	// BaseURL is the archive root. If empty, DefaultBaseURL is used.
	BaseURL string
	// Pace is the pause between successive fetches in range and month runs.
	// Zero disables pacing.
	Pace time.Duration
	// Now returns the current time; it decides what "today" is. Defaults to
	// time.Now.
	Now     func() time.Time
	Logger  *zap.Logger
	Metrics *Metrics
}

// Scraper runs fetch → parse → store over archive pages. All work is
// sequential.
type Scraper struct {
	store        Store
	fetcher      Fetcher
	indexFetcher Fetcher
	baseURL      string
	pace         time.Duration
	now          func() time.Time
	logger       *zap.Logger
	metrics      *Metrics
}

// NewScraper wires a scraper to an open store and a page fetcher.
func NewScraper(store Store, fetcher Fetcher, opts Options) *Scraper {
	s := &Scraper{
		store:        store,
		fetcher:      fetcher,
		indexFetcher: opts.IndexFetcher,
		baseURL:      opts.BaseURL,
		pace:         opts.Pace,
		now:          opts.Now,
		logger:       opts.Logger,
		metrics:      opts.Metrics,
	}
	if s.indexFetcher == nil {
		s.indexFetcher = fetcher
	}
	if s.baseURL == "" {
		s.baseURL = DefaultBaseURL
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// PageResult summarizes one handled page.
type PageResult struct {
	Date     string
	URL      string
	Bullets  int
	Stored   int
	Degraded int
}

// RunResult summarizes a range or month run.
type RunResult struct {
	Pages []PageResult
	// Skipped lists the dates whose pages were not found.
	Skipped []string
}

// Today returns the scraper's current date at midnight UTC.
func (s *Scraper) Today() time.Time {
	y, m, d := s.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// HandlePage fetches pageURL, parses its bullets and stores each one under
// date (YYYY-MM-DD). Fetch errors, including *HTTPError, are returned
// unchanged; per-bullet save failures become degraded records.
func (s *Scraper) HandlePage(ctx context.Context, date, pageURL string) (PageResult, error) {
	res := PageResult{Date: date, URL: pageURL}

	page, err := s.fetcher.Fetch(ctx, pageURL)
	s.metrics.observeFetch(err)
	if err != nil {
		return res, err
	}

	bullets, err := ParseBullets(page.Body, page.ContentType)
	if err != nil {
		return res, fmt.Errorf("failed to parse %s: %w", pageURL, err)
	}
	res.Bullets = len(bullets)

	for _, b := range bullets {
		outcome, err := StoreBullet(ctx, s.store, date, pageURL, b)
		if err != nil {
			return res, err
		}
		switch outcome {
		case BulletStored:
			res.Stored++
		case BulletDegraded:
			res.Degraded++
			s.logger.Warn("stored degraded bullet",
				zap.String("date", date),
				zap.Int("bullet", b.Index),
			)
		}
	}

	s.logger.Info("page stored",
		zap.String("date", date),
		zap.String("url", pageURL),
		zap.Int("bullets", res.Bullets),
		zap.Int("degraded", res.Degraded),
	)
	return res, nil
}

// ScrapeDate handles the page for d, or for today when d is zero. An HTTP
// error is reported and the page skipped; any other error is returned.
func (s *Scraper) ScrapeDate(ctx context.Context, d time.Time) (PageResult, error) {
	if d.IsZero() {
		d = s.Today()
	}
	pageURL := DailyURL(s.baseURL, d)

	res, err := s.HandlePage(ctx, FormatDate(d), pageURL)
	if err != nil && IsHTTPError(err) {
		s.logger.Error("Error fetching page", zap.String("url", pageURL), zap.Error(err))
		s.metrics.observeSkip()
		return res, nil
	}
	return res, err
}

// ScrapeBack handles n consecutive days, starting at start (today when zero)
// and walking backwards. Missing pages (404) are reported and skipped; any
// other error aborts the run.
func (s *Scraper) ScrapeBack(ctx context.Context, start time.Time, n int) (RunResult, error) {
	var run RunResult
	if n < 0 {
		return run, fmt.Errorf("number of days must not be negative, got %d", n)
	}
	if start.IsZero() {
		start = s.Today()
	}

	p := s.newPacer()
	d := start
	for i := 0; i < n; i++ {
		if err := p.wait(ctx); err != nil {
			return run, err
		}

		date := FormatDate(d)
		res, err := s.HandlePage(ctx, date, DailyURL(s.baseURL, d))
		switch {
		case err == nil:
			run.Pages = append(run.Pages, res)
		case IsNotFound(err):
			s.logger.Error("No data for date", zap.String("date", date))
			s.metrics.observeSkip()
			run.Skipped = append(run.Skipped, date)
		default:
			return run, fmt.Errorf("scrape %s: %w", date, err)
		}

		d = d.AddDate(0, 0, -1)
	}
	return run, nil
}

// ScrapeMonth handles every day listed on the month index pages of year for
// each of months. Any error aborts the run.
func (s *Scraper) ScrapeMonth(ctx context.Context, year int, months []int) (RunResult, error) {
	var run RunResult
	if len(months) == 0 {
		return run, ErrNoMonths
	}
	for _, m := range months {
		if m < 1 || m > 12 {
			return run, fmt.Errorf("%w: %d", ErrInvalidMonth, m)
		}
	}

	p := s.newPacer()
	for _, m := range months {
		if err := s.scrapeMonth(ctx, p, year, time.Month(m), &run); err != nil {
			return run, err
		}
	}
	return run, nil
}

func (s *Scraper) scrapeMonth(ctx context.Context, p *pacer, year int, month time.Month, run *RunResult) error {
	indexURL := MonthIndexURL(s.baseURL, year, month)

	if err := p.wait(ctx); err != nil {
		return err
	}
	days, err := s.monthDays(ctx, indexURL)
	if err != nil {
		return err
	}
	s.logger.Info("month index loaded",
		zap.String("url", indexURL),
		zap.Int("days", len(days)),
	)

	for _, day := range days {
		if err := p.wait(ctx); err != nil {
			return err
		}
		res, err := s.HandlePage(ctx, day.date, day.url)
		if err != nil {
			return fmt.Errorf("scrape %s: %w", day.date, err)
		}
		run.Pages = append(run.Pages, res)
	}
	return nil
}

type monthDay struct {
	date string
	url  string
}

// monthDays lists the day pages linked from a month index. Only anchors that
// point at .html files are day pages; the rest are directory navigation.
func (s *Scraper) monthDays(ctx context.Context, indexURL string) ([]monthDay, error) {
	page, err := s.indexFetcher.Fetch(ctx, indexURL)
	if err != nil {
		return nil, fmt.Errorf("fetch month index: %w", err)
	}
	base, err := url.Parse(indexURL)
	if err != nil {
		return nil, fmt.Errorf("invalid month index URL %q: %w", indexURL, err)
	}
	doc, err := parseDocument(page.Body, page.ContentType)
	if err != nil {
		return nil, fmt.Errorf("month index %s: %w", indexURL, err)
	}

	var (
		days    []monthDay
		walkErr error
	)
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if !strings.HasSuffix(strings.ToLower(href), ".html") {
			s.logger.Debug("skipping index anchor", zap.String("href", href))
			return true
		}
		d, err := ParseCompactDate(a.Text())
		if err != nil {
			walkErr = fmt.Errorf("month index %s: %w", indexURL, err)
			return false
		}
		dayURL := resolveURL(base, href)
		if dayURL == "" {
			walkErr = fmt.Errorf("month index %s: cannot resolve %q", indexURL, href)
			return false
		}
		days = append(days, monthDay{date: FormatDate(d), url: dayURL})
		return true
	})
	return days, walkErr
}

// pacer spaces out fetches: the first wait returns at once, later ones sleep
// for the configured pace.
type pacer struct {
	pace    time.Duration
	started bool
}

func (s *Scraper) newPacer() *pacer {
	return &pacer{pace: s.pace}
}

func (p *pacer) wait(ctx context.Context) error {
	if !p.started {
		p.started = true
		return nil
	}
	if p.pace <= 0 {
		return nil
	}
	t := time.NewTimer(p.pace)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

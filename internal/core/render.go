package core

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// RenderOptions controls how archive pages are loaded in a browser.
//
// The archive is static HTML, so rendering is only needed when a page is
// served through something that requires JavaScript (a proxy interstitial, for
// example).
type RenderOptions struct {
	// ChromePath optionally overrides the Chrome/Chromium executable path.
	// If empty, chromedp will try to find a browser on PATH / default locations.
	ChromePath string
	// Headless controls whether Chrome runs without a visible window.
	Headless bool
	// Timeout is the per-page deadline for navigation + capture.
	// If <= 0, DefaultPageTimeout is used.
	Timeout time.Duration
}

// RenderFetcher implements Fetcher by loading pages in Chrome through the
// DevTools protocol. The main document's HTTP status is captured from network
// events so non-2xx pages still surface as *HTTPError.
type RenderFetcher struct {
	opts   RenderOptions
	logger *zap.Logger
}

// NewRenderFetcher returns a browser-backed fetcher.
func NewRenderFetcher(opts RenderOptions, logger *zap.Logger) *RenderFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultPageTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RenderFetcher{opts: opts, logger: logger}
}

func (f *RenderFetcher) allocatorOptions() []chromedp.ExecAllocatorOption {
	allocatorOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	allocatorOpts = append(allocatorOpts,
		chromedp.NoDefaultBrowserCheck,
		chromedp.NoFirstRun,
	)
	if f.opts.ChromePath != "" {
		allocatorOpts = append(allocatorOpts, chromedp.ExecPath(f.opts.ChromePath))
	}
	if f.opts.Headless {
		allocatorOpts = append(allocatorOpts, chromedp.Headless)
	} else {
		allocatorOpts = append(allocatorOpts, chromedp.Flag("headless", false))
	}
	return allocatorOpts
}

// Fetch navigates to url and returns the rendered document HTML.
func (f *RenderFetcher) Fetch(ctx context.Context, url string) (Page, error) {
	f.logger.Debug("rendering page", zap.String("url", url))

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, f.allocatorOptions()...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancelRun := context.WithTimeout(browserCtx, f.opts.Timeout)
	defer cancelRun()

	status := &documentStatus{}
	chromedp.ListenTarget(runCtx, status.capture)

	var html, finalURL string
	if err := chromedp.Run(runCtx,
		network.Enable(),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(DefaultRenderDelay),
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return Page{}, fmt.Errorf("render %s: %w", url, err)
	}

	code, text := status.snapshot()
	if code < 200 || code > 299 {
		return Page{}, &HTTPError{URL: url, StatusCode: code, Status: text}
	}
	if finalURL == "" {
		finalURL = url
	}
	// The DOM serializes as UTF-8 regardless of the source encoding.
	return Page{
		URL:         finalURL,
		StatusCode:  code,
		ContentType: "text/html; charset=utf-8",
		Body:        []byte(html),
	}, nil
}

// documentStatus records the status of the first document response seen.
type documentStatus struct {
	mu   sync.Mutex
	code int
	text string
}

func (s *documentStatus) capture(ev any) {
	e, ok := ev.(*network.EventResponseReceived)
	if !ok || e.Type != network.ResourceTypeDocument || e.Response == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.code == 0 {
		s.code = int(e.Response.Status)
		s.text = fmt.Sprintf("%d %s", s.code, e.Response.StatusText)
	}
}

// snapshot returns the captured status, assuming 200 when no document
// response was observed (e.g. file:// URLs).
func (s *documentStatus) snapshot() (int, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.code == 0 {
		return http.StatusOK, ""
	}
	return s.code, s.text
}

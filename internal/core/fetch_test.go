package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcher(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantBody   string
		wantStatus int
		notFound   bool
	}{
		{
			name: "successful fetch",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, "<ul><li>hello</ul>")
			},
			wantBody: "<ul><li>hello</ul>",
		},
		{
			name: "404 error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "not found", http.StatusNotFound)
			},
			wantStatus: http.StatusNotFound,
			notFound:   true,
		},
		{
			name: "500 error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "server error", http.StatusInternalServerError)
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			page, err := NewHTTPFetcher(time.Second).Fetch(context.Background(), srv.URL)
			if tt.wantStatus != 0 {
				var httpErr *HTTPError
				require.True(t, errors.As(err, &httpErr), "expected *HTTPError, got %v", err)
				assert.Equal(t, tt.wantStatus, httpErr.StatusCode)
				assert.Equal(t, srv.URL, httpErr.URL)
				assert.Equal(t, tt.notFound, IsNotFound(err))
				assert.True(t, IsHTTPError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBody, string(page.Body))
			assert.Equal(t, http.StatusOK, page.StatusCode)
		})
	}
}

func TestHTTPFetcherSendsNoCustomHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer srv.Close()

	_, err := NewHTTPFetcher(0).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Empty(t, got.Get("Authorization"))
	assert.Empty(t, got.Get("Cookie"))
}

func TestHTTPFetcherTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewHTTPFetcher(50*time.Millisecond).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.False(t, IsHTTPError(err), "network errors are not HTTP errors")
}

func TestHTTPErrorMessage(t *testing.T) {
	err := &HTTPError{URL: "http://x/p.html", StatusCode: 404}
	assert.Equal(t, "HTTP 404 Not Found for url: http://x/p.html", err.Error())

	wrapped := fmt.Errorf("handle page: %w", err)
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsNotFound(errors.New("plain")))
}

func TestResolveURL(t *testing.T) {
	base, _ := url.Parse("https://example.com/Archive/2003/January/")

	tests := []struct {
		name     string
		ref      string
		expected string
	}{
		{"empty", "", ""},
		{"relative file", "2003Jan02.html", "https://example.com/Archive/2003/January/2003Jan02.html"},
		{"absolute URL", "https://other.com/x.html", "https://other.com/x.html"},
		{"root relative", "/Coffee/", "https://example.com/Coffee/"},
		{"parent path", "../", "https://example.com/Archive/2003/"},
		{"javascript", "javascript:void(0)", ""},
		{"mailto", "mailto:someone@example.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, resolveURL(base, tt.ref))
		})
	}
}

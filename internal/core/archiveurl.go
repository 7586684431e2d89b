package core

import (
	"fmt"
	"strings"
	"time"
)

// DailyURL returns the archive page URL for d, e.g.
// {base}2003/January/2003Jan02.html.
func DailyURL(base string, d time.Time) string {
	return fmt.Sprintf("%s%d/%s/%s.html",
		normalizeBase(base), d.Year(), d.Month(), d.Format(CompactDateLayout))
}

// MonthIndexURL returns the directory index URL for a month, e.g.
// {base}2003/January/.
func MonthIndexURL(base string, year int, month time.Month) string {
	return fmt.Sprintf("%s%d/%s/", normalizeBase(base), year, month)
}

// FormatDate renders d in the ISO layout stored in the daily table.
func FormatDate(d time.Time) string {
	return d.Format(DateLayout)
}

// ParseDate parses an ISO YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return d, nil
}

// ParseCompactDate parses an archive-style date such as 2003Jan02.
func ParseCompactDate(s string) (time.Time, error) {
	d, err := time.Parse(CompactDateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid archive date %q: %w", s, err)
	}
	return d, nil
}

func normalizeBase(base string) string {
	if base == "" {
		base = DefaultBaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}

package core

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

var (
	errNoText      = errors.New("bullet has no text")
	errNoAuthorRow = errors.New("bullet has no author line")
	errMissingHref = errors.New("anchor has no href")
)

// Field is the outcome of extracting one value from a bullet. When extraction
// fails, Value holds the fallback and Err says why.
type Field[T any] struct {
	Value    T
	Fallback bool
	Err      error
}

func extracted[T any](v T) Field[T] {
	return Field[T]{Value: v}
}

func fallback[T any](v T, err error) Field[T] {
	return Field[T]{Value: v, Fallback: true, Err: err}
}

// Bullet is one <li> from an archive page.
type Bullet struct {
	// Index is the bullet's position on the page, in document order.
	Index   int
	Title   Field[string]
	Authors Field[[]string]
	Links   Field[[]string]
	// Raw is the bullet's outer HTML, kept for degraded records.
	Raw string
}

// ParseBullets decodes an archive page and extracts every list item in
// document order.
//
// Archive pages routinely leave <li> unterminated. The HTML5 tree builder
// closes an open <li> when the next one starts, so each bullet stays its own
// element instead of swallowing its siblings.
func ParseBullets(body []byte, contentType string) ([]Bullet, error) {
	doc, err := parseDocument(body, contentType)
	if err != nil {
		return nil, err
	}

	var bullets []Bullet
	doc.Find("li").Each(func(i int, s *goquery.Selection) {
		bullets = append(bullets, parseBullet(i, s))
	})
	return bullets, nil
}

func parseDocument(body []byte, contentType string) (*goquery.Document, error) {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to decode page: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

func parseBullet(i int, s *goquery.Selection) Bullet {
	text := s.Text()
	raw, err := goquery.OuterHtml(s)
	if err != nil {
		raw = text
	}
	return Bullet{
		Index:   i,
		Title:   extractTitle(text),
		Authors: extractAuthors(text),
		Links:   extractLinks(s),
		Raw:     raw,
	}
}

func textLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, "\r")
	}
	return lines
}

// extractTitle returns the first line of the bullet text.
func extractTitle(text string) Field[string] {
	if text == "" {
		return fallback("", errNoText)
	}
	return extracted(textLines(text)[0])
}

// extractAuthors returns the names on the second line of the bullet text.
// Names are comma separated; "and" joins the last names and "et al." marks a
// truncated list, neither of which is an author.
func extractAuthors(text string) Field[[]string] {
	lines := textLines(text)
	if len(lines) < 2 {
		return fallback([]string{AuthorsFallback}, errNoAuthorRow)
	}

	authors := []string{}
	for _, part := range strings.Split(lines[1], ",") {
		for _, name := range splitOnAnd(part) {
			if name == "" || name == "and" || strings.HasPrefix(name, "et al.") {
				continue
			}
			authors = append(authors, name)
		}
	}
	return extracted(authors)
}

// splitOnAnd splits "Bob and Carol" into its names. A lone "and" yields
// nothing.
func splitOnAnd(s string) []string {
	var (
		names   []string
		current []string
	)
	for _, word := range strings.Fields(s) {
		if word == "and" {
			names = append(names, strings.Join(current, " "))
			current = current[:0]
			continue
		}
		current = append(current, word)
	}
	return append(names, strings.Join(current, " "))
}

// extractLinks returns the href of every anchor in the bullet, in document
// order. An anchor without an href fails the whole field.
func extractLinks(s *goquery.Selection) Field[[]string] {
	links := []string{}
	var missing bool
	s.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, ok := a.Attr("href")
		if !ok {
			missing = true
			return false
		}
		links = append(links, href)
		return true
	})
	if missing {
		return fallback([]string{LinksFallback}, errMissingHref)
	}
	return extracted(links)
}

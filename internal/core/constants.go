package core

import "time"

// DefaultBaseURL is the root of the Coffee daily archive.
const DefaultBaseURL = "https://cgi.astronomy.osu.edu/Coffee/Archive/"

// Timeout defaults for fetching operations
const (
	DefaultPageTimeout  = 10 * time.Second
	DefaultIndexTimeout = 30 * time.Second
	DefaultRenderDelay  = 500 * time.Millisecond
)

// DefaultPace is the fixed delay between successive page fetches in range and
// month runs.
const DefaultPace = 1 * time.Second

// Fallback values stored when a bullet field cannot be extracted.
const (
	AuthorsFallback = "error fetching authors"
	LinksFallback   = "error fetching links"
)

// Date layouts used by the archive.
const (
	// DateLayout is the ISO form stored in the daily table and accepted on the
	// command line.
	DateLayout = "2006-01-02"
	// CompactDateLayout is the form used in archive file names and month index
	// anchors, e.g. 2003Jan02.
	CompactDateLayout = "2006Jan02"
)

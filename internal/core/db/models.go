package db

// DailyRecord is one stored bullet from a daily archive page.
type DailyRecord struct {
	ID int64
	// PK is the legacy "{date} {title}" string. It is informational only; the
	// store keys rows on (Date, Title).
	PK    string
	Date  string
	Title string
	// PageURL is the archive page the bullet was scraped from.
	PageURL string
	// ErrException and ErrBullet are only set on degraded records.
	ErrException string
	ErrBullet    string
}

// Degraded reports whether the record was written in place of a bullet that
// could not be stored normally.
func (r DailyRecord) Degraded() bool {
	return r.ErrException != "" || r.ErrBullet != ""
}

// JoinCounts reports the number of rows in each auxiliary table.
type JoinCounts struct {
	Authors      int
	Links        int
	DailyAuthors int
	DailyLinks   int
}

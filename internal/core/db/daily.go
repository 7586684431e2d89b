package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrInvalidRecord is returned when a record cannot be stored as given.
var ErrInvalidRecord = errors.New("invalid record")

// ErrNotFound is returned when a lookup matches no daily record.
var ErrNotFound = errors.New("daily record not found")

// LegacyPK formats the "{date} {title}" key older copies of the store used as
// the daily primary key.
func LegacyPK(date, title string) string {
	return date + " " + title
}

// ValidateText rejects values SQLite would store but later readers would choke
// on: invalid UTF-8 and embedded NUL bytes.
func ValidateText(field, value string) error {
	if !utf8.ValidString(value) {
		return fmt.Errorf("%w: %s is not valid UTF-8", ErrInvalidRecord, field)
	}
	if strings.ContainsRune(value, 0) {
		return fmt.Errorf("%w: %s contains a NUL byte", ErrInvalidRecord, field)
	}
	return nil
}

func validateDaily(rec DailyRecord, authors, links []string) error {
	if rec.Date == "" {
		return fmt.Errorf("%w: empty date", ErrInvalidRecord)
	}
	if err := ValidateText("title", rec.Title); err != nil {
		return err
	}
	for _, a := range authors {
		if err := ValidateText("author", a); err != nil {
			return err
		}
	}
	for _, l := range links {
		if err := ValidateText("link", l); err != nil {
			return err
		}
	}
	return nil
}

// ------------------------------
// Daily record methods
// ------------------------------

// SaveDaily upserts a daily record keyed on (date, title) and associates the
// given authors and links with it, all in one transaction.
//
// A second write for the same (date, title) replaces the row's fields and keeps
// its id. Author and link associations are only ever added: associations from an
// earlier write that are absent from this one are left in place.
//
// Emits a DailySavedEvent after commit.
func (db *DB) SaveDaily(ctx context.Context, rec DailyRecord, authors, links []string) (DailyRecord, error) {
	if err := validateDaily(rec, authors, links); err != nil {
		return DailyRecord{}, err
	}
	rec.PK = LegacyPK(rec.Date, rec.Title)

	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return DailyRecord{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := tx.QueryRowContext(ctx, `
		INSERT INTO daily (pk, date, title, page_url, err_exception, err_bullet)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (date, title) DO UPDATE SET
			pk = excluded.pk,
			page_url = excluded.page_url,
			err_exception = excluded.err_exception,
			err_bullet = excluded.err_bullet
		RETURNING id
	`, rec.PK, rec.Date, rec.Title, rec.PageURL, rec.ErrException, rec.ErrBullet).Scan(&rec.ID); err != nil {
		return DailyRecord{}, fmt.Errorf("failed to upsert daily record: %w", err)
	}

	for _, a := range authors {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO authors (author) VALUES (?)`, a); err != nil {
			return DailyRecord{}, fmt.Errorf("failed to insert author %q: %w", a, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO daily_authors (daily_id, author) VALUES (?, ?)`, rec.ID, a); err != nil {
			return DailyRecord{}, fmt.Errorf("failed to associate author %q: %w", a, err)
		}
	}
	for _, l := range links {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO links (link) VALUES (?)`, l); err != nil {
			return DailyRecord{}, fmt.Errorf("failed to insert link %q: %w", l, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO daily_links (daily_id, link) VALUES (?, ?)`, rec.ID, l); err != nil {
			return DailyRecord{}, fmt.Errorf("failed to associate link %q: %w", l, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return DailyRecord{}, fmt.Errorf("failed to commit daily record: %w", err)
	}

	db.emit(DailySavedEvent{Record: rec, Authors: authors, Links: links})
	return rec, nil
}

// SaveDegraded stores an audit row for a bullet that could not be saved
// normally. The row is keyed on (date, random UUID) so it never collides with a
// real title, and it carries no author or link associations.
//
// Emits a DegradedSavedEvent after commit.
func (db *DB) SaveDegraded(ctx context.Context, date, pageURL, exception, bullet string) (DailyRecord, error) {
	if date == "" {
		return DailyRecord{}, fmt.Errorf("%w: empty date", ErrInvalidRecord)
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return DailyRecord{}, fmt.Errorf("generate uuid4: %w", err)
	}

	rec := DailyRecord{
		Date:         date,
		Title:        id.String(),
		PageURL:      pageURL,
		ErrException: strings.ToValidUTF8(exception, "\uFFFD"),
		ErrBullet:    strings.ToValidUTF8(bullet, "\uFFFD"),
	}
	rec.PK = LegacyPK(rec.Date, rec.Title)

	if err := db.db.QueryRowContext(ctx, `
		INSERT INTO daily (pk, date, title, page_url, err_exception, err_bullet)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (date, title) DO UPDATE SET
			page_url = excluded.page_url,
			err_exception = excluded.err_exception,
			err_bullet = excluded.err_bullet
		RETURNING id
	`, rec.PK, rec.Date, rec.Title, rec.PageURL, rec.ErrException, rec.ErrBullet).Scan(&rec.ID); err != nil {
		return DailyRecord{}, fmt.Errorf("failed to save degraded record: %w", err)
	}

	db.emit(DegradedSavedEvent{Record: rec})
	return rec, nil
}

const dailyColumns = `id, pk, date, title, page_url, err_exception, err_bullet`

func scanDaily(s interface{ Scan(...any) error }) (DailyRecord, error) {
	var r DailyRecord
	err := s.Scan(&r.ID, &r.PK, &r.Date, &r.Title, &r.PageURL, &r.ErrException, &r.ErrBullet)
	return r, err
}

// GetDaily returns the record stored for (date, title).
func (db *DB) GetDaily(ctx context.Context, date, title string) (DailyRecord, error) {
	r, err := scanDaily(db.db.QueryRowContext(ctx,
		`SELECT `+dailyColumns+` FROM daily WHERE date = ? AND title = ?`, date, title))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return DailyRecord{}, fmt.Errorf("%w: %s", ErrNotFound, LegacyPK(date, title))
		}
		return DailyRecord{}, fmt.Errorf("failed to get daily record: %w", err)
	}
	return r, nil
}

// ListDailyByDate returns every record stored for date in insertion order.
func (db *DB) ListDailyByDate(ctx context.Context, date string) ([]DailyRecord, error) {
	rows, err := db.db.QueryContext(ctx,
		`SELECT `+dailyColumns+` FROM daily WHERE date = ? ORDER BY id`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily records: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			db.logger.Warn("failed to close rows", zap.Error(err))
		}
	}()

	var out []DailyRecord
	for rows.Next() {
		r, err := scanDaily(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// AuthorsFor returns the authors associated with a daily record, in the order
// they were first associated.
func (db *DB) AuthorsFor(ctx context.Context, dailyID int64) ([]string, error) {
	return db.listStrings(ctx,
		`SELECT author FROM daily_authors WHERE daily_id = ? ORDER BY rowid`, dailyID)
}

// LinksFor returns the links associated with a daily record, in the order they
// were first associated.
func (db *DB) LinksFor(ctx context.Context, dailyID int64) ([]string, error) {
	return db.listStrings(ctx,
		`SELECT link FROM daily_links WHERE daily_id = ? ORDER BY rowid`, dailyID)
}

func (db *DB) listStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CountDaily returns the number of stored daily records, degraded ones included.
func (db *DB) CountDaily(ctx context.Context) (int, error) {
	var n int
	if err := db.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM daily`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count daily records: %w", err)
	}
	return n, nil
}

// CountJoins returns row counts for the author and link tables.
func (db *DB) CountJoins(ctx context.Context) (JoinCounts, error) {
	var c JoinCounts
	err := db.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM authors),
			(SELECT COUNT(*) FROM links),
			(SELECT COUNT(*) FROM daily_authors),
			(SELECT COUNT(*) FROM daily_links)
	`).Scan(&c.Authors, &c.Links, &c.DailyAuthors, &c.DailyLinks)
	if err != nil {
		return JoinCounts{}, fmt.Errorf("failed to count joins: %w", err)
	}
	return c, nil
}

// Package library holds the user's curated sources, independent of any
// document's bibliography. Sources are kept in an in-memory SQLite database
// for the lifetime of the session and listed in insertion order.
package library

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/matsen/quill/internal/reference"
)

// ErrDuplicate is returned when a source with the same URL or title is
// already in the library.
var ErrDuplicate = errors.New("source already in library")

// Library is a deduplicated, insertion-ordered set of saved sources.
type Library struct {
	db    *sql.DB
	now   func() time.Time
	newID func() string
}

// Option configures a Library.
type Option func(*Library)

// WithClock sets the time source for DateAdded.
func WithClock(now func() time.Time) Option {
	return func(l *Library) {
		l.now = now
	}
}

// WithIDGenerator sets the ID generator.
func WithIDGenerator(newID func() string) Option {
	return func(l *Library) {
		l.newID = newID
	}
}

// selectSourceFields contains the standard field list for SELECT queries.
const selectSourceFields = `id, title, author, year, publication, snippet, url, doi, date_added`

// Open creates an empty library.
func Open(opts ...Option) (*Library, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening library database: %w", err)
	}

	// Each connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	l := &Library{db: db, now: time.Now, newID: uuid.NewString}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Close releases the database.
func (l *Library) Close() error {
	return l.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS sources (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			author TEXT NOT NULL,
			year TEXT NOT NULL,
			publication TEXT NOT NULL,
			snippet TEXT NOT NULL,
			url TEXT NOT NULL,
			doi TEXT NOT NULL,
			date_added INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_sources_url ON sources(url) WHERE url != '';
		CREATE INDEX IF NOT EXISTS idx_sources_title ON sources(title) WHERE title != '';
	`
	_, err := db.Exec(schema)
	return err
}

// Add saves src, assigning a fresh ID and DateAdded. It fails with
// ErrDuplicate, without modifying the library, when an existing source has
// the same non-empty URL or the same non-empty title.
func (l *Library) Add(src reference.Source) (reference.Source, error) {
	src = src.Trimmed()

	var conflictField, conflictID string
	err := l.db.QueryRow(`
		SELECT id, CASE WHEN ? != '' AND url = ? THEN 'url' ELSE 'title' END
		FROM sources
		WHERE (? != '' AND url = ?) OR (? != '' AND title = ?)
		ORDER BY seq LIMIT 1`,
		src.URL, src.URL,
		src.URL, src.URL, src.Title, src.Title,
	).Scan(&conflictID, &conflictField)
	switch {
	case err == nil:
		return reference.Source{}, fmt.Errorf("%w: same %s as %s", ErrDuplicate, conflictField, conflictID)
	case !errors.Is(err, sql.ErrNoRows):
		return reference.Source{}, fmt.Errorf("checking duplicates: %w", err)
	}

	src.ID = l.newID()
	src.DateAdded = l.now().UTC()

	_, err = l.db.Exec(`
		INSERT INTO sources (id, title, author, year, publication, snippet, url, doi, date_added)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		src.ID, src.Title, src.Author, src.Year, src.Publication, src.Snippet, src.URL, src.DOI,
		src.DateAdded.UnixNano(),
	)
	if err != nil {
		return reference.Source{}, fmt.Errorf("inserting source: %w", err)
	}
	return src, nil
}

// Remove deletes the source with the given ID. Removing an absent ID is a
// no-op; the result reports whether a source was deleted.
func (l *Library) Remove(id string) (bool, error) {
	res, err := l.db.Exec(`DELETE FROM sources WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("deleting source: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting source: %w", err)
	}
	return n > 0, nil
}

// Get returns the source with the given ID.
func (l *Library) Get(id string) (reference.Source, bool, error) {
	row := l.db.QueryRow(`SELECT `+selectSourceFields+` FROM sources WHERE id = ?`, id)
	src, err := scanSource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return reference.Source{}, false, nil
	}
	if err != nil {
		return reference.Source{}, false, fmt.Errorf("getting source: %w", err)
	}
	return src, true, nil
}

// List returns every source in insertion order.
func (l *Library) List() ([]reference.Source, error) {
	rows, err := l.db.Query(`SELECT ` + selectSourceFields + ` FROM sources ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	defer rows.Close()

	var sources []reference.Source
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning source: %w", err)
		}
		sources = append(sources, src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	return sources, nil
}

// Len returns the number of saved sources.
func (l *Library) Len() (int, error) {
	var n int
	if err := l.db.QueryRow(`SELECT COUNT(*) FROM sources`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting sources: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSource(s scanner) (reference.Source, error) {
	var src reference.Source
	var added int64
	err := s.Scan(&src.ID, &src.Title, &src.Author, &src.Year, &src.Publication,
		&src.Snippet, &src.URL, &src.DOI, &added)
	if err != nil {
		return reference.Source{}, err
	}
	src.DateAdded = time.Unix(0, added).UTC()
	return src, nil
}

// Package pagestore keeps wiki pages in sqlite and resolves page titles for link rewriting.
package pagestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/iedon/wikimarkup-go/markup"
)

// ErrNotFound is returned when no page matches.
var ErrNotFound = errors.New("page not found")

// ErrDuplicateTitle is returned when a page with the same title exists.
var ErrDuplicateTitle = errors.New("page title already exists")

const schema = `
CREATE TABLE IF NOT EXISTS pages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL UNIQUE COLLATE NOCASE,
	content TEXT NOT NULL DEFAULT '',
	updated_at INTEGER NOT NULL
);
`

// Page is a stored wiki page.
type Page struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Ref returns the identity used by link rewriting.
func (p Page) Ref() markup.PageRef {
	return markup.PageRef{ID: p.ID, Title: p.Title}
}

// Store is a sqlite page store. It is safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open page db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts a page, or updates the content of the page with the same title.
func (s *Store) Save(ctx context.Context, title, content string) (Page, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Page{}, fmt.Errorf("page title required")
	}
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO pages (title, content, updated_at) VALUES (?, ?, ?)
ON CONFLICT(title) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at`,
		title, content, now.UnixMilli())
	if err != nil {
		return Page{}, fmt.Errorf("save page %q: %w", title, err)
	}
	return s.ByTitle(ctx, title)
}

// Create inserts a new page and fails with ErrDuplicateTitle when the title is taken.
func (s *Store) Create(ctx context.Context, title, content string) (Page, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Page{}, fmt.Errorf("page title required")
	}
	if _, err := s.ByTitle(ctx, title); err == nil {
		return Page{}, ErrDuplicateTitle
	} else if !errors.Is(err, ErrNotFound) {
		return Page{}, err
	}
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `INSERT INTO pages (title, content, updated_at) VALUES (?, ?, ?)`, title, content, now.UnixMilli())
	if err != nil {
		return Page{}, fmt.Errorf("create page %q: %w", title, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Page{}, fmt.Errorf("create page %q: %w", title, err)
	}
	return Page{ID: int(id), Title: title, Content: content, UpdatedAt: time.UnixMilli(now.UnixMilli()).UTC()}, nil
}

// Get returns the page with id.
func (s *Store) Get(ctx context.Context, id int) (Page, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, title, content, updated_at FROM pages WHERE id = ?`, id)
	return scanPage(row)
}

// ByTitle returns the page whose title matches case-insensitively.
func (s *Store) ByTitle(ctx context.Context, title string) (Page, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, title, content, updated_at FROM pages WHERE title = ? COLLATE NOCASE`, strings.TrimSpace(title))
	return scanPage(row)
}

// List returns every page ordered by title.
func (s *Store) List(ctx context.Context) ([]Page, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, content, updated_at FROM pages ORDER BY title COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()

	var pages []Page
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}
	return pages, rows.Err()
}

// PageByTitle resolves a link title for the render pipeline.
func (s *Store) PageByTitle(title string) (markup.PageRef, bool, error) {
	page, err := s.ByTitle(context.Background(), title)
	if errors.Is(err, ErrNotFound) {
		return markup.PageRef{}, false, nil
	}
	if err != nil {
		return markup.PageRef{}, false, err
	}
	return page.Ref(), true, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPage(row scanner) (Page, error) {
	var (
		page    Page
		updated int64
	)
	if err := row.Scan(&page.ID, &page.Title, &page.Content, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Page{}, ErrNotFound
		}
		return Page{}, fmt.Errorf("scan page: %w", err)
	}
	page.UpdatedAt = time.UnixMilli(updated).UTC()
	return page, nil
}

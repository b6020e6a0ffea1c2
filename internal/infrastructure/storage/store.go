package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

var (
	// ErrNotFound is returned when a lookup by key matches nothing.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmail is returned when a subscriber already exists.
	ErrDuplicateEmail = errors.New("subscriber with this email already exists")
)

// timeLayout keeps every stored timestamp the same width so text ordering
// matches chronological ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS articles (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		source_type TEXT NOT NULL CHECK (source_type IN ('feed', 'email', 'manual')),
		original_url TEXT,
		title TEXT NOT NULL,
		raw_content TEXT NOT NULL,
		summary TEXT,
		categories TEXT NOT NULL DEFAULT '[]',
		curation_status TEXT NOT NULL DEFAULT 'pending' CHECK (curation_status IN ('pending', 'selected', 'rejected', 'published')),
		relevance_score INTEGER,
		is_actionable INTEGER NOT NULL DEFAULT 0,
		published_at TEXT,
		ingested_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS subscribers (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'active', 'unsubscribed')),
		unsubscribe_token TEXT NOT NULL UNIQUE,
		subscribed_at TEXT NOT NULL,
		confirmed_at TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS newsletter_issues (
		id TEXT PRIMARY KEY,
		issue_number INTEGER NOT NULL UNIQUE,
		title TEXT NOT NULL,
		article_ids TEXT NOT NULL DEFAULT '[]',
		status TEXT NOT NULL DEFAULT 'draft' CHECK (status IN ('draft', 'scheduled', 'sent')),
		scheduled_for TEXT,
		sent_at TEXT,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_curation_status ON articles(curation_status)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_ingested_at ON articles(ingested_at)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_original_url ON articles(original_url)`,
	`CREATE INDEX IF NOT EXISTS idx_subscribers_status ON subscribers(status)`,
	`CREATE INDEX IF NOT EXISTS idx_newsletter_issues_status ON newsletter_issues(status)`,
}

// Store persists articles, subscribers and issues in SQLite or Postgres.
type Store struct {
	db     *sql.DB
	driver string
	sb     sq.StatementBuilderType
	now    func() time.Time
}

// Open connects to the database and makes sure the schema exists.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	switch driver {
	case DriverSQLite:
		if dir := filepath.Dir(dsn); dsn != ":memory:" && dir != "." && !strings.HasPrefix(dsn, "file:") {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database dir: %w", err)
			}
		}
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store := New(db, driver)
	if err := store.init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// New wraps an already opened database.
func New(db *sql.DB, driver string) *Store {
	placeholder := sq.Question
	if driver == DriverPostgres {
		placeholder = sq.Dollar
	}
	return &Store{
		db:     db,
		driver: driver,
		sb:     sq.StatementBuilder.PlaceholderFormat(placeholder),
		now:    time.Now,
	}
}

func (s *Store) init(ctx context.Context) error {
	if s.driver == DriverSQLite {
		s.db.SetMaxOpenConns(1)
		if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode = WAL"); err != nil {
			return fmt.Errorf("enable wal: %w", err)
		}
	}
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) exec(ctx context.Context, b sq.Sqlizer) (sql.Result, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return s.db.ExecContext(ctx, query, args...)
}

func (s *Store) query(ctx context.Context, b sq.Sqlizer) (*sql.Rows, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return s.db.QueryContext(ctx, query, args...)
}

func formatTime(t time.Time) string {
	return t.UTC().Truncate(0).Format(timeLayout)
}

func formatOptionalTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t, _ = time.Parse("2006-01-02 15:04:05", s)
	}
	return t.UTC()
}

func parseOptionalTime(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t := parseTime(ns.String)
	return &t
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

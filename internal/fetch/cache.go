package fetch

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteCacheSchema = `
CREATE TABLE IF NOT EXISTS source_cache (
	location TEXT PRIMARY KEY,
	body TEXT NOT NULL,
	fetched_at TEXT NOT NULL
);`

// SQLiteCache is a read-through Fetcher cache persisted in SQLite. Entries
// younger than the TTL are served without touching the wrapped Fetcher; a
// TTL of zero keeps entries forever.
type SQLiteCache struct {
	db     *sql.DB
	next   Fetcher
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// NewSQLiteCache opens (or creates) the cache database at path.
func NewSQLiteCache(path string, next Fetcher, ttl time.Duration, logger *slog.Logger) (*SQLiteCache, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("fetch: sqlite cache path is required")
	}
	if next == nil {
		return nil, errors.New("fetch: sqlite cache needs a fetcher")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("fetch: create cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("fetch: sqlite cache open: %w", err)
	}
	// Units fetch concurrently; a single connection serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteCacheSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("fetch: sqlite cache create schema: %w", err)
	}

	return &SQLiteCache{
		db:     db,
		next:   next,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Fetch serves location from the cache when fresh, otherwise from the
// wrapped Fetcher, storing the result. Fetch failures are never cached.
func (c *SQLiteCache) Fetch(ctx context.Context, location string) (string, error) {
	body, ok, err := c.lookup(ctx, location)
	if err != nil {
		c.logger.Warn("source cache lookup failed", "location", location, "error", err)
	} else if ok {
		c.logger.Debug("source cache hit", "location", location)
		return body, nil
	}

	body, err = c.next.Fetch(ctx, location)
	if err != nil {
		return "", err
	}

	if err := c.store(ctx, location, body); err != nil {
		c.logger.Warn("source cache store failed", "location", location, "error", err)
	}
	return body, nil
}

func (c *SQLiteCache) lookup(ctx context.Context, location string) (string, bool, error) {
	var body, fetchedAt string
	err := c.db.QueryRowContext(ctx, `
SELECT body, fetched_at
FROM source_cache
WHERE location = ?`, location).Scan(&body, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("fetch: sqlite cache lookup: %w", err)
	}

	if c.ttl > 0 {
		at, err := time.Parse(time.RFC3339Nano, fetchedAt)
		if err != nil || c.now().Sub(at) > c.ttl {
			return "", false, nil
		}
	}
	return body, true, nil
}

func (c *SQLiteCache) store(ctx context.Context, location, body string) error {
	_, err := c.db.ExecContext(ctx, `
INSERT INTO source_cache (location, body, fetched_at)
VALUES (?, ?, ?)
ON CONFLICT(location) DO UPDATE SET
	body = excluded.body,
	fetched_at = excluded.fetched_at`,
		location, body, c.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("fetch: sqlite cache store: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (c *SQLiteCache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

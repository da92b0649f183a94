package archive

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ContentCache is a persistent URL-keyed store for fetched post content. It
// is a pure accelerator: every failure is reported as a miss, never an error,
// so disabling or losing the cache cannot change output.
type ContentCache struct {
	db *sql.DB
}

func NewContentCache(dir string) (*ContentCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "content.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS content_cache (
		key        TEXT PRIMARY KEY,
		url        TEXT NOT NULL,
		content    TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	return &ContentCache{db: db}, nil
}

func (c *ContentCache) Close() error {
	return c.db.Close()
}

// Get returns cached content for a URL and whether it was present.
func (c *ContentCache) Get(url string) (string, bool) {
	var content string
	err := c.db.QueryRow(
		"SELECT content FROM content_cache WHERE key = ?", cacheKey(url)).Scan(&content)
	if err == sql.ErrNoRows {
		return "", false
	}
	if err != nil {
		slog.Warn("Failed to read cache entry", "url", url, "error", err)
		return "", false
	}
	return content, true
}

// Set stores content for a URL, replacing any previous entry.
func (c *ContentCache) Set(url, content string) {
	_, err := c.db.Exec(
		"INSERT OR REPLACE INTO content_cache (key, url, content, created_at) VALUES (?, ?, ?, ?)",
		cacheKey(url), url, content, time.Now().UTC())
	if err != nil {
		slog.Warn("Failed to write cache entry", "url", url, "error", err)
		return
	}
	slog.Debug("Cached content", "url", url)
}

// Clear removes all cached entries and reports how many were dropped.
func (c *ContentCache) Clear() (int64, error) {
	result, err := c.db.Exec("DELETE FROM content_cache")
	if err != nil {
		return 0, fmt.Errorf("failed to clear cache: %w", err)
	}

	dropped, _ := result.RowsAffected()
	slog.Info("Cleared cached entries", "count", dropped)
	return dropped, nil
}

// cacheKey derives a stable key from a URL.
func cacheKey(url string) string {
	hash := sha256.Sum256([]byte(url))
	return hex.EncodeToString(hash[:])
}

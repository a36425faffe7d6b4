package easynews

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"newsreel/internal/utils"
)

const cacheSchema = `
CREATE TABLE IF NOT EXISTS search_cache (
    key         TEXT PRIMARY KEY,
    response    BLOB NOT NULL,
    inserted_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_search_cache_inserted ON search_cache (inserted_at);
`

// CacheStore is the sqlite second level under the in-memory response
// cache: a restart inside the TTL window keeps serving cached pages.
// Freshness is the caller's check; the store only records insertion
// times. Compact removes rows no caller could consider fresh.
type CacheStore struct {
	db     *sql.DB
	ttl    time.Duration
	logger utils.Log
}

func OpenCacheStore(path string, ttl time.Duration, logger utils.Log) (*CacheStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// sqlite supports a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(cacheSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	return &CacheStore{db: db, ttl: ttl, logger: logger}, nil
}

// Get returns the stored response and its insertion time. The caller
// decides freshness so the in-memory and persistent levels share one
// TTL inequality.
func (s *CacheStore) Get(key string) (*SearchResponse, time.Time, bool) {
	var blob []byte
	var insertedAt int64
	err := s.db.QueryRow(
		"SELECT response, inserted_at FROM search_cache WHERE key = ?", key,
	).Scan(&blob, &insertedAt)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("cache store read failed:", err)
		}
		return nil, time.Time{}, false
	}

	var response SearchResponse
	if err := json.Unmarshal(blob, &response); err != nil {
		s.logger.Warn("discarding corrupt cache row:", err)
		s.db.Exec("DELETE FROM search_cache WHERE key = ?", key)
		return nil, time.Time{}, false
	}
	return &response, time.Unix(insertedAt, 0), true
}

func (s *CacheStore) Put(key string, response *SearchResponse, inserted time.Time) error {
	blob, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO search_cache (key, response, inserted_at) VALUES (?, ?, ?)",
		key, blob, inserted.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to store response: %w", err)
	}
	return nil
}

// Compact deletes rows older than the TTL. Scheduled periodically;
// reads never depend on it because staleness is checked on lookup.
func (s *CacheStore) Compact() (int64, error) {
	cutoff := time.Now().Add(-s.ttl).Unix()
	result, err := s.db.Exec("DELETE FROM search_cache WHERE inserted_at <= ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("cache compaction failed: %w", err)
	}
	removed, _ := result.RowsAffected()
	return removed, nil
}

// Len reports the stored row count for the status endpoint.
func (s *CacheStore) Len() (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM search_cache").Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *CacheStore) Close() error {
	return s.db.Close()
}

// Package storage persists fetched tile payloads so worker sources can
// answer repeat loads without refetching. This is a source-side byte cache;
// the renderer keeps its own in-memory tile cache and eviction policy.
package storage

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/zeebo/blake3"
)

// ErrCacheMiss is returned by Get when no payload is cached under a key.
var ErrCacheMiss = errors.New("tile cache miss")

// CacheKey derives a stable cache key from a resource identity (typically
// the resolved tile URL plus the tile key).
func CacheKey(parts ...string) string {
	h := blake3.New()
	for _, p := range parts {
		_, _ = h.Write([]byte(p))
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// TileCache is a per-source byte cache backed by SQLite.
type TileCache struct {
	db *sql.DB
}

func NewTileCache(db *sql.DB) *TileCache {
	return &TileCache{db: db}
}

// Get returns the cached payload for (sourceID, key) or ErrCacheMiss.
func (c *TileCache) Get(ctx context.Context, sourceID, key string) ([]byte, error) {
	var payload []byte
	err := c.db.QueryRowContext(ctx,
		"SELECT payload FROM tile_cache WHERE source_id = ? AND cache_key = ?;",
		sourceID, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("read tile cache: %w", err)
	}
	return payload, nil
}

// Put stores a payload, replacing any prior entry under the same key.
func (c *TileCache) Put(ctx context.Context, sourceID, key string, payload []byte) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO tile_cache (source_id, cache_key, payload, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(source_id, cache_key) DO UPDATE SET payload = excluded.payload, created_at = excluded.created_at;`,
		sourceID, key, payload, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("write tile cache: %w", err)
	}
	return nil
}

// Delete removes one entry. Deleting an absent entry is not an error.
func (c *TileCache) Delete(ctx context.Context, sourceID, key string) error {
	_, err := c.db.ExecContext(ctx,
		"DELETE FROM tile_cache WHERE source_id = ? AND cache_key = ?;", sourceID, key)
	if err != nil {
		return fmt.Errorf("delete tile cache entry: %w", err)
	}
	return nil
}

// DeleteSource removes every entry a source accumulated.
func (c *TileCache) DeleteSource(ctx context.Context, sourceID string) error {
	_, err := c.db.ExecContext(ctx,
		"DELETE FROM tile_cache WHERE source_id = ?;", sourceID)
	if err != nil {
		return fmt.Errorf("delete tile cache source: %w", err)
	}
	return nil
}

// Prune drops entries older than retention.
func (c *TileCache) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention).Format(time.RFC3339Nano)
	res, err := c.db.ExecContext(ctx,
		"DELETE FROM tile_cache WHERE created_at < ?;", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune tile cache: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

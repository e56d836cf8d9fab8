package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/exstem-grading/internal/config"
	"github.com/stemsi/exstem-grading/internal/model"
)

// RankingCache stores ranking pages under a version counter. Bumping the
// version orphans every cached page at once; orphans expire through their TTL.
type RankingCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRankingCache creates a RankingCache. A nil client makes every call a miss.
func NewRankingCache(rdb *redis.Client, ttl time.Duration) *RankingCache {
	return &RankingCache{rdb: rdb, ttl: ttl}
}

func (c *RankingCache) version(ctx context.Context) (int64, error) {
	v, err := c.rdb.Get(ctx, config.CacheKey.RankingVersionKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// Get returns a cached ranking page and the version it was looked up under.
// ok is false on a miss or any Redis error. A version of -1 means the version
// could not be read and the page must not be stored.
func (c *RankingCache) Get(ctx context.Context, paperID int64, limit int) (rows []model.RankingRow, version int64, ok bool) {
	if c.rdb == nil {
		return nil, -1, false
	}
	v, err := c.version(ctx)
	if err != nil {
		return nil, -1, false
	}
	raw, err := c.rdb.Get(ctx, config.CacheKey.RankingKey(v, paperID, limit)).Bytes()
	if err != nil {
		return nil, v, false
	}
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, v, false
	}
	return rows, v, true
}

// Set stores a ranking page under version, the value Get returned before the
// page was computed. If the version moved on meanwhile the page lands under an
// orphaned key and is never served.
func (c *RankingCache) Set(ctx context.Context, version int64, paperID int64, limit int, rows []model.RankingRow) error {
	if c.rdb == nil || version < 0 {
		return nil
	}
	payload, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, config.CacheKey.RankingKey(version, paperID, limit), payload, c.ttl).Err()
}

// Invalidate bumps the ranking version.
func (c *RankingCache) Invalidate(ctx context.Context) error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Incr(ctx, config.CacheKey.RankingVersionKey()).Err()
}

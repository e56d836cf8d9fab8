package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-grading/internal/config"
	"github.com/stemsi/exstem-grading/internal/model"
)

// PaperLoader is the source of truth behind the cache.
type PaperLoader interface {
	GetPaperWithQuestions(ctx context.Context, paperID int64) (*model.Paper, error)
}

// CachedPaperCatalog serves papers from Redis and falls back to the loader on a
// miss. Redis failures degrade to direct loads; not-found results are never cached.
// Nothing clears an entry when a paper is deleted, so a cached paper outlives
// the row by up to ttl. Grading and session detail read the loader directly.
type CachedPaperCatalog struct {
	next PaperLoader
	rdb  *redis.Client
	ttl  time.Duration
	log  zerolog.Logger
}

// NewCachedPaperCatalog wraps next with a Redis cache. A nil client disables caching.
func NewCachedPaperCatalog(next PaperLoader, rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *CachedPaperCatalog {
	return &CachedPaperCatalog{
		next: next,
		rdb:  rdb,
		ttl:  ttl,
		log:  log.With().Str("component", "paper_cache").Logger(),
	}
}

// GetPaperWithQuestions implements the paper catalog lookup.
func (c *CachedPaperCatalog) GetPaperWithQuestions(ctx context.Context, paperID int64) (*model.Paper, error) {
	if c.rdb == nil {
		return c.next.GetPaperWithQuestions(ctx, paperID)
	}

	key := config.CacheKey.PaperPayloadKey(paperID)
	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var p model.Paper
		if jsonErr := json.Unmarshal(raw, &p); jsonErr == nil {
			return &p, nil
		}
		c.log.Warn().Int64("paper_id", paperID).Msg("Corrupt paper payload in cache, reloading")
	case !errors.Is(err, redis.Nil):
		c.log.Warn().Err(err).Int64("paper_id", paperID).Msg("Paper cache read failed")
	}

	p, err := c.next.GetPaperWithQuestions(ctx, paperID)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(p); err == nil {
		if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.log.Warn().Err(err).Int64("paper_id", paperID).Msg("Paper cache write failed")
		}
	}
	return p, nil
}

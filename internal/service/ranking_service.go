package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-grading/internal/model"
)

// MaxRankingLimit caps the number of rows one ranking request may return.
const MaxRankingLimit = 500

// RankingReader runs the ranking query. paperID 0 means every paper, limit 0 means no cap.
type RankingReader interface {
	Rank(ctx context.Context, paperID int64, limit int) ([]model.RankingRow, error)
}

// RankingStore caches ranking pages. Set takes the version Get reported so a
// page computed before an invalidation is never stored as current.
type RankingStore interface {
	Get(ctx context.Context, paperID int64, limit int) ([]model.RankingRow, int64, bool)
	Set(ctx context.Context, version int64, paperID int64, limit int, rows []model.RankingRow) error
}

// RankingService builds leaderboards of graded sessions.
type RankingService struct {
	repo  RankingReader
	cache RankingStore
	log   zerolog.Logger
}

// NewRankingService creates a new RankingService. cache may be nil.
func NewRankingService(repo RankingReader, cache RankingStore, log zerolog.Logger) *RankingService {
	return &RankingService{
		repo:  repo,
		cache: cache,
		log:   log.With().Str("component", "ranking_service").Logger(),
	}
}

// Rank returns graded sessions by score, highest first. Equal scores rank the
// earlier submission first.
func (s *RankingService) Rank(ctx context.Context, paperID int64, limit int) ([]model.RankingRow, error) {
	if paperID < 0 {
		paperID = 0
	}
	if limit < 0 {
		limit = 0
	}
	if limit > MaxRankingLimit {
		limit = MaxRankingLimit
	}

	version := int64(-1)
	if s.cache != nil {
		rows, v, ok := s.cache.Get(ctx, paperID, limit)
		if ok {
			return rows, nil
		}
		version = v
	}

	rows, err := s.repo.Rank(ctx, paperID, limit)
	if err != nil {
		return nil, fmt.Errorf("rank sessions: %w", err)
	}
	if rows == nil {
		rows = []model.RankingRow{}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, version, paperID, limit, rows); err != nil {
			s.log.Warn().Err(err).Int64("paper_id", paperID).Msg("Failed to cache ranking")
		}
	}
	return rows, nil
}

package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-grading/internal/model"
)

// RankingRepository runs the leaderboard query.
type RankingRepository struct {
	pool *pgxpool.Pool
}

// NewRankingRepository creates a new RankingRepository.
func NewRankingRepository(pool *pgxpool.Pool) *RankingRepository {
	return &RankingRepository{pool: pool}
}

// Rank returns graded sessions joined with their papers in one query, best score
// first. Equal scores rank the earlier submission first, then by session id.
// paperID 0 means every paper; limit 0 means uncapped.
func (r *RankingRepository) Rank(ctx context.Context, paperID int64, limit int) ([]model.RankingRow, error) {
	query := `
		SELECT
			es.id, es.taker_name, es.total_score, es.paper_id, p.name,
			COALESCE(t.total, 0),
			es.started_at, es.ended_at,
			COALESCE(EXTRACT(EPOCH FROM (es.ended_at - es.started_at))::bigint, 0)
		FROM exam_sessions es
		JOIN papers p ON p.id = es.paper_id AND p.deleted_at IS NULL
		LEFT JOIN LATERAL (
			SELECT SUM(pq.score) AS total
			FROM paper_questions pq
			WHERE pq.paper_id = p.id
		) t ON TRUE
		WHERE es.status = 'GRADED' AND es.deleted_at IS NULL
	`
	var args []any
	if paperID > 0 {
		args = append(args, paperID)
		query += fmt.Sprintf(" AND es.paper_id = $%d", len(args))
	}
	query += " ORDER BY es.total_score DESC, es.ended_at ASC NULLS LAST, es.id ASC"
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ranking query: %w", err)
	}
	defer rows.Close()

	ranking := []model.RankingRow{}
	for rows.Next() {
		var row model.RankingRow
		if err := rows.Scan(&row.SessionID, &row.TakerName, &row.Score, &row.PaperID, &row.PaperName,
			&row.PaperTotalScore, &row.StartedAt, &row.EndedAt, &row.DurationSeconds); err != nil {
			return nil, err
		}
		ranking = append(ranking, row)
	}
	return ranking, rows.Err()
}

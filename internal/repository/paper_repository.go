package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-grading/internal/apperror"
	"github.com/stemsi/exstem-grading/internal/model"
)

// PaperRepository reads papers and their questions. Authoring happens elsewhere.
type PaperRepository struct {
	pool *pgxpool.Pool
}

// NewPaperRepository creates a new PaperRepository.
func NewPaperRepository(pool *pgxpool.Pool) *PaperRepository {
	return &PaperRepository{pool: pool}
}

// GetPaperWithQuestions loads a paper with its questions in canonical order:
// choice questions first, then judge, then text, each group by paper sort order.
// Deleted questions are left out.
func (r *PaperRepository) GetPaperWithQuestions(ctx context.Context, paperID int64) (*model.Paper, error) {
	var (
		name, description string
		duration          int
	)
	err := r.pool.QueryRow(ctx,
		`SELECT name, description, duration
		 FROM papers WHERE id = $1 AND deleted_at IS NULL`, paperID,
	).Scan(&name, &description, &duration)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("paper %d: %w", paperID, apperror.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get paper: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT q.id, q.type, q.title, q.multi, q.answer, pq.score
		 FROM paper_questions pq
		 JOIN questions q ON q.id = pq.question_id AND q.deleted_at IS NULL
		 WHERE pq.paper_id = $1
		 ORDER BY CASE q.type WHEN 'CHOICE' THEN 1 WHEN 'JUDGE' THEN 2 WHEN 'TEXT' THEN 3 ELSE 4 END,
		          pq.sort_order, q.id`, paperID,
	)
	if err != nil {
		return nil, fmt.Errorf("list paper questions: %w", err)
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.Type, &q.Title, &q.Multi, &q.Answer, &q.Weight); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return model.NewPaper(paperID, name, description, duration, questions), nil
}

package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-grading/internal/model"
)

// AnswerRecordRepository handles answer record data access.
type AnswerRecordRepository struct {
	pool *pgxpool.Pool
}

// NewAnswerRecordRepository creates a new AnswerRecordRepository.
func NewAnswerRecordRepository(pool *pgxpool.Pool) *AnswerRecordRepository {
	return &AnswerRecordRepository{pool: pool}
}

// ListBySession returns the records of a session in submission order.
func (r *AnswerRecordRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.AnswerRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, question_id, user_answer, score, correctness, ai_correction, created_at
		 FROM answer_records
		 WHERE session_id = $1
		 ORDER BY position, id`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.AnswerRecord
	for rows.Next() {
		var (
			a           model.AnswerRecord
			correctness *string
		)
		if err := rows.Scan(&a.ID, &a.SessionID, &a.QuestionID, &a.UserAnswer,
			&a.Score, &correctness, &a.Feedback, &a.CreatedAt); err != nil {
			return nil, err
		}
		if correctness != nil {
			c := model.Correctness(*correctness)
			a.Correctness = &c
		}
		records = append(records, a)
	}
	return records, rows.Err()
}

// UpdateGrades writes score, correctness and feedback of every graded record in a
// single statement, so a session never shows partially graded answers.
// Records without a score are left untouched.
func (r *AnswerRecordRepository) UpdateGrades(ctx context.Context, records []model.AnswerRecord) error {
	n := len(records)
	ids := make([]uuid.UUID, 0, n)
	scores := make([]int32, 0, n)
	verdicts := make([]string, 0, n)
	feedbacks := make([]string, 0, n)

	for _, a := range records {
		if a.Score == nil || a.Correctness == nil {
			continue
		}
		ids = append(ids, a.ID)
		scores = append(scores, int32(*a.Score))
		verdicts = append(verdicts, string(*a.Correctness))
		fb := ""
		if a.Feedback != nil {
			fb = *a.Feedback
		}
		feedbacks = append(feedbacks, fb)
	}
	if len(ids) == 0 {
		return nil
	}

	query := `
		UPDATE answer_records AS a
		SET score = t.score,
		    correctness = t.correctness,
		    ai_correction = NULLIF(t.feedback, ''),
		    updated_at = NOW()
		FROM (
			SELECT u.id, u.score, u.correctness, u.feedback
			FROM UNNEST(
				$1::uuid[],
				$2::int[],
				$3::text[],
				$4::text[]
			) AS u (id, score, correctness, feedback)
		) AS t
		WHERE a.id = t.id
	`

	if _, err := r.pool.Exec(ctx, query, ids, scores, verdicts, feedbacks); err != nil {
		return fmt.Errorf("bulk update grades: %w", err)
	}
	return nil
}

// insertAnswers bulk inserts submitted answers inside tx using UNNEST.
func insertAnswers(ctx context.Context, tx pgx.Tx, sessionID uuid.UUID, answers []model.AnswerRecord) error {
	n := len(answers)
	ids := make([]uuid.UUID, n)
	sessions := make([]uuid.UUID, n)
	questions := make([]int64, n)
	positions := make([]int32, n)
	texts := make([]string, n)

	for i, a := range answers {
		ids[i] = a.ID
		sessions[i] = sessionID
		questions[i] = a.QuestionID
		positions[i] = int32(i)
		texts[i] = a.UserAnswer
	}

	_, err := tx.Exec(ctx,
		`INSERT INTO answer_records (id, session_id, question_id, position, user_answer)
		 SELECT * FROM UNNEST($1::uuid[], $2::uuid[], $3::bigint[], $4::int[], $5::text[])`,
		ids, sessions, questions, positions, texts)
	if err != nil {
		return fmt.Errorf("insert answer records: %w", err)
	}
	return nil
}

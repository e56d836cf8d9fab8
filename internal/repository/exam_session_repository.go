package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-grading/internal/apperror"
	"github.com/stemsi/exstem-grading/internal/model"
)

const sessionColumns = `id, paper_id, taker_name, status, started_at, ended_at,
	total_score, summary, window_switches, created_at, updated_at`

// ExamSessionRepository handles exam session data access.
type ExamSessionRepository struct {
	pool *pgxpool.Pool
}

// NewExamSessionRepository creates a new ExamSessionRepository.
func NewExamSessionRepository(pool *pgxpool.Pool) *ExamSessionRepository {
	return &ExamSessionRepository{pool: pool}
}

func scanSession(row pgx.Row) (*model.ExamSession, error) {
	s := &model.ExamSession{}
	err := row.Scan(&s.ID, &s.PaperID, &s.TakerName, &s.Status, &s.StartedAt, &s.EndedAt,
		&s.TotalScore, &s.Summary, &s.WindowSwitches, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetByID retrieves a non-deleted session.
func (r *ExamSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ExamSession, error) {
	s, err := scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+`
		 FROM exam_sessions
		 WHERE id = $1 AND deleted_at IS NULL`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", id, apperror.ErrNotFound)
	}
	return s, err
}

// FindActive retrieves the IN_PROGRESS session of a taker on a paper.
func (r *ExamSessionRepository) FindActive(ctx context.Context, paperID int64, takerName string) (*model.ExamSession, error) {
	s, err := scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+`
		 FROM exam_sessions
		 WHERE paper_id = $1 AND taker_name = $2
		   AND status = 'IN_PROGRESS' AND deleted_at IS NULL`, paperID, takerName))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("active session for paper %d: %w", paperID, apperror.ErrNotFound)
	}
	return s, err
}

// CreateActive inserts s as a new IN_PROGRESS session unless one already exists
// for (paper, taker). The partial unique index ux_exam_sessions_active makes the
// insert-if-absent atomic. It returns the stored session and whether it was
// created by this call.
func (r *ExamSessionRepository) CreateActive(ctx context.Context, s *model.ExamSession) (*model.ExamSession, bool, error) {
	created, err := scanSession(r.pool.QueryRow(ctx,
		`INSERT INTO exam_sessions (id, paper_id, taker_name, status, started_at, window_switches)
		 VALUES ($1, $2, $3, 'IN_PROGRESS', $4, 0)
		 ON CONFLICT (paper_id, taker_name) WHERE status = 'IN_PROGRESS' AND deleted_at IS NULL
		 DO NOTHING
		 RETURNING `+sessionColumns,
		s.ID, s.PaperID, s.TakerName, s.StartedAt))
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("insert session: %w", err)
	}

	// Conflict: another attempt is already active.
	existing, err := r.FindActive(ctx, s.PaperID, s.TakerName)
	if err != nil {
		return nil, false, fmt.Errorf("concurrent start detected, but fetch failed: %w", err)
	}
	return existing, false, nil
}

// Submit moves an IN_PROGRESS session to COMPLETED and stores its answers in one
// transaction. A session that is not IN_PROGRESS yields apperror.ErrInvalidState
// and nothing is written.
func (r *ExamSessionRepository) Submit(ctx context.Context, id uuid.UUID, answers []model.AnswerRecord, endedAt time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin submit: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE exam_sessions
		 SET status = 'COMPLETED', ended_at = $2, updated_at = NOW()
		 WHERE id = $1 AND status = 'IN_PROGRESS' AND deleted_at IS NULL`,
		id, endedAt)
	if err != nil {
		return fmt.Errorf("complete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("session %s is not in progress: %w", id, apperror.ErrInvalidState)
	}

	if len(answers) > 0 {
		if err := insertAnswers(ctx, tx, id, answers); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// MarkGraded finalizes a COMPLETED session.
func (r *ExamSessionRepository) MarkGraded(ctx context.Context, id uuid.UUID, totalScore int, summary string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exam_sessions
		 SET status = 'GRADED', total_score = $2, summary = $3, updated_at = NOW()
		 WHERE id = $1 AND status = 'COMPLETED' AND deleted_at IS NULL`,
		id, totalScore, summary)
	if err != nil {
		return fmt.Errorf("mark graded: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("session %s is not completed: %w", id, apperror.ErrInvalidState)
	}
	return nil
}

// Delete soft-deletes a finished session and removes its answer records.
func (r *ExamSessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE exam_sessions
		 SET deleted_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND status <> 'IN_PROGRESS' AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("session %s cannot be deleted: %w", id, apperror.ErrInvalidState)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM answer_records WHERE session_id = $1`, id); err != nil {
		return fmt.Errorf("delete answer records: %w", err)
	}

	return tx.Commit(ctx)
}

// List retrieves sessions with optional filters and pagination, newest first.
func (r *ExamSessionRepository) List(ctx context.Context, f model.SessionFilter) ([]model.ExamSession, int64, error) {
	baseQuery := ` FROM exam_sessions WHERE deleted_at IS NULL`
	var args []any

	if f.TakerName != "" {
		args = append(args, "%"+f.TakerName+"%")
		baseQuery += fmt.Sprintf(" AND taker_name ILIKE $%d", len(args))
	}
	if f.Status != nil {
		args = append(args, *f.Status)
		baseQuery += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.StartFrom != nil {
		args = append(args, *f.StartFrom)
		baseQuery += fmt.Sprintf(" AND started_at >= $%d", len(args))
	}
	if f.StartTo != nil {
		args = append(args, *f.StartTo)
		baseQuery += fmt.Sprintf(" AND started_at < $%d", len(args))
	}

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*)"+baseQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + sessionColumns + baseQuery +
		fmt.Sprintf(" ORDER BY started_at DESC, id LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, f.PerPage, (f.Page-1)*f.PerPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	sessions := make([]model.ExamSession, 0, f.PerPage)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, 0, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, total, rows.Err()
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-grading/internal/apperror"
	"github.com/stemsi/exstem-grading/internal/grading"
	"github.com/stemsi/exstem-grading/internal/model"
	"github.com/stemsi/exstem-grading/internal/response"
	"github.com/stemsi/exstem-grading/internal/worker"
)

// SessionRepository is the session storage used by ExamSessionService.
type SessionRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.ExamSession, error)
	FindActive(ctx context.Context, paperID int64, takerName string) (*model.ExamSession, error)
	CreateActive(ctx context.Context, s *model.ExamSession) (*model.ExamSession, bool, error)
	Submit(ctx context.Context, id uuid.UUID, answers []model.AnswerRecord, endedAt time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f model.SessionFilter) ([]model.ExamSession, int64, error)
}

// AnswerReader loads the answers of a session.
type AnswerReader interface {
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.AnswerRecord, error)
}

// Grader grades a completed session.
type Grader interface {
	Grade(ctx context.Context, sessionID uuid.UUID) (*grading.Result, error)
}

// BackgroundRunner accepts best-effort side updates.
type BackgroundRunner interface {
	Submit(name string, fn worker.Task) bool
}

// RankingInvalidator drops cached rankings.
type RankingInvalidator interface {
	Invalidate(ctx context.Context) error
}

// ExamSessionService owns the session lifecycle: start, submit, grade, delete.
type ExamSessionService struct {
	sessions     SessionRepository
	answers      AnswerReader
	catalog      grading.PaperCatalog
	papers       grading.PaperCatalog
	grader       Grader
	bg           BackgroundRunner
	ranking      RankingInvalidator
	gradeTimeout time.Duration
	now          func() time.Time
	log          zerolog.Logger
}

// NewExamSessionService creates a new ExamSessionService. catalog may be cached
// and only answers whether a paper can be started; papers must reflect deletions
// immediately. gradeTimeout bounds the grading run started by Submit.
func NewExamSessionService(
	sessions SessionRepository,
	answers AnswerReader,
	catalog grading.PaperCatalog,
	papers grading.PaperCatalog,
	grader Grader,
	bg BackgroundRunner,
	ranking RankingInvalidator,
	gradeTimeout time.Duration,
	log zerolog.Logger,
) *ExamSessionService {
	return &ExamSessionService{
		sessions:     sessions,
		answers:      answers,
		catalog:      catalog,
		papers:       papers,
		grader:       grader,
		bg:           bg,
		ranking:      ranking,
		gradeTimeout: gradeTimeout,
		now:          time.Now,
		log:          log.With().Str("component", "exam_session_service").Logger(),
	}
}

// Start returns the taker's active session on the paper, creating it if none exists.
func (s *ExamSessionService) Start(ctx context.Context, paperID int64, takerName string) (*model.ExamSession, error) {
	takerName = strings.TrimSpace(takerName)

	existing, err := s.sessions.FindActive(ctx, paperID, takerName)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("find active session: %w", err)
	}

	if _, err := s.catalog.GetPaperWithQuestions(ctx, paperID); err != nil {
		return nil, fmt.Errorf("get paper: %w", err)
	}

	session, created, err := s.sessions.CreateActive(ctx, &model.ExamSession{
		ID:        uuid.New(),
		PaperID:   paperID,
		TakerName: takerName,
		Status:    model.SessionStatusInProgress,
		StartedAt: s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	if created {
		s.log.Info().Str("session_id", session.ID.String()).Int64("paper_id", paperID).Msg("Exam session started")
	}
	return session, nil
}

// Submit stores the answers, completes the session and grades it before
// returning. Grading keeps running when the caller goes away, bounded by the
// grading timeout.
func (s *ExamSessionService) Submit(ctx context.Context, sessionID uuid.UUID, answers []model.SubmitAnswerRequest) (*model.ExamSession, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != model.SessionStatusInProgress {
		return nil, fmt.Errorf("session already submitted: %w", apperror.ErrInvalidState)
	}

	records := collapseAnswers(sessionID, answers)
	if err := s.sessions.Submit(ctx, sessionID, records, s.now()); err != nil {
		return nil, fmt.Errorf("submit session: %w", err)
	}

	gradeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.gradeTimeout)
	defer cancel()

	if _, err := s.grader.Grade(gradeCtx, sessionID); err != nil {
		return nil, fmt.Errorf("grade session: %w", err)
	}
	s.invalidateRanking()

	graded, err := s.sessions.GetByID(gradeCtx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("reload session: %w", err)
	}
	return graded, nil
}

// collapseAnswers builds answer records, keeping one per question. A repeated
// question keeps its first position and its last answer.
func collapseAnswers(sessionID uuid.UUID, answers []model.SubmitAnswerRequest) []model.AnswerRecord {
	index := make(map[int64]int, len(answers))
	records := make([]model.AnswerRecord, 0, len(answers))
	for _, a := range answers {
		if i, ok := index[a.QuestionID]; ok {
			records[i].UserAnswer = a.UserAnswer
			continue
		}
		index[a.QuestionID] = len(records)
		records = append(records, model.AnswerRecord{
			ID:         uuid.New(),
			SessionID:  sessionID,
			QuestionID: a.QuestionID,
			UserAnswer: a.UserAnswer,
		})
	}
	return records
}

// GetDetail composes a session with its paper and its answers in paper order.
func (s *ExamSessionService) GetDetail(ctx context.Context, sessionID uuid.UUID) (*model.SessionDetail, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	paper, err := s.papers.GetPaperWithQuestions(ctx, session.PaperID)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("paper %d of session %s: %w", session.PaperID, sessionID, apperror.ErrPaperDeleted)
	}
	if err != nil {
		return nil, fmt.Errorf("get paper: %w", err)
	}

	records, err := s.answers.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}

	ordered := grading.Reconcile(records, paper.QuestionOrder())
	if ordered == nil {
		ordered = []model.AnswerRecord{}
	}
	return &model.SessionDetail{
		ExamSession:   *session,
		Paper:         paper,
		AnswerRecords: ordered,
	}, nil
}

// Delete removes a finished session and its answers.
func (s *ExamSessionService) Delete(ctx context.Context, sessionID uuid.UUID) error {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.Status == model.SessionStatusInProgress {
		return fmt.Errorf("cannot delete an active exam: %w", apperror.ErrInvalidState)
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	if session.Status == model.SessionStatusGraded {
		s.invalidateRanking()
	}
	s.log.Info().Str("session_id", sessionID.String()).Msg("Exam session deleted")
	return nil
}

// List returns a page of sessions matching f.
func (s *ExamSessionService) List(ctx context.Context, f model.SessionFilter) ([]model.ExamSession, *response.Pagination, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 {
		f.PerPage = 10
	}
	if f.PerPage > 100 {
		f.PerPage = 100
	}
	f.TakerName = strings.TrimSpace(f.TakerName)

	sessions, total, err := s.sessions.List(ctx, f)
	if err != nil {
		return nil, nil, err
	}
	if sessions == nil {
		sessions = []model.ExamSession{}
	}

	pagination := &response.Pagination{
		Page:       f.Page,
		PerPage:    f.PerPage,
		TotalItems: int(total),
		TotalPages: (int(total) + f.PerPage - 1) / f.PerPage,
	}
	return sessions, pagination, nil
}

func (s *ExamSessionService) invalidateRanking() {
	if s.ranking == nil || s.bg == nil {
		return
	}
	s.bg.Submit("ranking_invalidate", s.ranking.Invalidate)
}

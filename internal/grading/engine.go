package grading

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-grading/internal/ai"
	"github.com/stemsi/exstem-grading/internal/apperror"
	"github.com/stemsi/exstem-grading/internal/metrics"
	"github.com/stemsi/exstem-grading/internal/model"
)

const (
	SummaryPaperDeleted = "paper deleted, cannot grade"
	SummaryNoSubmission = "no submission"
	FeedbackFault       = "grading error"
)

// PaperCatalog resolves a paper with its questions.
type PaperCatalog interface {
	GetPaperWithQuestions(ctx context.Context, paperID int64) (*model.Paper, error)
}

// SessionStore reads and finalizes sessions.
type SessionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.ExamSession, error)
	MarkGraded(ctx context.Context, id uuid.UUID, totalScore int, summary string) error
}

// AnswerStore reads and grades answer records.
type AnswerStore interface {
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.AnswerRecord, error)
	UpdateGrades(ctx context.Context, records []model.AnswerRecord) error
}

// Scorer grades free-text answers and writes session summaries.
type Scorer interface {
	GradeSubjective(ctx context.Context, q model.Question, answer string, maxScore int) (ai.SubjectiveGrade, error)
	Summarize(ctx context.Context, totalScore, maxScore, questionCount, correctCount int) (string, error)
}

// Result describes a finished grading run.
type Result struct {
	SessionID    uuid.UUID
	PaperID      int64
	TotalScore   int
	CorrectCount int
	Graded       int
	Skipped      int
	Faults       int
	Summary      string
}

// Engine grades completed sessions.
type Engine struct {
	catalog       PaperCatalog
	sessions      SessionStore
	answers       AnswerStore
	scorer        Scorer
	summaryStrict bool
	log           zerolog.Logger
}

// NewEngine creates an Engine. With summaryStrict set, a failed summary call
// fails the run and leaves the session COMPLETED; otherwise a local summary
// is written instead.
func NewEngine(catalog PaperCatalog, sessions SessionStore, answers AnswerStore, scorer Scorer, summaryStrict bool, log zerolog.Logger) *Engine {
	return &Engine{
		catalog:       catalog,
		sessions:      sessions,
		answers:       answers,
		scorer:        scorer,
		summaryStrict: summaryStrict,
		log:           log.With().Str("component", "grading_engine").Logger(),
	}
}

// Grade scores every answer of a COMPLETED session and marks it GRADED.
// A failure while grading one answer zeroes that answer and never aborts the run.
func (e *Engine) Grade(ctx context.Context, sessionID uuid.UUID) (res *Result, err error) {
	start := time.Now()
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
		}
		metrics.GradingDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
	}()

	session, err := e.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session.Status != model.SessionStatusCompleted {
		return nil, fmt.Errorf("session %s is %s: %w", sessionID, session.Status, apperror.ErrInvalidState)
	}

	log := e.log.With().Str("session_id", sessionID.String()).Int64("paper_id", session.PaperID).Logger()
	res = &Result{SessionID: sessionID, PaperID: session.PaperID}

	paper, err := e.catalog.GetPaperWithQuestions(ctx, session.PaperID)
	if errors.Is(err, apperror.ErrNotFound) {
		log.Warn().Msg("Paper no longer exists, grading session as zero")
		return e.finish(ctx, res, SummaryPaperDeleted)
	}
	if err != nil {
		return nil, fmt.Errorf("load paper: %w", err)
	}

	records, err := e.answers.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}
	if len(records) == 0 {
		return e.finish(ctx, res, SummaryNoSubmission)
	}

	questions := paper.QuestionMap()
	for i := range records {
		rec := &records[i]
		q, ok := questions[rec.QuestionID]
		if !ok {
			res.Skipped++
			continue
		}

		if err := e.gradeOne(ctx, q, rec); err != nil {
			log.Error().Err(err).Int64("question_id", q.ID).Str("type", string(q.Type)).Msg("Grading answer failed, scoring zero")
			metrics.GradingFaults.WithLabelValues(string(q.Type)).Inc()
			rec.SetGrade(0, model.CorrectnessIncorrect, FeedbackFault)
			res.Faults++
		}
		metrics.GradedAnswers.WithLabelValues(string(q.Type), string(*rec.Correctness)).Inc()

		res.Graded++
		res.TotalScore += *rec.Score
		if *rec.Correctness == model.CorrectnessCorrect {
			res.CorrectCount++
		}
	}

	if err := e.answers.UpdateGrades(ctx, records); err != nil {
		return nil, fmt.Errorf("persist grades: %w", err)
	}

	summary, err := e.scorer.Summarize(ctx, res.TotalScore, paper.TotalWeight, paper.QuestionCount, res.CorrectCount)
	if err != nil {
		if e.summaryStrict {
			return nil, fmt.Errorf("summarize session: %w", err)
		}
		log.Warn().Err(err).Msg("Summary generation failed, using local summary")
		metrics.SummaryFallbacks.Inc()
		summary = fallbackSummary(res.TotalScore, paper.TotalWeight, paper.QuestionCount, res.CorrectCount)
	}

	log.Info().
		Int("total_score", res.TotalScore).
		Int("correct", res.CorrectCount).
		Int("graded", res.Graded).
		Int("skipped", res.Skipped).
		Int("faults", res.Faults).
		Msg("Session graded")
	return e.finish(ctx, res, summary)
}

func (e *Engine) finish(ctx context.Context, res *Result, summary string) (*Result, error) {
	res.Summary = summary
	if err := e.sessions.MarkGraded(ctx, res.SessionID, res.TotalScore, summary); err != nil {
		return nil, fmt.Errorf("mark graded: %w", err)
	}
	return res, nil
}

// gradeOne grades rec against q. A panic is reported as an error.
func (e *Engine) gradeOne(ctx context.Context, q model.Question, rec *model.AnswerRecord) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic grading question %d: %v", q.ID, r)
		}
	}()

	if q.Type.IsObjective() {
		score, verdict := GradeObjective(q, rec.UserAnswer)
		rec.SetGrade(score, verdict, "")
		return nil
	}
	if q.Type != model.QuestionTypeText {
		return fmt.Errorf("unsupported question type %q", q.Type)
	}

	g, err := e.scorer.GradeSubjective(ctx, q, rec.UserAnswer, q.Weight)
	if err != nil {
		return err
	}
	score, verdict := classifySubjective(g.Score, q.Weight)
	rec.SetGrade(score, verdict, g.Feedback)
	return nil
}

func fallbackSummary(total, max, questionCount, correctCount int) string {
	rate := 0.0
	if max > 0 {
		rate = float64(total) / float64(max) * 100
	}
	return fmt.Sprintf("Scored %d out of %d (%.1f%%). %d of %d questions answered correctly.",
		total, max, rate, correctCount, questionCount)
}

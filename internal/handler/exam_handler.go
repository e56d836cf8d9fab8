package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-grading/internal/model"
	"github.com/stemsi/exstem-grading/internal/response"
	"github.com/stemsi/exstem-grading/internal/validator"
)

// ExamSessionManager is the session lifecycle used by the handlers.
type ExamSessionManager interface {
	Start(ctx context.Context, paperID int64, takerName string) (*model.ExamSession, error)
	Submit(ctx context.Context, sessionID uuid.UUID, answers []model.SubmitAnswerRequest) (*model.ExamSession, error)
	GetDetail(ctx context.Context, sessionID uuid.UUID) (*model.SessionDetail, error)
	Delete(ctx context.Context, sessionID uuid.UUID) error
	List(ctx context.Context, f model.SessionFilter) ([]model.ExamSession, *response.Pagination, error)
}

// ExamHandler handles exam-taking endpoints.
type ExamHandler struct {
	sessions ExamSessionManager
	log      zerolog.Logger
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(sessions ExamSessionManager, log zerolog.Logger) *ExamHandler {
	return &ExamHandler{
		sessions: sessions,
		log:      log.With().Str("component", "exam_handler").Logger(),
	}
}

// StartExam godoc
// POST /api/v1/exams/start
// Returns the caller's active session on the paper, creating one if needed.
func (h *ExamHandler) StartExam(c *gin.Context) {
	var req model.StartExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, err := h.sessions.Start(c.Request.Context(), req.PaperID, req.TakerName)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// GetExam godoc
// GET /api/v1/exams/:id
// Returns the session with its paper and its answers in paper order.
func (h *ExamHandler) GetExam(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	detail, err := h.sessions.GetDetail(c.Request.Context(), id)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": detail})
}

// SubmitExam godoc
// POST /api/v1/exams/:id/submit
// Stores the answers and grades the session before responding.
func (h *ExamHandler) SubmitExam(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	var answers []model.SubmitAnswerRequest
	if fields := validator.BindSlice(c, &answers); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, err := h.sessions.Submit(c.Request.Context(), id, answers)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// DeleteExam godoc
// DELETE /api/v1/exams/:id
// Deletes a finished session and its answers.
func (h *ExamHandler) DeleteExam(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	if err := h.sessions.Delete(c.Request.Context(), id); err != nil {
		failWithError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "exam record deleted"})
}

func sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

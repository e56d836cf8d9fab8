package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-grading/internal/model"
	"github.com/stemsi/exstem-grading/internal/response"
)

const dateLayout = "2006-01-02"

// RankingProvider builds leaderboards.
type RankingProvider interface {
	Rank(ctx context.Context, paperID int64, limit int) ([]model.RankingRow, error)
}

// ExamRecordHandler serves the record listing and the leaderboard.
type ExamRecordHandler struct {
	sessions ExamSessionManager
	ranking  RankingProvider
	log      zerolog.Logger
}

// NewExamRecordHandler creates a new ExamRecordHandler.
func NewExamRecordHandler(sessions ExamSessionManager, ranking RankingProvider, log zerolog.Logger) *ExamRecordHandler {
	return &ExamRecordHandler{
		sessions: sessions,
		ranking:  ranking,
		log:      log.With().Str("component", "exam_record_handler").Logger(),
	}
}

// Ranking godoc
// GET /api/v1/exam-records/ranking?paperId=&limit=
// Lists graded sessions by score, highest first.
func (h *ExamRecordHandler) Ranking(c *gin.Context) {
	paperID, err := optionalInt(c, "paperId")
	if err != nil || paperID < 0 {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidQuery, map[string]string{"paperId": "must be a positive integer"})
		return
	}
	limit, err := optionalInt(c, "limit")
	if err != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidQuery, map[string]string{"limit": "must be an integer"})
		return
	}

	rows, err := h.ranking.Rank(c.Request.Context(), paperID, int(limit))
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"ranking": rows})
}

// ListRecords godoc
// GET /api/v1/exam-records/list?page=&size=&takerName=&status=&startDate=&endDate=
// Lists sessions newest first. status accepts 0/1/2 or the status name;
// dates are YYYY-MM-DD and endDate is inclusive.
func (h *ExamRecordHandler) ListRecords(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", c.DefaultQuery("perPage", "10")))

	filter := model.SessionFilter{
		TakerName: c.Query("takerName"),
		Page:      page,
		PerPage:   size,
	}

	if raw := c.Query("status"); raw != "" {
		status, ok := model.ParseSessionStatus(raw)
		if !ok {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidQuery, map[string]string{"status": "unknown status"})
			return
		}
		filter.Status = &status
	}
	if raw := c.Query("startDate"); raw != "" {
		from, err := time.ParseInLocation(dateLayout, raw, time.Local)
		if err != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidQuery, map[string]string{"startDate": "expected YYYY-MM-DD"})
			return
		}
		filter.StartFrom = &from
	}
	if raw := c.Query("endDate"); raw != "" {
		to, err := time.ParseInLocation(dateLayout, raw, time.Local)
		if err != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidQuery, map[string]string{"endDate": "expected YYYY-MM-DD"})
			return
		}
		to = to.AddDate(0, 0, 1)
		filter.StartTo = &to
	}

	sessions, pagination, err := h.sessions.List(c.Request.Context(), filter)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"sessions": sessions}, pagination)
}

func optionalInt(c *gin.Context, key string) (int64, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}

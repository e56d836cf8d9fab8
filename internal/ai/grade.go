package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/stemsi/exstem-grading/internal/apperror"
	"github.com/stemsi/exstem-grading/internal/model"
)

// SubjectiveGrade is the scorer's verdict on one free-text answer.
type SubjectiveGrade struct {
	Score    int
	Feedback string
	Reason   string
}

// GradeSubjective asks the model to score answer against the reference answer
// of q. A reply without an integer score is retried like a failed request.
func (c *Client) GradeSubjective(ctx context.Context, q model.Question, answer string, maxScore int) (SubjectiveGrade, error) {
	var grade SubjectiveGrade
	_, err := c.call(ctx, buildGradingPrompt(q, answer, maxScore), func(text string) error {
		g, err := parseGrade(text)
		if err != nil {
			return err
		}
		grade = g
		return nil
	})
	if err != nil {
		return SubjectiveGrade{}, err
	}
	return grade, nil
}

// Summarize asks the model for a short narrative evaluation of a session.
func (c *Client) Summarize(ctx context.Context, totalScore, maxScore, questionCount, correctCount int) (string, error) {
	return c.Call(ctx, buildSummaryPrompt(totalScore, maxScore, questionCount, correctCount))
}

type gradeReply struct {
	Score    json.RawMessage `json:"score"`
	Feedback string          `json:"feedback"`
	Reason   string          `json:"reason"`
}

func parseGrade(text string) (SubjectiveGrade, error) {
	var reply gradeReply
	if err := json.Unmarshal([]byte(extractJSON(text)), &reply); err != nil {
		return SubjectiveGrade{}, fmt.Errorf("%w: %v", apperror.ErrMalformedResponse, err)
	}
	score, err := parseScore(reply.Score)
	if err != nil {
		return SubjectiveGrade{}, err
	}
	return SubjectiveGrade{
		Score:    score,
		Feedback: strings.TrimSpace(reply.Feedback),
		Reason:   strings.TrimSpace(reply.Reason),
	}, nil
}

// parseScore accepts a JSON number or a numeric string. Fractions are rounded.
func parseScore(raw json.RawMessage) (int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, fmt.Errorf("%w: score missing", apperror.ErrMalformedResponse)
	}
	s := string(raw)
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unquoted)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: score %s is not a number", apperror.ErrMalformedResponse, raw)
	}
	return int(math.Round(f)), nil
}

// extractJSON strips a markdown code fence and any prose around the object.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return text
	}
	return text[start : end+1]
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// Correctness is the graded verdict of one answer.
type Correctness string

const (
	CorrectnessCorrect   Correctness = "CORRECT"
	CorrectnessIncorrect Correctness = "INCORRECT"
	CorrectnessPartial   Correctness = "PARTIAL"
)

// AnswerRecord is one submitted answer within a session.
// Score and Correctness stay nil until the record is graded.
type AnswerRecord struct {
	ID          uuid.UUID    `json:"id"`
	SessionID   uuid.UUID    `json:"sessionId"`
	QuestionID  int64        `json:"questionId"`
	UserAnswer  string       `json:"userAnswer"`
	Score       *int         `json:"score,omitempty"`
	Correctness *Correctness `json:"correctness,omitempty"`
	Feedback    *string      `json:"aiCorrection,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// SetGrade records a verdict on the answer.
func (a *AnswerRecord) SetGrade(score int, c Correctness, feedback string) {
	a.Score = &score
	a.Correctness = &c
	if feedback == "" {
		a.Feedback = nil
		return
	}
	a.Feedback = &feedback
}

// SubmitAnswerRequest is one element of the submit payload.
type SubmitAnswerRequest struct {
	QuestionID int64  `json:"questionId" binding:"required,min=1"`
	UserAnswer string `json:"userAnswer" binding:"max=10000"`
}

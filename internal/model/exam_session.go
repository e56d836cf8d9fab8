package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus enumerates exam session states.
// Transitions are IN_PROGRESS -> COMPLETED -> GRADED only.
type SessionStatus string

const (
	SessionStatusInProgress SessionStatus = "IN_PROGRESS"
	SessionStatusCompleted  SessionStatus = "COMPLETED"
	SessionStatusGraded     SessionStatus = "GRADED"
)

// ParseSessionStatus accepts either the status name or the numeric filter
// codes used by the record listing (0 in progress, 1 completed, 2 graded).
func ParseSessionStatus(s string) (SessionStatus, bool) {
	switch s {
	case "0", string(SessionStatusInProgress):
		return SessionStatusInProgress, true
	case "1", string(SessionStatusCompleted):
		return SessionStatusCompleted, true
	case "2", string(SessionStatusGraded):
		return SessionStatusGraded, true
	}
	return "", false
}

// ExamSession represents one test-taker's attempt at one paper.
type ExamSession struct {
	ID         uuid.UUID     `json:"id"`
	PaperID    int64         `json:"paperId"`
	TakerName  string        `json:"takerName"`
	Status     SessionStatus `json:"status"`
	StartedAt  time.Time     `json:"startTime"`
	EndedAt    *time.Time    `json:"endTime,omitempty"`
	TotalScore *int          `json:"score,omitempty"`
	Summary    *string       `json:"summary,omitempty"`
	// WindowSwitches counts focus-loss events. Reserved; nothing increments it yet.
	WindowSwitches int       `json:"windowSwitches"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// SessionDetail is a session composed with its paper and paper-ordered answers.
type SessionDetail struct {
	ExamSession
	Paper         *Paper         `json:"paper"`
	AnswerRecords []AnswerRecord `json:"answerRecords"`
}

// SessionFilter narrows the record listing.
type SessionFilter struct {
	TakerName string
	Status    *SessionStatus
	StartFrom *time.Time
	StartTo   *time.Time
	Page      int
	PerPage   int
}

// StartExamRequest is the payload for starting (or resuming) an exam.
type StartExamRequest struct {
	PaperID   int64  `json:"paperId" binding:"required,min=1"`
	TakerName string `json:"takerName" binding:"required,notblank,max=100"`
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// RankingRow is one leaderboard entry.
type RankingRow struct {
	SessionID       uuid.UUID  `json:"id"`
	TakerName       string     `json:"takerName"`
	Score           int        `json:"score"`
	PaperID         int64      `json:"paperId"`
	PaperName       string     `json:"paperName"`
	PaperTotalScore int        `json:"paperTotalScore"`
	StartedAt       time.Time  `json:"startTime"`
	EndedAt         *time.Time `json:"endTime,omitempty"`
	DurationSeconds int64      `json:"durationSeconds"`
}

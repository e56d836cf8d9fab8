package grading

import (
	"slices"

	"github.com/stemsi/exstem-grading/internal/model"
)

// Reconcile returns a copy of records sorted into the paper's question order.
// Records whose question is not in order go last, keeping their relative order.
func Reconcile(records []model.AnswerRecord, order []int64) []model.AnswerRecord {
	pos := make(map[int64]int, len(order))
	for i, id := range order {
		if _, seen := pos[id]; !seen {
			pos[id] = i
		}
	}
	rank := func(a model.AnswerRecord) int {
		if p, ok := pos[a.QuestionID]; ok {
			return p
		}
		return len(order)
	}

	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b model.AnswerRecord) int {
		return rank(a) - rank(b)
	})
	return out
}

package grading

import (
	"testing"

	"github.com/stemsi/exstem-grading/internal/model"
	"github.com/stretchr/testify/assert"
)

func answers(questionIDs ...int64) []model.AnswerRecord {
	out := make([]model.AnswerRecord, len(questionIDs))
	for i, id := range questionIDs {
		out[i] = model.AnswerRecord{QuestionID: id, UserAnswer: string(rune('a' + i))}
	}
	return out
}

func questionIDs(records []model.AnswerRecord) []int64 {
	ids := make([]int64, len(records))
	for i, r := range records {
		ids[i] = r.QuestionID
	}
	return ids
}

func TestReconcile_FollowsPaperOrder(t *testing.T) {
	in := answers(30, 10, 20)
	out := Reconcile(in, []int64{10, 20, 30})

	assert.Equal(t, []int64{10, 20, 30}, questionIDs(out))
	assert.Equal(t, []int64{30, 10, 20}, questionIDs(in), "input must not be reordered")
}

func TestReconcile_UnknownQuestionsLastAndStable(t *testing.T) {
	in := answers(99, 20, 77, 10, 88)
	out := Reconcile(in, []int64{10, 20})

	assert.Equal(t, []int64{10, 20, 99, 77, 88}, questionIDs(out))
	assert.Equal(t, "a", out[2].UserAnswer)
	assert.Equal(t, "c", out[3].UserAnswer)
	assert.Equal(t, "e", out[4].UserAnswer)
}

func TestReconcile_Empty(t *testing.T) {
	assert.Empty(t, Reconcile(nil, []int64{1, 2}))
	assert.Equal(t, []int64{5, 4}, questionIDs(Reconcile(answers(5, 4), nil)))
}

// Package grading turns a completed exam session into a graded one.
package grading

import (
	"slices"
	"strings"
	"unicode"

	"github.com/stemsi/exstem-grading/internal/model"
)

var judgeTokens = map[string]string{
	"T":     "TRUE",
	"TRUE":  "TRUE",
	"正确":    "TRUE",
	"对":     "TRUE",
	"F":     "FALSE",
	"FALSE": "FALSE",
	"错误":    "FALSE",
	"错":     "FALSE",
}

// NormalizeJudge maps the accepted true/false spellings onto TRUE or FALSE.
// Unknown tokens are returned trimmed and upper-cased.
func NormalizeJudge(answer string) string {
	s := strings.ToUpper(strings.TrimSpace(answer))
	if v, ok := judgeTokens[s]; ok {
		return v
	}
	return s
}

// NormalizeChoice upper-cases a choice answer. For multi-choice questions the
// selected options are sorted and joined with commas, so "c, a" and "A,C" match.
func NormalizeChoice(answer string, multi bool) string {
	s := strings.ToUpper(strings.TrimSpace(answer))
	if !multi {
		return s
	}
	opts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '，' || r == ';' || unicode.IsSpace(r)
	})
	slices.Sort(opts)
	return strings.Join(slices.Compact(opts), ",")
}

// GradeObjective compares a choice or judge answer with the reference answer.
// A match earns the full weight, anything else including a blank answer earns 0.
func GradeObjective(q model.Question, answer string) (int, model.Correctness) {
	submitted := strings.TrimSpace(answer)
	expected := strings.TrimSpace(q.Answer)
	switch q.Type {
	case model.QuestionTypeJudge:
		submitted = NormalizeJudge(submitted)
		expected = NormalizeJudge(expected)
	case model.QuestionTypeChoice:
		submitted = NormalizeChoice(submitted, q.Multi)
		expected = NormalizeChoice(expected, q.Multi)
	}
	if submitted != "" && strings.EqualFold(submitted, expected) {
		return q.Weight, model.CorrectnessCorrect
	}
	return 0, model.CorrectnessIncorrect
}

// classifySubjective clamps an AI score into [0, weight] and derives the verdict.
func classifySubjective(score, weight int) (int, model.Correctness) {
	switch {
	case score >= weight:
		return weight, model.CorrectnessCorrect
	case score <= 0:
		return 0, model.CorrectnessIncorrect
	default:
		return score, model.CorrectnessPartial
	}
}

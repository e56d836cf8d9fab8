package ai

import (
	"fmt"
	"strings"

	"github.com/stemsi/exstem-grading/internal/model"
)

func questionTypeText(t model.QuestionType) string {
	switch t {
	case model.QuestionTypeChoice:
		return "multiple choice"
	case model.QuestionTypeJudge:
		return "true/false"
	case model.QuestionTypeText:
		return "short answer"
	default:
		return "unknown"
	}
}

func buildGradingPrompt(q model.Question, answer string, maxScore int) string {
	var b strings.Builder
	b.WriteString("You are a professional exam grader. Grade the following answer.\n\n")

	b.WriteString("[Question]\n")
	fmt.Fprintf(&b, "Type: %s\n", questionTypeText(q.Type))
	fmt.Fprintf(&b, "Question: %s\n", q.Title)
	fmt.Fprintf(&b, "Reference answer: %s\n", q.Answer)
	fmt.Fprintf(&b, "Full marks: %d\n\n", maxScore)

	b.WriteString("[Student answer]\n")
	if strings.TrimSpace(answer) == "" {
		b.WriteString("(no answer)\n\n")
	} else {
		b.WriteString(answer)
		b.WriteString("\n\n")
	}

	b.WriteString("[Rubric]\n")
	b.WriteString("- Grade on accuracy, completeness and reasoning.\n")
	b.WriteString("- Key points correct and complete: full marks (80-100%).\n")
	b.WriteString("- Essentially correct but incomplete: 60-80% of full marks.\n")
	b.WriteString("- Partially correct: 30-60% of full marks.\n")
	b.WriteString("- Wrong or blank: 0.\n")

	b.WriteString("\nReply only with JSON in this shape:\n")
	b.WriteString("{\n")
	b.WriteString("  \"score\": <integer score>,\n")
	b.WriteString("  \"feedback\": \"<specific feedback, at most 50 words>\",\n")
	b.WriteString("  \"reason\": \"<why points were given or deducted, at most 30 words>\"\n")
	b.WriteString("}")
	return b.String()
}

func buildSummaryPrompt(totalScore, maxScore, questionCount, correctCount int) string {
	var b strings.Builder
	b.WriteString("You are an experienced educator. Write a professional overall evaluation of this exam result with study advice.\n\n")

	b.WriteString("[Result]\n")
	fmt.Fprintf(&b, "Total score: %d/%d\n", totalScore, maxScore)
	fmt.Fprintf(&b, "Score rate: %.1f%%\n", percentage(totalScore, maxScore))
	fmt.Fprintf(&b, "Questions: %d\n", questionCount)
	fmt.Fprintf(&b, "Answered correctly: %d\n\n", correctCount)

	b.WriteString("[Requirements]\n")
	b.WriteString("Write about 150 words covering:\n")
	b.WriteString("1. An objective assessment of the performance\n")
	b.WriteString("2. Strengths and weaknesses\n")
	b.WriteString("3. Concrete study advice\n")
	b.WriteString("4. Encouragement\n\n")

	b.WriteString("Reply with the evaluation text only, no formatting.")
	return b.String()
}

func percentage(score, max int) float64 {
	if max <= 0 {
		return 0
	}
	return float64(score) / float64(max) * 100
}

package ai

import (
	"encoding/json"
	"testing"

	"github.com/stemsi/exstem-grading/internal/apperror"
	"github.com/stemsi/exstem-grading/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScore(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{raw: `8`, want: 8},
		{raw: `0`, want: 0},
		{raw: `7.6`, want: 8},
		{raw: `"5"`, want: 5},
		{raw: `" 3 "`, want: 3},
		{raw: `null`, wantErr: true},
		{raw: ``, wantErr: true},
		{raw: `"eight"`, wantErr: true},
		{raw: `true`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseScore(json.RawMessage(tt.raw))
			if tt.wantErr {
				assert.ErrorIs(t, err, apperror.ErrMalformedResponse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"score":1}`, extractJSON("```json\n{\"score\":1}\n```"))
	assert.Equal(t, `{"a":{"b":2}}`, extractJSON(`Result: {"a":{"b":2}} done`))
	assert.Equal(t, "no braces", extractJSON("  no braces  "))
}

func TestBuildGradingPrompt(t *testing.T) {
	q := model.Question{Type: model.QuestionTypeText, Title: "What is a goroutine?", Answer: "a lightweight thread"}

	p := buildGradingPrompt(q, "a thread", 6)
	assert.Contains(t, p, "What is a goroutine?")
	assert.Contains(t, p, "a lightweight thread")
	assert.Contains(t, p, "a thread")
	assert.Contains(t, p, "Full marks: 6")
	assert.Contains(t, p, "60-80%")
	assert.Contains(t, p, "30-60%")

	blank := buildGradingPrompt(q, "   ", 6)
	assert.Contains(t, blank, "(no answer)")
}

func TestBuildSummaryPrompt_ZeroMax(t *testing.T) {
	p := buildSummaryPrompt(0, 0, 0, 0)
	assert.Contains(t, p, "0/0")
	assert.Contains(t, p, "0.0%")
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("AI_MAX_ATTEMPTS", "")
	t.Setenv("AI_RETRY_DELAY_MS", "")
	t.Setenv("GRADING_SUMMARY_STRICT", "")
	t.Setenv("BACKGROUND_TASK_TIMEOUT_SECONDS", "")

	cfg := Load()

	assert.Equal(t, 3, cfg.AI.MaxAttempts)
	assert.Equal(t, time.Second, cfg.AI.RetryDelay)
	assert.Equal(t, 4096, cfg.AI.MaxTokens)
	assert.False(t, cfg.Grading.SummaryStrict)
	assert.Equal(t, 10*time.Second, cfg.BackgroundTaskTimeout)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("AI_MAX_ATTEMPTS", "5")
	t.Setenv("AI_TEMPERATURE", "0.7")
	t.Setenv("GRADING_SUMMARY_STRICT", "true")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg := Load()

	assert.Equal(t, 5, cfg.AI.MaxAttempts)
	assert.InDelta(t, 0.7, cfg.AI.Temperature, 0.0001)
	assert.True(t, cfg.Grading.SummaryStrict)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("MAX_DB_CONNS", "many")
	t.Setenv("GRADING_SUMMARY_STRICT", "sometimes")

	cfg := Load()

	assert.Equal(t, int32(16), cfg.MaxDBConns)
	assert.False(t, cfg.Grading.SummaryStrict)
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "paper:7:payload", CacheKey.PaperPayloadKey(7))
	assert.Equal(t, "ranking:v3:paper:0:limit:10", CacheKey.RankingKey(3, 0, 10))
}

package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-grading/internal/apperror"
	"github.com/stemsi/exstem-grading/internal/config"
	"github.com/stemsi/exstem-grading/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completion(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id":      "cmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "test-model",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]string{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
	})
	return string(b)
}

type reply struct {
	status int
	body   string
}

// fakeEndpoint serves replies in order and repeats the last one.
type fakeEndpoint struct {
	replies []reply
	hits    atomic.Int32
	last    atomic.Value
}

func (f *fakeEndpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n := int(f.hits.Add(1)) - 1
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	f.last.Store(body)

	rep := f.replies[len(f.replies)-1]
	if n < len(f.replies) {
		rep = f.replies[n]
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rep.status)
	fmt.Fprint(w, rep.body)
}

func newTestClient(t *testing.T, replies ...reply) (*Client, *fakeEndpoint, *[]time.Duration) {
	t.Helper()
	ep := &fakeEndpoint{replies: replies}
	srv := httptest.NewServer(ep)
	t.Cleanup(srv.Close)

	c := New(config.AIConfig{
		BaseURL:     srv.URL,
		APIKey:      "test-key",
		Model:       "test-model",
		Temperature: 0.3,
		MaxTokens:   512,
		MaxAttempts: 3,
		RetryDelay:  time.Second,
		CallTimeout: 5 * time.Second,
	}, zerolog.Nop())

	waits := &[]time.Duration{}
	c.wait = func(ctx context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return ctx.Err()
	}
	return c, ep, waits
}

func TestCall_Success(t *testing.T) {
	c, ep, waits := newTestClient(t, reply{http.StatusOK, completion("  hello  ")})

	text, err := c.Call(context.Background(), "say hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
	assert.EqualValues(t, 1, ep.hits.Load())
	assert.Empty(t, *waits)

	body := ep.last.Load().(map[string]any)
	assert.Equal(t, "test-model", body["model"])
	assert.InDelta(t, 0.3, body["temperature"], 0.0001)
	assert.EqualValues(t, 512, body["max_tokens"])
	msgs := body["messages"].([]any)
	require.Len(t, msgs, 1)
	assert.Equal(t, "user", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "say hello", msgs[0].(map[string]any)["content"])
}

func TestCall_RecoversOnThirdAttempt(t *testing.T) {
	c, ep, waits := newTestClient(t,
		reply{http.StatusInternalServerError, `oops`},
		reply{http.StatusBadGateway, `{"error":{"message":"upstream down"}}`},
		reply{http.StatusOK, completion("finally")},
	)

	text, err := c.Call(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "finally", text)
	assert.EqualValues(t, 3, ep.hits.Load())
	assert.Equal(t, []time.Duration{time.Second, time.Second}, *waits)
}

func TestCall_GivesUpAfterThreeAttempts(t *testing.T) {
	c, ep, waits := newTestClient(t, reply{http.StatusInternalServerError, `{"error":{"message":"boom"}}`})

	_, err := c.Call(context.Background(), "p")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrGradingServiceUnavailable))
	assert.EqualValues(t, 3, ep.hits.Load())
	assert.Len(t, *waits, 2)
}

func TestCall_ErrorEnvelopeWithOKStatus(t *testing.T) {
	c, ep, _ := newTestClient(t, reply{http.StatusOK, `{"error":{"message":"content filtered","type":"content_filter"}}`})

	_, err := c.Call(context.Background(), "p")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrGradingServiceUnavailable))
	assert.Contains(t, err.Error(), "content filtered")
	assert.EqualValues(t, 3, ep.hits.Load())
}

func TestCall_EmptyChoicesIsRetried(t *testing.T) {
	c, ep, _ := newTestClient(t,
		reply{http.StatusOK, `{"id":"x","object":"chat.completion","choices":[]}`},
		reply{http.StatusOK, completion("")},
		reply{http.StatusOK, completion("ok")},
	)

	text, err := c.Call(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.EqualValues(t, 3, ep.hits.Load())
}

func TestCall_UnauthorizedIsNotRetried(t *testing.T) {
	c, ep, waits := newTestClient(t, reply{http.StatusUnauthorized, `{"error":{"message":"invalid api key","type":"invalid_request_error"}}`})

	_, err := c.Call(context.Background(), "p")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrGradingServiceUnavailable))
	assert.EqualValues(t, 1, ep.hits.Load())
	assert.Empty(t, *waits)
}

func TestCall_CancelledDuringBackoff(t *testing.T) {
	c, ep, _ := newTestClient(t, reply{http.StatusInternalServerError, `boom`})
	ctx, cancel := context.WithCancel(context.Background())
	c.wait = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	_, err := c.Call(ctx, "p")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrGradingServiceUnavailable))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.EqualValues(t, 1, ep.hits.Load())
}

func TestSleepCtx(t *testing.T) {
	assert.NoError(t, sleepCtx(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepCtx(ctx, time.Hour), context.Canceled)
}

func TestGradeSubjective_FencedReply(t *testing.T) {
	c, _, _ := newTestClient(t, reply{http.StatusOK, completion("```json\n{\"score\": 7, \"feedback\": \"mostly right\", \"reason\": \"missed one point\"}\n```")})

	q := model.Question{ID: 1, Type: model.QuestionTypeText, Title: "Explain TCP", Answer: "reliable stream", Weight: 10}
	g, err := c.GradeSubjective(context.Background(), q, "it is reliable", 10)
	require.NoError(t, err)
	assert.Equal(t, SubjectiveGrade{Score: 7, Feedback: "mostly right", Reason: "missed one point"}, g)
}

func TestGradeSubjective_RetriesMalformedReply(t *testing.T) {
	c, ep, waits := newTestClient(t,
		reply{http.StatusOK, completion("I think this deserves a good grade")},
		reply{http.StatusOK, completion(`{"score": 4, "feedback": "ok"}`)},
	)

	g, err := c.GradeSubjective(context.Background(), model.Question{Type: model.QuestionTypeText}, "x", 5)
	require.NoError(t, err)
	assert.Equal(t, 4, g.Score)
	assert.EqualValues(t, 2, ep.hits.Load())
	assert.Len(t, *waits, 1)
}

func TestGradeSubjective_MissingScore(t *testing.T) {
	c, ep, _ := newTestClient(t, reply{http.StatusOK, completion(`{"feedback": "no score here"}`)})

	_, err := c.GradeSubjective(context.Background(), model.Question{Type: model.QuestionTypeText}, "x", 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrGradingServiceUnavailable))
	assert.True(t, errors.Is(err, apperror.ErrMalformedResponse))
	assert.EqualValues(t, 3, ep.hits.Load())
}

func TestSummarize(t *testing.T) {
	c, ep, _ := newTestClient(t, reply{http.StatusOK, completion("Solid work overall.")})

	text, err := c.Summarize(context.Background(), 8, 10, 4, 3)
	require.NoError(t, err)
	assert.Equal(t, "Solid work overall.", text)

	body := ep.last.Load().(map[string]any)
	prompt := body["messages"].([]any)[0].(map[string]any)["content"].(string)
	assert.Contains(t, prompt, "8/10")
	assert.Contains(t, prompt, "80.0%")
	assert.Contains(t, prompt, "150 words")
}

// Package ai talks to an OpenAI-compatible chat-completion endpoint to grade
// free-text answers and to write session summaries.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stemsi/exstem-grading/internal/apperror"
	"github.com/stemsi/exstem-grading/internal/config"
	"github.com/stemsi/exstem-grading/internal/metrics"
)

// Client sends prompts with a bounded retry policy.
type Client struct {
	api         *openai.Client
	model       string
	temperature float32
	maxTokens   int
	maxAttempts int
	retryDelay  time.Duration
	callTimeout time.Duration
	wait        func(ctx context.Context, d time.Duration) error
	log         zerolog.Logger
}

// New creates a Client for cfg.
func New(cfg config.AIConfig, log zerolog.Logger) *Client {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	apiCfg.HTTPClient = &http.Client{
		Transport: errorEnvelopeTransport{base: http.DefaultTransport},
	}

	c := &Client{
		api:         openai.NewClientWithConfig(apiCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		maxAttempts: cfg.MaxAttempts,
		retryDelay:  cfg.RetryDelay,
		callTimeout: cfg.CallTimeout,
		wait:        sleepCtx,
		log:         log.With().Str("component", "ai_client").Logger(),
	}
	if c.maxAttempts < 1 {
		c.maxAttempts = 1
	}
	return c
}

type outcomeKind int

const (
	outcomeOK outcomeKind = iota
	outcomeRetryable
	outcomeFatal
)

func (k outcomeKind) String() string {
	switch k {
	case outcomeOK:
		return "ok"
	case outcomeRetryable:
		return "retryable"
	default:
		return "fatal"
	}
}

// outcome is the tagged result of one attempt.
type outcome struct {
	kind   outcomeKind
	text   string
	reason error
}

func succeeded(text string) outcome { return outcome{kind: outcomeOK, text: text} }
func retryable(err error) outcome   { return outcome{kind: outcomeRetryable, reason: err} }
func fatal(err error) outcome       { return outcome{kind: outcomeFatal, reason: err} }

// Call sends prompt as a single user message and returns the reply text.
// After the last failed attempt it returns an error wrapping
// apperror.ErrGradingServiceUnavailable.
func (c *Client) Call(ctx context.Context, prompt string) (string, error) {
	return c.call(ctx, prompt, nil)
}

// call runs up to maxAttempts attempts with a fixed delay between them. When
// parse is set, a reply it rejects counts as a failed attempt.
func (c *Client) call(ctx context.Context, prompt string, parse func(string) error) (string, error) {
	var last error
	for i := 1; i <= c.maxAttempts; i++ {
		res := c.attempt(ctx, prompt)
		if res.kind == outcomeOK && parse != nil {
			if err := parse(res.text); err != nil {
				res = retryable(err)
			}
		}
		metrics.AICallAttempts.WithLabelValues(res.kind.String()).Inc()

		switch res.kind {
		case outcomeOK:
			return res.text, nil
		case outcomeFatal:
			c.log.Error().Err(res.reason).Int("attempt", i).Msg("AI call failed, not retrying")
			return "", fmt.Errorf("%w: %w", apperror.ErrGradingServiceUnavailable, res.reason)
		}

		last = res.reason
		c.log.Warn().Err(res.reason).Int("attempt", i).Int("max_attempts", c.maxAttempts).Msg("AI call attempt failed")
		if i == c.maxAttempts {
			break
		}
		if err := c.wait(ctx, c.retryDelay); err != nil {
			return "", fmt.Errorf("%w: %w", apperror.ErrGradingServiceUnavailable, err)
		}
	}
	return "", fmt.Errorf("%w after %d attempts: %w", apperror.ErrGradingServiceUnavailable, c.maxAttempts, last)
}

func (c *Client) attempt(ctx context.Context, prompt string) outcome {
	if err := ctx.Err(); err != nil {
		return fatal(err)
	}

	callCtx := ctx
	if c.callTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	metrics.AICallDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return classify(ctx, err)
	}

	if len(resp.Choices) == 0 {
		return retryable(fmt.Errorf("%w: response has no choices", apperror.ErrMalformedResponse))
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return retryable(fmt.Errorf("%w: empty content", apperror.ErrMalformedResponse))
	}
	return succeeded(content)
}

// classify decides whether a failed request is worth repeating. Only a
// cancelled caller and rejected credentials stop the retry loop early.
func classify(ctx context.Context, err error) outcome {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fatal(ctxErr)
	}
	switch statusCode(err) {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fatal(fmt.Errorf("chat completion rejected: %w", err))
	}
	return retryable(fmt.Errorf("chat completion: %w", err))
}

func statusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// errorEnvelopeTransport turns a 2xx reply whose body carries a top-level
// "error" object into a 502, so the SDK reports it as an API error. Some
// OpenAI-compatible providers answer content-filter rejections this way.
type errorEnvelopeTransport struct {
	base http.RoundTripper
}

func (t errorEnvelopeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil || resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, err
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if json.Unmarshal(body, &envelope) == nil && len(envelope.Error) > 0 && string(envelope.Error) != "null" {
		resp.StatusCode = http.StatusBadGateway
		resp.Status = "502 Bad Gateway"
	}
	return resp, nil
}

// Package safellm wraps every structured LLM invocation in the reasoning
// core with the Safe LLM Call contract: a bounded timeout,
// tolerant JSON extraction, schema validation, and exponential-backoff
// retry, collapsing to a single typed result or a terminal failure.
package safellm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/reasoncore/internal/domain"
	"github.com/hyperifyio/reasoncore/internal/jsonrepair"
	"github.com/hyperifyio/reasoncore/internal/llmclient"
)

// Validator is implemented by a decoded response type that can assert its
// own structural invariants beyond what json.Unmarshal checks (required
// fields, enum membership). Types that have nothing extra to check can
// leave Validate a no-op.
type Validator interface {
	Validate() error
}

// ResponseCache lets a Safe LLM Call skip the network entirely when an
// identical (model, system prompt, user prompt) triple already produced a
// validated result. Implementations should treat Set as best-effort.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, data []byte)
}

// Request describes one Safe LLM Call.
type Request struct {
	Client       llmclient.Client
	Model        string
	SystemPrompt string
	UserPrompt   string
	Temperature  float32

	// Timeout bounds a single attempt, including network round-trip.
	Timeout time.Duration
	// MaxAttempts bounds the total number of tries (>= 1).
	MaxAttempts int
	// BaseBackoff is the unit for the exponential backoff schedule: attempt
	// N sleeps BaseBackoff * 2^(N-1) before retrying.
	BaseBackoff time.Duration

	// Cache, when set, is consulted before the attempt loop and populated
	// after a successful, validated attempt. Nil disables caching.
	Cache ResponseCache
}

// cacheKey derives the cache key from the request's model, system prompt,
// and user prompt as a single digest.
func cacheKey(req Request) string {
	sum := sha256.Sum256([]byte(req.Model + "\x00" + req.SystemPrompt + "\x00" + req.UserPrompt))
	return hex.EncodeToString(sum[:])
}

func (r Request) timeout() time.Duration {
	if r.Timeout > 0 {
		return r.Timeout
	}
	return 30 * time.Second
}

func (r Request) maxAttempts() int {
	if r.MaxAttempts > 0 {
		return r.MaxAttempts
	}
	return 3
}

func (r Request) baseBackoff() time.Duration {
	if r.BaseBackoff > 0 {
		return r.BaseBackoff
	}
	return 1 * time.Second
}

// Call performs a Safe LLM Call expecting a JSON object that unmarshals
// into T, validating it (if T implements Validator) before returning it.
// On exhaustion of all attempts it returns a *domain.SessionError carrying
// the most specific applicable code: ErrLLMTimeout if any attempt
// timed out, ErrLLMValidationExhausted if responses parsed but never
// validated, or ErrLLMTransport otherwise.
func Call[T any](ctx context.Context, req Request) (T, error) {
	var zero T

	var key string
	if req.Cache != nil {
		key = cacheKey(req)
		if data, ok := req.Cache.Get(ctx, key); ok {
			var cached T
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
		}
	}

	var lastErr error
	sawValidJSONEver := false
	sawTimeout := false

	for attempt := 1; attempt <= req.maxAttempts(); attempt++ {
		result, err := attemptOnce[T](ctx, req)
		if err == nil {
			if req.Cache != nil {
				if data, merr := json.Marshal(result); merr == nil {
					req.Cache.Set(ctx, key, data)
				}
			}
			return result, nil
		}

		lastErr = err
		if ae, ok := err.(*attemptError); ok {
			sawTimeout = sawTimeout || ae.timedOut
			sawValidJSONEver = sawValidJSONEver || ae.parsedButInvalid
		}

		if attempt == req.maxAttempts() {
			break
		}
		if ctx.Err() != nil {
			lastErr = ctx.Err()
			break
		}

		sleep := req.baseBackoff() * time.Duration(1<<uint(attempt-1))
		select {
		case <-time.After(sleep):
		case <-ctx.Done():
			lastErr = ctx.Err()
			attempt = req.maxAttempts()
		}
	}

	code := domain.ErrLLMTransport
	switch {
	case sawTimeout:
		code = domain.ErrLLMTimeout
	case sawValidJSONEver:
		code = domain.ErrLLMValidationExhausted
	}
	return zero, domain.NewSessionError(code, "safe LLM call exhausted all attempts", lastErr)
}

type attemptError struct {
	timedOut         bool
	parsedButInvalid bool
	inner            error
}

func (e *attemptError) Error() string { return e.inner.Error() }
func (e *attemptError) Unwrap() error { return e.inner }

func attemptOnce[T any](ctx context.Context, req Request) (T, error) {
	var zero T

	attemptCtx, cancel := context.WithTimeout(ctx, req.timeout())
	defer cancel()

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: req.UserPrompt},
	}

	resp, err := req.Client.CreateChatCompletion(attemptCtx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: req.Temperature,
	})
	if err != nil {
		timedOut := attemptCtx.Err() == context.DeadlineExceeded
		return zero, &attemptError{timedOut: timedOut, inner: fmt.Errorf("chat completion: %w", err)}
	}
	if len(resp.Choices) == 0 {
		return zero, &attemptError{inner: fmt.Errorf("chat completion: empty choices")}
	}

	raw := resp.Choices[0].Message.Content
	repaired, err := jsonrepair.Extract(raw)
	if err != nil {
		return zero, &attemptError{inner: fmt.Errorf("json repair: %w", err)}
	}

	var result T
	if err := json.Unmarshal(repaired, &result); err != nil {
		return zero, &attemptError{parsedButInvalid: true, inner: fmt.Errorf("unmarshal: %w", err)}
	}

	if v, ok := any(result).(Validator); ok {
		if err := v.Validate(); err != nil {
			return zero, &attemptError{parsedButInvalid: true, inner: fmt.Errorf("validate: %w", err)}
		}
	}

	return result, nil
}

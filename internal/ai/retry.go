package ai

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"people-search-platform/internal/logger"
)

// Policy describes the shared backoff schedule for external model calls.
// Next is a pure function of the attempt count so the curve can be tested
// without any network in the loop; jitter is applied separately when
// sleeping.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  int
	MaxExponent int
	JitterBound time.Duration
}

// DefaultPolicy is the contract both Embed and Generate run under:
// at most 5 attempts, delays of 200ms * 2^min(n-1,5) plus up to 150ms of
// uniform jitter.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 5,
		BaseDelay:   200 * time.Millisecond,
		Multiplier:  2,
		MaxExponent: 5,
		JitterBound: 150 * time.Millisecond,
	}
}

// Next returns the jitter-free delay to wait after failed attempt n before
// attempt n+1, or ok=false when the policy is exhausted and the caller must
// surface a terminal error.
func (p Policy) Next(attempt int) (time.Duration, bool) {
	if attempt < 1 || attempt >= p.MaxAttempts {
		return 0, false
	}
	exp := attempt - 1
	if exp > p.MaxExponent {
		exp = p.MaxExponent
	}
	delay := p.BaseDelay
	for i := 0; i < exp; i++ {
		delay *= time.Duration(p.Multiplier)
	}
	return delay, true
}

func (p Policy) jitter() time.Duration {
	if p.JitterBound <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(p.JitterBound)))
}

// withRetry runs call under the policy. 429 and 5xx responses and transport
// errors are retried; other upstream statuses and decode failures surface
// immediately. Every failed attempt is logged before sleeping.
func (p Policy) withRetry(ctx context.Context, operation string, call func() error) error {
	var lastErr error
	for attempt := 1; ; attempt++ {
		lastErr = call()
		if lastErr == nil {
			return nil
		}

		var apiErr *APIError
		if errors.As(lastErr, &apiErr) && !apiErr.Retryable() {
			return lastErr
		}
		var decErr *DecodeError
		if errors.As(lastErr, &decErr) {
			return lastErr
		}

		delay, ok := p.Next(attempt)
		if !ok {
			return fmt.Errorf("%s: exhausted %d attempts: %w", operation, attempt, lastErr)
		}

		status := 0
		if apiErr != nil {
			status = apiErr.StatusCode
		}
		logger.Warn("external call failed, backing off",
			"operation", operation,
			"attempt", attempt,
			"status", status,
			"correlationId", CorrelationID(ctx),
			"error", lastErr.Error(),
		)

		timer := time.NewTimer(delay + p.jitter())
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

type ctxKey int

const correlationKey ctxKey = 0

// WithCorrelationID tags the context so outbound calls and retry logs carry
// the originating request id.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationKey, id)
}

// CorrelationID returns the request id attached to the context, if any.
func CorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationKey).(string); ok {
		return id
	}
	return ""
}

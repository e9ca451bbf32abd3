// Package retry implements the exponential-backoff-with-jitter loop used by
// every outbound call to an external collaborator (document store, LLM,
// credential backend, publishing provider). The shape is the same one
// server/cursor/client.go's doRequest uses for the Cursor API, generalized
// to a classifier function instead of a hardcoded status-code check.
package retry

import (
	"context"
	"math/rand"
	"time"
)

// Policy configures the backoff loop. Zero Policy{} is not valid; use
// Default().
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Factor       float64
	JitterFrac   float64 // e.g. 0.25 for +/-25%
}

// Default returns the policy named in SPEC_FULL.md §4.2/§4.6: 3 attempts,
// 2s initial delay, factor 2, +/-25% jitter.
func Default() Policy {
	return Policy{
		MaxAttempts:  3,
		InitialDelay: 2 * time.Second,
		Factor:       2,
		JitterFrac:   0.25,
	}
}

// Classification tells Do whether an error is worth retrying.
type Classification int

const (
	// Permanent means do not retry; return the error immediately.
	Permanent Classification = iota
	// Retryable means retry if attempts remain.
	Retryable
)

// Classifier inspects an error returned by fn and decides whether to retry.
type Classifier func(error) Classification

// Do runs fn up to p.MaxAttempts times, sleeping an exponentially growing,
// jittered delay between attempts, until fn returns nil or classify marks
// the error Permanent. The last error is returned if attempts are exhausted.
func Do(ctx context.Context, p Policy, classify Classifier, fn func(ctx context.Context, attempt int) error) error {
	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := p.delay(attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		lastErr = fn(ctx, attempt)
		if lastErr == nil {
			return nil
		}
		if classify(lastErr) == Permanent {
			return lastErr
		}
	}
	return lastErr
}

// delay computes the backoff for the given 1-indexed retry attempt
// (attempt 1 is the first retry, after the initial try at attempt 0).
func (p Policy) delay(attempt int) time.Duration {
	base := float64(p.InitialDelay) * pow(p.Factor, float64(attempt-1))
	if p.JitterFrac > 0 {
		jitter := base * p.JitterFrac
		base += (rand.Float64()*2 - 1) * jitter
	}
	if base < 0 {
		base = 0
	}
	return time.Duration(base)
}

func pow(base, exp float64) float64 {
	result := 1.0
	for i := 0; i < int(exp); i++ {
		result *= base
	}
	return result
}

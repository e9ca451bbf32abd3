package models

import "github.com/pkg/errors"

// The seven error kinds named in SPEC_FULL.md §7. Components wrap one of
// these with errors.Wrap so callers can classify failures with errors.Is
// without parsing message text.
var (
	// ErrTransientExternal covers retryable failures in an external
	// collaborator: timeouts, 5xx, connection resets.
	ErrTransientExternal = errors.New("transient external failure")

	// ErrInvalidUpstreamData covers a document store or LLM response that
	// parses but violates a documented shape invariant.
	ErrInvalidUpstreamData = errors.New("invalid upstream data")

	// ErrInvariantViolation covers an internal state-machine or data
	// invariant broken by our own code path, not an upstream.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrCostCapExceeded is raised by the optimization/publish cost guard
	// when a configured per-article or per-run budget would be exceeded.
	ErrCostCapExceeded = errors.New("cost cap exceeded")

	// ErrOperatorAction covers a request that is well-formed but requires
	// an operator decision that hasn't been made yet (e.g. publish before
	// parsing_review confirmation).
	ErrOperatorAction = errors.New("operator action required")

	// ErrCredentialUnavailable covers vault lookups that fail: missing key,
	// backend unreachable, or TTL-cache entry expired with no refresh.
	ErrCredentialUnavailable = errors.New("credential unavailable")

	// ErrStaleState covers optimistic-concurrency failures: the caller's
	// view of a WorklistItem/Article was superseded by a concurrent update.
	ErrStaleState = errors.New("stale state")
)

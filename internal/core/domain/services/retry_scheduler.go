package services

import (
	"time"

	"orderflow/internal/pkg/errs"
)

const (
	// defaultBaseDelay is the delay before the first retry.
	defaultBaseDelay = 30 * time.Second
	// defaultMaxRetries is the retry budget for transient failures.
	defaultMaxRetries = 3
)

// RetryDecision is the outcome of scheduling one retry attempt: either retry
// after Delay, or give up.
type RetryDecision struct {
	Retry bool
	Delay time.Duration
}

// RetryScheduler computes backoff delays and the retry/give-up decision for
// transient infrastructure failures. It is a pure domain service: no clocks,
// no side effects, independently testable without the job queue.
//
// The delay for the zero-based attempt n is base·2^n (30s, 60s, 120s, … by
// default). Growth is uncapped unless a ceiling is configured: with a bounded
// retry budget the largest delay is base·2^(maxRetries-1), so a ceiling only
// matters for unusually large budgets.
type RetryScheduler struct {
	baseDelay  time.Duration
	maxRetries int
	maxDelay   time.Duration
}

// NewRetryScheduler creates a scheduler with the given base delay and retry
// budget. A maxDelay of 0 means no ceiling.
func NewRetryScheduler(baseDelay time.Duration, maxRetries int, maxDelay time.Duration) (RetryScheduler, error) {
	if baseDelay <= 0 {
		return RetryScheduler{}, errs.NewValueIsInvalidError("baseDelay")
	}
	if maxRetries < 0 {
		return RetryScheduler{}, errs.NewValueIsInvalidError("maxRetries")
	}
	if maxDelay < 0 {
		return RetryScheduler{}, errs.NewValueIsInvalidError("maxDelay")
	}

	return RetryScheduler{
		baseDelay:  baseDelay,
		maxRetries: maxRetries,
		maxDelay:   maxDelay,
	}, nil
}

// DefaultRetryScheduler returns the scheduler used in production: 30s base
// delay, 3 retries, no ceiling.
func DefaultRetryScheduler() RetryScheduler {
	return RetryScheduler{
		baseDelay:  defaultBaseDelay,
		maxRetries: defaultMaxRetries,
	}
}

// MaxRetries returns the retry budget.
func (s RetryScheduler) MaxRetries() int {
	return s.maxRetries
}

// Schedule decides the fate of the zero-based attempt n: retry with an
// exponentially growing delay while n < maxRetries, give up otherwise.
func (s RetryScheduler) Schedule(attempt int) RetryDecision {
	if attempt < 0 || attempt >= s.maxRetries {
		return RetryDecision{}
	}

	delay := s.baseDelay << uint(attempt) //nolint:gosec // attempt is bounded by maxRetries
	if s.maxDelay > 0 && delay > s.maxDelay {
		delay = s.maxDelay
	}

	return RetryDecision{Retry: true, Delay: delay}
}

package retry

import (
	"context"
	"math/rand"
	"time"
)

// Schedule yields the pause before the next attempt. Attempt numbering
// starts at 1 for the first retry.
type Schedule interface {
	Next(attempt int) time.Duration
}

// ConstantSchedule waits the same interval before every retry.
type ConstantSchedule time.Duration

// Next implements Schedule.
func (s ConstantSchedule) Next(int) time.Duration { return time.Duration(s) }

// RandomExponentialSchedule waits a random interval that doubles its
// upper bound per attempt, clamped to [Min, Max]. Matches the pacing used
// for remote store calls: jittered, bounded, slow enough to respect the
// collaborator's rate ceiling.
type RandomExponentialSchedule struct {
	Min time.Duration
	Max time.Duration
}

// Next implements Schedule.
func (s RandomExponentialSchedule) Next(attempt int) time.Duration {
	upper := s.Min << uint(attempt-1)
	if upper > s.Max || upper <= 0 {
		upper = s.Max
	}
	if upper <= s.Min {
		return s.Min
	}
	return s.Min + time.Duration(rand.Int63n(int64(upper-s.Min)))
}

// DefaultRemoteSchedule paces retried remote store calls.
var DefaultRemoteSchedule = RandomExponentialSchedule{Min: 4 * time.Second, Max: 10 * time.Second}

// DoWithBackoff runs op until it succeeds, the error is not retryable,
// the attempt budget is spent, or the context ends. It is the composable
// wrapper for remote I/O retries; it is deliberately separate from Run,
// which owns content-validation retries only.
func DoWithBackoff[T any](ctx context.Context, op func(context.Context) (T, error), maxAttempts int, schedule Schedule, retryable func(error) bool) (T, error) {
	var zero T
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(schedule.Next(attempt - 1)):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		if !retryable(err) {
			return zero, err
		}
		lastErr = err
	}
	return zero, &BudgetExceededError{Attempts: maxAttempts, LastFailure: lastErr}
}

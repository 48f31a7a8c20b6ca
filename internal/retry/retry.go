// Package retry drives the generate-validate loop. Generation is
// non-deterministic, so failed validation is a signal to try again, not
// an error to surface; only exhaustion, cancellation and transport-level
// problems escape to the caller.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"blogsmith/internal/contract"
	"blogsmith/internal/core"
)

// DefaultMaxAttempts bounds the loop when the caller does not say otherwise.
const DefaultMaxAttempts = 3

// Generator produces raw model output for a request. The production
// implementation lives in internal/llm; tests substitute stubs.
type Generator interface {
	Generate(ctx context.Context, req core.GenerationRequest) (core.GenerationResult, error)
}

// Options tunes one run of the loop. A zero Options is valid.
type Options struct {
	MaxAttempts int           // Attempt budget; DefaultMaxAttempts when 0
	Delay       time.Duration // Optional pause between attempts
	Logger      *slog.Logger  // Destination for per-attempt diagnostics
}

// Outcome carries the result of a successful run: the raw accepted text,
// the validated field map, and the token usage of the accepted attempt.
type Outcome struct {
	Raw      string
	Content  core.ValidatedContent
	Usage    core.TokenUsage
	Attempts int
}

// BudgetExceededError is the terminal failure after the attempt budget is
// spent. LastFailure preserves the final retryable failure for diagnosis
// of prompt defects.
type BudgetExceededError struct {
	Attempts    int
	LastFailure error
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("retry budget of %d attempts exceeded: %v", e.Attempts, e.LastFailure)
}

func (e *BudgetExceededError) Unwrap() error { return e.LastFailure }

// ErrCancelled marks a run stopped by the caller's context between
// attempts, as opposed to running out of budget.
var ErrCancelled = errors.New("generation cancelled")

// Run invokes the generator up to the attempt budget, validating each
// result against the contract. Every generator or validation failure is
// retryable; success is terminal and returns the accepted attempt.
func Run(ctx context.Context, gen Generator, req core.GenerationRequest, c contract.Contract, opts Options) (Outcome, error) {
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	var lastFailure error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Outcome{}, fmt.Errorf("%w: %v", ErrCancelled, err)
		}
		if opts.Delay > 0 && attempt > 1 {
			select {
			case <-time.After(opts.Delay):
			case <-ctx.Done():
				return Outcome{}, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
			}
		}

		result, err := gen.Generate(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return Outcome{}, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
			}
			lastFailure = err
			log.Warn("generation failed", "contract", c.Name, "attempt", attempt, "max_attempts", maxAttempts, "error", err)
			continue
		}

		content, err := contract.Validate(result.RawText, c)
		if err != nil {
			lastFailure = err
			logValidationFailure(log, c.Name, attempt, maxAttempts, err)
			continue
		}

		return Outcome{
			Raw:      result.RawText,
			Content:  core.ValidatedContent(content),
			Usage:    result.Usage,
			Attempts: attempt,
		}, nil
	}

	return Outcome{}, &BudgetExceededError{Attempts: maxAttempts, LastFailure: lastFailure}
}

// logValidationFailure emits a distinct message per failure kind so prompt
// defects can be told apart in the logs.
func logValidationFailure(log *slog.Logger, name string, attempt, maxAttempts int, err error) {
	attrs := []any{"contract", name, "attempt", attempt, "max_attempts", maxAttempts}

	var malformed *contract.MalformedJSONError
	var missing *contract.MissingKeysError
	var mismatch *contract.KeyFamilyMismatchError
	var below *contract.BelowMinimumError
	var noHighlight *contract.HighlightMissingError
	var longHighlight *contract.HighlightTooLongError

	switch {
	case errors.As(err, &malformed):
		log.Warn("output is not valid JSON", append(attrs, "error", malformed.Err)...)
	case errors.As(err, &missing):
		log.Warn("output missing required keys", append(attrs, "keys", missing.Keys)...)
	case errors.As(err, &mismatch):
		log.Warn("key family counts differ", append(attrs, "titles", mismatch.Titles, "contents", mismatch.Contents)...)
	case errors.As(err, &below):
		log.Warn("key family below minimum", append(attrs, "count", below.Count, "minimum", below.Minimum)...)
	case errors.As(err, &noHighlight):
		log.Warn("product highlight missing or malformed", append(attrs, "field", noHighlight.Field, "markers", noHighlight.Markers)...)
	case errors.As(err, &longHighlight):
		log.Warn("product highlight spans too much of the field", append(attrs, "field", longHighlight.Field, "span_len", longHighlight.SpanLen, "field_len", longHighlight.FieldLen)...)
	default:
		log.Warn("validation failed", append(attrs, "error", err)...)
	}
}

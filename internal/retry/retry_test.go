package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"blogsmith/internal/contract"
	"blogsmith/internal/core"
)

// scriptedGenerator returns canned raw outputs in order, repeating the
// last one once the script runs out.
type scriptedGenerator struct {
	outputs []string
	errs    []error
	calls   int
}

func (g *scriptedGenerator) Generate(ctx context.Context, req core.GenerationRequest) (core.GenerationResult, error) {
	i := g.calls
	g.calls++
	if i >= len(g.outputs) {
		i = len(g.outputs) - 1
	}
	if i < len(g.errs) && g.errs[i] != nil {
		return core.GenerationResult{}, g.errs[i]
	}
	return core.GenerationResult{
		RawText: g.outputs[i],
		Usage:   core.TokenUsage{InputTokens: 10, OutputTokens: 20, TotalTokens: 30},
	}, nil
}

const validFeatures = `{"subheader_2": "s", "feature_1": "a", "content_1": "x"}`

func TestRunSucceedsOnThirdAttempt(t *testing.T) {
	gen := &scriptedGenerator{outputs: []string{"not json", `{"feature_1": "a"}`, validFeatures}}

	outcome, err := Run(context.Background(), gen, core.GenerationRequest{}, contract.FeatureList(1), Options{MaxAttempts: 3})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if outcome.Attempts != 3 {
		t.Errorf("expected success on attempt 3, got %d", outcome.Attempts)
	}
	if outcome.Content.Field("content_1") != "x" {
		t.Errorf("validated content lost content_1: %v", outcome.Content)
	}
	if outcome.Usage.TotalTokens != 30 {
		t.Errorf("usage not carried through: %+v", outcome.Usage)
	}
}

func TestRunExhaustsBudget(t *testing.T) {
	gen := &scriptedGenerator{outputs: []string{"not json", `{"feature_1": "a"}`, validFeatures}}

	_, err := Run(context.Background(), gen, core.GenerationRequest{}, contract.FeatureList(1), Options{MaxAttempts: 2})
	var exceeded *BudgetExceededError
	if !errors.As(err, &exceeded) {
		t.Fatalf("expected BudgetExceededError, got %v", err)
	}
	if exceeded.Attempts != 2 {
		t.Errorf("expected 2 attempts recorded, got %d", exceeded.Attempts)
	}
	var missing *contract.MissingKeysError
	if !errors.As(exceeded.LastFailure, &missing) {
		t.Errorf("expected last failure to be the missing-keys verdict, got %v", exceeded.LastFailure)
	}
}

func TestRunGeneratorErrorsAreRetryable(t *testing.T) {
	transport := fmt.Errorf("model endpoint unreachable")
	gen := &scriptedGenerator{
		outputs: []string{"", validFeatures},
		errs:    []error{transport, nil},
	}

	outcome, err := Run(context.Background(), gen, core.GenerationRequest{}, contract.FeatureList(1), Options{MaxAttempts: 3})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if outcome.Attempts != 2 {
		t.Errorf("expected recovery on attempt 2, got %d", outcome.Attempts)
	}
}

func TestRunCancelledBetweenAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen := &scriptedGenerator{outputs: []string{validFeatures}}
	_, err := Run(ctx, gen, core.GenerationRequest{}, contract.FeatureList(1), Options{MaxAttempts: 3})
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if gen.calls != 0 {
		t.Errorf("generator should not run after cancellation, got %d calls", gen.calls)
	}
}

func TestRunDelayBetweenAttempts(t *testing.T) {
	gen := &scriptedGenerator{outputs: []string{"bad", validFeatures}}

	start := time.Now()
	_, err := Run(context.Background(), gen, core.GenerationRequest{}, contract.FeatureList(1), Options{MaxAttempts: 2, Delay: 30 * time.Millisecond})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("expected at least one 30ms delay, elapsed %v", elapsed)
	}
}

func TestDoWithBackoffStopsOnNonRetryable(t *testing.T) {
	fatal := errors.New("bad credentials")
	calls := 0
	_, err := DoWithBackoff(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		return 0, fatal
	}, 5, ConstantSchedule(time.Millisecond), func(err error) bool { return !errors.Is(err, fatal) })

	if !errors.Is(err, fatal) {
		t.Fatalf("expected the fatal error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected a single attempt, got %d", calls)
	}
}

func TestDoWithBackoffRecovers(t *testing.T) {
	calls := 0
	result, err := DoWithBackoff(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	}, 5, ConstantSchedule(time.Millisecond), func(error) bool { return true })

	if err != nil || result != "ok" {
		t.Fatalf("expected recovery, got (%q, %v)", result, err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestRandomExponentialScheduleBounds(t *testing.T) {
	s := RandomExponentialSchedule{Min: 4 * time.Second, Max: 10 * time.Second}
	for attempt := 1; attempt <= 6; attempt++ {
		d := s.Next(attempt)
		if d < s.Min || d > s.Max {
			t.Errorf("attempt %d: %v outside [%v, %v]", attempt, d, s.Min, s.Max)
		}
	}
}

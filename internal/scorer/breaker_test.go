package scorer

import (
	"context"
	"errors"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
)

type flakyScorer struct {
	calls int
	err   error
}

func (f *flakyScorer) Name() string { return "flaky" }
func (f *flakyScorer) Close() error { return nil }
func (f *flakyScorer) Score(_ context.Context, rows [][]float64) ([]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return make([]float64, len(rows)), nil
}

func TestBreakerTrips(t *testing.T) {
	inner := &flakyScorer{err: errors.New("model crashed")}
	b := NewBreaker(inner, BreakerConfig{FailureThreshold: 2, Timeout: time.Hour})
	rows := [][]float64{{1}}

	for i := 0; i < 2; i++ {
		if _, err := b.Score(context.Background(), rows); err == nil {
			t.Fatal("expected model error")
		}
	}
	if b.State() != gobreaker.StateOpen {
		t.Fatalf("expected open breaker, got %v", b.State())
	}
	if _, err := b.Score(context.Background(), rows); !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("expected ErrOpenState, got %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("open breaker should not call model, calls=%d", inner.calls)
	}
}

func TestBreakerIgnoresCancellation(t *testing.T) {
	inner := &flakyScorer{err: context.Canceled}
	b := NewBreaker(inner, BreakerConfig{FailureThreshold: 1})
	for i := 0; i < 3; i++ {
		_, _ = b.Score(context.Background(), [][]float64{{1}})
	}
	if b.State() != gobreaker.StateClosed {
		t.Errorf("cancellation should not trip breaker, got %v", b.State())
	}
	if b.Name() != "flaky" {
		t.Errorf("unexpected name %q", b.Name())
	}
}

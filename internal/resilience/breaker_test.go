package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func failing(context.Context) error { return errBoom }
func succeeding(context.Context) error { return nil }

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	b := NewBreaker("catalog", 3, time.Minute)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := b.Do(ctx, failing); !errors.Is(err, errBoom) {
			t.Fatalf("attempt %d: expected boom, got %v", i, err)
		}
	}
	if err := b.Do(ctx, succeeding); !errors.Is(err, ErrOpenCircuit) {
		t.Fatalf("expected open circuit, got %v", err)
	}
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	b := NewBreaker("catalog", 1, time.Minute)
	now := time.Now()
	b.now = func() time.Time { return now }
	ctx := context.Background()

	if err := b.Do(ctx, failing); !errors.Is(err, errBoom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if err := b.Do(ctx, succeeding); !errors.Is(err, ErrOpenCircuit) {
		t.Fatalf("expected open circuit, got %v", err)
	}

	now = now.Add(2 * time.Minute)
	if err := b.Do(ctx, succeeding); err != nil {
		t.Fatalf("expected probe to pass, got %v", err)
	}
	if err := b.Do(ctx, succeeding); err != nil {
		t.Fatalf("expected closed breaker, got %v", err)
	}
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := NewBreaker("catalog", 1, time.Minute)
	now := time.Now()
	b.now = func() time.Time { return now }
	ctx := context.Background()

	_ = b.Do(ctx, failing)
	now = now.Add(2 * time.Minute)
	if err := b.Do(ctx, failing); !errors.Is(err, errBoom) {
		t.Fatalf("expected probe failure, got %v", err)
	}
	if err := b.Do(ctx, succeeding); !errors.Is(err, ErrOpenCircuit) {
		t.Fatalf("expected reopened circuit, got %v", err)
	}
}

func TestBreakerSuccessResetsFailures(t *testing.T) {
	b := NewBreaker("catalog", 2, time.Minute)
	ctx := context.Background()
	_ = b.Do(ctx, failing)
	_ = b.Do(ctx, succeeding)
	_ = b.Do(ctx, failing)
	if err := b.Do(ctx, succeeding); err != nil {
		t.Fatalf("breaker opened despite interleaved successes: %v", err)
	}
}

func TestNilBreakerRunsFn(t *testing.T) {
	var b *Breaker
	if err := b.Do(context.Background(), succeeding); err != nil {
		t.Fatalf("nil breaker must pass through, got %v", err)
	}
}

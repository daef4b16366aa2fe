package asyncx_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Abraxas-365/pagelift/pkg/asyncx"
)

func TestPoolKeepsOrderAndBoundsWorkers(t *testing.T) {
	var running, peak atomic.Int64
	items := []int{1, 2, 3, 4, 5, 6, 7, 8}

	out, err := asyncx.Pool(context.Background(), 3, items, func(_ context.Context, n int) (int, error) {
		cur := running.Add(1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		return n * 10, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, v := range out {
		if v != items[i]*10 {
			t.Fatalf("result %d out of order: %v", i, out)
		}
	}
	if peak.Load() > 3 {
		t.Fatalf("more than 3 workers ran at once: %d", peak.Load())
	}
}

func TestPoolStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int64

	_, err := asyncx.Pool(ctx, 1, []int{1, 2, 3, 4}, func(_ context.Context, n int) (int, error) {
		if calls.Add(1) == 2 {
			cancel()
		}
		return n, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected pool to stop after 2 calls, got %d", calls.Load())
	}
}

func TestRetryWithBackoff(t *testing.T) {
	calls := 0
	v, err := asyncx.RetryWithBackoff(context.Background(), 3, time.Millisecond, func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("flaky")
		}
		return "ok", nil
	})
	if err != nil || v != "ok" || calls != 3 {
		t.Fatalf("got %q %v after %d calls", v, err, calls)
	}

	boom := errors.New("boom")
	_, err = asyncx.RetryWithBackoff(context.Background(), 2, time.Millisecond, func(context.Context) (int, error) {
		return 0, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected last error, got %v", err)
	}
}

func TestWithTimeout(t *testing.T) {
	_, err := asyncx.WithTimeout(context.Background(), 10*time.Millisecond, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		time.Sleep(20 * time.Millisecond)
		return 1, nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	v, err := asyncx.WithTimeout(context.Background(), time.Second, func(context.Context) (int, error) {
		return 7, nil
	})
	if err != nil || v != 7 {
		t.Fatalf("got %d %v", v, err)
	}
}

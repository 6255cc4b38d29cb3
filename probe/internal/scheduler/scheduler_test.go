package scheduler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hazyhaar/streamprobe/probe/result"
	"github.com/hazyhaar/streamprobe/provider"
)

func targets(n int) []provider.Target {
	out := make([]provider.Target, n)
	for i := range out {
		name := fmt.Sprintf("P%d", i)
		out[i] = provider.NewTarget(name, func(provider.Media) string { return "https://" + name })
	}
	return out
}

// stepClock advances by step on every reading after the first.
type stepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
	n    int
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.n > 0 {
		c.now = c.now.Add(c.step)
	}
	c.n++
	return c.now
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func ok(_ context.Context, i int, t provider.Target) result.ProbeResult {
	r := result.New(i, t.Name, "")
	r.Apply(result.Classify(result.Sample{Ratio: 1, ActualSeconds: 120}))
	return r
}

func TestPartition(t *testing.T) {
	cases := []struct {
		n, size int
		want    [][2]int
	}{
		{5, 2, [][2]int{{0, 2}, {2, 4}, {4, 5}}},
		{4, 2, [][2]int{{0, 2}, {2, 4}}},
		{1, 3, [][2]int{{0, 1}}},
		{0, 2, nil},
		{3, 0, [][2]int{{0, 1}, {1, 2}, {2, 3}}},
	}
	for _, c := range cases {
		got := Partition(c.n, c.size)
		if fmt.Sprint(got) != fmt.Sprint(c.want) {
			t.Errorf("Partition(%d, %d) = %v, want %v", c.n, c.size, got, c.want)
		}
	}
}

func TestRun_BatchesOfTwo(t *testing.T) {
	var mu sync.Mutex
	var inFlight, maxInFlight int
	probe := func(ctx context.Context, i int, tg provider.Target) result.ProbeResult {
		mu.Lock()
		inFlight++
		maxInFlight = max(maxInFlight, inFlight)
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		inFlight--
		mu.Unlock()
		return ok(ctx, i, tg)
	}

	out := Run(context.Background(), targets(5), probe, Config{Concurrency: 2, Logger: quiet()})
	if out.Batches != 3 {
		t.Fatalf("batches = %d, want 3", out.Batches)
	}
	if maxInFlight > 2 {
		t.Fatalf("max in flight = %d", maxInFlight)
	}
	if len(out.Results) != 5 || out.Skipped != 0 || out.Truncated {
		t.Fatalf("outcome = %+v", out)
	}
	for i, r := range out.Results {
		if r.Index != i || r.TargetName != fmt.Sprintf("P%d", i) {
			t.Fatalf("result %d = %d %s", i, r.Index, r.TargetName)
		}
	}
}

func TestRun_BudgetStopsFurtherBatches(t *testing.T) {
	// Readings: start, after batch 1 (+6m), after batch 2 (+12m) > 10m.
	clock := &stepClock{now: time.Now(), step: 6 * time.Minute}
	var calls atomic.Int32
	probe := func(ctx context.Context, i int, tg provider.Target) result.ProbeResult {
		calls.Add(1)
		return ok(ctx, i, tg)
	}

	out := Run(context.Background(), targets(5), probe, Config{
		Concurrency: 2, Budget: 10 * time.Minute, Now: clock.Now, Logger: quiet(),
	})
	if len(out.Results) != 4 || calls.Load() != 4 {
		t.Fatalf("results = %d, calls = %d, want 4", len(out.Results), calls.Load())
	}
	if !out.Truncated || out.Skipped != 1 || out.Batches != 2 {
		t.Fatalf("outcome = %+v", out)
	}
}

func TestRun_BudgetEqualIsNotExceeded(t *testing.T) {
	clock := &stepClock{now: time.Now(), step: 5 * time.Minute}
	out := Run(context.Background(), targets(4), ok, Config{
		Concurrency: 2, Budget: 5 * time.Minute, Now: clock.Now, Logger: quiet(),
	})
	if len(out.Results) != 4 || out.Truncated {
		t.Fatalf("outcome = %+v", out)
	}
}

func TestRun_FailuresDoNotAbort(t *testing.T) {
	probe := func(ctx context.Context, i int, tg provider.Target) result.ProbeResult {
		r := result.New(i, tg.Name, "")
		if i%2 == 0 {
			r.Fail(result.StatusError, "boom")
			return r
		}
		r.Apply(result.ClassifyNoVideo())
		return r
	}
	out := Run(context.Background(), targets(6), probe, Config{Concurrency: 3, Logger: quiet()})
	if len(out.Results) != 6 {
		t.Fatalf("results = %d", len(out.Results))
	}
	for _, r := range out.Results {
		if !r.Status.Terminal() {
			t.Fatalf("%s ended %s", r.TargetName, r.Status)
		}
	}
}

func TestRun_OnResult(t *testing.T) {
	var seen atomic.Int32
	out := Run(context.Background(), targets(3), ok, Config{
		Concurrency: 2, Logger: quiet(),
		OnResult:    func(result.ProbeResult) { seen.Add(1) },
	})
	if seen.Load() != 3 || len(out.Results) != 3 {
		t.Fatalf("seen = %d", seen.Load())
	}
}

func TestRun_CancelStopsFurtherBatches(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	probe := func(c context.Context, i int, tg provider.Target) result.ProbeResult {
		if i == 1 {
			cancel()
		}
		return ok(c, i, tg)
	}
	out := Run(ctx, targets(5), probe, Config{Concurrency: 2, Logger: quiet()})
	if len(out.Results) != 2 || !out.Truncated || out.Skipped != 3 {
		t.Fatalf("outcome = %+v", out)
	}
}

func TestRun_Empty(t *testing.T) {
	out := Run(context.Background(), nil, ok, Config{Logger: quiet()})
	if len(out.Results) != 0 || out.Batches != 0 || out.Truncated {
		t.Fatalf("outcome = %+v", out)
	}
}

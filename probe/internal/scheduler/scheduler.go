// Package scheduler runs probes in fixed-size batches under a global time
// budget.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/streamprobe/probe/result"
	"github.com/hazyhaar/streamprobe/provider"
)

// ProbeFunc probes one target. index is the target's position in the
// registry. It must always return a result.
type ProbeFunc func(ctx context.Context, index int, target provider.Target) result.ProbeResult

// Config controls batching.
type Config struct {
	// Concurrency is the number of probes per batch. Default: 2.
	Concurrency int
	// Budget bounds the whole run. It is checked between batches only, so
	// the last batch may overrun it. Default: 10 minutes.
	Budget time.Duration

	// Now replaces time.Now in tests.
	Now func() time.Time
	// OnResult is called as each probe completes, from the probe's goroutine.
	OnResult func(result.ProbeResult)
	Logger   *slog.Logger
}

func (c *Config) applyDefaults() {
	if c.Concurrency <= 0 {
		c.Concurrency = 2
	}
	if c.Budget <= 0 {
		c.Budget = 10 * time.Minute
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Outcome is what a run produced.
type Outcome struct {
	// Results are in registry order and cover a prefix of the targets.
	Results []result.ProbeResult
	Batches int
	// Skipped counts targets never probed.
	Skipped int
	// Truncated is set when the budget or a cancellation stopped the run.
	Truncated bool
	Elapsed   time.Duration
}

// Partition splits n items into consecutive [start, end) ranges of at most
// size items.
func Partition(n, size int) [][2]int {
	if size <= 0 {
		size = 1
	}
	var out [][2]int
	for start := 0; start < n; start += size {
		out = append(out, [2]int{start, min(start+size, n)})
	}
	return out
}

// Run probes targets batch by batch. A batch starts only after the previous
// one has fully completed. A failing probe never aborts the run.
func Run(ctx context.Context, targets []provider.Target, probe ProbeFunc, cfg Config) Outcome {
	cfg.applyDefaults()
	log := cfg.Logger

	start := cfg.Now()
	batches := Partition(len(targets), cfg.Concurrency)
	out := Outcome{Results: make([]result.ProbeResult, 0, len(targets))}

	for i, b := range batches {
		if i > 0 {
			elapsed := cfg.Now().Sub(start)
			if elapsed > cfg.Budget {
				log.Warn("scheduler: time budget exhausted",
					"elapsed", elapsed, "budget", cfg.Budget, "remaining", len(targets)-b[0])
				out.Truncated = true
				break
			}
			if ctx.Err() != nil {
				log.Warn("scheduler: cancelled", "remaining", len(targets)-b[0])
				out.Truncated = true
				break
			}
		}

		log.Info("scheduler: batch", "batch", i+1, "of", len(batches), "size", b[1]-b[0])
		out.Results = append(out.Results, runBatch(ctx, targets, b, probe, cfg.OnResult)...)
		out.Batches++
	}

	out.Skipped = len(targets) - len(out.Results)
	out.Elapsed = cfg.Now().Sub(start)
	return out
}

func runBatch(ctx context.Context, targets []provider.Target, b [2]int, probe ProbeFunc, onResult func(result.ProbeResult)) []result.ProbeResult {
	results := make([]result.ProbeResult, b[1]-b[0])
	var wg sync.WaitGroup
	for i := b[0]; i < b[1]; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r := probe(ctx, i, targets[i])
			results[i-b[0]] = r
			if onResult != nil {
				onResult(r)
			}
		}(i)
	}
	wg.Wait()
	return results
}

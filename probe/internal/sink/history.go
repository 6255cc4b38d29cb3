package sink

import (
	"context"
	"fmt"

	"github.com/hazyhaar/streamprobe/history"
	"github.com/hazyhaar/streamprobe/probe/result"
)

// History records each run summary in a history store.
type History struct {
	store    history.Store
	minRatio float64
}

// NewHistory creates a History sink. minRatio is the sampled playback
// ratio a provider needs to count as working (0 = default).
func NewHistory(store history.Store, minRatio float64) *History {
	return &History{store: store, minRatio: minRatio}
}

func (h *History) SendResult(context.Context, result.ProbeResult) error { return nil }

func (h *History) SendReport(ctx context.Context, run Run) error {
	rec := history.FromReport(run.ID, run.Report, run.Media, run.Elapsed, h.minRatio)
	if err := h.store.Append(ctx, rec); err != nil {
		return fmt.Errorf("history sink: %w", err)
	}
	return nil
}

// Close leaves the store open; its owner closes it.
func (h *History) Close() error { return nil }

package sink

import (
	"context"

	"github.com/hazyhaar/streamprobe/probe/result"
)

// ResultFunc is called for each completed probe.
type ResultFunc func(ctx context.Context, r result.ProbeResult) error

// ReportFunc is called for each finished run.
type ReportFunc func(ctx context.Context, run Run) error

// Callback delivers results via Go function calls, for embedding the
// harness in another process.
type Callback struct {
	onResult ResultFunc
	onReport ReportFunc
}

// NewCallback creates a Callback sink. Either handler may be nil.
func NewCallback(onResult ResultFunc, onReport ReportFunc) *Callback {
	return &Callback{onResult: onResult, onReport: onReport}
}

func (c *Callback) SendResult(ctx context.Context, r result.ProbeResult) error {
	if c.onResult != nil {
		return c.onResult(ctx, r)
	}
	return nil
}

func (c *Callback) SendReport(ctx context.Context, run Run) error {
	if c.onReport != nil {
		return c.onReport(ctx, run)
	}
	return nil
}

func (c *Callback) Close() error { return nil }

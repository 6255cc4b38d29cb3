// Package sink defines output backends for probe results and run reports.
package sink

import (
	"context"
	"time"

	"github.com/hazyhaar/streamprobe/probe/result"
	"github.com/hazyhaar/streamprobe/provider"
)

// Sink is the output interface. SendResult is called as each probe
// completes, possibly from several goroutines; SendReport once per run.
type Sink interface {
	SendResult(ctx context.Context, r result.ProbeResult) error
	SendReport(ctx context.Context, run Run) error
	Close() error
}

// Run is a finished run as delivered to sinks.
type Run struct {
	ID        string
	Media     provider.Media
	Report    *result.RunReport
	Elapsed   time.Duration
	Truncated bool
	Skipped   int
}

type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

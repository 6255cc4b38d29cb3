package sink

import (
	"context"
	"log/slog"

	"github.com/hazyhaar/streamprobe/probe/result"
)

// Router fans out to all configured sinks. One sink error does not block
// the others; errors are logged and the first encountered is returned.
type Router struct {
	sinks  []Sink
	logger *slog.Logger
}

// NewRouter creates a fan-out router delivering to all sinks.
func NewRouter(logger *slog.Logger, sinks ...Sink) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{sinks: sinks, logger: logger}
}

// Add registers another sink. Not safe once sending has started.
func (r *Router) Add(s Sink) { r.sinks = append(r.sinks, s) }

// Len returns the number of sinks.
func (r *Router) Len() int { return len(r.sinks) }

func (r *Router) SendResult(ctx context.Context, res result.ProbeResult) error {
	return r.each(func(s Sink) error { return s.SendResult(ctx, res) }, "sink: send result failed")
}

func (r *Router) SendReport(ctx context.Context, run Run) error {
	return r.each(func(s Sink) error { return s.SendReport(ctx, run) }, "sink: send report failed")
}

func (r *Router) Close() error {
	return r.each(Sink.Close, "sink: close failed")
}

func (r *Router) each(fn func(Sink) error, msg string) error {
	var firstErr error
	for _, s := range r.sinks {
		if err := fn(s); err != nil {
			r.logger.Warn(msg, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

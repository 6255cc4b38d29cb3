package probe

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/hazyhaar/streamprobe/history"
	"github.com/hazyhaar/streamprobe/probe/internal/sink"
	"github.com/hazyhaar/streamprobe/probe/result"
)

// Sink is the output interface for probe results and run reports.
type Sink = sink.Sink

// Run is a finished run as delivered to sinks.
type Run = sink.Run

// NewStdoutSink creates a stdout JSON-lines sink.
func NewStdoutSink(w io.Writer) Sink {
	return sink.NewStdout(w)
}

// NewFileSink creates a sink writing the report JSON to path.
func NewFileSink(path string) Sink {
	return sink.NewFile(path)
}

// NewWebhookSink creates a webhook POST sink with retry.
func NewWebhookSink(url string, logger *slog.Logger) Sink {
	return sink.NewWebhook(url, sink.WithWebhookLogger(logger))
}

// NewConsoleSink creates a human-readable console sink. total is the
// number of probes expected, shown as progress.
func NewConsoleSink(w io.Writer, total int, colour bool) Sink {
	opts := []sink.ConsoleOption{sink.WithConsoleTotal(total)}
	if !colour {
		opts = append(opts, sink.WithoutColor())
	}
	return sink.NewConsole(w, opts...)
}

// NewHistorySink creates a sink recording each run in store.
func NewHistorySink(store history.Store, minRatio float64) Sink {
	return sink.NewHistory(store, minRatio)
}

// NewCallbackSink creates an in-process callback sink. Either func may be nil.
func NewCallbackSink(
	onResult func(ctx context.Context, r result.ProbeResult) error,
	onReport func(ctx context.Context, run Run) error,
) Sink {
	return sink.NewCallback(onResult, onReport)
}

// SinksFromConfig builds the sinks listed in cfg. total sizes console
// progress.
func SinksFromConfig(cfg *Config, logger *slog.Logger, stdout io.Writer, total int) ([]Sink, error) {
	var sinks []Sink
	for i, sc := range cfg.Sinks {
		switch sc.Type {
		case "stdout":
			sinks = append(sinks, NewStdoutSink(stdout))
		case "console":
			sinks = append(sinks, NewConsoleSink(stdout, total, true))
		case "file":
			sinks = append(sinks, NewFileSink(sc.Path))
		case "webhook":
			sinks = append(sinks, NewWebhookSink(sc.URL, logger))
		default:
			return nil, fmt.Errorf("%w: sinks[%d]: unknown type %q", ErrInvalidConfig, i, sc.Type)
		}
	}
	return sinks, nil
}

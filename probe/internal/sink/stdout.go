package sink

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/goccy/go-json"

	"github.com/hazyhaar/streamprobe/probe/result"
)

// Stdout writes JSON lines to an io.Writer (default os.Stdout).
type Stdout struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewStdout creates a Stdout sink. If w is nil, os.Stdout is used.
func NewStdout(w io.Writer) *Stdout {
	if w == nil {
		w = os.Stdout
	}
	return &Stdout{enc: json.NewEncoder(w)}
}

func (s *Stdout) SendResult(_ context.Context, r result.ProbeResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(envelope{Type: "result", Data: r})
}

func (s *Stdout) SendReport(_ context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(envelope{Type: "report", Data: run.Report})
}

func (s *Stdout) Close() error { return nil }

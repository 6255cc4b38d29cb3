package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hazyhaar/streamprobe/probe/result"
)

// DefaultReportPath is where the report lands when no path is configured.
const DefaultReportPath = "provider-results.json"

// File writes each run report as indented JSON, replacing the previous one.
type File struct {
	path string
}

// NewFile creates a File sink. An empty path means DefaultReportPath.
func NewFile(path string) *File {
	if path == "" {
		path = DefaultReportPath
	}
	return &File{path: path}
}

// Path returns the report location.
func (f *File) Path() string { return f.path }

func (f *File) SendResult(context.Context, result.ProbeResult) error { return nil }

// SendReport writes to a temporary file and renames it so readers never
// see a partial report.
func (f *File) SendReport(_ context.Context, run Run) error {
	data, err := result.MarshalReport(run.Report)
	if err != nil {
		return fmt.Errorf("file: marshal: %w", err)
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("file: mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".report-*.json")
	if err != nil {
		return fmt.Errorf("file: create: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("file: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("file: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("file: rename: %w", err)
	}
	return nil
}

func (f *File) Close() error { return nil }

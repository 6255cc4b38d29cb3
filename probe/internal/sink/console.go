package sink

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"github.com/hazyhaar/streamprobe/probe/result"
)

// Console score cutoffs: rows scoring at least TopMinScore make the top
// table, at most TopN of them.
const (
	TopMinScore = 60
	TopN        = 10
	attemptsN   = 5
)

// Console prints a human-readable progress line per probe and a summary
// table per run.
type Console struct {
	mu    sync.Mutex
	w     io.Writer
	total int
	done  int

	good, warn, bad, head *color.Color
}

// ConsoleOption configures a Console sink.
type ConsoleOption func(*Console)

// WithConsoleTotal sets the expected probe count shown as [n/total].
func WithConsoleTotal(n int) ConsoleOption {
	return func(c *Console) { c.total = n }
}

// WithoutColor disables ANSI colouring.
func WithoutColor() ConsoleOption {
	return func(c *Console) {
		for _, col := range []*color.Color{c.good, c.warn, c.bad, c.head} {
			col.DisableColor()
		}
	}
}

// NewConsole creates a Console sink. If w is nil, os.Stdout is used.
func NewConsole(w io.Writer, opts ...ConsoleOption) *Console {
	if w == nil {
		w = os.Stdout
	}
	c := &Console{
		w:    w,
		good: color.New(color.FgGreen),
		warn: color.New(color.FgYellow),
		bad:  color.New(color.FgRed),
		head: color.New(color.FgCyan, color.Bold),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Console) tierColor(score float64) *color.Color {
	switch {
	case score >= 80:
		return c.good
	case score >= 50:
		return c.warn
	default:
		return c.bad
	}
}

func (c *Console) SendResult(_ context.Context, r result.ProbeResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.done++

	progress := fmt.Sprintf("[%d]", c.done)
	if c.total > 0 {
		progress = fmt.Sprintf("[%d/%d]", c.done, c.total)
	}

	var line string
	switch {
	case r.Sampled:
		line = fmt.Sprintf("%s: %s - played %.1fs / %.1fs (%.0f%%) - %d stalls",
			r.TargetName, strings.ToUpper(string(r.Tier)),
			r.ActualPlaybackSeconds, r.ExpectedPlaybackSeconds, r.PlaybackRatio*100, r.StallCount)
	case r.Error != "":
		line = fmt.Sprintf("%s: %s - %s", r.TargetName, r.Status, truncate(r.Error, 80))
	default:
		line = fmt.Sprintf("%s: %s", r.TargetName, r.Status)
	}
	_, err := fmt.Fprintf(c.w, "%s %s\n", progress, c.tierColor(r.Score).Sprint(line))
	return err
}

func (c *Console) SendReport(_ context.Context, run Run) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	rep := run.Report
	s := rep.Summary

	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n", c.head.Sprint("RESULTS"))
	if run.Media.ID > 0 {
		fmt.Fprintf(&b, "media: %s\n", run.Media)
	} else {
		fmt.Fprintf(&b, "media: %s/%d\n", rep.Options.MediaType, rep.Options.MediaID)
	}
	if run.Truncated {
		fmt.Fprintf(&b, "%s\n", c.warn.Sprintf("time budget exceeded, %d providers not tested", run.Skipped))
	}

	counts := uitable.New()
	counts.AddRow(c.good.Sprint("EXCELLENT (90%+)"), s.Excellent)
	counts.AddRow(c.good.Sprint("GOOD (70-90%)"), s.Good)
	counts.AddRow(c.warn.Sprint("FAIR (50-70%)"), s.Fair)
	counts.AddRow(c.warn.Sprint("POOR (<50%)"), s.Poor)
	counts.AddRow(c.bad.Sprint("FAILED"), s.Failed)
	fmt.Fprintln(&b, counts)

	fmt.Fprintf(&b, "\n%s\n", c.head.Sprint("TOP PROVIDERS BY STREAM QUALITY"))
	top := rep.Top(TopMinScore, TopN)
	if len(top) == 0 {
		fmt.Fprintln(&b, "No providers with good streaming quality found.")
		fmt.Fprintln(&b, "Best attempts:")
		top = rep.Results[:min(attemptsN, len(rep.Results))]
	}
	if len(top) > 0 {
		table := uitable.New()
		table.MaxColWidth = 40
		table.AddRow("#", "PROVIDER", "QUALITY", "RATIO", "PLAYED", "STALLS", "LOAD")
		for _, row := range top {
			load := "-"
			if row.LoadTime != nil {
				load = fmt.Sprintf("%.1fs", float64(*row.LoadTime)/1000)
			}
			table.AddRow(row.Rank, row.Name,
				c.tierColor(row.Score).Sprint(strings.ToUpper(string(row.StreamQuality))),
				fmt.Sprintf("%.0f%%", row.PlaybackRatio),
				fmt.Sprintf("%.1fs / %.1fs", row.ActualPlayback, row.ExpectedPlayback),
				row.BufferingEvents, load)
		}
		fmt.Fprintln(&b, table)
	}
	fmt.Fprintf(&b, "\nbest: %s (%s)\n", rep.BestProvider, rep.BestProviderQuality)

	_, err := io.WriteString(c.w, b.String())
	return err
}

func (c *Console) Close() error { return nil }

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

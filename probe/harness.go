// Package probe measures which third-party embed providers actually stream
// a given title. It drives one shared Chrome, opens an isolated page per
// provider, clicks play, samples the player for a fixed window and ranks
// the providers by how much of that window really played.
//
// Results stream to sinks (stdout, file, webhook, console, history) as
// each probe completes; the ranked RunReport is delivered once per run.
package probe

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/streamprobe/idgen"
	"github.com/hazyhaar/streamprobe/probe/internal/browser"
	"github.com/hazyhaar/streamprobe/probe/internal/config"
	"github.com/hazyhaar/streamprobe/probe/internal/executor"
	"github.com/hazyhaar/streamprobe/probe/internal/scheduler"
	"github.com/hazyhaar/streamprobe/probe/internal/sink"
	"github.com/hazyhaar/streamprobe/probe/result"
	"github.com/hazyhaar/streamprobe/provider"
)

// Harness is the top-level orchestrator. It owns the browser and the sinks;
// runs are serialised.
type Harness struct {
	cfg      *config.Config
	registry provider.Registry
	mgr      *browser.Manager
	opener   executor.Opener
	clock    executor.Clock
	sinkR    *sink.Router
	ids      idgen.Generator
	logger   *slog.Logger

	runMu sync.Mutex
}

// New creates a Harness. A nil cfg means DefaultConfig.
func New(cfg *Config, registry provider.Registry, logger *slog.Logger, sinks ...Sink) *Harness {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}

	mgr := browser.NewManager(browser.Config{
		RemoteURL:       cfg.Browser.Remote,
		Bin:             cfg.Browser.Bin,
		Visible:         cfg.Browser.Visible,
		XvfbDisplay:     cfg.Browser.XvfbDisplay,
		Stealth:         !cfg.Browser.NoStealth,
		RecycleInterval: cfg.Browser.RecycleInterval,
		Logger:          logger,
	})

	blocklist := cfg.Blocklist
	if len(blocklist) == 0 {
		blocklist = browser.DefaultBlocklist
	}
	opener := pageOpener{mgr: mgr, opts: browser.PageOptions{
		UserAgent:        cfg.Browser.UserAgent,
		AcceptLanguage:   cfg.Browser.AcceptLanguage,
		Viewport:         browser.Viewport{Width: cfg.Browser.ViewportWidth, Height: cfg.Browser.ViewportHeight},
		Blocklist:        blocklist,
		ResourceBlocking: cfg.Browser.ResourceBlocking,
		GuardPopups:      true,
	}}

	return &Harness{
		cfg:      cfg,
		registry: registry,
		mgr:      mgr,
		opener:   opener,
		clock:    executor.RealClock(),
		sinkR:    sink.NewRouter(logger, sinks...),
		ids:      idgen.Default,
		logger:   logger,
	}
}

// pageOpener hands executor pages from the browser manager.
type pageOpener struct {
	mgr  *browser.Manager
	opts browser.PageOptions
}

func (o pageOpener) OpenPage(ctx context.Context) (executor.Page, error) {
	p, err := o.mgr.OpenPage(ctx, o.opts)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Registry returns the targets a run probes.
func (h *Harness) Registry() provider.Registry { return h.registry }

// Start launches the browser.
func (h *Harness) Start(ctx context.Context) error {
	if err := h.mgr.Start(ctx); err != nil {
		return fmt.Errorf("probe: start browser: %w", err)
	}
	return nil
}

// Run probes every registry target against media and returns the ranked
// report. Probe failures are data in the report; an error means the run
// could not start.
func (h *Harness) Run(ctx context.Context, media provider.Media) (*result.RunReport, error) {
	if err := media.Validate(); err != nil {
		return nil, err
	}
	h.runMu.Lock()
	defer h.runMu.Unlock()

	if _, ok := h.opener.(pageOpener); ok {
		if _, err := h.mgr.RecycleIfStale(ctx); err != nil {
			return nil, fmt.Errorf("probe: %w", err)
		}
	}

	runID := h.ids()
	log := h.logger.With("run", runID, "media", media.String())
	targets := h.registry.Targets()
	log.Info("probe: run starting",
		"providers", len(targets),
		"concurrency", h.cfg.Run.Concurrency,
		"stream", h.cfg.Run.StreamDuration)

	exec := executor.New(h.opener, h.executorConfig(),
		executor.WithClock(h.clock),
		executor.WithLogger(log))

	start := h.clock.Now()
	out := scheduler.Run(ctx, targets,
		func(ctx context.Context, i int, t provider.Target) result.ProbeResult {
			began := h.clock.Now()
			r := exec.Probe(ctx, i, t, media)
			observeProbe(r, h.clock.Now().Sub(began).Seconds())
			return r
		},
		scheduler.Config{
			Concurrency: h.cfg.Run.Concurrency,
			Budget:      h.cfg.Run.Budget,
			Now:         h.clock.Now,
			Logger:      log,
			OnResult: func(r result.ProbeResult) {
				h.sinkR.SendResult(context.WithoutCancel(ctx), r)
			},
		})

	rep := result.BuildReport(out.Results, result.RunOptions{
		MediaType:      string(media.Type),
		MediaID:        media.ID,
		Season:         media.Season,
		Episode:        media.Episode,
		StreamDuration: h.cfg.Run.StreamDuration.Seconds(),
	}, h.clock.Now())

	elapsed := h.clock.Now().Sub(start)
	outcome := "complete"
	if out.Truncated {
		outcome = "truncated"
	}
	RunsTotal.WithLabelValues(outcome).Inc()
	RunDuration.Observe(elapsed.Seconds())

	// Partial runs are still reported, so the delivery outlives ctx.
	h.sinkR.SendReport(context.WithoutCancel(ctx), sink.Run{
		ID:        runID,
		Media:     media,
		Report:    rep,
		Elapsed:   elapsed,
		Truncated: out.Truncated,
		Skipped:   out.Skipped,
	})

	log.Info("probe: run finished",
		"tested", len(out.Results),
		"skipped", out.Skipped,
		"best", rep.BestProvider,
		"quality", rep.BestProviderQuality,
		"elapsed", elapsed.Round(time.Second))
	return rep, nil
}

func (h *Harness) executorConfig() executor.Config {
	r := h.cfg.Run
	vp := browser.Viewport{Width: h.cfg.Browser.ViewportWidth, Height: h.cfg.Browser.ViewportHeight}
	cx, cy := vp.Center()
	selectors := h.cfg.PlaySelectors
	if len(selectors) == 0 {
		selectors = executor.DefaultPlaySelectors
	}
	return executor.Config{
		NavTimeout:     r.NavTimeout,
		SettleDelay:    r.SettleDelay,
		TriggerDelay:   r.TriggerDelay,
		RetryDelay:     r.RetryDelay,
		RetrySettle:    r.RetrySettle,
		SampleInterval: r.SampleInterval,
		SampleWindow:   r.StreamDuration,
		CenterX:        cx,
		CenterY:        cy,
		PlaySelectors:  selectors,
	}
}

// Stop closes the sinks and shuts the browser down.
func (h *Harness) Stop() {
	h.runMu.Lock()
	defer h.runMu.Unlock()
	h.sinkR.Close()
	h.mgr.Close()
}

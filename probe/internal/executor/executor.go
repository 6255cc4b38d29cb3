// Package executor runs a single probe: it loads one provider's embed page
// in its own tab, tries to start playback, samples the player for a fixed
// window and returns a classified result.ProbeResult.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/streamprobe/probe/result"
	"github.com/hazyhaar/streamprobe/provider"
)

// Page is the scoped browsing context a probe drives.
type Page interface {
	// Navigate loads url. An error wrapping context.DeadlineExceeded means
	// the navigation timeout expired; the page may be partially loaded.
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	DetectMedia(ctx context.Context) (result.MediaPresence, error)
	// TryClick clicks the first element matching selector when visible.
	TryClick(ctx context.Context, selector string) (matched, clicked bool, err error)
	ClickAt(ctx context.Context, x, y float64) error
	VideoState(ctx context.Context) (result.VideoState, error)
	Blocked() int
	Close() error
}

// Opener hands out fresh pages from the shared browser.
type Opener interface {
	OpenPage(ctx context.Context) (Page, error)
}

// DefaultPlaySelectors are tried in order; the first visible match is
// clicked. Generic heuristics first, then player libraries.
var DefaultPlaySelectors = []string{
	`button[class*="play"]`,
	`div[class*="play"]`,
	`span[class*="play"]`,
	`a[class*="play"]`,
	`[class*="play-button"]`,
	`[class*="playButton"]`,
	`[class*="play_button"]`,
	`[id*="play"]`,
	// Video.js
	`.vjs-big-play-button`,
	`.vjs-play-control`,
	// Plyr
	`.plyr__control--overlaid`,
	`[data-plyr="play"]`,
	// JW Player
	`.jw-icon-playback`,
	`.jw-display-icon-container`,
	`[aria-label*="play" i]`,
	`[title*="play" i]`,
	`svg[class*="play"]`,
	`.play-overlay`,
	`.video-play`,
	`.center-play-button`,
	`.play-icon`,
	`.btn-play`,
	`#play`,
	`.player-play`,
}

// Config holds the timing and interaction parameters of a probe.
type Config struct {
	NavTimeout     time.Duration
	SettleDelay    time.Duration // after load, before detection
	TriggerDelay   time.Duration // after the play trigger
	RetryDelay     time.Duration // before the second center click
	RetrySettle    time.Duration // after the second center click
	SampleInterval time.Duration
	SampleWindow   time.Duration

	// CenterX, CenterY is where the fallback click lands.
	CenterX, CenterY float64

	PlaySelectors []string
}

// DefaultConfig mirrors the timings the provider list was tuned with.
func DefaultConfig() Config {
	return Config{
		NavTimeout:     45 * time.Second,
		SettleDelay:    2 * time.Second,
		TriggerDelay:   3 * time.Second,
		RetryDelay:     3 * time.Second,
		RetrySettle:    2 * time.Second,
		SampleInterval: 10 * time.Second,
		SampleWindow:   120 * time.Second,
		CenterX:        640,
		CenterY:        360,
		PlaySelectors:  DefaultPlaySelectors,
	}
}

// Samples is the number of polls in the sample window.
func (c Config) Samples() int {
	if c.SampleInterval <= 0 {
		return 0
	}
	return int(c.SampleWindow / c.SampleInterval)
}

// Executor runs probes. It holds no per-probe state and is safe for
// concurrent use.
type Executor struct {
	opener Opener
	cfg    Config
	clock  Clock
	logger *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option { return func(e *Executor) { e.clock = c } }

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option { return func(e *Executor) { e.logger = l } }

// New creates an Executor.
func New(opener Opener, cfg Config, opts ...Option) *Executor {
	if cfg.PlaySelectors == nil {
		cfg.PlaySelectors = DefaultPlaySelectors
	}
	e := &Executor{opener: opener, cfg: cfg, clock: RealClock(), logger: slog.Default()}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Probe runs target against media. It never returns an error: every
// failure is recorded on the result, whose status is always terminal.
func (e *Executor) Probe(ctx context.Context, index int, target provider.Target, media provider.Media) (res result.ProbeResult) {
	url := target.URL(media)
	res = result.New(index, target.Name, url)
	log := e.logger.With("provider", target.Name)

	page, err := e.opener.OpenPage(ctx)
	if err != nil {
		res.Fail(result.StatusError, fmt.Sprintf("open page: %v", err))
		log.Warn("probe: open page failed", "error", err)
		return res
	}
	defer func() {
		res.BlockedRequests = page.Blocked()
		if err := page.Close(); err != nil {
			log.Debug("probe: close page", "error", err)
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			res.Fail(result.StatusError, fmt.Sprintf("panic: %v", r))
			log.Error("probe: panic", "panic", r)
		}
	}()

	if err := e.run(ctx, page, &res, log); err != nil {
		res.Fail(result.StatusError, err.Error())
		log.Warn("probe: error", "error", err)
	}
	if !res.Status.Terminal() {
		res.Fail(result.StatusError, fmt.Sprintf("probe ended in non-terminal status %s", res.Status))
	}
	return res
}

func (e *Executor) run(ctx context.Context, page Page, res *result.ProbeResult, log *slog.Logger) error {
	log.Info("probe: loading", "url", res.ResolvedURL)

	res.LoadStartedAt = e.clock.Now()
	err := page.Navigate(ctx, res.ResolvedURL, e.cfg.NavTimeout)
	switch {
	case err == nil:
		done := e.clock.Now()
		res.LoadCompletedAt = &done
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		log.Info("probe: navigation timeout, continuing", "timeout", e.cfg.NavTimeout)
	default:
		if ctx.Err() != nil {
			return ctx.Err()
		}
		res.Fail(result.StatusLoadFailed, fmt.Sprintf("navigation failed: %v", err))
		log.Info("probe: load failed", "error", err)
		return nil
	}
	res.LoadDuration = e.clock.Now().Sub(res.LoadStartedAt)
	res.Status = result.StatusLoaded

	if err := e.clock.Sleep(ctx, e.cfg.SettleDelay); err != nil {
		return err
	}
	media, err := page.DetectMedia(ctx)
	if err != nil {
		return err
	}
	res.HasVideoElement = media.Videos > 0
	res.HasIframe = media.Iframes > 0

	e.trigger(ctx, page, res, log)

	if err := e.clock.Sleep(ctx, e.cfg.TriggerDelay); err != nil {
		return err
	}
	state, err := e.confirm(ctx, page)
	if err != nil {
		return err
	}
	if !state.Found {
		res.Apply(result.ClassifyNoVideo())
		log.Info("probe: no video element")
		return nil
	}
	res.HasVideoElement = true

	return e.sample(ctx, page, res, state, log)
}

// trigger makes exactly one attempt to start playback: the first visible
// selector wins, exhaustion falls back to a click at the viewport center.
// Click failures are not fatal.
func (e *Executor) trigger(ctx context.Context, page Page, res *result.ProbeResult, log *slog.Logger) {
	for _, sel := range e.cfg.PlaySelectors {
		matched, clicked, err := page.TryClick(ctx, sel)
		if matched {
			res.HasPlayButton = true
		}
		if err != nil {
			log.Debug("probe: selector attempt failed", "selector", sel, "error", err)
			continue
		}
		if clicked {
			res.PlayButtonClicked = true
			res.PlaySelector = sel
			log.Info("probe: clicked play", "selector", sel)
			return
		}
	}

	if err := page.ClickAt(ctx, e.cfg.CenterX, e.cfg.CenterY); err != nil {
		log.Debug("probe: center click failed", "error", err)
		return
	}
	res.PlayButtonClicked = true
	log.Info("probe: clicked center")
}

// confirm reads the player, and when nothing plays yet waits, clicks the
// center once more and reads again.
func (e *Executor) confirm(ctx context.Context, page Page) (result.VideoState, error) {
	state, err := page.VideoState(ctx)
	if err != nil {
		return state, err
	}
	if state.Found && !state.Paused {
		return state, nil
	}

	if err := e.clock.Sleep(ctx, e.cfg.RetryDelay); err != nil {
		return state, err
	}
	_ = page.ClickAt(ctx, e.cfg.CenterX, e.cfg.CenterY)
	if err := e.clock.Sleep(ctx, e.cfg.RetrySettle); err != nil {
		return state, err
	}
	return page.VideoState(ctx)
}

// sample polls the player across the sample window, counting stalls, and
// classifies the measured playback.
func (e *Executor) sample(ctx context.Context, page Page, res *result.ProbeResult, initial result.VideoState, log *slog.Logger) error {
	checks := e.cfg.Samples()
	log.Info("probe: sampling", "window", e.cfg.SampleWindow, "checks", checks)

	res.SampleStartedAt = e.clock.Now()
	res.VideoTimeAtStart = initial.CurrentTime
	last := initial.CurrentTime

	for i := 0; i < checks; i++ {
		if err := e.clock.Sleep(ctx, e.cfg.SampleInterval); err != nil {
			return err
		}
		st, err := page.VideoState(ctx)
		if err != nil {
			return err
		}
		if st.CurrentTime <= last && !st.Paused && !st.Ended {
			res.StallCount++
		}
		last = st.CurrentTime

		if (i+1)%3 == 0 {
			log.Info("probe: progress",
				"elapsed", time.Duration(i+1)*e.cfg.SampleInterval,
				"played", st.CurrentTime-res.VideoTimeAtStart,
				"stalls", res.StallCount)
		}
	}

	final, err := page.VideoState(ctx)
	if err != nil {
		return err
	}
	res.SampleEndedAt = e.clock.Now()
	res.VideoTimeAtEnd = final.CurrentTime
	res.Sampled = true

	res.ActualPlaybackSeconds = res.VideoTimeAtEnd - res.VideoTimeAtStart
	res.ExpectedPlaybackSeconds = res.SampleEndedAt.Sub(res.SampleStartedAt).Seconds()
	if res.ExpectedPlaybackSeconds > 0 {
		res.PlaybackRatio = res.ActualPlaybackSeconds / res.ExpectedPlaybackSeconds
	}

	res.Apply(result.Classify(result.Sample{
		Ratio:         res.PlaybackRatio,
		ActualSeconds: res.ActualPlaybackSeconds,
		Stalls:        res.StallCount,
	}))
	log.Info("probe: classified",
		"tier", res.Tier, "score", res.Score,
		"played", res.ActualPlaybackSeconds, "expected", res.ExpectedPlaybackSeconds,
		"stalls", res.StallCount)
	return nil
}

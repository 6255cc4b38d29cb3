package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/hazyhaar/streamprobe/probe/result"
)

// DefaultUserAgent is a current desktop Chrome; several providers refuse
// to serve a player to HeadlessChrome.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Viewport is the emulated window size.
type Viewport struct {
	Width  int
	Height int
}

// Center returns the middle of the viewport, where players put their
// overlay play button.
func (v Viewport) Center() (float64, float64) {
	return float64(v.Width) / 2, float64(v.Height) / 2
}

// PageOptions hardens a probe page.
type PageOptions struct {
	UserAgent        string
	AcceptLanguage   string
	Viewport         Viewport
	Blocklist        []string // nil = DefaultBlocklist
	ResourceBlocking []string
	GuardPopups      bool
}

func (o *PageOptions) defaults() {
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.AcceptLanguage == "" {
		o.AcceptLanguage = "en-US,en;q=0.9"
	}
	if o.Viewport.Width <= 0 || o.Viewport.Height <= 0 {
		o.Viewport = Viewport{Width: 1280, Height: 720}
	}
	if o.Blocklist == nil {
		o.Blocklist = DefaultBlocklist
	}
}

// popupGuard neutralises the ways an embed escapes its tab.
const popupGuard = `() => {
	window.open = () => null;
	window.alert = () => {};
	window.confirm = () => true;
	window.prompt = () => null;
	document.addEventListener('click', (e) => {
		const link = e.target && e.target.closest ? e.target.closest('a') : null;
		if (link && (link.target === '_blank' || (link.href || '').startsWith('javascript:'))) {
			e.preventDefault();
			e.stopPropagation();
		}
	}, true);
}`

// mediaJS counts players on the top document.
const mediaJS = `() => ({
	videos: document.querySelectorAll('video').length,
	iframes: document.querySelectorAll('iframe').length,
})`

// videoJS reads the first <video>, descending into iframes the disabled
// web security lets us reach.
const videoJS = `() => {
	const find = (doc, depth) => {
		if (!doc || depth > 3) return null;
		const v = doc.querySelector('video');
		if (v) return v;
		for (const f of doc.querySelectorAll('iframe')) {
			try {
				const r = find(f.contentDocument, depth + 1);
				if (r) return r;
			} catch (e) {}
		}
		return null;
	};
	const v = find(document, 0);
	if (!v) return {found: false, currentTime: 0, paused: true, ended: false, readyState: 0, duration: 0};
	return {
		found: true,
		currentTime: v.currentTime,
		paused: v.paused,
		ended: v.ended,
		readyState: v.readyState,
		duration: isFinite(v.duration) ? v.duration : 0,
	};
}`

// Page is one probe's isolated tab. It is owned by a single probe and must
// be closed by it.
type Page struct {
	page   *rod.Page
	mgr    *Manager
	block  *blocker
	router *rod.HijackRouter

	closeOnce sync.Once
	closeErr  error
}

// OpenPage creates a hardened tab on the shared browser.
func (m *Manager) OpenPage(ctx context.Context, opts PageOptions) (*Page, error) {
	opts.defaults()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := m.Browser()
	if b == nil {
		return nil, fmt.Errorf("browser: no active browser")
	}

	var page *rod.Page
	var err error
	if m.cfg.Stealth {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}
	m.owned.Store(page.TargetID, struct{}{})

	p := &Page{page: page, mgr: m, block: newBlocker(opts.Blocklist, opts.ResourceBlocking)}
	if err := p.harden(opts); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

func (p *Page) harden(opts PageOptions) error {
	if err := p.page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      opts.UserAgent,
		AcceptLanguage: opts.AcceptLanguage,
	}); err != nil {
		return fmt.Errorf("browser: user agent: %w", err)
	}

	if err := p.page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             opts.Viewport.Width,
		Height:            opts.Viewport.Height,
		DeviceScaleFactor: 1,
	}); err != nil {
		return fmt.Errorf("browser: viewport: %w", err)
	}

	if _, err := p.page.SetExtraHeaders([]string{
		"Accept-Language", opts.AcceptLanguage,
		"Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	}); err != nil {
		return fmt.Errorf("browser: extra headers: %w", err)
	}

	if opts.GuardPopups {
		if _, err := p.page.EvalOnNewDocument("(" + popupGuard + ")()"); err != nil {
			return fmt.Errorf("browser: popup guard: %w", err)
		}
	}

	router, err := p.block.install(p.page)
	if err != nil {
		return fmt.Errorf("browser: request blocking: %w", err)
	}
	p.router = router
	return nil
}

// Navigate loads url and waits for the load event. When timeout expires
// first, the returned error wraps context.DeadlineExceeded.
func (p *Page) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pg := p.page.Context(navCtx)
	if err := pg.Navigate(url); err != nil {
		return navError(ctx, navCtx, url, err)
	}
	if err := pg.WaitLoad(); err != nil {
		return navError(ctx, navCtx, url, err)
	}
	return nil
}

func navError(parent, navCtx context.Context, url string, err error) error {
	if parent.Err() == nil && errors.Is(navCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("browser: navigate %s: %w", url, context.DeadlineExceeded)
	}
	return fmt.Errorf("browser: navigate %s: %w", url, err)
}

// DetectMedia counts video and iframe elements.
func (p *Page) DetectMedia(ctx context.Context) (result.MediaPresence, error) {
	res, err := p.page.Context(ctx).Eval(mediaJS)
	if err != nil {
		return result.MediaPresence{}, fmt.Errorf("browser: detect media: %w", err)
	}
	return result.MediaPresence{
		Videos:  res.Value.Get("videos").Int(),
		Iframes: res.Value.Get("iframes").Int(),
	}, nil
}

// TryClick clicks the first element matching selector if it is visible.
// matched reports whether the selector found anything.
func (p *Page) TryClick(ctx context.Context, selector string) (matched, clicked bool, err error) {
	els, err := p.page.Context(ctx).Elements(selector)
	if err != nil || len(els) == 0 {
		return false, false, err
	}
	el := els.First()
	visible, err := el.Visible()
	if err != nil || !visible {
		return true, false, err
	}
	if err := el.Timeout(5*time.Second).Click(proto.InputMouseButtonLeft, 1); err != nil {
		return true, false, err
	}
	return true, true, nil
}

// ClickAt dispatches a left click at viewport coordinates.
func (p *Page) ClickAt(ctx context.Context, x, y float64) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := p.page.Mouse.MoveTo(proto.Point{X: x, Y: y}); err != nil {
		return fmt.Errorf("browser: mouse move: %w", err)
	}
	return p.page.Mouse.Click(proto.InputMouseButtonLeft, 1)
}

// VideoState reads the first video element.
func (p *Page) VideoState(ctx context.Context) (result.VideoState, error) {
	res, err := p.page.Context(ctx).Eval(videoJS)
	if err != nil {
		return result.VideoState{}, fmt.Errorf("browser: video state: %w", err)
	}
	v := res.Value
	return result.VideoState{
		Found:       v.Get("found").Bool(),
		CurrentTime: v.Get("currentTime").Num(),
		Paused:      v.Get("paused").Bool(),
		Ended:       v.Get("ended").Bool(),
		ReadyState:  v.Get("readyState").Int(),
		Duration:    v.Get("duration").Num(),
	}, nil
}

// Blocked returns how many requests the blocklist aborted so far.
func (p *Page) Blocked() int {
	return p.block.count()
}

// Close releases the tab. Safe to call more than once.
func (p *Page) Close() error {
	p.closeOnce.Do(func() {
		if p.router != nil {
			p.router.Stop()
		}
		p.mgr.owned.Delete(p.page.TargetID)
		p.closeErr = p.page.Close()
	})
	return p.closeErr
}

// Package browser owns the Chrome instance a probe run shares and hands out
// isolated pages to individual probes. Pages are hardened against the
// embed providers: ad requests are aborted, popups are neutralised in the
// page and closed at the browser level if one escapes.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Config configures the browser manager.
type Config struct {
	// RemoteURL is the DevTools WebSocket URL of an external Chrome.
	// Empty = launch a local Chrome.
	RemoteURL string

	// Bin overrides the Chrome binary. Empty = launcher default/download.
	Bin string

	// Visible runs Chrome headful. On a server pair it with XvfbDisplay.
	Visible bool

	// XvfbDisplay starts Xvfb on this display for visible mode. Empty = use
	// the current DISPLAY.
	XvfbDisplay string

	// Stealth creates pages through go-rod/stealth.
	Stealth bool

	// RecycleInterval bounds the lifetime of one Chrome process across
	// runs. Default: 4h.
	RecycleInterval time.Duration

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.RecycleInterval <= 0 {
		c.RecycleInterval = 4 * time.Hour
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Manager owns the shared Chrome instance. Probes borrow it through
// OpenPage; each page belongs to exactly one probe.
type Manager struct {
	cfg     Config
	mu      sync.RWMutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	xvfb    *exec.Cmd
	startAt time.Time
	closed  bool

	// owned maps the target ID of every open probe page, used to close
	// popups they spawn.
	owned      sync.Map
	stopEvents context.CancelFunc
}

// NewManager creates a Manager. Call Start to launch Chrome.
func NewManager(cfg Config) *Manager {
	cfg.defaults()
	return &Manager{cfg: cfg}
}

// Start launches Chrome (or connects to a remote one).
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("browser: manager is closed")
	}
	if m.browser != nil {
		return nil
	}
	return m.startLocked(ctx)
}

// Browser returns the current Rod browser handle.
func (m *Manager) Browser() *rod.Browser {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.browser
}

// Uptime is the age of the current Chrome process.
func (m *Manager) Uptime() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.browser == nil {
		return 0
	}
	return time.Since(m.startAt)
}

// RecycleIfStale restarts Chrome when it outlived RecycleInterval. Only call
// it between runs: open pages die with the old process.
func (m *Manager) RecycleIfStale(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false, fmt.Errorf("browser: manager is closed")
	}
	if m.browser != nil && time.Since(m.startAt) <= m.cfg.RecycleInterval {
		return false, nil
	}

	m.cfg.Logger.Info("browser: recycling", "uptime", time.Since(m.startAt))
	m.cleanup()
	if err := m.startLocked(ctx); err != nil {
		return false, fmt.Errorf("browser: relaunch: %w", err)
	}
	return true, nil
}

// Close shuts down Chrome and Xvfb.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.cleanup()
	return nil
}

func (m *Manager) startLocked(ctx context.Context) error {
	b, err := m.launch()
	if err != nil {
		return err
	}
	m.browser = b
	m.startAt = time.Now()

	evCtx, cancel := context.WithCancel(ctx)
	m.stopEvents = cancel
	if err := m.watchPopups(evCtx, b); err != nil {
		m.cfg.Logger.Warn("browser: popup watcher unavailable", "error", err)
	}
	return nil
}

func (m *Manager) launch() (*rod.Browser, error) {
	log := m.cfg.Logger

	if m.cfg.Visible && m.cfg.XvfbDisplay != "" {
		if err := m.startXvfb(); err != nil {
			return nil, fmt.Errorf("browser: xvfb: %w", err)
		}
	}

	var wsURL string
	if m.cfg.RemoteURL != "" {
		wsURL = m.cfg.RemoteURL
		log.Info("browser: connecting to remote", "url", wsURL)
	} else {
		l := launcher.New().Headless(!m.cfg.Visible).NoSandbox(true)
		if m.cfg.Bin != "" {
			l = l.Bin(m.cfg.Bin)
		}
		if m.cfg.Visible && m.cfg.XvfbDisplay != "" {
			l = l.Env("DISPLAY=" + m.cfg.XvfbDisplay)
		}

		// Embeds autoplay without a gesture and reach into cross-origin
		// player iframes; QUIC is off because several providers stall on it.
		l = l.Set("disable-blink-features", "AutomationControlled").
			Set("autoplay-policy", "no-user-gesture-required").
			Set("disable-web-security").
			Set("disable-features", "IsolateOrigins,site-per-process").
			Set("disable-quic").
			Set("disable-setuid-sandbox")

		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		m.lnch = l
		log.Info("browser: launched local chrome", "url", wsURL, "visible", m.cfg.Visible)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	if err := b.IgnoreCertErrors(true); err != nil {
		log.Warn("browser: ignore cert errors failed", "error", err)
	}
	return b, nil
}

// watchPopups closes any target opened by a probe page. The in-page guard
// stops window.open; this catches what slips through (middle-click ads,
// form submissions to _blank).
func (m *Manager) watchPopups(ctx context.Context, b *rod.Browser) error {
	if err := (proto.TargetSetDiscoverTargets{Discover: true}).Call(b); err != nil {
		return err
	}
	wait := b.Context(ctx).EachEvent(func(e *proto.TargetTargetCreated) {
		opener := e.TargetInfo.OpenerID
		if opener == "" {
			return
		}
		if _, ok := m.owned.Load(opener); !ok {
			return
		}
		_, err := proto.TargetCloseTarget{TargetID: e.TargetInfo.TargetID}.Call(b)
		m.cfg.Logger.Debug("browser: closed popup",
			"url", e.TargetInfo.URL, "opener", opener, "error", err)
	})
	go wait()
	return nil
}

func (m *Manager) cleanup() {
	if m.stopEvents != nil {
		m.stopEvents()
		m.stopEvents = nil
	}
	if m.browser != nil {
		m.browser.Close()
		m.browser = nil
	}
	if m.lnch != nil {
		m.lnch.Cleanup()
		m.lnch = nil
	}
	m.stopXvfb()
}

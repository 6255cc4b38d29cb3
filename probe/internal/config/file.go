// Package config handles streamprobe configuration from YAML files.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/streamprobe/provider"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Config is the top-level streamprobe configuration.
type Config struct {
	Browser BrowserConfig `yaml:"browser"`
	Run     RunConfig     `yaml:"run"`
	Media   MediaConfig   `yaml:"media"`

	// Registry selects the built-in list: default | verified.
	Registry string `yaml:"registry"`
	// Only restricts the run to these provider names.
	Only      []string         `yaml:"only"`
	Providers []ProviderConfig `yaml:"providers"`

	// Blocklist replaces the built-in ad blocklist when non-empty.
	Blocklist     []string `yaml:"blocklist"`
	PlaySelectors []string `yaml:"play_selectors"`

	Sinks   []SinkConfig  `yaml:"sinks"`
	History HistoryConfig `yaml:"history"`
	Server  ServerConfig  `yaml:"server"`
}

// BrowserConfig controls Chrome lifecycle and page hardening.
type BrowserConfig struct {
	Remote           string        `yaml:"remote"`
	Bin              string        `yaml:"bin"`
	Visible          bool          `yaml:"visible"`
	XvfbDisplay      string        `yaml:"xvfb_display"`
	NoStealth        bool          `yaml:"no_stealth"`
	RecycleInterval  time.Duration `yaml:"recycle_interval"`
	UserAgent        string        `yaml:"user_agent"`
	AcceptLanguage   string        `yaml:"accept_language"`
	ViewportWidth    int           `yaml:"viewport_width"`
	ViewportHeight   int           `yaml:"viewport_height"`
	ResourceBlocking []string      `yaml:"resource_blocking"` // images | fonts | stylesheets
}

// RunConfig holds the probe timings and scheduling limits.
type RunConfig struct {
	Concurrency    int           `yaml:"concurrency"`
	Budget         time.Duration `yaml:"budget"`
	NavTimeout     time.Duration `yaml:"nav_timeout"`
	StreamDuration time.Duration `yaml:"stream_duration"`
	SampleInterval time.Duration `yaml:"sample_interval"`
	SettleDelay    time.Duration `yaml:"settle_delay"`
	TriggerDelay   time.Duration `yaml:"trigger_delay"`
	RetryDelay     time.Duration `yaml:"retry_delay"`
	RetrySettle    time.Duration `yaml:"retry_settle"`
	// Every repeats the run at this interval. Zero = run once.
	Every time.Duration `yaml:"every"`
}

// MediaConfig is the item every provider is asked to play.
type MediaConfig struct {
	Type    string `yaml:"type"` // movie | tv
	ID      int    `yaml:"id"`
	Season  int    `yaml:"season"`
	Episode int    `yaml:"episode"`
	Title   string `yaml:"title"`
}

// ProviderConfig defines an extra provider with RFC 6570 templates.
type ProviderConfig struct {
	Name  string `yaml:"name"`
	Movie string `yaml:"movie"`
	TV    string `yaml:"tv"`
}

// SinkConfig defines an output backend.
type SinkConfig struct {
	Type string `yaml:"type"` // stdout | file | webhook | console
	URL  string `yaml:"url"`  // for webhook
	Path string `yaml:"path"` // for file
}

// HistoryConfig controls the run-history store.
type HistoryConfig struct {
	// Path of the SQLite database. Empty = in-memory history.
	Path             string  `yaml:"path"`
	Max              int     `yaml:"max"`
	MinPlaybackRatio float64 `yaml:"min_playback_ratio"`
}

// ServerConfig enables the report API when Addr is set.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML and applies defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Browser.RecycleInterval <= 0 {
		c.Browser.RecycleInterval = 4 * time.Hour
	}
	if c.Browser.ViewportWidth <= 0 || c.Browser.ViewportHeight <= 0 {
		c.Browser.ViewportWidth, c.Browser.ViewportHeight = 1280, 720
	}
	if c.Run.Concurrency <= 0 {
		c.Run.Concurrency = 2
	}
	if c.Run.Budget <= 0 {
		c.Run.Budget = 10 * time.Minute
	}
	if c.Run.NavTimeout <= 0 {
		c.Run.NavTimeout = 45 * time.Second
	}
	if c.Run.StreamDuration <= 0 {
		c.Run.StreamDuration = 120 * time.Second
	}
	if c.Run.SampleInterval <= 0 {
		c.Run.SampleInterval = 10 * time.Second
	}
	if c.Run.SettleDelay <= 0 {
		c.Run.SettleDelay = 2 * time.Second
	}
	if c.Run.TriggerDelay <= 0 {
		c.Run.TriggerDelay = 3 * time.Second
	}
	if c.Run.RetryDelay <= 0 {
		c.Run.RetryDelay = 3 * time.Second
	}
	if c.Run.RetrySettle <= 0 {
		c.Run.RetrySettle = 2 * time.Second
	}
	if c.Media.Type == "" {
		c.Media.Type = string(provider.Movie)
	}
	if c.Registry == "" {
		c.Registry = "default"
	}
	if c.History.Max <= 0 {
		c.History.Max = 10
	}
	if c.History.MinPlaybackRatio <= 0 {
		c.History.MinPlaybackRatio = 0.7
	}
}

// Validate checks the fields a run cannot start without. The media id is
// not checked here since the CLI may supply it.
func (c *Config) Validate() error {
	if _, ok := provider.Named(c.Registry); !ok {
		return fmt.Errorf("%w: unknown registry %q", ErrInvalid, c.Registry)
	}
	if c.Run.SampleInterval > c.Run.StreamDuration {
		return fmt.Errorf("%w: sample_interval %s exceeds stream_duration %s",
			ErrInvalid, c.Run.SampleInterval, c.Run.StreamDuration)
	}
	for i, p := range c.Providers {
		if p.Name == "" || p.Movie == "" {
			return fmt.Errorf("%w: providers[%d]: name and movie template are required", ErrInvalid, i)
		}
	}
	for i, s := range c.Sinks {
		switch s.Type {
		case "stdout", "console":
		case "file":
			if s.Path == "" {
				return fmt.Errorf("%w: sinks[%d]: file sink needs a path", ErrInvalid, i)
			}
		case "webhook":
			if s.URL == "" {
				return fmt.Errorf("%w: sinks[%d]: webhook sink needs a url", ErrInvalid, i)
			}
		default:
			return fmt.Errorf("%w: sinks[%d]: unknown type %q", ErrInvalid, i, s.Type)
		}
	}
	if c.History.MinPlaybackRatio > 1 {
		return fmt.Errorf("%w: min_playback_ratio must be in (0, 1]", ErrInvalid)
	}
	return nil
}

// MediaItem converts the media section.
func (c *Config) MediaItem() (provider.Media, error) {
	typ, err := provider.ParseMediaType(c.Media.Type)
	if err != nil {
		return provider.Media{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	m := provider.Media{
		Type:    typ,
		ID:      c.Media.ID,
		Season:  c.Media.Season,
		Episode: c.Media.Episode,
		Title:   c.Media.Title,
	}
	if err := m.Validate(); err != nil {
		return provider.Media{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return m, nil
}

// BuildRegistry resolves the built-in registry, appends configured
// providers and applies the Only filter.
func (c *Config) BuildRegistry() (provider.Registry, error) {
	reg, ok := provider.Named(c.Registry)
	if !ok {
		return provider.Registry{}, fmt.Errorf("%w: unknown registry %q", ErrInvalid, c.Registry)
	}
	extra := make([]provider.Target, 0, len(c.Providers))
	for _, p := range c.Providers {
		tv := p.TV
		if tv == "" {
			tv = p.Movie
		}
		t, err := provider.FromTemplates(p.Name, p.Movie, tv)
		if err != nil {
			return provider.Registry{}, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		extra = append(extra, t)
	}
	reg, err := reg.With(extra...)
	if err != nil {
		return provider.Registry{}, err
	}
	return reg.Only(c.Only...), nil
}

// SplitList parses a comma-separated flag value, dropping empty entries.
func SplitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hazyhaar/streamprobe/provider"
)

func TestDefault(t *testing.T) {
	c := Default()
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"concurrency", c.Run.Concurrency, 2},
		{"budget", c.Run.Budget, 10 * time.Minute},
		{"nav timeout", c.Run.NavTimeout, 45 * time.Second},
		{"stream", c.Run.StreamDuration, 120 * time.Second},
		{"interval", c.Run.SampleInterval, 10 * time.Second},
		{"viewport", c.Browser.ViewportWidth, 1280},
		{"history max", c.History.Max, 10},
		{"min ratio", c.History.MinPlaybackRatio, 0.7},
		{"registry", c.Registry, "default"},
		{"media type", c.Media.Type, "movie"},
	}
	for _, ch := range checks {
		if ch.got != ch.want {
			t.Errorf("%s = %v, want %v", ch.name, ch.got, ch.want)
		}
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

const sample = `
browser:
  visible: true
  xvfb_display: ":42"
  resource_blocking: [images, fonts]
run:
  concurrency: 4
  stream_duration: 30s
  sample_interval: 5s
  every: 1h
media:
  type: tv
  id: 1396
  season: 1
  episode: 2
  title: Breaking Bad
registry: verified
only: [VidLink, Local]
providers:
  - name: Local
    movie: "http://127.0.0.1:8080/{type}/{id}"
sinks:
  - type: console
  - type: file
    path: out.json
history:
  path: history.db
  max: 5
`

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "streamprobe.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !c.Browser.Visible || c.Browser.XvfbDisplay != ":42" || len(c.Browser.ResourceBlocking) != 2 {
		t.Fatalf("browser = %+v", c.Browser)
	}
	if c.Run.Concurrency != 4 || c.Run.StreamDuration != 30*time.Second || c.Run.Every != time.Hour {
		t.Fatalf("run = %+v", c.Run)
	}
	// untouched fields keep their defaults
	if c.Run.NavTimeout != 45*time.Second || c.History.MinPlaybackRatio != 0.7 {
		t.Fatalf("defaults not applied: %+v %+v", c.Run, c.History)
	}

	m, err := c.MediaItem()
	if err != nil {
		t.Fatalf("MediaItem: %v", err)
	}
	if m.Type != provider.TV || m.ID != 1396 || !m.Episodic() || m.Title != "Breaking Bad" {
		t.Fatalf("media = %+v", m)
	}

	reg, err := c.BuildRegistry()
	if err != nil {
		t.Fatalf("BuildRegistry: %v", err)
	}
	names := reg.Names()
	if len(names) != 2 || names[0] != "VidLink" || names[1] != "Local" {
		t.Fatalf("registry = %v", names)
	}
	local, _ := reg.Lookup("Local")
	if got := local.URL(m); got != "http://127.0.0.1:8080/tv/1396" {
		t.Fatalf("local url = %q", got)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error")
	}
}

func TestParse_Malformed(t *testing.T) {
	if _, err := Parse([]byte("run: [")); err == nil {
		t.Fatal("expected error")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*Config)
	}{
		{"registry", func(c *Config) { c.Registry = "bogus" }},
		{"interval", func(c *Config) { c.Run.SampleInterval = 5 * time.Minute }},
		{"provider", func(c *Config) { c.Providers = []ProviderConfig{{Name: "x"}} }},
		{"sink type", func(c *Config) { c.Sinks = []SinkConfig{{Type: "nats"}} }},
		{"webhook url", func(c *Config) { c.Sinks = []SinkConfig{{Type: "webhook"}} }},
		{"file path", func(c *Config) { c.Sinks = []SinkConfig{{Type: "file"}} }},
		{"ratio", func(c *Config) { c.History.MinPlaybackRatio = 2 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			tc.mut(c)
			if err := c.Validate(); !errors.Is(err, ErrInvalid) {
				t.Fatalf("err = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestMediaItem_Invalid(t *testing.T) {
	c := Default()
	if _, err := c.MediaItem(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("missing id: err = %v", err)
	}
	c.Media = MediaConfig{Type: "anime", ID: 1}
	if _, err := c.MediaItem(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("bad type: err = %v", err)
	}
}

func TestBuildRegistry_Duplicate(t *testing.T) {
	c := Default()
	c.Providers = []ProviderConfig{{Name: "VidLink", Movie: "https://x/{id}"}}
	if _, err := c.BuildRegistry(); !errors.Is(err, provider.ErrDuplicateTarget) {
		t.Fatalf("err = %v", err)
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" VidLink, ,2Embed.cc,")
	if len(got) != 2 || got[0] != "VidLink" || got[1] != "2Embed.cc" {
		t.Fatalf("SplitList = %q", got)
	}
	if SplitList("") != nil {
		t.Fatal("empty input should give nil")
	}
}

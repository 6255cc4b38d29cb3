package browser

import (
	"testing"

	"github.com/go-rod/rod/lib/proto"
)

func TestShouldBlock_DefaultList(t *testing.T) {
	b := newBlocker(DefaultBlocklist, nil)
	cases := []struct {
		url  string
		typ  proto.NetworkResourceType
		want bool
	}{
		{"https://securepubads.g.doubleclick.net/tag/js/gpt.js", proto.NetworkResourceTypeScript, true},
		{"https://www.GoogleTagManager.com/ANALYTICS.js", proto.NetworkResourceTypeScript, true},
		{"https://cdn.popcash.net/show.js", proto.NetworkResourceTypeScript, true},
		{"https://example.com/ads/banner.js", proto.NetworkResourceTypeScript, true},
		{"https://img.example.com/header-ad.png", proto.NetworkResourceTypeImage, true},
		{"https://img.example.com/poster.png", proto.NetworkResourceTypeImage, false},
		{"https://vidsrc.to/embed/movie/27205", proto.NetworkResourceTypeDocument, false},
		{"https://cdn.example.com/hls/master.m3u8", proto.NetworkResourceTypeXHR, false},
		{"https://cdn.example.com/load-ad.js", proto.NetworkResourceTypeScript, false},
	}
	for _, c := range cases {
		if got := b.shouldBlock(c.url, c.typ); got != c.want {
			t.Errorf("shouldBlock(%q, %s) = %v, want %v", c.url, c.typ, got, c.want)
		}
	}
}

func TestShouldBlock_ResourceTypes(t *testing.T) {
	b := newBlocker(nil, []string{"Fonts", "stylesheets"})
	if !b.shouldBlock("https://x/font.woff2", proto.NetworkResourceTypeFont) {
		t.Error("font should be blocked")
	}
	if !b.shouldBlock("https://x/site.css", proto.NetworkResourceTypeStylesheet) {
		t.Error("stylesheet should be blocked")
	}
	if b.shouldBlock("https://x/movie.mp4", proto.NetworkResourceTypeMedia) {
		t.Error("media must pass")
	}
}

func TestNewBlocker_NormalisesEntries(t *testing.T) {
	b := newBlocker([]string{"  ExoClick ", ""}, nil)
	if len(b.substrings) != 1 || b.substrings[0] != "exoclick" {
		t.Fatalf("substrings = %q", b.substrings)
	}
	if !b.shouldBlock("https://syndication.EXOCLICK.com/x", proto.NetworkResourceTypeScript) {
		t.Fatal("case-insensitive match failed")
	}
}

func TestViewportCenter(t *testing.T) {
	x, y := Viewport{Width: 1280, Height: 720}.Center()
	if x != 640 || y != 360 {
		t.Fatalf("center = %v,%v", x, y)
	}
}

func TestPageOptionsDefaults(t *testing.T) {
	var o PageOptions
	o.defaults()
	if o.UserAgent != DefaultUserAgent || o.Viewport.Width != 1280 || o.AcceptLanguage == "" {
		t.Fatalf("defaults = %+v", o)
	}
	if len(o.Blocklist) != len(DefaultBlocklist) {
		t.Fatalf("blocklist = %v", o.Blocklist)
	}

	o = PageOptions{Blocklist: []string{}}
	o.defaults()
	if len(o.Blocklist) != 0 {
		t.Fatal("explicit empty blocklist replaced")
	}
}

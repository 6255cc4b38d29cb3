package browser

import (
	"strings"
	"sync/atomic"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultBlocklist holds URL substrings of ad, popunder and tracking
// networks the embed providers pull in. Matching is case-insensitive.
var DefaultBlocklist = []string{
	"doubleclick", "googlesyndication", "googleadservices",
	"adservice", "adsystem", "adnxs", "advertising",
	"popads", "popcash", "popunder", "clickadu",
	"juicyads", "exoclick", "trafficjunky", "propellerads",
	"revcontent", "mgid", "taboola", "outbrain",
	"facebook.com/tr", "analytics", "tracker",
	"popup", ".ads.", "/ads/",
}

// blocker decides which requests a probe page aborts.
type blocker struct {
	substrings []string
	types      map[string]bool
	blocked    atomic.Int64
}

func newBlocker(substrings, resourceTypes []string) *blocker {
	b := &blocker{types: make(map[string]bool, len(resourceTypes))}
	for _, s := range substrings {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			b.substrings = append(b.substrings, s)
		}
	}
	for _, t := range resourceTypes {
		b.types[strings.ToLower(t)] = true
	}
	return b
}

// shouldBlock matches the URL against the blocklist. Images whose URL
// mentions "ad" are dropped too: banner creatives rarely sit on a listed
// domain.
func (b *blocker) shouldBlock(rawURL string, resType proto.NetworkResourceType) bool {
	u := strings.ToLower(rawURL)
	for _, s := range b.substrings {
		if strings.Contains(u, s) {
			return true
		}
	}
	typ := strings.ToLower(string(resType))
	if typ == "image" && strings.Contains(u, "ad") {
		return true
	}
	switch typ {
	case "image":
		return b.types["images"]
	case "font":
		return b.types["fonts"]
	case "stylesheet":
		return b.types["stylesheets"]
	}
	return b.types[typ]
}

// install routes every request of page through the blocker.
func (b *blocker) install(page *rod.Page) (*rod.HijackRouter, error) {
	router := page.HijackRequests()
	err := router.Add("*", "", func(h *rod.Hijack) {
		if b.shouldBlock(h.Request.URL().String(), h.Request.Type()) {
			b.blocked.Add(1)
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	if err != nil {
		return nil, err
	}
	go router.Run()
	return router, nil
}

func (b *blocker) count() int {
	return int(b.blocked.Load())
}

// Package provider holds the registry of third-party embed endpoints a run
// probes. A Target turns a Media into the URL of that provider's player.
package provider

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/yosida95/uritemplate/v3"
)

// ErrDuplicateTarget is returned when two targets share a name.
var ErrDuplicateTarget = errors.New("provider: duplicate target name")

// URLFunc builds a player URL for a media item.
type URLFunc func(Media) string

// Target is one embed provider. Immutable once built.
type Target struct {
	Name  string
	build URLFunc
}

// NewTarget creates a Target from an arbitrary URL builder.
func NewTarget(name string, build URLFunc) Target {
	return Target{Name: name, build: build}
}

// URL resolves the target's player URL for m.
func (t Target) URL(m Media) string {
	if t.build == nil {
		return ""
	}
	return t.build(m)
}

// FromTemplates builds a Target from two RFC 6570 templates. The tv template
// is used for episodic media, the movie template otherwise. Both may use
// {type}, {id}, {season} and {episode}.
func FromTemplates(name, movie, tv string) (Target, error) {
	mt, err := uritemplate.New(movie)
	if err != nil {
		return Target{}, fmt.Errorf("provider: %s: movie template: %w", name, err)
	}
	tt, err := uritemplate.New(tv)
	if err != nil {
		return Target{}, fmt.Errorf("provider: %s: tv template: %w", name, err)
	}
	return NewTarget(name, func(m Media) string {
		tmpl := mt
		if m.Episodic() {
			tmpl = tt
		}
		vals := uritemplate.Values{}
		vals.Set("type", uritemplate.String(string(m.Type)))
		vals.Set("id", uritemplate.String(strconv.Itoa(m.ID)))
		vals.Set("season", uritemplate.String(strconv.Itoa(m.Season)))
		vals.Set("episode", uritemplate.String(strconv.Itoa(m.Episode)))
		u, err := tmpl.Expand(vals)
		if err != nil {
			return ""
		}
		return u
	}), nil
}

func mustTemplates(name, movie, tv string) Target {
	t, err := FromTemplates(name, movie, tv)
	if err != nil {
		panic(err)
	}
	return t
}

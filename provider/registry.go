package provider

import "fmt"

// Registry is an ordered, read-only list of targets. The zero value is an
// empty registry and yields no probes.
type Registry struct {
	targets []Target
}

// NewRegistry builds a registry, rejecting duplicate names.
func NewRegistry(targets ...Target) (Registry, error) {
	seen := make(map[string]bool, len(targets))
	out := make([]Target, 0, len(targets))
	for _, t := range targets {
		if seen[t.Name] {
			return Registry{}, fmt.Errorf("%w: %q", ErrDuplicateTarget, t.Name)
		}
		seen[t.Name] = true
		out = append(out, t)
	}
	return Registry{targets: out}, nil
}

func mustRegistry(targets ...Target) Registry {
	r, err := NewRegistry(targets...)
	if err != nil {
		panic(err)
	}
	return r
}

// Targets returns a copy of the registry in order.
func (r Registry) Targets() []Target {
	out := make([]Target, len(r.targets))
	copy(out, r.targets)
	return out
}

// Len returns the number of targets.
func (r Registry) Len() int { return len(r.targets) }

// Names lists the target names in order.
func (r Registry) Names() []string {
	names := make([]string, len(r.targets))
	for i, t := range r.targets {
		names[i] = t.Name
	}
	return names
}

// Lookup finds a target by name.
func (r Registry) Lookup(name string) (Target, bool) {
	for _, t := range r.targets {
		if t.Name == name {
			return t, true
		}
	}
	return Target{}, false
}

// Only keeps the named targets, preserving registry order. Unknown names
// are ignored. No names means no filtering.
func (r Registry) Only(names ...string) Registry {
	if len(names) == 0 {
		return r
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var out []Target
	for _, t := range r.targets {
		if want[t.Name] {
			out = append(out, t)
		}
	}
	return Registry{targets: out}
}

// With returns a registry extended by extra targets.
func (r Registry) With(extra ...Target) (Registry, error) {
	all := make([]Target, 0, len(r.targets)+len(extra))
	all = append(all, r.targets...)
	all = append(all, extra...)
	return NewRegistry(all...)
}

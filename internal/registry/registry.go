// Package registry aggregates source adapters and their self-declared
// reference prefixes. Prefixes are never hard-coded here; adding an
// integration never touches this package.
package registry

import (
	"fmt"
	"sort"

	"github.com/vmunix/omnicast/internal/media"
)

// Registry holds adapters by source name plus the merged prefix table.
type Registry struct {
	adapters map[string]media.Adapter
	prefixes map[string]prefixEntry
}

type prefixEntry struct {
	adapter   media.Adapter
	transform func(string) string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		adapters: make(map[string]media.Adapter),
		prefixes: make(map[string]prefixEntry),
	}
}

// Register adds an adapter under its source name and merges its prefix
// declarations into the global table. Duplicate source names or prefixes
// are a startup configuration error and fail fast.
func (r *Registry) Register(a media.Adapter) error {
	name := a.Name()
	if _, exists := r.adapters[name]; exists {
		return fmt.Errorf("register adapter: duplicate source name %q", name)
	}
	// Validate all prefixes before mutating the table so a failed
	// registration leaves the registry unchanged. The seen set catches an
	// adapter declaring the same prefix twice in one call.
	seen := make(map[string]bool)
	for _, p := range a.Prefixes() {
		if p.Name == "" {
			return fmt.Errorf("register adapter %q: empty prefix", name)
		}
		if _, exists := r.prefixes[p.Name]; exists || seen[p.Name] {
			return fmt.Errorf("register adapter %q: duplicate prefix %q", name, p.Name)
		}
		seen[p.Name] = true
	}
	r.adapters[name] = a
	for _, p := range a.Prefixes() {
		r.prefixes[p.Name] = prefixEntry{adapter: a, transform: p.Transform}
	}
	return nil
}

// Get returns the adapter registered under name, or nil.
func (r *Registry) Get(name string) media.Adapter {
	return r.adapters[name]
}

// HasPrefix reports whether any adapter claims the given prefix.
func (r *Registry) HasPrefix(prefix string) bool {
	_, ok := r.prefixes[prefix]
	return ok
}

// ResolveFromPrefix maps a prefix and raw value to an adapter plus local
// id, applying the prefix's transform if one was declared. Returns nil
// adapter for unknown prefixes.
func (r *Registry) ResolveFromPrefix(prefix, value string) (media.Adapter, string) {
	e, ok := r.prefixes[prefix]
	if !ok {
		return nil, ""
	}
	if e.transform != nil {
		value = e.transform(value)
	}
	return e.adapter, value
}

// Resolve splits a compound id and looks up its adapter.
func (r *Registry) Resolve(compoundID string) (media.Adapter, string, error) {
	source, localID, err := media.SplitID(compoundID)
	if err != nil {
		return nil, "", err
	}
	a := r.adapters[source]
	if a == nil {
		return nil, "", fmt.Errorf("%w: unknown source %q", media.ErrNotFound, source)
	}
	return a, localID, nil
}

// Sources returns the registered source names, sorted.
func (r *Registry) Sources() []string {
	out := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

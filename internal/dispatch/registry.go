package dispatch

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
)

// DuplicatePolicy decides what NewRegistry does when two routes share a tag.
type DuplicatePolicy int

const (
	DuplicateReject DuplicatePolicy = iota
	// DuplicateOverride keeps the route that comes last in the list.
	DuplicateOverride
)

func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reject":
		return DuplicateReject, nil
	case "override":
		return DuplicateOverride, nil
	}
	return DuplicateReject, fmt.Errorf("unknown duplicate policy %q", s)
}

func (p DuplicatePolicy) String() string {
	if p == DuplicateOverride {
		return "override"
	}
	return "reject"
}

type registryConfig struct {
	duplicates DuplicatePolicy
	known      map[Tag]struct{}
	required   []Tag
}

type RegistryOption func(*registryConfig)

func WithDuplicatePolicy(p DuplicatePolicy) RegistryOption {
	return func(c *registryConfig) { c.duplicates = p }
}

// WithKnownTags closes the tag set: a route for any other tag is rejected.
func WithKnownTags(tags ...Tag) RegistryOption {
	return func(c *registryConfig) {
		if c.known == nil {
			c.known = make(map[Tag]struct{}, len(tags))
		}
		for _, t := range tags {
			c.known[t] = struct{}{}
		}
	}
}

// WithRequiredTags makes NewRegistry fail if any of tags has no route.
func WithRequiredTags(tags ...Tag) RegistryOption {
	return func(c *registryConfig) { c.required = append(c.required, tags...) }
}

// Registry maps tags to routes. It is immutable once NewRegistry returns,
// so lookups need no locking.
type Registry struct {
	routes map[Tag]*Route
}

// NewRegistry builds the tag table in one pass. All configuration defects are
// collected and returned together.
func NewRegistry(routes []Route, opts ...RegistryOption) (*Registry, error) {
	var cfg registryConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	table := make(map[Tag]*Route, len(routes))
	var errs []error
	for i := range routes {
		r := routes[i]
		if r.err != nil {
			errs = append(errs, r.err)
			continue
		}
		if cfg.known != nil {
			if _, ok := cfg.known[r.tag]; !ok {
				errs = append(errs, fmt.Errorf("%w: %q (%s)", ErrUnknownTag, r.tag, r.handler))
				continue
			}
		}
		if prev, ok := table[r.tag]; ok {
			if cfg.duplicates == DuplicateReject {
				errs = append(errs, fmt.Errorf("%w: %q served by %s and %s", ErrDuplicateTag, r.tag, prev.handler, r.handler))
				continue
			}
			log.Warn().Str("module", "dispatch").Str("tag", string(r.tag)).
				Str("replaced", prev.handler).Str("handler", r.handler).Msg("duplicate tag, last registration wins")
		}
		table[r.tag] = &r
	}
	for _, t := range cfg.required {
		if _, ok := table[t]; !ok {
			errs = append(errs, fmt.Errorf("%w: %q", ErrMissingTag, t))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	reg := &Registry{routes: table}
	log.Info().Str("module", "dispatch").Int("count", reg.Len()).Strs("tags", reg.tagStrings()).Msg("handlers registered")
	return reg, nil
}

// Lookup returns the route for tag, or false if none is registered.
func (r *Registry) Lookup(tag Tag) (*Route, bool) {
	route, ok := r.routes[tag]
	return route, ok
}

func (r *Registry) Len() int { return len(r.routes) }

// Tags returns the registered tags in sorted order.
func (r *Registry) Tags() []Tag {
	out := make([]Tag, 0, len(r.routes))
	for t := range r.routes {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

func (r *Registry) tagStrings() []string {
	tags := r.Tags()
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = string(t)
	}
	return out
}

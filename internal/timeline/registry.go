package timeline

import (
	"fmt"
	"sort"
)

// Registry maps identifiers to timelines. It is immutable after construction
// and safe for concurrent use.
type Registry struct {
	timelines map[Identifier]Timeline
	reduced   Timeline
	fallback  Timeline
}

// NewRegistry validates and registers the given timelines.
//
// A timeline registered under ReducedMotionID or FallbackID replaces the
// corresponding default. Timelines are deep-copied; later changes to the
// arguments do not leak into the registry.
func NewRegistry(timelines ...Timeline) (*Registry, error) {
	r := &Registry{
		timelines: make(map[Identifier]Timeline, len(timelines)),
		reduced:   ReducedMotion.clone(),
		fallback:  Fallback.clone(),
	}
	for _, tl := range timelines {
		if _, dup := r.timelines[tl.ID]; dup {
			return nil, &ValidationError{
				Code:    ErrDuplicateTimeline,
				Field:   "id",
				Message: fmt.Sprintf("timeline %q registered twice", tl.ID),
			}
		}
		if err := r.put(tl); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// With returns a new registry with the given timelines layered over r.
// Entries in timelines replace entries in r with the same identifier.
func (r *Registry) With(timelines ...Timeline) (*Registry, error) {
	out := &Registry{
		timelines: make(map[Identifier]Timeline, len(r.timelines)+len(timelines)),
		reduced:   r.reduced,
		fallback:  r.fallback,
	}
	for id, tl := range r.timelines {
		out.timelines[id] = tl
	}
	for _, tl := range timelines {
		if err := out.put(tl); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *Registry) put(tl Timeline) error {
	if errs := Validate(tl); len(errs) > 0 {
		return errs[0]
	}
	switch tl.ID {
	case ReducedMotionID:
		if !tl.SwitchesMode() {
			return &ValidationError{
				Code:    ErrReducedMotionNoSwitch,
				Field:   "phases",
				Message: "reduced-motion timeline must carry a mode-switch phase",
			}
		}
		r.reduced = tl.clone()
	case FallbackID:
		r.fallback = tl.clone()
	default:
		r.timelines[tl.ID] = tl.clone()
	}
	return nil
}

// Lookup returns the timeline to play for id.
//
// With reduced motion active the shared reduced-motion timeline is returned
// for every identifier. Otherwise the registered timeline is returned, or the
// fallback if id is unknown. Lookup never fails. The returned timeline shares
// storage with the registry and must be treated as read-only.
func (r *Registry) Lookup(id Identifier, reducedMotion bool) Timeline {
	if reducedMotion {
		return r.reduced
	}
	if tl, ok := r.timelines[id]; ok {
		return tl
	}
	return r.fallback
}

// Get returns the timeline registered for id without fallback substitution.
func (r *Registry) Get(id Identifier) (Timeline, bool) {
	switch id {
	case ReducedMotionID:
		return r.reduced, true
	case FallbackID:
		return r.fallback, true
	}
	tl, ok := r.timelines[id]
	return tl, ok
}

// Identifiers returns the registered identifiers in sorted order,
// excluding the reduced-motion and fallback timelines.
func (r *Registry) Identifiers() []Identifier {
	ids := make([]Identifier, 0, len(r.timelines))
	for id := range r.timelines {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Package timeline defines ceremony timelines and the registry that serves them.
//
// A Timeline is an immutable, declarative description of one ceremony: a total
// duration and an ordered list of phases, each animating one conceptual layer
// over a window of time. At most one phase carries the mode-switch action, the
// instant at which callers must flip their own mode state.
//
// # Registry
//
// Registry.Lookup never fails. Unknown identifiers resolve to Fallback, a
// near-instant crossfade that still switches modes. When reduced motion is
// active every identifier resolves to ReducedMotion, a short crossfade with the
// switch at its midpoint.
//
// # Sources
//
// Built-in timelines live in builtin.go. Custom timelines can be authored in
// CUE or YAML and layered over the built-ins with LoadDir and Registry.With.
// All timelines pass Validate before they enter a registry, and a registry is
// never mutated after construction.
package timeline

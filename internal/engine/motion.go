package engine

import "sync/atomic"

// MotionPreference reports the host's reduced-motion accessibility setting.
// The controller samples it once per Start.
type MotionPreference interface {
	ReducedMotion() bool
}

// MotionFunc adapts a function to MotionPreference.
type MotionFunc func() bool

// ReducedMotion implements MotionPreference.
func (f MotionFunc) ReducedMotion() bool {
	return f()
}

// StaticMotion is a MotionPreference that can be toggled at runtime.
//
// Thread-safety: safe for concurrent use.
type StaticMotion struct {
	reduced atomic.Bool
}

// NewStaticMotion creates a preference with the given initial value.
func NewStaticMotion(reduced bool) *StaticMotion {
	m := &StaticMotion{}
	m.reduced.Store(reduced)
	return m
}

// ReducedMotion implements MotionPreference.
func (m *StaticMotion) ReducedMotion() bool {
	return m.reduced.Load()
}

// Set changes the preference. Playbacks already running are unaffected.
func (m *StaticMotion) Set(reduced bool) {
	m.reduced.Store(reduced)
}

package engine

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// PlaybackIDGenerator generates identifiers for accepted playbacks.
// Implemented by UUIDv7Generator (production), SequentialGenerator (tests) and
// PlaybackIDFunc (replay).
type PlaybackIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 playback IDs.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// SequentialGenerator returns prefix-1, prefix-2, ... for deterministic traces.
//
// Thread-safety: SequentialGenerator is safe for concurrent use via internal mutex.
type SequentialGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialGenerator creates a generator with the given prefix.
func NewSequentialGenerator(prefix string) *SequentialGenerator {
	if prefix == "" {
		prefix = "playback"
	}
	return &SequentialGenerator{prefix: prefix}
}

// Generate returns the next identifier in sequence.
func (g *SequentialGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}

// PlaybackIDFunc adapts a function to PlaybackIDGenerator.
type PlaybackIDFunc func() string

// Generate implements PlaybackIDGenerator.
func (f PlaybackIDFunc) Generate() string {
	return f()
}

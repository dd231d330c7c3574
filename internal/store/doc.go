// Package store provides the SQLite-backed ceremony trace journal.
//
// The journal is a diagnostics log. Each recorded playback stores:
//   - Playbacks: ceremony, resolved timeline, timeline fingerprint, outcome
//   - Frames: every published update (kind, status, phase, elapsed, progress)
//
// Frames are keyed by (playback_id, seq) and always read back in seq order,
// so a replay sees samples in exactly the order they were recorded.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Playback outcomes.
const (
	OutcomeRunning   = "running"
	OutcomeComplete  = "complete"
	OutcomeCancelled = "cancelled"
)

// PlaybackRecord is one recorded playback.
type PlaybackRecord struct {
	ID            string
	Ceremony      string
	TimelineID    string
	TimelineHash  string
	ReducedMotion bool
	StartedAtNs   int64
	Outcome       string
}

// FrameRecord is one published update of a playback.
type FrameRecord struct {
	Seq       int64
	Kind      string
	Status    string
	Phase     string
	ElapsedNs int64
	Progress  float64
}

// WritePlayback inserts a playback, or updates its outcome if it exists.
func (s *Store) WritePlayback(ctx context.Context, p PlaybackRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO playbacks
		(id, ceremony, timeline_id, timeline_hash, reduced_motion, started_at_ns, outcome)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET outcome = excluded.outcome
	`,
		p.ID,
		p.Ceremony,
		p.TimelineID,
		p.TimelineHash,
		p.ReducedMotion,
		p.StartedAtNs,
		p.Outcome,
	)
	if err != nil {
		return fmt.Errorf("write playback: %w", err)
	}
	return nil
}

// WriteFrames appends frames for a playback in one transaction.
// Frames with an existing (playback, seq) are ignored, so rewriting a
// recording is idempotent.
func (s *Store) WriteFrames(ctx context.Context, playbackID string, frames []FrameRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write frames: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO frames
		(playback_id, seq, kind, status, phase, elapsed_ns, progress)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("write frames: %w", err)
	}
	defer stmt.Close()

	for _, f := range frames {
		if _, err := stmt.ExecContext(ctx, playbackID, f.Seq, f.Kind, f.Status, f.Phase, f.ElapsedNs, f.Progress); err != nil {
			return fmt.Errorf("write frame %d: %w", f.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write frames: %w", err)
	}
	return nil
}

// ReadPlayback returns a playback by ID, or ErrNotFound.
func (s *Store) ReadPlayback(ctx context.Context, id string) (PlaybackRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, ceremony, timeline_id, timeline_hash, reduced_motion, started_at_ns, outcome
		FROM playbacks
		WHERE id = ?
	`, id)

	p, err := scanPlayback(row)
	if errors.Is(err, sql.ErrNoRows) {
		return PlaybackRecord{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return PlaybackRecord{}, fmt.Errorf("read playback: %w", err)
	}
	return p, nil
}

// ListPlaybacks returns the most recent playbacks, newest first.
// A non-positive limit returns all of them.
func (s *Store) ListPlaybacks(ctx context.Context, limit int) ([]PlaybackRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ceremony, timeline_id, timeline_hash, reduced_motion, started_at_ns, outcome
		FROM playbacks
		ORDER BY started_at_ns DESC, id COLLATE BINARY ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query playbacks: %w", err)
	}
	defer rows.Close()

	out := []PlaybackRecord{}
	for rows.Next() {
		p, err := scanPlayback(rows)
		if err != nil {
			return nil, fmt.Errorf("scan playback: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playbacks: %w", err)
	}
	return out, nil
}

// ReadFrames returns the frames of a playback in seq order.
// Returns an empty slice (not nil) if none were recorded.
func (s *Store) ReadFrames(ctx context.Context, playbackID string) ([]FrameRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, kind, status, phase, elapsed_ns, progress
		FROM frames
		WHERE playback_id = ?
		ORDER BY seq ASC
	`, playbackID)
	if err != nil {
		return nil, fmt.Errorf("query frames: %w", err)
	}
	defer rows.Close()

	out := []FrameRecord{}
	for rows.Next() {
		var f FrameRecord
		if err := rows.Scan(&f.Seq, &f.Kind, &f.Status, &f.Phase, &f.ElapsedNs, &f.Progress); err != nil {
			return nil, fmt.Errorf("scan frame: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate frames: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlayback(row scanner) (PlaybackRecord, error) {
	var p PlaybackRecord
	err := row.Scan(&p.ID, &p.Ceremony, &p.TimelineID, &p.TimelineHash, &p.ReducedMotion, &p.StartedAtNs, &p.Outcome)
	return p, err
}

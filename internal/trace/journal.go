package trace

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/ceremony/internal/engine"
	"github.com/roach88/ceremony/internal/store"
	"github.com/roach88/ceremony/internal/timeline"
)

// Persist writes a recording to the journal.
func Persist(ctx context.Context, st *store.Store, rec Recording) error {
	err := st.WritePlayback(ctx, store.PlaybackRecord{
		ID:            rec.PlaybackID,
		Ceremony:      string(rec.Ceremony),
		TimelineID:    string(rec.Timeline),
		TimelineHash:  rec.TimelineHash,
		ReducedMotion: rec.ReducedMotion,
		StartedAtNs:   int64(rec.StartedAt),
		Outcome:       rec.Outcome,
	})
	if err != nil {
		return fmt.Errorf("persist recording %s: %w", rec.PlaybackID, err)
	}

	frames := make([]store.FrameRecord, len(rec.Frames))
	for i, f := range rec.Frames {
		frames[i] = store.FrameRecord{
			Seq:       f.Seq,
			Kind:      string(f.Kind),
			Status:    string(f.Status),
			Phase:     string(f.Phase),
			ElapsedNs: int64(f.Elapsed),
			Progress:  f.Progress,
		}
	}
	if err := st.WriteFrames(ctx, rec.PlaybackID, frames); err != nil {
		return fmt.Errorf("persist recording %s: %w", rec.PlaybackID, err)
	}
	return nil
}

// Load reads a recording back from the journal.
func Load(ctx context.Context, st *store.Store, playbackID string) (Recording, error) {
	p, err := st.ReadPlayback(ctx, playbackID)
	if err != nil {
		return Recording{}, err
	}
	frames, err := st.ReadFrames(ctx, playbackID)
	if err != nil {
		return Recording{}, err
	}

	rec := Recording{
		PlaybackID:    p.ID,
		Ceremony:      timeline.Identifier(p.Ceremony),
		Timeline:      timeline.Identifier(p.TimelineID),
		TimelineHash:  p.TimelineHash,
		ReducedMotion: p.ReducedMotion,
		StartedAt:     time.Duration(p.StartedAtNs),
		Outcome:       p.Outcome,
		Frames:        make([]Frame, len(frames)),
	}
	for i, f := range frames {
		rec.Frames[i] = Frame{
			Seq:      f.Seq,
			Kind:     engine.EventKind(f.Kind),
			Status:   engine.Status(f.Status),
			Phase:    timeline.PhaseID(f.Phase),
			Elapsed:  time.Duration(f.ElapsedNs),
			Progress: f.Progress,
		}
	}
	return rec, nil
}

package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ceremony/internal/timeline"
)

func runReplayCommand(t *testing.T, opts *RootOptions, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewReplayCommand(opts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestReplayMissingDatabase(t *testing.T) {
	_, err := runReplayCommand(t, &RootOptions{Format: "text"})
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestReplayEmptyDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	seedJournal(t, dbPath)

	output, err := runReplayCommand(t, &RootOptions{Format: "text"}, "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, output, "No playbacks found")
}

func TestReplayAllDeterministic(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	recs := seedJournal(t, dbPath, timeline.PrepToSession, timeline.SessionToPrep, timeline.EntityCreation)

	output, err := runReplayCommand(t, &RootOptions{Format: "text"}, "--db", dbPath)
	require.NoError(t, err)

	assert.Contains(t, output, "Replayed 3 playback(s)")
	for _, rec := range recs {
		assert.Contains(t, output, "✓ "+rec.PlaybackID)
	}
	assert.Contains(t, output, "✓ All playbacks deterministic")
}

func TestReplaySpecificPlaybackJSON(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	recs := seedJournal(t, dbPath, timeline.PrepToSession, timeline.KeyboardBypass)

	output, err := runReplayCommand(t, &RootOptions{Format: "json"}, "--db", dbPath, "--playback", recs[1].PlaybackID)
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   ReplayResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.AllDeterministic)
	require.Len(t, resp.Data.Playbacks, 1)
	assert.Equal(t, recs[1].PlaybackID, resp.Data.Playbacks[0].PlaybackID)
	assert.Equal(t, len(recs[1].Frames), resp.Data.Playbacks[0].Frames)
}

func TestReplayDetectsChangedTimeline(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	recs := seedJournal(t, dbPath, timeline.KeyboardBypass)

	// Override keyboard-bypass so the recording no longer matches.
	dir := t.TempDir()
	doc := `timelines:
  - id: keyboard-bypass
    total_ms: 600
    phases:
      - id: exit
        start_ms: 0
        duration_ms: 300
        target: outgoing
      - id: mode-switch
        start_ms: 300
        duration_ms: 0
        target: mode
        action: mode-switch
      - id: enter
        start_ms: 300
        duration_ms: 300
        target: incoming
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "override.yaml"), []byte(doc), 0644))

	output, err := runReplayCommand(t, &RootOptions{Format: "text", Timelines: dir}, "--db", dbPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, output, "✗ "+recs[0].PlaybackID)
	assert.Contains(t, output, "timeline fingerprint: recorded "+recs[0].TimelineHash)
}

func TestReplayUnknownPlayback(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	seedJournal(t, dbPath, timeline.KeyboardBypass)

	_, err := runReplayCommand(t, &RootOptions{Format: "text"}, "--db", dbPath, "--playback", "missing")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "playback not found")
}

func TestReplayHelpText(t *testing.T) {
	cmd := NewReplayCommand(&RootOptions{})
	assert.Contains(t, cmd.Long, "Exit codes")
	assert.Contains(t, cmd.Short, "determinism")
}

package cli

import (
	"context"

	"github.com/roach88/ceremony/internal/store"
	"github.com/roach88/ceremony/internal/trace"
)

// openJournal opens the playback journal at path.
func openJournal(path string) (*store.Store, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// persistRecording writes rec to the journal at path.
func persistRecording(ctx context.Context, path string, rec trace.Recording) error {
	st, err := openJournal(path)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := trace.Persist(ctx, st, rec); err != nil {
		return WrapExitError(ExitCommandError, "failed to persist playback", err)
	}
	return nil
}

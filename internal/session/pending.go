package session

import (
	"context"
	"fmt"
	"os"

	"resumetailor/internal/errors"

	"github.com/google/uuid"
)

// Stash sets a session aside while the user logs in. The stash is
// separate from the regular session file and is consumed by Restore.
func (fs *FileStore) Stash(ctx context.Context, s *Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateID(s.ID); err != nil {
		return err
	}
	if err := fs.writeRecord(fs.pendingPath(s.ID), s); err != nil {
		return err
	}
	if fs.logger != nil {
		fs.logger.Debug("Stashed session pending login", "session_id", s.ID)
	}
	return nil
}

// HasPending reports whether a stash exists for id
func (fs *FileStore) HasPending(id string) bool {
	if validateID(id) != nil {
		return false
	}
	_, err := os.Stat(fs.pendingPath(id))
	return err == nil
}

// Restore returns the stashed session and removes the stash. Only one
// caller can ever restore a given stash; later calls, and stashes older
// than the pending TTL, report PENDING_STATE_NOT_FOUND.
func (fs *FileStore) Restore(ctx context.Context, id string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateID(id); err != nil {
		return nil, err
	}

	// Claim the stash by renaming it; a concurrent restore loses the race.
	claimed := fs.pendingPath(id) + ".claim-" + uuid.NewString()
	if err := os.Rename(fs.pendingPath(id), claimed); err != nil {
		if os.IsNotExist(err) {
			return nil, pendingNotFound(id)
		}
		return nil, errors.NewIOError(errors.ErrCodeFileNotWritable, "failed to claim pending state", err)
	}
	defer func() { _ = os.Remove(claimed) }()

	s, savedAt, err := fs.readRecord(claimed)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, pendingNotFound(id)
		}
		return nil, err
	}

	if fs.pendingTTL > 0 && fs.now().Sub(savedAt) > fs.pendingTTL {
		if fs.logger != nil {
			fs.logger.Info("Discarding expired pending state", "session_id", id, "saved_at", savedAt)
		}
		return nil, pendingNotFound(id)
	}

	return s, nil
}

func pendingNotFound(id string) error {
	return errors.NewValidationError(errors.ErrCodePendingStateNotFound,
		fmt.Sprintf("no pending state for session %s", id), nil).WithContext("session_id", id)
}

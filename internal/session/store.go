package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"resumetailor/internal/errors"

	"github.com/google/uuid"
)

// StateVersion is the persisted record format this build reads and writes
const StateVersion = 1

const (
	recordExt  = ".json"
	pendingDir = "pending"
)

// Store persists sessions
type Store interface {
	Save(ctx context.Context, s *Session) error
	Load(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*Session, error)
}

// record is the on-disk envelope of a session
type record struct {
	Version int             `json:"version"`
	SavedAt time.Time       `json:"saved_at"`
	Session json.RawMessage `json:"session"`
}

// FileStore keeps one JSON file per session in a directory. Pending-login
// stashes live in a subdirectory.
type FileStore struct {
	dir        string
	pendingTTL time.Duration
	logger     *errors.Logger
	now        func() time.Time
}

// NewFileStore creates the state directory if needed
func NewFileStore(dir string, pendingTTL time.Duration, logger *errors.Logger) (*FileStore, error) {
	if dir == "" {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "session state directory is not set", nil)
	}
	if err := os.MkdirAll(filepath.Join(dir, pendingDir), 0700); err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotWritable,
			fmt.Sprintf("failed to create session directory %s", dir), err)
	}
	return &FileStore{
		dir:        dir,
		pendingTTL: pendingTTL,
		logger:     logger,
		now:        time.Now,
	}, nil
}

// Dir returns the directory holding session files
func (fs *FileStore) Dir() string {
	return fs.dir
}

// Path returns the file a session id is stored in
func (fs *FileStore) Path(id string) string {
	return filepath.Join(fs.dir, id+recordExt)
}

func (fs *FileStore) pendingPath(id string) string {
	return filepath.Join(fs.dir, pendingDir, id+recordExt)
}

// IDFromPath extracts the session id from a session file path
func IDFromPath(path string) (string, bool) {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, recordExt) {
		return "", false
	}
	id := strings.TrimSuffix(base, recordExt)
	if validateID(id) != nil {
		return "", false
	}
	return id, true
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.NewValidationError(errors.ErrCodeSessionNotFound,
			fmt.Sprintf("invalid session id %q", id), err)
	}
	return nil
}

// Save writes a session atomically
func (fs *FileStore) Save(ctx context.Context, s *Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateID(s.ID); err != nil {
		return err
	}
	return fs.writeRecord(fs.Path(s.ID), s)
}

// Load reads a session by id
func (fs *FileStore) Load(ctx context.Context, id string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateID(id); err != nil {
		return nil, err
	}
	s, _, err := fs.readRecord(fs.Path(id))
	if os.IsNotExist(err) {
		return nil, notFound(id)
	}
	return s, err
}

// Delete removes a session file
func (fs *FileStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateID(id); err != nil {
		return err
	}
	if err := os.Remove(fs.Path(id)); err != nil {
		if os.IsNotExist(err) {
			return notFound(id)
		}
		return errors.NewIOError(errors.ErrCodeFileNotWritable, "failed to delete session", err)
	}
	return nil
}

// List returns all readable sessions, most recently updated first
func (fs *FileStore) List(ctx context.Context) ([]*Session, error) {
	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to read session directory", err)
	}

	sessions := make([]*Session, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() {
			continue
		}
		if _, ok := IDFromPath(entry.Name()); !ok {
			continue
		}
		s, _, err := fs.readRecord(filepath.Join(fs.dir, entry.Name()))
		if err != nil {
			if fs.logger != nil {
				fs.logger.Warn("Skipping unreadable session file", "file", entry.Name(), "error", err)
			}
			continue
		}
		sessions = append(sessions, s)
	}

	slices.SortFunc(sessions, func(a, b *Session) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return sessions, nil
}

// Resolve expands a unique id prefix into a full session id
func (fs *FileStore) Resolve(prefix string) (string, error) {
	if validateID(prefix) == nil {
		return prefix, nil
	}
	if prefix == "" {
		return "", notFound(prefix)
	}
	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to read session directory", err)
	}
	var matches []string
	for _, entry := range entries {
		if id, ok := IDFromPath(entry.Name()); ok && strings.HasPrefix(id, prefix) {
			matches = append(matches, id)
		}
	}
	switch len(matches) {
	case 0:
		return "", notFound(prefix)
	case 1:
		return matches[0], nil
	default:
		return "", errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("session prefix %q is ambiguous (%d matches)", prefix, len(matches)), nil)
	}
}

func notFound(id string) error {
	return errors.NewIOError(errors.ErrCodeSessionNotFound,
		fmt.Sprintf("session %s not found", id), nil).WithContext("session_id", id)
}

func (fs *FileStore) writeRecord(path string, s *Session) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeInvalidFormat, "failed to encode session", err)
	}
	data, err := json.MarshalIndent(record{
		Version: StateVersion,
		SavedAt: fs.now().UTC(),
		Session: payload,
	}, "", "  ")
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeInvalidFormat, "failed to encode session record", err)
	}
	return writeFileAtomic(path, data)
}

// readRecord returns the raw os error for a missing file so callers can
// map it to their own not-found error
func (fs *FileStore) readRecord(path string) (*Session, time.Time, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, time.Time{}, err
		}
		return nil, time.Time{}, errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to read session file", err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, time.Time{}, errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("corrupt session file %s", filepath.Base(path)), err)
	}
	if rec.Version != StateVersion {
		return nil, time.Time{}, errors.NewValidationError(errors.ErrCodeStateVersionUnsupported,
			fmt.Sprintf("session file %s has version %d, expected %d", filepath.Base(path), rec.Version, StateVersion), nil)
	}

	var s Session
	if err := json.Unmarshal(rec.Session, &s); err != nil {
		return nil, time.Time{}, errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("corrupt session payload in %s", filepath.Base(path)), err)
	}
	return FromSnapshot(&s), rec.SavedAt, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return errors.NewIOError(errors.ErrCodeFileNotWritable, "failed to create temp file", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return errors.NewIOError(errors.ErrCodeFileNotWritable, "failed to write session file", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		_ = tmp.Close()
		cleanup()
		return errors.NewIOError(errors.ErrCodeFileNotWritable, "failed to set session file mode", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return errors.NewIOError(errors.ErrCodeFileNotWritable, "failed to sync session file", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return errors.NewIOError(errors.ErrCodeFileNotWritable, "failed to close session file", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return errors.NewIOError(errors.ErrCodeFileNotWritable, "failed to replace session file", err)
	}
	return nil
}

package session

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"resumetailor/internal/errors"
	"resumetailor/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	fs, err := NewFileStore(t.TempDir(), time.Hour, nil)
	require.NoError(t, err)
	return fs
}

func TestFileStoreSaveLoad(t *testing.T) {
	ctx := context.Background()
	fs := newTestStore(t)
	s := NewFromAnalysis(sampleAnalysis(), "JD")
	require.NoError(t, s.SetSuggestionStatus(0, 1, types.StatusAccepted))

	require.NoError(t, fs.Save(ctx, s))

	info, err := os.Stat(fs.Path(s.ID))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := fs.Load(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, loaded.ID)
	assert.Equal(t, s.Sections, loaded.Sections)
	assert.Equal(t, s.TailoredText(), loaded.TailoredText())
	assert.True(t, s.UpdatedAt.Equal(loaded.UpdatedAt))
}

func TestFileStoreErrors(t *testing.T) {
	ctx := context.Background()
	fs := newTestStore(t)

	_, err := fs.Load(ctx, "../../etc/passwd")
	assert.Error(t, err)

	_, err = fs.Load(ctx, "0b8f7e3c-5c43-4a43-9d56-0f6f8e6d2a10")
	assert.True(t, errors.HasCode(err, errors.ErrCodeSessionNotFound))

	err = fs.Delete(ctx, "0b8f7e3c-5c43-4a43-9d56-0f6f8e6d2a10")
	assert.True(t, errors.HasCode(err, errors.ErrCodeSessionNotFound))
}

func TestFileStoreRefusesUnknownVersion(t *testing.T) {
	fs := newTestStore(t)
	id := "0b8f7e3c-5c43-4a43-9d56-0f6f8e6d2a10"
	data := `{"version": 2, "saved_at": "2026-01-01T00:00:00Z", "session": {"id": "` + id + `"}}`
	require.NoError(t, os.WriteFile(fs.Path(id), []byte(data), 0600))

	_, err := fs.Load(context.Background(), id)
	assert.True(t, errors.HasCode(err, errors.ErrCodeStateVersionUnsupported))
}

func TestFileStoreListAndDelete(t *testing.T) {
	ctx := context.Background()
	fs := newTestStore(t)

	older := NewFromAnalysis(sampleAnalysis(), "")
	older.UpdatedAt = time.Now().Add(-time.Hour)
	newer := NewFromAnalysis(sampleAnalysis(), "")
	require.NoError(t, fs.Save(ctx, older))
	require.NoError(t, fs.Save(ctx, newer))
	require.NoError(t, os.WriteFile(filepath.Join(fs.Dir(), "notes.txt"), []byte("x"), 0600))

	list, err := fs.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)

	require.NoError(t, fs.Delete(ctx, older.ID))
	list, err = fs.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestFileStoreResolve(t *testing.T) {
	ctx := context.Background()
	fs := newTestStore(t)
	s := NewFromAnalysis(sampleAnalysis(), "")
	require.NoError(t, fs.Save(ctx, s))

	id, err := fs.Resolve(s.ID[:8])
	require.NoError(t, err)
	assert.Equal(t, s.ID, id)

	_, err = fs.Resolve("zzzz")
	assert.True(t, errors.HasCode(err, errors.ErrCodeSessionNotFound))
}

func TestPendingRestoreExactlyOnce(t *testing.T) {
	ctx := context.Background()
	fs := newTestStore(t)
	s := NewFromAnalysis(sampleAnalysis(), "JD")
	require.NoError(t, s.SetSuggestionStatus(0, 0, types.StatusAccepted))

	require.NoError(t, fs.Stash(ctx, s))
	assert.True(t, fs.HasPending(s.ID))

	restored, err := fs.Restore(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.Sections, restored.Sections)
	assert.False(t, fs.HasPending(s.ID))

	_, err = fs.Restore(ctx, s.ID)
	assert.True(t, errors.HasCode(err, errors.ErrCodePendingStateNotFound))
}

func TestPendingRestoreConcurrent(t *testing.T) {
	ctx := context.Background()
	fs := newTestStore(t)
	s := NewFromAnalysis(sampleAnalysis(), "")
	require.NoError(t, fs.Stash(ctx, s))

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := fs.Restore(ctx, s.ID); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, successes)
}

func TestPendingExpires(t *testing.T) {
	ctx := context.Background()
	fs := newTestStore(t)
	s := NewFromAnalysis(sampleAnalysis(), "")
	require.NoError(t, fs.Stash(ctx, s))

	fs.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err := fs.Restore(ctx, s.ID)
	assert.True(t, errors.HasCode(err, errors.ErrCodePendingStateNotFound))
	assert.False(t, fs.HasPending(s.ID))
}

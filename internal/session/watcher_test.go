package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"resumetailor/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherReportsChangedSession(t *testing.T) {
	ctx := context.Background()
	fs := newTestStore(t)
	s := NewFromAnalysis(sampleAnalysis(), "")
	require.NoError(t, fs.Save(ctx, s))

	changed := make(chan string, 4)
	w := NewWatcher(fs.Dir(), 50*time.Millisecond, func(id string) { changed <- id }, nil)
	require.NoError(t, w.Start())
	defer func() { _ = w.Stop() }()
	assert.True(t, w.IsRunning())

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, s.SetSuggestionStatus(0, 0, types.StatusAccepted))
	require.NoError(t, fs.Save(ctx, s))

	select {
	case id := <-changed:
		assert.Equal(t, s.ID, id)
	case <-time.After(3 * time.Second):
		t.Fatal("expected a change notification")
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	changed := make(chan string, 4)
	w := NewWatcher(dir, 20*time.Millisecond, func(id string) { changed <- id }, nil)
	require.NoError(t, w.Start())
	defer func() { _ = w.Stop() }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".tmp-123"), []byte("x"), 0600))

	select {
	case id := <-changed:
		t.Fatalf("unexpected notification for %s", id)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcherStartTwice(t *testing.T) {
	w := NewWatcher(t.TempDir(), 0, func(string) {}, nil)
	require.NoError(t, w.Start())
	assert.Error(t, w.Start())
	require.NoError(t, w.Stop())
	assert.False(t, w.IsRunning())
	assert.NoError(t, w.Stop())
}

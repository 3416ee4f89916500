package session

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"resumetailor/internal/errors"
	"resumetailor/internal/reconcile"
	"resumetailor/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerUpdatePersists(t *testing.T) {
	ctx := context.Background()
	fs := newTestStore(t)
	m := NewManager(fs, reconcile.NewMatchCache(8), nil)

	s := NewFromAnalysis(sampleAnalysis(), "")
	require.NoError(t, m.Create(ctx, s))
	assert.Equal(t, 1, m.Count())

	require.NoError(t, m.Update(ctx, s.ID, func(s *Session) error {
		return s.SetSuggestionStatus(0, 0, types.StatusAccepted)
	}))

	stored, err := fs.Load(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusAccepted, stored.Sections[0].Edits[0].Status)
}

func TestManagerFailedUpdateNotPersisted(t *testing.T) {
	ctx := context.Background()
	fs := newTestStore(t)
	m := NewManager(fs, nil, nil)

	s := NewFromAnalysis(sampleAnalysis(), "")
	require.NoError(t, m.Create(ctx, s))

	err := m.Update(ctx, s.ID, func(s *Session) error {
		return fmt.Errorf("upstream failed")
	})
	require.Error(t, err)

	stored, err := fs.Load(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.UpdatedAt.UnixNano(), stored.UpdatedAt.UnixNano())
}

type failingStore struct {
	Store
	failSave bool
}

func (f *failingStore) Save(ctx context.Context, s *Session) error {
	if f.failSave {
		return errors.NewIOError(errors.ErrCodeFileNotWritable, "disk full", nil)
	}
	return f.Store.Save(ctx, s)
}

func TestManagerUpdateRollsBackOnSaveFailure(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{Store: newTestStore(t)}
	m := NewManager(store, nil, nil)

	s := NewFromAnalysis(sampleAnalysis(), "")
	require.NoError(t, m.Create(ctx, s))

	store.failSave = true
	err := m.Update(ctx, s.ID, func(s *Session) error {
		return s.SetSuggestionStatus(0, 0, types.StatusRejected)
	})
	require.Error(t, err)

	require.NoError(t, m.View(ctx, s.ID, func(live *Session) error {
		assert.Equal(t, types.StatusPending, live.Sections[0].Edits[0].Status)
		return nil
	}))

	store.failSave = false
	require.NoError(t, m.Update(ctx, s.ID, func(s *Session) error {
		return s.SetSuggestionStatus(0, 0, types.StatusAccepted)
	}))
	require.NoError(t, m.View(ctx, s.ID, func(live *Session) error {
		assert.Equal(t, types.StatusAccepted, live.Sections[0].Edits[0].Status)
		return nil
	}))
}

func TestManagerPutReplacesTrackedSession(t *testing.T) {
	ctx := context.Background()
	fs := newTestStore(t)
	m := NewManager(fs, reconcile.NewMatchCache(8), nil)

	s := NewFromAnalysis(sampleAnalysis(), "")
	require.NoError(t, m.Create(ctx, s))

	var ticket Ticket
	require.NoError(t, m.View(ctx, s.ID, func(live *Session) error {
		ticket = live.BeginRequest()
		return nil
	}))

	restored := s.Snapshot()
	require.NoError(t, restored.SetSuggestionStatus(0, 1, types.StatusAccepted))
	snap, err := m.Put(ctx, restored)
	require.NoError(t, err)
	assert.Equal(t, types.StatusAccepted, snap.Sections[0].Edits[1].Status)
	assert.Equal(t, 1, m.Count())

	require.NoError(t, m.View(ctx, s.ID, func(live *Session) error {
		assert.Same(t, s, live, "the tracked session must be updated in place")
		assert.Equal(t, types.StatusAccepted, live.Sections[0].Edits[1].Status)
		return live.CheckCurrent(ticket)
	}))

	stored, err := fs.Load(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusAccepted, stored.Sections[0].Edits[1].Status)
}

func TestManagerPutTracksNewSession(t *testing.T) {
	ctx := context.Background()
	fs := newTestStore(t)
	m := NewManager(fs, nil, nil)

	s := NewFromAnalysis(sampleAnalysis(), "")
	snap, err := m.Put(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, s.ID, snap.ID)
	assert.Equal(t, 1, m.Count())

	_, err = fs.Load(ctx, s.ID)
	require.NoError(t, err)
}

func TestManagerLoadsFromStore(t *testing.T) {
	ctx := context.Background()
	fs := newTestStore(t)
	s := NewFromAnalysis(sampleAnalysis(), "")
	require.NoError(t, fs.Save(ctx, s))

	m := NewManager(fs, nil, nil)
	var filename string
	require.NoError(t, m.View(ctx, s.ID, func(s *Session) error {
		filename = s.Filename
		return nil
	}))
	assert.Equal(t, "jane_doe.pdf", filename)

	err := m.View(ctx, "0b8f7e3c-5c43-4a43-9d56-0f6f8e6d2a10", func(*Session) error { return nil })
	assert.True(t, errors.HasCode(err, errors.ErrCodeSessionNotFound))
}

func TestManagerRefreshKeepsGuard(t *testing.T) {
	ctx := context.Background()
	fs := newTestStore(t)
	m := NewManager(fs, nil, nil)

	s := NewFromAnalysis(sampleAnalysis(), "")
	require.NoError(t, m.Create(ctx, s))

	var ticket Ticket
	require.NoError(t, m.View(ctx, s.ID, func(s *Session) error {
		ticket = s.BeginRequest()
		return nil
	}))

	// another process edits the file
	external, err := fs.Load(ctx, s.ID)
	require.NoError(t, err)
	require.NoError(t, external.SetSuggestionStatus(1, 0, types.StatusRejected))
	external.UpdatedAt = time.Now().Add(time.Minute)
	require.NoError(t, fs.Save(ctx, external))

	require.NoError(t, m.Refresh(ctx, s.ID))

	require.NoError(t, m.View(ctx, s.ID, func(s *Session) error {
		assert.Equal(t, types.StatusRejected, s.Sections[1].Edits[0].Status)
		return s.CheckCurrent(ticket)
	}))
}

func TestManagerRefreshDeleted(t *testing.T) {
	ctx := context.Background()
	fs := newTestStore(t)
	m := NewManager(fs, nil, nil)

	s := NewFromAnalysis(sampleAnalysis(), "")
	require.NoError(t, m.Create(ctx, s))
	require.NoError(t, os.Remove(fs.Path(s.ID)))

	require.NoError(t, m.Refresh(ctx, s.ID))
	assert.Equal(t, 0, m.Count())
}

func TestManagerDelete(t *testing.T) {
	ctx := context.Background()
	fs := newTestStore(t)
	m := NewManager(fs, nil, nil)

	s := NewFromAnalysis(sampleAnalysis(), "")
	require.NoError(t, m.Create(ctx, s))
	require.NoError(t, m.Delete(ctx, s.ID))

	assert.Equal(t, 0, m.Count())
	_, err := fs.Load(ctx, s.ID)
	assert.Error(t, err)
}

package session

import (
	"context"
	"sync"

	"resumetailor/internal/errors"
	"resumetailor/internal/reconcile"
)

type entry struct {
	mu      sync.Mutex
	session *Session
}

// Manager keeps live sessions in memory on top of a Store and serializes
// access to each one
type Manager struct {
	mu      sync.Mutex
	entries map[string]*entry
	store   Store
	cache   *reconcile.MatchCache
	logger  *errors.Logger
}

// NewManager creates a session manager
func NewManager(store Store, cache *reconcile.MatchCache, logger *errors.Logger) *Manager {
	return &Manager{
		entries: make(map[string]*entry),
		store:   store,
		cache:   cache,
		logger:  logger,
	}
}

// Create persists a new session and starts tracking it
func (m *Manager) Create(ctx context.Context, s *Session) error {
	s.UseCache(m.cache)
	if err := m.store.Save(ctx, s); err != nil {
		return err
	}
	m.mu.Lock()
	m.entries[s.ID] = &entry{session: s}
	m.mu.Unlock()
	return nil
}

func (m *Manager) get(ctx context.Context, id string) (*entry, error) {
	m.mu.Lock()
	e, ok := m.entries[id]
	m.mu.Unlock()
	if ok {
		return e, nil
	}

	s, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.UseCache(m.cache)

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.entries[id]; ok {
		return existing, nil
	}
	e = &entry{session: s}
	m.entries[id] = e
	return e, nil
}

// View runs fn with exclusive access to a session without persisting it
func (m *Manager) View(ctx context.Context, id string, fn func(*Session) error) error {
	e, err := m.get(ctx, id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.session)
}

// Update runs fn with exclusive access to a session and persists the
// result. When fn or the save fails the session keeps its previous data.
func (m *Manager) Update(ctx context.Context, id string, fn func(*Session) error) error {
	e, err := m.get(ctx, id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	// section mutations are copy-on-write, so a shallow copy is enough
	// to roll back
	before := e.session.Snapshot()
	if err := fn(e.session); err != nil {
		e.session.replaceData(before)
		return err
	}
	if err := m.store.Save(ctx, e.session); err != nil {
		e.session.replaceData(before)
		return err
	}
	return nil
}

// Put persists s as the data for its id and returns a snapshot. A tracked
// session takes the new data in place and keeps its lock, guards and
// cache.
func (m *Manager) Put(ctx context.Context, s *Session) (*Session, error) {
	m.mu.Lock()
	e, ok := m.entries[s.ID]
	if !ok {
		s.UseCache(m.cache)
		e = &entry{session: s}
		e.mu.Lock()
		m.entries[s.ID] = e
		m.mu.Unlock()
		defer e.mu.Unlock()
		if err := m.store.Save(ctx, s); err != nil {
			m.mu.Lock()
			if m.entries[s.ID] == e {
				delete(m.entries, s.ID)
			}
			m.mu.Unlock()
			return nil, err
		}
		return s.Snapshot(), nil
	}
	m.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	before := e.session.Snapshot()
	e.session.replaceData(s)
	if err := m.store.Save(ctx, e.session); err != nil {
		e.session.replaceData(before)
		return nil, err
	}
	return e.session.Snapshot(), nil
}

// Delete forgets a session and removes it from the store
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.entries, id)
	m.mu.Unlock()
	return m.store.Delete(ctx, id)
}

// Refresh reloads a tracked session from the store. Untracked sessions
// are ignored; they load on first use.
func (m *Manager) Refresh(ctx context.Context, id string) error {
	m.mu.Lock()
	e, ok := m.entries[id]
	m.mu.Unlock()
	if !ok {
		return nil
	}

	loaded, err := m.store.Load(ctx, id)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeSessionNotFound) {
			m.mu.Lock()
			delete(m.entries, id)
			m.mu.Unlock()
			return nil
		}
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !loaded.UpdatedAt.After(e.session.UpdatedAt) {
		return nil
	}
	e.session.replaceData(loaded)
	if m.logger != nil {
		m.logger.Debug("Session reloaded from disk", "session_id", id)
	}
	return nil
}

// Count returns the number of tracked sessions
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// GetStats returns manager statistics
func (m *Manager) GetStats() map[string]any {
	return map[string]any{
		"active_sessions": m.Count(),
		"match_cache":     m.cache.GetStats(),
	}
}

package session

import (
	"context"
	"sort"
	"sync"

	agenterrors "copilot/internal/errors"
	"copilot/internal/logging"
)

// MemoryStore is an in-process Store used by tests and single-node
// deployments. It hands out clones so no two requests share an aggregate.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	logger   logging.Logger
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		logger:   logging.NewComponentLogger("SessionMemoryStore"),
	}
}

var _ Store = (*MemoryStore)(nil)

func (m *MemoryStore) GetByID(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, agenterrors.New(agenterrors.KindNotFound, "session %s not found", id)
	}
	return s.Clone(), nil
}

func (m *MemoryStore) GetByOwner(ctx context.Context, ownerID string) ([]*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Session
	for _, s := range m.sessions {
		if s.OwnerID == ownerID {
			out = append(out, s.Clone())
		}
	}
	// Newest first, matching the owner listing of the session API.
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) ListActive(ctx context.Context) ([]*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Session
	for _, s := range m.sessions {
		if s.Status == StatusActive {
			out = append(out, s.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) Add(ctx context.Context, s *Session) error {
	if s == nil || s.ID == "" {
		return agenterrors.New(agenterrors.KindInvalidArgument, "session id is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[s.ID]; exists {
		return agenterrors.New(agenterrors.KindConflict, "session %s already exists", s.ID)
	}

	finalizeSequences(s.Messages, 0)
	s.Version = 1
	m.sessions[s.ID] = s.Clone()
	m.logger.Debug("Added session %s for owner %s", s.ID, s.OwnerID)
	return nil
}

func (m *MemoryStore) Update(ctx context.Context, s *Session) error {
	if s == nil || s.ID == "" {
		return agenterrors.New(agenterrors.KindInvalidArgument, "session id is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.sessions[s.ID]
	if !ok {
		return agenterrors.New(agenterrors.KindNotFound, "session %s not found", s.ID)
	}
	if stored.Version != s.Version {
		return agenterrors.New(agenterrors.KindConflict,
			"session %s version %d does not match stored version %d", s.ID, s.Version, stored.Version)
	}

	finalizeSequences(s.Messages, len(stored.Messages))
	s.Version++
	m.sessions[s.ID] = s.Clone()
	m.logger.Debug("Updated session %s to version %d (%d messages)", s.ID, s.Version, len(s.Messages))
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return agenterrors.New(agenterrors.KindNotFound, "session %s not found", id)
	}
	delete(m.sessions, id)
	return nil
}

func (m *MemoryStore) Exists(ctx context.Context, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.sessions[id]
	return ok, nil
}

package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/twsgraph/pkg/domain"
)

// Store implements ports.WorkspaceStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Workspace
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Workspace),
	}
}

// Save persists the workspace in memory.
func (s *Store) Save(ctx context.Context, ws *domain.Workspace) error {
	copied := clone(ws)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[ws.ID] = copied
	return nil
}

// Load retrieves the workspace from memory.
func (s *Store) Load(ctx context.Context, id string) (*domain.Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ws, ok := s.data[id]
	if !ok {
		return nil, domain.ErrWorkspaceNotFound
	}

	// Copy on read so callers can't mutate store state directly by pointer
	return clone(ws), nil
}

// Delete removes the workspace.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns the stored workspace ids in ascending order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// clone copies the mutable parts of a workspace. Datasets and graphs are
// replaced, never modified in place, so they are shared.
func clone(ws *domain.Workspace) *domain.Workspace {
	c := *ws
	if ws.Options != nil {
		opts := *ws.Options
		c.Options = &opts
	}
	return &c
}

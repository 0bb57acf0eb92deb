package campaigns

import (
	"context"
	"errors"
	"sort"
	"sync"
)

var ErrNotFound = errors.New("campaigns: not found")

// Store persists campaigns per workspace.
type Store interface {
	Insert(ctx context.Context, c Campaign) error
	Get(ctx context.Context, workspaceID, id string) (Campaign, error)
	List(ctx context.Context, workspaceID string) ([]Campaign, error)
	Update(ctx context.Context, c Campaign) error
}

// MemoryStore is an in-memory Store used in tests and local development.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[string]Campaign
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string]Campaign)}
}

func (s *MemoryStore) Insert(ctx context.Context, c Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[c.ID] = c
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, workspaceID, id string) (Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.rows[id]
	if !ok || c.WorkspaceID != workspaceID {
		return Campaign{}, ErrNotFound
	}
	return c, nil
}

func (s *MemoryStore) List(ctx context.Context, workspaceID string) ([]Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Campaign
	for _, c := range s.rows {
		if c.WorkspaceID == workspaceID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) Update(ctx context.Context, c Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.rows[c.ID]
	if !ok || prev.WorkspaceID != c.WorkspaceID {
		return ErrNotFound
	}
	s.rows[c.ID] = c
	return nil
}

package sop

import (
	"context"
	"errors"
	"sort"
	"sync"
)

var ErrNotFound = errors.New("sop: record not found")

// Store persists generated SOPs per workspace.
type Store interface {
	Insert(ctx context.Context, r Record) error
	Get(ctx context.Context, workspaceID, id string) (Record, error)
	List(ctx context.Context, workspaceID string) ([]Record, error)
}

// MemoryStore is an in-memory Store used in tests and local development.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string]Record)}
}

func (s *MemoryStore) Insert(ctx context.Context, r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[r.ID] = r
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, workspaceID, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rows[id]
	if !ok || r.WorkspaceID != workspaceID {
		return Record{}, ErrNotFound
	}
	return r, nil
}

func (s *MemoryStore) List(ctx context.Context, workspaceID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Record
	for _, r := range s.rows {
		if r.WorkspaceID == workspaceID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

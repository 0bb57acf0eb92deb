package integrations

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store for tests.
type MemoryStore struct {
	mu   sync.Mutex
	rows map[string]Integration // key: workspace_id|provider
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: map[string]Integration{}}
}

func key(workspaceID, provider string) string { return workspaceID + "|" + provider }

func (s *MemoryStore) ListActiveByProvider(ctx context.Context, provider string) ([]Integration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Integration, 0)
	for _, rec := range s.rows {
		if rec.Provider == provider && rec.Status == StatusActive {
			out = append(out, cloneIntegration(rec))
		}
	}
	return out, nil
}

func (s *MemoryStore) GetByProvider(ctx context.Context, workspaceID, provider string) (Integration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.rows[key(workspaceID, provider)]
	if !ok {
		return Integration{}, ErrNotFound
	}
	return cloneIntegration(rec), nil
}

func (s *MemoryStore) List(ctx context.Context, workspaceID string) ([]Integration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Integration, 0)
	for _, rec := range s.rows {
		if rec.WorkspaceID == workspaceID {
			out = append(out, cloneIntegration(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) Upsert(ctx context.Context, rec Integration) error {
	if rec.ID == "" || rec.WorkspaceID == "" || rec.Provider == "" {
		return ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[key(rec.WorkspaceID, rec.Provider)] = cloneIntegration(rec)
	return nil
}

func cloneIntegration(rec Integration) Integration {
	out := rec
	if rec.Config != nil {
		out.Config = make(map[string]string, len(rec.Config))
		for k, v := range rec.Config {
			out.Config[k] = v
		}
	}
	return out
}

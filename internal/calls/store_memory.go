package calls

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for tests and early development.
// It enforces workspace isolation on every operation.
type MemoryStore struct {
	mu   sync.Mutex
	rows map[string]Call
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: map[string]Call{}}
}

func (s *MemoryStore) Insert(ctx context.Context, c Call) error {
	if c.ID == "" || c.WorkspaceID == "" {
		return ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[c.ID] = cloneCall(c)
	return nil
}

func (s *MemoryStore) GetByID(ctx context.Context, workspaceID, id string) (Call, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.rows[id]
	if !ok || c.WorkspaceID != workspaceID {
		return Call{}, ErrNotFound
	}
	return cloneCall(c), nil
}

func (s *MemoryStore) FindByProviderCallID(ctx context.Context, workspaceID, providerCallID string) (Call, error) {
	if providerCallID == "" {
		return Call{}, ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var found *Call
	for _, c := range s.rows {
		if c.WorkspaceID != workspaceID || c.ProviderCallID() != providerCallID {
			continue
		}
		c := c
		if found == nil || c.StartedAt.After(found.StartedAt) {
			found = &c
		}
	}
	if found == nil {
		return Call{}, ErrNotFound
	}
	return cloneCall(*found), nil
}

func (s *MemoryStore) LatestActive(ctx context.Context, workspaceID string) (Call, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var found *Call
	for _, c := range s.rows {
		if c.WorkspaceID != workspaceID || c.Status != CallStatusActive {
			continue
		}
		c := c
		if found == nil || c.StartedAt.After(found.StartedAt) {
			found = &c
		}
	}
	if found == nil {
		return Call{}, ErrNotFound
	}
	return cloneCall(*found), nil
}

func (s *MemoryStore) ApplyTurn(ctx context.Context, workspaceID, id string, u TurnUpdate, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.rows[id]
	if !ok || c.WorkspaceID != workspaceID {
		return ErrNotFound
	}
	// Terminal rows are immutable; a late turn must not revive or restamp
	// an ended call.
	if c.Status != CallStatusActive && c.Status != CallStatusRinging {
		return ErrNotFound
	}
	c.LastTranscript = u.Transcript
	c.LastRecordingURL = u.RecordingURL
	if u.Metadata != nil {
		c.Metadata = cloneMeta(u.Metadata)
	}
	if u.Terminal {
		status := u.TerminalStatus
		if status == "" {
			status = CallStatusCompleted
		}
		c.Status = status
		t := now
		c.EndedAt = &t
		c.DurationSeconds = durationSince(c.StartedAt, now)
	}
	c.UpdatedAt = now
	s.rows[id] = c
	return nil
}

func (s *MemoryStore) End(ctx context.Context, workspaceID, id string, status CallStatus, durationSeconds int, now time.Time) error {
	if !status.IsTerminal() {
		return ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.rows[id]
	if !ok || c.WorkspaceID != workspaceID {
		return ErrNotFound
	}
	if c.Status != CallStatusActive && c.Status != CallStatusRinging {
		return ErrNotFound
	}
	c.Status = status
	t := now
	c.EndedAt = &t
	if durationSeconds > 0 {
		c.DurationSeconds = durationSeconds
	} else {
		c.DurationSeconds = durationSince(c.StartedAt, now)
	}
	c.UpdatedAt = now
	s.rows[id] = c
	return nil
}

func (s *MemoryStore) SetStatus(ctx context.Context, workspaceID, id string, status CallStatus, durationSeconds int, now time.Time) error {
	if status.IsTerminal() {
		return s.End(ctx, workspaceID, id, status, durationSeconds, now)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.rows[id]
	if !ok || c.WorkspaceID != workspaceID {
		return ErrNotFound
	}
	if c.Status.IsTerminal() {
		return ErrNotFound
	}
	c.Status = status
	if durationSeconds > 0 {
		c.DurationSeconds = durationSeconds
	}
	c.UpdatedAt = now
	s.rows[id] = c
	return nil
}

func (s *MemoryStore) List(ctx context.Context, workspaceID string, limit int) ([]Call, error) {
	if limit <= 0 {
		limit = 100
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, 0)
	for _, c := range s.rows {
		if c.WorkspaceID == workspaceID {
			out = append(out, cloneCall(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) ListRange(ctx context.Context, workspaceID string, from, to time.Time) ([]Call, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, 0)
	for _, c := range s.rows {
		if c.WorkspaceID != workspaceID {
			continue
		}
		if c.StartedAt.Before(from) || !c.StartedAt.Before(to) {
			continue
		}
		out = append(out, cloneCall(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out, nil
}

func cloneCall(c Call) Call {
	out := c
	out.Metadata = cloneMeta(c.Metadata)
	if c.EndedAt != nil {
		t := *c.EndedAt
		out.EndedAt = &t
	}
	return out
}

func cloneMeta(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func durationSince(start, end time.Time) int {
	d := int(end.Sub(start) / time.Second)
	if d < 0 {
		return 0
	}
	return d
}

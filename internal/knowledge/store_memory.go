package knowledge

import (
	"context"
	"math"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store with brute-force cosine search, used in
// tests and local development.
type MemoryStore struct {
	mu     sync.RWMutex
	docs   map[string]Document
	chunks []memoryChunk
}

type memoryChunk struct {
	workspaceID string
	chunk       Chunk
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]Document)}
}

func (s *MemoryStore) InsertDocument(ctx context.Context, d Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[d.ID] = d
	return nil
}

func (s *MemoryStore) GetDocument(ctx context.Context, workspaceID, id string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[id]
	if !ok || d.WorkspaceID != workspaceID {
		return Document{}, ErrNotFound
	}
	return d, nil
}

func (s *MemoryStore) ListDocuments(ctx context.Context, workspaceID string) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var docs []Document
	for _, d := range s.docs {
		if d.WorkspaceID == workspaceID {
			docs = append(docs, d)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].CreatedAt.After(docs[j].CreatedAt) })
	return docs, nil
}

func (s *MemoryStore) UpdateDocumentStatus(ctx context.Context, workspaceID, id string, status DocumentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[id]
	if !ok || d.WorkspaceID != workspaceID {
		return ErrNotFound
	}
	d.Status = status
	s.docs[id] = d
	return nil
}

func (s *MemoryStore) DeleteDocument(ctx context.Context, workspaceID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[id]
	if !ok || d.WorkspaceID != workspaceID {
		return ErrNotFound
	}
	delete(s.docs, id)
	kept := s.chunks[:0]
	for _, c := range s.chunks {
		if c.chunk.DocumentID != id {
			kept = append(kept, c)
		}
	}
	s.chunks = kept
	return nil
}

func (s *MemoryStore) InsertChunk(ctx context.Context, workspaceID string, c Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = append(s.chunks, memoryChunk{workspaceID: workspaceID, chunk: c})
	return nil
}

func (s *MemoryStore) MatchChunks(ctx context.Context, workspaceID string, query []float64, threshold float64, count int) ([]Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matches []Match
	for _, c := range s.chunks {
		if c.workspaceID != workspaceID {
			continue
		}
		sim := cosineSimilarity(query, c.chunk.Embedding)
		if sim >= threshold {
			matches = append(matches, Match{DocumentID: c.chunk.DocumentID, Content: c.chunk.Content, Similarity: sim})
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Similarity > matches[j].Similarity })
	if count > 0 && len(matches) > count {
		matches = matches[:count]
	}
	return matches, nil
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

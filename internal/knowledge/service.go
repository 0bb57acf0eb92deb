package knowledge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Embedder turns text into a vector. ai.Client satisfies it.
type Embedder interface {
	Embed(ctx context.Context, input string) ([]float64, error)
}

const (
	matchThreshold = 0.5
	matchCount     = 3
)

// Service handles document ingestion and retrieval for one knowledge base
// per workspace.
type Service struct {
	store    Store
	embedder Embedder
	clock    func() time.Time
}

func NewService(store Store, embedder Embedder) *Service {
	return &Service{store: store, embedder: embedder, clock: time.Now}
}

// WithClock overrides the timestamp source, used in tests.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

type UploadRequest struct {
	WorkspaceID string
	Title       string
	Category    string
	FileName    string
	Content     string
	CreatedBy   string
}

// Upload stores a document and embeds its chunks. Only plain-text sources are
// accepted. The document lands in status processing and moves to ready once
// every chunk is embedded, or failed if embedding breaks partway.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (Document, error) {
	if req.WorkspaceID == "" {
		return Document{}, errors.New("knowledge: workspace id is required")
	}
	if strings.TrimSpace(req.Content) == "" {
		return Document{}, errors.New("knowledge: document content is empty")
	}
	if !acceptedFileName(req.FileName) {
		return Document{}, fmt.Errorf("knowledge: unsupported file type %q, only .txt and .md are accepted", req.FileName)
	}
	if s.embedder == nil {
		return Document{}, errors.New("knowledge: embedding is not configured")
	}

	title := req.Title
	if title == "" {
		title = req.FileName
	}
	now := s.clock().UTC()
	doc := Document{
		ID:          uuid.NewString(),
		WorkspaceID: req.WorkspaceID,
		Title:       title,
		Category:    req.Category,
		FileType:    "txt",
		Content:     req.Content,
		Status:      StatusProcessing,
		CreatedBy:   req.CreatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.InsertDocument(ctx, doc); err != nil {
		return Document{}, err
	}

	for _, chunk := range SplitChunks(req.Content, defaultChunkSize) {
		vec, err := s.embedder.Embed(ctx, chunk)
		if err != nil {
			s.markFailed(ctx, doc)
			return Document{}, fmt.Errorf("embed chunk: %w", err)
		}
		err = s.store.InsertChunk(ctx, req.WorkspaceID, Chunk{
			ID:         uuid.NewString(),
			DocumentID: doc.ID,
			Content:    chunk,
			Embedding:  vec,
		})
		if err != nil {
			s.markFailed(ctx, doc)
			return Document{}, err
		}
	}

	if err := s.store.UpdateDocumentStatus(ctx, req.WorkspaceID, doc.ID, StatusReady); err != nil {
		return Document{}, err
	}
	doc.Status = StatusReady
	return doc, nil
}

func (s *Service) markFailed(ctx context.Context, doc Document) {
	if err := s.store.UpdateDocumentStatus(ctx, doc.WorkspaceID, doc.ID, StatusFailed); err != nil {
		slog.ErrorContext(ctx, "failed to mark document as failed", "document_id", doc.ID, "err", err)
	}
}

// Query returns the best-matching chunks for a free-text query.
func (s *Service) Query(ctx context.Context, workspaceID, query string) ([]Match, error) {
	if s.embedder == nil {
		return nil, errors.New("knowledge: embedding is not configured")
	}
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return s.store.MatchChunks(ctx, workspaceID, vec, matchThreshold, matchCount)
}

// Search adapts Query to the plain-string shape the conversation layer wants.
func (s *Service) Search(ctx context.Context, workspaceID, query string) ([]string, error) {
	matches, err := s.Query(ctx, workspaceID, query)
	if err != nil {
		return nil, err
	}
	contents := make([]string, 0, len(matches))
	for _, m := range matches {
		contents = append(contents, m.Content)
	}
	return contents, nil
}

func (s *Service) List(ctx context.Context, workspaceID string) ([]Document, error) {
	return s.store.ListDocuments(ctx, workspaceID)
}

func (s *Service) Get(ctx context.Context, workspaceID, id string) (Document, error) {
	return s.store.GetDocument(ctx, workspaceID, id)
}

func (s *Service) Delete(ctx context.Context, workspaceID, id string) error {
	return s.store.DeleteDocument(ctx, workspaceID, id)
}

func acceptedFileName(name string) bool {
	n := strings.ToLower(name)
	return strings.HasSuffix(n, ".txt") || strings.HasSuffix(n, ".md")
}

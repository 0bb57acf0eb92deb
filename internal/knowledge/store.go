package knowledge

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("knowledge: document not found")

// Store persists documents and their embedded chunks.
type Store interface {
	InsertDocument(ctx context.Context, d Document) error
	GetDocument(ctx context.Context, workspaceID, id string) (Document, error)
	ListDocuments(ctx context.Context, workspaceID string) ([]Document, error)
	UpdateDocumentStatus(ctx context.Context, workspaceID, id string, status DocumentStatus) error
	DeleteDocument(ctx context.Context, workspaceID, id string) error

	InsertChunk(ctx context.Context, workspaceID string, c Chunk) error
	// MatchChunks returns up to count chunks whose similarity to the query
	// vector is at least threshold, best match first.
	MatchChunks(ctx context.Context, workspaceID string, query []float64, threshold float64, count int) ([]Match, error)
}

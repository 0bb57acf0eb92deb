package knowledge

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// PGStore keeps documents in Postgres and chunks in a pgvector-backed table.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) InsertDocument(ctx context.Context, d Document) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, workspace_id, title, category, file_type, content, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		d.ID, d.WorkspaceID, d.Title, d.Category, d.FileType, d.Content, string(d.Status), d.CreatedBy, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *PGStore) GetDocument(ctx context.Context, workspaceID, id string) (Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, workspace_id, title, category, file_type, content, status, created_by, created_at, updated_at
		FROM documents WHERE workspace_id = $1 AND id = $2`, workspaceID, id)
	return scanDocument(row)
}

func (s *PGStore) ListDocuments(ctx context.Context, workspaceID string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, workspace_id, title, category, file_type, content, status, created_by, created_at, updated_at
		FROM documents WHERE workspace_id = $1 ORDER BY created_at DESC`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (s *PGStore) UpdateDocumentStatus(ctx context.Context, workspaceID, id string, status DocumentStatus) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE documents SET status = $3, updated_at = NOW()
		WHERE workspace_id = $1 AND id = $2`, workspaceID, id, string(status))
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) DeleteDocument(ctx context.Context, workspaceID, id string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM documents WHERE workspace_id = $1 AND id = $2`, workspaceID, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) InsertChunk(ctx context.Context, workspaceID string, c Chunk) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO document_chunks (id, workspace_id, document_id, content, embedding)
		VALUES ($1, $2, $3, $4, $5::vector)`,
		c.ID, workspaceID, c.DocumentID, c.Content, vectorLiteral(c.Embedding),
	)
	if err != nil {
		return fmt.Errorf("insert chunk: %w", err)
	}
	return nil
}

func (s *PGStore) MatchChunks(ctx context.Context, workspaceID string, query []float64, threshold float64, count int) ([]Match, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT document_id, content, 1 - (embedding <=> $2::vector) AS similarity
		FROM document_chunks
		WHERE workspace_id = $1
		  AND 1 - (embedding <=> $2::vector) >= $3
		ORDER BY embedding <=> $2::vector
		LIMIT $4`,
		workspaceID, vectorLiteral(query), threshold, count,
	)
	if err != nil {
		return nil, fmt.Errorf("match chunks: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.DocumentID, &m.Content, &m.Similarity); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// vectorLiteral renders a pgvector input literal, e.g. "[0.1,0.2,0.3]".
func vectorLiteral(v []float64) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(f, 'f', -1, 64))
	}
	b.WriteByte(']')
	return b.String()
}

type docScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row docScanner) (Document, error) {
	var d Document
	var status string
	err := row.Scan(&d.ID, &d.WorkspaceID, &d.Title, &d.Category, &d.FileType, &d.Content, &status, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("scan document: %w", err)
	}
	d.Status = DocumentStatus(status)
	return d, nil
}

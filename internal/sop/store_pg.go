package sop

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PGStore keeps SOP records in Postgres with the structured body as JSONB.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Insert(ctx context.Context, r Record) error {
	body, err := json.Marshal(r.Content)
	if err != nil {
		return fmt.Errorf("marshal sop content: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sops (id, workspace_id, category, content, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		r.ID, r.WorkspaceID, r.Category, body, r.CreatedBy, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert sop: %w", err)
	}
	return nil
}

func (s *PGStore) Get(ctx context.Context, workspaceID, id string) (Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, workspace_id, category, content, created_by, created_at
		FROM sops WHERE workspace_id = $1 AND id = $2`, workspaceID, id)
	return scanRecord(row)
}

func (s *PGStore) List(ctx context.Context, workspaceID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, workspace_id, category, content, created_by, created_at
		FROM sops WHERE workspace_id = $1 ORDER BY created_at DESC`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list sops: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var r Record
	var body []byte
	err := row.Scan(&r.ID, &r.WorkspaceID, &r.Category, &body, &r.CreatedBy, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("scan sop: %w", err)
	}
	if err := json.Unmarshal(body, &r.Content); err != nil {
		return Record{}, fmt.Errorf("unmarshal sop content: %w", err)
	}
	return r, nil
}

package integrations

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

// PGStore persists integration records in Postgres.
//
// Assumed table:
//
//	integrations (
//	  id UUID PRIMARY KEY,
//	  workspace_id UUID NOT NULL,
//	  name TEXT NOT NULL,
//	  type TEXT NOT NULL,
//	  provider TEXT NOT NULL,
//	  status TEXT NOT NULL,
//	  config JSONB NOT NULL DEFAULT '{}',
//	  created_at TIMESTAMPTZ NOT NULL,
//	  updated_at TIMESTAMPTZ NOT NULL,
//	  UNIQUE (workspace_id, provider)
//	)
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore { return &PGStore{db: db} }

const integrationColumns = `
id, workspace_id, name, type, provider, status, config, created_at, updated_at
`

func (s *PGStore) ListActiveByProvider(ctx context.Context, provider string) ([]Integration, error) {
	const q = `
SELECT ` + integrationColumns + `
FROM integrations
WHERE provider = $1 AND status = $2
`
	return s.queryMany(ctx, q, provider, StatusActive)
}

func (s *PGStore) GetByProvider(ctx context.Context, workspaceID, provider string) (Integration, error) {
	const q = `
SELECT ` + integrationColumns + `
FROM integrations
WHERE workspace_id = $1 AND provider = $2
`
	row := s.db.QueryRowContext(ctx, q, workspaceID, provider)
	rec, err := scanIntegration(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Integration{}, ErrNotFound
		}
		return Integration{}, err
	}
	return rec, nil
}

func (s *PGStore) List(ctx context.Context, workspaceID string) ([]Integration, error) {
	const q = `
SELECT ` + integrationColumns + `
FROM integrations
WHERE workspace_id = $1
ORDER BY name
`
	return s.queryMany(ctx, q, workspaceID)
}

func (s *PGStore) Upsert(ctx context.Context, rec Integration) error {
	if rec.ID == "" || rec.WorkspaceID == "" || rec.Provider == "" {
		return ErrInvalidArgument
	}
	cfg, err := json.Marshal(configOrEmpty(rec.Config))
	if err != nil {
		return err
	}
	const q = `
INSERT INTO integrations (` + integrationColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (workspace_id, provider)
DO UPDATE SET name = EXCLUDED.name,
              type = EXCLUDED.type,
              status = EXCLUDED.status,
              config = EXCLUDED.config,
              updated_at = EXCLUDED.updated_at
`
	_, err = s.db.ExecContext(ctx, q,
		rec.ID,
		rec.WorkspaceID,
		rec.Name,
		rec.Type,
		rec.Provider,
		rec.Status,
		cfg,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	return err
}

func (s *PGStore) queryMany(ctx context.Context, q string, args ...any) ([]Integration, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Integration, 0)
	for rows.Next() {
		rec, err := scanIntegration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIntegration(r rowScanner) (Integration, error) {
	var rec Integration
	var cfg []byte
	if err := r.Scan(
		&rec.ID,
		&rec.WorkspaceID,
		&rec.Name,
		&rec.Type,
		&rec.Provider,
		&rec.Status,
		&cfg,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		return Integration{}, err
	}
	if len(cfg) > 0 {
		if err := json.Unmarshal(cfg, &rec.Config); err != nil {
			return Integration{}, err
		}
	}
	return rec, nil
}

func configOrEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

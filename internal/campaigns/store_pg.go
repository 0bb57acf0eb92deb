package campaigns

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PGStore keeps campaigns in Postgres.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

const campaignColumns = `id, workspace_id, name, description, status, target_count, called_count, created_by, created_at, updated_at`

func (s *PGStore) Insert(ctx context.Context, c Campaign) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO campaigns (`+campaignColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, c.WorkspaceID, c.Name, c.Description, string(c.Status), c.TargetCount, c.CalledCount, c.CreatedBy, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert campaign: %w", err)
	}
	return nil
}

func (s *PGStore) Get(ctx context.Context, workspaceID, id string) (Campaign, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+campaignColumns+` FROM campaigns
		WHERE workspace_id = $1 AND id = $2`, workspaceID, id)
	return scanCampaign(row)
}

func (s *PGStore) List(ctx context.Context, workspaceID string) ([]Campaign, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+campaignColumns+` FROM campaigns
		WHERE workspace_id = $1 ORDER BY created_at DESC`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	var out []Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PGStore) Update(ctx context.Context, c Campaign) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE campaigns
		SET name = $3, description = $4, status = $5, target_count = $6, called_count = $7, updated_at = $8
		WHERE workspace_id = $1 AND id = $2`,
		c.WorkspaceID, c.ID, c.Name, c.Description, string(c.Status), c.TargetCount, c.CalledCount, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update campaign: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row rowScanner) (Campaign, error) {
	var c Campaign
	var status string
	err := row.Scan(&c.ID, &c.WorkspaceID, &c.Name, &c.Description, &status, &c.TargetCount, &c.CalledCount, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Campaign{}, ErrNotFound
	}
	if err != nil {
		return Campaign{}, fmt.Errorf("scan campaign: %w", err)
	}
	c.Status = Status(status)
	return c, nil
}

package audit

import (
	"context"
	"database/sql"
	"fmt"
)

// PGRepo appends events to the audit_events table. There are no update or
// delete paths.
type PGRepo struct {
	db *sql.DB
}

func NewPGRepo(db *sql.DB) *PGRepo {
	return &PGRepo{db: db}
}

func (r *PGRepo) Append(ctx context.Context, e Event) error {
	meta := sql.NullString{String: e.Metadata, Valid: e.Metadata != ""}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_events (
			id, workspace_id, type, actor_user_id, actor_role, ip_address,
			call_id, integration_id, document_id, sop_id, campaign_id,
			message, metadata, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		e.ID, e.WorkspaceID, string(e.Type), e.ActorUserID, e.ActorRole, e.IPAddress,
		e.CallID, e.IntegrationID, e.DocumentID, e.SOPID, e.CampaignID,
		e.Message, meta, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

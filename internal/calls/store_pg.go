package calls

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// PGStore persists calls in Postgres.
//
// Assumed table:
//
//	calls (
//	  id UUID PRIMARY KEY,
//	  workspace_id UUID NOT NULL,
//	  caller_phone TEXT NOT NULL,
//	  caller_name TEXT NOT NULL DEFAULT '',
//	  topic TEXT NOT NULL DEFAULT '',
//	  status TEXT NOT NULL,
//	  started_at TIMESTAMPTZ NOT NULL,
//	  ended_at TIMESTAMPTZ,
//	  duration INT NOT NULL DEFAULT 0,
//	  last_transcript TEXT NOT NULL DEFAULT '',
//	  last_recording_url TEXT NOT NULL DEFAULT '',
//	  sentiment TEXT NOT NULL DEFAULT '',
//	  ai_handled BOOLEAN NOT NULL DEFAULT FALSE,
//	  metadata JSONB NOT NULL DEFAULT '{}',
//	  created_at TIMESTAMPTZ NOT NULL,
//	  updated_at TIMESTAMPTZ NOT NULL
//	)
//
// Recommended index: (workspace_id, (metadata->>'provider_call_id')) and
// (workspace_id, status, started_at DESC).
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore { return &PGStore{db: db} }

const callColumns = `
id, workspace_id, caller_phone, caller_name, topic, status,
started_at, ended_at, duration, last_transcript, last_recording_url,
sentiment, ai_handled, metadata, created_at, updated_at
`

func (s *PGStore) Insert(ctx context.Context, c Call) error {
	if c.ID == "" || c.WorkspaceID == "" {
		return ErrInvalidArgument
	}
	meta, err := marshalMetadata(c.Metadata)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO calls (` + callColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
`
	_, err = s.db.ExecContext(ctx, q,
		c.ID,
		c.WorkspaceID,
		c.CallerPhone,
		c.CallerName,
		c.Topic,
		c.Status,
		c.StartedAt,
		c.EndedAt,
		c.DurationSeconds,
		c.LastTranscript,
		c.LastRecordingURL,
		c.Sentiment,
		c.AIHandled,
		meta,
		c.CreatedAt,
		c.UpdatedAt,
	)
	return err
}

func (s *PGStore) GetByID(ctx context.Context, workspaceID, id string) (Call, error) {
	const q = `
SELECT ` + callColumns + `
FROM calls
WHERE workspace_id = $1 AND id = $2
`
	return s.queryOne(ctx, q, workspaceID, id)
}

func (s *PGStore) FindByProviderCallID(ctx context.Context, workspaceID, providerCallID string) (Call, error) {
	if providerCallID == "" {
		return Call{}, ErrInvalidArgument
	}
	const q = `
SELECT ` + callColumns + `
FROM calls
WHERE workspace_id = $1 AND metadata->>'provider_call_id' = $2
ORDER BY started_at DESC
LIMIT 1
`
	return s.queryOne(ctx, q, workspaceID, providerCallID)
}

func (s *PGStore) LatestActive(ctx context.Context, workspaceID string) (Call, error) {
	const q = `
SELECT ` + callColumns + `
FROM calls
WHERE workspace_id = $1 AND status = $2
ORDER BY started_at DESC
LIMIT 1
`
	return s.queryOne(ctx, q, workspaceID, CallStatusActive)
}

func (s *PGStore) ApplyTurn(ctx context.Context, workspaceID, id string, u TurnUpdate, now time.Time) error {
	meta, err := marshalMetadata(u.Metadata)
	if err != nil {
		return err
	}
	// COALESCE keeps the previous metadata when the turn carried none. The
	// status predicate enforces terminal-once: a late webhook turn must
	// never rewrite a row an operator (or an earlier turn) already ended.
	const q = `
UPDATE calls
SET last_transcript = $3,
    last_recording_url = $4,
    metadata = COALESCE($5, metadata),
    status = CASE WHEN $6 THEN $7 ELSE status END,
    ended_at = CASE WHEN $6 THEN $8 ELSE ended_at END,
    duration = CASE WHEN $6 THEN GREATEST(0, EXTRACT(EPOCH FROM ($8 - started_at))::INT) ELSE duration END,
    updated_at = $8
WHERE workspace_id = $1 AND id = $2 AND status IN ('ringing', 'active')
`
	var metaArg any
	if u.Metadata != nil {
		metaArg = meta
	}
	terminalStatus := u.TerminalStatus
	if terminalStatus == "" {
		terminalStatus = CallStatusCompleted
	}
	res, err := s.db.ExecContext(ctx, q,
		workspaceID, id,
		u.Transcript, u.RecordingURL,
		metaArg,
		u.Terminal, terminalStatus, now,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *PGStore) End(ctx context.Context, workspaceID, id string, status CallStatus, durationSeconds int, now time.Time) error {
	if !status.IsTerminal() {
		return ErrInvalidArgument
	}
	// Status guard in the predicate keeps the active -> terminal transition
	// single-shot under concurrent operator actions.
	const q = `
UPDATE calls
SET status = $3,
    ended_at = $4,
    duration = CASE WHEN $5 > 0 THEN $5 ELSE GREATEST(0, EXTRACT(EPOCH FROM ($4 - started_at))::INT) END,
    updated_at = $4
WHERE workspace_id = $1 AND id = $2 AND status IN ($6, $7)
`
	res, err := s.db.ExecContext(ctx, q, workspaceID, id, status, now, durationSeconds, CallStatusActive, CallStatusRinging)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *PGStore) SetStatus(ctx context.Context, workspaceID, id string, status CallStatus, durationSeconds int, now time.Time) error {
	if status.IsTerminal() {
		return s.End(ctx, workspaceID, id, status, durationSeconds, now)
	}
	const q = `
UPDATE calls
SET status = $3,
    duration = CASE WHEN $4 > 0 THEN $4 ELSE duration END,
    updated_at = $5
WHERE workspace_id = $1 AND id = $2 AND status NOT IN ($6, $7, $8)
`
	res, err := s.db.ExecContext(ctx, q, workspaceID, id, status, durationSeconds, now,
		CallStatusCompleted, CallStatusEscalated, CallStatusFailed)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *PGStore) List(ctx context.Context, workspaceID string, limit int) ([]Call, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `
SELECT ` + callColumns + `
FROM calls
WHERE workspace_id = $1
ORDER BY started_at DESC
LIMIT $2
`
	return s.queryMany(ctx, q, workspaceID, limit)
}

func (s *PGStore) ListRange(ctx context.Context, workspaceID string, from, to time.Time) ([]Call, error) {
	const q = `
SELECT ` + callColumns + `
FROM calls
WHERE workspace_id = $1 AND started_at >= $2 AND started_at < $3
ORDER BY started_at DESC
`
	return s.queryMany(ctx, q, workspaceID, from, to)
}

func (s *PGStore) queryOne(ctx context.Context, q string, args ...any) (Call, error) {
	row := s.db.QueryRowContext(ctx, q, args...)
	c, err := scanCall(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Call{}, ErrNotFound
		}
		return Call{}, err
	}
	return c, nil
}

func (s *PGStore) queryMany(ctx context.Context, q string, args ...any) ([]Call, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Call, 0)
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCall(r rowScanner) (Call, error) {
	var c Call
	var endedAt sql.NullTime
	var meta []byte
	if err := r.Scan(
		&c.ID,
		&c.WorkspaceID,
		&c.CallerPhone,
		&c.CallerName,
		&c.Topic,
		&c.Status,
		&c.StartedAt,
		&endedAt,
		&c.DurationSeconds,
		&c.LastTranscript,
		&c.LastRecordingURL,
		&c.Sentiment,
		&c.AIHandled,
		&meta,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return Call{}, err
	}
	if endedAt.Valid {
		t := endedAt.Time
		c.EndedAt = &t
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &c.Metadata); err != nil {
			return Call{}, err
		}
	}
	return c, nil
}

func marshalMetadata(m map[string]string) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

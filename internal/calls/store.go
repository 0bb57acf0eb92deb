package calls

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("calls: not found")
	ErrInvalidArgument = errors.New("calls: invalid argument")
)

// TurnUpdate carries the per-turn mutation applied to an active call.
type TurnUpdate struct {
	Transcript   string
	RecordingURL string

	// Metadata replaces the stored provider payload when non-nil.
	Metadata map[string]string

	// Terminal ends the call (status + ended_at) in the same write.
	Terminal       bool
	TerminalStatus CallStatus
}

// Store is the persistence contract for call state.
//
// Every method is workspace-scoped: implementations must never return or
// mutate a row owned by another workspace.
type Store interface {
	Insert(ctx context.Context, c Call) error
	GetByID(ctx context.Context, workspaceID, id string) (Call, error)

	// FindByProviderCallID resolves a call by the vendor identifier kept in
	// metadata. Returns ErrNotFound when no row matches.
	FindByProviderCallID(ctx context.Context, workspaceID, providerCallID string) (Call, error)

	// LatestActive returns the most recently started active call. This backs
	// the deprecated correlation fallback for payloads without a provider id.
	LatestActive(ctx context.Context, workspaceID string) (Call, error)

	// ApplyTurn updates transcript/recording/metadata on a call, and ends it
	// when the update is terminal. Returns ErrNotFound when the row is gone.
	ApplyTurn(ctx context.Context, workspaceID, id string, u TurnUpdate, now time.Time) error

	// End transitions an active call to a terminal status exactly once.
	// Returns ErrNotFound when the call does not exist or is already ended.
	End(ctx context.Context, workspaceID, id string, status CallStatus, durationSeconds int, now time.Time) error

	// SetStatus applies a provider-reported lifecycle status (status webhook).
	// Terminal rows are never reopened; such writes return ErrNotFound.
	SetStatus(ctx context.Context, workspaceID, id string, status CallStatus, durationSeconds int, now time.Time) error

	// List returns calls newest first, capped at limit (0 means default cap).
	List(ctx context.Context, workspaceID string, limit int) ([]Call, error)

	// ListRange returns calls started within [from, to), for reporting.
	ListRange(ctx context.Context, workspaceID string, from, to time.Time) ([]Call, error)
}

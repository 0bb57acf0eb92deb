package integrations

import (
	"context"
	"errors"
)

var (
	ErrNotFound        = errors.New("integrations: not found")
	ErrInvalidArgument = errors.New("integrations: invalid argument")
)

// Store is the persistence contract for integration records.
type Store interface {
	// ListActiveByProvider scans active records across workspaces for one
	// provider. This is the API-key validation search space; it is the only
	// deliberately cross-tenant read in the system.
	ListActiveByProvider(ctx context.Context, provider string) ([]Integration, error)

	// GetByProvider returns the workspace's record for a provider.
	GetByProvider(ctx context.Context, workspaceID, provider string) (Integration, error)

	List(ctx context.Context, workspaceID string) ([]Integration, error)

	// Upsert inserts or replaces the (workspace, provider) record.
	Upsert(ctx context.Context, rec Integration) error
}

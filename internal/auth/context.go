package auth

import (
	"context"
	"errors"
)

// identity is the verified caller attached to a request context. It is
// stored as one value so a partially-populated identity cannot exist.
type identity struct {
	userID      string
	workspaceID string
	role        string
}

type identityKey struct{}

// WithIdentity attaches a verified identity to ctx. Only the token
// middleware (and tests) should call this.
func WithIdentity(ctx context.Context, userID, workspaceID, role string) context.Context {
	return context.WithValue(ctx, identityKey{}, identity{
		userID:      userID,
		workspaceID: workspaceID,
		role:        role,
	})
}

func fromContext(ctx context.Context) (identity, bool) {
	id, ok := ctx.Value(identityKey{}).(identity)
	return id, ok
}

func UserID(ctx context.Context) (string, error) {
	if id, ok := fromContext(ctx); ok && id.userID != "" {
		return id.userID, nil
	}
	return "", errors.New("user_id not in context")
}

func WorkspaceID(ctx context.Context) (string, error) {
	if id, ok := fromContext(ctx); ok && id.workspaceID != "" {
		return id.workspaceID, nil
	}
	return "", errors.New("workspace_id not in context")
}

func Role(ctx context.Context) (string, error) {
	if id, ok := fromContext(ctx); ok && id.role != "" {
		return id.role, nil
	}
	return "", errors.New("role not in context")
}

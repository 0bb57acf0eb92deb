package campaigns

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Service implements campaign CRUD with lifecycle checks.
type Service struct {
	store Store
	clock func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, clock: time.Now}
}

func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

type CreateRequest struct {
	WorkspaceID string
	Name        string
	Description string
	TargetCount int
	CreatedBy   string
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (Campaign, error) {
	if req.WorkspaceID == "" {
		return Campaign{}, errors.New("campaigns: workspace id is required")
	}
	if req.Name == "" {
		return Campaign{}, errors.New("campaigns: name is required")
	}
	now := s.clock().UTC()
	c := Campaign{
		ID:          uuid.NewString(),
		WorkspaceID: req.WorkspaceID,
		Name:        req.Name,
		Description: req.Description,
		Status:      StatusDraft,
		TargetCount: req.TargetCount,
		CreatedBy:   req.CreatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Insert(ctx, c); err != nil {
		return Campaign{}, err
	}
	return c, nil
}

// SetStatus moves a campaign through its lifecycle. Completed campaigns are
// immutable.
func (s *Service) SetStatus(ctx context.Context, workspaceID, id string, status Status) (Campaign, error) {
	if !status.Valid() {
		return Campaign{}, fmt.Errorf("campaigns: invalid status %q", status)
	}
	c, err := s.store.Get(ctx, workspaceID, id)
	if err != nil {
		return Campaign{}, err
	}
	if c.Status == StatusCompleted {
		return Campaign{}, errors.New("campaigns: campaign is already completed")
	}
	c.Status = status
	c.UpdatedAt = s.clock().UTC()
	if err := s.store.Update(ctx, c); err != nil {
		return Campaign{}, err
	}
	return c, nil
}

// RecordCall bumps the progress counter for one placed call.
func (s *Service) RecordCall(ctx context.Context, workspaceID, id string) (Campaign, error) {
	c, err := s.store.Get(ctx, workspaceID, id)
	if err != nil {
		return Campaign{}, err
	}
	if c.Status != StatusActive {
		return Campaign{}, fmt.Errorf("campaigns: campaign is %s, not active", c.Status)
	}
	c.CalledCount++
	c.UpdatedAt = s.clock().UTC()
	if c.TargetCount > 0 && c.CalledCount >= c.TargetCount {
		c.Status = StatusCompleted
	}
	if err := s.store.Update(ctx, c); err != nil {
		return Campaign{}, err
	}
	return c, nil
}

func (s *Service) Get(ctx context.Context, workspaceID, id string) (Campaign, error) {
	return s.store.Get(ctx, workspaceID, id)
}

func (s *Service) List(ctx context.Context, workspaceID string) ([]Campaign, error) {
	return s.store.List(ctx, workspaceID)
}

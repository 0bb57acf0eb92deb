package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only.
// No Update/Delete methods are provided by design.

type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service logs internal audit information.
//
// IMPORTANT:
// - Audit is internal-only. Do not expose these records to tenant users by default.
// - Callers should treat audit logging as best-effort.

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.WorkspaceID == "" {
		return ErrInvalidEvent
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}

	now := s.clock().UTC()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	return s.repo.Append(ctx, e)
}

// Actor identifies who performed an audited action and from where.
type Actor struct {
	UserID string
	Role   string
	IP     string
}

// LogKeyRotated records a webhook credential rotation.
func (s *Service) LogKeyRotated(ctx context.Context, workspaceID string, actor Actor, integrationID string) error {
	return s.Append(ctx, Event{
		WorkspaceID:   workspaceID,
		Type:          EventTypeKeyRotated,
		ActorUserID:   actor.UserID,
		ActorRole:     actor.Role,
		IPAddress:     actor.IP,
		IntegrationID: integrationID,
		Message:       "telephony webhook key rotated",
	})
}

// LogCallEnded records an operator force-ending a call from the dashboard.
func (s *Service) LogCallEnded(ctx context.Context, workspaceID string, actor Actor, callID string) error {
	return s.Append(ctx, Event{
		WorkspaceID: workspaceID,
		Type:        EventTypeCallEnded,
		ActorUserID: actor.UserID,
		ActorRole:   actor.Role,
		IPAddress:   actor.IP,
		CallID:      callID,
		Message:     "call ended by operator",
	})
}

// LogIntegrationUpdated records a change to integration settings.
func (s *Service) LogIntegrationUpdated(ctx context.Context, workspaceID string, actor Actor, integrationID, metadata string) error {
	return s.Append(ctx, Event{
		WorkspaceID:   workspaceID,
		Type:          EventTypeIntegrationUpdated,
		ActorUserID:   actor.UserID,
		ActorRole:     actor.Role,
		IPAddress:     actor.IP,
		IntegrationID: integrationID,
		Message:       "integration settings updated",
		Metadata:      metadata,
	})
}

// LogDocumentUploaded records a knowledge-base upload.
func (s *Service) LogDocumentUploaded(ctx context.Context, workspaceID string, actor Actor, documentID string) error {
	return s.Append(ctx, Event{
		WorkspaceID: workspaceID,
		Type:        EventTypeDocumentUploaded,
		ActorUserID: actor.UserID,
		ActorRole:   actor.Role,
		IPAddress:   actor.IP,
		DocumentID:  documentID,
		Message:     "knowledge document uploaded",
	})
}

// LogSOPGenerated records an SOP generation.
func (s *Service) LogSOPGenerated(ctx context.Context, workspaceID string, actor Actor, sopID string) error {
	return s.Append(ctx, Event{
		WorkspaceID: workspaceID,
		Type:        EventTypeSOPGenerated,
		ActorUserID: actor.UserID,
		ActorRole:   actor.Role,
		IPAddress:   actor.IP,
		SOPID:       sopID,
		Message:     "sop generated",
	})
}

// LogCampaignUpdated records a campaign state change.
func (s *Service) LogCampaignUpdated(ctx context.Context, workspaceID string, actor Actor, campaignID, metadata string) error {
	return s.Append(ctx, Event{
		WorkspaceID: workspaceID,
		Type:        EventTypeCampaignUpdated,
		ActorUserID: actor.UserID,
		ActorRole:   actor.Role,
		IPAddress:   actor.IP,
		CampaignID:  campaignID,
		Message:     "campaign updated",
		Metadata:    metadata,
	})
}

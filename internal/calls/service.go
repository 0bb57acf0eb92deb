package calls

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service implements the call lifecycle operations used by the voice webhooks
// and the dashboard API.
type Service struct {
	store Store
	clock func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, clock: time.Now}
}

// WithClock overrides time for tests.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

type CreateCallRequest struct {
	WorkspaceID string
	CallerPhone string
	CallerName  string

	// ProviderCallID may be empty; later turns then rely on the fallback lookup.
	ProviderCallID string

	// RawMetadata is the flattened provider payload, retained verbatim.
	RawMetadata map[string]string

	AIHandled bool
}

// Create inserts the single row representing a new physical call attempt.
// A store failure here is fatal for the webhook turn: without a row there is
// nothing for later turns to update.
func (s *Service) Create(ctx context.Context, req CreateCallRequest) (Call, error) {
	if req.WorkspaceID == "" {
		return Call{}, ErrInvalidArgument
	}
	phone := strings.TrimSpace(req.CallerPhone)
	if phone == "" {
		phone = "Unknown"
	}

	now := s.clock().UTC()
	meta := cloneMeta(req.RawMetadata)
	if meta == nil {
		meta = map[string]string{}
	}
	meta[MetaProviderCallID] = req.ProviderCallID
	meta[MetaOwnerWorkspaceID] = req.WorkspaceID

	c := Call{
		ID:          uuid.NewString(),
		WorkspaceID: req.WorkspaceID,
		CallerPhone: phone,
		CallerName:  strings.TrimSpace(req.CallerName),
		Status:      CallStatusActive,
		StartedAt:   now,
		AIHandled:   req.AIHandled,
		Metadata:    meta,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Insert(ctx, c); err != nil {
		return Call{}, err
	}
	return c, nil
}

type AppendTurnRequest struct {
	WorkspaceID    string
	ProviderCallID string

	Transcript   string
	RecordingURL string
	RawMetadata  map[string]string

	// Terminal ends the call with TerminalStatus (default completed).
	Terminal       bool
	TerminalStatus CallStatus
}

// AppendTurn records one process-audio exchange on the owning call.
//
// Resolution order: provider call id when present, else the most recent active
// call in the workspace. The fallback is a compatibility shim for providers
// that omit the id; it misbehaves with concurrent calls and is logged as such.
//
// A missing row is not an error: the turn is dropped and found=false returned,
// so the caller can still answer the provider and keep the phone call alive.
func (s *Service) AppendTurn(ctx context.Context, req AppendTurnRequest) (Call, bool, error) {
	if req.WorkspaceID == "" {
		return Call{}, false, ErrInvalidArgument
	}

	var c Call
	var err error
	if req.ProviderCallID != "" {
		c, err = s.store.FindByProviderCallID(ctx, req.WorkspaceID, req.ProviderCallID)
	} else {
		c, err = s.store.LatestActive(ctx, req.WorkspaceID)
		if err == nil {
			slog.WarnContext(ctx, "turn correlated via most-recent-active fallback; provider call id missing",
				"workspace_id", req.WorkspaceID, "call_id", c.ID)
		}
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Call{}, false, nil
		}
		return Call{}, false, err
	}

	u := TurnUpdate{
		Transcript:     req.Transcript,
		RecordingURL:   req.RecordingURL,
		Terminal:       req.Terminal,
		TerminalStatus: req.TerminalStatus,
	}
	if req.RawMetadata != nil {
		meta := cloneMeta(req.RawMetadata)
		meta[MetaProviderCallID] = c.ProviderCallID()
		meta[MetaOwnerWorkspaceID] = req.WorkspaceID
		u.Metadata = meta
	}

	now := s.clock().UTC()
	if err := s.store.ApplyTurn(ctx, req.WorkspaceID, c.ID, u, now); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Call{}, false, nil
		}
		return Call{}, false, err
	}
	updated, err := s.store.GetByID(ctx, req.WorkspaceID, c.ID)
	if err != nil {
		// The write landed; return the pre-read row rather than failing the turn.
		return c, true, nil
	}
	return updated, true, nil
}

// EndByOperator transitions an active call to completed from the dashboard,
// independent of webhook traffic.
func (s *Service) EndByOperator(ctx context.Context, workspaceID, callID string) (Call, error) {
	if workspaceID == "" || callID == "" {
		return Call{}, ErrInvalidArgument
	}
	now := s.clock().UTC()
	if err := s.store.End(ctx, workspaceID, callID, CallStatusCompleted, 0, now); err != nil {
		return Call{}, err
	}
	return s.store.GetByID(ctx, workspaceID, callID)
}

type ProviderStatusRequest struct {
	WorkspaceID     string
	ProviderCallID  string
	CallerPhone     string
	CallerName      string
	Status          CallStatus
	DurationSeconds int
	RawMetadata     map[string]string
}

// ApplyProviderStatus handles generic lifecycle callbacks from the vendor:
// update the existing row when the provider id is known, otherwise create one.
func (s *Service) ApplyProviderStatus(ctx context.Context, req ProviderStatusRequest) (Call, bool, error) {
	if req.WorkspaceID == "" {
		return Call{}, false, ErrInvalidArgument
	}

	if req.ProviderCallID != "" {
		c, err := s.store.FindByProviderCallID(ctx, req.WorkspaceID, req.ProviderCallID)
		if err == nil {
			now := s.clock().UTC()
			if err := s.store.SetStatus(ctx, req.WorkspaceID, c.ID, req.Status, req.DurationSeconds, now); err != nil && !errors.Is(err, ErrNotFound) {
				return Call{}, false, err
			}
			updated, err := s.store.GetByID(ctx, req.WorkspaceID, c.ID)
			if err != nil {
				return c, false, nil
			}
			return updated, false, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return Call{}, false, err
		}
	}

	created, err := s.Create(ctx, CreateCallRequest{
		WorkspaceID:    req.WorkspaceID,
		CallerPhone:    req.CallerPhone,
		CallerName:     req.CallerName,
		ProviderCallID: req.ProviderCallID,
		RawMetadata:    req.RawMetadata,
		AIHandled:      true,
	})
	if err != nil {
		return Call{}, false, err
	}
	if req.Status != "" && req.Status != CallStatusActive {
		now := s.clock().UTC()
		if err := s.store.SetStatus(ctx, req.WorkspaceID, created.ID, req.Status, req.DurationSeconds, now); err == nil {
			if updated, gerr := s.store.GetByID(ctx, req.WorkspaceID, created.ID); gerr == nil {
				return updated, true, nil
			}
		}
	}
	return created, true, nil
}

func (s *Service) Get(ctx context.Context, workspaceID, callID string) (Call, error) {
	if workspaceID == "" || callID == "" {
		return Call{}, ErrInvalidArgument
	}
	return s.store.GetByID(ctx, workspaceID, callID)
}

func (s *Service) List(ctx context.Context, workspaceID string, limit int) ([]Call, error) {
	if workspaceID == "" {
		return nil, ErrInvalidArgument
	}
	return s.store.List(ctx, workspaceID, limit)
}

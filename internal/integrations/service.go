package integrations

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service implements credential validation and integration administration.
type Service struct {
	store Store
	clock func() time.Time

	// httpClient is used for connection tests only.
	httpClient *http.Client
}

func NewService(store Store) *Service {
	return &Service{
		store:      store,
		clock:      time.Now,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// WithClock overrides time for tests.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// ValidateKey resolves a candidate webhook secret to its owning workspace.
//
// No candidate means invalid without touching the store. Any store error is
// treated the same as "no match": the webhook caller only ever learns
// authorized or not.
func (s *Service) ValidateKey(ctx context.Context, candidate string) (workspaceID string, ok bool) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return "", false
	}
	recs, err := s.store.ListActiveByProvider(ctx, TelephonyProvider)
	if err != nil || len(recs) == 0 {
		return "", false
	}
	cand := []byte(candidate)
	for _, rec := range recs {
		stored := rec.Config[ConfigKeyAPIKey]
		if stored == "" {
			continue
		}
		if subtle.ConstantTimeCompare(cand, []byte(stored)) == 1 {
			return rec.WorkspaceID, true
		}
	}
	return "", false
}

// TelephonyConfigView is the admin-facing shape of the telephony record.
// The stored secret is never returned, only a masked preview.
type TelephonyConfigView struct {
	Exists        bool      `json:"exists"`
	ID            string    `json:"id,omitempty"`
	Status        Status    `json:"status,omitempty"`
	VirtualNumber string    `json:"virtual_number"`
	HasAPIKey     bool      `json:"has_api_key"`
	APIKeyPreview string    `json:"api_key_preview,omitempty"`
	UpdatedAt     time.Time `json:"updated_at,omitempty"`
}

func (s *Service) TelephonyConfig(ctx context.Context, workspaceID string) (TelephonyConfigView, error) {
	if workspaceID == "" {
		return TelephonyConfigView{}, ErrInvalidArgument
	}
	rec, err := s.store.GetByProvider(ctx, workspaceID, TelephonyProvider)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return TelephonyConfigView{Exists: false}, nil
		}
		return TelephonyConfigView{}, err
	}
	key := rec.Config[ConfigKeyAPIKey]
	return TelephonyConfigView{
		Exists:        true,
		ID:            rec.ID,
		Status:        rec.Status,
		VirtualNumber: rec.Config[ConfigKeyVirtualNumber],
		HasAPIKey:     key != "",
		APIKeyPreview: MaskKey(key),
		UpdatedAt:     rec.UpdatedAt,
	}, nil
}

type UpsertTelephonyRequest struct {
	WorkspaceID   string
	VirtualNumber *string
	// Enabled toggles active/inactive; nil leaves status unchanged.
	Enabled *bool
}

// UpsertTelephonyConfig creates or updates the workspace's telephony record.
// The API key is managed exclusively by RotateKey.
func (s *Service) UpsertTelephonyConfig(ctx context.Context, req UpsertTelephonyRequest) (Integration, error) {
	if req.WorkspaceID == "" {
		return Integration{}, ErrInvalidArgument
	}
	now := s.clock().UTC()
	rec, err := s.store.GetByProvider(ctx, req.WorkspaceID, TelephonyProvider)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return Integration{}, err
		}
		rec = s.newTelephonyRecord(req.WorkspaceID, now)
	}
	if req.VirtualNumber != nil {
		rec.Config[ConfigKeyVirtualNumber] = strings.TrimSpace(*req.VirtualNumber)
	}
	if req.Enabled != nil {
		if *req.Enabled {
			rec.Status = StatusActive
		} else {
			rec.Status = StatusInactive
		}
	}
	rec.UpdatedAt = now
	if err := s.store.Upsert(ctx, rec); err != nil {
		return Integration{}, err
	}
	return rec, nil
}

// RotateKey replaces the telephony webhook secret. The new key validates
// immediately and the previous one stops working in the same write; a webhook
// mid-rotation fails authentication, which is accepted for this rare,
// operator-initiated action.
func (s *Service) RotateKey(ctx context.Context, workspaceID string) (newKey string, err error) {
	if workspaceID == "" {
		return "", ErrInvalidArgument
	}
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	newKey = "sr_" + hex.EncodeToString(buf)

	now := s.clock().UTC()
	rec, err := s.store.GetByProvider(ctx, workspaceID, TelephonyProvider)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return "", err
		}
		rec = s.newTelephonyRecord(workspaceID, now)
	}
	rec.Config[ConfigKeyAPIKey] = newKey
	rec.UpdatedAt = now
	if err := s.store.Upsert(ctx, rec); err != nil {
		return "", err
	}
	return newKey, nil
}

func (s *Service) newTelephonyRecord(workspaceID string, now time.Time) Integration {
	return Integration{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		Name:        "Knowlarity SR",
		Type:        "telephony",
		Provider:    TelephonyProvider,
		Status:      StatusInactive,
		Config:      map[string]string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (s *Service) List(ctx context.Context, workspaceID string) ([]Integration, error) {
	if workspaceID == "" {
		return nil, ErrInvalidArgument
	}
	return s.store.List(ctx, workspaceID)
}

type UpsertRequest struct {
	WorkspaceID string
	Name        string
	Type        string
	Provider    string
	Status      Status
	Config      map[string]string
}

// Upsert creates or replaces a generic integration record.
func (s *Service) Upsert(ctx context.Context, req UpsertRequest) (Integration, error) {
	if req.WorkspaceID == "" || req.Provider == "" {
		return Integration{}, ErrInvalidArgument
	}
	now := s.clock().UTC()
	rec, err := s.store.GetByProvider(ctx, req.WorkspaceID, req.Provider)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return Integration{}, err
		}
		rec = Integration{
			ID:          uuid.NewString(),
			WorkspaceID: req.WorkspaceID,
			Provider:    req.Provider,
			CreatedAt:   now,
		}
	}
	rec.Name = req.Name
	rec.Type = req.Type
	if req.Status != "" {
		rec.Status = req.Status
	} else if rec.Status == "" {
		rec.Status = StatusActive
	}
	if req.Config != nil {
		rec.Config = req.Config
	}
	if rec.Config == nil {
		rec.Config = map[string]string{}
	}
	rec.UpdatedAt = now
	if err := s.store.Upsert(ctx, rec); err != nil {
		return Integration{}, err
	}
	return rec, nil
}

type TestResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// TestConnection pings the integration's configured URL. Providers without a
// dedicated health surface just get a reachability check.
func (s *Service) TestConnection(ctx context.Context, config map[string]string) TestResult {
	url := strings.TrimSpace(config[ConfigKeyURL])
	if url == "" {
		return TestResult{Success: false, Message: "no url configured"}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return TestResult{Success: false, Message: "invalid url"}
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return TestResult{Success: false, Message: "unreachable"}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return TestResult{Success: true, Message: "url reachable"}
	}
	return TestResult{Success: false, Message: fmt.Sprintf("unreachable (%d)", resp.StatusCode)}
}

// MaskKey renders a secret as a short preview safe for admin UIs.
func MaskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}

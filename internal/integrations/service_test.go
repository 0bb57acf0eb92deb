package integrations

import (
	"context"
	"strings"
	"testing"
	"time"
)

func seedTelephony(t *testing.T, store *MemoryStore, workspaceID, apiKey string, status Status) {
	t.Helper()
	err := store.Upsert(context.Background(), Integration{
		ID:          "i-" + workspaceID,
		WorkspaceID: workspaceID,
		Name:        "Knowlarity SR",
		Type:        "telephony",
		Provider:    TelephonyProvider,
		Status:      status,
		Config:      map[string]string{ConfigKeyAPIKey: apiKey},
		CreatedAt:   time.Unix(1700000000, 0).UTC(),
		UpdatedAt:   time.Unix(1700000000, 0).UTC(),
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestValidateKey_ResolvesWorkspace(t *testing.T) {
	store := NewMemoryStore()
	seedTelephony(t, store, "w1", "sr_secret_one", StatusActive)
	seedTelephony(t, store, "w2", "sr_secret_two", StatusActive)
	svc := NewService(store)

	wid, ok := svc.ValidateKey(context.Background(), "sr_secret_two")
	if !ok || wid != "w2" {
		t.Fatalf("expected w2, got ok=%v wid=%q", ok, wid)
	}
}

func TestValidateKey_EmptyAndUnknownRejected(t *testing.T) {
	store := NewMemoryStore()
	seedTelephony(t, store, "w1", "sr_secret_one", StatusActive)
	svc := NewService(store)

	if _, ok := svc.ValidateKey(context.Background(), ""); ok {
		t.Fatalf("expected empty key to be invalid")
	}
	if _, ok := svc.ValidateKey(context.Background(), "sr_wrong"); ok {
		t.Fatalf("expected unknown key to be invalid")
	}
}

func TestValidateKey_InactiveRecordIgnored(t *testing.T) {
	store := NewMemoryStore()
	seedTelephony(t, store, "w1", "sr_secret_one", StatusInactive)
	svc := NewService(store)

	if _, ok := svc.ValidateKey(context.Background(), "sr_secret_one"); ok {
		t.Fatalf("expected inactive record to be ignored")
	}
}

func TestRotateKey_InvalidatesOldKeyImmediately(t *testing.T) {
	store := NewMemoryStore()
	seedTelephony(t, store, "w1", "sr_old_key_value", StatusActive)
	svc := NewService(store)
	ctx := context.Background()

	newKey, err := svc.RotateKey(ctx, "w1")
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if !strings.HasPrefix(newKey, "sr_") || len(newKey) != 3+48 {
		t.Fatalf("unexpected key shape: %q", newKey)
	}

	if _, ok := svc.ValidateKey(ctx, "sr_old_key_value"); ok {
		t.Fatalf("expected old key to stop validating")
	}
	wid, ok := svc.ValidateKey(ctx, newKey)
	if !ok || wid != "w1" {
		t.Fatalf("expected new key to validate, got ok=%v wid=%q", ok, wid)
	}
}

func TestRotateKey_CreatesRecordWhenMissing(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store)

	if _, err := svc.RotateKey(context.Background(), "w1"); err != nil {
		t.Fatalf("rotate: %v", err)
	}
	rec, err := store.GetByProvider(context.Background(), "w1", TelephonyProvider)
	if err != nil {
		t.Fatalf("expected record created, got %v", err)
	}
	if rec.Status != StatusInactive {
		t.Fatalf("new record should start inactive, got %q", rec.Status)
	}
}

func TestUpsertTelephonyConfig_TogglesStatus(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store)
	ctx := context.Background()

	number := "+918000000000"
	enabled := true
	rec, err := svc.UpsertTelephonyConfig(ctx, UpsertTelephonyRequest{
		WorkspaceID:   "w1",
		VirtualNumber: &number,
		Enabled:       &enabled,
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if rec.Status != StatusActive || rec.Config[ConfigKeyVirtualNumber] != number {
		t.Fatalf("unexpected record: %+v", rec)
	}

	disabled := false
	rec, err = svc.UpsertTelephonyConfig(ctx, UpsertTelephonyRequest{WorkspaceID: "w1", Enabled: &disabled})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if rec.Status != StatusInactive {
		t.Fatalf("expected inactive, got %q", rec.Status)
	}
	if rec.Config[ConfigKeyVirtualNumber] != number {
		t.Fatalf("virtual number should be preserved")
	}
}

func TestTelephonyConfig_MasksKey(t *testing.T) {
	store := NewMemoryStore()
	seedTelephony(t, store, "w1", "sr_abcdefghijklmnop", StatusActive)
	svc := NewService(store)

	view, err := svc.TelephonyConfig(context.Background(), "w1")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if !view.Exists || !view.HasAPIKey {
		t.Fatalf("expected existing record with key")
	}
	if strings.Contains(view.APIKeyPreview, "abcdefghijklm") {
		t.Fatalf("preview leaks key: %q", view.APIKeyPreview)
	}
	if !strings.HasPrefix(view.APIKeyPreview, "sr_a") || !strings.HasSuffix(view.APIKeyPreview, "mnop") {
		t.Fatalf("unexpected preview: %q", view.APIKeyPreview)
	}
}

func TestMaskKey_ShortKeysFullyMasked(t *testing.T) {
	if got := MaskKey("short"); got != "*****" {
		t.Fatalf("expected full mask, got %q", got)
	}
	if got := MaskKey(""); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}

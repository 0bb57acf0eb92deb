package audit

import (
	"context"
	"testing"
)

func TestService_AppendRequiresWorkspaceAndType(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	if err := svc.Append(context.Background(), Event{Type: EventTypeKeyRotated}); err == nil {
		t.Fatalf("expected error")
	}
	if err := svc.Append(context.Background(), Event{WorkspaceID: "w"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestService_AppendsImmutableEvents(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	actor := Actor{UserID: "u", Role: "owner", IP: "1.2.3.4"}
	if err := svc.LogKeyRotated(context.Background(), "w", actor, "i1"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	evs := repo.Events()
	if len(evs) != 1 {
		t.Fatalf("expected 1 event")
	}
	if evs[0].IPAddress != "1.2.3.4" {
		t.Fatalf("expected ip captured")
	}
	if evs[0].Type != EventTypeKeyRotated || evs[0].IntegrationID != "i1" {
		t.Fatalf("unexpected event: %+v", evs[0])
	}
	if evs[0].ID == "" || evs[0].CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamp filled: %+v", evs[0])
	}
}

func TestService_HelperLoggers(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()
	actor := Actor{UserID: "u", Role: "agent"}

	if err := svc.LogCallEnded(ctx, "w", actor, "c1"); err != nil {
		t.Fatalf("LogCallEnded: %v", err)
	}
	if err := svc.LogIntegrationUpdated(ctx, "w", actor, "i1", `{"enabled":true}`); err != nil {
		t.Fatalf("LogIntegrationUpdated: %v", err)
	}
	if err := svc.LogSOPGenerated(ctx, "w", actor, "s1"); err != nil {
		t.Fatalf("LogSOPGenerated: %v", err)
	}

	evs := repo.Events()
	if len(evs) != 3 {
		t.Fatalf("expected 3 events, got %d", len(evs))
	}
	if evs[0].CallID != "c1" || evs[1].Metadata == "" || evs[2].SOPID != "s1" {
		t.Fatalf("unexpected events: %+v", evs)
	}
}

package calls

import "testing"

func TestCallStatusIsTerminal(t *testing.T) {
	terminal := []CallStatus{CallStatusCompleted, CallStatusEscalated, CallStatusFailed}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Fatalf("expected %q to be terminal", s)
		}
	}
	open := []CallStatus{CallStatusRinging, CallStatusActive, CallStatus("")}
	for _, s := range open {
		if s.IsTerminal() {
			t.Fatalf("expected %q not to be terminal", s)
		}
	}
}

func TestProviderCallID(t *testing.T) {
	var c Call
	if got := c.ProviderCallID(); got != "" {
		t.Fatalf("expected empty id without metadata, got %q", got)
	}
	c.Metadata = map[string]string{MetaProviderCallID: "abc123"}
	if got := c.ProviderCallID(); got != "abc123" {
		t.Fatalf("expected abc123, got %q", got)
	}
}

package voice

import (
	"encoding/xml"
	"strings"
	"testing"
)

func TestRenderMarkup_RecordInstruction(t *testing.T) {
	out, err := RenderMarkup(Markup{
		Speak:         "Hello, how can I help?",
		RecordAction:  "https://voice.example.com/webhooks/voice/process-audio?api_key=sr_k",
		RecordSeconds: 30,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	for _, want := range []string{"<playtext", "<record", `maxlength="30"`, `terminator="#"`, `playbeep="true"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in markup: %s", want, out)
		}
	}
	if strings.Contains(out, "<hangup") {
		t.Fatalf("record markup must not hang up: %s", out)
	}
}

func TestRenderMarkup_HangupInstruction(t *testing.T) {
	out, err := RenderMarkup(Markup{Speak: "Goodbye.", Hangup: true})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(out, "<hangup") {
		t.Fatalf("expected hangup verb: %s", out)
	}
}

func TestRenderMarkup_RequiresOneVerb(t *testing.T) {
	if _, err := RenderMarkup(Markup{Speak: "hi"}); err == nil {
		t.Fatalf("expected error for markup without record or hangup")
	}
	if _, err := RenderMarkup(Markup{RecordAction: "https://x", Hangup: true}); err == nil {
		t.Fatalf("expected error for record+hangup")
	}
}

func TestRenderMarkup_EscapesCallerInfluencedText(t *testing.T) {
	hostile := `You said "cancel & <quit>" right?`
	out, err := RenderMarkup(Markup{
		Speak:        hostile,
		RecordAction: `https://voice.example.com/process?api_key=a&b=c`,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// Re-parsing must yield the original characters: escaping failures would
	// let a transcript break the control structure.
	var parsed markupResponse
	if err := xml.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("markup does not re-parse: %v\n%s", err, out)
	}
	if parsed.Playtext == nil || parsed.Playtext.Data != hostile {
		t.Fatalf("round-trip mismatch: %+v", parsed.Playtext)
	}
	if parsed.Record == nil || parsed.Record.Action != `https://voice.example.com/process?api_key=a&b=c` {
		t.Fatalf("action round-trip mismatch: %+v", parsed.Record)
	}
}

func TestRenderMarkup_DefaultRecordSeconds(t *testing.T) {
	out, err := RenderMarkup(Markup{Speak: "hi", RecordAction: "https://x"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(out, `maxlength="30"`) {
		t.Fatalf("expected default maxlength 30: %s", out)
	}
}

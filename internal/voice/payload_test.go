package voice

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNormalizePayload_EncodingIndependence(t *testing.T) {
	want := map[string]string{
		"caller_id": "+15551234567",
		"uuid":      "abc123",
	}

	jsonReq := httptest.NewRequest(http.MethodPost, "/webhooks/voice/incoming-call",
		strings.NewReader(`{"caller_id":"+15551234567","uuid":"abc123"}`))
	jsonReq.Header.Set("Content-Type", "application/json")

	formReq := httptest.NewRequest(http.MethodPost, "/webhooks/voice/incoming-call",
		strings.NewReader("caller_id=%2B15551234567&uuid=abc123"))
	formReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("caller_id", "+15551234567")
	_ = mw.WriteField("uuid", "abc123")
	_ = mw.Close()
	multiReq := httptest.NewRequest(http.MethodPost, "/webhooks/voice/incoming-call", &buf)
	multiReq.Header.Set("Content-Type", mw.FormDataContentType())

	for name, r := range map[string]*http.Request{"json": jsonReq, "form": formReq, "multipart": multiReq} {
		got := NormalizePayload(r)
		for k, v := range want {
			if got[k] != v {
				t.Fatalf("%s: expected %s=%q, got %q", name, k, v, got[k])
			}
		}
	}
}

func TestNormalizePayload_MalformedDegradesToEmpty(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("{not json"))
	r.Header.Set("Content-Type", "application/json")
	if got := NormalizePayload(r); len(got) != 0 {
		t.Fatalf("expected empty map, got %v", got)
	}

	r = httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("%%%garbage"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if got := NormalizePayload(r); len(got) != 0 {
		t.Fatalf("expected empty map for bad form, got %v", got)
	}
}

func TestNormalizePayload_NoContentTypeBestEffortJSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"call_id":"z9"}`))
	got := NormalizePayload(r)
	if got["call_id"] != "z9" {
		t.Fatalf("expected best-effort json parse, got %v", got)
	}

	r = httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("plain text"))
	if got := NormalizePayload(r); len(got) != 0 {
		t.Fatalf("expected empty map for non-json raw body, got %v", got)
	}
}

func TestNormalizePayload_StringifiesScalars(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/x",
		strings.NewReader(`{"duration":42,"answered":true,"nested":{"a":1}}`))
	r.Header.Set("Content-Type", "application/json")
	got := NormalizePayload(r)
	if got["duration"] != "42" {
		t.Fatalf("expected duration 42, got %q", got["duration"])
	}
	if got["answered"] != "true" {
		t.Fatalf("expected answered true, got %q", got["answered"])
	}
	if got["nested"] != `{"a":1}` {
		t.Fatalf("expected nested json text, got %q", got["nested"])
	}
}

func TestExtractFields_AliasPriority(t *testing.T) {
	f := ExtractFields(map[string]string{
		"from":          "+15550001111",
		"caller_number": "+15559999999",
		"call_uuid":     "u-2",
		"uuid":          "u-1",
		"recordingUrl":  "https://cdn.example.com/r.wav",
		"event":         "answered",
		"duration":      "37",
	})
	if f.CallerPhone != "+15550001111" {
		t.Fatalf("expected first alias to win, got %q", f.CallerPhone)
	}
	if f.ProviderCallID != "u-1" {
		t.Fatalf("expected uuid alias to win, got %q", f.ProviderCallID)
	}
	if f.RecordingURL != "https://cdn.example.com/r.wav" {
		t.Fatalf("unexpected recording url %q", f.RecordingURL)
	}
	if f.Event != "answered" || f.Duration != 37 {
		t.Fatalf("unexpected event/duration: %q %d", f.Event, f.Duration)
	}
}

func TestExtractFields_EmptyPayload(t *testing.T) {
	f := ExtractFields(map[string]string{})
	if f.CallerPhone != "" || f.ProviderCallID != "" || f.RecordingURL != "" {
		t.Fatalf("expected zero fields, got %+v", f)
	}
}

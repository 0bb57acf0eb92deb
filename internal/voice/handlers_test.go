package voice

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"voice-platform/internal/calls"
	"voice-platform/internal/integrations"

	"github.com/gin-gonic/gin"
)

const testKey = "sr_test_key_0123456789"

func newTestHandler(t *testing.T, store calls.Store, opts ...func(*Handler)) (*gin.Engine, *Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ints := integrations.NewMemoryStore()
	err := ints.Upsert(context.Background(), integrations.Integration{
		ID:          "i1",
		WorkspaceID: "w1",
		Name:        "Knowlarity SR",
		Type:        "telephony",
		Provider:    integrations.TelephonyProvider,
		Status:      integrations.StatusActive,
		Config:      map[string]string{integrations.ConfigKeyAPIKey: testKey},
		CreatedAt:   time.Unix(1700000000, 0).UTC(),
		UpdatedAt:   time.Unix(1700000000, 0).UTC(),
	})
	if err != nil {
		t.Fatalf("seed integration: %v", err)
	}

	h := &Handler{
		Integrations:  integrations.NewService(ints),
		Calls:         calls.NewService(store),
		Greeting:      "Hello, thank you for calling.",
		Goodbye:       "Thank you for calling. Goodbye.",
		RecordSeconds: 30,
	}
	for _, opt := range opts {
		opt(h)
	}

	r := gin.New()
	h.Register(r)
	return r, h
}

func doJSON(r *gin.Engine, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Host = "voice.example.com"
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIncomingCall_MissingKeyRejectedWithoutWrites(t *testing.T) {
	store := calls.NewMemoryStore()
	r, _ := newTestHandler(t, store)

	w := doJSON(r, http.MethodPost, "/webhooks/voice/incoming-call", `{"caller_id":"+15551234567"}`, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "<response>") {
		t.Fatalf("401 must not carry markup: %s", w.Body.String())
	}

	rows, _ := store.List(context.Background(), "w1", 0)
	if len(rows) != 0 {
		t.Fatalf("expected no writes, got %d rows", len(rows))
	}
}

func TestIncomingCall_BadKeyRejected(t *testing.T) {
	r, _ := newTestHandler(t, calls.NewMemoryStore())

	w := doJSON(r, http.MethodPost, "/webhooks/voice/incoming-call?api_key=sr_wrong", `{}`, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestIncomingCall_CreatesActiveCallAndRecordInstruction(t *testing.T) {
	store := calls.NewMemoryStore()
	r, _ := newTestHandler(t, store)

	w := doJSON(r, http.MethodPost, "/webhooks/voice/incoming-call",
		`{"caller_id":"+15551234567","uuid":"abc123"}`,
		map[string]string{"x-api-key": testKey})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/xml") {
		t.Fatalf("expected xml content type, got %q", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, "/webhooks/voice/process-audio?api_key=") {
		t.Fatalf("record action must target process-audio with the key: %s", body)
	}
	if !strings.Contains(body, "<record") {
		t.Fatalf("expected record instruction: %s", body)
	}

	rows, _ := store.List(context.Background(), "w1", 0)
	if len(rows) != 1 {
		t.Fatalf("expected one call row, got %d", len(rows))
	}
	c := rows[0]
	if c.Status != calls.CallStatusActive || c.CallerPhone != "+15551234567" {
		t.Fatalf("unexpected row: %+v", c)
	}
	if c.ProviderCallID() != "abc123" {
		t.Fatalf("expected provider call id in metadata, got %q", c.ProviderCallID())
	}
}

func TestIncomingCall_HeaderKeyViaQueryParamAlsoWorks(t *testing.T) {
	store := calls.NewMemoryStore()
	r, _ := newTestHandler(t, store)

	w := doJSON(r, http.MethodGet, "/webhooks/voice/incoming-call?api_key="+testKey, `{}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	rows, _ := store.List(context.Background(), "w1", 0)
	if len(rows) != 1 || rows[0].CallerPhone != "Unknown" {
		t.Fatalf("expected one row with Unknown caller, got %+v", rows)
	}
}

func TestProcessAudio_UpdatesExistingRowAndContinues(t *testing.T) {
	store := calls.NewMemoryStore()
	r, _ := newTestHandler(t, store)
	ctx := context.Background()

	doJSON(r, http.MethodPost, "/webhooks/voice/incoming-call",
		`{"caller_id":"+15551234567","uuid":"abc123"}`,
		map[string]string{"x-api-key": testKey})

	w := doJSON(r, http.MethodPost, "/webhooks/voice/process-audio",
		`{"uuid":"abc123","recording_url":"https://cdn.example.com/r1.wav"}`,
		map[string]string{"x-api-key": testKey})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "<record") {
		t.Fatalf("stub decision defaults to continue: %s", w.Body.String())
	}

	rows, _ := store.List(ctx, "w1", 0)
	if len(rows) != 1 {
		t.Fatalf("turn must never create a second row, got %d", len(rows))
	}
	c := rows[0]
	if c.LastRecordingURL != "https://cdn.example.com/r1.wav" {
		t.Fatalf("recording not applied: %+v", c)
	}
	if c.LastTranscript == "" {
		t.Fatalf("expected reply stored as transcript")
	}
	if c.Status != calls.CallStatusActive {
		t.Fatalf("continue must keep the call active, got %q", c.Status)
	}
}

func TestProcessAudio_UnknownIDStillAnswersMarkup(t *testing.T) {
	store := calls.NewMemoryStore()
	r, _ := newTestHandler(t, store)

	w := doJSON(r, http.MethodPost, "/webhooks/voice/process-audio",
		`{"uuid":"never-seen","recording_url":"https://cdn.example.com/r.wav"}`,
		map[string]string{"x-api-key": testKey})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "<record") {
		t.Fatalf("expected valid markup despite missing row: %s", w.Body.String())
	}
	rows, _ := store.List(context.Background(), "w1", 0)
	if len(rows) != 0 {
		t.Fatalf("expected zero rows updated or created, got %d", len(rows))
	}
}

type sequenceDecider struct {
	n int
}

func (d *sequenceDecider) Decide(ctx context.Context, t Turn) (Decision, error) {
	d.n++
	return Decision{Reply: fmt.Sprintf("reply-%d", d.n), Action: ActionContinue}, nil
}

func TestProcessAudio_DuplicateDeliverySuppressed(t *testing.T) {
	store := calls.NewMemoryStore()
	dec := &sequenceDecider{}
	r, _ := newTestHandler(t, store, func(h *Handler) {
		h.Decider = dec
		h.Dedupe = NewMemoryDedupe()
	})
	ctx := context.Background()

	doJSON(r, http.MethodPost, "/webhooks/voice/incoming-call",
		`{"uuid":"abc123"}`, map[string]string{"x-api-key": testKey})

	turn := `{"uuid":"abc123","recording_url":"https://cdn.example.com/r1.wav"}`
	doJSON(r, http.MethodPost, "/webhooks/voice/process-audio", turn, map[string]string{"x-api-key": testKey})
	w := doJSON(r, http.MethodPost, "/webhooks/voice/process-audio", turn, map[string]string{"x-api-key": testKey})
	if w.Code != http.StatusOK {
		t.Fatalf("retry must still get markup, got %d", w.Code)
	}

	rows, _ := store.List(ctx, "w1", 0)
	if rows[0].LastTranscript != "reply-1" {
		t.Fatalf("duplicate turn must not overwrite the row, got %q", rows[0].LastTranscript)
	}

	// A new recording is a new turn, not a retry.
	doJSON(r, http.MethodPost, "/webhooks/voice/process-audio",
		`{"uuid":"abc123","recording_url":"https://cdn.example.com/r2.wav"}`,
		map[string]string{"x-api-key": testKey})
	rows, _ = store.List(ctx, "w1", 0)
	if rows[0].LastRecordingURL != "https://cdn.example.com/r2.wav" {
		t.Fatalf("next turn must apply: %+v", rows[0])
	}
}

type fixedDecider struct {
	d   Decision
	err error
}

func (f fixedDecider) Decide(ctx context.Context, t Turn) (Decision, error) { return f.d, f.err }

func TestProcessAudio_EndDecisionHangsUpAndCompletes(t *testing.T) {
	store := calls.NewMemoryStore()
	r, _ := newTestHandler(t, store, func(h *Handler) {
		h.Decider = fixedDecider{d: Decision{Reply: "All done.", Action: ActionEnd}}
	})

	doJSON(r, http.MethodPost, "/webhooks/voice/incoming-call",
		`{"uuid":"abc123"}`, map[string]string{"x-api-key": testKey})
	w := doJSON(r, http.MethodPost, "/webhooks/voice/process-audio",
		`{"uuid":"abc123","recording_url":"https://cdn.example.com/r.wav"}`,
		map[string]string{"x-api-key": testKey})

	if !strings.Contains(w.Body.String(), "<hangup") {
		t.Fatalf("expected hangup markup: %s", w.Body.String())
	}
	rows, _ := store.List(context.Background(), "w1", 0)
	if rows[0].Status != calls.CallStatusCompleted || rows[0].EndedAt == nil {
		t.Fatalf("expected completed call, got %+v", rows[0])
	}
}

func TestProcessAudio_EscalateDecisionMarksEscalated(t *testing.T) {
	store := calls.NewMemoryStore()
	r, _ := newTestHandler(t, store, func(h *Handler) {
		h.Decider = fixedDecider{d: Decision{Reply: "Escalating.", Action: ActionEscalate}}
	})

	doJSON(r, http.MethodPost, "/webhooks/voice/incoming-call",
		`{"uuid":"abc123"}`, map[string]string{"x-api-key": testKey})
	w := doJSON(r, http.MethodPost, "/webhooks/voice/process-audio",
		`{"uuid":"abc123"}`, map[string]string{"x-api-key": testKey})

	if !strings.Contains(w.Body.String(), "<hangup") {
		t.Fatalf("expected hangup markup: %s", w.Body.String())
	}
	rows, _ := store.List(context.Background(), "w1", 0)
	if rows[0].Status != calls.CallStatusEscalated {
		t.Fatalf("expected escalated call, got %q", rows[0].Status)
	}
}

func TestProcessAudio_AfterOperatorEndLeavesCallCompleted(t *testing.T) {
	store := calls.NewMemoryStore()
	r, h := newTestHandler(t, store, func(h *Handler) {
		h.Decider = fixedDecider{d: Decision{Reply: "Escalating.", Action: ActionEscalate}}
	})

	doJSON(r, http.MethodPost, "/webhooks/voice/incoming-call",
		`{"uuid":"abc123"}`, map[string]string{"x-api-key": testKey})
	rows, _ := store.List(context.Background(), "w1", 0)
	if _, err := h.Calls.EndByOperator(context.Background(), "w1", rows[0].ID); err != nil {
		t.Fatalf("operator end: %v", err)
	}

	// The provider delivers one more recording after the dashboard already
	// ended the call. The caller still gets valid markup, but the ended row
	// must stay completed.
	w := doJSON(r, http.MethodPost, "/webhooks/voice/process-audio",
		`{"uuid":"abc123"}`, map[string]string{"x-api-key": testKey})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "<response>") {
		t.Fatalf("expected markup: %s", w.Body.String())
	}

	rows, _ = store.List(context.Background(), "w1", 0)
	if rows[0].Status != calls.CallStatusCompleted {
		t.Fatalf("late turn must not restamp ended call, got %q", rows[0].Status)
	}
}

func TestProcessAudio_DeciderErrorFallsBackToContinue(t *testing.T) {
	store := calls.NewMemoryStore()
	r, _ := newTestHandler(t, store, func(h *Handler) {
		h.Decider = fixedDecider{err: errors.New("model timeout")}
	})

	doJSON(r, http.MethodPost, "/webhooks/voice/incoming-call",
		`{"uuid":"abc123"}`, map[string]string{"x-api-key": testKey})
	w := doJSON(r, http.MethodPost, "/webhooks/voice/process-audio",
		`{"uuid":"abc123"}`, map[string]string{"x-api-key": testKey})

	if !strings.Contains(w.Body.String(), "<record") {
		t.Fatalf("decider failure must degrade to continue: %s", w.Body.String())
	}
}

type panicDecider struct{}

func (panicDecider) Decide(ctx context.Context, t Turn) (Decision, error) { panic("boom") }

func TestProcessAudio_PanicStillEmitsMarkup(t *testing.T) {
	store := calls.NewMemoryStore()
	r, _ := newTestHandler(t, store, func(h *Handler) {
		h.Decider = panicDecider{}
	})

	w := doJSON(r, http.MethodPost, "/webhooks/voice/process-audio",
		`{"uuid":"abc123"}`, map[string]string{"x-api-key": testKey})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "<hangup") {
		t.Fatalf("expected apology hangup markup: %s", w.Body.String())
	}
}

type failingStore struct {
	*calls.MemoryStore
}

func (s failingStore) Insert(ctx context.Context, c calls.Call) error {
	return errors.New("store unavailable")
}

func TestIncomingCall_StoreFailureDegradesToApologyMarkup(t *testing.T) {
	r, _ := newTestHandler(t, failingStore{calls.NewMemoryStore()})

	w := doJSON(r, http.MethodPost, "/webhooks/voice/incoming-call",
		`{"caller_id":"+15551234567"}`, map[string]string{"x-api-key": testKey})
	if w.Code != http.StatusOK {
		t.Fatalf("store failure must not surface a bare error, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "<hangup") {
		t.Fatalf("expected apology hangup: %s", w.Body.String())
	}
}

func TestIncomingCall_ConcurrencyCapRejectsPolitely(t *testing.T) {
	store := calls.NewMemoryStore()
	r, _ := newTestHandler(t, store, func(h *Handler) {
		h.Limiter = NewMemoryCallLimiter(1)
		h.Decider = fixedDecider{d: Decision{Reply: "Done.", Action: ActionEnd}}
	})
	ctx := context.Background()

	doJSON(r, http.MethodPost, "/webhooks/voice/incoming-call",
		`{"uuid":"first"}`, map[string]string{"x-api-key": testKey})

	w := doJSON(r, http.MethodPost, "/webhooks/voice/incoming-call",
		`{"uuid":"second"}`, map[string]string{"x-api-key": testKey})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "<hangup") {
		t.Fatalf("expected busy hangup markup, got %d %s", w.Code, w.Body.String())
	}
	rows, _ := store.List(ctx, "w1", 0)
	if len(rows) != 1 {
		t.Fatalf("rejected call must not create a row, got %d", len(rows))
	}

	// Ending the first call frees the slot.
	doJSON(r, http.MethodPost, "/webhooks/voice/process-audio",
		`{"uuid":"first"}`, map[string]string{"x-api-key": testKey})
	w = doJSON(r, http.MethodPost, "/webhooks/voice/incoming-call",
		`{"uuid":"third"}`, map[string]string{"x-api-key": testKey})
	if !strings.Contains(w.Body.String(), "<record") {
		t.Fatalf("expected slot freed after hangup: %s", w.Body.String())
	}
}

func TestStatusCallback_CreatesAndCompletes(t *testing.T) {
	store := calls.NewMemoryStore()
	r, _ := newTestHandler(t, store)
	ctx := context.Background()

	w := doJSON(r, http.MethodPost, "/webhooks/voice/status",
		`{"uuid":"z1","caller_id":"+15557654321","event":"answered"}`,
		map[string]string{"x-api-key": testKey})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"created"`) {
		t.Fatalf("expected created, got %d %s", w.Code, w.Body.String())
	}

	w = doJSON(r, http.MethodPost, "/webhooks/voice/status",
		`{"uuid":"z1","event":"hangup","duration":"55"}`,
		map[string]string{"x-api-key": testKey})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"updated"`) {
		t.Fatalf("expected updated, got %d %s", w.Code, w.Body.String())
	}

	rows, _ := store.List(ctx, "w1", 0)
	if len(rows) != 1 || rows[0].Status != calls.CallStatusCompleted || rows[0].DurationSeconds != 55 {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestMapProviderStatus(t *testing.T) {
	cases := map[string]calls.CallStatus{
		"answered":     calls.CallStatusActive,
		"connected":    calls.CallStatusActive,
		"hangup":       calls.CallStatusCompleted,
		"call_ended":   calls.CallStatusCompleted,
		"disconnected": calls.CallStatusCompleted,
		"ringing":      calls.CallStatusRinging,
		"offer":        calls.CallStatusRinging,
		"":             calls.CallStatusActive,
	}
	for in, want := range cases {
		if got := mapProviderStatus(in); got != want {
			t.Fatalf("mapProviderStatus(%q) = %q, want %q", in, got, want)
		}
	}
}

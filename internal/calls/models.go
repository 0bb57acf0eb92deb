package calls

import "time"

// Call represents one tenant-scoped phone interaction, from ring to hangup.
//
// Multi-tenant invariant: WorkspaceID is required on every row.
//
// Correlation: the telephony vendor's opaque call identifier is kept in
// Metadata under MetaProviderCallID. It may be absent, in which case turn
// correlation falls back to the most recent active call in the workspace.
//
// Status invariant: at most one row is active per provider call id, and a call
// leaves active exactly once (completed, escalated or failed) and is then
// immutable in status.

type Call struct {
	ID          string `json:"id" db:"id"`
	WorkspaceID string `json:"workspace_id" db:"workspace_id"`

	CallerPhone string `json:"caller_phone" db:"caller_phone"`
	CallerName  string `json:"caller_name,omitempty" db:"caller_name"`
	Topic       string `json:"topic,omitempty" db:"topic"`

	Status CallStatus `json:"status" db:"status"`

	StartedAt time.Time  `json:"started_at" db:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty" db:"ended_at"`

	// DurationSeconds is derived from started_at/ended_at when the call ends,
	// unless the provider reported an authoritative duration.
	DurationSeconds int `json:"duration" db:"duration"`

	LastTranscript   string `json:"last_transcript,omitempty" db:"last_transcript"`
	LastRecordingURL string `json:"last_recording_url,omitempty" db:"last_recording_url"`

	Sentiment Sentiment `json:"sentiment,omitempty" db:"sentiment"`
	AIHandled bool      `json:"ai_handled" db:"ai_handled"`

	// Metadata retains the raw provider payload for audit/debugging, plus the
	// correlation keys below.
	Metadata map[string]string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type CallStatus string

const (
	CallStatusRinging   CallStatus = "ringing"
	CallStatusActive    CallStatus = "active"
	CallStatusCompleted CallStatus = "completed"
	CallStatusEscalated CallStatus = "escalated"
	CallStatusFailed    CallStatus = "failed"
)

// IsTerminal reports whether no further status transition is allowed.
func (s CallStatus) IsTerminal() bool {
	switch s {
	case CallStatusCompleted, CallStatusEscalated, CallStatusFailed:
		return true
	default:
		return false
	}
}

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Metadata keys written by the webhook flow.
const (
	MetaProviderCallID   = "provider_call_id"
	MetaOwnerWorkspaceID = "owner_workspace_id"
)

// ProviderCallID returns the vendor call identifier, if known.
func (c Call) ProviderCallID() string {
	if c.Metadata == nil {
		return ""
	}
	return c.Metadata[MetaProviderCallID]
}

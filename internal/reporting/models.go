package reporting

import (
	"time"

	"voice-platform/internal/calls"
)

// Common filtering inputs.

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// CallsSummaryRequest requests aggregated call metrics.
// Workspace isolation: WorkspaceID is required.

type CallsSummaryRequest struct {
	WorkspaceID string    `json:"workspace_id"`
	Range       TimeRange `json:"range"`
}

type CallsSummary struct {
	WorkspaceID string `json:"workspace_id"`

	TotalCalls     int `json:"total_calls"`
	CompletedCalls int `json:"completed_calls"`
	ActiveCalls    int `json:"active_calls"`
	RingingCalls   int `json:"ringing_calls"`
	EscalatedCalls int `json:"escalated_calls"`
	FailedCalls    int `json:"failed_calls"`

	AIHandledCalls int `json:"ai_handled_calls"`
	RecordedCalls  int `json:"recorded_calls"`

	TotalDurationSeconds   int `json:"total_duration_seconds"`
	AverageDurationSeconds int `json:"average_duration_seconds"`

	Sentiment SentimentBreakdown `json:"sentiment"`
}

type SentimentBreakdown struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
	Unknown  int `json:"unknown"`
}

// VolumePoint is one day of call volume for the analytics chart.
type VolumePoint struct {
	Date  string `json:"date"`
	Calls int    `json:"calls"`
}

// DashboardStats backs the operator landing page.
type DashboardStats struct {
	TotalCalls     int          `json:"total_calls"`
	ActiveCalls    int          `json:"active_calls"`
	AIResolvedRate float64      `json:"ai_resolved_rate"`
	RecentCalls    []calls.Call `json:"recent_calls"`
}

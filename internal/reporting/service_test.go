package reporting

import (
	"context"
	"testing"
	"time"

	"voice-platform/internal/calls"
)

func seedCall(t *testing.T, store *calls.MemoryStore, id string, ws string, status calls.CallStatus, started time.Time, dur int, ai bool, sentiment calls.Sentiment) {
	t.Helper()
	ended := started.Add(time.Duration(dur) * time.Second)
	c := calls.Call{
		ID:              id,
		WorkspaceID:     ws,
		CallerPhone:     "+15550000000",
		Status:          status,
		StartedAt:       started,
		DurationSeconds: dur,
		Sentiment:       sentiment,
		AIHandled:       ai,
		CreatedAt:       started,
		UpdatedAt:       ended,
	}
	if status.IsTerminal() {
		c.EndedAt = &ended
	}
	if err := store.Insert(context.Background(), c); err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
}

func TestCallsSummary(t *testing.T) {
	store := calls.NewMemoryStore()
	day := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	seedCall(t, store, "c1", "w1", calls.CallStatusCompleted, day.Add(1*time.Hour), 120, true, "positive")
	seedCall(t, store, "c2", "w1", calls.CallStatusCompleted, day.Add(2*time.Hour), 60, false, "negative")
	seedCall(t, store, "c3", "w1", calls.CallStatusActive, day.Add(3*time.Hour), 0, true, "")
	seedCall(t, store, "c4", "w1", calls.CallStatusEscalated, day.Add(4*time.Hour), 30, true, "neutral")
	// Other workspace and out of range rows must not leak in.
	seedCall(t, store, "c5", "w2", calls.CallStatusCompleted, day.Add(1*time.Hour), 600, true, "positive")
	seedCall(t, store, "c6", "w1", calls.CallStatusCompleted, day.AddDate(0, 0, 7), 600, true, "positive")

	svc := NewService(store)
	got, err := svc.CallsSummary(context.Background(), CallsSummaryRequest{
		WorkspaceID: "w1",
		Range:       TimeRange{From: day, To: day.AddDate(0, 0, 1)},
	})
	if err != nil {
		t.Fatalf("CallsSummary: %v", err)
	}

	if got.TotalCalls != 4 || got.CompletedCalls != 2 || got.ActiveCalls != 1 || got.EscalatedCalls != 1 {
		t.Fatalf("unexpected status counts: %+v", got)
	}
	if got.AIHandledCalls != 3 {
		t.Fatalf("expected 3 ai handled, got %d", got.AIHandledCalls)
	}
	if got.TotalDurationSeconds != 210 || got.AverageDurationSeconds != 52 {
		t.Fatalf("unexpected durations: %+v", got)
	}
	if got.Sentiment.Positive != 1 || got.Sentiment.Negative != 1 || got.Sentiment.Neutral != 1 || got.Sentiment.Unknown != 1 {
		t.Fatalf("unexpected sentiment: %+v", got.Sentiment)
	}
}

func TestCallsSummary_RejectsBadRange(t *testing.T) {
	svc := NewService(calls.NewMemoryStore())
	now := time.Now()

	cases := []CallsSummaryRequest{
		{WorkspaceID: "", Range: TimeRange{From: now.Add(-time.Hour), To: now}},
		{WorkspaceID: "w1"},
		{WorkspaceID: "w1", Range: TimeRange{From: now, To: now.Add(-time.Hour)}},
	}
	for i, req := range cases {
		if _, err := svc.CallsSummary(context.Background(), req); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

func TestCallVolume_FillsEmptyDays(t *testing.T) {
	store := calls.NewMemoryStore()
	day := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	seedCall(t, store, "c1", "w1", calls.CallStatusCompleted, day.Add(10*time.Hour), 60, true, "positive")
	seedCall(t, store, "c2", "w1", calls.CallStatusCompleted, day.Add(11*time.Hour), 60, true, "positive")
	seedCall(t, store, "c3", "w1", calls.CallStatusCompleted, day.AddDate(0, 0, 2).Add(time.Hour), 60, true, "positive")

	svc := NewService(store)
	points, err := svc.CallVolume(context.Background(), CallsSummaryRequest{
		WorkspaceID: "w1",
		Range:       TimeRange{From: day, To: day.AddDate(0, 0, 3)},
	})
	if err != nil {
		t.Fatalf("CallVolume: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	if points[0].Calls != 2 || points[1].Calls != 0 || points[2].Calls != 1 {
		t.Fatalf("unexpected buckets: %+v", points)
	}
	if points[1].Date != "2026-08-02" {
		t.Fatalf("unexpected date: %s", points[1].Date)
	}
}

func TestDashboard(t *testing.T) {
	store := calls.NewMemoryStore()
	day := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	seedCall(t, store, "c1", "w1", calls.CallStatusCompleted, day, 60, true, "positive")
	seedCall(t, store, "c2", "w1", calls.CallStatusCompleted, day.Add(time.Hour), 60, false, "neutral")
	seedCall(t, store, "c3", "w1", calls.CallStatusActive, day.Add(2*time.Hour), 0, true, "")
	seedCall(t, store, "c4", "w1", calls.CallStatusEscalated, day.Add(3*time.Hour), 30, true, "negative")

	svc := NewService(store)
	got, err := svc.Dashboard(context.Background(), "w1")
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if got.TotalCalls != 4 || got.ActiveCalls != 1 {
		t.Fatalf("unexpected stats: %+v", got)
	}
	// 3 terminal calls, 1 completed by AI.
	if got.AIResolvedRate < 0.33 || got.AIResolvedRate > 0.34 {
		t.Fatalf("unexpected ai resolved rate: %v", got.AIResolvedRate)
	}
	if len(got.RecentCalls) != 4 {
		t.Fatalf("expected 4 recent calls, got %d", len(got.RecentCalls))
	}
}

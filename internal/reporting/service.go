package reporting

import (
	"context"
	"errors"
	"time"

	"voice-platform/internal/calls"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Repository abstracts data access for reporting.
//
// IMPORTANT: methods must enforce workspace filtering. calls.Store satisfies
// this interface.
type Repository interface {
	ListRange(ctx context.Context, workspaceID string, from, to time.Time) ([]calls.Call, error)
	List(ctx context.Context, workspaceID string, limit int) ([]calls.Call, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

func (s *Service) CallsSummary(ctx context.Context, req CallsSummaryRequest) (CallsSummary, error) {
	if req.WorkspaceID == "" {
		return CallsSummary{}, ErrInvalidRequest
	}
	if req.Range.From.IsZero() || req.Range.To.IsZero() || !req.Range.To.After(req.Range.From) {
		return CallsSummary{}, ErrInvalidRequest
	}
	if s.repo == nil {
		return CallsSummary{}, errors.New("reporting: repository not configured")
	}

	rows, err := s.repo.ListRange(ctx, req.WorkspaceID, req.Range.From, req.Range.To)
	if err != nil {
		return CallsSummary{}, err
	}

	out := CallsSummary{WorkspaceID: req.WorkspaceID}
	for _, c := range rows {
		out.TotalCalls++
		out.TotalDurationSeconds += c.DurationSeconds
		if c.AIHandled {
			out.AIHandledCalls++
		}
		if c.LastRecordingURL != "" {
			out.RecordedCalls++
		}
		switch c.Status {
		case calls.CallStatusCompleted:
			out.CompletedCalls++
		case calls.CallStatusActive:
			out.ActiveCalls++
		case calls.CallStatusRinging:
			out.RingingCalls++
		case calls.CallStatusEscalated:
			out.EscalatedCalls++
		case calls.CallStatusFailed:
			out.FailedCalls++
		}
		switch c.Sentiment {
		case "positive":
			out.Sentiment.Positive++
		case "neutral":
			out.Sentiment.Neutral++
		case "negative":
			out.Sentiment.Negative++
		default:
			out.Sentiment.Unknown++
		}
	}
	if out.TotalCalls > 0 {
		out.AverageDurationSeconds = out.TotalDurationSeconds / out.TotalCalls
	}
	return out, nil
}

// CallVolume buckets calls per UTC day across the range, emitting a point for
// every day so charts render gaps as zeroes.
func (s *Service) CallVolume(ctx context.Context, req CallsSummaryRequest) ([]VolumePoint, error) {
	if req.WorkspaceID == "" {
		return nil, ErrInvalidRequest
	}
	if req.Range.From.IsZero() || req.Range.To.IsZero() || !req.Range.To.After(req.Range.From) {
		return nil, ErrInvalidRequest
	}
	if s.repo == nil {
		return nil, errors.New("reporting: repository not configured")
	}

	rows, err := s.repo.ListRange(ctx, req.WorkspaceID, req.Range.From, req.Range.To)
	if err != nil {
		return nil, err
	}

	byDay := make(map[string]int)
	for _, c := range rows {
		byDay[c.StartedAt.UTC().Format("2006-01-02")]++
	}

	var points []VolumePoint
	for d := req.Range.From.UTC().Truncate(24 * time.Hour); d.Before(req.Range.To); d = d.Add(24 * time.Hour) {
		key := d.Format("2006-01-02")
		points = append(points, VolumePoint{Date: key, Calls: byDay[key]})
	}
	return points, nil
}

// recentCallsLimit bounds the dashboard list.
const recentCallsLimit = 10

func (s *Service) Dashboard(ctx context.Context, workspaceID string) (DashboardStats, error) {
	if workspaceID == "" {
		return DashboardStats{}, ErrInvalidRequest
	}
	if s.repo == nil {
		return DashboardStats{}, errors.New("reporting: repository not configured")
	}

	rows, err := s.repo.List(ctx, workspaceID, 0)
	if err != nil {
		return DashboardStats{}, err
	}

	out := DashboardStats{RecentCalls: []calls.Call{}}
	aiResolved := 0
	terminal := 0
	for _, c := range rows {
		out.TotalCalls++
		if c.Status == calls.CallStatusActive {
			out.ActiveCalls++
		}
		if c.Status.IsTerminal() {
			terminal++
			if c.AIHandled && c.Status == calls.CallStatusCompleted {
				aiResolved++
			}
		}
		if len(out.RecentCalls) < recentCallsLimit {
			out.RecentCalls = append(out.RecentCalls, c)
		}
	}
	if terminal > 0 {
		out.AIResolvedRate = float64(aiResolved) / float64(terminal)
	}
	return out, nil
}

package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kevinhe012597/calendar-analytics/internal/analytics"
	"github.com/kevinhe012597/calendar-analytics/internal/dto"
	"github.com/kevinhe012597/calendar-analytics/internal/repository"
)

// AnalyticsService represents analytics service
type AnalyticsService struct {
	events   repository.EventRepository
	history  repository.HistoryRepository
	window   time.Duration
	location *time.Location
	log      *zap.Logger
	now      func() time.Time
}

// NewAnalyticsService creates a new analytics service. history may be nil,
// in which case GetHistory reports ErrHistoryUnavailable.
func NewAnalyticsService(events repository.EventRepository, history repository.HistoryRepository, window time.Duration, location *time.Location, log *zap.Logger) *AnalyticsService {
	return &AnalyticsService{
		events:   events,
		history:  history,
		window:   window,
		location: location,
		log:      log,
		now:      time.Now,
	}
}

// GetSnapshot aggregates the user's events that started within the analytics window
func (s *AnalyticsService) GetSnapshot(ctx context.Context, userID string) (*analytics.Snapshot, error) {
	since := s.now().Add(-s.window)

	events, err := s.events.ListUserEvents(ctx, userID, repository.EventQuery{From: since})
	if err != nil {
		return nil, fmt.Errorf("failed to list events for analytics: %w", err)
	}

	snapshot := analytics.Aggregate(events, analytics.Window{Since: since, Location: s.location})

	s.log.Debug("Analytics snapshot computed",
		zap.String("user_id", userID),
		zap.Int("events_count", snapshot.Metrics.EventsCount),
		zap.Float64("total_hours", snapshot.Metrics.TotalHours))

	return &snapshot, nil
}

// GetHistory retrieves long-range hours from the history store
func (s *AnalyticsService) GetHistory(ctx context.Context, userID string, req *dto.GetHistoryRequest) (*dto.GetHistoryResponse, error) {
	if s.history == nil {
		return nil, ErrHistoryUnavailable
	}

	if req.From > req.To {
		return nil, NewValidationError("from must not be after to")
	}
	switch req.GroupBy {
	case "", "category", "day":
	default:
		return nil, NewValidationError(fmt.Sprintf("invalid group_by: %s (supported: category, day)", req.GroupBy))
	}

	result, err := s.history.GetHistory(ctx, repository.HistoryQuery{
		UserID:  userID,
		From:    req.From,
		To:      req.To,
		GroupBy: req.GroupBy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}

	response := &dto.GetHistoryResponse{
		From:        req.From,
		To:          req.To,
		TotalHours:  analytics.RoundHours(result.TotalHours),
		EventsCount: result.EventsCount,
		GroupBy:     req.GroupBy,
	}
	for _, group := range result.Groups {
		response.Groups = append(response.Groups, dto.HistoryGroupData{
			GroupValue: group.GroupValue,
			Hours:      analytics.RoundHours(group.Hours),
			Events:     group.Events,
		})
	}

	return response, nil
}

package service

import (
	"context"

	"github.com/kevinhe012597/calendar-analytics/internal/analytics"
	"github.com/kevinhe012597/calendar-analytics/internal/domain"
	"github.com/kevinhe012597/calendar-analytics/internal/dto"
	"github.com/kevinhe012597/calendar-analytics/internal/repository"
)

// CalendarServicer defines calendar operations scoped to one user
type CalendarServicer interface {
	List(ctx context.Context, userID string) ([]domain.Calendar, error)
	Get(ctx context.Context, userID, id string) (*domain.Calendar, error)
	Create(ctx context.Context, userID string, req *dto.CreateCalendarRequest) (*domain.Calendar, error)
	Update(ctx context.Context, userID, id string, req *dto.UpdateCalendarRequest) (*domain.Calendar, error)
	Delete(ctx context.Context, userID, id string) error
}

// EventServicer defines event operations scoped to one user
type EventServicer interface {
	ListForUser(ctx context.Context, userID string, query repository.EventQuery) ([]domain.CalendarEvent, error)
	ListForCalendar(ctx context.Context, userID, calendarID string, query repository.EventQuery) ([]domain.CalendarEvent, error)
	Create(ctx context.Context, userID string, req *dto.CreateEventRequest) (*domain.CalendarEvent, error)
	Update(ctx context.Context, userID, id string, req *dto.UpdateEventRequest) (*domain.CalendarEvent, error)
	Delete(ctx context.Context, userID, id string) error
	Classify(ctx context.Context, req *dto.ClassifyRequest) domain.Classification
}

// AnalyticsServicer defines analytics operations
type AnalyticsServicer interface {
	GetSnapshot(ctx context.Context, userID string) (*analytics.Snapshot, error)
	GetHistory(ctx context.Context, userID string, req *dto.GetHistoryRequest) (*dto.GetHistoryResponse, error)
}

// SessionServicer resolves the user behind a session token
type SessionServicer interface {
	Resolve(ctx context.Context, token string) (*ResolvedSession, error)
}

// ImportServicer imports an ICS feed into a calendar
type ImportServicer interface {
	Import(ctx context.Context, userID, calendarID string, req *dto.ImportCalendarRequest) (*dto.ImportResponse, error)
}

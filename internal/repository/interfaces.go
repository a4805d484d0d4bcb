package repository

import (
	"context"
	"errors"
	"time"

	"github.com/kevinhe012597/calendar-analytics/internal/domain"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// EventQuery bounds an event listing. Zero values are unbounded.
type EventQuery struct {
	// From keeps events starting at or after this instant
	From time.Time
	// To keeps events ending at or before this instant
	To time.Time
}

// UserRepository defines storage operations for users
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
}

// CalendarRepository defines storage operations for calendars
type CalendarRepository interface {
	CreateCalendar(ctx context.Context, calendar *domain.Calendar) error
	GetCalendar(ctx context.Context, id string) (*domain.Calendar, error)

	// ListUserCalendars returns the user's active calendars
	ListUserCalendars(ctx context.Context, userID string) ([]domain.Calendar, error)

	UpdateCalendar(ctx context.Context, calendar *domain.Calendar) error

	// DeactivateCalendar soft-deletes a calendar; its events are kept
	DeactivateCalendar(ctx context.Context, id string) error
}

// EventRepository defines storage operations for calendar events
type EventRepository interface {
	CreateEvent(ctx context.Context, event *domain.CalendarEvent) error
	GetEvent(ctx context.Context, id string) (*domain.CalendarEvent, error)
	UpdateEvent(ctx context.Context, event *domain.CalendarEvent) error
	DeleteEvent(ctx context.Context, id string) error

	// UpsertEvent creates the event with its given ID or replaces the stored one,
	// keeping the original CreatedAt
	UpsertEvent(ctx context.Context, event *domain.CalendarEvent) error

	// ListCalendarEvents returns one calendar's events ordered by start time
	ListCalendarEvents(ctx context.Context, calendarID string, query EventQuery) ([]domain.CalendarEvent, error)

	// ListUserEvents returns events across the user's active calendars ordered by start time
	ListUserEvents(ctx context.Context, userID string, query EventQuery) ([]domain.CalendarEvent, error)
}

// SessionRepository defines storage operations for login sessions
type SessionRepository interface {
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, token string) (*domain.Session, error)
	DeleteSession(ctx context.Context, token string) error

	// DeleteExpiredSessions removes sessions that expired at or before now
	// and returns how many were removed
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error)
}

// Store aggregates every repository a backend provides
type Store interface {
	UserRepository
	CalendarRepository
	EventRepository
	SessionRepository

	// Ping checks if the backend is reachable
	Ping(ctx context.Context) error

	// Close releases resources held by the backend
	Close() error
}

// HistoryQuery represents long-range analytics query parameters
type HistoryQuery struct {
	UserID  string
	From    int64
	To      int64
	GroupBy string
}

// HistoryGroupResult holds hours for one category or day
type HistoryGroupResult struct {
	GroupValue string
	Hours      float64
	Events     uint64
}

// HistoryResult represents the result of a history query
type HistoryResult struct {
	TotalHours  float64
	EventsCount uint64
	Groups      []HistoryGroupResult
}

// HistoryRepository stores versioned event changes for long-range analytics
type HistoryRepository interface {
	// InsertBatch inserts a batch of event changes into the storage
	InsertBatch(ctx context.Context, changes []*domain.EventChange) (int, error)

	// InitSchema initializes the database schema (creates tables if they don't exist)
	InitSchema(ctx context.Context) error

	// Ping checks if the database connection is alive
	Ping(ctx context.Context) error

	// Close closes the repository and releases resources
	Close() error

	// GetHistory retrieves hours grouped by category or day
	GetHistory(ctx context.Context, query HistoryQuery) (*HistoryResult, error)
}

package handler

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/kevinhe012597/calendar-analytics/internal/analytics"
	"github.com/kevinhe012597/calendar-analytics/internal/domain"
	"github.com/kevinhe012597/calendar-analytics/internal/dto"
	"github.com/kevinhe012597/calendar-analytics/internal/repository"
	"github.com/kevinhe012597/calendar-analytics/internal/service"
)

// MockCalendarService is a mock implementation of service.CalendarServicer
type MockCalendarService struct {
	mock.Mock
}

func (m *MockCalendarService) List(ctx context.Context, userID string) ([]domain.Calendar, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Calendar), args.Error(1)
}

func (m *MockCalendarService) Get(ctx context.Context, userID, id string) (*domain.Calendar, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Calendar), args.Error(1)
}

func (m *MockCalendarService) Create(ctx context.Context, userID string, req *dto.CreateCalendarRequest) (*domain.Calendar, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Calendar), args.Error(1)
}

func (m *MockCalendarService) Update(ctx context.Context, userID, id string, req *dto.UpdateCalendarRequest) (*domain.Calendar, error) {
	args := m.Called(ctx, userID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Calendar), args.Error(1)
}

func (m *MockCalendarService) Delete(ctx context.Context, userID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

// MockEventService is a mock implementation of service.EventServicer
type MockEventService struct {
	mock.Mock
}

func (m *MockEventService) ListForUser(ctx context.Context, userID string, query repository.EventQuery) ([]domain.CalendarEvent, error) {
	args := m.Called(ctx, userID, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CalendarEvent), args.Error(1)
}

func (m *MockEventService) ListForCalendar(ctx context.Context, userID, calendarID string, query repository.EventQuery) ([]domain.CalendarEvent, error) {
	args := m.Called(ctx, userID, calendarID, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CalendarEvent), args.Error(1)
}

func (m *MockEventService) Create(ctx context.Context, userID string, req *dto.CreateEventRequest) (*domain.CalendarEvent, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CalendarEvent), args.Error(1)
}

func (m *MockEventService) Update(ctx context.Context, userID, id string, req *dto.UpdateEventRequest) (*domain.CalendarEvent, error) {
	args := m.Called(ctx, userID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CalendarEvent), args.Error(1)
}

func (m *MockEventService) Delete(ctx context.Context, userID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *MockEventService) Classify(ctx context.Context, req *dto.ClassifyRequest) domain.Classification {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.Classification)
}

// MockAnalyticsService is a mock implementation of service.AnalyticsServicer
type MockAnalyticsService struct {
	mock.Mock
}

func (m *MockAnalyticsService) GetSnapshot(ctx context.Context, userID string) (*analytics.Snapshot, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analytics.Snapshot), args.Error(1)
}

func (m *MockAnalyticsService) GetHistory(ctx context.Context, userID string, req *dto.GetHistoryRequest) (*dto.GetHistoryResponse, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.GetHistoryResponse), args.Error(1)
}

// MockSessionService is a mock implementation of service.SessionServicer
type MockSessionService struct {
	mock.Mock
}

func (m *MockSessionService) Resolve(ctx context.Context, token string) (*service.ResolvedSession, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ResolvedSession), args.Error(1)
}

// MockImportService is a mock implementation of service.ImportServicer
type MockImportService struct {
	mock.Mock
}

func (m *MockImportService) Import(ctx context.Context, userID, calendarID string, req *dto.ImportCalendarRequest) (*dto.ImportResponse, error) {
	args := m.Called(ctx, userID, calendarID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ImportResponse), args.Error(1)
}

// MockHealthChecker is a mock implementation of HealthChecker
type MockHealthChecker struct {
	mock.Mock
}

func (m *MockHealthChecker) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

var testUser = &domain.User{ID: "user-1", Username: "demo@example.com"}

func resolvedSession(token string, issued bool) *service.ResolvedSession {
	now := time.Now()
	return &service.ResolvedSession{
		User: testUser,
		Session: &domain.Session{
			Token:     token,
			UserID:    testUser.ID,
			CreatedAt: now,
			ExpiresAt: now.Add(24 * time.Hour),
		},
		Issued: issued,
	}
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kevinhe012597/calendar-analytics/internal/domain"
	"github.com/kevinhe012597/calendar-analytics/internal/dto"
	"github.com/kevinhe012597/calendar-analytics/internal/repository"
	"github.com/kevinhe012597/calendar-analytics/internal/repository/memory"
)

const testUserID = "user-1"

// MockClassifier is a mock implementation of classifier.Classifier
type MockClassifier struct {
	mock.Mock
}

func (m *MockClassifier) Classify(ctx context.Context, title string, description *string) domain.Classification {
	args := m.Called(ctx, title, description)
	return args.Get(0).(domain.Classification)
}

// MockChangePublisher is a mock implementation of queue.ChangePublisher
type MockChangePublisher struct {
	mock.Mock
}

func (m *MockChangePublisher) PublishEventChange(ctx context.Context, change *domain.EventChange) error {
	args := m.Called(ctx, change)
	return args.Error(0)
}

// MockHistoryRepository is a mock implementation of repository.HistoryRepository
type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) InsertBatch(ctx context.Context, changes []*domain.EventChange) (int, error) {
	args := m.Called(ctx, changes)
	return args.Int(0), args.Error(1)
}

func (m *MockHistoryRepository) InitSchema(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockHistoryRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockHistoryRepository) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockHistoryRepository) GetHistory(ctx context.Context, query repository.HistoryQuery) (*repository.HistoryResult, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.HistoryResult), args.Error(1)
}

type eventFixture struct {
	store      *memory.Store
	calendars  *CalendarService
	events     *EventService
	classifier *MockClassifier
	publisher  *MockChangePublisher
	calendar   *domain.Calendar
}

func newEventFixture(t *testing.T) *eventFixture {
	t.Helper()

	store := memory.NewStore()
	log := zap.NewNop()
	calendars := NewCalendarService(store, log)
	mockClassifier := new(MockClassifier)
	mockPublisher := new(MockChangePublisher)

	calendar, err := calendars.Create(context.Background(), testUserID, &dto.CreateCalendarRequest{Name: "Work"})
	require.NoError(t, err)

	return &eventFixture{
		store:      store,
		calendars:  calendars,
		events:     NewEventService(calendars, store, mockClassifier, mockPublisher, log),
		classifier: mockClassifier,
		publisher:  mockPublisher,
		calendar:   calendar,
	}
}

func strPtr(s string) *string {
	return &s
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func changeOp(op domain.ChangeOp) interface{} {
	return mock.MatchedBy(func(change *domain.EventChange) bool {
		return change.Op == op
	})
}

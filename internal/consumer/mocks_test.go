package consumer

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/mock"

	"github.com/kevinhe012597/calendar-analytics/internal/domain"
	"github.com/kevinhe012597/calendar-analytics/internal/repository"
)

const testQueueURL = "https://sqs.eu-central-1.amazonaws.com/123/event-changes"

// MockQueueConsumer is a mock implementation of queue.QueueConsumer
type MockQueueConsumer struct {
	mock.Mock
}

func (m *MockQueueConsumer) ReceiveMessages(ctx context.Context, input *sqs.ReceiveMessageInput) (*sqs.ReceiveMessageOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sqs.ReceiveMessageOutput), args.Error(1)
}

func (m *MockQueueConsumer) DeleteMessage(ctx context.Context, input *sqs.DeleteMessageInput) (*sqs.DeleteMessageOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sqs.DeleteMessageOutput), args.Error(1)
}

func (m *MockQueueConsumer) QueueURL() string {
	args := m.Called()
	return args.String(0)
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

// MockChangeParser is a mock implementation of ChangeParser
type MockChangeParser struct {
	mock.Mock
}

func (m *MockChangeParser) Parse(body []byte) (*domain.EventChange, error) {
	args := m.Called(body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EventChange), args.Error(1)
}

func testChange(eventID string) *domain.EventChange {
	start := time.Date(2025, time.January, 6, 9, 0, 0, 0, time.UTC)
	return &domain.EventChange{
		Op:     domain.ChangeOpUpsert,
		UserID: "user-1",
		Event: domain.CalendarEvent{
			ID:         eventID,
			CalendarID: "cal-1",
			Title:      "Standup",
			StartTime:  start,
			EndTime:    start.Add(15 * time.Minute),
			Category:   domain.CategoryWork,
			Confidence: domain.ConfidenceMedium,
		},
		Version:   1,
		ChangedAt: start,
	}
}

// trackedEnvelope returns an envelope that reports ack/nack on the given channels
func trackedEnvelope(eventID string, acked, nacked chan<- string) *Envelope {
	return NewEnvelope(testChange(eventID),
		func(context.Context) error {
			acked <- eventID
			return nil
		},
		func(context.Context) error {
			nacked <- eventID
			return nil
		})
}

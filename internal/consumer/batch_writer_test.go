package consumer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/kevinhe012597/calendar-analytics/internal/domain"
)

func collect(t *testing.T, ch <-chan string, n int) []string {
	t.Helper()

	got := make([]string, 0, n)
	timeout := time.After(time.Second)
	for len(got) < n {
		select {
		case id := <-ch:
			got = append(got, id)
		case <-timeout:
			t.Fatalf("expected %d notifications, got %d", n, len(got))
		}
	}
	return got
}

func batchOf(n int) interface{} {
	return mock.MatchedBy(func(changes []*domain.EventChange) bool {
		return len(changes) == n
	})
}

func TestBatchWriter_FlushOnSize(t *testing.T) {
	mockRepo := new(MockHistoryRepository)
	writer := NewBatchWriter(mockRepo, BatchWriterConfig{MaxBatchSize: 3, FlushTimeout: time.Minute}, zap.NewNop())

	mockRepo.On("InsertBatch", mock.Anything, batchOf(3)).Return(3, nil).Once()

	acked := make(chan string, 3)
	nacked := make(chan string, 3)
	in := make(chan *Envelope, 3)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go writer.Start(ctx, in)

	in <- trackedEnvelope("1", acked, nacked)
	in <- trackedEnvelope("2", acked, nacked)
	in <- trackedEnvelope("3", acked, nacked)

	assert.ElementsMatch(t, []string{"1", "2", "3"}, collect(t, acked, 3))
	assert.Empty(t, nacked)
	mockRepo.AssertExpectations(t)
}

func TestBatchWriter_FlushOnTimeout(t *testing.T) {
	mockRepo := new(MockHistoryRepository)
	writer := NewBatchWriter(mockRepo, BatchWriterConfig{MaxBatchSize: 10, FlushTimeout: 20 * time.Millisecond}, zap.NewNop())

	mockRepo.On("InsertBatch", mock.Anything, batchOf(2)).Return(2, nil).Once()

	acked := make(chan string, 2)
	nacked := make(chan string, 2)
	in := make(chan *Envelope, 2)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go writer.Start(ctx, in)

	in <- trackedEnvelope("1", acked, nacked)
	in <- trackedEnvelope("2", acked, nacked)

	assert.ElementsMatch(t, []string{"1", "2"}, collect(t, acked, 2))
	mockRepo.AssertExpectations(t)
}

func TestBatchWriter_InsertFailureNacks(t *testing.T) {
	mockRepo := new(MockHistoryRepository)
	writer := NewBatchWriter(mockRepo, BatchWriterConfig{MaxBatchSize: 2, FlushTimeout: time.Minute}, zap.NewNop())

	mockRepo.On("InsertBatch", mock.Anything, batchOf(2)).Return(0, errors.New("connection refused")).Once()

	acked := make(chan string, 2)
	nacked := make(chan string, 2)
	in := make(chan *Envelope, 2)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go writer.Start(ctx, in)

	in <- trackedEnvelope("1", acked, nacked)
	in <- trackedEnvelope("2", acked, nacked)

	assert.ElementsMatch(t, []string{"1", "2"}, collect(t, nacked, 2))
	assert.Empty(t, acked)
	mockRepo.AssertExpectations(t)
}

func TestBatchWriter_PartialInsertNacks(t *testing.T) {
	mockRepo := new(MockHistoryRepository)
	writer := NewBatchWriter(mockRepo, BatchWriterConfig{MaxBatchSize: 3, FlushTimeout: time.Minute}, zap.NewNop())

	mockRepo.On("InsertBatch", mock.Anything, batchOf(3)).Return(2, nil).Once()

	acked := make(chan string, 3)
	nacked := make(chan string, 3)
	in := make(chan *Envelope, 3)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go writer.Start(ctx, in)

	in <- trackedEnvelope("1", acked, nacked)
	in <- trackedEnvelope("2", acked, nacked)
	in <- trackedEnvelope("3", acked, nacked)

	assert.Len(t, collect(t, nacked, 3), 3)
	assert.Empty(t, acked)
}

func TestBatchWriter_FlushesOnShutdown(t *testing.T) {
	mockRepo := new(MockHistoryRepository)
	writer := NewBatchWriter(mockRepo, BatchWriterConfig{MaxBatchSize: 10, FlushTimeout: time.Minute}, zap.NewNop())

	mockRepo.On("InsertBatch", mock.MatchedBy(func(ctx context.Context) bool {
		return ctx.Err() == nil
	}), batchOf(2)).Return(2, nil).Once()

	acked := make(chan string, 2)
	nacked := make(chan string, 2)
	in := make(chan *Envelope, 2)
	done := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		writer.Start(ctx, in)
		close(done)
	}()

	in <- trackedEnvelope("1", acked, nacked)
	in <- trackedEnvelope("2", acked, nacked)

	// Wait until both envelopes are buffered
	assert.Eventually(t, func() bool { return len(in) == 0 }, time.Second, 5*time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("batch writer did not shut down")
	}

	assert.Len(t, acked, 2)
	mockRepo.AssertExpectations(t)
}

func TestBatchWriter_InputClosedFlushes(t *testing.T) {
	mockRepo := new(MockHistoryRepository)
	writer := NewBatchWriter(mockRepo, BatchWriterConfig{MaxBatchSize: 10, FlushTimeout: time.Minute}, zap.NewNop())

	mockRepo.On("InsertBatch", mock.Anything, batchOf(1)).Return(1, nil).Once()

	acked := make(chan string, 1)
	nacked := make(chan string, 1)
	in := make(chan *Envelope, 1)
	in <- trackedEnvelope("1", acked, nacked)
	close(in)

	writer.Start(context.Background(), in)

	assert.Equal(t, []string{"1"}, collect(t, acked, 1))
	mockRepo.AssertExpectations(t)
}

func TestBatchWriter_EmptyBatchNotFlushed(t *testing.T) {
	mockRepo := new(MockHistoryRepository)
	writer := NewBatchWriter(mockRepo, BatchWriterConfig{MaxBatchSize: 10, FlushTimeout: 10 * time.Millisecond}, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	writer.Start(ctx, make(chan *Envelope))

	mockRepo.AssertNotCalled(t, "InsertBatch", mock.Anything, mock.Anything)
}

func TestBatchWriter_MultipleBatches(t *testing.T) {
	mockRepo := new(MockHistoryRepository)
	writer := NewBatchWriter(mockRepo, BatchWriterConfig{MaxBatchSize: 2, FlushTimeout: time.Minute}, zap.NewNop())

	mockRepo.On("InsertBatch", mock.Anything, batchOf(2)).Return(2, nil).Times(2)

	acked := make(chan string, 4)
	nacked := make(chan string, 4)
	in := make(chan *Envelope, 4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go writer.Start(ctx, in)

	for _, id := range []string{"1", "2", "3", "4"} {
		in <- trackedEnvelope(id, acked, nacked)
	}

	assert.Len(t, collect(t, acked, 4), 4)
	mockRepo.AssertNumberOfCalls(t, "InsertBatch", 2)
}

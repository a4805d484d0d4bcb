package consumer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kevinhe012597/calendar-analytics/internal/domain"
	"github.com/kevinhe012597/calendar-analytics/internal/repository"
)

// BatchWriterConfig configures the batch writer
type BatchWriterConfig struct {
	MaxBatchSize int
	FlushTimeout time.Duration
}

// BatchWriter buffers envelopes and writes them to the history store in batches.
// A batch is acked only when every change in it was inserted.
type BatchWriter struct {
	repository repository.HistoryRepository
	config     BatchWriterConfig
	log        *zap.Logger
}

// NewBatchWriter creates a new batch writer
func NewBatchWriter(repo repository.HistoryRepository, config BatchWriterConfig, log *zap.Logger) *BatchWriter {
	return &BatchWriter{
		repository: repo,
		config:     config,
		log:        log,
	}
}

// Start consumes envelopes until in is closed or ctx is done, flushing on size or timeout
func (w *BatchWriter) Start(ctx context.Context, in <-chan *Envelope) {
	ticker := time.NewTicker(w.config.FlushTimeout)
	defer ticker.Stop()

	batch := make([]*Envelope, 0, w.config.MaxBatchSize)

	flush := func(reason string) {
		if len(batch) == 0 {
			return
		}
		w.log.Debug("Flushing batch", zap.String("reason", reason), zap.Int("envelope_count", len(batch)))
		w.processBatch(ctx, batch)
		batch = make([]*Envelope, 0, w.config.MaxBatchSize)
	}

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Batch writer shutting down")
			// ctx is already cancelled; the final flush gets a short grace period
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			if len(batch) > 0 {
				w.processBatch(shutdownCtx, batch)
			}
			cancel()
			return

		case envelope, ok := <-in:
			if !ok {
				w.log.Info("Batch writer input channel closed")
				flush("input_closed")
				return
			}

			batch = append(batch, envelope)

			if len(batch) >= w.config.MaxBatchSize {
				flush("size")
				ticker.Reset(w.config.FlushTimeout)
			}

		case <-ticker.C:
			flush("timeout")
		}
	}
}

func (w *BatchWriter) processBatch(ctx context.Context, envelopes []*Envelope) {
	changes := make([]*domain.EventChange, len(envelopes))
	for i, env := range envelopes {
		changes[i] = env.Change
	}

	inserted, err := w.repository.InsertBatch(ctx, changes)
	if err != nil {
		w.log.Error("Failed to insert change batch",
			zap.Error(err),
			zap.Int("change_count", len(changes)))
		w.nackAll(ctx, envelopes)
		return
	}

	if inserted != len(changes) {
		w.log.Warn("Partial insert, leaving batch for redelivery",
			zap.Int("inserted", inserted),
			zap.Int("expected", len(changes)))
		w.nackAll(ctx, envelopes)
		return
	}

	w.log.Info("Inserted event changes", zap.Int("count", inserted))
	w.ackAll(ctx, envelopes)
}

func (w *BatchWriter) ackAll(ctx context.Context, envelopes []*Envelope) {
	for _, env := range envelopes {
		if err := env.Ack(ctx); err != nil {
			w.log.Error("Failed to ack envelope",
				zap.String("event_id", env.Change.Event.ID),
				zap.Error(err))
		}
	}
}

func (w *BatchWriter) nackAll(ctx context.Context, envelopes []*Envelope) {
	for _, env := range envelopes {
		if err := env.Nack(ctx); err != nil {
			w.log.Error("Failed to nack envelope",
				zap.String("event_id", env.Change.Event.ID),
				zap.Error(err))
		}
	}
}

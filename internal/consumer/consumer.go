package consumer

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	"github.com/kevinhe012597/calendar-analytics/internal/config"
	"github.com/kevinhe012597/calendar-analytics/internal/queue"
	"github.com/kevinhe012597/calendar-analytics/internal/repository"
)

// Consumer runs the receive -> parse -> batch write pipeline for event changes
type Consumer struct {
	receiver    *Receiver
	parser      *ParserStage
	batchWriter *BatchWriter
	bufferSize  int
}

// NewConsumer creates a new consumer with a pipeline architecture
func NewConsumer(cfg config.Consumer, queueConsumer queue.QueueConsumer, repo repository.HistoryRepository, log *zap.Logger) *Consumer {
	receiverConfig := ReceiverConfig{
		MaxMessages:     10,
		WaitTimeSeconds: 20,
		BufferSize:      100,
	}

	return &Consumer{
		receiver: NewReceiver(queueConsumer, receiverConfig, log.Named("receiver")),
		parser:   NewParserStage(queueConsumer, NewJSONChangeParser(), log.Named("parser")),
		batchWriter: NewBatchWriter(repo, BatchWriterConfig{
			MaxBatchSize: cfg.BatchSizeMax,
			FlushTimeout: time.Duration(cfg.BatchTimeoutSec) * time.Second,
		}, log.Named("batch_writer")),
		bufferSize: receiverConfig.BufferSize,
	}
}

// Start blocks until ctx is done and every stage has drained
func (c *Consumer) Start(ctx context.Context) error {
	messages := make(chan types.Message, c.bufferSize)
	envelopes := make(chan *Envelope, c.bufferSize)

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		c.receiver.Start(ctx, messages)
	}()

	go func() {
		defer wg.Done()
		c.parser.Start(ctx, messages, envelopes)
	}()

	go func() {
		defer wg.Done()
		c.batchWriter.Start(ctx, envelopes)
	}()

	wg.Wait()
	return nil
}

package queue

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/kevinhe012597/calendar-analytics/internal/domain"
)

// ChangePublisher defines the interface for publishing event changes to a queue
type ChangePublisher interface {
	PublishEventChange(ctx context.Context, change *domain.EventChange) error
}

// QueueConsumer defines the interface for consuming messages from a queue
type QueueConsumer interface {
	ReceiveMessages(ctx context.Context, input *sqs.ReceiveMessageInput) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, input *sqs.DeleteMessageInput) (*sqs.DeleteMessageOutput, error)
	QueueURL() string
}

// NopPublisher discards changes. Used when no change feed is configured.
type NopPublisher struct{}

func (NopPublisher) PublishEventChange(context.Context, *domain.EventChange) error {
	return nil
}

package consumer

import (
	"context"

	"github.com/kevinhe012597/calendar-analytics/internal/domain"
)

// Envelope carries a parsed event change together with its queue acknowledgment callbacks
type Envelope struct {
	Change *domain.EventChange
	ack    func(context.Context) error
	nack   func(context.Context) error
}

// NewEnvelope creates a new message envelope
func NewEnvelope(change *domain.EventChange, ack, nack func(context.Context) error) *Envelope {
	return &Envelope{
		Change: change,
		ack:    ack,
		nack:   nack,
	}
}

// Ack marks the change as stored; the message is removed from the queue
func (e *Envelope) Ack(ctx context.Context) error {
	if e.ack != nil {
		return e.ack(ctx)
	}
	return nil
}

// Nack leaves the message on the queue for redelivery
func (e *Envelope) Nack(ctx context.Context) error {
	if e.nack != nil {
		return e.nack(ctx)
	}
	return nil
}

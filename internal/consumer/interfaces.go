package consumer

import (
	"github.com/kevinhe012597/calendar-analytics/internal/domain"
)

// ChangeParser turns a raw queue message body into an event change
type ChangeParser interface {
	Parse(body []byte) (*domain.EventChange, error)
}

package consumer

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kevinhe012597/calendar-analytics/internal/domain"
)

// JSONChangeParser decodes event changes published by the API
type JSONChangeParser struct {
	now func() time.Time
}

// NewJSONChangeParser creates a new JSON change parser
func NewJSONChangeParser() *JSONChangeParser {
	return &JSONChangeParser{now: time.Now}
}

// Parse decodes and validates a change. Missing timestamps are filled in so
// that ReplacingMergeTree always has a version to order by.
func (p *JSONChangeParser) Parse(body []byte) (*domain.EventChange, error) {
	var change domain.EventChange
	if err := json.Unmarshal(body, &change); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message body: %w", err)
	}

	switch change.Op {
	case domain.ChangeOpUpsert, domain.ChangeOpDelete:
	default:
		return nil, fmt.Errorf("unknown change op %q", change.Op)
	}

	if change.Event.ID == "" {
		return nil, errors.New("event id is required")
	}
	if change.UserID == "" {
		return nil, errors.New("user id is required")
	}

	if change.ChangedAt.IsZero() {
		change.ChangedAt = p.now()
	}
	if change.Version == 0 {
		change.Version = uint64(change.ChangedAt.UnixNano())
	}

	return &change, nil
}

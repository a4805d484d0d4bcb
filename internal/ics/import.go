package ics

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kevinhe012597/calendar-analytics/internal/config"
	"github.com/kevinhe012597/calendar-analytics/internal/domain"
	"github.com/kevinhe012597/calendar-analytics/internal/dto"
	"github.com/kevinhe012597/calendar-analytics/internal/service"
)

const (
	untitledEvent   = "Untitled Event"
	feedUnavailable = "calendar feed could not be fetched"
)

// CalendarGetter resolves a calendar owned by a user
type CalendarGetter interface {
	Get(ctx context.Context, userID, id string) (*domain.Calendar, error)
}

// EventImporter classifies and stores one imported occurrence
type EventImporter interface {
	Import(ctx context.Context, userID string, event *domain.CalendarEvent) error
}

// Importer turns an ICS feed into stored calendar events
type Importer struct {
	calendars      CalendarGetter
	events         EventImporter
	fetcher        *Fetcher
	lookBehind     time.Duration
	lookAhead      time.Duration
	maxPerEvent    int
	maxOccurrences int
	log            *zap.Logger
	now            func() time.Time
}

var _ service.ImportServicer = (*Importer)(nil)

// NewImporter creates a new importer
func NewImporter(calendars CalendarGetter, events EventImporter, fetcher *Fetcher, cfg config.ICS, log *zap.Logger) *Importer {
	return &Importer{
		calendars:      calendars,
		events:         events,
		fetcher:        fetcher,
		lookBehind:     cfg.LookBehind,
		lookAhead:      cfg.LookAhead,
		maxPerEvent:    cfg.MaxOccurrencesPerEvent,
		maxOccurrences: cfg.MaxOccurrences,
		log:            log,
		now:            time.Now,
	}
}

// Import fetches or reads the feed, expands it inside the import window and
// upserts every occurrence into the calendar. Occurrence IDs are derived
// from the feed, so importing the same feed twice updates instead of duplicating.
// Occurrences past the per-import cap are counted as skipped.
func (i *Importer) Import(ctx context.Context, userID, calendarID string, req *dto.ImportCalendarRequest) (*dto.ImportResponse, error) {
	if _, err := i.calendars.Get(ctx, userID, calendarID); err != nil {
		return nil, err
	}

	body, err := i.source(ctx, req)
	if err != nil {
		return nil, err
	}

	events, skipped, err := Parse(bytes.NewReader(body))
	if err != nil {
		return nil, service.NewValidationError(fmt.Sprintf("invalid calendar feed: %v", err))
	}

	now := i.now()
	occurrences, unexpanded := Expand(events, now.Add(-i.lookBehind), now.Add(i.lookAhead), i.maxPerEvent)

	response := &dto.ImportResponse{Skipped: skipped + unexpanded}
	if i.maxOccurrences > 0 && len(occurrences) > i.maxOccurrences {
		i.log.Warn("Calendar feed exceeds import cap",
			zap.String("calendar_id", calendarID),
			zap.Int("occurrences", len(occurrences)),
			zap.Int("cap", i.maxOccurrences))
		response.Skipped += len(occurrences) - i.maxOccurrences
		occurrences = occurrences[:i.maxOccurrences]
	}
	for _, occurrence := range occurrences {
		event := toCalendarEvent(calendarID, occurrence)
		if err := i.events.Import(ctx, userID, event); err != nil {
			if errors.Is(err, service.ErrValidation) {
				i.log.Debug("Skipping feed occurrence",
					zap.String("uid", occurrence.Event.UID),
					zap.Time("start", occurrence.Start),
					zap.Error(err))
				response.Skipped++
				continue
			}
			return nil, fmt.Errorf("failed to import occurrence: %w", err)
		}
		response.Imported++
	}

	i.log.Info("Calendar feed imported",
		zap.String("calendar_id", calendarID),
		zap.String("user_id", userID),
		zap.Int("imported", response.Imported),
		zap.Int("skipped", response.Skipped))

	return response, nil
}

func (i *Importer) source(ctx context.Context, req *dto.ImportCalendarRequest) ([]byte, error) {
	switch {
	case strings.TrimSpace(req.ICS) != "":
		return []byte(req.ICS), nil
	case strings.TrimSpace(req.URL) != "":
		body, err := i.fetcher.Fetch(ctx, req.URL)
		if err != nil {
			i.log.Warn("Failed to fetch calendar feed", zap.Error(err))
			return nil, service.NewValidationError(feedUnavailable)
		}
		return body, nil
	default:
		return nil, service.NewValidationError("url or ics is required")
	}
}

func toCalendarEvent(calendarID string, occurrence Occurrence) *domain.CalendarEvent {
	source := occurrence.Event

	title := source.Summary
	if title == "" {
		title = untitledEvent
	}

	return &domain.CalendarEvent{
		ID:          occurrenceID(calendarID, source.UID, occurrence.OriginalStart),
		CalendarID:  calendarID,
		Title:       title,
		Description: optional(source.Description),
		StartTime:   occurrence.Start,
		EndTime:     occurrence.End,
		IsAllDay:    source.AllDay,
		Location:    optional(source.Location),
	}
}

// occurrenceID hashes calendar id, UID and original instance start
func occurrenceID(calendarID, uid string, originalStart time.Time) string {
	data := fmt.Sprintf("%s|%s|%s", calendarID, uid, originalStart.UTC().Format(time.RFC3339))
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

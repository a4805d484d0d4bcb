package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kevinhe012597/calendar-analytics/internal/classifier"
	"github.com/kevinhe012597/calendar-analytics/internal/domain"
	"github.com/kevinhe012597/calendar-analytics/internal/dto"
	"github.com/kevinhe012597/calendar-analytics/internal/queue"
	"github.com/kevinhe012597/calendar-analytics/internal/repository"
)

// EventService represents event service
type EventService struct {
	calendars  CalendarServicer
	repository repository.EventRepository
	classifier classifier.Classifier
	publisher  queue.ChangePublisher
	log        *zap.Logger
	now        func() time.Time
}

// NewEventService creates a new event service
func NewEventService(calendars CalendarServicer, repo repository.EventRepository, cls classifier.Classifier, publisher queue.ChangePublisher, log *zap.Logger) *EventService {
	return &EventService{
		calendars:  calendars,
		repository: repo,
		classifier: cls,
		publisher:  publisher,
		log:        log,
		now:        time.Now,
	}
}

// ListForUser returns events across the user's active calendars
func (s *EventService) ListForUser(ctx context.Context, userID string, query repository.EventQuery) ([]domain.CalendarEvent, error) {
	if err := validateQuery(query); err != nil {
		return nil, err
	}

	events, err := s.repository.ListUserEvents(ctx, userID, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// ListForCalendar returns events of one calendar owned by the user
func (s *EventService) ListForCalendar(ctx context.Context, userID, calendarID string, query repository.EventQuery) ([]domain.CalendarEvent, error) {
	if err := validateQuery(query); err != nil {
		return nil, err
	}
	if _, err := s.calendars.Get(ctx, userID, calendarID); err != nil {
		return nil, err
	}

	events, err := s.repository.ListCalendarEvents(ctx, calendarID, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list calendar events: %w", err)
	}
	return events, nil
}

// Create validates, classifies and stores a new event
func (s *EventService) Create(ctx context.Context, userID string, req *dto.CreateEventRequest) (*domain.CalendarEvent, error) {
	if _, err := s.calendars.Get(ctx, userID, req.CalendarID); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, NewValidationError("title is required")
	}
	if err := validateTimes(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	description := optionalText(req.Description)
	classification := s.classifier.Classify(ctx, title, description)

	event := &domain.CalendarEvent{
		ID:          uuid.NewString(),
		CalendarID:  req.CalendarID,
		Title:       title,
		Description: description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Category:    classification.Category,
		Confidence:  classification.Confidence,
		IsAllDay:    req.IsAllDay,
		Location:    optionalText(req.Location),
	}
	if err := s.repository.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	s.log.Debug("Event created",
		zap.String("event_id", event.ID),
		zap.String("category", string(event.Category)),
		zap.String("confidence", string(event.Confidence)))

	s.publish(ctx, userID, domain.ChangeOpUpsert, event)
	return event, nil
}

// Update applies a partial update. The event is re-classified when its title
// or description changes; otherwise an explicit category is taken as is.
func (s *EventService) Update(ctx context.Context, userID, id string, req *dto.UpdateEventRequest) (*domain.CalendarEvent, error) {
	event, err := s.ownedEvent(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	textChanged := false
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, NewValidationError("title cannot be empty")
		}
		textChanged = title != event.Title
		event.Title = title
	}
	if req.Description != nil {
		description := optionalText(req.Description)
		if !sameText(description, event.Description) {
			textChanged = true
		}
		event.Description = description
	}
	if req.Location != nil {
		event.Location = optionalText(req.Location)
	}
	if req.IsAllDay != nil {
		event.IsAllDay = *req.IsAllDay
	}
	if req.StartTime != nil {
		event.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		event.EndTime = *req.EndTime
	}
	if err := validateTimes(event.StartTime, event.EndTime); err != nil {
		return nil, err
	}

	switch {
	case textChanged:
		classification := s.classifier.Classify(ctx, event.Title, event.Description)
		event.Category = classification.Category
		event.Confidence = classification.Confidence
	case req.Category != nil:
		category, ok := domain.ParseCategory(*req.Category)
		if !ok {
			return nil, NewValidationError(fmt.Sprintf("unknown category: %s", *req.Category))
		}
		event.Category = category
	}

	if err := s.repository.UpdateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	s.publish(ctx, userID, domain.ChangeOpUpsert, event)
	return event, nil
}

// Delete removes an event owned by the user
func (s *EventService) Delete(ctx context.Context, userID, id string) error {
	event, err := s.ownedEvent(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.repository.DeleteEvent(ctx, id); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	s.publish(ctx, userID, domain.ChangeOpDelete, event)
	return nil
}

// Classify previews the classification of event text without storing anything
func (s *EventService) Classify(ctx context.Context, req *dto.ClassifyRequest) domain.Classification {
	return s.classifier.Classify(ctx, strings.TrimSpace(req.Title), optionalText(req.Description))
}

// Import stores an event produced by a feed importer under its own ID,
// replacing any earlier copy. The caller is responsible for calendar ownership.
func (s *EventService) Import(ctx context.Context, userID string, event *domain.CalendarEvent) error {
	event.Title = strings.TrimSpace(event.Title)
	if event.Title == "" {
		return NewValidationError("title is required")
	}
	if err := validateTimes(event.StartTime, event.EndTime); err != nil {
		return err
	}

	if event.Category == "" {
		classification := s.classifier.Classify(ctx, event.Title, event.Description)
		event.Category = classification.Category
		event.Confidence = classification.Confidence
	}

	if err := s.repository.UpsertEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to upsert event: %w", err)
	}

	s.publish(ctx, userID, domain.ChangeOpUpsert, event)
	return nil
}

// ownedEvent loads an event whose calendar belongs to the user
func (s *EventService) ownedEvent(ctx context.Context, userID, id string) (*domain.CalendarEvent, error) {
	event, err := s.repository.GetEvent(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	if _, err := s.calendars.Get(ctx, userID, event.CalendarID); err != nil {
		return nil, err
	}
	return event, nil
}

// publish sends the change to the history feed. Failures are logged only.
func (s *EventService) publish(ctx context.Context, userID string, op domain.ChangeOp, event *domain.CalendarEvent) {
	changedAt := s.now().UTC()
	change := &domain.EventChange{
		Op:        op,
		UserID:    userID,
		Event:     *event,
		Version:   uint64(changedAt.UnixNano()),
		ChangedAt: changedAt,
	}

	if err := s.publisher.PublishEventChange(ctx, change); err != nil {
		s.log.Warn("Failed to publish event change",
			zap.String("event_id", event.ID),
			zap.String("op", string(op)),
			zap.Error(err))
	}
}

func validateTimes(start, end time.Time) error {
	if start.IsZero() {
		return NewValidationError("startTime is required")
	}
	if end.IsZero() {
		return NewValidationError("endTime is required")
	}
	if !end.After(start) {
		return NewValidationError("endTime must be after startTime")
	}
	return nil
}

func validateQuery(query repository.EventQuery) error {
	if !query.From.IsZero() && !query.To.IsZero() && query.From.After(query.To) {
		return NewValidationError("startDate must not be after endDate")
	}
	return nil
}

func sameText(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

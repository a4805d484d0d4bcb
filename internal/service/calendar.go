package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kevinhe012597/calendar-analytics/internal/domain"
	"github.com/kevinhe012597/calendar-analytics/internal/dto"
	"github.com/kevinhe012597/calendar-analytics/internal/repository"
)

// CalendarService represents calendar service
type CalendarService struct {
	repository repository.CalendarRepository
	log        *zap.Logger
}

// NewCalendarService creates a new calendar service
func NewCalendarService(repo repository.CalendarRepository, log *zap.Logger) *CalendarService {
	return &CalendarService{
		repository: repo,
		log:        log,
	}
}

// List returns the user's active calendars
func (s *CalendarService) List(ctx context.Context, userID string) ([]domain.Calendar, error) {
	calendars, err := s.repository.ListUserCalendars(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}
	return calendars, nil
}

// Get returns an active calendar owned by the user. Foreign and deactivated
// calendars are reported as repository.ErrNotFound.
func (s *CalendarService) Get(ctx context.Context, userID, id string) (*domain.Calendar, error) {
	calendar, err := s.repository.GetCalendar(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get calendar: %w", err)
	}

	if calendar.UserID != userID || !calendar.IsActive {
		return nil, repository.ErrNotFound
	}
	return calendar, nil
}

// Create creates a calendar for the user
func (s *CalendarService) Create(ctx context.Context, userID string, req *dto.CreateCalendarRequest) (*domain.Calendar, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, NewValidationError("name is required")
	}

	color := strings.TrimSpace(req.Color)
	if color == "" {
		color = domain.DefaultCalendarColor
	}

	calendar := &domain.Calendar{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        name,
		Description: optionalText(req.Description),
		Color:       color,
	}
	if err := s.repository.CreateCalendar(ctx, calendar); err != nil {
		return nil, fmt.Errorf("failed to create calendar: %w", err)
	}

	s.log.Info("Calendar created",
		zap.String("calendar_id", calendar.ID),
		zap.String("user_id", userID))

	return calendar, nil
}

// Update changes the fields present in req
func (s *CalendarService) Update(ctx context.Context, userID, id string, req *dto.UpdateCalendarRequest) (*domain.Calendar, error) {
	calendar, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, NewValidationError("name cannot be empty")
		}
		calendar.Name = name
	}
	if req.Description != nil {
		calendar.Description = optionalText(req.Description)
	}
	if req.Color != nil {
		if color := strings.TrimSpace(*req.Color); color != "" {
			calendar.Color = color
		}
	}

	if err := s.repository.UpdateCalendar(ctx, calendar); err != nil {
		return nil, fmt.Errorf("failed to update calendar: %w", err)
	}
	return calendar, nil
}

// Delete soft-deletes the calendar. Its events stay in the store.
func (s *CalendarService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}

	if err := s.repository.DeactivateCalendar(ctx, id); err != nil {
		return fmt.Errorf("failed to deactivate calendar: %w", err)
	}

	s.log.Info("Calendar deactivated",
		zap.String("calendar_id", id),
		zap.String("user_id", userID))

	return nil
}

// optionalText trims s and maps empty text to nil
func optionalText(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

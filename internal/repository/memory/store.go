package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kevinhe012597/calendar-analytics/internal/domain"
	"github.com/kevinhe012597/calendar-analytics/internal/repository"
)

// Store implements repository.Store with process-local maps keyed by ID
type Store struct {
	mu        sync.RWMutex
	users     map[string]domain.User
	calendars map[string]domain.Calendar
	events    map[string]domain.CalendarEvent
	sessions  map[string]domain.Session
	now       func() time.Time
}

var _ repository.Store = (*Store)(nil)

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		users:     make(map[string]domain.User),
		calendars: make(map[string]domain.Calendar),
		events:    make(map[string]domain.CalendarEvent),
		sessions:  make(map[string]domain.Session),
		now:       time.Now,
	}
}

func (s *Store) CreateUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.ID]; exists {
		return fmt.Errorf("user %s already exists", user.ID)
	}
	for _, u := range s.users {
		if u.Username == user.Username {
			return fmt.Errorf("username %s already taken", user.Username)
		}
	}

	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now()
	}
	s.users[user.ID] = *user
	return nil
}

func (s *Store) GetUser(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Username == username {
			return &user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) CreateCalendar(_ context.Context, calendar *domain.Calendar) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.calendars[calendar.ID]; exists {
		return fmt.Errorf("calendar %s already exists", calendar.ID)
	}

	now := s.now()
	calendar.IsActive = true
	calendar.CreatedAt = now
	calendar.UpdatedAt = now
	s.calendars[calendar.ID] = *calendar
	return nil
}

func (s *Store) GetCalendar(_ context.Context, id string) (*domain.Calendar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	calendar, ok := s.calendars[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &calendar, nil
}

func (s *Store) ListUserCalendars(_ context.Context, userID string) ([]domain.Calendar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	calendars := make([]domain.Calendar, 0)
	for _, calendar := range s.calendars {
		if calendar.UserID == userID && calendar.IsActive {
			calendars = append(calendars, calendar)
		}
	}

	sort.Slice(calendars, func(i, j int) bool {
		if calendars[i].CreatedAt.Equal(calendars[j].CreatedAt) {
			return calendars[i].ID < calendars[j].ID
		}
		return calendars[i].CreatedAt.Before(calendars[j].CreatedAt)
	})
	return calendars, nil
}

func (s *Store) UpdateCalendar(_ context.Context, calendar *domain.Calendar) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.calendars[calendar.ID]
	if !ok {
		return repository.ErrNotFound
	}

	calendar.CreatedAt = existing.CreatedAt
	calendar.UpdatedAt = s.now()
	s.calendars[calendar.ID] = *calendar
	return nil
}

func (s *Store) DeactivateCalendar(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	calendar, ok := s.calendars[id]
	if !ok {
		return repository.ErrNotFound
	}

	calendar.IsActive = false
	calendar.UpdatedAt = s.now()
	s.calendars[id] = calendar
	return nil
}

func (s *Store) CreateEvent(_ context.Context, event *domain.CalendarEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.events[event.ID]; exists {
		return fmt.Errorf("event %s already exists", event.ID)
	}

	now := s.now()
	event.CreatedAt = now
	event.UpdatedAt = now
	s.events[event.ID] = *event
	return nil
}

func (s *Store) GetEvent(_ context.Context, id string) (*domain.CalendarEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	event, ok := s.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &event, nil
}

func (s *Store) UpdateEvent(_ context.Context, event *domain.CalendarEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.events[event.ID]
	if !ok {
		return repository.ErrNotFound
	}

	event.CreatedAt = existing.CreatedAt
	event.UpdatedAt = s.now()
	s.events[event.ID] = *event
	return nil
}

func (s *Store) DeleteEvent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.events, id)
	return nil
}

func (s *Store) UpsertEvent(_ context.Context, event *domain.CalendarEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if existing, ok := s.events[event.ID]; ok {
		event.CreatedAt = existing.CreatedAt
	} else {
		event.CreatedAt = now
	}
	event.UpdatedAt = now
	s.events[event.ID] = *event
	return nil
}

func (s *Store) ListCalendarEvents(_ context.Context, calendarID string, query repository.EventQuery) ([]domain.CalendarEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.filterEvents(func(e *domain.CalendarEvent) bool {
		return e.CalendarID == calendarID
	}, query), nil
}

func (s *Store) ListUserEvents(_ context.Context, userID string, query repository.EventQuery) ([]domain.CalendarEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make(map[string]struct{})
	for _, calendar := range s.calendars {
		if calendar.UserID == userID && calendar.IsActive {
			active[calendar.ID] = struct{}{}
		}
	}

	return s.filterEvents(func(e *domain.CalendarEvent) bool {
		_, ok := active[e.CalendarID]
		return ok
	}, query), nil
}

// filterEvents must be called with s.mu held
func (s *Store) filterEvents(keep func(*domain.CalendarEvent) bool, query repository.EventQuery) []domain.CalendarEvent {
	events := make([]domain.CalendarEvent, 0)
	for _, event := range s.events {
		if !keep(&event) {
			continue
		}
		if !query.From.IsZero() && event.StartTime.Before(query.From) {
			continue
		}
		if !query.To.IsZero() && event.EndTime.After(query.To) {
			continue
		}
		events = append(events, event)
	}

	sort.SliceStable(events, func(i, j int) bool {
		if events[i].StartTime.Equal(events[j].StartTime) {
			return events[i].ID < events[j].ID
		}
		return events[i].StartTime.Before(events[j].StartTime)
	})
	return events
}

func (s *Store) CreateSession(_ context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.Token] = *session
	return nil
}

func (s *Store) GetSession(_ context.Context, token string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[token]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &session, nil
}

func (s *Store) DeleteSession(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, token)
	return nil
}

func (s *Store) DeleteExpiredSessions(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed, nil
}

// Ping always succeeds for the in-memory store
func (s *Store) Ping(context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store
func (s *Store) Close() error {
	return nil
}

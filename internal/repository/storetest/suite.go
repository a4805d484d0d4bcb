package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevinhe012597/calendar-analytics/internal/domain"
	"github.com/kevinhe012597/calendar-analytics/internal/repository"
)

// Run exercises the repository.Store contract against an implementation.
// makeStore must return a clean, isolated store.
func Run(t *testing.T, makeStore func(t *testing.T) repository.Store) {
	t.Helper()

	t.Run("Users", func(t *testing.T) { testUsers(t, makeStore(t)) })
	t.Run("Calendars", func(t *testing.T) { testCalendars(t, makeStore(t)) })
	t.Run("Events", func(t *testing.T) { testEvents(t, makeStore(t)) })
	t.Run("EventQueries", func(t *testing.T) { testEventQueries(t, makeStore(t)) })
	t.Run("Upsert", func(t *testing.T) { testUpsert(t, makeStore(t)) })
	t.Run("Sessions", func(t *testing.T) { testSessions(t, makeStore(t)) })
	t.Run("ExpiredSessions", func(t *testing.T) { testExpiredSessions(t, makeStore(t)) })
}

func strPtr(s string) *string {
	return &s
}

func createUser(t *testing.T, s repository.Store, username string) *domain.User {
	t.Helper()

	user := &domain.User{ID: uuid.NewString(), Username: username}
	require.NoError(t, s.CreateUser(context.Background(), user))
	return user
}

func createCalendar(t *testing.T, s repository.Store, userID, name string) *domain.Calendar {
	t.Helper()

	calendar := &domain.Calendar{ID: uuid.NewString(), UserID: userID, Name: name, Color: domain.DefaultCalendarColor}
	require.NoError(t, s.CreateCalendar(context.Background(), calendar))
	return calendar
}

func createEvent(t *testing.T, s repository.Store, calendarID, title string, start time.Time, duration time.Duration) *domain.CalendarEvent {
	t.Helper()

	event := &domain.CalendarEvent{
		ID:         uuid.NewString(),
		CalendarID: calendarID,
		Title:      title,
		StartTime:  start,
		EndTime:    start.Add(duration),
		Category:   domain.CategoryWork,
		Confidence: domain.ConfidenceMedium,
	}
	require.NoError(t, s.CreateEvent(context.Background(), event))
	return event
}

func testUsers(t *testing.T, s repository.Store) {
	ctx := context.Background()

	user := createUser(t, s, "demo@example.com")

	got, err := s.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "demo@example.com", got.Username)
	assert.False(t, got.CreatedAt.IsZero())

	got, err = s.GetUserByUsername(ctx, "demo@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = s.GetUserByUsername(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = s.GetUser(ctx, uuid.NewString())
	assert.ErrorIs(t, err, repository.ErrNotFound)

	err = s.CreateUser(ctx, &domain.User{ID: uuid.NewString(), Username: "demo@example.com"})
	assert.Error(t, err)
}

func testCalendars(t *testing.T, s repository.Store) {
	ctx := context.Background()

	owner := createUser(t, s, "owner@example.com")
	other := createUser(t, s, "other@example.com")

	work := createCalendar(t, s, owner.ID, "Work")
	assert.True(t, work.IsActive)
	assert.False(t, work.CreatedAt.IsZero())

	createCalendar(t, s, owner.ID, "Personal")
	createCalendar(t, s, other.ID, "Theirs")

	calendars, err := s.ListUserCalendars(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, calendars, 2)

	work.Name = "Office"
	work.Description = strPtr("day job")
	require.NoError(t, s.UpdateCalendar(ctx, work))

	got, err := s.GetCalendar(ctx, work.ID)
	require.NoError(t, err)
	assert.Equal(t, "Office", got.Name)
	require.NotNil(t, got.Description)
	assert.Equal(t, "day job", *got.Description)
	assert.True(t, got.IsActive)

	require.NoError(t, s.DeactivateCalendar(ctx, work.ID))

	calendars, err = s.ListUserCalendars(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, calendars, 1)
	assert.Equal(t, "Personal", calendars[0].Name)

	got, err = s.GetCalendar(ctx, work.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	assert.ErrorIs(t, s.DeactivateCalendar(ctx, uuid.NewString()), repository.ErrNotFound)
	assert.ErrorIs(t, s.UpdateCalendar(ctx, &domain.Calendar{ID: uuid.NewString()}), repository.ErrNotFound)
}

func testEvents(t *testing.T, s repository.Store) {
	ctx := context.Background()

	user := createUser(t, s, "events@example.com")
	calendar := createCalendar(t, s, user.ID, "Work")
	start := time.Date(2025, time.January, 6, 9, 0, 0, 0, time.UTC)

	event := createEvent(t, s, calendar.ID, "Standup", start, 15*time.Minute)
	assert.False(t, event.CreatedAt.IsZero())
	assert.Equal(t, event.CreatedAt, event.UpdatedAt)

	got, err := s.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, "Standup", got.Title)
	assert.True(t, got.StartTime.Equal(start))
	assert.True(t, got.EndTime.Equal(start.Add(15*time.Minute)))
	assert.Equal(t, domain.CategoryWork, got.Category)
	assert.Equal(t, domain.ConfidenceMedium, got.Confidence)
	assert.Nil(t, got.Description)
	assert.Nil(t, got.Location)
	assert.False(t, got.IsAllDay)

	got.Title = "Daily standup"
	got.Location = strPtr("Room 4")
	got.IsAllDay = true
	require.NoError(t, s.UpdateEvent(ctx, got))

	updated, err := s.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, "Daily standup", updated.Title)
	require.NotNil(t, updated.Location)
	assert.Equal(t, "Room 4", *updated.Location)
	assert.True(t, updated.IsAllDay)
	assert.True(t, updated.CreatedAt.Equal(event.CreatedAt))
	assert.False(t, updated.UpdatedAt.Before(event.UpdatedAt))

	require.NoError(t, s.DeleteEvent(ctx, event.ID))
	_, err = s.GetEvent(ctx, event.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, s.DeleteEvent(ctx, event.ID), repository.ErrNotFound)
	assert.ErrorIs(t, s.UpdateEvent(ctx, event), repository.ErrNotFound)
}

func testEventQueries(t *testing.T, s repository.Store) {
	ctx := context.Background()

	user := createUser(t, s, "queries@example.com")
	other := createUser(t, s, "someone@example.com")
	work := createCalendar(t, s, user.ID, "Work")
	gym := createCalendar(t, s, user.ID, "Gym")
	foreign := createCalendar(t, s, other.ID, "Foreign")

	base := time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC)
	late := createEvent(t, s, work.ID, "Review", base.Add(15*time.Hour), time.Hour)
	early := createEvent(t, s, gym.ID, "Workout", base.Add(7*time.Hour), time.Hour)
	old := createEvent(t, s, work.ID, "Old", base.AddDate(0, 0, -10), time.Hour)
	createEvent(t, s, foreign.ID, "Not mine", base.Add(8*time.Hour), time.Hour)

	events, err := s.ListUserEvents(ctx, user.ID, repository.EventQuery{})
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, []string{old.ID, early.ID, late.ID}, eventIDs(events))

	events, err = s.ListUserEvents(ctx, user.ID, repository.EventQuery{From: base})
	require.NoError(t, err)
	assert.Equal(t, []string{early.ID, late.ID}, eventIDs(events))

	events, err = s.ListUserEvents(ctx, user.ID, repository.EventQuery{From: base, To: base.Add(12 * time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, []string{early.ID}, eventIDs(events))

	events, err = s.ListCalendarEvents(ctx, work.ID, repository.EventQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{old.ID, late.ID}, eventIDs(events))

	require.NoError(t, s.DeactivateCalendar(ctx, gym.ID))

	events, err = s.ListUserEvents(ctx, user.ID, repository.EventQuery{From: base})
	require.NoError(t, err)
	assert.Equal(t, []string{late.ID}, eventIDs(events))

	events, err = s.ListCalendarEvents(ctx, gym.ID, repository.EventQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{early.ID}, eventIDs(events))
}

func testUpsert(t *testing.T, s repository.Store) {
	ctx := context.Background()

	user := createUser(t, s, "upsert@example.com")
	calendar := createCalendar(t, s, user.ID, "Imported")
	start := time.Date(2025, time.January, 7, 18, 0, 0, 0, time.UTC)

	event := &domain.CalendarEvent{
		ID:         "imported-1",
		CalendarID: calendar.ID,
		Title:      "Dinner",
		StartTime:  start,
		EndTime:    start.Add(2 * time.Hour),
		Category:   domain.CategorySocial,
		Confidence: domain.ConfidenceMedium,
	}
	require.NoError(t, s.UpsertEvent(ctx, event))
	createdAt := event.CreatedAt

	replacement := *event
	replacement.Title = "Dinner with family"
	require.NoError(t, s.UpsertEvent(ctx, &replacement))

	got, err := s.GetEvent(ctx, "imported-1")
	require.NoError(t, err)
	assert.Equal(t, "Dinner with family", got.Title)
	assert.True(t, got.CreatedAt.Equal(createdAt))

	events, err := s.ListCalendarEvents(ctx, calendar.ID, repository.EventQuery{})
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func testSessions(t *testing.T, s repository.Store) {
	ctx := context.Background()

	user := createUser(t, s, "session@example.com")
	now := time.Now().UTC().Truncate(time.Second)
	session := &domain.Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(24 * time.Hour),
	}
	require.NoError(t, s.CreateSession(ctx, session))

	got, err := s.GetSession(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.UserID)
	assert.True(t, got.ExpiresAt.Equal(session.ExpiresAt))

	require.NoError(t, s.DeleteSession(ctx, session.Token))
	_, err = s.GetSession(ctx, session.Token)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, s.Ping(ctx))
}

func testExpiredSessions(t *testing.T, s repository.Store) {
	ctx := context.Background()

	user := createUser(t, s, "expiry@example.com")
	now := time.Date(2025, time.January, 6, 9, 0, 0, 0, time.UTC)
	expiries := map[string]time.Time{
		"stale":  now.Add(-time.Hour),
		"edge":   now,
		"active": now.Add(time.Hour),
	}
	for token, expiresAt := range expiries {
		require.NoError(t, s.CreateSession(ctx, &domain.Session{
			Token:     token,
			UserID:    user.ID,
			CreatedAt: expiresAt.Add(-24 * time.Hour),
			ExpiresAt: expiresAt,
		}))
	}

	removed, err := s.DeleteExpiredSessions(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, err = s.GetSession(ctx, "stale")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = s.GetSession(ctx, "edge")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = s.GetSession(ctx, "active")
	assert.NoError(t, err)

	removed, err = s.DeleteExpiredSessions(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func eventIDs(events []domain.CalendarEvent) []string {
	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	return ids
}

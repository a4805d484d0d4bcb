package domain

import "time"

// DefaultCalendarColor is used when a calendar is created without a colour
const DefaultCalendarColor = "#3b82f6"

// User owns calendars
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session binds an opaque token to a user for a limited time
type Session struct {
	Token     string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session is no longer valid at now
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Calendar groups events. IsActive=false marks a soft-deleted calendar.
type Calendar struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Color       string    `json:"color"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CalendarEvent represents a single classified event
type CalendarEvent struct {
	ID          string     `json:"id"`
	CalendarID  string     `json:"calendarId"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	StartTime   time.Time  `json:"startTime"`
	EndTime     time.Time  `json:"endTime"`
	Category    Category   `json:"category"`
	Confidence  Confidence `json:"confidence"`
	IsAllDay    bool       `json:"isAllDay"`
	Location    *string    `json:"location"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Duration returns EndTime-StartTime as stored, without validation
func (e *CalendarEvent) Duration() time.Duration {
	return e.EndTime.Sub(e.StartTime)
}

// ChangeOp names the kind of mutation carried by an EventChange
type ChangeOp string

const (
	ChangeOpUpsert ChangeOp = "upsert"
	ChangeOpDelete ChangeOp = "delete"
)

// EventChange is a versioned record of an event mutation, fed to the history pipeline
type EventChange struct {
	Op        ChangeOp      `json:"op"`
	UserID    string        `json:"user_id"`
	Event     CalendarEvent `json:"event"`
	Version   uint64        `json:"version"`
	ChangedAt time.Time     `json:"changed_at"`
}

package dto

import "time"

// CreateCalendarRequest represents a create calendar request
type CreateCalendarRequest struct {
	Name        string  `json:"name" binding:"required" example:"Work"`
	Description *string `json:"description"`
	Color       string  `json:"color" example:"#3b82f6"`
}

// UpdateCalendarRequest changes only the fields that are present
type UpdateCalendarRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
}

// ListEventsQuery bounds an event listing; both ends are optional RFC 3339 instants
type ListEventsQuery struct {
	StartDate time.Time `form:"startDate" time_format:"2006-01-02T15:04:05Z07:00"`
	EndDate   time.Time `form:"endDate" time_format:"2006-01-02T15:04:05Z07:00"`
}

// CreateEventRequest represents a create event request
type CreateEventRequest struct {
	CalendarID  string    `json:"calendarId" binding:"required"`
	Title       string    `json:"title" binding:"required" example:"Team standup"`
	Description *string   `json:"description"`
	StartTime   time.Time `json:"startTime" example:"2025-01-06T09:00:00Z"`
	EndTime     time.Time `json:"endTime" example:"2025-01-06T09:30:00Z"`
	Location    *string   `json:"location"`
	IsAllDay    bool      `json:"isAllDay"`
}

// UpdateEventRequest changes only the fields that are present.
// Category is honoured only when the title and description are unchanged.
type UpdateEventRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	StartTime   *time.Time `json:"startTime"`
	EndTime     *time.Time `json:"endTime"`
	Location    *string    `json:"location"`
	IsAllDay    *bool      `json:"isAllDay"`
	Category    *string    `json:"category" example:"exercise"`
}

// ClassifyRequest asks for a classification without storing anything
type ClassifyRequest struct {
	Title       string  `json:"title" binding:"required" example:"Team standup"`
	Description *string `json:"description"`
}

// ImportCalendarRequest names an ICS feed by URL or carries it inline
type ImportCalendarRequest struct {
	URL string `json:"url" example:"webcal://example.com/team.ics"`
	ICS string `json:"ics"`
}

// GetHistoryRequest represents a long-range analytics query
type GetHistoryRequest struct {
	From    int64  `form:"from" binding:"required"`
	To      int64  `form:"to" binding:"required"`
	GroupBy string `form:"group_by"`
}

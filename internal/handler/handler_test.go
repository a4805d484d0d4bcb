package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kevinhe012597/calendar-analytics/internal/analytics"
	"github.com/kevinhe012597/calendar-analytics/internal/domain"
	"github.com/kevinhe012597/calendar-analytics/internal/dto"
	"github.com/kevinhe012597/calendar-analytics/internal/repository"
	"github.com/kevinhe012597/calendar-analytics/internal/service"
)

type testMocks struct {
	calendars *MockCalendarService
	events    *MockEventService
	analytics *MockAnalyticsService
	sessions  *MockSessionService
	imports   *MockImportService
	health    *MockHealthChecker
}

func newTestMocks() *testMocks {
	return &testMocks{
		calendars: new(MockCalendarService),
		events:    new(MockEventService),
		analytics: new(MockAnalyticsService),
		sessions:  new(MockSessionService),
		imports:   new(MockImportService),
		health:    new(MockHealthChecker),
	}
}

func (m *testMocks) handler() *Handler {
	return NewHandler(Services{
		Calendars: m.calendars,
		Events:    m.events,
		Analytics: m.analytics,
		Sessions:  m.sessions,
		Imports:   m.imports,
	}, m.health, false, zap.NewNop())
}

// newTestHandler returns a handler whose every request resolves to testUser
func newTestHandler() (*Handler, *testMocks) {
	m := newTestMocks()
	m.sessions.On("Resolve", mock.Anything, mock.Anything).Return(resolvedSession("token-1", false), nil)
	return m.handler(), m
}

func doJSON(h *Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case []byte:
		reader = bytes.NewReader(b)
	default:
		encoded, _ := json.Marshal(b)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()

	var response dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func TestHandler_HealthCheck(t *testing.T) {
	handler, m := newTestHandler()
	m.health.On("Ping", mock.Anything).Return(nil)

	w := doJSON(handler, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]string
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "ok", response["status"])
	m.sessions.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
}

func TestHandler_HealthCheck_StoreDown(t *testing.T) {
	handler, m := newTestHandler()
	m.health.On("Ping", mock.Anything).Return(errors.New("database is locked"))

	w := doJSON(handler, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHandler_SwaggerDoc(t *testing.T) {
	handler, m := newTestHandler()

	w := doJSON(handler, http.MethodGet, "/docs/doc.json", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var doc struct {
		Info struct {
			Title string `json:"title"`
		} `json:"info"`
		Paths map[string]map[string]interface{} `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "Calendar Analytics API", doc.Info.Title)
	assert.Contains(t, doc.Paths["/api/calendars/{id}/import"], "post")
	assert.Contains(t, doc.Paths["/api/analytics/history"], "get")
	m.sessions.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
}

func TestHandler_Session_IssuesCookie(t *testing.T) {
	m := newTestMocks()
	m.sessions.On("Resolve", mock.Anything, "").Return(resolvedSession("fresh-token", true), nil).Once()
	m.sessions.On("Resolve", mock.Anything, "fresh-token").Return(resolvedSession("fresh-token", false), nil).Once()
	handler := m.handler()

	w := doJSON(handler, http.MethodGet, "/api/me", nil)

	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "session_id", cookies[0].Name)
	assert.Equal(t, "fresh-token", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Greater(t, cookies[0].MaxAge, 0)

	var user domain.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	assert.Equal(t, testUser.ID, user.ID)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Result().Cookies())
	m.sessions.AssertExpectations(t)
}

func TestHandler_Session_ResolveFailure(t *testing.T) {
	m := newTestMocks()
	m.sessions.On("Resolve", mock.Anything, mock.Anything).Return(nil, errors.New("store unavailable"))
	handler := m.handler()

	w := doJSON(handler, http.MethodGet, "/api/calendars", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal_error", decodeError(t, w).Error)
	m.calendars.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestHandler_CreateCalendar_Success(t *testing.T) {
	handler, m := newTestHandler()

	m.calendars.On("Create", mock.Anything, testUser.ID, &dto.CreateCalendarRequest{Name: "Work", Color: "#10b981"}).
		Return(&domain.Calendar{ID: "cal-1", UserID: testUser.ID, Name: "Work", Color: "#10b981", IsActive: true}, nil)

	w := doJSON(handler, http.MethodPost, "/api/calendars", map[string]string{"name": "Work", "color": "#10b981"})

	assert.Equal(t, http.StatusCreated, w.Code)

	var calendar domain.Calendar
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &calendar))
	assert.Equal(t, "cal-1", calendar.ID)
	m.calendars.AssertExpectations(t)
}

func TestHandler_CreateCalendar_MissingName(t *testing.T) {
	handler, m := newTestHandler()

	w := doJSON(handler, http.MethodPost, "/api/calendars", map[string]string{"color": "#10b981"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", decodeError(t, w).Error)
	m.calendars.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_DeleteCalendar(t *testing.T) {
	handler, m := newTestHandler()

	m.calendars.On("Delete", mock.Anything, testUser.ID, "cal-1").Return(nil)
	m.calendars.On("Delete", mock.Anything, testUser.ID, "missing").Return(repository.ErrNotFound)

	w := doJSON(handler, http.MethodDelete, "/api/calendars/cal-1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())

	w = doJSON(handler, http.MethodDelete, "/api/calendars/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decodeError(t, w).Error)
}

func TestHandler_UpdateCalendar(t *testing.T) {
	handler, m := newTestHandler()

	m.calendars.On("Update", mock.Anything, testUser.ID, "cal-1", mock.MatchedBy(func(req *dto.UpdateCalendarRequest) bool {
		return req.Name != nil && *req.Name == "Office" && req.Color == nil
	})).Return(&domain.Calendar{ID: "cal-1", Name: "Office"}, nil)

	w := doJSON(handler, http.MethodPut, "/api/calendars/cal-1", map[string]string{"name": "Office"})

	assert.Equal(t, http.StatusOK, w.Code)
	m.calendars.AssertExpectations(t)
}

func TestHandler_CreateEvent_Success(t *testing.T) {
	handler, m := newTestHandler()
	start := time.Date(2025, time.January, 6, 9, 0, 0, 0, time.UTC)

	m.events.On("Create", mock.Anything, testUser.ID, mock.MatchedBy(func(req *dto.CreateEventRequest) bool {
		return req.CalendarID == "cal-1" && req.Title == "Standup" &&
			req.StartTime.Equal(start) && req.EndTime.Equal(start.Add(15*time.Minute))
	})).Return(&domain.CalendarEvent{
		ID:         "event-1",
		CalendarID: "cal-1",
		Title:      "Standup",
		StartTime:  start,
		EndTime:    start.Add(15 * time.Minute),
		Category:   domain.CategoryWork,
		Confidence: domain.ConfidenceMedium,
	}, nil)

	w := doJSON(handler, http.MethodPost, "/api/events", []byte(`{
		"calendarId": "cal-1",
		"title": "Standup",
		"startTime": "2025-01-06T09:00:00Z",
		"endTime": "2025-01-06T09:15:00Z"
	}`))

	assert.Equal(t, http.StatusCreated, w.Code)

	var event domain.CalendarEvent
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &event))
	assert.Equal(t, "event-1", event.ID)
	assert.Equal(t, domain.CategoryWork, event.Category)
	m.events.AssertExpectations(t)
}

func TestHandler_CreateEvent_ValidationError(t *testing.T) {
	handler, m := newTestHandler()

	m.events.On("Create", mock.Anything, testUser.ID, mock.Anything).
		Return(nil, service.NewValidationError("endTime must be after startTime"))

	w := doJSON(handler, http.MethodPost, "/api/events", []byte(`{
		"calendarId": "cal-1",
		"title": "Standup",
		"startTime": "2025-01-06T09:00:00Z",
		"endTime": "2025-01-06T08:00:00Z"
	}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	response := decodeError(t, w)
	assert.Equal(t, "validation_error", response.Error)
	assert.Equal(t, "endTime must be after startTime", response.Message)
}

func TestHandler_CreateEvent_InvalidJSON(t *testing.T) {
	handler, m := newTestHandler()

	w := doJSON(handler, http.MethodPost, "/api/events", []byte(`{"title": "Standup", invalid}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	m.events.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_CreateEvent_InternalError(t *testing.T) {
	handler, m := newTestHandler()

	m.events.On("Create", mock.Anything, testUser.ID, mock.Anything).
		Return(nil, errors.New("failed to create event: disk full"))

	w := doJSON(handler, http.MethodPost, "/api/events", map[string]string{"calendarId": "cal-1", "title": "Standup"})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal_error", decodeError(t, w).Error)
}

func TestHandler_ListEvents_Range(t *testing.T) {
	handler, m := newTestHandler()
	from := time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC)

	m.events.On("ListForUser", mock.Anything, testUser.ID, mock.MatchedBy(func(q repository.EventQuery) bool {
		return q.From.Equal(from) && q.To.IsZero()
	})).Return([]domain.CalendarEvent{{ID: "event-1"}}, nil)

	w := doJSON(handler, http.MethodGet, "/api/events?startDate=2025-01-06T00:00:00Z", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var events []domain.CalendarEvent
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &events))
	require.Len(t, events, 1)
	assert.Equal(t, "event-1", events[0].ID)
}

func TestHandler_ListEvents_InvalidDate(t *testing.T) {
	handler, m := newTestHandler()

	w := doJSON(handler, http.MethodGet, "/api/events?startDate=yesterday", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	m.events.AssertNotCalled(t, "ListForUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_ListCalendarEvents_NotFound(t *testing.T) {
	handler, m := newTestHandler()

	m.events.On("ListForCalendar", mock.Anything, testUser.ID, "cal-9", repository.EventQuery{}).
		Return(nil, repository.ErrNotFound)

	w := doJSON(handler, http.MethodGet, "/api/calendars/cal-9/events", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_UpdateEvent(t *testing.T) {
	handler, m := newTestHandler()

	m.events.On("Update", mock.Anything, testUser.ID, "event-1", mock.MatchedBy(func(req *dto.UpdateEventRequest) bool {
		return req.Category != nil && *req.Category == "rest" && req.Title == nil
	})).Return(&domain.CalendarEvent{ID: "event-1", Category: domain.CategoryRest}, nil)

	w := doJSON(handler, http.MethodPut, "/api/events/event-1", map[string]string{"category": "rest"})

	assert.Equal(t, http.StatusOK, w.Code)
	m.events.AssertExpectations(t)
}

func TestHandler_DeleteEvent(t *testing.T) {
	handler, m := newTestHandler()

	m.events.On("Delete", mock.Anything, testUser.ID, "event-1").Return(nil)

	w := doJSON(handler, http.MethodDelete, "/api/events/event-1", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
}

func TestHandler_Classify(t *testing.T) {
	handler, m := newTestHandler()

	m.events.On("Classify", mock.Anything, &dto.ClassifyRequest{Title: "Morning run"}).
		Return(domain.Classification{Category: domain.CategoryExercise, Confidence: domain.ConfidenceMedium})

	w := doJSON(handler, http.MethodPost, "/api/classify", map[string]string{"title": "Morning run"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"category":"exercise","confidence":"medium"}`, w.Body.String())
}

func TestHandler_GetAnalytics(t *testing.T) {
	handler, m := newTestHandler()

	m.analytics.On("GetSnapshot", mock.Anything, testUser.ID).Return(&analytics.Snapshot{
		TimeAllocation: []analytics.CategoryHours{{Category: domain.CategoryWork, Hours: 1.5, Color: "#3b82f6"}},
		Trends: []analytics.TrendPoint{{
			Date:  "Mon",
			Hours: map[domain.Category]float64{domain.CategoryWork: 1.5},
		}},
		Metrics: analytics.Metrics{TotalHours: 1.5, EventsCount: 1, MostProductiveDay: "Mon"},
	}, nil)

	w := doJSON(handler, http.MethodGet, "/api/analytics", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"timeAllocation": [{"category": "work", "hours": 1.5, "color": "#3b82f6"}],
		"trends": [{"date": "Mon", "work": 1.5}],
		"metrics": {"totalHours": 1.5, "eventsCount": 1, "mostProductiveDay": "Mon"}
	}`, w.Body.String())
}

func TestHandler_GetHistory(t *testing.T) {
	handler, m := newTestHandler()

	m.analytics.On("GetHistory", mock.Anything, testUser.ID, &dto.GetHistoryRequest{From: 100, To: 200, GroupBy: "day"}).
		Return(&dto.GetHistoryResponse{From: 100, To: 200, TotalHours: 3, EventsCount: 2, GroupBy: "day"}, nil)

	w := doJSON(handler, http.MethodGet, "/api/analytics/history?from=100&to=200&group_by=day", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var response dto.GetHistoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, uint64(2), response.EventsCount)
}

func TestHandler_GetHistory_Unavailable(t *testing.T) {
	handler, m := newTestHandler()

	m.analytics.On("GetHistory", mock.Anything, testUser.ID, mock.Anything).Return(nil, service.ErrHistoryUnavailable)

	w := doJSON(handler, http.MethodGet, "/api/analytics/history?from=100&to=200", nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unavailable", decodeError(t, w).Error)
}

func TestHandler_GetHistory_MissingParams(t *testing.T) {
	handler, m := newTestHandler()

	w := doJSON(handler, http.MethodGet, "/api/analytics/history?from=100", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	m.analytics.AssertNotCalled(t, "GetHistory", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_ImportCalendar(t *testing.T) {
	handler, m := newTestHandler()

	m.imports.On("Import", mock.Anything, testUser.ID, "cal-1", &dto.ImportCalendarRequest{URL: "https://example.com/feed.ics"}).
		Return(&dto.ImportResponse{Imported: 4, Skipped: 1}, nil)

	w := doJSON(handler, http.MethodPost, "/api/calendars/cal-1/import", map[string]string{"url": "https://example.com/feed.ics"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"imported":4,"skipped":1}`, w.Body.String())
}

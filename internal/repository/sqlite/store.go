package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kevinhe012597/calendar-analytics/internal/domain"
	"github.com/kevinhe012597/calendar-analytics/internal/repository"
)

const currentVersion = 1

// Fixed width so that text comparison in SQL matches chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store implements repository.Store on a SQLite database file
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ repository.Store = (*Store)(nil)

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps :memory: databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS users (
		id          TEXT PRIMARY KEY,
		username    TEXT NOT NULL UNIQUE,
		created_at  TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS calendars (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL REFERENCES users(id),
		name        TEXT NOT NULL,
		description TEXT,
		color       TEXT NOT NULL DEFAULT '#3b82f6',
		is_active   INTEGER NOT NULL DEFAULT 1,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_calendars_user ON calendars(user_id);

	CREATE TABLE IF NOT EXISTS calendar_events (
		id          TEXT PRIMARY KEY,
		calendar_id TEXT NOT NULL REFERENCES calendars(id),
		title       TEXT NOT NULL,
		description TEXT,
		start_time  TEXT NOT NULL,
		end_time    TEXT NOT NULL,
		category    TEXT NOT NULL DEFAULT 'other',
		confidence  TEXT NOT NULL DEFAULT 'low',
		is_all_day  INTEGER NOT NULL DEFAULT 0,
		location    TEXT,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_calendar ON calendar_events(calendar_id);
	CREATE INDEX IF NOT EXISTS idx_events_start    ON calendar_events(start_time);

	CREATE TABLE IF NOT EXISTS sessions (
		token       TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL REFERENCES users(id),
		created_at  TEXT NOT NULL,
		expires_at  TEXT NOT NULL
	);
	`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("failed to apply v1 schema: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(timeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	return err
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, created_at) VALUES (?, ?, ?)`,
		user.ID, user.Username, formatTime(user.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, username, created_at FROM users WHERE id = ?`, id))
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, username, created_at FROM users WHERE username = ?`, username))
}

func (s *Store) scanUser(row *sql.Row) (*domain.User, error) {
	var (
		user      domain.User
		createdAt string
	)
	if err := row.Scan(&user.ID, &user.Username, &createdAt); err != nil {
		return nil, notFound(err)
	}

	var err error
	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &user, nil
}

const calendarColumns = `id, user_id, name, description, color, is_active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCalendar(row rowScanner) (*domain.Calendar, error) {
	var (
		calendar             domain.Calendar
		description          sql.NullString
		active               int
		createdAt, updatedAt string
	)
	if err := row.Scan(&calendar.ID, &calendar.UserID, &calendar.Name, &description,
		&calendar.Color, &active, &createdAt, &updatedAt); err != nil {
		return nil, notFound(err)
	}

	calendar.Description = stringPtr(description)
	calendar.IsActive = active == 1

	var err error
	if calendar.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if calendar.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &calendar, nil
}

func (s *Store) CreateCalendar(ctx context.Context, calendar *domain.Calendar) error {
	now := s.now()
	calendar.IsActive = true
	calendar.CreatedAt = now
	calendar.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO calendars (`+calendarColumns+`) VALUES (?, ?, ?, ?, ?, 1, ?, ?)`,
		calendar.ID, calendar.UserID, calendar.Name, nullString(calendar.Description),
		calendar.Color, formatTime(now), formatTime(now))
	if err != nil {
		return fmt.Errorf("failed to insert calendar: %w", err)
	}
	return nil
}

func (s *Store) GetCalendar(ctx context.Context, id string) (*domain.Calendar, error) {
	return scanCalendar(s.db.QueryRowContext(ctx,
		`SELECT `+calendarColumns+` FROM calendars WHERE id = ?`, id))
}

func (s *Store) ListUserCalendars(ctx context.Context, userID string) ([]domain.Calendar, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+calendarColumns+` FROM calendars
		 WHERE user_id = ? AND is_active = 1
		 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query calendars: %w", err)
	}
	defer rows.Close()

	calendars := make([]domain.Calendar, 0)
	for rows.Next() {
		calendar, err := scanCalendar(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan calendar: %w", err)
		}
		calendars = append(calendars, *calendar)
	}
	return calendars, rows.Err()
}

func (s *Store) UpdateCalendar(ctx context.Context, calendar *domain.Calendar) error {
	now := s.now()

	res, err := s.db.ExecContext(ctx,
		`UPDATE calendars SET name = ?, description = ?, color = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`,
		calendar.Name, nullString(calendar.Description), calendar.Color,
		boolInt(calendar.IsActive), formatTime(now), calendar.ID)
	if err != nil {
		return fmt.Errorf("failed to update calendar: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return err
	}

	stored, err := s.GetCalendar(ctx, calendar.ID)
	if err != nil {
		return err
	}
	calendar.CreatedAt = stored.CreatedAt
	calendar.UpdatedAt = stored.UpdatedAt
	return nil
}

func (s *Store) DeactivateCalendar(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE calendars SET is_active = 0, updated_at = ? WHERE id = ?`,
		formatTime(s.now()), id)
	if err != nil {
		return fmt.Errorf("failed to deactivate calendar: %w", err)
	}
	return requireAffected(res)
}

const eventColumns = `id, calendar_id, title, description, start_time, end_time,
	category, confidence, is_all_day, location, created_at, updated_at`

func scanEvent(row rowScanner) (*domain.CalendarEvent, error) {
	var (
		event                            domain.CalendarEvent
		description, location            sql.NullString
		category, confidence             string
		allDay                           int
		start, end, createdAt, updatedAt string
	)
	if err := row.Scan(&event.ID, &event.CalendarID, &event.Title, &description, &start, &end,
		&category, &confidence, &allDay, &location, &createdAt, &updatedAt); err != nil {
		return nil, notFound(err)
	}

	event.Description = stringPtr(description)
	event.Location = stringPtr(location)
	event.Category = domain.Category(category)
	event.Confidence = domain.Confidence(confidence)
	event.IsAllDay = allDay == 1

	var err error
	for _, f := range []struct {
		dst *time.Time
		src string
	}{
		{&event.StartTime, start},
		{&event.EndTime, end},
		{&event.CreatedAt, createdAt},
		{&event.UpdatedAt, updatedAt},
	} {
		if *f.dst, err = parseTime(f.src); err != nil {
			return nil, err
		}
	}
	return &event, nil
}

func (s *Store) CreateEvent(ctx context.Context, event *domain.CalendarEvent) error {
	now := s.now()
	event.CreatedAt = now
	event.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO calendar_events (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.CalendarID, event.Title, nullString(event.Description),
		formatTime(event.StartTime), formatTime(event.EndTime),
		string(event.Category), string(event.Confidence), boolInt(event.IsAllDay),
		nullString(event.Location), formatTime(now), formatTime(now))
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

func (s *Store) GetEvent(ctx context.Context, id string) (*domain.CalendarEvent, error) {
	return scanEvent(s.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM calendar_events WHERE id = ?`, id))
}

func (s *Store) UpdateEvent(ctx context.Context, event *domain.CalendarEvent) error {
	now := s.now()

	res, err := s.db.ExecContext(ctx,
		`UPDATE calendar_events SET calendar_id = ?, title = ?, description = ?, start_time = ?,
		 end_time = ?, category = ?, confidence = ?, is_all_day = ?, location = ?, updated_at = ?
		 WHERE id = ?`,
		event.CalendarID, event.Title, nullString(event.Description),
		formatTime(event.StartTime), formatTime(event.EndTime),
		string(event.Category), string(event.Confidence), boolInt(event.IsAllDay),
		nullString(event.Location), formatTime(now), event.ID)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return err
	}
	return s.refreshEventTimestamps(ctx, event)
}

func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM calendar_events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return requireAffected(res)
}

func (s *Store) UpsertEvent(ctx context.Context, event *domain.CalendarEvent) error {
	now := formatTime(s.now())

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO calendar_events (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			calendar_id = excluded.calendar_id,
			title       = excluded.title,
			description = excluded.description,
			start_time  = excluded.start_time,
			end_time    = excluded.end_time,
			category    = excluded.category,
			confidence  = excluded.confidence,
			is_all_day  = excluded.is_all_day,
			location    = excluded.location,
			updated_at  = excluded.updated_at`,
		event.ID, event.CalendarID, event.Title, nullString(event.Description),
		formatTime(event.StartTime), formatTime(event.EndTime),
		string(event.Category), string(event.Confidence), boolInt(event.IsAllDay),
		nullString(event.Location), now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert event: %w", err)
	}
	return s.refreshEventTimestamps(ctx, event)
}

func (s *Store) refreshEventTimestamps(ctx context.Context, event *domain.CalendarEvent) error {
	var createdAt, updatedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT created_at, updated_at FROM calendar_events WHERE id = ?`, event.ID).
		Scan(&createdAt, &updatedAt)
	if err != nil {
		return notFound(err)
	}

	if event.CreatedAt, err = parseTime(createdAt); err != nil {
		return err
	}
	if event.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return err
	}
	return nil
}

func (s *Store) ListCalendarEvents(ctx context.Context, calendarID string, query repository.EventQuery) ([]domain.CalendarEvent, error) {
	where, args := rangeClause("", query)
	return s.queryEvents(ctx,
		`SELECT `+eventColumns+` FROM calendar_events
		 WHERE calendar_id = ?`+where+`
		 ORDER BY start_time, id`,
		append([]any{calendarID}, args...)...)
}

func (s *Store) ListUserEvents(ctx context.Context, userID string, query repository.EventQuery) ([]domain.CalendarEvent, error) {
	where, args := rangeClause("e.", query)
	return s.queryEvents(ctx,
		`SELECT `+prefixColumns("e", eventColumns)+` FROM calendar_events e
		 JOIN calendars c ON c.id = e.calendar_id
		 WHERE c.user_id = ? AND c.is_active = 1`+where+`
		 ORDER BY e.start_time, e.id`,
		append([]any{userID}, args...)...)
}

func rangeClause(prefix string, query repository.EventQuery) (string, []any) {
	var (
		where strings.Builder
		args  []any
	)
	if !query.From.IsZero() {
		where.WriteString(" AND " + prefix + "start_time >= ?")
		args = append(args, formatTime(query.From))
	}
	if !query.To.IsZero() {
		where.WriteString(" AND " + prefix + "end_time <= ?")
		args = append(args, formatTime(query.To))
	}
	return where.String(), args
}

func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

func (s *Store) queryEvents(ctx context.Context, query string, args ...any) ([]domain.CalendarEvent, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := make([]domain.CalendarEvent, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, *event)
	}
	return events, rows.Err()
}

func (s *Store) CreateSession(ctx context.Context, session *domain.Session) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		session.Token, session.UserID, formatTime(session.CreatedAt), formatTime(session.ExpiresAt))
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

func (s *Store) GetSession(ctx context.Context, token string) (*domain.Session, error) {
	var (
		session              domain.Session
		createdAt, expiresAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT token, user_id, created_at, expires_at FROM sessions WHERE token = ?`, token).
		Scan(&session.Token, &session.UserID, &createdAt, &expiresAt)
	if err != nil {
		return nil, notFound(err)
	}

	if session.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if session.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *Store) DeleteSession(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *Store) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, formatTime(now))
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted sessions: %w", err)
	}
	return int(removed), nil
}

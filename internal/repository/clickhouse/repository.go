package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"

	"github.com/kevinhe012597/calendar-analytics/internal/domain"
	"github.com/kevinhe012597/calendar-analytics/internal/repository"
)

const (
	GroupByCategory = "category"
	GroupByDay      = "day"
)

// Repository implements repository.HistoryRepository on ClickHouse.
// Every event change is appended as a new row; ReplacingMergeTree keeps the
// highest version per event.
type Repository struct {
	client *Client
	conn   driver.Conn
	log    *zap.Logger
}

var _ repository.HistoryRepository = (*Repository)(nil)

// NewRepository creates a new ClickHouse history repository
func NewRepository(client *Client, log *zap.Logger) *Repository {
	return &Repository{
		client: client,
		conn:   client.Conn(),
		log:    log,
	}
}

// InitSchema creates the versioned event table if it does not exist
func (r *Repository) InitSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS calendar_event_versions (
		event_id String,
		user_id String,
		calendar_id String,
		category LowCardinality(String),
		confidence LowCardinality(String),
		start_time Int64,
		end_time Int64,
		duration_seconds Int64,
		is_all_day UInt8,
		is_deleted UInt8,
		changed_at DateTime64(3),
		version UInt64
	) ENGINE = ReplacingMergeTree(version)
	ORDER BY (user_id, event_id)
	SETTINGS index_granularity = 8192
	`

	if err := r.conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create calendar_event_versions table: %w", err)
	}

	r.log.Info("ClickHouse schema initialized")
	return nil
}

// versionRow flattens a change into the column order of calendar_event_versions
func versionRow(change *domain.EventChange) []any {
	event := change.Event

	version := change.Version
	if version == 0 {
		version = uint64(change.ChangedAt.UnixNano())
	}

	var deleted, allDay uint8
	if change.Op == domain.ChangeOpDelete {
		deleted = 1
	}
	if event.IsAllDay {
		allDay = 1
	}

	category, _ := domain.ParseCategory(string(event.Category))

	return []any{
		event.ID,
		change.UserID,
		event.CalendarID,
		string(category),
		string(event.Confidence),
		event.StartTime.Unix(),
		event.EndTime.Unix(),
		int64(event.Duration() / time.Second),
		allDay,
		deleted,
		change.ChangedAt,
		version,
	}
}

// InsertBatch appends a batch of event changes
func (r *Repository) InsertBatch(ctx context.Context, changes []*domain.EventChange) (int, error) {
	if len(changes) == 0 {
		return 0, nil
	}

	batch, err := r.conn.PrepareBatch(ctx, "INSERT INTO calendar_event_versions")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare batch: %w", err)
	}

	inserted := 0
	for _, change := range changes {
		if err := batch.Append(versionRow(change)...); err != nil {
			_ = batch.Abort()
			return 0, fmt.Errorf("failed to append change to batch: %w", err)
		}
		inserted++
	}

	if err := batch.Send(); err != nil {
		return 0, fmt.Errorf("failed to send batch: %w", err)
	}

	return inserted, nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.conn.Ping(ctx)
}

func (r *Repository) Close() error {
	return r.client.Close()
}

// historyGrouping returns the select expression, GROUP BY and ORDER BY clauses for a group_by value
func historyGrouping(groupBy string) (selectField, groupClause, orderClause string, err error) {
	switch groupBy {
	case GroupByCategory:
		return "category", "GROUP BY category", "ORDER BY hours DESC, group_value ASC", nil
	case GroupByDay:
		return "formatDateTime(toStartOfDay(toDateTime(start_time)), '%Y-%m-%d')",
			"GROUP BY toStartOfDay(toDateTime(start_time))",
			"ORDER BY group_value ASC", nil
	default:
		return "", "", "", fmt.Errorf("unsupported group_by value: %s (supported: category, day)", groupBy)
	}
}

// GetHistory sums the latest non-deleted version of each event whose start falls in [From, To]
func (r *Repository) GetHistory(ctx context.Context, query repository.HistoryQuery) (*repository.HistoryResult, error) {
	result := &repository.HistoryResult{
		Groups: []repository.HistoryGroupResult{},
	}

	whereClause := "WHERE user_id = ? AND start_time >= ? AND start_time <= ? AND is_deleted = 0"
	args := []any{query.UserID, query.From, query.To}

	overallQuery := fmt.Sprintf(`
		SELECT
			sum(duration_seconds) / 3600 AS total_hours,
			count() AS events_count
		FROM calendar_event_versions FINAL
		%s
	`, whereClause)

	row := r.conn.QueryRow(ctx, overallQuery, args...)
	if err := row.Scan(&result.TotalHours, &result.EventsCount); err != nil {
		return nil, fmt.Errorf("failed to query history totals: %w", err)
	}

	if query.GroupBy == "" {
		return result, nil
	}

	selectField, groupClause, orderClause, err := historyGrouping(query.GroupBy)
	if err != nil {
		return nil, err
	}

	groupedQuery := fmt.Sprintf(`
		SELECT
			%s AS group_value,
			sum(duration_seconds) / 3600 AS hours,
			count() AS events
		FROM calendar_event_versions FINAL
		%s
		%s
		%s
	`, selectField, whereClause, groupClause, orderClause)

	rows, err := r.conn.Query(ctx, groupedQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query grouped history: %w", err)
	}
	defer func(rows driver.Rows) {
		if err := rows.Close(); err != nil {
			r.log.Error("Failed to close grouped history rows", zap.Error(err))
		}
	}(rows)

	for rows.Next() {
		var group repository.HistoryGroupResult
		if err := rows.Scan(&group.GroupValue, &group.Hours, &group.Events); err != nil {
			return nil, fmt.Errorf("failed to scan grouped history row: %w", err)
		}
		result.Groups = append(result.Groups, group)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating grouped history rows: %w", err)
	}

	return result, nil
}

package dto

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// SuccessResponse acknowledges a delete
type SuccessResponse struct {
	Success bool `json:"success"`
}

// ImportResponse reports how many occurrences an ICS import stored
type ImportResponse struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// HistoryGroupData represents hours for a single category or day
type HistoryGroupData struct {
	GroupValue string  `json:"group_value"`
	Hours      float64 `json:"hours"`
	Events     uint64  `json:"events"`
}

// GetHistoryResponse represents the long-range analytics response
type GetHistoryResponse struct {
	From        int64              `json:"from"`
	To          int64              `json:"to"`
	TotalHours  float64            `json:"total_hours"`
	EventsCount uint64             `json:"events_count"`
	GroupBy     string             `json:"group_by,omitempty"`
	Groups      []HistoryGroupData `json:"groups,omitempty"`
}

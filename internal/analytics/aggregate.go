package analytics

import (
	"bytes"
	"encoding/json"
	"math"
	"time"

	"github.com/kevinhe012597/calendar-analytics/internal/domain"
)

// NoActiveDay is reported as the most productive day when there are no events
const NoActiveDay = "N/A"

// Window describes the period a snapshot covers. Since is the lower bound the
// event store was queried with; Aggregate does not re-filter on it.
type Window struct {
	Since    time.Time
	Location *time.Location
}

// CategoryHours is one slice of the time allocation chart
type CategoryHours struct {
	Category domain.Category `json:"category"`
	Hours    float64         `json:"hours"`
	Color    string          `json:"color"`
}

// TrendPoint holds per-category hours for one weekday. Categories with no
// time that day are absent, not zero.
type TrendPoint struct {
	Date  string                      `json:"date"`
	Hours map[domain.Category]float64 `json:"-"`
	order []domain.Category
}

// MarshalJSON flattens the point into {"date": ..., "<category>": hours, ...}
func (p TrendPoint) MarshalJSON() ([]byte, error) {
	order := p.order
	if order == nil {
		for _, c := range domain.Categories {
			if _, ok := p.Hours[c]; ok {
				order = append(order, c)
			}
		}
	}

	var buf bytes.Buffer
	buf.WriteString(`{"date":`)
	date, err := json.Marshal(p.Date)
	if err != nil {
		return nil, err
	}
	buf.Write(date)

	for _, c := range order {
		hours, err := json.Marshal(p.Hours[c])
		if err != nil {
			return nil, err
		}
		buf.WriteString(`,"` + string(c) + `":`)
		buf.Write(hours)
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// Metrics are the summary cards of a snapshot
type Metrics struct {
	TotalHours        float64 `json:"totalHours"`
	EventsCount       int     `json:"eventsCount"`
	MostProductiveDay string  `json:"mostProductiveDay"`
}

// Snapshot is the aggregated analytics payload consumed by the dashboard
type Snapshot struct {
	TimeAllocation []CategoryHours `json:"timeAllocation"`
	Trends         []TrendPoint    `json:"trends"`
	Metrics        Metrics         `json:"metrics"`
}

type dayTotals struct {
	day    string
	totals map[domain.Category]float64
	order  []domain.Category
}

// Aggregate computes per-category and per-weekday hour totals for events.
// Durations are not validated: inverted ranges contribute negative hours.
// Categories and days are reported in the order they are first seen.
func Aggregate(events []domain.CalendarEvent, w Window) Snapshot {
	loc := w.Location
	if loc == nil {
		loc = time.Local
	}

	categoryTotals := make(map[domain.Category]float64)
	var categoryOrder []domain.Category

	dailyIndex := make(map[string]int)
	var daily []*dayTotals

	for i := range events {
		event := &events[i]

		category, _ := domain.ParseCategory(string(event.Category))
		hours := event.Duration().Hours()
		day := event.StartTime.In(loc).Format("Mon")

		if _, seen := categoryTotals[category]; !seen {
			categoryOrder = append(categoryOrder, category)
		}
		categoryTotals[category] += hours

		idx, seen := dailyIndex[day]
		if !seen {
			idx = len(daily)
			dailyIndex[day] = idx
			daily = append(daily, &dayTotals{day: day, totals: make(map[domain.Category]float64)})
		}
		d := daily[idx]
		if _, seen := d.totals[category]; !seen {
			d.order = append(d.order, category)
		}
		d.totals[category] += hours
	}

	snapshot := Snapshot{
		TimeAllocation: make([]CategoryHours, 0, len(categoryOrder)),
		Trends:         make([]TrendPoint, 0, len(daily)),
		Metrics: Metrics{
			EventsCount:       len(events),
			MostProductiveDay: NoActiveDay,
		},
	}

	var totalHours float64
	for _, category := range categoryOrder {
		total := categoryTotals[category]
		totalHours += total
		snapshot.TimeAllocation = append(snapshot.TimeAllocation, CategoryHours{
			Category: category,
			Hours:    RoundHours(total),
			Color:    category.Color(),
		})
	}
	snapshot.Metrics.TotalHours = RoundHours(totalHours)

	bestTotal := math.Inf(-1)
	for _, d := range daily {
		point := TrendPoint{
			Date:  d.day,
			Hours: make(map[domain.Category]float64, len(d.totals)),
			order: d.order,
		}

		var dayTotal float64
		for _, category := range d.order {
			dayTotal += d.totals[category]
			point.Hours[category] = RoundHours(d.totals[category])
		}
		snapshot.Trends = append(snapshot.Trends, point)

		if dayTotal > bestTotal {
			bestTotal = dayTotal
			snapshot.Metrics.MostProductiveDay = d.day
		}
	}

	return snapshot
}

// RoundHours rounds half-up to one decimal place
func RoundHours(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}

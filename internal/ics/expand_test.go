package ics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func utc(day, hour int) time.Time {
	return time.Date(2025, time.January, day, hour, 0, 0, 0, time.UTC)
}

func starts(occurrences []Occurrence) []string {
	out := make([]string, len(occurrences))
	for i, o := range occurrences {
		out[i] = o.Start.UTC().Format(time.RFC3339)
	}
	return out
}

func TestExpand_SingleEvents(t *testing.T) {
	events := []Event{
		{UID: "inside", Start: utc(6, 9), End: utc(6, 10)},
		{UID: "before", Start: utc(1, 9), End: utc(1, 10)},
		{UID: "cancelled", Start: utc(7, 9), End: utc(7, 10), Cancelled: true},
	}

	occurrences, skipped := Expand(events, utc(5, 0), utc(12, 0), 0)

	assert.Equal(t, 0, skipped)
	require.Len(t, occurrences, 1)
	assert.Equal(t, "inside", occurrences[0].Event.UID)
	assert.Equal(t, time.Hour, occurrences[0].End.Sub(occurrences[0].Start))
	assert.True(t, occurrences[0].OriginalStart.Equal(utc(6, 9)))
}

func TestExpand_WeeklyRule(t *testing.T) {
	events := []Event{{
		UID:   "weekly",
		Start: utc(6, 9),
		End:   utc(6, 10),
		RRule: "FREQ=WEEKLY;COUNT=4",
	}}

	occurrences, skipped := Expand(events, utc(1, 0), utc(31, 0), 0)

	assert.Equal(t, 0, skipped)
	require.Len(t, occurrences, 4)
	for i, start := range []time.Time{utc(6, 9), utc(13, 9), utc(20, 9), utc(27, 9)} {
		assert.True(t, occurrences[i].Start.Equal(start), "occurrence %d", i)
		assert.Equal(t, time.Hour, occurrences[i].End.Sub(occurrences[i].Start))
	}
}

func TestExpand_WindowClipsSeries(t *testing.T) {
	events := []Event{{
		UID:   "daily",
		Start: utc(1, 8),
		End:   utc(1, 9),
		RRule: "FREQ=DAILY",
	}}

	occurrences, _ := Expand(events, utc(10, 0), utc(12, 23), 0)

	assert.Len(t, occurrences, 3)
	assert.True(t, occurrences[0].Start.Equal(utc(10, 8)))
}

func TestExpand_ExDatesAndOverrides(t *testing.T) {
	events := []Event{
		{
			UID:     "weekly",
			Summary: "Gym",
			Start:   utc(6, 9),
			End:     utc(6, 10),
			RRule:   "FREQ=WEEKLY;COUNT=4",
			ExDates: []time.Time{utc(13, 9)},
		},
		{
			UID:          "weekly",
			Summary:      "Gym (evening)",
			Start:        utc(20, 18),
			End:          utc(20, 20),
			RecurrenceID: utc(20, 9),
		},
		{
			UID:          "weekly",
			Start:        utc(27, 9),
			End:          utc(27, 10),
			RecurrenceID: utc(27, 9),
			Cancelled:    true,
		},
	}

	occurrences, skipped := Expand(events, utc(1, 0), utc(31, 0), 0)

	assert.Equal(t, 0, skipped)
	assert.Equal(t, []string{"2025-01-06T09:00:00Z", "2025-01-20T18:00:00Z"}, starts(occurrences))

	moved := occurrences[1]
	assert.Equal(t, "Gym (evening)", moved.Event.Summary)
	assert.True(t, moved.OriginalStart.Equal(utc(20, 9)))
	assert.Equal(t, 2*time.Hour, moved.End.Sub(moved.Start))
}

func TestExpand_InvalidRule(t *testing.T) {
	events := []Event{
		{UID: "broken", Start: utc(6, 9), End: utc(6, 10), RRule: "FREQ=SOMETIMES"},
		{UID: "fine", Start: utc(6, 11), End: utc(6, 12)},
	}

	occurrences, skipped := Expand(events, utc(1, 0), utc(31, 0), 0)

	assert.Equal(t, 1, skipped)
	require.Len(t, occurrences, 1)
	assert.Equal(t, "fine", occurrences[0].Event.UID)
}

func TestExpand_CapsOccurrencesPerSeries(t *testing.T) {
	events := []Event{
		{UID: "tick", Start: utc(6, 0), End: utc(6, 0).Add(time.Second), RRule: "FREQ=SECONDLY"},
		{UID: "fine", Start: utc(6, 11), End: utc(6, 12)},
	}

	occurrences, skipped := Expand(events, utc(1, 0), utc(31, 0), 25)

	assert.Equal(t, 1, skipped)
	require.Len(t, occurrences, 26)
	assert.True(t, occurrences[24].Start.Equal(utc(6, 0).Add(24*time.Second)))
	assert.Equal(t, "fine", occurrences[25].Event.UID)
}

func TestExpand_StopsWalkingLongRules(t *testing.T) {
	// The window opens millions of instances into this rule
	events := []Event{{
		UID:   "tick",
		Start: time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, time.December, 1, 0, 0, 1, 0, time.UTC),
		RRule: "FREQ=SECONDLY",
	}}

	occurrences, skipped := Expand(events, utc(1, 0), utc(31, 0), 0)

	assert.Empty(t, occurrences)
	assert.Equal(t, 1, skipped)
}

func TestExpand_DefaultCap(t *testing.T) {
	events := []Event{{UID: "tick", Start: utc(6, 0), End: utc(6, 0).Add(time.Second), RRule: "FREQ=SECONDLY"}}

	occurrences, skipped := Expand(events, utc(6, 0), utc(7, 0), 0)

	assert.Equal(t, 1, skipped)
	assert.Len(t, occurrences, defaultMaxOccurrencesPerEvent)
}

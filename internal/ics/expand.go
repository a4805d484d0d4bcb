package ics

import (
	"fmt"
	"sort"
	"time"

	"github.com/teambition/rrule-go"
)

const (
	defaultMaxOccurrencesPerEvent = 1000

	// maxRuleIterations bounds how many instances of one rule are walked,
	// including those before the window
	maxRuleIterations = 100000
)

// Occurrence is one concrete instance of an Event
type Occurrence struct {
	Event *Event
	Start time.Time
	End   time.Time

	// OriginalStart identifies the instance within its series. It equals
	// Start unless an override moved the instance.
	OriginalStart time.Time
}

// Expand returns the occurrences of events that start within [from, to].
// Recurring events are expanded with their RRULE and EXDATEs, overrides
// replace the instance named by their RECURRENCE-ID and cancelled events
// or instances are left out. A series yields at most maxPerEvent instances
// (defaultMaxOccurrencesPerEvent when zero). skipped counts events whose
// recurrence rule could not be interpreted plus series cut at the cap.
func Expand(events []Event, from, to time.Time, maxPerEvent int) (occurrences []Occurrence, skipped int) {
	if maxPerEvent <= 0 {
		maxPerEvent = defaultMaxOccurrencesPerEvent
	}

	overrides := make(map[string][]*Event)
	for i := range events {
		if events[i].IsOverride() {
			overrides[events[i].UID] = append(overrides[events[i].UID], &events[i])
		}
	}

	for i := range events {
		event := &events[i]
		if event.IsOverride() || event.Cancelled {
			continue
		}

		if event.RRule == "" {
			if inRange(event.Start, from, to) {
				occurrences = append(occurrences, Occurrence{
					Event:         event,
					Start:         event.Start,
					End:           event.End,
					OriginalStart: event.Start,
				})
			}
			continue
		}

		starts, truncated, err := expandRule(event, overrides[event.UID], from, to, maxPerEvent)
		if err != nil {
			skipped++
			continue
		}
		if truncated {
			skipped++
		}

		duration := event.End.Sub(event.Start)
		for _, start := range starts {
			occurrences = append(occurrences, Occurrence{
				Event:         event,
				Start:         start,
				End:           start.Add(duration),
				OriginalStart: start,
			})
		}
	}

	for _, list := range overrides {
		for _, override := range list {
			if override.Cancelled || !inRange(override.Start, from, to) {
				continue
			}
			occurrences = append(occurrences, Occurrence{
				Event:         override,
				Start:         override.Start,
				End:           override.End,
				OriginalStart: override.RecurrenceID,
			})
		}
	}

	sort.SliceStable(occurrences, func(i, j int) bool {
		return occurrences[i].Start.Before(occurrences[j].Start)
	})
	return occurrences, skipped
}

// expandRule lists the instance starts of a recurring event inside the
// window. Instances replaced by an override are excluded. truncated reports
// that the series was cut at limit or at maxRuleIterations.
func expandRule(event *Event, overrides []*Event, from, to time.Time, limit int) (starts []time.Time, truncated bool, err error) {
	rule, err := rrule.StrToRRule(event.RRule)
	if err != nil {
		return nil, false, fmt.Errorf("invalid RRULE %q: %w", event.RRule, err)
	}
	rule.DTStart(event.Start)

	var set rrule.Set
	set.RRule(rule)
	for _, exdate := range event.ExDates {
		set.ExDate(exdate)
	}
	for _, override := range overrides {
		set.ExDate(override.RecurrenceID)
	}

	next := set.Iterator()
	for i := 0; ; i++ {
		start, ok := next()
		if !ok || start.After(to) {
			return starts, false, nil
		}
		if i >= maxRuleIterations || len(starts) >= limit {
			return starts, true, nil
		}
		if !start.Before(from) {
			starts = append(starts, start)
		}
	}
}

func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}

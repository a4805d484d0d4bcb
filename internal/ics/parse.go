package ics

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
)

// Event is a VEVENT reduced to the fields the importer needs.
// Recurrences are kept unexpanded.
type Event struct {
	UID         string
	Summary     string
	Description string
	Location    string

	Start  time.Time
	End    time.Time
	AllDay bool

	Cancelled bool

	RRule   string
	ExDates []time.Time

	// RecurrenceID is set on overrides of a single recurring instance
	RecurrenceID time.Time
}

// IsOverride reports whether the event replaces one instance of a series
func (e *Event) IsOverride() bool {
	return !e.RecurrenceID.IsZero()
}

// Parse reads an ICS calendar. VEVENTs that cannot be interpreted are
// dropped and counted in skipped.
func Parse(r io.Reader) (events []Event, skipped int, err error) {
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse calendar: %w", err)
	}

	for _, ve := range cal.Events() {
		event, err := parseVEvent(ve)
		if err != nil {
			skipped++
			continue
		}
		events = append(events, event)
	}

	return events, skipped, nil
}

func parseVEvent(ve *ical.VEvent) (Event, error) {
	var out Event

	out.UID = propertyValue(ve, ical.ComponentPropertyUniqueId)
	if out.UID == "" {
		return out, errors.New("missing UID")
	}

	out.Summary = propertyValue(ve, ical.ComponentPropertySummary)
	out.Description = propertyValue(ve, ical.ComponentPropertyDescription)
	out.Location = propertyValue(ve, ical.ComponentPropertyLocation)
	out.Cancelled = strings.EqualFold(propertyValue(ve, ical.ComponentPropertyStatus), "CANCELLED")

	start, err := ve.GetStartAt()
	if err != nil {
		return out, fmt.Errorf("invalid DTSTART: %w", err)
	}
	out.Start = start
	out.AllDay = isDateValue(ve.GetProperty(ical.ComponentPropertyDtStart))

	out.End, err = eventEnd(ve, out.Start, out.AllDay)
	if err != nil {
		return out, err
	}

	out.RRule = propertyValue(ve, ical.ComponentPropertyRrule)

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			if t, err := parseTime(part, p.ICalParameters); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertyRecurrenceId); p != nil {
		t, err := parseTime(p.Value, p.ICalParameters)
		if err != nil {
			return out, fmt.Errorf("invalid RECURRENCE-ID: %w", err)
		}
		out.RecurrenceID = t
	}

	return out, nil
}

// eventEnd resolves DTEND, falling back to DURATION and then to the
// RFC 5545 defaults of one day for dates and zero length for date-times
func eventEnd(ve *ical.VEvent, start time.Time, allDay bool) (time.Time, error) {
	if ve.GetProperty(ical.ComponentPropertyDtEnd) != nil {
		end, err := ve.GetEndAt()
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid DTEND: %w", err)
		}
		return end, nil
	}

	if raw := propertyValue(ve, ical.ComponentPropertyDuration); raw != "" {
		d, err := parseDuration(raw)
		if err != nil {
			return time.Time{}, err
		}
		return start.Add(d), nil
	}

	if allDay {
		return start.AddDate(0, 0, 1), nil
	}
	return start, nil
}

func propertyValue(ve *ical.VEvent, property ical.ComponentProperty) string {
	p := ve.GetProperty(property)
	if p == nil {
		return ""
	}
	return strings.TrimSpace(p.Value)
}

func isDateValue(p *ical.IANAProperty) bool {
	if p == nil {
		return false
	}
	if values, ok := p.ICalParameters["VALUE"]; ok && len(values) > 0 && strings.EqualFold(values[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

// parseTime parses DATE and DATE-TIME values, honouring a TZID parameter.
// Floating values are read in the local zone.
func parseTime(value string, params map[string][]string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("empty time value")
	}

	loc := time.Local
	if tzid, ok := params["TZID"]; ok && len(tzid) > 0 {
		l, err := time.LoadLocation(tzid[0])
		if err != nil {
			return time.Time{}, fmt.Errorf("unknown TZID %q: %w", tzid[0], err)
		}
		loc = l
	}

	switch {
	case strings.HasSuffix(value, "Z"):
		return time.Parse("20060102T150405Z", value)
	case strings.Contains(value, "T"):
		return time.ParseInLocation("20060102T150405", value, loc)
	default:
		return time.ParseInLocation("20060102", value, loc)
	}
}

var durationPattern = regexp.MustCompile(`^([+-])?P(?:(\d+)W)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// parseDuration parses an RFC 5545 DURATION value such as PT1H30M or P1D
func parseDuration(value string) (time.Duration, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	m := durationPattern.FindStringSubmatch(normalized)
	if m == nil || strings.HasSuffix(normalized, "P") || strings.HasSuffix(normalized, "T") {
		return 0, fmt.Errorf("invalid DURATION %q", value)
	}

	units := []time.Duration{7 * 24 * time.Hour, 24 * time.Hour, time.Hour, time.Minute, time.Second}
	var d time.Duration
	for i, unit := range units {
		if m[i+2] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+2])
		if err != nil {
			return 0, fmt.Errorf("invalid DURATION %q: %w", value, err)
		}
		d += time.Duration(n) * unit
	}

	if m[1] == "-" {
		d = -d
	}
	return d, nil
}

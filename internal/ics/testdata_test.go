package ics

import "strings"

// calendarFeed wraps VEVENT lines into a CRLF-delimited VCALENDAR
func calendarFeed(lines ...string) string {
	all := append([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//calendar-analytics//test//EN",
	}, lines...)
	all = append(all, "END:VCALENDAR")
	return strings.Join(all, "\r\n") + "\r\n"
}

func vevent(props ...string) []string {
	out := append([]string{"BEGIN:VEVENT"}, props...)
	return append(out, "END:VEVENT")
}

func feed(events ...[]string) string {
	var lines []string
	for _, e := range events {
		lines = append(lines, e...)
	}
	return calendarFeed(lines...)
}

// Package calendar renders event schedules as iCalendar feeds.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/around-the-grounds/internal/event"
	"github.com/pfrederiksen/around-the-grounds/internal/tz"
)

const (
	prodID    = "-//Around the Grounds//around-the-grounds//EN"
	uidDomain = "around-the-grounds"

	// defaultDuration applies to events with a start but no end time.
	defaultDuration = time.Hour

	maxLineOctets = 75
)

// vtimezone describes the reference zone with its current US DST rules.
const vtimezone = "BEGIN:VTIMEZONE\r\n" +
	"TZID:" + tz.ReferenceZone + "\r\n" +
	"BEGIN:DAYLIGHT\r\n" +
	"TZOFFSETFROM:-0800\r\n" +
	"TZOFFSETTO:-0700\r\n" +
	"TZNAME:PDT\r\n" +
	"DTSTART:19700308T020000\r\n" +
	"RRULE:FREQ=YEARLY;BYMONTH=3;BYDAY=2SU\r\n" +
	"END:DAYLIGHT\r\n" +
	"BEGIN:STANDARD\r\n" +
	"TZOFFSETFROM:-0700\r\n" +
	"TZOFFSETTO:-0800\r\n" +
	"TZNAME:PST\r\n" +
	"DTSTART:19701101T020000\r\n" +
	"RRULE:FREQ=YEARLY;BYMONTH=11;BYDAY=1SU\r\n" +
	"END:STANDARD\r\n" +
	"END:VTIMEZONE\r\n"

// Options controls feed-level properties.
type Options struct {
	Name string    // X-WR-CALNAME
	URL  string    // attached to every event when set
	Now  time.Time // DTSTAMP; zero means time.Now
}

// GenerateICS generates an iCalendar feed holding every event.
// Timed events are pinned to the reference zone; events without a start
// time become all-day entries.
func GenerateICS(events []*event.Event, opts Options) string {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	var ics strings.Builder
	ics.WriteString("BEGIN:VCALENDAR\r\n")
	ics.WriteString("VERSION:2.0\r\n")
	ics.WriteString("PRODID:" + prodID + "\r\n")
	ics.WriteString("CALSCALE:GREGORIAN\r\n")
	ics.WriteString("METHOD:PUBLISH\r\n")
	if opts.Name != "" {
		writeLine(&ics, "X-WR-CALNAME:"+escapeICS(opts.Name))
	}
	ics.WriteString("X-WR-TIMEZONE:" + tz.ReferenceZone + "\r\n")
	ics.WriteString(vtimezone)

	for _, evt := range events {
		writeEvent(&ics, evt, opts.URL, now)
	}

	ics.WriteString("END:VCALENDAR\r\n")
	return ics.String()
}

func writeEvent(ics *strings.Builder, evt *event.Event, url string, now time.Time) {
	ics.WriteString("BEGIN:VEVENT\r\n")
	writeLine(ics, fmt.Sprintf("UID:%s@%s", evt.ID, uidDomain))
	ics.WriteString(fmt.Sprintf("DTSTAMP:%s\r\n", formatICSTime(now)))

	if evt.StartTime != nil {
		end := evt.StartTime.Add(defaultDuration)
		if evt.EndTime != nil && evt.EndTime.After(*evt.StartTime) {
			end = *evt.EndTime
		}
		ics.WriteString(fmt.Sprintf("DTSTART;TZID=%s:%s\r\n", tz.ReferenceZone, formatLocal(*evt.StartTime)))
		ics.WriteString(fmt.Sprintf("DTEND;TZID=%s:%s\r\n", tz.ReferenceZone, formatLocal(end)))
	} else {
		ics.WriteString(fmt.Sprintf("DTSTART;VALUE=DATE:%s\r\n", evt.Date.Format("20060102")))
		ics.WriteString(fmt.Sprintf("DTEND;VALUE=DATE:%s\r\n", evt.Date.AddDate(0, 0, 1).Format("20060102")))
	}

	writeLine(ics, "SUMMARY:"+escapeICS(fmt.Sprintf("%s @ %s", evt.Name, evt.SourceName)))
	if evt.Description != "" {
		writeLine(ics, "DESCRIPTION:"+escapeICS(evt.Description))
	}
	writeLine(ics, "LOCATION:"+escapeICS(evt.SourceName))
	if url != "" {
		writeLine(ics, "URL:"+url)
	}

	ics.WriteString("STATUS:CONFIRMED\r\n")
	ics.WriteString("TRANSP:TRANSPARENT\r\n")
	ics.WriteString("END:VEVENT\r\n")
}

// formatICSTime formats a time.Time as an iCalendar UTC datetime string
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// formatLocal formats a naive reference wall clock for a TZID property.
func formatLocal(t time.Time) string {
	return t.Format("20060102T150405")
}

// escapeICS escapes special characters for iCalendar format
func escapeICS(s string) string {
	// RFC 5545 section 3.3.11
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\r\n", "\\n")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}

// writeLine writes a content line folded at 75 octets without splitting a
// UTF-8 sequence.
func writeLine(ics *strings.Builder, line string) {
	limit := maxLineOctets
	for len(line) > limit {
		cut := limit
		for cut > 0 && !isRuneStart(line[cut]) {
			cut--
		}
		ics.WriteString(line[:cut])
		ics.WriteString("\r\n ")
		line = line[cut:]
		// continuation lines lose one octet to the leading space
		limit = maxLineOctets - 1
	}
	ics.WriteString(line)
	ics.WriteString("\r\n")
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

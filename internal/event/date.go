package event

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pfrederiksen/around-the-grounds/internal/tz"
)

var months = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

// MonthFromName converts a month name or abbreviation to time.Month (0 if unknown).
func MonthFromName(name string) time.Month {
	return months[strings.ToLower(strings.TrimSpace(name))]
}

// YearForMonth returns the year a month-only reference most likely means:
// the current reference year, or next year if that month has already passed.
func YearForMonth(month time.Month) int {
	year := tz.Year()
	if month < tz.Month() {
		year++
	}
	return year
}

// MonthDay builds a naive date for a yearless month/day using YearForMonth.
func MonthDay(month time.Month, day int) (time.Time, error) {
	return tz.BuildDate(YearForMonth(month), month, day)
}

// NextOccurrence returns month/day in the current reference year, or next year
// when that date is already before today.
func NextOccurrence(month time.Month, day int) (time.Time, error) {
	d, err := tz.BuildDate(tz.Year(), month, day)
	if err == nil && !d.Before(tz.Today()) {
		return d, nil
	}
	return tz.BuildDate(tz.Year()+1, month, day)
}

var (
	dotDatePattern   = regexp.MustCompile(`(\d{1,2})\.(\d{1,2})`)
	slashDatePattern = regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{4})`)
	dashDatePattern  = regexp.MustCompile(`(\d{1,2})-(\d{1,2})-(\d{4})`)
	monthDayPattern  = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+(\d{1,2})\b`)
)

// ParseDateText attempts to find a date in free text.
// Returns time.Time{} (zero value) if nothing parses.
// Supports formats: "7.4", "07/04/2026", "07-04-2026", "Jul 4", "July 4"
func ParseDateText(text string) time.Time {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}
	}

	// Full dates are tried before the bare M.D pattern so "07/04/2026" is not misread
	for _, p := range []*regexp.Regexp{slashDatePattern, dashDatePattern} {
		if m := p.FindStringSubmatch(text); m != nil {
			month, _ := strconv.Atoi(m[1])
			day, _ := strconv.Atoi(m[2])
			year, _ := strconv.Atoi(m[3])
			if d, err := tz.BuildDate(year, time.Month(month), day); err == nil {
				return d
			}
		}
	}

	if m := dotDatePattern.FindStringSubmatch(text); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		if d, err := NextOccurrence(time.Month(month), day); err == nil {
			return d
		}
	}

	if m := monthDayPattern.FindStringSubmatch(text); m != nil {
		day, _ := strconv.Atoi(m[2])
		if d, err := NextOccurrence(MonthFromName(m[1]), day); err == nil {
			return d
		}
	}

	return time.Time{}
}

var (
	clock24Pattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
	clock12Pattern = regexp.MustCompile(`(?i)(\d{1,2})(?::(\d{2}))?\s*(am|pm)`)
	rangePattern   = regexp.MustCompile(`(?i)(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\s*(?:—|–|-|to)\s*(\d{1,2})(?::(\d{2}))?\s*(am|pm)`)
)

// ParseClock parses "13:00", "1:00 pm" or "1pm" into hour and minute.
func ParseClock(s string) (hour, minute int, ok bool) {
	s = strings.TrimSpace(s)
	if m := clock24Pattern.FindStringSubmatch(s); m != nil {
		hour, _ = strconv.Atoi(m[1])
		minute, _ = strconv.Atoi(m[2])
		return hour, minute, validClock(hour, minute)
	}
	if m := clock12Pattern.FindStringSubmatch(s); m != nil {
		hour, _ = strconv.Atoi(m[1])
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if hour < 1 || hour > 12 {
			return 0, 0, false
		}
		hour = to24(hour, m[3])
		return hour, minute, validClock(hour, minute)
	}
	return 0, 0, false
}

// ParseTimeRange parses ranges like "1 — 8pm" or "12:30 - 9:00pm" and returns start
// and end on the given naive date. A missing start meridiem borrows the end's.
func ParseTimeRange(text string, date time.Time) (start, end *time.Time, ok bool) {
	m := rangePattern.FindStringSubmatch(text)
	if m == nil {
		return nil, nil, false
	}

	startHour, _ := strconv.Atoi(m[1])
	startMin := 0
	if m[2] != "" {
		startMin, _ = strconv.Atoi(m[2])
	}
	endHour, _ := strconv.Atoi(m[4])
	endMin := 0
	if m[5] != "" {
		endMin, _ = strconv.Atoi(m[5])
	}

	startPeriod := m[3]
	if startPeriod == "" {
		startPeriod = m[6]
	}
	startHour = to24(startHour, startPeriod)
	endHour = to24(endHour, m[6])
	if !validClock(startHour, startMin) || !validClock(endHour, endMin) {
		return nil, nil, false
	}

	s := AtClock(date, startHour, startMin)
	e := AtClock(date, endHour, endMin)
	return &s, &e, true
}

// AtClock returns the naive timestamp hour:minute on date's calendar day.
func AtClock(date time.Time, hour, minute int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, time.UTC)
}

func to24(hour int, period string) int {
	switch strings.ToLower(period) {
	case "pm":
		if hour != 12 {
			return hour + 12
		}
	case "am":
		if hour == 12 {
			return 0
		}
	}
	return hour
}

func validClock(hour, minute int) bool {
	return hour >= 0 && hour <= 23 && minute >= 0 && minute <= 59
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
}

// ParseISO parses an ISO 8601 timestamp into a naive reference-zone time.
// Timestamps with an offset are converted; ones without are taken as already local.
func ParseISO(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for i, layout := range isoLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if i == 0 {
			return tz.ToReferenceNaive(t), true
		}
		return t, true
	}
	return time.Time{}, false
}

package filter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pfrederiksen/around-the-grounds/internal/event"
	"github.com/pfrederiksen/around-the-grounds/internal/tz"
)

const monthPattern = `(jan|january|feb|february|mar|march|apr|april|may|jun|june|jul|july|aug|august|sep|sept|september|oct|october|nov|november|dec|december)`

var (
	sameMonthRange  = regexp.MustCompile(`(?i)^` + monthPattern + `\s+(\d{1,2})\s*-\s*(\d{1,2})$`)
	crossMonthRange = regexp.MustCompile(`(?i)^` + monthPattern + `\s+(\d{1,2})\s*-\s*` + monthPattern + `\s+(\d{1,2})$`)
	wholeMonth      = regexp.MustCompile(`(?i)^` + monthPattern + `$`)
	isoRange        = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})\s*(?:\.\.|to)\s*(\d{4}-\d{2}-\d{2})$`)
)

// ParseDateRange parses a date range string into inclusive start and end dates.
//
// Supported formats:
//   - "Mar 1-15" or "March 1-15" - Same month, different days
//   - "March 1 - April 15" - Different months
//   - "March" - Entire month
//   - "2026-07-16..2026-07-20" or "2026-07-16 to 2026-07-20" - Explicit dates
//
// Yearless months resolve to the current reference year, or next year if the
// month has passed. A cross-month range whose end month precedes its start
// rolls into the following year. Results are naive midnights.
func ParseDateRange(input string) (*time.Time, *time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil, fmt.Errorf("date range cannot be empty")
	}

	if m := isoRange.FindStringSubmatch(input); m != nil {
		from, err := time.Parse("2006-01-02", m[1])
		if err != nil {
			return nil, nil, fmt.Errorf("invalid date: %s", m[1])
		}
		to, err := time.Parse("2006-01-02", m[2])
		if err != nil {
			return nil, nil, fmt.Errorf("invalid date: %s", m[2])
		}
		return ordered(from, to)
	}

	if m := sameMonthRange.FindStringSubmatch(input); m != nil {
		month := event.MonthFromName(m[1])
		year := event.YearForMonth(month)
		from, err := buildDay(year, month, m[2])
		if err != nil {
			return nil, nil, err
		}
		to, err := buildDay(year, month, m[3])
		if err != nil {
			return nil, nil, err
		}
		return ordered(from, to)
	}

	if m := crossMonthRange.FindStringSubmatch(input); m != nil {
		month1 := event.MonthFromName(m[1])
		month2 := event.MonthFromName(m[3])
		year1 := event.YearForMonth(month1)
		year2 := year1
		if month2 < month1 {
			year2++
		}
		from, err := buildDay(year1, month1, m[2])
		if err != nil {
			return nil, nil, err
		}
		to, err := buildDay(year2, month2, m[4])
		if err != nil {
			return nil, nil, err
		}
		return ordered(from, to)
	}

	if m := wholeMonth.FindStringSubmatch(input); m != nil {
		month := event.MonthFromName(m[1])
		year := event.YearForMonth(month)
		from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		// day 0 of the next month is the last day of this one
		to := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
		return &from, &to, nil
	}

	return nil, nil, fmt.Errorf("invalid date range format. Use 'Mar 1-15', 'March 1 - April 15', 'March', or '2026-07-16..2026-07-20'")
}

func buildDay(year int, month time.Month, day string) (time.Time, error) {
	d, err := strconv.Atoi(day)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day: %s", day)
	}
	t, err := tz.BuildDate(year, month, d)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day: %s", day)
	}
	return t, nil
}

func ordered(from, to time.Time) (*time.Time, *time.Time, error) {
	if from.After(to) {
		return nil, nil, fmt.Errorf("start date must be before end date")
	}
	return &from, &to, nil
}

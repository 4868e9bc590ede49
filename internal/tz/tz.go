package tz

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // hosts without a zoneinfo database still resolve the reference zone
)

// ReferenceZone is the IANA name of the reference timezone.
const ReferenceZone = "America/Los_Angeles"

// ErrInvalidDate is returned by BuildDate when the components do not name a real day.
var ErrInvalidDate = errors.New("invalid date")

// Reference is the loaded reference location, including its DST rules.
var Reference = mustLoad(ReferenceZone)

// now is swapped in tests.
var now = time.Now

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("tz: loading %s: %v", name, err))
	}
	return loc
}

// Now returns the current instant expressed in the reference zone.
func Now() time.Time {
	return now().In(Reference)
}

// NowNaive returns the current reference wall clock with the zone stripped.
func NowNaive() time.Time {
	return Strip(Now())
}

// Strip keeps t's wall clock and drops its zone.
func Strip(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// ToReferenceNaive converts an absolute instant into the reference zone and strips the zone.
// A time.Time in time.UTC is treated as a UTC instant.
func ToReferenceNaive(t time.Time) time.Time {
	return Strip(t.In(Reference))
}

// Localize reinterprets a naive reference wall clock as an instant in the reference zone.
func Localize(naive time.Time) time.Time {
	return time.Date(naive.Year(), naive.Month(), naive.Day(), naive.Hour(), naive.Minute(), naive.Second(), naive.Nanosecond(), Reference)
}

// Year returns the current year in the reference zone.
func Year() int { return Now().Year() }

// Month returns the current month in the reference zone.
func Month() time.Month { return Now().Month() }

// Day returns the current day of month in the reference zone.
func Day() int { return Now().Day() }

// Today returns the current reference date as a naive midnight.
func Today() time.Time {
	return DateOf(NowNaive())
}

// DateOf truncates a naive timestamp to its calendar date.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// BuildDate constructs a naive date. Zero components default to the current
// reference-zone value.
func BuildDate(year int, month time.Month, day int) (time.Time, error) {
	current := NowNaive()
	if year == 0 {
		year = current.Year()
	}
	if month == 0 {
		month = current.Month()
	}
	if day == 0 {
		day = current.Day()
	}
	if month < time.January || month > time.December || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidDate, year, int(month), day)
	}

	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes Feb 30 into March
	if d.Month() != month || d.Day() != day {
		return time.Time{}, fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidDate, year, int(month), day)
	}
	return d, nil
}

// IsDSTTransitionDate reports whether the reference UTC offset changes during the given day.
func IsDSTTransitionDate(date time.Time) bool {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, Reference)
	end := time.Date(date.Year(), date.Month(), date.Day(), 23, 59, 59, 0, Reference)
	_, startOffset := start.Zone()
	_, endOffset := end.Zone()
	return startOffset != endOffset
}

// FormatClock renders a naive reference time like "2:00 PM PT".
func FormatClock(t time.Time, withZone bool) string {
	s := t.Format("3:04 PM")
	if withZone {
		// PT covers both PST and PDT
		s += " PT"
	}
	return strings.TrimSpace(s)
}

package event

import (
	"sort"
	"time"

	"github.com/pfrederiksen/around-the-grounds/internal/tz"
)

// InWindow reports whether e falls on a date in [from, from+days], inclusive on both ends.
func (e *Event) InWindow(from time.Time, days int) bool {
	start := tz.DateOf(from)
	end := start.AddDate(0, 0, days)
	d := tz.DateOf(e.Date)
	return !d.Before(start) && !d.After(end)
}

// FilterWindow keeps events dated from today through today+days.
func FilterWindow(events []*Event, today time.Time, days int) []*Event {
	filtered := make([]*Event, 0, len(events))
	for _, evt := range events {
		if evt.InWindow(today, days) {
			filtered = append(filtered, evt)
		}
	}
	return filtered
}

// SortChronologically orders events by date, then start time. Untimed events sort
// at midnight, ahead of timed events on the same date.
func SortChronologically(events []*Event) {
	sort.SliceStable(events, func(i, j int) bool {
		di, dj := tz.DateOf(events[i].Date), tz.DateOf(events[j].Date)
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return events[i].SortTime().Before(events[j].SortTime())
	})
}

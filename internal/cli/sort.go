package cli

import (
	"sort"
	"strings"

	"github.com/pfrederiksen/around-the-grounds/internal/event"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByTime   SortOrder = "time"
	SortBySource SortOrder = "source"
	SortByVendor SortOrder = "vendor"
)

func (o SortOrder) valid() bool {
	switch o {
	case SortByTime, SortBySource, SortByVendor:
		return true
	}
	return false
}

// sortEvents reorders events in place. Ties fall back to chronological order.
func sortEvents(events []*event.Event, sortOrder SortOrder) {
	switch sortOrder {
	case SortByTime:
		event.SortChronologically(events)
	case SortBySource:
		sort.SliceStable(events, func(i, j int) bool {
			a, b := strings.ToLower(events[i].SourceName), strings.ToLower(events[j].SourceName)
			if a != b {
				return a < b
			}
			return compareByTime(events[i], events[j])
		})
	case SortByVendor:
		sort.SliceStable(events, func(i, j int) bool {
			a, b := strings.ToLower(events[i].Name), strings.ToLower(events[j].Name)
			if a != b {
				return a < b
			}
			return compareByTime(events[i], events[j])
		})
	}
}

// compareByTime reports whether i starts before j.
func compareByTime(i, j *event.Event) bool {
	return i.SortTime().Before(j.SortTime())
}

// Package filter narrows an aggregated schedule before it is rendered or announced.
//
// Criteria combine with AND; list criteria match when any entry matches:
//   - Date range (from/to dates, inclusive)
//   - Source keys (exact, case-insensitive)
//   - Vendor names (substring matching, case-insensitive)
//   - Weekends only (Saturday/Sunday)
//   - Hiding unnamed TBD slots
//
// Example usage:
//
//	f := filter.NewFilter()
//	f.WeekendsOnly = true
//	f.Vendors = []string{"momo"}
//	filtered := f.Apply(events)
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/around-the-grounds/internal/event"
	"github.com/pfrederiksen/around-the-grounds/internal/tz"
)

// Filter represents event filtering criteria
type Filter struct {
	// Date range filtering, compared by calendar date
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`

	Sources []string `json:"sources,omitempty"`
	Vendors []string `json:"vendors,omitempty"`

	WeekendsOnly bool `json:"weekends_only,omitempty"`
	HideTBD      bool `json:"hide_tbd,omitempty"`
}

// NewFilter creates a new empty filter with no active criteria.
// The filter will match all events until criteria are added.
func NewFilter() *Filter {
	return &Filter{
		Sources: []string{},
		Vendors: []string{},
	}
}

// IsEmpty checks if the filter has any active criteria.
func (f *Filter) IsEmpty() bool {
	return f.DateFrom == nil &&
		f.DateTo == nil &&
		len(f.Sources) == 0 &&
		len(f.Vendors) == 0 &&
		!f.WeekendsOnly &&
		!f.HideTBD
}

// Matches checks if an event matches all active filter criteria.
// An empty filter matches all events.
func (f *Filter) Matches(evt *event.Event) bool {
	if f.IsEmpty() {
		return true
	}

	day := tz.DateOf(evt.Date)

	if f.DateFrom != nil && day.Before(tz.DateOf(*f.DateFrom)) {
		return false
	}
	if f.DateTo != nil && day.After(tz.DateOf(*f.DateTo)) {
		return false
	}

	if f.WeekendsOnly {
		weekday := day.Weekday()
		if weekday != time.Saturday && weekday != time.Sunday {
			return false
		}
	}

	if f.HideTBD && evt.IsPlaceholder() {
		return false
	}

	if len(f.Sources) > 0 && !anyMatch(f.Sources, func(s string) bool {
		return strings.EqualFold(evt.SourceKey, s)
	}) {
		return false
	}

	if len(f.Vendors) > 0 {
		name := strings.ToLower(evt.Name)
		if !anyMatch(f.Vendors, func(v string) bool {
			return strings.Contains(name, strings.ToLower(v))
		}) {
			return false
		}
	}

	return true
}

func anyMatch(values []string, match func(string) bool) bool {
	for _, v := range values {
		if match(v) {
			return true
		}
	}
	return false
}

// Apply returns the events matching all criteria, preserving order.
// An empty filter returns the original slice unchanged.
func (f *Filter) Apply(events []*event.Event) []*event.Event {
	if f.IsEmpty() {
		return events
	}

	filtered := make([]*event.Event, 0, len(events))
	for _, evt := range events {
		if f.Matches(evt) {
			filtered = append(filtered, evt)
		}
	}
	return filtered
}

// String returns a human-readable description of the active filter criteria.
// Format: "From: Jul 16, 2026 | To: Jul 20, 2026 | Vendors: momo | Weekends only"
func (f *Filter) String() string {
	if f.IsEmpty() {
		return "No active filters"
	}

	var parts []string
	if f.DateFrom != nil {
		parts = append(parts, fmt.Sprintf("From: %s", f.DateFrom.Format("Jan 2, 2006")))
	}
	if f.DateTo != nil {
		parts = append(parts, fmt.Sprintf("To: %s", f.DateTo.Format("Jan 2, 2006")))
	}
	if len(f.Sources) > 0 {
		parts = append(parts, fmt.Sprintf("Sources: %s", strings.Join(f.Sources, ", ")))
	}
	if len(f.Vendors) > 0 {
		parts = append(parts, fmt.Sprintf("Vendors: %s", strings.Join(f.Vendors, ", ")))
	}
	if f.WeekendsOnly {
		parts = append(parts, "Weekends only")
	}
	if f.HideTBD {
		parts = append(parts, "Hide TBD")
	}

	return strings.Join(parts, " | ")
}

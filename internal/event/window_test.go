package event

import (
	"testing"
	"time"
)

func TestInWindow_Boundaries(t *testing.T) {
	today := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		offset int
		want   bool
	}{
		{"yesterday", -1, false},
		{"today", 0, true},
		{"tomorrow", 1, true},
		{"today plus seven", 7, true},
		{"today plus eight", 8, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evt := NewEvent(testSource(), "X", today.AddDate(0, 0, tt.offset))
			if got := evt.InWindow(today, 7); got != tt.want {
				t.Errorf("InWindow(offset %d) = %v, want %v", tt.offset, got, tt.want)
			}
		})
	}
}

func TestFilterWindow(t *testing.T) {
	today := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	events := []*Event{
		NewEvent(testSource(), "past", today.AddDate(0, 0, -1)),
		NewEvent(testSource(), "now", today),
		NewEvent(testSource(), "edge", today.AddDate(0, 0, 7)),
		NewEvent(testSource(), "beyond", today.AddDate(0, 0, 8)),
	}

	got := FilterWindow(events, today, 7)
	if len(got) != 2 {
		t.Fatalf("FilterWindow() returned %d events, want 2", len(got))
	}
	if got[0].Name != "now" || got[1].Name != "edge" {
		t.Errorf("FilterWindow() = [%s %s], want [now edge]", got[0].Name, got[1].Name)
	}
}

func TestSortChronologically(t *testing.T) {
	day1 := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	late := NewEvent(testSource(), "day1-14h", day1)
	lateStart := AtClock(day1, 14, 0)
	late.SetTimes(&lateStart, nil)

	early := NewEvent(testSource(), "day1-11h", day1)
	earlyStart := AtClock(day1, 11, 0)
	early.SetTimes(&earlyStart, nil)

	untimed := NewEvent(testSource(), "day1-untimed", day1)
	next := NewEvent(testSource(), "day2", day2)

	events := []*Event{next, late, untimed, early}
	SortChronologically(events)

	want := []string{"day1-untimed", "day1-11h", "day1-14h", "day2"}
	for i, name := range want {
		if events[i].Name != name {
			t.Errorf("position %d = %s, want %s", i, events[i].Name, name)
		}
	}
}

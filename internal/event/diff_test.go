package event

import (
	"testing"
	"time"
)

func TestDiff(t *testing.T) {
	day := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)
	other := NewSource("urban-family", "Urban Family", "https://example.com", "hivey_api", nil)

	seen := NewEvent(testSource(), "Seen Truck", day)
	fresh := NewEvent(testSource(), "Fresh Truck", day.AddDate(0, 0, 1))
	freshOther := NewEvent(other, "Other Truck", day)

	previous := CreateSnapshot([]*Event{seen}, "run-1", "2026-10-19T00:00:00Z")
	result := Diff(previous, []*Event{fresh, seen, freshOther})

	if len(result.NewEvents) != 2 {
		t.Fatalf("Diff() found %d new events, want 2", len(result.NewEvents))
	}
	if result.NewEvents[0].Name != "Other Truck" {
		t.Errorf("first new event = %q, want chronological order", result.NewEvents[0].Name)
	}

	keys := result.SourceKeys()
	if len(keys) != 2 || keys[0] != "stoup-ballard" || keys[1] != "urban-family" {
		t.Errorf("SourceKeys() = %v, want [stoup-ballard urban-family]", keys)
	}
}

func TestDiff_NilPrevious(t *testing.T) {
	evt := NewEvent(testSource(), "Truck", time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC))

	result := Diff(nil, []*Event{evt})
	if len(result.NewEvents) != 1 {
		t.Errorf("Diff(nil) found %d new events, want 1", len(result.NewEvents))
	}
}

func TestCreateSnapshot(t *testing.T) {
	evt := NewEvent(testSource(), "Truck", time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC))

	snap := CreateSnapshot([]*Event{evt}, "run-7", "2026-10-19T12:00:00Z")
	if snap.RunID != "run-7" || snap.UpdatedAt != "2026-10-19T12:00:00Z" {
		t.Errorf("CreateSnapshot() metadata = %q/%q", snap.RunID, snap.UpdatedAt)
	}
	if snap.Events[evt.ID] != evt {
		t.Error("CreateSnapshot() did not index event by ID")
	}
}

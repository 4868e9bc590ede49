package event

import (
	"sort"
)

// Snapshot represents the events seen by one run
type Snapshot struct {
	Events    map[string]*Event `json:"events"`     // keyed by Event.ID
	RunID     string            `json:"run_id"`     // run that produced the snapshot
	UpdatedAt string            `json:"updated_at"` // RFC3339 timestamp
}

// NewSnapshot creates an empty snapshot
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Events: make(map[string]*Event),
	}
}

// DiffResult contains the results of comparing current events against a snapshot
type DiffResult struct {
	NewEvents []*Event
	BySource  map[string][]*Event // new events grouped by source key
}

// Diff compares current events against a previous snapshot and returns new events
func Diff(previous *Snapshot, current []*Event) *DiffResult {
	result := &DiffResult{
		NewEvents: make([]*Event, 0),
		BySource:  make(map[string][]*Event),
	}

	if previous == nil {
		previous = NewSnapshot()
	}

	for _, evt := range current {
		if _, exists := previous.Events[evt.ID]; exists {
			continue
		}
		result.NewEvents = append(result.NewEvents, evt)
		result.BySource[evt.SourceKey] = append(result.BySource[evt.SourceKey], evt)
	}

	SortChronologically(result.NewEvents)
	for key := range result.BySource {
		SortChronologically(result.BySource[key])
	}

	return result
}

// CreateSnapshot creates a snapshot from a list of events
func CreateSnapshot(events []*Event, runID, updatedAt string) *Snapshot {
	snap := NewSnapshot()
	snap.RunID = runID
	snap.UpdatedAt = updatedAt

	for _, evt := range events {
		snap.Events[evt.ID] = evt
	}

	return snap
}

// SourceKeys returns the sorted keys of sources that contributed new events.
func (d *DiffResult) SourceKeys() []string {
	keys := make([]string, 0, len(d.BySource))
	for k := range d.BySource {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pfrederiksen/around-the-grounds/internal/event"
)

// DefaultDataDir is used when no data directory is configured.
const DefaultDataDir = "~/.local/share/around-the-grounds"

var unsafeChars = regexp.MustCompile(`[^a-z0-9_-]+`)

// Storage handles persistence of event snapshots
type Storage struct {
	dataDir string
	now     func() time.Time
}

// New creates a new Storage instance
func New(dataDir string) (*Storage, error) {
	if dataDir == "" {
		dataDir = DefaultDataDir
	}

	// Expand ~ to home directory
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Storage{
		dataDir: dataDir,
		now:     time.Now,
	}, nil
}

// Dir returns the resolved data directory.
func (s *Storage) Dir() string {
	return s.dataDir
}

func (s *Storage) snapshotPath(site string) string {
	name := unsafeChars.ReplaceAllString(strings.ToLower(site), "_")
	if name == "" || name == "_" {
		return filepath.Join(s.dataDir, "snapshot.json")
	}
	return filepath.Join(s.dataDir, fmt.Sprintf("snapshot_%s.json", name))
}

// LoadSnapshot loads the site's snapshot. A missing file yields an empty snapshot.
func (s *Storage) LoadSnapshot(site string) (*event.Snapshot, error) {
	data, err := os.ReadFile(s.snapshotPath(site))
	if err != nil {
		if os.IsNotExist(err) {
			return event.NewSnapshot(), nil
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snapshot event.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}
	if snapshot.Events == nil {
		snapshot.Events = make(map[string]*event.Event)
	}

	return &snapshot, nil
}

// SaveSnapshot writes the snapshot atomically, stamping UpdatedAt.
func (s *Storage) SaveSnapshot(snapshot *event.Snapshot, site string) error {
	path := s.snapshotPath(site)

	snapshot.UpdatedAt = s.now().UTC().Format(time.RFC3339)
	if snapshot.RunID == "" {
		snapshot.RunID = uuid.NewString()
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing snapshot: %w", err)
	}

	return nil
}

// SaveEvents records events as the site's latest snapshot under a fresh run ID,
// which it returns.
func (s *Storage) SaveEvents(events []*event.Event, site string) (string, error) {
	runID := uuid.NewString()
	snapshot := event.CreateSnapshot(events, runID, "")
	if err := s.SaveSnapshot(snapshot, site); err != nil {
		return "", err
	}
	return runID, nil
}

// GetEventByID retrieves an event by ID from the site's snapshot.
func (s *Storage) GetEventByID(site, eventID string) (*event.Event, error) {
	snapshot, err := s.LoadSnapshot(site)
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}

	if evt, exists := snapshot.Events[eventID]; exists {
		return evt, nil
	}

	return nil, fmt.Errorf("event not found: %s", eventID)
}

package event

import (
	"crypto/sha1"
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/around-the-grounds/internal/tz"
)

// PlaceholderName marks a slot a source reserved without naming the vendor.
const PlaceholderName = "TBD"

// Source identifies one event source and how to fetch and parse it.
type Source struct {
	Key          string         `json:"key" yaml:"key"`
	Name         string         `json:"name" yaml:"name"`
	URL          string         `json:"url" yaml:"url"`
	ParserType   string         `json:"parser_type" yaml:"parser_type"`
	ParserConfig map[string]any `json:"parser_config,omitempty" yaml:"parser_config,omitempty"`
}

// NewSource creates a Source, defaulting a nil parser config to an empty map.
func NewSource(key, name, url, parserType string, parserConfig map[string]any) Source {
	if parserConfig == nil {
		parserConfig = map[string]any{}
	}
	return Source{
		Key:          key,
		Name:         name,
		URL:          url,
		ParserType:   parserType,
		ParserConfig: parserConfig,
	}
}

// Config returns the parser config, never nil.
func (s Source) Config() map[string]any {
	if s.ParserConfig == nil {
		return map[string]any{}
	}
	return s.ParserConfig
}

// Event is one scheduled appearance of a vendor or activity at a source.
type Event struct {
	ID              string     `json:"id"`
	SourceKey       string     `json:"source_key"`
	SourceName      string     `json:"source_name"`
	Name            string     `json:"event_name"`
	Date            time.Time  `json:"date"`
	StartTime       *time.Time `json:"start_time,omitempty"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	Description     string     `json:"description,omitempty"`
	AIGeneratedName bool       `json:"ai_generated_name"`
}

// GenerateID creates a deterministic ID for an event based on stable fields
func GenerateID(sourceKey string, date time.Time, name string) string {
	h := sha1.New()
	h.Write([]byte(sourceKey + "|" + date.Format("2006-01-02") + "|" + strings.ToLower(strings.TrimSpace(name))))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// NewEvent creates an Event for src on the calendar date of date, with ID populated.
func NewEvent(src Source, name string, date time.Time) *Event {
	day := tz.DateOf(date)
	return &Event{
		ID:         GenerateID(src.Key, day, name),
		SourceKey:  src.Key,
		SourceName: src.Name,
		Name:       name,
		Date:       day,
	}
}

// SetTimes attaches start/end times; either may be nil.
func (e *Event) SetTimes(start, end *time.Time) {
	e.StartTime = start
	e.EndTime = end
}

// SortTime is the start time, or midnight of the date when no start time is known.
func (e *Event) SortTime() time.Time {
	if e.StartTime != nil {
		return *e.StartTime
	}
	return e.Date
}

// HasValidTimeRange is false only when both times are set and end does not follow start.
func (e *Event) HasValidTimeRange() bool {
	if e.StartTime == nil || e.EndTime == nil {
		return true
	}
	return e.EndTime.After(*e.StartTime)
}

// IsPlaceholder reports whether the name is a reserved-slot placeholder.
func (e *Event) IsPlaceholder() bool {
	return IsPlaceholderName(e.Name)
}

func (e *Event) String() string {
	date := "None"
	if !e.Date.IsZero() {
		date = e.Date.Format("2006-01-02")
	}
	clock := ""
	if e.StartTime != nil {
		clock = " " + e.StartTime.Format("15:04")
		if e.EndTime != nil {
			clock += "-" + e.EndTime.Format("15:04")
		}
	}
	return fmt.Sprintf("%s%s: %s @ %s", date, clock, e.Name, e.SourceName)
}

var placeholderNames = map[string]bool{
	"tbd":             true,
	"tba":             true,
	"to be announced": true,
	"unknown":         true,
}

// IsPlaceholderName reports whether name is a stand-in rather than a real vendor name.
func IsPlaceholderName(name string) bool {
	return placeholderNames[strings.ToLower(strings.TrimSpace(name))]
}

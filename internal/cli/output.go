package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pfrederiksen/around-the-grounds/internal/calendar"
	"github.com/pfrederiksen/around-the-grounds/internal/config"
	"github.com/pfrederiksen/around-the-grounds/internal/coordinator"
	"github.com/pfrederiksen/around-the-grounds/internal/event"
	"github.com/pfrederiksen/around-the-grounds/internal/tz"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatWeb  OutputFormat = "web"
	FormatICS  OutputFormat = "ics"
)

func (f OutputFormat) valid() bool {
	switch f {
	case FormatText, FormatJSON, FormatWeb, FormatICS:
		return true
	}
	return false
}

// visionMarker flags vendor names read from a logo image.
const visionMarker = " 🖼️🤖"

// OutputResult contains data to be output
type OutputResult struct {
	Site        *config.Site
	GeneratedAt time.Time
	Events      []*event.Event
	Errors      []*coordinator.SourceError
	WindowDays  int
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	case FormatWeb:
		return writeWeb(w, result)
	case FormatICS:
		return writeICS(w, result)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

type jsonError struct {
	SourceKey   string    `json:"source_key"`
	SourceName  string    `json:"source_name"`
	Kind        string    `json:"kind"`
	Message     string    `json:"message"`
	UserMessage string    `json:"user_message"`
	Attempts    int       `json:"attempts"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type jsonResult struct {
	Site        string         `json:"site,omitempty"`
	GeneratedAt time.Time      `json:"generated_at"`
	EventCount  int            `json:"event_count"`
	Events      []*event.Event `json:"events"`
	Errors      []jsonError    `json:"errors"`
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *OutputResult) error {
	out := jsonResult{
		GeneratedAt: result.GeneratedAt.UTC(),
		EventCount:  len(result.Events),
		Events:      result.Events,
		Errors:      make([]jsonError, 0, len(result.Errors)),
	}
	if out.Events == nil {
		out.Events = []*event.Event{}
	}
	if result.Site != nil {
		out.Site = result.Site.Name
	}
	for _, e := range result.Errors {
		out.Errors = append(out.Errors, jsonError{
			SourceKey:   e.Source.Key,
			SourceName:  e.Source.Name,
			Kind:        string(e.Kind),
			Message:     e.Message,
			UserMessage: e.UserMessage(),
			Attempts:    e.Attempts,
			OccurredAt:  e.OccurredAt.UTC(),
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

type webEvent struct {
	Date             string  `json:"date"`
	Vendor           string  `json:"vendor"`
	Location         string  `json:"location"`
	StartTime        *string `json:"start_time"`
	EndTime          *string `json:"end_time"`
	Description      *string `json:"description"`
	ExtractionMethod string  `json:"extraction_method,omitempty"`
}

type webData struct {
	Events      []webEvent `json:"events"`
	Updated     string     `json:"updated"`
	TotalEvents int        `json:"total_events"`
}

// writeWeb outputs the data.json document read by the static website.
func writeWeb(w io.Writer, result *OutputResult) error {
	data := webData{
		Events:      make([]webEvent, 0, len(result.Events)),
		Updated:     tz.Strip(result.GeneratedAt.In(tz.Reference)).Format("2006-01-02T15:04:05"),
		TotalEvents: len(result.Events),
	}

	for _, evt := range result.Events {
		we := webEvent{
			Date:     evt.Date.Format("2006-01-02T15:04:05"),
			Vendor:   evt.Name,
			Location: evt.SourceName,
		}
		if evt.StartTime != nil {
			s := evt.StartTime.Format("03:04 PM")
			we.StartTime = &s
		}
		if evt.EndTime != nil {
			s := evt.EndTime.Format("03:04 PM")
			we.EndTime = &s
		}
		if evt.Description != "" {
			d := evt.Description
			we.Description = &d
		}
		if evt.AIGeneratedName {
			we.ExtractionMethod = "vision"
			we.Vendor += visionMarker
		}
		data.Events = append(data.Events, we)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(data)
}

func writeICS(w io.Writer, result *OutputResult) error {
	opts := calendar.Options{Now: result.GeneratedAt}
	if result.Site != nil {
		opts.Name = result.Site.WebsiteTitle
	}
	_, err := io.WriteString(w, calendar.GenerateICS(result.Events, opts))
	return err
}

// writeText outputs results grouped by day, followed by a failure summary.
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	var b strings.Builder

	title := "Around the Grounds - Food Truck Tracker"
	if result.Site != nil && result.Site.WebsiteTitle != "" {
		title = result.Site.WebsiteTitle
	}
	fmt.Fprintf(&b, "🍺 %s\n", title)
	b.WriteString(strings.Repeat("=", 50) + "\n")

	events, errs := result.Events, result.Errors

	if len(events) > 0 {
		fmt.Fprintf(&b, "Found %d food truck events:\n\n", len(events))

		currentDate := ""
		for _, evt := range events {
			date := evt.Date.Format("Monday, January 02, 2006")
			if date != currentDate {
				if currentDate != "" {
					b.WriteString("\n")
				}
				fmt.Fprintf(&b, "📅 %s\n", date)
				currentDate = date
			}

			name := evt.Name
			if evt.AIGeneratedName {
				name += visionMarker
			}
			fmt.Fprintf(&b, "  🚚 %s @ %s%s\n", name, evt.SourceName, timeRange(evt))
			if evt.Description != "" {
				fmt.Fprintf(&b, "     %s\n", evt.Description)
			}
			if verbose {
				fmt.Fprintf(&b, "     ID: %s\n", evt.ID)
			}
		}
	}

	if len(errs) > 0 {
		if len(events) > 0 {
			b.WriteString("\n⚠️  Processing Summary:\n")
			fmt.Fprintf(&b, "✅ %d events found successfully\n", len(events))
			fmt.Fprintf(&b, "❌ %d sources failed\n", len(errs))
		} else {
			b.WriteString("❌ No events found - all sources failed\n")
		}

		b.WriteString("\n❌ Errors:\n")
		for _, msg := range coordinator.UserMessages(errs) {
			fmt.Fprintf(&b, "  • %s\n", msg)
		}
		if verbose {
			for _, e := range errs {
				fmt.Fprintf(&b, "    %s: %s (%d attempts)\n", e.Kind, e.Message, e.Attempts)
			}
		}
	}

	if len(events) == 0 && len(errs) == 0 {
		days := result.WindowDays
		if days <= 0 {
			days = coordinator.DefaultConfig().WindowDays
		}
		fmt.Fprintf(&b, "No food truck events found for the next %d days.\n", days)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func timeRange(evt *event.Event) string {
	if evt.StartTime == nil {
		return ""
	}
	s := " " + evt.StartTime.Format("03:04 PM")
	if evt.EndTime != nil {
		s += " - " + evt.EndTime.Format("03:04 PM")
	}
	return s
}

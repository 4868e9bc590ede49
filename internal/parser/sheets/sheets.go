// Package sheets parses schedules exported from a spreadsheet as CSV.
//
// Expected columns: 0 weekday, 1 "Mon D", 5 event type, 6 event name.
// Rows whose type differs from the configured one are skipped, and meal
// prefixes such as "Dinner:" are stripped from the vendor name.
package sheets

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pfrederiksen/around-the-grounds/internal/event"
	"github.com/pfrederiksen/around-the-grounds/internal/fetch"
	"github.com/pfrederiksen/around-the-grounds/internal/logger"
	"github.com/pfrederiksen/around-the-grounds/internal/parser"
)

// Type is the parser_type this package registers under.
const Type = "google_sheets_csv"

const (
	colMonthDay  = 1
	colEventType = 5
	colEventName = 6
	minColumns   = 7
)

// Config is the parser_config for a spreadsheet source.
type Config struct {
	EventType    string   `mapstructure:"event_type"`
	MealPrefixes []string `mapstructure:"meal_prefixes"`
}

// Parser reads food truck rows from a CSV export.
type Parser struct {
	parser.Base
	cfg Config
}

// New creates a Parser for src.
func New(src event.Source, deps parser.Deps) (parser.Parser, error) {
	var cfg Config
	if err := parser.DecodeConfig(src, &cfg); err != nil {
		return nil, err
	}
	if cfg.EventType == "" {
		cfg.EventType = "Food Truck"
	}
	if len(cfg.MealPrefixes) == 0 {
		cfg.MealPrefixes = []string{"brunch", "dinner"}
	}
	return &Parser{Base: parser.NewBase(src, deps), cfg: cfg}, nil
}

// Parse fetches the CSV and returns one event per matching row.
func (p *Parser) Parse(ctx context.Context, sess *fetch.Session) ([]*event.Event, error) {
	body, err := p.Fetch(ctx, sess, p.Source.URL, fetch.WithHeader("Accept", "text/csv"))
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(bytes.NewReader(body))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	events := make([]*event.Event, 0)
	for line := 1; ; line++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, parser.Malformed(p.Source.URL, err, "reading CSV")
		}
		if line == 1 {
			continue // header
		}
		if evt := p.parseRow(row); evt != nil {
			events = append(events, evt)
		}
	}

	return p.FilterValid(events), nil
}

func (p *Parser) parseRow(row []string) *event.Event {
	if len(row) < minColumns {
		return nil
	}

	if strings.TrimSpace(row[colEventType]) != p.cfg.EventType {
		p.Log.Debug("Skipping row of other type", logger.Fields{"event": row[colEventName]})
		return nil
	}

	original := strings.TrimSpace(row[colEventName])
	name := p.vendorName(original)
	if name == "" {
		return nil
	}

	date, err := parseMonthDay(row[colMonthDay])
	if err != nil {
		p.Log.Debug("Could not parse date", logger.Fields{"value": row[colMonthDay], "error": err.Error()})
		return nil
	}

	evt := event.NewEvent(p.Source, name, date)
	evt.Description = "Original event: " + original
	return evt
}

// vendorName strips a recognized meal prefix ("Dinner: T'Juana" -> "T'Juana").
func (p *Parser) vendorName(eventName string) string {
	prefix, rest, found := strings.Cut(eventName, ":")
	if !found {
		return strings.TrimSpace(eventName)
	}
	for _, meal := range p.cfg.MealPrefixes {
		if strings.EqualFold(strings.TrimSpace(prefix), meal) {
			return strings.TrimSpace(rest)
		}
	}
	return strings.TrimSpace(eventName)
}

// parseMonthDay parses "Aug 1" using the year rollover rule.
func parseMonthDay(s string) (time.Time, error) {
	parts := strings.Fields(s)
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("invalid month+date %q", s)
	}
	month := event.MonthFromName(parts[0])
	if month == 0 {
		return time.Time{}, fmt.Errorf("unknown month %q", parts[0])
	}
	day, err := strconv.Atoi(parts[1])
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("invalid day %q", parts[1])
	}
	return event.MonthDay(month, day)
}

// Package sfta parses bookings from the Seattle Food Truck events API.
//
// One request covers today through DaysAhead days for a single location. Each
// event's first approved booking names the truck; events without one are skipped.
package sfta

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pfrederiksen/around-the-grounds/internal/event"
	"github.com/pfrederiksen/around-the-grounds/internal/fetch"
	"github.com/pfrederiksen/around-the-grounds/internal/logger"
	"github.com/pfrederiksen/around-the-grounds/internal/parser"
	"github.com/pfrederiksen/around-the-grounds/internal/tz"
)

// Type is the parser_type this package registers under.
const Type = "seattle_food_truck_api"

const (
	DefaultAPIURL    = "https://www.seattlefoodtruck.com/api/events"
	DefaultPageSize  = 300
	DefaultDaysAhead = 7
)

// Config is the parser_config for a Seattle Food Truck location.
type Config struct {
	APIURL     string `mapstructure:"api_url"`
	LocationID int    `mapstructure:"location_id"`
	PageSize   int    `mapstructure:"page_size"`
	DaysAhead  int    `mapstructure:"days_ahead"`
}

// Parser reads confirmed bookings for one location.
type Parser struct {
	parser.Base
	cfg Config
}

// New creates a Parser for src. location_id is required.
func New(src event.Source, deps parser.Deps) (parser.Parser, error) {
	var cfg Config
	if err := parser.DecodeConfig(src, &cfg); err != nil {
		return nil, err
	}
	if cfg.LocationID <= 0 {
		return nil, fmt.Errorf("source %s: location_id required", src.Key)
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.DaysAhead <= 0 {
		cfg.DaysAhead = DefaultDaysAhead
	}
	return &Parser{Base: parser.NewBase(src, deps), cfg: cfg}, nil
}

type response struct {
	Events []apiEvent `json:"events"`
}

type apiEvent struct {
	ID        interface{} `json:"id"`
	StartTime string      `json:"start_time"`
	EndTime   string      `json:"end_time"`
	Bookings  []booking   `json:"bookings"`
}

type booking struct {
	Status string `json:"status"`
	Truck  *truck `json:"truck"`
}

type truck struct {
	Name           string   `json:"name"`
	FoodCategories []string `json:"food_categories"`
}

// Parse queries the API and converts approved bookings to events.
func (p *Parser) Parse(ctx context.Context, sess *fetch.Session) ([]*event.Event, error) {
	var resp response
	if err := p.FetchJSON(ctx, sess, p.cfg.APIURL, &resp,
		fetch.WithHeader("Accept", "application/json"),
		fetch.WithQuery(p.query(tz.Today())),
	); err != nil {
		return nil, err
	}

	events := make([]*event.Event, 0, len(resp.Events))
	for _, ev := range resp.Events {
		if evt := p.parseEvent(ev); evt != nil {
			events = append(events, evt)
		}
	}
	return p.FilterValid(events), nil
}

func (p *Parser) query(today time.Time) url.Values {
	return url.Values{
		"page":               {"1"},
		"page_size":          {strconv.Itoa(p.cfg.PageSize)},
		"start_date":         {apiDate(today)},
		"end_date":           {apiDate(today.AddDate(0, 0, p.cfg.DaysAhead))},
		"for_locations":      {strconv.Itoa(p.cfg.LocationID)},
		"with_active_trucks": {"true"},
		"include_bookings":   {"true"},
	}
}

// apiDate formats d as M-D-YY.
func apiDate(d time.Time) string {
	return fmt.Sprintf("%d-%d-%d", int(d.Month()), d.Day(), d.Year()%100)
}

func (p *Parser) parseEvent(ev apiEvent) *event.Event {
	fields := logger.Fields{"event_id": ev.ID}

	var booked *truck
	for _, b := range ev.Bookings {
		if b.Status == "approved" && b.Truck != nil {
			booked = b.Truck
			break
		}
	}
	if booked == nil {
		p.Log.Debug("Skipping event without approved booking", fields)
		return nil
	}

	name := strings.TrimSpace(booked.Name)
	if name == "" || event.IsPlaceholderName(name) {
		p.Log.Warn("No vendor name in event", fields)
		name = event.PlaceholderName
	}

	if ev.StartTime == "" || ev.EndTime == "" {
		p.Log.Warn("Missing timestamp fields", fields)
		return nil
	}
	start, okStart := event.ParseISO(ev.StartTime)
	end, okEnd := event.ParseISO(ev.EndTime)
	if !okStart || !okEnd {
		p.Log.Debug("Could not parse timestamps", fields)
		return nil
	}
	if !end.After(start) {
		p.Log.Warn("Invalid time range", fields)
		return nil
	}
	if tz.DateOf(start).Before(tz.Today().AddDate(0, 0, -1)) {
		p.Log.Debug("Skipping past event", fields)
		return nil
	}

	evt := event.NewEvent(p.Source, name, start)
	evt.SetTimes(&start, &end)
	if len(booked.FoodCategories) > 0 {
		evt.Description = "Cuisine: " + strings.Join(booked.FoodCategories, ", ")
	}
	return evt
}

// Package hivey parses the public calendar JSON served by the Hivey platform.
//
// Vendor names come from the event title, a configured vendor ID map, common
// name fields, or the event image filename. When none of those work and an
// image analyzer is available, the image itself is analyzed. Slots with no
// recoverable name are kept with the placeholder name.
package hivey

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/pfrederiksen/around-the-grounds/internal/event"
	"github.com/pfrederiksen/around-the-grounds/internal/fetch"
	"github.com/pfrederiksen/around-the-grounds/internal/logger"
	"github.com/pfrederiksen/around-the-grounds/internal/parser"
	"github.com/pfrederiksen/around-the-grounds/internal/tz"
	"github.com/pfrederiksen/around-the-grounds/internal/vision"
)

// Type is the parser_type this package registers under.
const Type = "hivey_api"

const titlePrefix = "FOOD TRUCK - "

// Config is the parser_config for a Hivey calendar source.
type Config struct {
	APIURL    string            `mapstructure:"api_url"`
	Headers   map[string]string `mapstructure:"headers"`
	VendorIDs map[string]string `mapstructure:"vendor_ids"`
}

var defaultHeaders = map[string]string{
	"Accept":  "application/json, text/plain, */*",
	"Origin":  "https://app.hivey.io",
	"Referer": "https://app.hivey.io/",
}

// Parser reads events from a Hivey public calendar endpoint.
type Parser struct {
	parser.Base
	cfg    Config
	vision vision.Analyzer
}

// New creates a Parser for src. The API URL defaults to the source URL.
func New(src event.Source, deps parser.Deps) (parser.Parser, error) {
	var cfg Config
	if err := parser.DecodeConfig(src, &cfg); err != nil {
		return nil, err
	}
	if cfg.APIURL == "" {
		cfg.APIURL = src.URL
	}
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("source %s: api_url required", src.Key)
	}
	return &Parser{Base: parser.NewBase(src, deps), cfg: cfg, vision: deps.Vision}, nil
}

// Parse fetches the calendar and converts each item to an event.
func (p *Parser) Parse(ctx context.Context, sess *fetch.Session) ([]*event.Event, error) {
	var data interface{}
	if err := p.FetchJSON(ctx, sess, p.cfg.APIURL, &data, p.requestOptions()...); err != nil {
		return nil, err
	}

	items, err := extractItems(data)
	if err != nil {
		return nil, parser.Malformed(p.cfg.APIURL, err, "unexpected calendar shape")
	}
	if len(items) == 0 {
		p.Log.Info("Empty response from API - no events found", nil)
		return []*event.Event{}, nil
	}

	events := make([]*event.Event, 0, len(items))
	for _, item := range items {
		if evt := p.parseItem(ctx, item); evt != nil {
			events = append(events, evt)
		}
	}
	return p.FilterValid(events), nil
}

func (p *Parser) requestOptions() []fetch.RequestOption {
	headers := make(map[string]string, len(defaultHeaders)+len(p.cfg.Headers))
	for k, v := range defaultHeaders {
		headers[k] = v
	}
	for k, v := range p.cfg.Headers {
		headers[k] = v
	}
	opts := make([]fetch.RequestOption, 0, len(headers))
	for k, v := range headers {
		opts = append(opts, fetch.WithHeader(k, v))
	}
	return opts
}

type item map[string]interface{}

// extractItems accepts a list, an object wrapping a list under "events" or
// "data", or a single event object.
func extractItems(data interface{}) ([]item, error) {
	var raw []interface{}
	switch v := data.(type) {
	case nil:
		return nil, nil
	case []interface{}:
		raw = v
	case map[string]interface{}:
		switch {
		case v["events"] != nil:
			list, ok := v["events"].([]interface{})
			if !ok {
				return nil, fmt.Errorf("events is %T, not a list", v["events"])
			}
			raw = list
		case v["data"] != nil:
			list, ok := v["data"].([]interface{})
			if !ok {
				return nil, fmt.Errorf("data is %T, not a list", v["data"])
			}
			raw = list
		case len(v) == 0:
			return nil, nil
		default:
			raw = []interface{}{v}
		}
	default:
		return nil, fmt.Errorf("unexpected JSON type %T", data)
	}

	items := make([]item, 0, len(raw))
	for _, r := range raw {
		if m, ok := r.(map[string]interface{}); ok {
			items = append(items, item(m))
		}
	}
	return items, nil
}

func (p *Parser) parseItem(ctx context.Context, it item) *event.Event {
	date, ok := extractDate(it)
	if !ok {
		p.Log.Debug("Skipping item without valid date", logger.Fields{"title": it.str("eventTitle")})
		return nil
	}

	name, aiGenerated := p.vendorName(ctx, it)
	if name == "" {
		name = event.PlaceholderName
		aiGenerated = false
	}

	evt := event.NewEvent(p.Source, name, date)
	evt.AIGeneratedName = aiGenerated
	evt.SetTimes(extractTimes(it, date))
	evt.Description = firstField(it, "description", "details", "notes", "content", "body")
	return evt
}

// vendorName returns the vendor and whether it came from image analysis.
func (p *Parser) vendorName(ctx context.Context, it item) (string, bool) {
	if name := p.nameFromText(it); name != "" {
		return name, false
	}
	if img := it.str("eventImage"); img != "" {
		if name, ok := vision.Lookup(ctx, p.vision, img, p.Log); ok {
			p.Log.Info("Vision analysis extracted name", logger.Fields{"name": name, "image_url": img})
			return name, true
		}
	}
	return "", false
}

var nameFields = []string{
	"name", "vendor", "vendor_name", "food_truck", "food_truck_name",
	"truck_name", "business_name", "summary",
}

func (p *Parser) nameFromText(it item) string {
	if title := it.str("eventTitle"); title != "" {
		if strings.Contains(title, titlePrefix) {
			name := strings.TrimSpace(strings.ReplaceAll(title, titlePrefix, ""))
			if name != "" && !event.IsPlaceholderName(name) {
				return name
			}
		} else if !strings.EqualFold(title, "food truck") {
			return title
		}
	}

	if vendors, ok := it["applicantVendors"].([]interface{}); ok && len(vendors) > 0 {
		if v, ok := vendors[0].(map[string]interface{}); ok {
			id := item(v).str("vendorId")
			if name, ok := p.cfg.VendorIDs[id]; ok && name != "" {
				return name
			}
			if id != "" {
				p.Log.Debug("Unknown vendor ID", logger.Fields{"vendor_id": id})
			}
		}
	}

	for _, field := range nameFields {
		name := it.str(field)
		if name != "" && !event.IsPlaceholderName(name) && !strings.EqualFold(name, "food truck") {
			return name
		}
	}

	if img := it.str("eventImage"); img != "" {
		base := path.Base(img)
		return nameFromFilename(strings.TrimSuffix(base, path.Ext(base)))
	}
	return ""
}

var (
	logoPattern     = regexp.MustCompile(`(?i)logo\s+([a-zA-Z][a-zA-Z0-9\s']*)`)
	trailingPattern = regexp.MustCompile(`(\b(?:[A-Z][a-z]+'?s?\s*)+)$`)
	leadingNoise    = regexp.MustCompile(`(?i)^(logo|main|web|header|image)\s*`)
	trailingNoise   = regexp.MustCompile(`(?i)\s*(logo|web|preview|header|image|main)$`)
	namePattern     = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9\s']+$`)
)

var metadataWords = map[string]bool{"logo": true, "main": true, "web": true, "preview": true, "header": true}

var excludedTerms = []string{
	"blk", "black", "white", "temp", "tmp", "default", "unnamed",
	"placeholder", "copy", "screen", "shot", "updated",
}

// nameFromFilename guesses a vendor from an image filename such as
// "LOGO_momo" or "MainlogoB_Webpreview_Georgia's".
func nameFromFilename(filename string) string {
	name := strings.TrimSpace(strings.NewReplacer("_", " ", "-", " ").Replace(filename))

	if m := logoPattern.FindStringSubmatch(name); m != nil {
		if extracted := strings.TrimSpace(m[1]); len(extracted) > 1 {
			return titleCase(extracted)
		}
	}

	if m := trailingPattern.FindStringSubmatch(name); m != nil {
		extracted := strings.TrimSpace(m[1])
		meta := false
		for _, w := range strings.Fields(extracted) {
			if metadataWords[strings.ToLower(w)] {
				meta = true
				break
			}
		}
		if !meta {
			return extracted
		}
	}

	cleaned := strings.TrimSpace(trailingNoise.ReplaceAllString(leadingNoise.ReplaceAllString(name, ""), ""))
	if len(cleaned) > 2 && namePattern.MatchString(cleaned) {
		lower := strings.ToLower(cleaned)
		for _, term := range excludedTerms {
			if strings.Contains(lower, term) {
				return ""
			}
		}
		return titleCase(cleaned)
	}
	return ""
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

var dateLayouts = []string{
	"January 02, 2006",
	"January 2, 2006",
	"January 2 2006",
	"01/02/2006",
}

var dateFields = []string{
	"date", "start_date", "event_date", "start", "start_time",
	"datetime", "created_at", "scheduled_date",
}

func extractDate(it item) (time.Time, bool) {
	if slot, ok := it.firstSlot(); ok {
		if s := slot.str("date"); s != "" {
			for _, layout := range dateLayouts {
				if d, err := time.Parse(layout, s); err == nil {
					return d, true
				}
			}
			if d := event.ParseDateText(s); !d.IsZero() {
				return d, true
			}
		}
	}

	for _, field := range dateFields {
		s := it.str(field)
		if s == "" {
			continue
		}
		if t, ok := event.ParseISO(s); ok {
			return tz.DateOf(t), true
		}
		if d := event.ParseDateText(s); !d.IsZero() {
			return d, true
		}
	}
	return time.Time{}, false
}

func extractTimes(it item, date time.Time) (start, end *time.Time) {
	if slot, ok := it.firstSlot(); ok {
		start = parseTime(slot.str("startTime"), date)
		end = parseTime(slot.str("endTime"), date)
	}
	if start != nil || end != nil {
		return start, end
	}

	start = parseTime(it.str("start_time"), date)
	end = parseTime(it.str("end_time"), date)
	if start == nil && end == nil {
		if s, e, ok := event.ParseTimeRange(it.str("time"), date); ok {
			return s, e
		}
	}
	return start, end
}

// parseTime accepts ISO timestamps, "13:00" and "1:00 pm".
func parseTime(s string, date time.Time) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if strings.Contains(s, "T") || strings.Contains(s, "+") {
		if t, ok := event.ParseISO(s); ok {
			return &t
		}
		return nil
	}
	if hour, minute, ok := event.ParseClock(s); ok {
		t := event.AtClock(date, hour, minute)
		return &t
	}
	return nil
}

func firstField(it item, fields ...string) string {
	for _, f := range fields {
		if s := it.str(f); s != "" {
			return s
		}
	}
	return ""
}

// str returns a trimmed string form of a scalar field, or "".
func (it item) str(key string) string {
	switch v := it[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case float64:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	case bool:
		return fmt.Sprintf("%t", v)
	default:
		return ""
	}
}

func (it item) firstSlot() (item, bool) {
	slots, ok := it["eventDates"].([]interface{})
	if !ok || len(slots) == 0 {
		return nil, false
	}
	slot, ok := slots[0].(map[string]interface{})
	return item(slot), ok
}

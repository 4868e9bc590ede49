// Package textsearch parses schedules published as plain paragraphs under a
// heading, such as "Thursday, 7/3: Tisket Tasket". Pages give no times.
package textsearch

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/around-the-grounds/internal/event"
	"github.com/pfrederiksen/around-the-grounds/internal/fetch"
	"github.com/pfrederiksen/around-the-grounds/internal/logger"
	"github.com/pfrederiksen/around-the-grounds/internal/parser"
)

// Type is the parser_type this package registers under.
const Type = "text_search_html"

// DefaultHeading is the section heading searched for when none is configured.
const DefaultHeading = "UPCOMING FOOD TRUCKS"

// Config is the parser_config for a text search source.
type Config struct {
	Heading string `mapstructure:"heading"`
}

// Parser reads "Weekday, M/D: Vendor" lines from the section under a heading.
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
	if strings.TrimSpace(cfg.Heading) == "" {
		cfg.Heading = DefaultHeading
	}
	return &Parser{Base: parser.NewBase(src, deps), cfg: cfg}, nil
}

var linePattern = regexp.MustCompile(`^(Monday|Tuesday|Wednesday|Thursday|Friday|Saturday|Sunday)\s*,\s*(\d{1,2})/(\d{1,2})\s*:\s*(.+)`)

// Parse fetches the page and extracts one event per matching paragraph.
// A page without the heading yields no events.
func (p *Parser) Parse(ctx context.Context, sess *fetch.Session) ([]*event.Event, error) {
	doc, err := p.FetchDocument(ctx, sess, p.Source.URL)
	if err != nil {
		return nil, err
	}

	section := p.findSection(doc)
	if section == nil {
		p.Log.Warn("Could not find schedule heading", logger.Fields{"heading": p.cfg.Heading})
		return []*event.Event{}, nil
	}

	events := make([]*event.Event, 0)
	section.Find("p").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" || strings.Contains(text, p.cfg.Heading) {
			return
		}
		if evt := p.parseLine(text); evt != nil {
			events = append(events, evt)
		}
	})

	return p.FilterValid(events), nil
}

// findSection returns the nearest section, div or body enclosing the heading text.
func (p *Parser) findSection(doc *goquery.Document) *goquery.Selection {
	var holder *goquery.Selection
	doc.Find("*").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		hit := s.Contents().FilterFunction(func(_ int, c *goquery.Selection) bool {
			return goquery.NodeName(c) == "#text" && strings.Contains(c.Text(), p.cfg.Heading)
		})
		if hit.Length() > 0 {
			holder = s
			return false
		}
		return true
	})
	if holder == nil {
		return nil
	}

	for cur := holder; cur.Length() > 0; cur = cur.Parent() {
		switch goquery.NodeName(cur) {
		case "section", "div", "body":
			return cur
		}
	}
	return nil
}

func (p *Parser) parseLine(line string) *event.Event {
	m := linePattern.FindStringSubmatch(line)
	if m == nil {
		p.Log.Debug("Line doesn't match pattern", logger.Fields{"line": line})
		return nil
	}

	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	name := strings.TrimSpace(m[4])
	if name == "" || month < 1 || month > 12 || day < 1 || day > 31 {
		return nil
	}

	date, err := event.MonthDay(time.Month(month), day)
	if err != nil {
		p.Log.Debug("Could not parse date", logger.Fields{"line": line, "error": err.Error()})
		return nil
	}

	return event.NewEvent(p.Source, name, date)
}

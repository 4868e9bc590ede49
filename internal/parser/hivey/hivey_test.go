package hivey

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pfrederiksen/around-the-grounds/internal/event"
	"github.com/pfrederiksen/around-the-grounds/internal/fetch"
	"github.com/pfrederiksen/around-the-grounds/internal/logger"
	"github.com/pfrederiksen/around-the-grounds/internal/parser"
	"github.com/pfrederiksen/around-the-grounds/internal/tz"
	"github.com/pfrederiksen/around-the-grounds/internal/vision"
)

func slot(date time.Time, start, end string) []map[string]any {
	return []map[string]any{{"date": date.Format("January 02, 2006"), "startTime": start, "endTime": end}}
}

func serveJSON(t *testing.T, payload any) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Origin") != "https://app.hivey.io" {
			t.Errorf("Origin header = %q", r.Header.Get("Origin"))
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(payload)
	}))
	t.Cleanup(server.Close)
	return server
}

func newParser(t *testing.T, url string, deps parser.Deps) parser.Parser {
	t.Helper()
	src := event.NewSource("urban-family", "Urban Family Brewing", url, Type, map[string]any{
		"vendor_ids": map[string]any{"67f07a79e9f3be17e2ef63b5": "MomoExpress"},
	})
	if deps.Logger == nil {
		deps.Logger = logger.Discard()
	}
	p, err := New(src, deps)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p
}

func TestParse(t *testing.T) {
	day := tz.Today().AddDate(0, 0, 1)
	isoStart := tz.Localize(event.AtClock(day, 16, 0)).UTC().Format(time.RFC3339)
	isoEnd := tz.Localize(event.AtClock(day, 21, 0)).UTC().Format(time.RFC3339)

	payload := []map[string]any{
		{"eventTitle": "FOOD TRUCK - Marination", "eventDates": slot(day, "13:00", "20:00"), "description": "Hawaiian"},
		{"eventTitle": "FOOD TRUCK", "eventDates": slot(day, "1:00 pm", "8:00 pm"),
			"applicantVendors": []map[string]any{{"vendorId": "67f07a79e9f3be17e2ef63b5"}}},
		{"eventTitle": "FOOD TRUCK", "eventDates": slot(day, isoStart, isoEnd),
			"eventImage": "https://cdn.example.com/uploads/LOGO_momo.png"},
		{"eventTitle": "FOOD TRUCK - TBD", "eventDates": slot(day, "", "")},
		{"eventTitle": "FOOD TRUCK - No Date"},
		{"eventTitle": "FOOD TRUCK - Backwards", "eventDates": slot(day, "20:00", "13:00")},
	}

	server := serveJSON(t, payload)
	events, err := newParser(t, server.URL, parser.Deps{}).Parse(context.Background(), fetch.NewSession(fetch.Config{}))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	tests := []struct {
		name       string
		start, end int // hours, -1 for none
		desc       string
	}{
		{"Marination", 13, 20, "Hawaiian"},
		{"MomoExpress", 13, 20, ""},
		{"Momo", 16, 21, ""},
		{event.PlaceholderName, -1, -1, ""},
	}
	if len(events) != len(tests) {
		t.Fatalf("Parse() returned %d events, want %d: %v", len(events), len(tests), events)
	}
	for i, tt := range tests {
		evt := events[i]
		if evt.Name != tt.name {
			t.Errorf("events[%d].Name = %q, want %q", i, evt.Name, tt.name)
		}
		if !evt.Date.Equal(day) {
			t.Errorf("events[%d].Date = %v, want %v", i, evt.Date, day)
		}
		if evt.AIGeneratedName {
			t.Errorf("events[%d].AIGeneratedName = true", i)
		}
		if evt.Description != tt.desc {
			t.Errorf("events[%d].Description = %q, want %q", i, evt.Description, tt.desc)
		}
		if tt.start < 0 {
			if evt.StartTime != nil || evt.EndTime != nil {
				t.Errorf("events[%d] should have no times", i)
			}
			continue
		}
		if evt.StartTime == nil || !evt.StartTime.Equal(event.AtClock(day, tt.start, 0)) {
			t.Errorf("events[%d].StartTime = %v, want %d:00", i, evt.StartTime, tt.start)
		}
		if evt.EndTime == nil || !evt.EndTime.Equal(event.AtClock(day, tt.end, 0)) {
			t.Errorf("events[%d].EndTime = %v, want %d:00", i, evt.EndTime, tt.end)
		}
	}
}

func TestParse_VisionFallback(t *testing.T) {
	day := tz.Today().AddDate(0, 0, 2)
	payload := map[string]any{
		"events": []map[string]any{
			{"eventTitle": "FOOD TRUCK", "eventDates": slot(day, "", ""),
				"eventImage": "https://cdn.example.com/uploads/blk_temp_2.png"},
		},
	}
	server := serveJSON(t, payload)

	tests := []struct {
		name     string
		analyzer vision.Analyzer
		want     string
		wantAI   bool
	}{
		{
			name: "analyzer finds name",
			analyzer: vision.AnalyzerFunc(func(ctx context.Context, url string) (string, error) {
				return "Georgia's Greek", nil
			}),
			want:   "Georgia's Greek",
			wantAI: true,
		},
		{
			name: "analyzer fails",
			analyzer: vision.AnalyzerFunc(func(ctx context.Context, url string) (string, error) {
				return "", errors.New("vision unavailable")
			}),
			want: event.PlaceholderName,
		},
		{
			name: "no analyzer",
			want: event.PlaceholderName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := newParser(t, server.URL, parser.Deps{Vision: tt.analyzer}).
				Parse(context.Background(), fetch.NewSession(fetch.Config{}))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if len(events) != 1 {
				t.Fatalf("Parse() returned %d events, want 1", len(events))
			}
			if events[0].Name != tt.want || events[0].AIGeneratedName != tt.wantAI {
				t.Errorf("event = %q (ai=%v), want %q (ai=%v)", events[0].Name, events[0].AIGeneratedName, tt.want, tt.wantAI)
			}
		})
	}
}

func TestParse_Shapes(t *testing.T) {
	tests := []struct {
		name      string
		payload   any
		wantCount int
		wantErr   bool
	}{
		{"empty list", []any{}, 0, false},
		{"empty object", map[string]any{}, 0, false},
		{"data wrapper", map[string]any{"data": []any{
			map[string]any{"eventTitle": "Paseo", "date": tz.Today().Format("01/02/2006")},
		}}, 1, false},
		{"single object", map[string]any{"eventTitle": "Paseo", "date": tz.Today().Format("01/02/2006")}, 1, false},
		{"events not a list", map[string]any{"events": "nope"}, 0, true},
		{"scalar", 42, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := serveJSON(t, tt.payload)
			events, err := newParser(t, server.URL, parser.Deps{}).Parse(context.Background(), fetch.NewSession(fetch.Config{}))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !parser.IsFailure(err) {
					t.Errorf("Parse() error = %v, want *parser.Failure", err)
				}
				return
			}
			if len(events) != tt.wantCount {
				t.Errorf("Parse() returned %d events, want %d", len(events), tt.wantCount)
			}
		})
	}
}

func TestNameFromFilename(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"LOGO_momo", "Momo"},
		{"kaosamai", "Kaosamai"},
		{"blk_temp", ""},
		{"screen_shot", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := nameFromFilename(tt.input); got != tt.want {
				t.Errorf("nameFromFilename(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

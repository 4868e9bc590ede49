package textsearch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pfrederiksen/around-the-grounds/internal/event"
	"github.com/pfrederiksen/around-the-grounds/internal/fetch"
	"github.com/pfrederiksen/around-the-grounds/internal/logger"
	"github.com/pfrederiksen/around-the-grounds/internal/parser"
	"github.com/pfrederiksen/around-the-grounds/internal/tz"
)

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func newParser(t *testing.T, url string, cfg map[string]any) parser.Parser {
	t.Helper()
	src := event.NewSource("wheelie-pop", "Wheelie Pop Brewing", url, Type, cfg)
	p, err := New(src, parser.Deps{Logger: logger.Discard()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p
}

func TestParse(t *testing.T) {
	tomorrow := tz.Today().AddDate(0, 0, 1)
	later := tz.Today().AddDate(0, 0, 3)
	page := fmt.Sprintf(`<html><body>
<nav><p>Monday, 1/1: Not In Section</p></nav>
<div class="schedule">
  <h2>UPCOMING FOOD TRUCKS</h2>
  <p>%s, %d/%d: Tisket Tasket</p>
  <p>%s , %d/%d :  Marination </p>
  <p>Live music on Friday</p>
  <p>Funday, 7/3: Nobody</p>
  <p></p>
</div>
</body></html>`,
		tomorrow.Weekday(), int(tomorrow.Month()), tomorrow.Day(),
		later.Weekday(), int(later.Month()), later.Day())

	server := serve(t, http.StatusOK, page)
	events, err := newParser(t, server.URL, nil).Parse(context.Background(), fetch.NewSession(fetch.Config{}))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("Parse() returned %d events, want 2: %v", len(events), events)
	}

	tests := []struct {
		name string
		date string
	}{
		{"Tisket Tasket", tomorrow.Format("2006-01-02")},
		{"Marination", later.Format("2006-01-02")},
	}
	for i, tt := range tests {
		if events[i].Name != tt.name {
			t.Errorf("events[%d].Name = %q, want %q", i, events[i].Name, tt.name)
		}
		if got := events[i].Date.Format("2006-01-02"); got != tt.date {
			t.Errorf("events[%d].Date = %s, want %s", i, got, tt.date)
		}
		if events[i].StartTime != nil || events[i].EndTime != nil {
			t.Errorf("events[%d] should have no times", i)
		}
		if events[i].SourceKey != "wheelie-pop" {
			t.Errorf("events[%d].SourceKey = %q", i, events[i].SourceKey)
		}
	}
}

func TestParse_CustomHeading(t *testing.T) {
	tomorrow := tz.Today().AddDate(0, 0, 1)
	page := fmt.Sprintf(`<html><body><section><h3>On Tap This Week</h3><p>%s, %d/%d: Paseo</p></section></body></html>`,
		tomorrow.Weekday(), int(tomorrow.Month()), tomorrow.Day())

	server := serve(t, http.StatusOK, page)
	events, err := newParser(t, server.URL, map[string]any{"heading": "On Tap This Week"}).
		Parse(context.Background(), fetch.NewSession(fetch.Config{}))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(events) != 1 || events[0].Name != "Paseo" {
		t.Errorf("Parse() = %v, want one Paseo event", events)
	}
}

func TestParse_MissingHeading(t *testing.T) {
	server := serve(t, http.StatusOK, `<html><body><p>Monday, 7/7: Paseo</p></body></html>`)
	events, err := newParser(t, server.URL, nil).Parse(context.Background(), fetch.NewSession(fetch.Config{}))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(events) != 0 {
		t.Errorf("Parse() = %v, want no events", events)
	}
}

func TestParse_HTTPFailure(t *testing.T) {
	server := serve(t, http.StatusNotFound, "")
	_, err := newParser(t, server.URL, nil).Parse(context.Background(), fetch.NewSession(fetch.Config{}))

	var f *parser.Failure
	if !errors.As(err, &f) || f.Reason != parser.ReasonNotFound {
		t.Errorf("Parse() error = %v, want not-found Failure", err)
	}
}

package notifier

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/dghubble/go-twitter/twitter" //nolint:staticcheck // Using stable v1.1 API

	"github.com/pfrederiksen/around-the-grounds/internal/event"
	"github.com/pfrederiksen/around-the-grounds/internal/logger"
)

func newEvent(name string, withTimes bool) *event.Event {
	src := event.NewSource("urban-family", "Urban Family Brewing", "https://example.com", "hivey_api", nil)
	evt := event.NewEvent(src, name, time.Date(2026, 7, 16, 0, 0, 0, 0, time.UTC))
	if withTimes {
		start := time.Date(2026, 7, 16, 16, 0, 0, 0, time.UTC)
		end := time.Date(2026, 7, 16, 21, 0, 0, 0, time.UTC)
		evt.SetTimes(&start, &end)
	}
	return evt
}

func TestFormatTweet(t *testing.T) {
	tests := []struct {
		name     string
		event    *event.Event
		hashtags string
		contains []string
		excludes []string
	}{
		{
			name:     "timed event",
			event:    newEvent("MomoExpress", true),
			hashtags: "#Ballard #FoodTrucks",
			contains: []string{
				"🍽️ MomoExpress",
				"📍 Urban Family Brewing",
				"📅 Thu Jul 16, 4:00 PM - 9:00 PM PT",
				"#Ballard #FoodTrucks",
			},
		},
		{
			name:     "date only",
			event:    newEvent("Oskar's Pizza", false),
			contains: []string{"📅 Thu Jul 16\n"},
			excludes: []string{"PM", "#"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tweet := FormatTweet(tt.event, tt.hashtags)
			for _, s := range tt.contains {
				if !strings.Contains(tweet, s) {
					t.Errorf("tweet missing %q:\n%s", s, tweet)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(tweet, s) {
					t.Errorf("tweet should not contain %q:\n%s", s, tweet)
				}
			}
		})
	}
}

func TestFormatTweet_Truncates(t *testing.T) {
	evt := newEvent(strings.Repeat("🌮", 300), true)
	tweet := FormatTweet(evt, "")

	if n := utf8.RuneCountInString(tweet); n != tweetLimit {
		t.Errorf("tweet is %d runes, want %d", n, tweetLimit)
	}
	if !strings.HasSuffix(tweet, "...") {
		t.Error("truncated tweet should end with an ellipsis")
	}
	if !utf8.ValidString(tweet) {
		t.Error("truncation split a rune")
	}
}

func TestDryRunNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewDryRunNotifier(&buf, "#FoodTrucks")

	events := []*event.Event{newEvent("MomoExpress", true), newEvent("Burger Planet", false)}
	if err := n.Notify(context.Background(), events); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	out := buf.String()
	for _, s := range []string{"--- Tweet 1/2 ---", "--- Tweet 2/2 ---", "MomoExpress", "Burger Planet", "(Length: "} {
		if !strings.Contains(out, s) {
			t.Errorf("dry run output missing %q", s)
		}
	}
}

type fakeStatuses struct {
	posted []string
	failOn int
}

func (f *fakeStatuses) Update(status string, _ *twitter.StatusUpdateParams) (*twitter.Tweet, *http.Response, error) {
	if f.failOn > 0 && len(f.posted)+1 == f.failOn {
		return nil, nil, errors.New("rate limited")
	}
	f.posted = append(f.posted, status)
	return &twitter.Tweet{IDStr: "1"}, nil, nil
}

func TestTwitterNotifier_Notify(t *testing.T) {
	events := []*event.Event{newEvent("A", false), newEvent("B", false), newEvent("C", false)}

	t.Run("posts every event", func(t *testing.T) {
		fake := &fakeStatuses{}
		n := &TwitterNotifier{statuses: fake, log: logger.Discard()}
		if err := n.Notify(context.Background(), events); err != nil {
			t.Fatalf("Notify() error = %v", err)
		}
		if len(fake.posted) != 3 {
			t.Errorf("posted %d tweets, want 3", len(fake.posted))
		}
	})

	t.Run("stops at first failure", func(t *testing.T) {
		fake := &fakeStatuses{failOn: 2}
		n := &TwitterNotifier{statuses: fake, log: logger.Discard()}
		err := n.Notify(context.Background(), events)
		if err == nil || !strings.Contains(err.Error(), events[1].ID) {
			t.Fatalf("Notify() error = %v, want failure naming the second event", err)
		}
		if len(fake.posted) != 1 {
			t.Errorf("posted %d tweets before failing, want 1", len(fake.posted))
		}
	})

	t.Run("cancelled between posts", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		fake := &fakeStatuses{}
		n := &TwitterNotifier{statuses: fake, interval: time.Hour, log: logger.Discard()}
		if err := n.Notify(ctx, events); !errors.Is(err, context.Canceled) {
			t.Errorf("Notify() error = %v, want context.Canceled", err)
		}
		if len(fake.posted) != 1 {
			t.Errorf("posted %d tweets, want 1", len(fake.posted))
		}
	})
}

func TestNewTwitterNotifier_MissingCredentials(t *testing.T) {
	_, err := NewTwitterNotifier(TwitterCredentials{APIKey: "k"}, "", nil)
	if !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("NewTwitterNotifier() error = %v, want ErrMissingCredentials", err)
	}

	n, err := NewTwitterNotifier(TwitterCredentials{APIKey: "k", APISecret: "s", AccessToken: "t", AccessSecret: "a"}, "", nil)
	if err != nil || n == nil {
		t.Errorf("NewTwitterNotifier() = %v, %v", n, err)
	}
}

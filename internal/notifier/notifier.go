package notifier

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/pfrederiksen/around-the-grounds/internal/event"
	"github.com/pfrederiksen/around-the-grounds/internal/tz"
)

// tweetLimit is Twitter's per-post character limit.
const tweetLimit = 280

// Notifier defines the interface for posting event notifications
type Notifier interface {
	// Notify posts notifications for the given events
	Notify(ctx context.Context, events []*event.Event) error
}

// FormatTweet renders evt as an announcement no longer than 280 characters.
func FormatTweet(evt *event.Event, hashtags string) string {
	tweet := "🚚 New food truck on the schedule!\n\n"
	tweet += fmt.Sprintf("🍽️ %s\n", evt.Name)
	tweet += fmt.Sprintf("📍 %s\n", evt.SourceName)

	when := evt.Date.Format("Mon Jan 2")
	if evt.StartTime != nil {
		when += ", " + tz.FormatClock(*evt.StartTime, false)
		if evt.EndTime != nil {
			when += " - " + tz.FormatClock(*evt.EndTime, true)
		}
	}
	tweet += fmt.Sprintf("📅 %s\n", when)

	if hashtags != "" {
		tweet += "\n" + hashtags
	}

	return truncate(tweet, tweetLimit)
}

// truncate cuts s to at most limit runes, ending in an ellipsis when cut.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-3]) + "..."
}

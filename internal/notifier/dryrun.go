package notifier

import (
	"context"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/pfrederiksen/around-the-grounds/internal/event"
)

// DryRunNotifier prints what would be tweeted without actually posting
type DryRunNotifier struct {
	w        io.Writer
	hashtags string
}

// NewDryRunNotifier creates a new dry-run notifier writing to w
func NewDryRunNotifier(w io.Writer, hashtags string) *DryRunNotifier {
	return &DryRunNotifier{w: w, hashtags: hashtags}
}

// Notify prints the tweets that would be posted
func (n *DryRunNotifier) Notify(ctx context.Context, events []*event.Event) error {
	for i, evt := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		tweet := FormatTweet(evt, n.hashtags)
		fmt.Fprintf(n.w, "--- Tweet %d/%d ---\n", i+1, len(events))
		fmt.Fprintln(n.w, tweet)
		fmt.Fprintf(n.w, "\n(Length: %d characters)\n\n", utf8.RuneCountInString(tweet))
	}
	return nil
}

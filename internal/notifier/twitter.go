package notifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dghubble/go-twitter/twitter" //nolint:staticcheck // Using stable v1.1 API
	"github.com/dghubble/oauth1"

	"github.com/pfrederiksen/around-the-grounds/internal/event"
	"github.com/pfrederiksen/around-the-grounds/internal/logger"
)

// DefaultTweetInterval is the pause between consecutive tweets.
const DefaultTweetInterval = 2 * time.Second

// ErrMissingCredentials is returned when any Twitter credential is empty.
var ErrMissingCredentials = errors.New("missing required Twitter credentials")

// TwitterCredentials holds the OAuth 1.0a user-context keys.
type TwitterCredentials struct {
	APIKey       string `mapstructure:"api_key"`
	APISecret    string `mapstructure:"api_secret"`
	AccessToken  string `mapstructure:"access_token"`
	AccessSecret string `mapstructure:"access_secret"`
}

func (c TwitterCredentials) complete() bool {
	return c.APIKey != "" && c.APISecret != "" && c.AccessToken != "" && c.AccessSecret != ""
}

type statusUpdater interface {
	Update(status string, params *twitter.StatusUpdateParams) (*twitter.Tweet, *http.Response, error)
}

// TwitterNotifier posts events to Twitter
type TwitterNotifier struct {
	statuses statusUpdater
	hashtags string
	interval time.Duration
	log      *logger.Logger
}

// NewTwitterNotifier creates a Twitter notifier from OAuth credentials.
func NewTwitterNotifier(creds TwitterCredentials, hashtags string, log *logger.Logger) (*TwitterNotifier, error) {
	if !creds.complete() {
		return nil, ErrMissingCredentials
	}
	if log == nil {
		log = logger.Discard()
	}

	config := oauth1.NewConfig(creds.APIKey, creds.APISecret)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessSecret)
	httpClient := config.Client(oauth1.NoContext, token)
	client := twitter.NewClient(httpClient)

	return &TwitterNotifier{
		statuses: client.Statuses,
		hashtags: hashtags,
		interval: DefaultTweetInterval,
		log:      log,
	}, nil
}

// Notify posts one tweet per event, pausing between posts.
// It stops at the first failure.
func (n *TwitterNotifier) Notify(ctx context.Context, events []*event.Event) error {
	for i, evt := range events {
		tweet := FormatTweet(evt, n.hashtags)

		posted, _, err := n.statuses.Update(tweet, nil)
		if err != nil {
			return fmt.Errorf("failed to post tweet for event %s: %w", evt.ID, err)
		}
		if posted != nil {
			n.log.Info("Posted tweet", logger.Fields{"event_id": evt.ID, "tweet_id": posted.IDStr})
		}

		if i < len(events)-1 && n.interval > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(n.interval):
			}
		}
	}

	return nil
}

package vision

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cenkalti/backoff/v4"

	"github.com/pfrederiksen/around-the-grounds/internal/fetch"
)

const (
	DefaultBaseURL = "https://api.anthropic.com/"
	DefaultModel   = "claude-sonnet-4-20250514"
	maxTokens      = 200
)

const prompt = `This image is a food truck or restaurant logo.
Reply with ONLY the business name, for example "Marination" or "Georgia's Greek".
Leave out words like "Food Truck", "Kitchen" or "Catering" unless they are part of the name.
If no business name is clearly visible, reply with "UNKNOWN".`

// ClaudeConfig configures a Claude analyzer.
type ClaudeConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration

	// MaxRetries is the number of retries after the first request.
	MaxRetries    int
	RetryInterval time.Duration

	// HTTPClient carries the requests. Pass fetch.Session.HTTPClient to share
	// the scrape's connection pool; nil uses a private client.
	HTTPClient *http.Client
}

// Claude analyzes images with the Anthropic Messages API.
type Claude struct {
	cfg    ClaudeConfig
	client anthropic.Client
}

// NewClaude creates a Claude analyzer. An empty API key is an error.
func NewClaude(cfg ClaudeConfig) (*Claude, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("vision: API key required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = time.Second
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithRequestTimeout(cfg.Timeout),
		// retries are driven by Analyze
		option.WithMaxRetries(0),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	return &Claude{
		cfg:    cfg,
		client: anthropic.NewClient(opts...),
	}, nil
}

// Analyze sends imageURL to the model. Timeouts and 5xx responses are retried
// with exponential backoff; other API errors are returned immediately.
func (c *Claude) Analyze(ctx context.Context, imageURL string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.cfg.Model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewImageBlock(anthropic.URLImageSourceParam{URL: imageURL}),
				anthropic.NewTextBlock(prompt),
			),
		},
	}

	var text string
	op := func() error {
		msg, err := c.client.Messages.New(ctx, params)
		if err != nil {
			return retryable(err)
		}
		text = replyText(msg)
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.RetryInterval
	b.MaxElapsedTime = 0
	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.cfg.MaxRetries)), ctx)); err != nil {
		return "", fmt.Errorf("vision request: %w", err)
	}

	text = strings.TrimSpace(text)
	if text == "" || strings.EqualFold(text, "UNKNOWN") {
		return "", ErrNoName
	}
	name := CleanVendorName(text)
	if name == "" {
		return "", ErrNoName
	}
	return name, nil
}

// retryable marks err permanent unless it is a server error or a timeout.
func retryable(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode >= http.StatusInternalServerError {
			return err
		}
		return backoff.Permanent(err)
	}
	if fetch.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return backoff.Permanent(err)
}

func replyText(msg *anthropic.Message) string {
	for _, block := range msg.Content {
		if block.Type == "text" {
			return block.Text
		}
	}
	return ""
}

package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/around-the-grounds/internal/event"
	"github.com/pfrederiksen/around-the-grounds/internal/fetch"
	"github.com/pfrederiksen/around-the-grounds/internal/logger"
)

// Base holds what every concrete parser needs: its source, a logger bound to
// that source, and the shared fetch helpers. Concrete parsers embed it.
type Base struct {
	Source event.Source
	Log    *logger.Logger
}

// NewBase creates a Base for src.
func NewBase(src event.Source, deps Deps) Base {
	return Base{
		Source: src,
		Log:    deps.Log().With(logger.Fields{"source": src.Key, "parser_type": src.ParserType}),
	}
}

// Fetch GETs url and returns the response body. Non-200 statuses and empty
// bodies are returned as *Failure; transport errors pass through unchanged.
func (b Base) Fetch(ctx context.Context, sess *fetch.Session, url string, opts ...fetch.RequestOption) ([]byte, error) {
	b.Log.Debug("Fetching page", logger.Fields{"url": url})

	resp, err := sess.Get(ctx, url, opts...)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, StatusFailure(url, resp.StatusCode)
	}
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil, &Failure{Reason: ReasonEmptyResponse, URL: url}
	}
	return resp.Body, nil
}

// FetchDocument fetches url and parses it as HTML.
func (b Base) FetchDocument(ctx context.Context, sess *fetch.Session, url string, opts ...fetch.RequestOption) (*goquery.Document, error) {
	body, err := b.Fetch(ctx, sess, url, opts...)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, Malformed(url, err, "parsing HTML")
	}

	if doc.Find("html").Length() == 0 && doc.Find("body").Length() == 0 {
		b.Log.Warn("Response doesn't appear to be HTML", logger.Fields{"url": url})
	}
	return doc, nil
}

// FetchJSON fetches url and decodes the body into v.
func (b Base) FetchJSON(ctx context.Context, sess *fetch.Session, url string, v interface{}, opts ...fetch.RequestOption) error {
	body, err := b.Fetch(ctx, sess, url, opts...)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return Malformed(url, err, "invalid JSON response")
	}
	return nil
}

// FilterValid runs events through the package-level FilterValid with this
// parser's logger and logs the counts.
func (b Base) FilterValid(events []*event.Event) []*event.Event {
	valid := FilterValid(events, b.Log)
	b.Log.Info("Parsed events", logger.Fields{"valid": len(valid), "total": len(events)})
	return valid
}

package parser

import (
	"context"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/pfrederiksen/around-the-grounds/internal/event"
	"github.com/pfrederiksen/around-the-grounds/internal/fetch"
	"github.com/pfrederiksen/around-the-grounds/internal/logger"
	"github.com/pfrederiksen/around-the-grounds/internal/vision"
)

// Parser extracts events for one source.
//
// Parse returns only events that passed FilterValid. Expected failures
// (unreachable page, bad status, content of the wrong shape) are returned as
// *Failure; transport errors from the session are returned unchanged.
type Parser interface {
	Parse(ctx context.Context, sess *fetch.Session) ([]*event.Event, error)
}

// ParserFunc adapts a function to the Parser interface.
type ParserFunc func(ctx context.Context, sess *fetch.Session) ([]*event.Event, error)

func (f ParserFunc) Parse(ctx context.Context, sess *fetch.Session) ([]*event.Event, error) {
	return f(ctx, sess)
}

// Deps are the collaborators a parser may use. Any field may be nil.
type Deps struct {
	Vision vision.Analyzer
	Logger *logger.Logger
}

// Log returns the configured logger or the package default.
func (d Deps) Log() *logger.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return logger.Default()
}

// Constructor builds a Parser for a source. A returned error means the
// source's configuration is unusable.
type Constructor func(src event.Source, deps Deps) (Parser, error)

// Validate reports whether evt is structurally complete: source identity set,
// a non-blank name, a date, and when both times are present end after start.
func Validate(evt *event.Event) bool {
	if evt == nil {
		return false
	}
	if evt.SourceKey == "" || evt.SourceName == "" {
		return false
	}
	if strings.TrimSpace(evt.Name) == "" {
		return false
	}
	if evt.Date.IsZero() {
		return false
	}
	return evt.HasValidTimeRange()
}

// FilterValid returns the events that pass Validate. Dropped events are logged
// at debug level.
func FilterValid(events []*event.Event, log *logger.Logger) []*event.Event {
	if log == nil {
		log = logger.Default()
	}
	valid := make([]*event.Event, 0, len(events))
	for _, evt := range events {
		if Validate(evt) {
			valid = append(valid, evt)
			continue
		}
		fields := logger.Fields{}
		if evt != nil {
			fields["source"] = evt.SourceKey
			fields["event"] = evt.String()
		}
		log.Debug("Filtered out invalid event", fields)
	}
	return valid
}

// DecodeConfig decodes a source's parser config into out, which must be a
// pointer to a struct with mapstructure tags. Values are weakly typed so YAML
// and JSON configs decode the same way.
func DecodeConfig(src event.Source, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return fmt.Errorf("creating config decoder: %w", err)
	}
	if err := dec.Decode(src.Config()); err != nil {
		return fmt.Errorf("source %s: invalid parser_config: %w", src.Key, err)
	}
	return nil
}

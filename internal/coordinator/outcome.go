package coordinator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"

	"github.com/pfrederiksen/around-the-grounds/internal/event"
	"github.com/pfrederiksen/around-the-grounds/internal/fetch"
	"github.com/pfrederiksen/around-the-grounds/internal/parser"
)

type tag int

const (
	tagSuccess tag = iota
	tagRetryable
	tagFatal
)

// outcome is the result of one parse attempt.
type outcome struct {
	tag    tag
	events []*event.Event
	kind   Kind
	err    error
}

func success(events []*event.Event) outcome {
	if events == nil {
		events = []*event.Event{}
	}
	return outcome{tag: tagSuccess, events: events}
}

func failure(kind Kind, err error) outcome {
	t := tagFatal
	if kind.Retryable() {
		t = tagRetryable
	}
	return outcome{tag: t, kind: kind, err: err}
}

func (o outcome) label() string {
	switch o.tag {
	case tagSuccess:
		return "success"
	case tagRetryable:
		return "retryable"
	default:
		return "fatal"
	}
}

// panicError carries a value recovered from a panicking parser.
type panicError struct {
	value interface{}
}

func (e *panicError) Error() string {
	return fmt.Sprintf("parser panicked: %v", e.value)
}

// classify maps an attempt error to a failure kind.
func classify(err error) Kind {
	var failure *parser.Failure
	if errors.As(err, &failure) {
		return KindParser
	}
	if fetch.IsTimeout(err) {
		return KindNetworkTimeout
	}

	var (
		transportErr *fetch.TransportError
		netErr       net.Error
		urlErr       *url.Error
	)
	switch {
	case errors.As(err, &transportErr),
		errors.As(err, &netErr),
		errors.As(err, &urlErr),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, io.EOF),
		errors.Is(err, context.Canceled):
		return KindNetwork
	}
	return KindUnexpected
}

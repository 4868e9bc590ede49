package coordinator

import (
	"fmt"
	"time"

	"github.com/pfrederiksen/around-the-grounds/internal/event"
)

// Kind classifies a source failure.
type Kind string

const (
	KindConfiguration  Kind = "Configuration Error"
	KindNetworkTimeout Kind = "Network Timeout"
	KindNetwork        Kind = "Network Error"
	KindParser         Kind = "Parser Error"
	KindUnexpected     Kind = "Unexpected Error"
)

// Retryable reports whether another attempt may succeed.
func (k Kind) Retryable() bool {
	switch k {
	case KindNetworkTimeout, KindNetwork, KindUnexpected:
		return true
	default:
		return false
	}
}

// SourceError is the one failure recorded for a source in a run.
type SourceError struct {
	Source     event.Source
	Kind       Kind
	Message    string
	Attempts   int
	OccurredAt time.Time
	Err        error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Source.Key, e.Kind, e.Message)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// UserMessage is a stable description without run-specific detail, suitable
// for showing to users and for deduplication.
func (e *SourceError) UserMessage() string {
	return "Failed to fetch information for source: " + e.Source.Name
}

// UserMessages returns the distinct user messages of errs in first-seen order.
func UserMessages(errs []*SourceError) []string {
	seen := make(map[string]bool, len(errs))
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msg := e.UserMessage()
		if seen[msg] {
			continue
		}
		seen[msg] = true
		msgs = append(msgs, msg)
	}
	return msgs
}

package parser

import (
	"errors"
	"fmt"
)

// Reason classifies why a parse failed.
type Reason string

const (
	ReasonNotFound      Reason = "not found"
	ReasonForbidden     Reason = "forbidden"
	ReasonServerError   Reason = "server error"
	ReasonHTTPStatus    Reason = "http error"
	ReasonEmptyResponse Reason = "empty response"
	ReasonMalformed     Reason = "malformed content"
)

// Failure is an expected parse failure. Retrying the same source immediately
// is not expected to help.
type Failure struct {
	Reason Reason
	URL    string
	Status int // HTTP status, 0 when not applicable
	Msg    string
	Err    error
}

func (f *Failure) Error() string {
	msg := string(f.Reason)
	if f.Status != 0 {
		msg = fmt.Sprintf("%s (%d)", msg, f.Status)
	}
	if f.URL != "" {
		msg += ": " + f.URL
	}
	if f.Msg != "" {
		msg += ": " + f.Msg
	}
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	return msg
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Failf creates a Failure with a formatted message.
func Failf(reason Reason, url, format string, args ...interface{}) *Failure {
	return &Failure{Reason: reason, URL: url, Msg: fmt.Sprintf(format, args...)}
}

// Malformed creates a Failure for content that could not be understood.
func Malformed(url string, err error, format string, args ...interface{}) *Failure {
	return &Failure{Reason: ReasonMalformed, URL: url, Msg: fmt.Sprintf(format, args...), Err: err}
}

// StatusFailure classifies a non-200 HTTP status.
func StatusFailure(url string, status int) *Failure {
	f := &Failure{URL: url, Status: status}
	switch {
	case status == 404:
		f.Reason = ReasonNotFound
	case status == 403:
		f.Reason = ReasonForbidden
	case status >= 500 && status <= 599:
		f.Reason = ReasonServerError
	default:
		f.Reason = ReasonHTTPStatus
	}
	return f
}

// IsFailure reports whether err is or wraps a *Failure.
func IsFailure(err error) bool {
	var f *Failure
	return errors.As(err, &f)
}

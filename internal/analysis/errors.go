package analysis

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline failures so each front-end can pick its own
// status code or message.
type ErrorKind string

const (
	InvalidRequest ErrorKind = "invalid_request"
	PathNotFound   ErrorKind = "path_not_found"
	LaunchFailed   ErrorKind = "launch_failed"
	TimedOut       ErrorKind = "timed_out"
	AnalyzerExit   ErrorKind = "analyzer_exit"
	NoArtifacts    ErrorKind = "no_artifacts"
	Canceled       ErrorKind = "canceled"
	Internal       ErrorKind = "internal"
)

// Sentinels for errors.Is matching against an *Error of the same kind.
var (
	ErrInvalidRequest = &Error{Kind: InvalidRequest}
	ErrPathNotFound   = &Error{Kind: PathNotFound}
	ErrLaunchFailed   = &Error{Kind: LaunchFailed}
	ErrTimedOut       = &Error{Kind: TimedOut}
	ErrAnalyzerExit   = &Error{Kind: AnalyzerExit}
	ErrNoArtifacts    = &Error{Kind: NoArtifacts}
	ErrCanceled       = &Error{Kind: Canceled}
)

// Error is a classified pipeline failure.
type Error struct {
	Kind ErrorKind
	Msg  string
	// Detail carries diagnostic text from the analyzer, usually its stderr.
	Detail string
	// Stdout is what the analyzer printed before failing, if anything.
	Stdout string
	Err    error
}

// Errorf builds an *Error of the given kind.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error of the given kind around a cause.
func Wrap(kind ErrorKind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.Detail != "" {
		msg = msg + "\n" + e.Detail
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same Kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of err, or Internal for unclassified errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

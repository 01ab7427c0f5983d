package steps

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoData is returned when a CSV has no data rows.
var ErrNoData = errors.New("No data found in CSV file")

// StatusError is returned when the CSV is fetched over HTTP and the server
// answers with a non-2xx status.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error! status: %d", e.Code)
}

// NotFoundError indicates that the CSV does not exist at the given location.
// This is surfaced as a typed error so callers can adjust UX (e.g., print a path hint).
// A 404 from an HTTP fetch keeps the status message.
type NotFoundError struct {
	Source string
	cause  error
}

func (e *NotFoundError) Error() string {
	var se *StatusError
	if e != nil && errors.As(e.cause, &se) {
		return se.Error()
	}
	if e == nil || e.Source == "" {
		return "steps data not found"
	}
	return fmt.Sprintf("steps data %q not found", e.Source)
}

func (e *NotFoundError) Unwrap() error { return e.cause }

// TooLargeError is returned when a source holds more than the read limit.
type TooLargeError struct {
	Source string
	Limit  int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("%s is larger than %d bytes", e.Source, e.Limit)
}

// AuthError indicates that GitHub credentials were required but missing or rejected.
type AuthError struct {
	Message string
	cause   error
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return "GitHub authentication failed"
	}
	return e.Message
}

func (e *AuthError) Unwrap() error { return e.cause }

// ParseError reports a malformed CSV row. Line is 1-based and counts the header.
type ParseError struct {
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d: invalid %s %q: %v", e.Line, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

func IsAuth(err error) bool {
	var e *AuthError
	return errors.As(err, &e)
}

func isGhAuthMissing(err error) bool {
	if err == nil {
		return false
	}
	// Observed from go-gh when neither a token nor a gh login is available:
	// "authentication token not found for host github.com"
	msg := err.Error()
	return strings.Contains(msg, "authentication token not found") ||
		strings.Contains(msg, "not logged into")
}

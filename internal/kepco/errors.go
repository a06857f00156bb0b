package kepco

import (
	"errors"
	"fmt"
)

// sampleSize is how much of an unreadable body is kept for diagnosis.
const sampleSize = 300

// ErrMalformedResponse is matched by every ParseError.
var ErrMalformedResponse = errors.New("malformed upstream response")

// ParseError means no JSON could be recovered from an upstream body.
type ParseError struct {
	Sample string // first 300 characters of the raw body
}

func newParseError(body string) *ParseError {
	return &ParseError{Sample: sample(body, sampleSize)}
}

func (e *ParseError) Error() string {
	return "KEPCO upstream parse failure"
}

func (e *ParseError) Unwrap() error {
	return ErrMalformedResponse
}

// StatusError represents a non-2xx reply from the upstream API
type StatusError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("KEPCO %s returned status %d: %s", e.Operation, e.StatusCode, e.Body)
}

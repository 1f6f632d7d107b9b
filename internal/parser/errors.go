package parser

import "errors"

// ErrNoParser means no registered parser accepted an object.
var ErrNoParser = errors.New("no parser found")

// Field extraction failure modes. Each is distinct so callers can tell a
// missing field from a garbled one.
var (
	ErrFieldMissing  = errors.New("field missing")
	ErrFieldType     = errors.New("field type mismatch")
	ErrFieldOverflow = errors.New("field value overflow")
)

// ParseError reports a raw-object decoding failure.
type ParseError struct {
	ObjectID string
	Field    string
	Reason   string
	Err      error
}

func (e *ParseError) Error() string {
	msg := "parse object"
	if e.ObjectID != "" {
		msg += " " + e.ObjectID
	}
	if e.Field != "" {
		msg += ": field " + e.Field
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

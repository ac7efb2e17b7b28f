// Package booking composes link validation, availability math and the
// transactional commit into the candidate-facing booking flow.
package booking

import "fmt"

// ErrorKind groups booking failures by how the HTTP layer should report them.
type ErrorKind string

const (
	// KindInvalidInput covers malformed dates, times and payloads.
	KindInvalidInput ErrorKind = "invalid_input"
	// KindInvalidToken is the single opaque failure for every token problem.
	KindInvalidToken ErrorKind = "invalid_token"
	// KindTemporal covers requests for times that are not bookable: past,
	// short notice, blocked or outside the advance window.
	KindTemporal ErrorKind = "temporal"
	// KindConflict means another booking holds the requested time.
	KindConflict ErrorKind = "conflict"
	// KindInternal covers storage and infrastructure failures.
	KindInternal ErrorKind = "internal"
)

// Stable machine-readable codes carried alongside the kind.
const (
	CodeBadDate        = "bad_date"
	CodeBadTime        = "bad_time"
	CodeInvalidToken   = "invalid_token"
	CodeInThePast      = "in_the_past"
	CodeShortNotice    = "too_short_notice"
	CodeTooFarAhead    = "too_far_ahead"
	CodeBlockedHoliday = "blocked_holiday"
	CodeBlockedLunch   = "blocked_lunch"
	CodeNotBookable    = "not_bookable"
	CodeConflict       = "conflict"
	CodeInternal       = "internal_error"
)

// Error is a classified booking failure.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("booking: %s: %v", e.Code, e.cause)
	}
	return fmt.Sprintf("booking: %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

func invalidInput(code, msg string) *Error {
	return &Error{Kind: KindInvalidInput, Code: code, Message: msg}
}

func invalidToken() *Error {
	return &Error{Kind: KindInvalidToken, Code: CodeInvalidToken, Message: "This booking link is invalid or has expired."}
}

func temporal(code, msg string) *Error {
	return &Error{Kind: KindTemporal, Code: code, Message: msg}
}

func conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Code: CodeConflict, Message: msg}
}

func internal(err error) *Error {
	return &Error{Kind: KindInternal, Code: CodeInternal, Message: "Something went wrong. Please try again.", cause: err}
}

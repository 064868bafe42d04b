package helpers

import (
	"fmt"
)

var (
	// ErrCryptoFailure is returned when a payload fails to decrypt: bad point,
	// tag mismatch, pad error, or a payload shorter than the minimum wire length.
	ErrCryptoFailure = NewError("CRYPTO_FAILURE")

	// ErrCredentialsUnavailable is returned when the credential store is
	// unreachable or returns a malformed blob.
	ErrCredentialsUnavailable = NewError("CREDENTIALS_UNAVAILABLE")

	// ErrValidationFailure is returned for a malformed device record or
	// response shape.
	ErrValidationFailure = NewError("VALIDATION_FAILURE")

	// ErrBudgetExhausted is returned when the fetch engine's credential-refresh
	// budget is exhausted. An entry that exhausts its own attempt budget is
	// dropped with a log line instead.
	ErrBudgetExhausted = NewError("BUDGET_EXHAUSTED")

	// ErrAppleAuthExpired names an Apple 401 response. The dispatch loop does
	// not return it: it handles a 401 directly by refreshing credentials and
	// returns ErrBudgetExhausted once the refresh budget is spent.
	ErrAppleAuthExpired = NewError("APPLE_AUTH_EXPIRED")

	// ErrNoMorePages names the end of the device-metadata catalog. The device
	// client does not return it: an empty page signals the end.
	ErrNoMorePages = NewError("NO_MORE_PAGES")

	// ErrDuplicateTracker is logged when two trackers share a private key; the
	// later tracker is skipped.
	ErrDuplicateTracker = NewError("DUPLICATE_TRACKER")
)

// Error is a struct that represents an error with an opaque title and details,
// JSON-serializable, suitable for returning to a caller or logging.
type Error struct {
	Title string `json:"title"`
	Err   any    `json:"details,omitempty"`
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %+v", e.Title, e.Err)
	}
	return e.Title
}

// Is lets errors.Is match on Title alone, so wrapped instances with
// different Err payloads still compare equal to a sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Title == t.Title
}

// NewError creates a new sentinel Error with no details.
func NewError(title string) *Error {
	return &Error{Title: title}
}

// NewErrorDetails creates a new Error carrying arbitrary details.
func NewErrorDetails(title string, err any) *Error {
	return &Error{Title: title, Err: err}
}

// WithDetails returns a copy of the sentinel carrying additional context.
func (e *Error) WithDetails(details any) *Error {
	return &Error{Title: e.Title, Err: details}
}

// NewErrorFromError wraps a generic error as an internal-failure Error.
func NewErrorFromError(err error) *Error {
	if err == nil {
		return nil
	}
	if asErr, ok := err.(*Error); ok {
		return asErr
	}
	return NewErrorDetails("internal_error", err.Error())
}

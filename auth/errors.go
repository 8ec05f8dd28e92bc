package auth

import "errors"

// Classification sentinels for authentication failures. Handlers map each
// class to an HTTP status; messages stay stable so clients can rely on them.
var (
	// ErrInvalidInput marks caller-supplied data failing a precondition.
	// Nothing is persisted when it is returned.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict marks a target state that already exists incompatibly,
	// such as an email already registered through a different method.
	ErrConflict = errors.New("conflict")

	// ErrNotFound marks a missing intermediate record, typically a pending
	// signup that expired. The caller must restart the flow.
	ErrNotFound = errors.New("not found")

	// ErrInvalidOrExpired marks a passcode that does not match or has
	// passed its expiry. The caller may request a resend.
	ErrInvalidOrExpired = errors.New("invalid or expired passcode")

	// ErrUnauthorized marks failed credential or token checks.
	ErrUnauthorized = errors.New("unauthorized")
)

// Error pairs a classification sentinel with a human-readable message.
type Error struct {
	Err     error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func invalidInput(message string) *Error {
	return &Error{Err: ErrInvalidInput, Message: message}
}

func conflict(message string) *Error {
	return &Error{Err: ErrConflict, Message: message}
}

func notFound(message string) *Error {
	return &Error{Err: ErrNotFound, Message: message}
}

func invalidOrExpired() *Error {
	return &Error{Err: ErrInvalidOrExpired, Message: "invalid or expired passcode"}
}

func unauthorized(message string) *Error {
	return &Error{Err: ErrUnauthorized, Message: message}
}

package domain

import "errors"

// Error kinds. Every user-facing failure unwraps to exactly one of these.
var (
	ErrValidation   = errors.New("validation")
	ErrNotFound     = errors.New("not found")
	ErrLocked       = errors.New("locked")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrState        = errors.New("state")
	ErrLimited      = errors.New("rate limited")
)

// Error is a failure reported to the calling connection only.
// Its text is safe to put in an acknowledgment.
type Error struct {
	kind error
	msg  string
}

func newError(kind error, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }
func (e *Error) Unwrap() error { return e.kind }

var (
	ErrInvalidNickname = newError(ErrValidation, "Invalid nickname.")
	ErrEmptyMessage    = newError(ErrValidation, "Empty message.")
	ErrMessageTooLong  = newError(ErrValidation, "Message too long.")
	ErrInvalidPayload  = newError(ErrValidation, "Invalid payload.")
	ErrUnsupported     = newError(ErrValidation, "Unsupported event.")

	ErrRoomNotFound    = newError(ErrNotFound, "Room not found.")
	ErrMessageNotFound = newError(ErrNotFound, "Message not found.")
	ErrUserNotFound    = newError(ErrNotFound, "User not found.")

	ErrRoomLocked    = newError(ErrLocked, "This room is locked.")
	ErrNicknameTaken = newError(ErrConflict, "Nickname already taken in this room.")
	ErrNotAuthorized = newError(ErrUnauthorized, "Not authorized.")

	ErrNotInRoom     = newError(ErrState, "Not in a room.")
	ErrAlreadyInRoom = newError(ErrState, "Already in a room.")
	ErrNoSession     = newError(ErrState, "Not connected.")

	ErrTooManyMessages = newError(ErrLimited, "Too many messages, please slow down.")
)

// PublicMessage returns the text to show a client for err.
// Errors outside the taxonomy are not leaked.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.msg
	}
	return "Internal error."
}

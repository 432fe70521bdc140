package serviceerr

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeUnknown    Code = "unknown"
	CodeValidation Code = "validation"
	CodeTransport  Code = "transport"
	CodeProtocol   Code = "protocol"
	CodeBusy       Code = "busy"
	CodeNotFound   Code = "not_found"
	CodeConflict   Code = "conflict"
	CodeDiscarded  Code = "discarded"
)

// GenericMessage is shown to the user whenever no better message is available.
const GenericMessage = "Something went wrong. Please try again."

// Error is a categorised error. A predefined Error without a description
// matches every Error of the same code under errors.Is.
type Error struct {
	Err         Code
	Description string
}

func (e *Error) Error() string {
	if e.Description == "" {
		return string(e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Err, e.Description)
}

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || t.Err != e.Err {
		return false
	}

	return t.Description == "" || t.Description == e.Description
}

var (
	// Categories
	ErrUnknown    = &Error{Err: CodeUnknown}
	ErrValidation = &Error{Err: CodeValidation}
	ErrTransport  = &Error{Err: CodeTransport}
	ErrProtocol   = &Error{Err: CodeProtocol}

	ErrBusy     = &Error{Err: CodeBusy, Description: "a request is already in progress"}
	ErrNotFound = &Error{Err: CodeNotFound, Description: "not found"}
	ErrConflict = &Error{Err: CodeConflict, Description: "already exists"}

	// ErrDiscarded is returned for work that finished after its session was torn down.
	ErrDiscarded = &Error{Err: CodeDiscarded, Description: "session was discarded"}

	// Validation errors
	ErrEmptyEmail       = &Error{Err: CodeValidation, Description: "email is required"}
	ErrEmptyOTP         = &Error{Err: CodeValidation, Description: "verification code is required"}
	ErrEmptyPassword    = &Error{Err: CodeValidation, Description: "password is required"}
	ErrPasswordMismatch = &Error{Err: CodeValidation, Description: "passwords do not match"}
	ErrNoToken          = &Error{Err: CodeValidation, Description: "session expired, please start again"}
	ErrWrongStep        = &Error{Err: CodeValidation, Description: "operation not allowed at this step"}

	// Protocol errors
	ErrNoTokenReturned    = &Error{Err: CodeProtocol, Description: "no token returned"}
	ErrVerificationFailed = &Error{Err: CodeProtocol, Description: "verification failed"}
	ErrTokenExpired       = &Error{Err: CodeProtocol, Description: "the issued token has already expired"}
)

// Protocol returns a protocol error carrying the server supplied message.
func Protocol(message string) error {
	if message == "" {
		return ErrProtocol
	}

	return &Error{Err: CodeProtocol, Description: message}
}

// Transport marks err as a transport failure.
func Transport(err error) error {
	return fmt.Errorf("%w: %w", ErrTransport, err)
}

// Message maps err to the single message shown to the user.
// Transport and uncategorised errors always map to GenericMessage.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	if !errors.As(err, &e) || e.Err == CodeTransport || e.Err == CodeUnknown || e.Description == "" {
		return GenericMessage
	}

	return e.Description
}

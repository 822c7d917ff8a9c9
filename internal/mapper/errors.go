package mapper

import (
	"errors"
	"fmt"
)

// Code classifies an editor rejection.
type Code string

// Rejection codes. Every rejection leaves the graph exactly as it was.
const (
	CodePoolExhausted       Code = "POOL_EXHAUSTED"
	CodeCellOccupied        Code = "CELL_OCCUPIED"
	CodeInvalidDirection    Code = "INVALID_DIRECTION"
	CodePathBlocked         Code = "PATH_BLOCKED"
	CodeDuplicateExit       Code = "DUPLICATE_EXIT"
	CodeUnresolvedReference Code = "UNRESOLVED_REFERENCE"
	CodeRangeViolation      Code = "RANGE_VIOLATION"
	CodeRoomNotFound        Code = "ROOM_NOT_FOUND"
	CodeLinkNotFound        Code = "LINK_NOT_FOUND"
)

// String returns the string representation of the code.
func (c Code) String() string {
	return string(c)
}

// Sentinels for errors.Is matching; comparison is by Code only.
var (
	ErrPoolExhausted       = &Error{Code: CodePoolExhausted}
	ErrCellOccupied        = &Error{Code: CodeCellOccupied}
	ErrInvalidDirection    = &Error{Code: CodeInvalidDirection}
	ErrPathBlocked         = &Error{Code: CodePathBlocked}
	ErrDuplicateExit       = &Error{Code: CodeDuplicateExit}
	ErrUnresolvedReference = &Error{Code: CodeUnresolvedReference}
	ErrRangeViolation      = &Error{Code: CodeRangeViolation}
	ErrRoomNotFound        = &Error{Code: CodeRoomNotFound}
	ErrLinkNotFound        = &Error{Code: CodeLinkNotFound}
)

// Error is a user-visible rejection raised by the editor.
type Error struct {
	Code    Code
	Message string
	Meta    map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// WithMeta attaches a metadata entry and returns e.
func (e *Error) WithMeta(key string, value any) *Error {
	if e.Meta == nil {
		e.Meta = make(map[string]any)
	}
	e.Meta[key] = value
	return e
}

func newError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the Code of err, or "" when err is not an *Error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

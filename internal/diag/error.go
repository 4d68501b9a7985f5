// Package diag defines the failures of the IDL pipeline and renders them for humans.
package diag

import (
	"errors"
	"fmt"

	"ccidl/internal/source"
)

// Error is a hard, unrecoverable failure tied to a place in the input.
type Error struct {
	Code    Code
	Span    source.Span
	Message string
}

func Errorf(code Code, span source.Span, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Span:    span,
		Message: fmt.Sprintf(format, args...),
	}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at offset %d: %s", e.Code, e.Span.Start, e.Message)
}

// Is matches a bare Code target.
func (e *Error) Is(target error) bool {
	code, ok := target.(Code)
	return ok && code == e.Code
}

// CodeOf extracts the Code of the first *Error in err's chain.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return UnknownCode
}

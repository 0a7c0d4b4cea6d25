package iccimage

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Code classifies a failure.
type Code int

const (
	CodeUnknown Code = iota
	CodeNotImplemented
	CodeInvalidDimension
	CodeInvalidChannelCount
	CodeInvalidComponentWidth
	CodeInvalidBufferSize
	CodeProfileOpenFailure
	CodeTransformCreationFailure
	CodeTransformApplyFailure
	CodeProfileSaveFailure
	CodeAllocationFailure
)

var codeNames = [...]string{
	CodeUnknown:                  "unknown",
	CodeNotImplemented:           "not implemented",
	CodeInvalidDimension:         "invalid dimension",
	CodeInvalidChannelCount:      "invalid channel count",
	CodeInvalidComponentWidth:    "invalid component width",
	CodeInvalidBufferSize:        "invalid buffer size",
	CodeProfileOpenFailure:       "profile open failure",
	CodeTransformCreationFailure: "transform creation failure",
	CodeTransformApplyFailure:    "transform apply failure",
	CodeProfileSaveFailure:       "profile save failure",
	CodeAllocationFailure:        "allocation failure",
}

func (c Code) String() string {
	if c >= 0 && int(c) < len(codeNames) {
		return codeNames[c]
	}
	return fmt.Sprintf("Code(%d)", int(c))
}

// MaxMessageLen bounds Error.Message in bytes.
const MaxMessageLen = 127

// Error is the error type returned by every fallible operation in this
// package. Err holds the underlying engine or pool error, if any.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return "iccimage: " + e.Code.String()
	}
	return "iccimage: " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same Code, so the Err* values below work
// with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Sentinels for errors.Is.
var (
	ErrUnknown                  = &Error{Code: CodeUnknown}
	ErrNotImplemented           = &Error{Code: CodeNotImplemented}
	ErrInvalidDimension         = &Error{Code: CodeInvalidDimension}
	ErrInvalidChannelCount      = &Error{Code: CodeInvalidChannelCount}
	ErrInvalidComponentWidth    = &Error{Code: CodeInvalidComponentWidth}
	ErrInvalidBufferSize        = &Error{Code: CodeInvalidBufferSize}
	ErrProfileOpenFailure       = &Error{Code: CodeProfileOpenFailure}
	ErrTransformCreationFailure = &Error{Code: CodeTransformCreationFailure}
	ErrTransformApplyFailure    = &Error{Code: CodeTransformApplyFailure}
	ErrProfileSaveFailure       = &Error{Code: CodeProfileSaveFailure}
	ErrAllocationFailure        = &Error{Code: CodeAllocationFailure}
)

func newError(code Code, cause error, format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	if cause != nil {
		msg += ": " + cause.Error()
	}
	return &Error{Code: code, Message: truncate(msg, MaxMessageLen), Err: cause}
}

// truncate shortens s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// CodeOf returns the Code carried by err, CodeUnknown for other non-nil
// errors, or -1 for nil.
func CodeOf(err error) Code {
	if err == nil {
		return -1
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

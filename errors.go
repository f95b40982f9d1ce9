package recio

import (
	"errors"
	"fmt"
)

// Error represents a recio error with a stable code.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error // wrapped error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("recio: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("recio: %s", e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorCode classifies an *Error.
type ErrorCode int

const (
	// Success indicates the operation completed successfully.
	Success ErrorCode = 0

	// ErrNotFound means the recid is within the allocated index range but
	// has no live record: its slot was never written or it was deleted.
	ErrNotFound ErrorCode = iota

	// ErrCorrupted means an on-disk structure failed a consistency check:
	// bad magic, truncated header, or a size field out of range.
	ErrCorrupted

	// ErrClosed means the store has already been closed.
	ErrClosed

	// ErrReadOnly means a mutating call was made on a read-only store.
	ErrReadOnly

	// ErrRecordTooLarge means an allocation would grow the phys file past
	// Options.SizeLimit.
	ErrRecordTooLarge

	// ErrCASMismatch means CompareAndSwap's expected value didn't match
	// the stored value.
	ErrCASMismatch

	// ErrInvalidRecid means a caller passed recid 0, or a recid outside
	// the allocated range.
	ErrInvalidRecid

	// ErrUnsupported means the operation has no supported implementation,
	// e.g. Rollback.
	ErrUnsupported

	// ErrIO wraps an underlying filesystem or mmap failure.
	ErrIO

	// ErrInvalidArgument means a caller-supplied value is out of range:
	// a zero or oversized size, an unaligned offset, a bad LongStack head
	// slot.
	ErrInvalidArgument

	// ErrInternal means an on-disk structure violated an invariant this
	// store itself is supposed to maintain (bad LongStack page chain,
	// mismatched chain length, serializer byte-count mismatch).
	ErrInternal
)

var errorMessages = map[ErrorCode]string{
	Success:           "success",
	ErrNotFound:       "recid not found",
	ErrCorrupted:      "store is corrupted",
	ErrClosed:         "store is closed",
	ErrReadOnly:       "store is read-only",
	ErrRecordTooLarge: "record exceeds maximum size",
	ErrCASMismatch:    "compare-and-swap expected value mismatch",
	ErrInvalidRecid:   "invalid recid",
	ErrUnsupported:    "operation not supported",
	ErrIO:             "I/O failure",
	ErrInvalidArgument: "invalid argument",
	ErrInternal:        "internal invariant violation",
}

// NewError creates a new Error with the given code.
func NewError(code ErrorCode) *Error {
	msg, ok := errorMessages[code]
	if !ok {
		msg = fmt.Sprintf("unknown error code %d", code)
	}
	return &Error{Code: code, Message: msg}
}

// WrapError creates a new Error wrapping another error.
func WrapError(code ErrorCode, err error) *Error {
	e := NewError(code)
	e.Err = err
	return e
}

// Common error values for convenience.
var (
	ErrNotFoundError       = NewError(ErrNotFound)
	ErrCorruptedError      = NewError(ErrCorrupted)
	ErrClosedError         = NewError(ErrClosed)
	ErrReadOnlyError       = NewError(ErrReadOnly)
	ErrRecordTooLargeError = NewError(ErrRecordTooLarge)
	ErrCASMismatchError    = NewError(ErrCASMismatch)
	ErrInvalidRecidError   = NewError(ErrInvalidRecid)
	ErrUnsupportedError    = NewError(ErrUnsupported)
	ErrInvalidArgumentError = NewError(ErrInvalidArgument)
	ErrInternalError        = NewError(ErrInternal)
)

// IsNotFound reports whether err is (or wraps) an ErrNotFound *Error.
func IsNotFound(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == ErrNotFound
	}
	return false
}

// IsCorrupted reports whether err is (or wraps) an ErrCorrupted *Error.
func IsCorrupted(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == ErrCorrupted
	}
	return false
}

// IsClosed reports whether err is (or wraps) an ErrClosed *Error.
func IsClosed(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == ErrClosed
	}
	return false
}

// IsCASMismatch reports whether err is (or wraps) an ErrCASMismatch *Error.
func IsCASMismatch(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == ErrCASMismatch
	}
	return false
}

// Code returns the error code from an error, or ErrIO if err is non-nil but
// not a *Error.
func Code(err error) ErrorCode {
	if err == nil {
		return Success
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrIO
}

package cbor

import (
	"github.com/cockroachdb/errors"
)

// ErrorCode classifies encode and decode failures.
type ErrorCode uint8

const (
	// CodecRejected means the low-level codec refused an operation:
	// buffer exhaustion or declared-size mismatch on encode, truncated or
	// malformed input on decode.
	CodecRejected ErrorCode = iota + 1

	// TypeMismatch means the item at the cursor does not match the kind
	// of the typed wrapper passed to Extract. The cursor is not advanced.
	TypeMismatch

	// NotAContainer means Enter was called with the cursor on a
	// non-container item.
	NotAContainer

	// LengthUnknown means a declared length was requested from an
	// indefinite-length item.
	LengthUnknown

	// ContextMisuse means the nested-context protocol was violated:
	// operating through a parent while a child context is active, or
	// reading a buffer owner's result while containers are still open.
	ContextMisuse
)

func (c ErrorCode) String() string {
	switch c {
	case CodecRejected:
		return "codec rejected"
	case TypeMismatch:
		return "type mismatch"
	case NotAContainer:
		return "not a container"
	case LengthUnknown:
		return "length unknown"
	case ContextMisuse:
		return "context misuse"
	}

	return "unknown"
}

// An EncodeError is the terminal failure of an encode session.
type EncodeError struct {
	Code  ErrorCode
	cause error
}

func encodeError(code ErrorCode, cause error) *EncodeError {
	return &EncodeError{Code: code, cause: cause}
}

func (e *EncodeError) Error() string {
	if e.cause == nil {
		return "cbor: encode: " + e.Code.String()
	}
	return "cbor: encode: " + e.Code.String() + ": " + e.cause.Error()
}

func (e *EncodeError) Unwrap() error {
	return e.cause
}

// A DecodeError is the terminal failure of a decode session.
type DecodeError struct {
	Code  ErrorCode
	cause error
}

func decodeError(code ErrorCode, cause error) *DecodeError {
	return &DecodeError{Code: code, cause: cause}
}

func (e *DecodeError) Error() string {
	if e.cause == nil {
		return "cbor: decode: " + e.Code.String()
	}
	return "cbor: decode: " + e.Code.String() + ": " + e.cause.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.cause
}

// EncodeErrorCode extracts the code of an EncodeError in err's chain, or
// zero when there is none.
func EncodeErrorCode(err error) ErrorCode {
	var e *EncodeError
	if errors.As(err, &e) {
		return e.Code
	}
	return 0
}

// DecodeErrorCode extracts the code of a DecodeError in err's chain, or
// zero when there is none.
func DecodeErrorCode(err error) ErrorCode {
	var e *DecodeError
	if errors.As(err, &e) {
		return e.Code
	}
	return 0
}

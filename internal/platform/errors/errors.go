// Package errors provides a structured error type with wrapping and metadata
package errors

// Always import the project errors package as perr (platform/errors)

import (
	stderrs "errors"
	"fmt"
	"net/http"
)

// ErrorCode defines supported error codes used across services
// Values are stable for wire and storage compatibility; append only
type ErrorCode uint16

const (
	// ErrorCodeUnknown is for unclassified errors
	ErrorCodeUnknown ErrorCode = iota

	// ErrorCodePanic is for panics recovered by a worker or handler
	ErrorCodePanic

	// ErrorCodeUnavailable is for transient errors where retry may succeed
	ErrorCodeUnavailable

	// ErrorCodeConflict is for generic editing conflicts beyond duplicate key
	ErrorCodeConflict

	// ErrorCodeInvalidArgument is for bad input parameters
	ErrorCodeInvalidArgument

	// ErrorCodeValidation is for validation failures (input data)
	ErrorCodeValidation

	// ErrorCodeNotFound is for missing resources
	ErrorCodeNotFound

	// ErrorCodeDuplicateKey is for unique constraint violations
	ErrorCodeDuplicateKey

	// ErrorCodeDB is for general database errors
	ErrorCodeDB

	// ErrorCodeDecode is for malformed base64 or a blob that is not a zip container
	ErrorCodeDecode

	// ErrorCodeMalformedArchive is for entry decompression or pairing failures
	ErrorCodeMalformedArchive

	// ErrorCodeSchema is for unparseable or unknown TimeLog field layouts
	ErrorCodeSchema

	// ErrorCodeBufferUnderrun is for reads past the end of a byte sequence
	ErrorCodeBufferUnderrun

	// ErrorCodeRecordAlignment is for payloads that are not a multiple of the record width
	ErrorCodeRecordAlignment

	// ErrorCodeResourceLimit is for input exceeding configured bounds
	ErrorCodeResourceLimit
)

var codeNames = map[ErrorCode]string{
	ErrorCodeUnknown:          "unknown",
	ErrorCodePanic:            "panic",
	ErrorCodeUnavailable:      "unavailable",
	ErrorCodeConflict:         "conflict",
	ErrorCodeInvalidArgument:  "invalid_argument",
	ErrorCodeValidation:       "validation",
	ErrorCodeNotFound:         "not_found",
	ErrorCodeDuplicateKey:     "duplicate_key",
	ErrorCodeDB:               "db",
	ErrorCodeDecode:           "decode",
	ErrorCodeMalformedArchive: "malformed_archive",
	ErrorCodeSchema:           "schema",
	ErrorCodeBufferUnderrun:   "buffer_underrun",
	ErrorCodeRecordAlignment:  "record_alignment",
	ErrorCodeResourceLimit:    "resource_limit",
}

// String returns the snake_case name used in logs, metrics labels and stored rows
func (c ErrorCode) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("code(%d)", uint16(c))
}

// HTTPStatusCode turns an ErrorCode into an http status code
func HTTPStatusCode(c ErrorCode) int {
	switch c {
	case ErrorCodeNotFound:
		return http.StatusNotFound
	case ErrorCodeInvalidArgument, ErrorCodeDecode, ErrorCodeMalformedArchive,
		ErrorCodeSchema, ErrorCodeBufferUnderrun, ErrorCodeRecordAlignment:
		return http.StatusUnprocessableEntity
	case ErrorCodeResourceLimit:
		return http.StatusRequestEntityTooLarge
	case ErrorCodeDuplicateKey, ErrorCodeConflict:
		return http.StatusConflict
	case ErrorCodeValidation:
		return http.StatusBadRequest
	case ErrorCodeUnavailable:
		return http.StatusServiceUnavailable
	case ErrorCodeDB, ErrorCodePanic, ErrorCodeUnknown:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// ErrNotFound is a sentinel not found error for convenience
var ErrNotFound = New(ErrorCodeNotFound, "not found")

// Error is the structured error type with wrapping and metadata
// msg is human/developer facing; code is machine facing
// field names the offending input (validation field or archive entry)
// op names the operation or pipeline stage; offset is a byte offset when hasOffset is set
// orig is the wrapped cause
type Error struct {
	orig      error
	msg       string
	code      ErrorCode
	field     string
	op        string
	offset    int64
	hasOffset bool
}

// Wire is the JSON-serializable form returned by the ops listener and stored on rejected messages
type Wire struct {
	Code    ErrorCode `json:"code"`
	Name    string    `json:"name"`
	Message string    `json:"message"`
	Op      string    `json:"op,omitempty"`
	Field   string    `json:"field,omitempty"`
	Offset  *int64    `json:"offset,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.orig != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.orig)
	}
	return e.msg
}

// Unwrap returns the wrapped error, if any
func (e *Error) Unwrap() error { return e.orig }

// Code returns the error code
func (e *Error) Code() ErrorCode { return e.code }

// Field returns the offending field or file, if any
func (e *Error) Field() string { return e.field }

// Op returns the operation label, if set
func (e *Error) Op() string { return e.op }

// Offset returns the byte offset and whether one was recorded
func (e *Error) Offset() (int64, bool) { return e.offset, e.hasOffset }

// ToWire converts an *Error to a Wire payload
func (e *Error) ToWire() Wire {
	w := Wire{Code: e.code, Name: e.code.String(), Message: e.msg, Op: e.op, Field: e.field}
	if e.hasOffset {
		off := e.offset
		w.Offset = &off
	}
	return w
}

// WireFrom converts any error into a Wire payload with best-effort mapping
// If err is nil, returns the zero-value Wire (no error)
func WireFrom(err error) Wire {
	if err == nil {
		return Wire{}
	}
	if e, ok := As(err); ok {
		return e.ToWire()
	}
	return Wire{Code: ErrorCodeUnknown, Name: ErrorCodeUnknown.String(), Message: err.Error()}
}

// Root returns the deepest wrapped cause
func Root(err error) error {
	for err != nil {
		u := stderrs.Unwrap(err)
		if u == nil {
			return err
		}
		err = u
	}
	return nil
}

// CodeOf extracts an ErrorCode from any error, defaulting to Unknown
func CodeOf(err error) ErrorCode {
	if e, ok := As(err); ok {
		return e.code
	}
	return ErrorCodeUnknown
}

// IsCode reports whether err has the given code
func IsCode(err error, code ErrorCode) bool { return CodeOf(err) == code }

// HTTPStatus returns the mapped HTTP status for any error
func HTTPStatus(err error) int { return HTTPStatusCode(CodeOf(err)) }

// As unwraps and returns (*Error, true) if err is one of ours
func As(err error) (*Error, bool) {
	var e *Error
	if stderrs.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Mutators (copy-on-write)

// WithField attaches a field to an *Error (copy-on-write). If err isn't *Error, returns err unchanged
func WithField(err error, field string) error {
	if e, ok := As(err); ok {
		c := *e
		c.field = field
		return &c
	}
	return err
}

// WithOp attaches an operation label to an *Error (copy-on-write). If err isn't *Error, returns err unchanged
func WithOp(err error, op string) error {
	if e, ok := As(err); ok {
		c := *e
		c.op = op
		return &c
	}
	return err
}

// WithOffset attaches a byte offset to an *Error (copy-on-write). If err isn't *Error, returns err unchanged
func WithOffset(err error, offset int64) error {
	if e, ok := As(err); ok {
		c := *e
		c.offset = offset
		c.hasOffset = true
		return &c
	}
	return err
}

// Annotate sets op and field only where they are still empty, so the innermost stage wins
func Annotate(err error, op, field string) error {
	e, ok := As(err)
	if !ok {
		return err
	}
	c := *e
	if c.op == "" {
		c.op = op
	}
	if c.field == "" {
		c.field = field
	}
	return &c
}

// WithFieldChain sets field on *Error or wraps a foreign error into an *Error with Unknown code (copy-on-write)
func WithFieldChain(err error, field string) error {
	if e, ok := As(err); ok {
		c := *e
		c.field = field
		return &c
	}
	return &Error{code: ErrorCodeUnknown, msg: err.Error(), field: field, orig: err}
}

// Constructors

// New returns a new *Error with the given code and message
func New(code ErrorCode, msg string) error { return &Error{code: code, msg: msg} }

// Newf returns a new *Error with code and formatted message
func Newf(code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...)}
}

// Wrap returns a new *Error that wraps orig with code and message
func Wrap(orig error, code ErrorCode, msg string) error {
	return &Error{code: code, msg: msg, orig: orig}
}

// Wrapf returns a new *Error that wraps orig with code and formatted message
func Wrapf(orig error, code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...), orig: orig}
}

// WrapIf wraps only when err != nil (helper for 1-liners)
func WrapIf(err error, code ErrorCode, msg string) error {
	if err == nil {
		return nil
	}
	return Wrap(err, code, msg)
}

// Sugar

// NotFoundf returns a not found error
func NotFoundf(format string, a ...any) error { return Newf(ErrorCodeNotFound, format, a...) }

// InvalidArgf returns an invalid argument error
func InvalidArgf(format string, a ...any) error { return Newf(ErrorCodeInvalidArgument, format, a...) }

// Validationf returns a validation error
func Validationf(format string, a ...any) error { return Newf(ErrorCodeValidation, format, a...) }

// DBf returns a general database error
func DBf(format string, a ...any) error { return Newf(ErrorCodeDB, format, a...) }

// PanicErrf returns a panic error
func PanicErrf(format string, a ...any) error { return Newf(ErrorCodePanic, format, a...) }

// Unavailablef returns an unavailable error
func Unavailablef(format string, a ...any) error { return Newf(ErrorCodeUnavailable, format, a...) }

// Internalf returns a generic internal error
func Internalf(format string, a ...any) error { return Newf(ErrorCodeUnknown, format, a...) }

// Decodef returns a decode error (bad base64 or not a zip container)
func Decodef(format string, a ...any) error { return Newf(ErrorCodeDecode, format, a...) }

// MalformedArchivef returns a malformed archive error
func MalformedArchivef(format string, a ...any) error {
	return Newf(ErrorCodeMalformedArchive, format, a...)
}

// Schemaf returns a schema error
func Schemaf(format string, a ...any) error { return Newf(ErrorCodeSchema, format, a...) }

// Underrunf returns a buffer underrun error
func Underrunf(format string, a ...any) error { return Newf(ErrorCodeBufferUnderrun, format, a...) }

// Alignmentf returns a record alignment error
func Alignmentf(format string, a ...any) error { return Newf(ErrorCodeRecordAlignment, format, a...) }

// ResourceLimitf returns a resource limit error
func ResourceLimitf(format string, a ...any) error {
	return Newf(ErrorCodeResourceLimit, format, a...)
}

// Dispositions

// Terminal reports whether err belongs to the decode taxonomy: structurally invalid or
// adversarial input that will not succeed on retry without changing the input
func Terminal(err error) bool {
	switch CodeOf(err) {
	case ErrorCodeDecode, ErrorCodeMalformedArchive, ErrorCodeSchema,
		ErrorCodeBufferUnderrun, ErrorCodeRecordAlignment, ErrorCodeResourceLimit,
		ErrorCodeValidation:
		return true
	default:
		return false
	}
}

// Retryable reports whether the error is retryable. Unavailable errors always are;
// database errors delegate to the Postgres classification in pg.go
func Retryable(err error) bool {
	if err == nil || Terminal(err) {
		return false
	}
	if IsCode(err, ErrorCodeUnavailable) {
		return true
	}
	return IsRetryable(err)
}

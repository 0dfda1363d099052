package apperror

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation  Kind = "validation"
	KindUpstream    Kind = "upstream"
	KindConflict    Kind = "conflict"
	KindAuth        Kind = "auth"
	KindNotFound    Kind = "not_found"
	KindRateLimited Kind = "rate_limited"
	KindInternal    Kind = "internal"
)

// Stable machine-readable reasons reported to callers.
const (
	CodeInvalidType          = "invalid_type"
	CodeTooLarge             = "too_large"
	CodeExtractionFailed     = "extraction_failed"
	CodeEmptyResult          = "empty_result"
	CodeUpstreamUnavailable  = "upstream_unavailable"
	CodeSchemaViolation      = "schema_violation"
	CodeEmptyOutput          = "empty_output"
	CodeContentNotFound      = "content_not_found"
	CodeNoSellableProduct    = "no_sellable_product"
	CodePurchaseRecordFailed = "purchase_record_failed"
	CodeCheckoutUnavailable  = "checkout_unavailable"
	CodeNotConnected         = "not_connected"
	CodeRefreshFailed        = "refresh_failed"
	CodeForbidden            = "forbidden"
	CodeNotFound             = "not_found"
	CodeTooManyAttempts      = "too_many_attempts"
	CodeInvalidInput         = "invalid_input"
	CodeInternal             = "internal"
)

// Error is the single error type crossing usecase boundaries.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind and Code so sentinel-style comparisons work.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && (t.Code == "" || e.Code == t.Code)
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Wrap(kind Kind, code, message string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

func Validation(code, message string) *Error { return New(KindValidation, code, message) }

func Upstream(code, message string, err error) *Error {
	return Wrap(KindUpstream, code, message, err)
}

func NotFound(code, message string) *Error { return New(KindNotFound, code, message) }

func Auth(code, message string) *Error { return New(KindAuth, code, message) }

// KindOf returns the kind of the first *Error in the chain, KindInternal otherwise.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// CodeOf returns the code of the first *Error in the chain, or "".
func CodeOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

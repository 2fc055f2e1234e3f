package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is a stable, machine-readable failure category. Handlers map a
// Kind to an HTTP status; callers never see raw gateway or store errors.
type Kind string

const (
	KindValidation          Kind = "VALIDATION"
	KindInsufficientBalance Kind = "INSUFFICIENT_BALANCE"
	KindFeeNotConfigured    Kind = "FEE_NOT_CONFIGURED"
	// KindGateway means the charge definitely did not happen.
	KindGateway Kind = "GATEWAY"
	// KindGatewayUnknown means the charge status is unconfirmed; the
	// same idempotency key must not be retried until reconciled.
	KindGatewayUnknown Kind = "GATEWAY_UNKNOWN"
	// KindPersistence means money moved but records did not persist.
	KindPersistence Kind = "PERSISTENCE"
	KindConflict    Kind = "CONFLICT"
	KindNotFound    Kind = "NOT_FOUND"
	KindInternal    Kind = "INTERNAL"
)

type Error struct {
	Kind    Kind
	Message string
	// Field names the violated input field on validation errors.
	Field string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

func Validation(field, message string) *Error {
	return &Error{Kind: KindValidation, Message: message, Field: field}
}

// KindOf extracts the Kind from err, or KindInternal for plain errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps a failure kind to the status returned to the caller.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindInsufficientBalance:
		return http.StatusPaymentRequired
	case KindFeeNotConfigured:
		return http.StatusConflict
	case KindGateway:
		return http.StatusBadGateway
	case KindGatewayUnknown, KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

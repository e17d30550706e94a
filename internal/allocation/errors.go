package allocation

import (
	"errors"
	"fmt"
)

// Code identifies a validation failure class
type Code string

const (
	CodeInvalidTimeInput       Code = "invalid_time_input"
	CodeRouteNotFound          Code = "route_not_found"
	CodeResourceUnavailable    Code = "resource_unavailable"
	CodeResourceMisplaced      Code = "resource_misplaced"
	CodeIneligibleResource     Code = "ineligible_resource"
	CodeQuotaMismatch          Code = "quota_mismatch"
	CodePricingInvalid         Code = "pricing_invalid"
	CodeInventoryMissing       Code = "inventory_missing"
	CodeCancellationNotAllowed Code = "cancellation_not_allowed"
	CodeInternalWriteFailure   Code = "internal_write_failure"
)

// Error is a field-attributable allocation failure. Resource, when set, names
// the aircraft or crew member that failed validation.
type Error struct {
	Code     Code   `json:"code"`
	Message  string `json:"message"`
	Resource string `json:"resource,omitempty"`
	cause    error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// CodeOf extracts the allocation error code, or "" for other errors
func CodeOf(err error) Code {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

func newError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func newResourceError(code Code, resource string, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Resource: resource}
}

// newInternalError hides the underlying write failure behind a generic
// message; the cause stays wrapped for server-side logging.
func newInternalError(err error) *Error {
	return &Error{
		Code:    CodeInternalWriteFailure,
		Message: "internal error while creating flight",
		cause:   err,
	}
}

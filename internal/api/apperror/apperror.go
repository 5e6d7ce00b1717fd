// Package apperror is the error type every HTTP handler returns instead of
// a bare error, so the error-handling middleware can render a consistent
// JSON envelope without re-deriving an HTTP status from the error text.
package apperror

import (
	"errors"
	"net/http"

	apitypes "github.com/zeroidhq/zeroid-core/internal/api/http/types"
)

// Error is a handler-facing error carrying the taxonomy code, HTTP status,
// and optional structured details it should render as.
type Error struct {
	Code    string
	Status  int
	Message string
	Details interface{}
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Response renders e into the wire ErrorResponse shape.
func (e *Error) Response() *apitypes.ErrorResponse {
	return apitypes.NewErrorResponse(e.Code, e.Message, e.Details)
}

func new(code string, status int, message string, cause error) *Error {
	return &Error{Code: code, Status: status, Message: message, cause: cause}
}

// Validation wraps an input-schema violation, echoing the offending field
// path in Details.
func Validation(message string, field string) *Error {
	e := new(apitypes.ErrValidation, http.StatusBadRequest, message, nil)
	if field != "" {
		e.Details = map[string]string{"field": field}
	}
	return e
}

// Auth wraps a missing or invalid bearer token.
func Auth(message string, status int) *Error {
	return new(apitypes.ErrAuth, status, message, nil)
}

// RateLimited wraps an exhausted token bucket.
func RateLimited(retryAfter string) *Error {
	e := new(apitypes.ErrRateLimit, http.StatusTooManyRequests, "rate limit exceeded", nil)
	e.Details = map[string]string{"retryAfter": retryAfter}
	return e
}

// Sanctioned wraps a sanctioned-country rejection.
func Sanctioned(countryCode int) *Error {
	e := new(apitypes.ErrPolicySanctioned, http.StatusForbidden, "country is on the sanctions list", nil)
	e.Details = map[string]int{"countryCode": countryCode}
	return e
}

// KycFailed wraps a KYC provider rejection.
func KycFailed(confidence float64) *Error {
	e := new(apitypes.ErrPolicyKycFailed, http.StatusUnprocessableEntity, "KYC verification failed", nil)
	e.Details = map[string]float64{"confidence": confidence}
	return e
}

// NullifierReplay wraps a repeated-nullifier rejection.
func NullifierReplay() *Error {
	return new(apitypes.ErrPolicyNullifierReplay, http.StatusConflict, "nullifier already consumed", nil)
}

// NotFound wraps an unknown resource id lookup.
func NotFound(resource string) *Error {
	return new(apitypes.ErrNotFound, http.StatusNotFound, resource+" not found", nil)
}

// Integrity wraps a tamper/corruption detection. The cause is logged but
// never rendered in the response body.
func Integrity(cause error) *Error {
	return new(apitypes.ErrIntegrity, http.StatusInternalServerError, "internal integrity error", cause)
}

// Unavailable wraps a dependency that cannot currently serve the request
// (missing verification key, closed store, unreachable KYC provider).
func Unavailable(message string, cause error) *Error {
	return new(apitypes.ErrAvailability, http.StatusServiceUnavailable, message, cause)
}

// Internal wraps any other failure.
func Internal(cause error) *Error {
	return new(apitypes.ErrInternal, http.StatusInternalServerError, "internal server error", cause)
}

// As extracts an *Error from err, if err is or wraps one.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

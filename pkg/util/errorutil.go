package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

// NewValidationError flags a malformed inbound event. Not retryable; the
// event is dropped without side effects.
func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

// NewInsufficientData flags a pipeline stage that cannot run because the
// ticket itself is unknown.
func NewInsufficientData(ticketID string) error {
	return NewDomainError("INSUFFICIENT_DATA", "ticket not found for extraction",
		http.StatusUnprocessableEntity, map[string]any{"ticket_id": ticketID})
}

// NewScorerUnavailable flags a transient scorer failure. Callers apply the
// fallback policy; this never surfaces as a pipeline failure.
func NewScorerUnavailable(err error) error {
	return &DomainError{
		Code:       "SCORER_UNAVAILABLE",
		Message:    "prediction backend unavailable",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

// NewDispatchError flags an action rejected by the executor. Retried per
// backoff policy up to the bound, then escalated.
func NewDispatchError(action string, err error) error {
	return &DomainError{
		Code:       "DISPATCH_FAILED",
		Message:    fmt.Sprintf("action %s rejected by executor", action),
		HTTPStatus: http.StatusBadGateway,
		Details:    map[string]any{"action": action},
		Err:        err,
	}
}

// NewInvariantViolation flags two active workflows for one ticket. Fatal for
// that ticket's lane; surfaced for manual intervention, never auto-resolved.
func NewInvariantViolation(ticketID string, detail string) error {
	return NewDomainError("INVARIANT_VIOLATION",
		fmt.Sprintf("workflow invariant violated: %s", detail),
		http.StatusConflict, map[string]any{"ticket_id": ticketID})
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// IsCode reports whether err carries the given domain error code.
func IsCode(err error, code string) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == code
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}

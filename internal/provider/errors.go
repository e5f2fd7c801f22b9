// Package provider normalizes failures from the external services the app
// depends on (vision model, geocoder) into one category taxonomy.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorCategory defines the normalized failure taxonomy
type ErrorCategory string

const (
	// ErrorTimeout indicates the provider took too long to respond
	ErrorTimeout ErrorCategory = "timeout"

	// ErrorBadData indicates the input or the provider's response could not be used
	ErrorBadData ErrorCategory = "bad_data"

	// ErrorAuthentication indicates credential or permission issues
	ErrorAuthentication ErrorCategory = "authentication"

	// ErrorProviderOutage indicates the provider is unavailable
	ErrorProviderOutage ErrorCategory = "provider_outage"

	// ErrorContractMismatch indicates the provider rejected the request shape
	ErrorContractMismatch ErrorCategory = "contract_mismatch"

	// ErrorNotFound indicates the provider had no answer for the query
	ErrorNotFound ErrorCategory = "not_found"

	// ErrorNoFormDetected indicates the vision model found no form in the image
	ErrorNoFormDetected ErrorCategory = "no_form_detected"

	// ErrorRateLimited indicates too many requests
	ErrorRateLimited ErrorCategory = "rate_limited"

	// ErrorCanceled indicates the caller abandoned the request
	ErrorCanceled ErrorCategory = "canceled"

	// ErrorInternal indicates an unexpected internal error
	ErrorInternal ErrorCategory = "internal"
)

// Error wraps provider failures with normalized categorization.
// Nothing retries automatically; Retryable only tells the user whether
// trying again may help.
type Error struct {
	Category   ErrorCategory
	ProviderID string
	Message    string
	Underlying error
	Retryable  bool
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("provider %s [%s]: %s: %v", e.ProviderID, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("provider %s [%s]: %s", e.ProviderID, e.Category, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

// NewError creates a new normalized provider error.
func NewError(category ErrorCategory, providerID, message string, underlying error) *Error {
	retryable := category == ErrorTimeout ||
		category == ErrorProviderOutage ||
		category == ErrorRateLimited

	return &Error{
		Category:   category,
		ProviderID: providerID,
		Message:    message,
		Underlying: underlying,
		Retryable:  retryable,
	}
}

// IsRetryable checks if an error is worth retrying by hand.
func IsRetryable(err error) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}

// GetCategory extracts the error category from an error.
func GetCategory(err error) ErrorCategory {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Category
	}
	return ErrorInternal
}

// FromTransport categorizes an error returned before any HTTP response.
func FromTransport(providerID string, err error) *Error {
	if errors.Is(err, context.Canceled) {
		return NewError(ErrorCanceled, providerID, "request canceled", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewError(ErrorTimeout, providerID, "request timed out", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewError(ErrorTimeout, providerID, "request timed out", err)
	}
	return NewError(ErrorProviderOutage, providerID, "provider unreachable", err)
}

// FromStatus categorizes a non-2xx HTTP response. body is kept for context.
func FromStatus(providerID string, status int, body string) *Error {
	underlying := fmt.Errorf("status %d: %s", status, truncate(body, 512))
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return NewError(ErrorAuthentication, providerID, "provider rejected credentials", underlying)
	case status == http.StatusTooManyRequests:
		return NewError(ErrorRateLimited, providerID, "provider rate limit reached", underlying)
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return NewError(ErrorTimeout, providerID, "provider timed out", underlying)
	case status == http.StatusNotFound:
		return NewError(ErrorContractMismatch, providerID, "provider endpoint not found", underlying)
	case status >= 500:
		return NewError(ErrorProviderOutage, providerID, "provider unavailable", underlying)
	default:
		return NewError(ErrorContractMismatch, providerID, "provider rejected request", underlying)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

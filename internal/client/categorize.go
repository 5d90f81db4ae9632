package client

import (
	"context"
	"errors"
	"strings"
)

// ErrorCategory is a stable label for error classification in metrics.
type ErrorCategory string

const (
	ErrorCategoryTimeout       ErrorCategory = "timeout"
	ErrorCategoryNetwork       ErrorCategory = "network"
	ErrorCategoryCircuitOpen   ErrorCategory = "circuit_open"
	ErrorCategoryNotConfigured ErrorCategory = "not_configured"
	ErrorCategoryNotFound      ErrorCategory = "not_found"
	ErrorCategoryRejected      ErrorCategory = "rejected"
	ErrorCategoryRateLimited   ErrorCategory = "rate_limited"
	ErrorCategoryUpstream5xx   ErrorCategory = "upstream_5xx"
	ErrorCategoryUpstream4xx   ErrorCategory = "upstream_4xx"
	ErrorCategoryUnknown       ErrorCategory = "unknown"
)

// CategorizeError maps an error to a stable ErrorCategory for metrics.
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrorCategoryTimeout
	}
	if errors.Is(err, ErrCircuitOpen) {
		return ErrorCategoryCircuitOpen
	}
	if errors.Is(err, ErrConfigurationMissing) {
		return ErrorCategoryNotConfigured
	}
	if errors.Is(err, ErrNotFound) {
		return ErrorCategoryNotFound
	}
	if errors.Is(err, ErrUpstreamRejected) {
		return ErrorCategoryRejected
	}

	errStr := err.Error()
	if strings.Contains(errStr, "Client.Timeout") || strings.Contains(errStr, "timeout") {
		return ErrorCategoryTimeout
	}
	if errors.Is(err, ErrUpstreamUnavailable) {
		switch {
		case strings.Contains(errStr, "HTTP 429"):
			return ErrorCategoryRateLimited
		case strings.Contains(errStr, "HTTP 5"):
			return ErrorCategoryUpstream5xx
		case strings.Contains(errStr, "HTTP 4"):
			return ErrorCategoryUpstream4xx
		}
		return ErrorCategoryNetwork
	}
	if strings.Contains(errStr, "connection") || strings.Contains(errStr, "network") {
		return ErrorCategoryNetwork
	}
	return ErrorCategoryUnknown
}

package client

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigurationMissing means no usable provider key is configured.
	// The service layer absorbs it by serving mock data where a fallback exists.
	ErrConfigurationMissing = errors.New("provider not configured")
	// ErrUpstreamUnavailable covers transport errors, timeouts and non-2xx statuses.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrUpstreamRejected is a provider-reported logical error or a malformed payload.
	ErrUpstreamRejected = errors.New("upstream rejected request")
	// ErrNotFound means the entity does not exist upstream.
	ErrNotFound = errors.New("not found")
	// ErrCircuitOpen is returned without calling upstream while the breaker is open.
	ErrCircuitOpen = fmt.Errorf("%w: circuit open", ErrUpstreamUnavailable)
)

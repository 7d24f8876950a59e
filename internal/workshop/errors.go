// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package workshop

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidLink is returned when no workshop id can be found in a link.
	ErrInvalidLink = errors.New("workshop: could not extract workshop id from link")
	// ErrNoAPIKey is returned by operations that need a Steam Web API key.
	ErrNoAPIKey = errors.New("workshop: steam api key is not configured")
	// ErrUpstream wraps every failed Steam response.
	ErrUpstream = errors.New("workshop: steam request failed")
	// ErrEmptyCollection is returned when a collection yields no item ids.
	ErrEmptyCollection = errors.New("workshop: collection is empty or could not be parsed")
)

// APIError describes a failed call to Steam.
type APIError struct {
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *APIError) Error() string {
	switch {
	case e.Status != 0 && e.Body != "":
		return fmt.Sprintf("%s: steam returned %d: %s", e.Op, e.Status, e.Body)
	case e.Status != 0:
		return fmt.Sprintf("%s: steam returned %d", e.Op, e.Status)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
}

func (e *APIError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrUpstream, e.Err}
	}
	return []error{ErrUpstream}
}

// retryable reports whether a failed attempt may succeed when repeated.
func retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status == 0 {
			return apiErr.Err != nil && !errors.Is(apiErr.Err, errDecode)
		}
		return apiErr.Status == http.StatusTooManyRequests || apiErr.Status >= 500
	}
	return true
}

var errDecode = errors.New("decode response")

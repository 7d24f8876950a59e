// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import "errors"

var (
	// ErrMissingLogger is returned when the manager gets a disabled logger.
	ErrMissingLogger = errors.New("logger is required")

	// ErrMissingAPIHandler is returned when no dashboard API handler is provided.
	ErrMissingAPIHandler = errors.New("API handler is required")

	// ErrMissingMetricsHandler is returned when a metrics address is set without a handler.
	ErrMissingMetricsHandler = errors.New("metrics handler is required when a metrics address is set")

	ErrMissingManager = errors.New("manager is required")

	// ErrManagerNotStarted is returned by Shutdown before Start has bound the listeners.
	ErrManagerNotStarted = errors.New("manager not started")
)

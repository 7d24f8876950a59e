// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/pzpanel/pzpanel/internal/config"
)

// Deps contains dependencies required by the daemon Manager.
type Deps struct {
	// Logger is the structured logger for the daemon
	Logger zerolog.Logger

	// APIHandler is the HTTP handler for the API server
	APIHandler http.Handler

	// MetricsAddr is the listen address of the metrics server; empty disables it
	MetricsAddr string

	// MetricsHandler is the HTTP handler for Prometheus metrics (if enabled)
	MetricsHandler http.Handler
}

// Validate checks if the dependencies are valid.
func (d *Deps) Validate() error {
	if d.Logger.GetLevel() == zerolog.Disabled {
		return ErrMissingLogger
	}
	if d.APIHandler == nil {
		return ErrMissingAPIHandler
	}
	if d.MetricsAddr != "" && d.MetricsHandler == nil {
		return ErrMissingMetricsHandler
	}
	return nil
}

// HTTPConfig holds the listener and http.Server settings.
type HTTPConfig struct {
	ListenAddr      string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	MaxHeaderBytes  int
	MaxConnections  int
	ShutdownTimeout time.Duration
}

// HTTPConfigFrom derives the server settings from the application config.
func HTTPConfigFrom(cfg config.AppConfig) HTTPConfig {
	shutdown := cfg.API.ShutdownTimeout
	if shutdown <= 0 {
		shutdown = 10 * time.Second
	}
	return HTTPConfig{
		ListenAddr:      cfg.Listen,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    60 * time.Second,
		IdleTimeout:     120 * time.Second,
		MaxHeaderBytes:  1 << 20,
		MaxConnections:  cfg.API.MaxConnections,
		ShutdownTimeout: shutdown,
	}
}

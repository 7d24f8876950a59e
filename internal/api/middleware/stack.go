// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package middleware provides the HTTP ingress stack of the dashboard API.
package middleware

import (
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	xglog "github.com/pzpanel/pzpanel/internal/log"
)

// StackConfig configures the canonical HTTP ingress middleware stack.
type StackConfig struct {
	// CORS
	EnableCORS     bool
	AllowedOrigins []string
	// Origins, when set, replaces AllowedOrigins and is read per request.
	Origins func() []string

	// Security headers
	EnableSecurityHeaders bool
	CSP                   string

	// Observability
	EnableMetrics  bool
	TracingService string // empty disables tracing
	EnableLogging  bool

	// MaxBodyBytes caps request bodies; zero disables the cap.
	MaxBodyBytes int64
	// BodyLimit, when set, replaces MaxBodyBytes and is read per request.
	BodyLimit func() int64
}

// NewRouter constructs a chi router with the canonical middleware stack applied.
func NewRouter(cfg StackConfig) *chi.Mux {
	r := chi.NewRouter()
	ApplyStack(r, cfg)
	return r
}

// ApplyStack applies the canonical middleware stack to r.
func ApplyStack(r chi.Router, cfg StackConfig) {
	// 1. RequestID (correlation early, so panics carry it)
	r.Use(RequestID)
	// 2. Recoverer
	r.Use(Recoverer)
	// 3. Logging (wraps handlers, captures full latency)
	if cfg.EnableLogging {
		r.Use(xglog.Middleware())
	}
	// 4. Metrics
	if cfg.EnableMetrics {
		r.Use(Metrics())
	}
	// 5. Tracing
	if cfg.TracingService != "" {
		r.Use(OTelHTTP(cfg.TracingService))
	}
	// 6. CORS (so OPTIONS and browser clients behave), then CSRF for mutations
	if cfg.EnableCORS {
		origins := cfg.Origins
		if origins == nil {
			static := cfg.AllowedOrigins
			origins = func() []string { return static }
		}
		r.Use(Reloadable(origins, func(a, b []string) bool { return slices.Equal(a, b) }, originPolicy))
	}
	// 7. Security headers
	if cfg.EnableSecurityHeaders {
		r.Use(SecurityHeaders(cfg.CSP))
	}
	// 8. Body size limit
	switch {
	case cfg.BodyLimit != nil:
		r.Use(Reloadable(cfg.BodyLimit, func(a, b int64) bool { return a == b }, bodyLimit))
	case cfg.MaxBodyBytes > 0:
		r.Use(chimw.RequestSize(cfg.MaxBodyBytes))
	}
}

func originPolicy(origins []string) func(http.Handler) http.Handler {
	cors, csrf := CORS(origins), CSRFProtection(origins)
	return func(next http.Handler) http.Handler { return cors(csrf(next)) }
}

func bodyLimit(n int64) func(http.Handler) http.Handler {
	if n <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return chimw.RequestSize(n)
}

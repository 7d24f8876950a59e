// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/pzpanel/pzpanel/internal/api/problem"
)

// CSRFProtection rejects state-changing browser requests from foreign origins.
// It validates the Origin header, falling back to Referer.
//
// Requests that carry neither header are accepted unless the browser marks
// them as cross-site through Sec-Fetch-Site, so the CLI and curl keep working.
//
//	r.Use(middleware.CSRFProtection(allowedOrigins))
func CSRFProtection(allowedOrigins []string) func(http.Handler) http.Handler {
	originsMap := make(map[string]bool, len(allowedOrigins))
	anyOrigin := false
	for _, origin := range allowedOrigins {
		if origin == "*" {
			anyOrigin = true
		}
		originsMap[strings.TrimSuffix(origin, "/")] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isStateChanging(r.Method) || anyOrigin {
				next.ServeHTTP(w, r)
				return
			}

			requestOrigin := getRequestOrigin(r)
			if requestOrigin == "" {
				if strings.EqualFold(r.Header.Get("Sec-Fetch-Site"), "cross-site") {
					forbidden(w, r, "Cross-site request without origin information")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			if !originsMap[requestOrigin] && !isSameOrigin(requestOrigin, r) {
				forbidden(w, r, "Cross-origin request not allowed")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isStateChanging(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
		return true
	}
	return false
}

func forbidden(w http.ResponseWriter, r *http.Request, detail string) {
	problem.Write(w, r, problem.Problem{
		Status: http.StatusForbidden,
		Type:   "auth/csrf",
		Code:   "CSRF_REJECTED",
		Detail: detail,
	})
}

// getRequestOrigin extracts the origin from Origin, then Referer.
func getRequestOrigin(r *http.Request) string {
	if origin := r.Header.Get("Origin"); origin != "" && origin != "null" {
		return strings.TrimSuffix(origin, "/")
	}

	referer := r.Header.Get("Referer")
	if referer == "" {
		return ""
	}
	u, err := url.Parse(referer)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// isSameOrigin reports whether requestOrigin matches the request's own host.
func isSameOrigin(requestOrigin string, r *http.Request) bool {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	if r.Host == "" {
		return false
	}
	return requestOrigin == scheme+"://"+r.Host
}

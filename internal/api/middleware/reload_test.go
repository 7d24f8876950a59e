// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func TestReloadable_RebuildsOnChange(t *testing.T) {
	var limit atomic.Int64
	limit.Store(1)
	builds := 0
	mw := Reloadable(limit.Load, func(a, b int64) bool { return a == b }, func(n int64) func(http.Handler) http.Handler {
		builds++
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("X-Limit", http.StatusText(int(n)))
				next.ServeHTTP(w, r)
			})
		}
	})
	h := mw(okHandler)

	serve := func() string {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		return w.Header().Get("X-Limit")
	}

	limit.Store(200)
	if got := serve(); got != "OK" {
		t.Fatalf("expected first build to see current value, got %q", got)
	}
	serve()
	if builds != 1 {
		t.Fatalf("expected one build for an unchanged value, got %d", builds)
	}

	limit.Store(404)
	if got := serve(); got != "Not Found" {
		t.Fatalf("expected rebuilt middleware, got %q", got)
	}
	if builds != 2 {
		t.Fatalf("expected two builds, got %d", builds)
	}
}

func TestReloadable_SharesStateAcrossRoutes(t *testing.T) {
	perMinute := 2
	limit := Reloadable(func() int { return perMinute }, func(a, b int) bool { return a == b }, MutationRateLimit)
	first, second := limit(okHandler), limit(okHandler)

	post := func(h http.Handler) int {
		req := httptest.NewRequest(http.MethodPost, "/api/server-control", nil)
		req.RemoteAddr = "192.168.1.7:4000"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w.Code
	}

	if code := post(first); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if code := post(second); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if code := post(first); code != http.StatusTooManyRequests {
		t.Fatalf("expected the limit to count both routes, got %d", code)
	}

	perMinute = 0
	if code := post(second); code != http.StatusOK {
		t.Fatalf("expected a disabled limit after reload, got %d", code)
	}
}

func TestApplyStack_BodyLimitFollowsSource(t *testing.T) {
	var limit atomic.Int64
	r := NewRouter(StackConfig{BodyLimit: limit.Load})
	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 100)))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	if code := send(); code != http.StatusOK {
		t.Fatalf("expected no cap while the limit is zero, got %d", code)
	}
	limit.Store(10)
	if code := send(); code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 after lowering the limit, got %d", code)
	}
	limit.Store(1 << 10)
	if code := send(); code != http.StatusOK {
		t.Fatalf("expected 200 after raising the limit, got %d", code)
	}
}

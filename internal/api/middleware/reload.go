// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"net/http"
	"sync"
)

type reloadable[T any] struct {
	current func() T
	equal   func(a, b T) bool
	build   func(T) func(http.Handler) http.Handler

	mu    sync.Mutex
	value T
	mw    func(http.Handler) http.Handler
	gen   uint64
}

func (rl *reloadable[T]) middleware() (func(http.Handler) http.Handler, uint64) {
	v := rl.current()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if rl.mw == nil || !rl.equal(rl.value, v) {
		rl.value, rl.mw = v, rl.build(v)
		rl.gen++
	}
	return rl.mw, rl.gen
}

// Reloadable builds a middleware from the value returned by current and
// rebuilds it when that value changes. Every handler it wraps shares one
// built middleware, so state such as rate limit counters is shared too and
// starts over after a change.
//
//	limit := middleware.Reloadable(func() int { return cfg().API.RateLimit },
//	    func(a, b int) bool { return a == b }, middleware.MutationRateLimit)
func Reloadable[T any](current func() T, equal func(a, b T) bool, build func(T) func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	rl := &reloadable[T]{current: current, equal: equal, build: build}
	return func(next http.Handler) http.Handler {
		var (
			mu  sync.Mutex
			h   http.Handler
			gen uint64
		)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mw, g := rl.middleware()
			mu.Lock()
			if h == nil || g != gen {
				h, gen = mw(next), g
			}
			handler := h
			mu.Unlock()
			handler.ServeHTTP(w, r)
		})
	}
}

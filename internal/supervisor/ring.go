// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package supervisor

import "sync"

// DefaultLogCapacity is the number of console lines kept when none is configured.
const DefaultLogCapacity = 500

// Ring is a fixed-capacity line buffer that evicts the oldest line when full.
type Ring struct {
	mu    sync.Mutex
	lines []string
	start int
	n     int
}

// NewRing creates a ring holding at most capacity lines.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultLogCapacity
	}
	return &Ring{lines: make([]string, capacity)}
}

// Append adds a line, evicting the oldest one when full.
func (r *Ring) Append(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := len(r.lines)
	if r.n < c {
		r.lines[(r.start+r.n)%c] = line
		r.n++
		return
	}
	r.lines[r.start] = line
	r.start = (r.start + 1) % c
}

// Tail returns up to n of the newest lines, oldest first. n <= 0 returns all.
func (r *Ring) Tail(n int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n <= 0 || n > r.n {
		n = r.n
	}
	out := make([]string, n)
	c := len(r.lines)
	for i := 0; i < n; i++ {
		out[i] = r.lines[(r.start+r.n-n+i)%c]
	}
	return out
}

// Len returns the number of buffered lines.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

// Cap returns the capacity.
func (r *Ring) Cap() int { return len(r.lines) }

// Reset drops all lines.
func (r *Ring) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.lines)
	r.start, r.n = 0, 0
}

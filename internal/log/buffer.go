// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

import (
	"bytes"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	maxRecentLogs   = 200
	maxPartialBytes = 64 << 10
	maxLineBytes    = 16 << 10
)

// Entry is one panel log line kept in memory for the dashboard.
type Entry struct {
	Time      time.Time      `json:"time"`
	Level     string         `json:"level"`
	Component string         `json:"component,omitempty"`
	Event     string         `json:"event,omitempty"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// BufferMetrics counts what the recent log buffer accepted and dropped.
type BufferMetrics struct {
	Accepted               uint64 `json:"accepted"`
	DroppedIrrelevant      uint64 `json:"droppedIrrelevant"`
	DroppedInvalid         uint64 `json:"droppedInvalid"`
	DroppedTooLargeLines   uint64 `json:"droppedTooLargeLines"`
	DroppedPartialOverflow uint64 `json:"droppedPartialOverflow"`
}

// relevantComponents are kept regardless of level.
var relevantComponents = map[string]bool{
	"audit":      true,
	"configedit": true,
	"supervisor": true,
	"mods":       true,
}

var reservedFields = map[string]bool{
	zerolog.TimestampFieldName: true,
	zerolog.LevelFieldName:     true,
	zerolog.MessageFieldName:   true,
	FieldComponent:             true,
	FieldEvent:                 true,
	FieldService:               true,
	FieldVersion:               true,
}

type recentBuffer struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	full    bool
	metrics BufferMetrics
}

var (
	recent       = &recentBuffer{entries: make([]Entry, maxRecentLogs)}
	recentWriter = &structuredBufferWriter{}
)

// structuredBufferWriter splits the JSON log stream into lines and keeps the
// relevant ones in the recent buffer. Partial writes are reassembled.
type structuredBufferWriter struct {
	mu      sync.Mutex
	partial bytes.Buffer
}

func (w *structuredBufferWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.partial.Write(p)
	for {
		idx := bytes.IndexByte(w.partial.Bytes(), '\n')
		if idx < 0 {
			if w.partial.Len() > maxPartialBytes {
				w.partial.Reset()
				recent.count(func(m *BufferMetrics) { m.DroppedPartialOverflow++ })
			}
			break
		}
		line := make([]byte, idx)
		copy(line, w.partial.Bytes()[:idx])
		w.partial.Next(idx + 1)
		recent.accept(line)
	}
	return len(p), nil
}

func (b *recentBuffer) count(f func(*BufferMetrics)) {
	b.mu.Lock()
	f(&b.metrics)
	b.mu.Unlock()
}

func (b *recentBuffer) accept(line []byte) {
	if len(line) > maxLineBytes {
		b.count(func(m *BufferMetrics) { m.DroppedTooLargeLines++ })
		return
	}
	var fields map[string]any
	if err := json.Unmarshal(line, &fields); err != nil {
		b.count(func(m *BufferMetrics) { m.DroppedInvalid++ })
		return
	}

	e := Entry{
		Level:     stringField(fields, zerolog.LevelFieldName),
		Component: stringField(fields, FieldComponent),
		Event:     stringField(fields, FieldEvent),
		Message:   stringField(fields, zerolog.MessageFieldName),
	}
	if !relevant(e) {
		b.count(func(m *BufferMetrics) { m.DroppedIrrelevant++ })
		return
	}
	if ts, err := time.Parse(time.RFC3339, stringField(fields, zerolog.TimestampFieldName)); err == nil {
		e.Time = ts
	}
	for k, v := range fields {
		if reservedFields[k] {
			continue
		}
		if e.Fields == nil {
			e.Fields = make(map[string]any)
		}
		e.Fields[k] = v
	}

	b.mu.Lock()
	b.entries[b.next] = e
	b.next = (b.next + 1) % len(b.entries)
	if b.next == 0 {
		b.full = true
	}
	b.metrics.Accepted++
	b.mu.Unlock()
}

func relevant(e Entry) bool {
	if relevantComponents[e.Component] {
		return true
	}
	lvl, err := zerolog.ParseLevel(e.Level)
	return err == nil && lvl >= zerolog.WarnLevel && lvl != zerolog.NoLevel
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// GetRecentLogs returns the buffered entries, oldest first.
func GetRecentLogs() []Entry {
	recent.mu.Lock()
	defer recent.mu.Unlock()
	if !recent.full {
		out := make([]Entry, recent.next)
		copy(out, recent.entries[:recent.next])
		return out
	}
	out := make([]Entry, 0, len(recent.entries))
	out = append(out, recent.entries[recent.next:]...)
	return append(out, recent.entries[:recent.next]...)
}

// ClearRecentLogs empties the buffer and resets its counters.
func ClearRecentLogs() {
	recent.mu.Lock()
	recent.entries = make([]Entry, maxRecentLogs)
	recent.next = 0
	recent.full = false
	recent.metrics = BufferMetrics{}
	recent.mu.Unlock()
}

// GetBufferMetrics returns a snapshot of the buffer counters.
func GetBufferMetrics() BufferMetrics {
	recent.mu.Lock()
	defer recent.mu.Unlock()
	return recent.metrics
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package audit records operator actions that change files, processes or
// databases. It follows the WHO/WHAT/WHEN pattern; entries go through the
// global logger and therefore land in the panel log buffer.
package audit

import (
	"net/http"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/pzpanel/pzpanel/internal/log"
)

// EventType represents the type of audit event.
type EventType string

const (
	// Config file events
	EventSettingsWrite EventType = "audit.settings.write"
	EventFileWrite     EventType = "audit.file.write"
	EventModsWrite     EventType = "audit.mods.write"

	// Game server events
	EventServerStart EventType = "audit.server.start"
	EventServerStop  EventType = "audit.server.stop"
	EventRCONCommand EventType = "audit.rcon.command"

	// Destructive database events
	EventDatabaseDropTable EventType = "audit.database.drop_table"
	EventDatabaseDelete    EventType = "audit.database.delete_db"

	// Panel events
	EventLogsClear EventType = "audit.logs.clear"
)

// Destructive reports whether the event removes data that cannot be restored.
func (t EventType) Destructive() bool {
	return t == EventDatabaseDropTable || t == EventDatabaseDelete
}

// Event represents a structured audit event.
type Event struct {
	Timestamp  time.Time
	Type       EventType
	Action     string // WHAT: human-readable action description
	Resource   string // file, table or command affected
	RemoteAddr string // WHO: client address
	UserAgent  string
	RequestID  string
	Details    map[string]string // additional context, flattened into the entry
}

// Logger provides audit logging functionality.
type Logger struct {
	logger zerolog.Logger
	now    func() time.Time
}

// NewLogger creates a new audit logger with a dedicated "audit" component.
func NewLogger() *Logger {
	return newLogger(log.WithComponent("audit"))
}

func newLogger(base zerolog.Logger) *Logger {
	return &Logger{
		logger: base.With().Str("log_type", "audit").Logger(),
		now:    time.Now,
	}
}

// Log writes an audit event. Destructive events are logged at warn level.
func (l *Logger) Log(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = l.now()
	}

	e := l.logger.Info()
	if event.Type.Destructive() {
		e = l.logger.Warn()
	}
	e = e.Time("timestamp", event.Timestamp).
		Str(log.FieldEvent, string(event.Type)).
		Str("resource", event.Resource)

	if event.RemoteAddr != "" {
		e = e.Str(log.FieldRemoteAddr, event.RemoteAddr)
	}
	if event.UserAgent != "" {
		e = e.Str("user_agent", event.UserAgent)
	}
	if event.RequestID != "" {
		e = e.Str(log.FieldRequestID, event.RequestID)
	}

	keys := make([]string, 0, len(event.Details))
	for k := range event.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		e = e.Str(k, event.Details[k])
	}

	e.Msg(event.Action)
}

// Record logs event with the caller's address, user agent and request id taken from r.
func (l *Logger) Record(r *http.Request, event Event) {
	if event.RemoteAddr == "" {
		event.RemoteAddr = r.RemoteAddr
	}
	if event.UserAgent == "" {
		event.UserAgent = r.UserAgent()
	}
	if event.RequestID == "" {
		event.RequestID = log.RequestIDFromContext(r.Context())
	}
	l.Log(event)
}

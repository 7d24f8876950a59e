// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pzpanel/pzpanel/internal/log"
)

func capture(t *testing.T) (*Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l := newLogger(zerolog.New(&buf))
	l.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return l, &buf
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out), buf.String())
	return out
}

func TestNewLogger(t *testing.T) {
	assert.NotNil(t, NewLogger())
}

func TestLog(t *testing.T) {
	l, buf := capture(t)
	l.Log(Event{
		Type:     EventSettingsWrite,
		Action:   "settings saved",
		Resource: "/srv/pz/server.ini",
		Details:  map[string]string{"keys": "2"},
	})

	entry := decode(t, buf)
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "audit.settings.write", entry[log.FieldEvent])
	assert.Equal(t, "/srv/pz/server.ini", entry["resource"])
	assert.Equal(t, "2", entry["keys"])
	assert.Equal(t, "audit", entry["log_type"])
	assert.Equal(t, "settings saved", entry["message"])
	assert.Equal(t, "2025-03-01T12:00:00Z", entry["timestamp"])
	assert.NotContains(t, entry, log.FieldRemoteAddr, "empty optional fields are omitted")
}

func TestLogDestructiveIsWarn(t *testing.T) {
	for _, typ := range []EventType{EventDatabaseDropTable, EventDatabaseDelete} {
		l, buf := capture(t)
		l.Log(Event{Type: typ, Action: "gone", Resource: "players.db"})
		assert.Equal(t, "warn", decode(t, buf)["level"], typ)
	}
	assert.False(t, EventServerStop.Destructive())
}

func TestRecord(t *testing.T) {
	l, buf := capture(t)
	r := httptest.NewRequest("POST", "/api/server-control", nil)
	r.RemoteAddr = "10.0.0.7:5123"
	r.Header.Set("User-Agent", "curl/8.0")
	r = r.WithContext(log.ContextWithRequestID(context.Background(), "req-42"))

	l.Record(r, Event{Type: EventServerStart, Action: "game server started", Resource: "/srv/pz"})

	entry := decode(t, buf)
	assert.Equal(t, "10.0.0.7:5123", entry[log.FieldRemoteAddr])
	assert.Equal(t, "curl/8.0", entry["user_agent"])
	assert.Equal(t, "req-42", entry[log.FieldRequestID])
}

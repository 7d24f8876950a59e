// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructuredBufferWriter_Framing(t *testing.T) {
	ClearRecentLogs()
	w := &structuredBufferWriter{}

	part1 := `{"time":"2026-01-01T00:00:00Z","level":"info","component":"audit","event":"test.split","message":"part1`
	part2 := `_part2","path":"/srv/server.ini"}` + "\n"

	_, _ = w.Write([]byte(part1))
	assert.Empty(t, GetRecentLogs(), "partial line must not be recorded")

	_, _ = w.Write([]byte(part2))
	logs := GetRecentLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, "test.split", logs[0].Event)
	assert.Equal(t, "part1_part2", logs[0].Message)
	assert.Equal(t, "/srv/server.ini", logs[0].Fields["path"])
	assert.Equal(t, 2026, logs[0].Time.Year())

	burst := `{"level":"info","component":"supervisor","event":"server.started","message":"a"}` + "\n" +
		`{"level":"error","component":"http","message":"b"}` + "\n"
	_, _ = w.Write([]byte(burst))
	assert.Len(t, GetRecentLogs(), 3)
}

func TestStructuredBufferWriter_Bounds(t *testing.T) {
	ClearRecentLogs()
	w := &structuredBufferWriter{}

	_, _ = w.Write([]byte(strings.Repeat("A", maxPartialBytes+1)))
	assert.Zero(t, w.partial.Len(), "partial buffer must reset after overflow")
	assert.NotZero(t, GetBufferMetrics().DroppedPartialOverflow)

	ClearRecentLogs()
	giant := `{"level":"error","message":"` + strings.Repeat("B", maxLineBytes) + `"}` + "\n"
	_, _ = w.Write([]byte(giant))
	assert.Empty(t, GetRecentLogs())
	assert.NotZero(t, GetBufferMetrics().DroppedTooLargeLines)

	_, _ = w.Write([]byte("not json\n"))
	assert.NotZero(t, GetBufferMetrics().DroppedInvalid)
}

func TestStructuredBufferWriter_RelevanceFilter(t *testing.T) {
	ClearRecentLogs()
	w := &structuredBufferWriter{}

	lines := []string{
		`{"level":"info","component":"configedit","event":"config.saved","message":"ok"}`,
		`{"level":"warn","component":"workshop","message":"slow"}`,
		`{"level":"debug","component":"http","event":"request.handled","message":"GET /"}`,
		`{"level":"info","component":"cache","message":"hit"}`,
	}
	for _, l := range lines {
		_, _ = w.Write([]byte(l + "\n"))
	}

	logs := GetRecentLogs()
	require.Len(t, logs, 2)
	assert.Equal(t, "configedit", logs[0].Component)
	assert.Equal(t, "warn", logs[1].Level)
	assert.EqualValues(t, 2, GetBufferMetrics().DroppedIrrelevant)
}

func TestRecentBufferWraps(t *testing.T) {
	ClearRecentLogs()
	w := &structuredBufferWriter{}
	for i := 0; i < maxRecentLogs+5; i++ {
		_, _ = w.Write([]byte(`{"level":"error","message":"m"}` + "\n"))
	}
	assert.Len(t, GetRecentLogs(), maxRecentLogs)
	assert.EqualValues(t, maxRecentLogs+5, GetBufferMetrics().Accepted)
}

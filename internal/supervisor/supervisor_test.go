// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

//go:build linux

package supervisor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func writeLauncher(t *testing.T, script string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "start-server.sh"), []byte(script), 0o644))
	return dir
}

func containsLine(lines []string, sub string) bool {
	for _, l := range lines {
		if strings.Contains(l, sub) {
			return true
		}
	}
	return false
}

func newTestSupervisor(opts Options) *Supervisor {
	opts.GOOS = "linux"
	if opts.StopGrace == 0 {
		opts.StopGrace = time.Second
	}
	return New(opts)
}

func TestLifecycle(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := writeLauncher(t, "echo hello\necho oops >&2\nexec sleep 30\n")
	s := newTestSupervisor(Options{})
	lines, cancel := s.Subscribe(16)

	st, err := s.Start(context.Background(), dir)
	require.NoError(t, err)
	assert.True(t, st.Running)
	assert.NotZero(t, st.PID)
	assert.Equal(t, filepath.Join(dir, "start-server.sh"), st.Launcher)

	require.Eventually(t, func() bool {
		tail := s.TailLogs(0)
		return containsLine(tail, "] hello") && containsLine(tail, "] [ERROR] oops")
	}, 5*time.Second, 20*time.Millisecond)

	first := <-lines
	assert.Regexp(t, `^\[\d{4}-\d{2}-\d{2}T[^\]]+\] === starting`, first)

	_, err = s.Start(context.Background(), dir)
	require.ErrorIs(t, err, ErrAlreadyRunning)

	ctx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	require.NoError(t, s.Stop(ctx))

	st = s.Status()
	assert.False(t, st.Running)
	require.NotNil(t, st.LastExit)
	assert.Equal(t, "stopped", st.LastExit.Reason)

	require.ErrorIs(t, s.Stop(ctx), ErrNotRunning)
	require.Eventually(t, func() bool {
		return containsLine(s.TailLogs(0), "=== server stopped")
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	cancel()
	require.NoError(t, s.Close(context.Background()))
}

func TestExitIsRecorded(t *testing.T) {
	dir := writeLauncher(t, "echo bye\nexit 3\n")
	s := newTestSupervisor(Options{})

	_, err := s.Start(context.Background(), dir)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return !s.Running() }, 5*time.Second, 20*time.Millisecond)

	st := s.Status()
	require.NotNil(t, st.LastExit)
	assert.Equal(t, 3, st.LastExit.Code)
	assert.Equal(t, "error", st.LastExit.Reason)
	assert.Contains(t, st.LastExit.Error, "exit status 3")
	assert.True(t, containsLine(s.TailLogs(0), "] bye"))

	_, err = s.Start(context.Background(), dir)
	require.NoError(t, err, "a finished server can be started again")
	require.Eventually(t, func() bool { return !s.Running() }, 5*time.Second, 20*time.Millisecond)
}

func TestExtraArgs(t *testing.T) {
	dir := writeLauncher(t, "for a in \"$@\"; do echo \"arg=$a\"; done\n")
	s := newTestSupervisor(Options{ExtraArgs: func() string { return `-servername "my server" -nosteam` }})

	_, err := s.Start(context.Background(), dir)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return !s.Running() }, 5*time.Second, 20*time.Millisecond)

	tail := s.TailLogs(0)
	assert.True(t, containsLine(tail, "arg=-servername"))
	assert.True(t, containsLine(tail, "arg=my server"))
	assert.True(t, containsLine(tail, "arg=-nosteam"))
}

func TestStartErrors(t *testing.T) {
	s := newTestSupervisor(Options{ExtraArgs: func() string { return `"unterminated` }})

	_, err := s.Start(context.Background(), "")
	require.ErrorIs(t, err, ErrNoServerPath)

	_, err = s.Start(context.Background(), t.TempDir())
	require.ErrorIs(t, err, ErrLauncherNotFound)

	_, err = s.Start(context.Background(), writeLauncher(t, "true\n"))
	require.ErrorContains(t, err, "extra launch args")

	require.ErrorIs(t, s.Stop(context.Background()), ErrNotRunning)

	require.NoError(t, s.Close(context.Background()))
	_, err = s.Start(context.Background(), writeLauncher(t, "true\n"))
	require.ErrorIs(t, err, ErrClosed)

	ch, cancel := s.Subscribe(1)
	_, open := <-ch
	assert.False(t, open, "subscriptions after close are closed")
	cancel()
}

func TestStatusUptime(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	dir := writeLauncher(t, "exec sleep 30\n")
	s := newTestSupervisor(Options{Now: clock})

	_, err := s.Start(context.Background(), dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	now = now.Add(90 * time.Second)
	st := s.Status()
	assert.Equal(t, "1m30s", st.Uptime)
	assert.Equal(t, time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC), *st.StartedAt)
	assert.Contains(t, s.TailLogs(1)[0], "[2025-01-01T12:00:00Z]")
}

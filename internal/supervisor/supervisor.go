// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package supervisor owns the game server child process: it starts the
// launcher script, captures console output into a bounded ring, fans new
// lines out to subscribers and stops the process group on request.
package supervisor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"mvdan.cc/sh/v3/shell"

	xglog "github.com/pzpanel/pzpanel/internal/log"
	"github.com/pzpanel/pzpanel/internal/metrics"
	"github.com/pzpanel/pzpanel/internal/procgroup"
)

var (
	ErrAlreadyRunning = errors.New("supervisor: server is already running")
	ErrNotRunning     = errors.New("supervisor: server is not running")
	ErrNoServerPath   = errors.New("supervisor: server path is not configured")
	ErrClosed         = errors.New("supervisor: closed")
)

const (
	DefaultStopGrace = 5 * time.Second
	killTimeout      = 5 * time.Second
	pipeWaitDelay    = 2 * time.Second
)

// Options configures a Supervisor.
type Options struct {
	// ExtraArgs returns shell words appended to the launcher invocation; read per start.
	ExtraArgs   func() string
	StopGrace   time.Duration
	LogCapacity int
	Fs          afero.Fs
	GOOS        string
	Now         func() time.Time
}

// run is one started child.
type run struct {
	cmd       *exec.Cmd
	launcher  string
	startedAt time.Time
	done      chan struct{}
	err       error
	stopping  bool
}

// Supervisor is the single owner of the game server process.
type Supervisor struct {
	opts   Options
	ring   *Ring
	logger zerolog.Logger

	mu       sync.Mutex
	current  *run
	lastExit *Exit
	closed   bool

	subMu  sync.Mutex
	subs   map[int]chan string
	nextID int
}

// Exit describes how the previous run ended.
type Exit struct {
	Code     int       `json:"code"`
	Error    string    `json:"error,omitempty"`
	Reason   string    `json:"reason"`
	ExitedAt time.Time `json:"exitedAt"`
}

// Status is a snapshot of the supervised process.
type Status struct {
	Running   bool       `json:"running"`
	Stopping  bool       `json:"stopping,omitempty"`
	PID       int        `json:"pid,omitempty"`
	Launcher  string     `json:"batPath,omitempty"`
	StartedAt *time.Time `json:"startedAt,omitempty"`
	Uptime    string     `json:"uptime,omitempty"`
	LastExit  *Exit      `json:"lastExit,omitempty"`
}

// New creates a Supervisor.
func New(opts Options) *Supervisor {
	if opts.ExtraArgs == nil {
		opts.ExtraArgs = func() string { return "" }
	}
	if opts.StopGrace <= 0 {
		opts.StopGrace = DefaultStopGrace
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.GOOS == "" {
		opts.GOOS = runtime.GOOS
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Supervisor{
		opts:   opts,
		ring:   NewRing(opts.LogCapacity),
		logger: xglog.WithComponent("supervisor"),
		subs:   make(map[int]chan string),
	}
}

// Start launches the server found at serverPath.
func (s *Supervisor) Start(ctx context.Context, serverPath string) (Status, error) {
	if err := ctx.Err(); err != nil {
		return Status{}, err
	}
	if strings.TrimSpace(serverPath) == "" {
		return Status{}, ErrNoServerPath
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Status{}, ErrClosed
	}
	if s.current != nil {
		return Status{}, ErrAlreadyRunning
	}

	launcher, err := findLauncher(s.opts.Fs, serverPath, LauncherNames(s.opts.GOOS))
	if err != nil {
		metrics.RecordServerStart(err)
		return Status{}, err
	}
	args, err := shell.Fields(s.opts.ExtraArgs(), nil)
	if err != nil {
		err = fmt.Errorf("parse extra launch args: %w", err)
		metrics.RecordServerStart(err)
		return Status{}, err
	}

	cmd := launchCommand(s.opts.GOOS, launcher, args)
	procgroup.Set(cmd)
	stdout := &lineWriter{emit: s.emit}
	stderr := &lineWriter{prefix: "[ERROR] ", emit: s.emit}
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = pipeWaitDelay

	s.ring.Reset()
	s.emit("=== starting Project Zomboid server ===")
	s.emit("launcher: " + launcher)

	if err := cmd.Start(); err != nil {
		s.emit("[ERROR] " + err.Error())
		metrics.RecordServerStart(err)
		return Status{}, fmt.Errorf("start %s: %w", launcher, err)
	}

	r := &run{cmd: cmd, launcher: launcher, startedAt: s.opts.Now(), done: make(chan struct{})}
	s.current = r
	metrics.RecordServerStart(nil)
	metrics.SetServerRunning(true)
	s.logger.Info().
		Str(xglog.FieldEvent, "supervisor.start").
		Str(xglog.FieldPath, launcher).
		Int("pid", cmd.Process.Pid).
		Strs("args", args).
		Msg("game server started")

	go s.wait(r, stdout, stderr)
	return s.statusLocked(), nil
}

func (s *Supervisor) wait(r *run, stdout, stderr *lineWriter) {
	err := r.cmd.Wait()
	stdout.Flush()
	stderr.Flush()

	s.mu.Lock()
	r.err = err
	exit := &Exit{Code: exitCode(r.cmd, err), ExitedAt: s.opts.Now()}
	switch {
	case r.stopping:
		exit.Reason = "stopped"
	case err == nil:
		exit.Reason = "clean"
	default:
		exit.Reason = "error"
	}
	if err != nil {
		exit.Error = err.Error()
	}
	s.lastExit = exit
	if s.current == r {
		s.current = nil
	}
	s.mu.Unlock()

	close(r.done)
	metrics.SetServerRunning(false)
	metrics.RecordServerExit(exit.Reason)
	s.emit(fmt.Sprintf("=== server stopped (exit code: %d) ===", exit.Code))
	s.logger.Info().
		Str(xglog.FieldEvent, "supervisor.exit").
		Int("code", exit.Code).
		Str("reason", exit.Reason).
		Msg("game server exited")
}

func exitCode(cmd *exec.Cmd, err error) int {
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// Stop terminates the process group: SIGTERM, then SIGKILL after the grace
// period. It returns once the process has exited or ctx is done.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.mu.Lock()
	r := s.current
	if r == nil {
		s.mu.Unlock()
		return ErrNotRunning
	}
	already := r.stopping
	r.stopping = true
	s.mu.Unlock()

	if !already {
		s.emit("=== stopping server ===")
		s.logger.Info().
			Str(xglog.FieldEvent, "supervisor.stop").
			Int("pid", r.cmd.Process.Pid).
			Dur("grace", s.opts.StopGrace).
			Msg("stopping game server")

		waitCh := make(chan error, 1)
		go func() {
			<-r.done
			waitCh <- r.err
		}()
		go func() {
			if err := procgroup.Terminate(r.cmd, waitCh, s.opts.StopGrace, killTimeout); errors.Is(err, procgroup.ErrKillFailed) {
				s.logger.Error().Err(err).
					Str(xglog.FieldEvent, "supervisor.stop").
					Msg("game server survived SIGKILL")
			}
		}()
	}

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status returns a snapshot of the process state.
func (s *Supervisor) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

func (s *Supervisor) statusLocked() Status {
	st := Status{LastExit: s.lastExit}
	if r := s.current; r != nil {
		started := r.startedAt
		st.Running = true
		st.Stopping = r.stopping
		st.PID = r.cmd.Process.Pid
		st.Launcher = r.launcher
		st.StartedAt = &started
		st.Uptime = s.opts.Now().Sub(started).Truncate(time.Second).String()
	}
	return st
}

// Running reports whether a child is alive.
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

// TailLogs returns the newest n console lines; n <= 0 returns the whole buffer.
func (s *Supervisor) TailLogs(n int) []string { return s.ring.Tail(n) }

// Subscribe returns a channel receiving every new console line and a cancel
// function. Slow subscribers miss lines rather than block the process.
func (s *Supervisor) Subscribe(buffer int) (<-chan string, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan string, buffer)

	s.subMu.Lock()
	if s.subs == nil {
		s.subMu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

func (s *Supervisor) emit(line string) {
	line = "[" + s.opts.Now().Format(time.RFC3339) + "] " + line
	s.ring.Append(line)
	metrics.IncServerLogLines()

	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- line:
		default:
		}
	}
}

// Close stops a running child and closes all subscriptions. It is meant
// for daemon shutdown; the Supervisor cannot be started again.
func (s *Supervisor) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	running := s.current != nil
	s.mu.Unlock()

	var err error
	if running {
		if err = s.Stop(ctx); errors.Is(err, ErrNotRunning) {
			err = nil
		}
	}

	s.subMu.Lock()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	s.subs = nil
	s.subMu.Unlock()
	return err
}

// lineWriter splits process output into lines. It is used by a single
// exec copy goroutine and by Flush after Wait.
type lineWriter struct {
	prefix string
	emit   func(string)
	buf    bytes.Buffer
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.buf.Write(p)
	for {
		i := bytes.IndexByte(w.buf.Bytes(), '\n')
		if i < 0 {
			break
		}
		line := string(w.buf.Next(i + 1))
		w.line(line)
	}
	return len(p), nil
}

// Flush emits a trailing partial line.
func (w *lineWriter) Flush() {
	if w.buf.Len() > 0 {
		w.line(w.buf.String())
		w.buf.Reset()
	}
}

func (w *lineWriter) line(s string) {
	s = strings.TrimRight(s, "\r\n")
	if strings.TrimSpace(s) == "" {
		return
	}
	w.emit(w.prefix + s)
}

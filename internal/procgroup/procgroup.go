// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package procgroup starts children in their own process group and stops
// the whole group, so that launcher scripts do not leave the JVM behind.
package procgroup

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/pzpanel/pzpanel/internal/metrics"
)

// ErrKillFailed is returned when the group outlives SIGKILL.
var ErrKillFailed = errors.New("procgroup: process did not exit after kill")

// Terminate stops the process group of cmd: SIGTERM, then SIGKILL when the
// process has not exited after grace. waitCh must deliver the result of
// cmd.Wait; Terminate consumes it and returns that error. After SIGKILL it
// waits at most killTimeout.
func Terminate(cmd *exec.Cmd, waitCh <-chan error, grace, killTimeout time.Duration) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}

	record("SIGTERM", Kill(cmd, syscall.SIGTERM))

	select {
	case err := <-waitCh:
		return err
	case <-time.After(grace):
	}

	record("SIGKILL", Kill(cmd, syscall.SIGKILL))
	select {
	case err := <-waitCh:
		return err
	case <-time.After(killTimeout):
		return ErrKillFailed
	}
}

func record(signal string, err error) {
	switch {
	case err == nil:
		metrics.RecordServerSignal(signal, "sent")
	case errors.Is(err, os.ErrProcessDone), errors.Is(err, syscall.ESRCH):
		metrics.RecordServerSignal(signal, "gone")
	default:
		metrics.RecordServerSignal(signal, "error")
	}
}

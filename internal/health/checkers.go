// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pzpanel/pzpanel/internal/resilience"
)

// ServerFilesChecker checks that the configured server directory holds the
// server settings file. An unconfigured path is healthy; a missing file is
// degraded because the dashboard still serves every other page.
type ServerFilesChecker struct {
	location func() (dir, name string)
}

// NewServerFilesChecker creates a checker reading the server directory and
// server name per call, so config reloads apply.
func NewServerFilesChecker(location func() (dir, name string)) *ServerFilesChecker {
	return &ServerFilesChecker{location: location}
}

func (c *ServerFilesChecker) Name() string {
	return "server_files"
}

func (c *ServerFilesChecker) Check(_ context.Context) CheckResult {
	dir, name := c.location()
	if dir == "" {
		return CheckResult{
			Status:  StatusHealthy,
			Message: "not configured (optional)",
		}
	}

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return CheckResult{
				Status:  StatusDegraded,
				Error:   "server directory not found",
				Message: dir,
			}
		}
		return CheckResult{
			Status: StatusDegraded,
			Error:  err.Error(),
		}
	}
	if !info.IsDir() {
		return CheckResult{
			Status: StatusDegraded,
			Error:  "expected directory, got file",
		}
	}

	ini := filepath.Join(dir, name+".ini")
	info, err = os.Stat(ini)
	switch {
	case err != nil:
		return CheckResult{
			Status:  StatusDegraded,
			Error:   "settings file not found",
			Message: ini,
		}
	case info.Size() == 0:
		return CheckResult{
			Status:  StatusDegraded,
			Message: "settings file is empty",
		}
	}

	return CheckResult{
		Status:  StatusHealthy,
		Message: "settings file exists and readable",
	}
}

// BreakerChecker reports an outbound circuit breaker. An open or probing
// breaker degrades the service; it never makes it unready.
type BreakerChecker struct {
	name     string
	snapshot func() resilience.Snapshot
}

// NewBreakerChecker creates a checker for the breaker behind snapshot.
func NewBreakerChecker(name string, snapshot func() resilience.Snapshot) *BreakerChecker {
	return &BreakerChecker{name: name, snapshot: snapshot}
}

func (c *BreakerChecker) Name() string {
	return c.name
}

func (c *BreakerChecker) Check(_ context.Context) CheckResult {
	s := c.snapshot()
	switch s.State {
	case resilience.StateOpen:
		return CheckResult{
			Status:  StatusDegraded,
			Message: fmt.Sprintf("circuit open since %s", s.OpenedAt.Format("15:04:05")),
		}
	case resilience.StateHalfOpen:
		return CheckResult{
			Status:  StatusDegraded,
			Message: "circuit half-open, probing upstream",
		}
	}
	return CheckResult{
		Status:  StatusHealthy,
		Message: fmt.Sprintf("circuit closed (%d recent failures)", s.Failures),
	}
}

// GameServerChecker reports whether the supervised game server is running.
// A stopped server is a normal state.
type GameServerChecker struct {
	status func() (running bool, pid int)
}

func NewGameServerChecker(status func() (running bool, pid int)) *GameServerChecker {
	return &GameServerChecker{status: status}
}

func (c *GameServerChecker) Name() string {
	return "game_server"
}

func (c *GameServerChecker) Check(_ context.Context) CheckResult {
	running, pid := c.status()
	if !running {
		return CheckResult{Status: StatusHealthy, Message: "stopped"}
	}
	return CheckResult{Status: StatusHealthy, Message: fmt.Sprintf("running (pid %d)", pid)}
}

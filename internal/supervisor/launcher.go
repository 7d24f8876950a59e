// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package supervisor

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/afero"
)

// ErrLauncherNotFound is returned when no start script exists near the server path.
var ErrLauncherNotFound = errors.New("supervisor: server launcher not found")

// MaxParentLevels is how far above the server path launchers are searched.
const MaxParentLevels = 3

// LauncherNames returns the start script names tried for goos, in order.
func LauncherNames(goos string) []string {
	if goos == "windows" {
		return []string{"StartServer64.bat", "StartServer64_nosteam.bat"}
	}
	return []string{"start-server.sh"}
}

// FindLauncher looks for a start script in serverPath and up to three of
// its parents. serverPath may name the launcher itself.
func FindLauncher(fs afero.Fs, serverPath string) (string, error) {
	return findLauncher(fs, serverPath, LauncherNames(runtime.GOOS))
}

func findLauncher(fs afero.Fs, serverPath string, names []string) (string, error) {
	if serverPath == "" {
		return "", ErrLauncherNotFound
	}
	serverPath = filepath.Clean(serverPath)

	if info, err := fs.Stat(serverPath); err == nil && !info.IsDir() {
		base := filepath.Base(serverPath)
		for _, n := range names {
			if strings.EqualFold(base, n) {
				return serverPath, nil
			}
		}
		serverPath = filepath.Dir(serverPath)
	}

	dir := serverPath
	for level := 0; level <= MaxParentLevels; level++ {
		for _, n := range names {
			p := filepath.Join(dir, n)
			if info, err := fs.Stat(p); err == nil && !info.IsDir() {
				return p, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("%w in %s or its parents (tried %s)", ErrLauncherNotFound, serverPath, strings.Join(names, ", "))
}

// launchCommand builds the command that runs launcher with args.
func launchCommand(goos, launcher string, args []string) *exec.Cmd {
	var cmd *exec.Cmd
	if goos == "windows" {
		cmd = exec.Command("cmd.exe", append([]string{"/c", launcher}, args...)...)
	} else {
		cmd = exec.Command("/bin/sh", append([]string{launcher}, args...)...)
	}
	cmd.Dir = filepath.Dir(launcher)
	return cmd
}

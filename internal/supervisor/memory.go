// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package supervisor

import (
	"encoding/json"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// VMConfigFile is the JVM options file shipped next to the Linux launcher.
const VMConfigFile = "ProjectZomboid64.json"

var (
	xmxFlag = regexp.MustCompile(`(?i)-Xmx(\d+(?:\.\d+)?[gmk]?)`)
	xmsFlag = regexp.MustCompile(`(?i)-Xms(\d+(?:\.\d+)?[gmk]?)`)
)

// Memory is the JVM heap configuration of the game server.
type Memory struct {
	Max      string   `json:"maxMemory"`
	MaxMB    *float64 `json:"maxMemoryMB"`
	Min      string   `json:"minMemory"`
	MinMB    *float64 `json:"minMemoryMB"`
	Launcher string   `json:"batFilePath"`
	VMConfig string   `json:"vmConfigPath,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// MemorySettings reads -Xmx and -Xms from the launcher and, for values the
// launcher does not set, from ProjectZomboid64.json in the launcher directory.
func MemorySettings(fs afero.Fs, serverPath string) (*Memory, error) {
	return memorySettings(fs, serverPath, LauncherNames(runtime.GOOS))
}

func memorySettings(fs afero.Fs, serverPath string, names []string) (*Memory, error) {
	launcher, err := findLauncher(fs, serverPath, names)
	if err != nil {
		return nil, err
	}
	m := &Memory{Launcher: launcher}

	raw, err := afero.ReadFile(fs, launcher)
	if err != nil {
		return nil, err
	}
	m.Max = firstMatch(xmxFlag, string(raw))
	m.Min = firstMatch(xmsFlag, string(raw))

	if m.Max == "" || m.Min == "" {
		p := filepath.Join(filepath.Dir(launcher), VMConfigFile)
		if args, ok := readVMArgs(fs, p); ok {
			m.VMConfig = p
			joined := strings.Join(args, " ")
			if m.Max == "" {
				m.Max = firstMatch(xmxFlag, joined)
			}
			if m.Min == "" {
				m.Min = firstMatch(xmsFlag, joined)
			}
		}
	}

	m.MaxMB = ParseMemoryMB(m.Max)
	m.MinMB = ParseMemoryMB(m.Min)
	return m, nil
}

func readVMArgs(fs afero.Fs, path string) ([]string, bool) {
	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, false
	}
	var cfg struct {
		VMArgs []string `json:"vmArgs"`
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, false
	}
	return cfg.VMArgs, true
}

func firstMatch(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}

// ParseMemoryMB converts a JVM size such as "6G", "4096m" or "512k" to
// megabytes. A missing suffix means megabytes. Empty or invalid input yields nil.
func ParseMemoryMB(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	mult := 1.0
	switch s[len(s)-1] {
	case 'g', 'G':
		mult, s = 1024, s[:len(s)-1]
	case 'm', 'M':
		s = s[:len(s)-1]
	case 'k', 'K':
		mult, s = 1.0/1024, s[:len(s)-1]
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	mb := n * mult
	return &mb
}

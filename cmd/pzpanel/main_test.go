// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pzpanel/pzpanel/internal/version"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"--no-color"}, args...))
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "pzpanel "+version.Version)
}

func TestSettingsShow(t *testing.T) {
	path := writeFile(t, "server.ini", "# comment\nPVP=true\nMaxPlayers=32\n")

	out, _, err := run(t, "settings", "show", path)
	require.NoError(t, err)
	assert.Contains(t, out, "flat_ini")
	assert.Contains(t, out, "PVP = true\nMaxPlayers = 32\n")

	out, _, err = run(t, "settings", "show", "--json", path)
	require.NoError(t, err)
	var view map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, "flat_ini", view["dialect"])
}

func TestSettingsSet(t *testing.T) {
	original := "# comment\nPVP=true\nMaxPlayers=32\n"
	path := writeFile(t, "server.ini", original)

	out, _, err := run(t, "settings", "set", "--dry-run", path, "MaxPlayers=16", "PublicName=Knox")
	require.NoError(t, err)
	assert.Contains(t, out, "- MaxPlayers=32")
	assert.Contains(t, out, "+ MaxPlayers=16")
	assert.Contains(t, out, "+ PublicName=Knox")
	assert.Contains(t, out, "dry run, nothing written")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, string(raw), "dry run leaves the file alone")

	out, _, err = run(t, "settings", "set", path, "MaxPlayers=16")
	require.NoError(t, err)
	assert.Contains(t, out, "1 changed, 0 appended, written")

	raw, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# comment\nPVP=true\nMaxPlayers=16\n", string(raw))

	out, _, err = run(t, "settings", "set", path, "MaxPlayers=16")
	require.NoError(t, err)
	assert.Contains(t, out, "no changes")
}

func TestSettingsSetLua(t *testing.T) {
	path := writeFile(t, "servertest_SandboxVars.lua", "SandboxVars = {\n    Zombies = 4,\n    ZombieLore = {\n        Speed = 2,\n    },\n}\n")

	_, _, err := run(t, "settings", "set", path, "Speed=1", "Zombies=3")
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "SandboxVars = {\n    Zombies = 3,\n    ZombieLore = {\n        Speed = 1,\n    },\n}\n", string(raw))
}

func TestSettingsSetErrors(t *testing.T) {
	path := writeFile(t, "server.ini", "PVP=true\n")

	_, _, err := run(t, "settings", "set", path, "novalue")
	require.Error(t, err)

	_, _, err = run(t, "settings", "set", path)
	require.Error(t, err)

	_, stderr, err := run(t, "settings", "set", path, "PVP=maybe")
	require.Error(t, err)
	assert.Contains(t, stderr, "PVP")

	_, stderr, err = run(t, "settings", "set", path, "Bad Key=1")
	require.Error(t, err)
	assert.Contains(t, stderr, "Bad Key")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "PVP=true\n", string(raw))

	_, _, err = run(t, "settings", "show", filepath.Join(t.TempDir(), "missing.ini"))
	require.Error(t, err)
}

func TestParseAssignments(t *testing.T) {
	patch, err := parseAssignments([]string{"A=1", "B=", "C=x=y", "A=2"})
	require.NoError(t, err)
	assert.Equal(t, "2", patch["A"])
	assert.Equal(t, "", patch["B"])
	assert.Equal(t, "x=y", patch["C"])

	_, err = parseAssignments([]string{"=1"})
	assert.Error(t, err)
}

func TestModsList(t *testing.T) {
	path := writeFile(t, "servertest.ini", "Mods=Hydrocraft\nWorkshopItems=2392709985;abc\n")

	out, _, err := run(t, "mods", "list", path)
	require.NoError(t, err)
	assert.Contains(t, out, "2392709985")
	assert.Contains(t, out, "ignored invalid workshop ids: [abc]")
}

func TestConfigShowMasksSecrets(t *testing.T) {
	path := writeFile(t, "pzpanel.yaml", "steam:\n  apiKey: hunter2\nrcon:\n  password: s3cret\nserver:\n  name: knox\n")

	out, _, err := run(t, "--config", path, "config", "show")
	require.NoError(t, err)
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, "s3cret")
	assert.Contains(t, out, "***")
	assert.Contains(t, out, "Name: knox")
}

func TestConfigCheck(t *testing.T) {
	path := writeFile(t, "pzpanel.yaml", "logLevel: debug\n")
	out, _, err := run(t, "--config", path, "config", "check")
	require.NoError(t, err)
	assert.Contains(t, out, path+": ok")

	bad := writeFile(t, "bad.yaml", "listne: \":1\"\n")
	_, _, err = run(t, "--config", bad, "config", "check")
	require.Error(t, err)
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package files

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memStore(t *testing.T, files map[string]string) *Store {
	t.Helper()
	fsys := afero.NewMemMapFs()
	for name, body := range files {
		require.NoError(t, afero.WriteFile(fsys, name, []byte(body), 0o644))
	}
	return NewStore(fsys)
}

func TestList(t *testing.T) {
	s := memStore(t, map[string]string{
		"/srv/servertest.ini":                "PVP=true\n",
		"/srv/servertest_SandboxVars.lua":    "SandboxVars = {}\n",
		"/srv/UPPER.INI":                     "",
		"/srv/notes.txt":                     "",
		"/srv/nested/other.ini":              "",
		"/srv/servertest_spawnregions.lua.b": "",
	})
	ctx := context.Background()

	got, err := s.List(ctx, "/srv", nil)
	require.NoError(t, err)
	names := make([]string, len(got))
	for i, f := range got {
		names[i] = f.Name
	}
	assert.Equal(t, []string{"UPPER.INI", "servertest.ini", "servertest_SandboxVars.lua"}, names)
	assert.Equal(t, ".ini", got[0].Ext)
	assert.Equal(t, filepath.Join("/srv", "servertest.ini"), got[1].Path)
	assert.Equal(t, int64(9), got[1].Size)

	got, err = s.List(ctx, "/srv", []string{"txt"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "notes.txt", got[0].Name)
}

func TestListErrors(t *testing.T) {
	s := memStore(t, map[string]string{"/srv/a.ini": ""})
	ctx := context.Background()

	_, err := s.List(ctx, "/missing", nil)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.List(ctx, "/srv/a.ini", nil)
	assert.ErrorIs(t, err, ErrNotDir)

	_, err = s.List(ctx, "", nil)
	assert.ErrorIs(t, err, ErrEmptyPath)
}

func TestNormalizeExtensions(t *testing.T) {
	assert.Equal(t, DefaultExtensions, NormalizeExtensions(nil))
	assert.Equal(t, []string{".ini", ".txt"}, NormalizeExtensions([]string{"INI", " .txt", ".ini", ""}))
}

func TestReadDecodesBOM(t *testing.T) {
	utf16, err := Encode("PVP=true\n", EncodingUTF16LE)
	require.NoError(t, err)

	s := memStore(t, map[string]string{
		"/srv/plain.ini": "PVP=true\n",
		"/srv/bom.ini":   "\xEF\xBB\xBFPVP=true\n",
		"/srv/wide.ini":  string(utf16),
	})
	ctx := context.Background()

	for name, enc := range map[string]Encoding{
		"/srv/plain.ini": EncodingUTF8,
		"/srv/bom.ini":   EncodingUTF8BOM,
		"/srv/wide.ini":  EncodingUTF16LE,
	} {
		c, err := s.Read(ctx, name)
		require.NoError(t, err, name)
		assert.Equal(t, "PVP=true\n", c.Text, name)
		assert.Equal(t, enc, c.Encoding, name)
		assert.Equal(t, enc != EncodingUTF8, c.BOM, name)
		assert.Equal(t, ".ini", c.Ext)
	}
}

func TestReadErrors(t *testing.T) {
	s := memStore(t, map[string]string{"/srv/a.ini": ""})
	ctx := context.Background()

	_, err := s.Read(ctx, "/srv/none.ini")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Read(ctx, "/srv")
	assert.ErrorIs(t, err, ErrIsDir)
}

func TestWrite(t *testing.T) {
	s := memStore(t, map[string]string{"/srv/a.ini": "\xEF\xBB\xBFPVP=true\n"})
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "/srv/a.ini", "PVP=false\n", EncodingUTF8BOM))
	raw, err := afero.ReadFile(s.Fs(), "/srv/a.ini")
	require.NoError(t, err)
	assert.Equal(t, "\xEF\xBB\xBFPVP=false\n", string(raw))

	assert.ErrorIs(t, s.Write(ctx, "/srv/new.ini", "x", EncodingUTF8), ErrNotFound, "writes never create files")

	require.NoError(t, s.Fs().Chmod("/srv/a.ini", 0o444))
	assert.ErrorIs(t, s.Write(ctx, "/srv/a.ini", "x", EncodingUTF8), ErrPermission)
}

func TestWriteAtomicOnDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server.ini")
	require.NoError(t, os.WriteFile(path, []byte("PVP=true\n"), 0o640))

	s := NewOSStore()
	require.NoError(t, s.Write(context.Background(), path, "PVP=false\n", EncodingUTF8))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "PVP=false\n", string(raw))

	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), st.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestEncodingRoundTrip(t *testing.T) {
	for _, enc := range []Encoding{EncodingUTF8, EncodingUTF8BOM, EncodingUTF16LE, EncodingUTF16BE} {
		data, err := Encode("Name=Zomboid ☣\r\n", enc)
		require.NoError(t, err)
		assert.Equal(t, enc, DetectEncoding(data))

		text, got, err := Decode(data)
		require.NoError(t, err)
		assert.Equal(t, enc, got)
		assert.Equal(t, "Name=Zomboid ☣\r\n", text)
	}
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package database

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createDB writes a small players database.
func createDB(t *testing.T, path string, players int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	db, err := sql.Open("sqlite", dsn(path, false, 0))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	_, err = db.Exec(`CREATE TABLE networkPlayers (id INTEGER PRIMARY KEY, username TEXT NOT NULL DEFAULT 'anon', data BLOB)`)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE "odd ""name""" (x INTEGER)`)
	require.NoError(t, err)
	for i := 0; i < players; i++ {
		_, err = db.Exec(`INSERT INTO networkPlayers (username, data) VALUES (?, ?)`, "player"+string(rune('a'+i)), []byte{0xff, 0x00, byte(i)})
		require.NoError(t, err)
	}
}

func TestDiscover(t *testing.T) {
	base := t.TempDir()
	server := filepath.Join(base, "Server")
	home := filepath.Join(base, "home")
	extra := filepath.Join(base, "extra")

	createDB(t, filepath.Join(server, "db", "servertest.db"), 1)
	createDB(t, filepath.Join(base, "db", "parent.db"), 1)
	createDB(t, filepath.Join(server, "local.db"), 1)
	createDB(t, filepath.Join(home, "Zomboid", "Saves", "Multiplayer", "servertest", "vehicles.db"), 1)
	createDB(t, filepath.Join(extra, "custom.db"), 1)
	require.NoError(t, os.WriteFile(filepath.Join(server, "notes.txt"), []byte("x"), 0o644))

	b := New(Options{Home: home, SearchDirs: func() []string { return []string{extra, filepath.Join(server, "db")} }})
	got, err := b.Discover(server)
	require.NoError(t, err)

	want := []string{
		filepath.Join(server, "db", "servertest.db"),
		filepath.Join(base, "db", "parent.db"),
		filepath.Join(server, "local.db"),
		filepath.Join(home, "Zomboid", "Saves", "Multiplayer", "servertest", "vehicles.db"),
		filepath.Join(extra, "custom.db"),
	}
	for i := range want {
		want[i], _ = filepath.Abs(want[i])
	}
	assert.Equal(t, want, got)

	_, err = b.Discover(" ")
	assert.ErrorIs(t, err, ErrNoServerPath)
}

func TestSummaries(t *testing.T) {
	server := t.TempDir()
	createDB(t, filepath.Join(server, "db", "good.db"), 3)
	require.NoError(t, os.WriteFile(filepath.Join(server, "db", "bad.db"), []byte("definitely not sqlite, but long enough to have a header page......"), 0o644))

	b := New(Options{Home: filepath.Join(server, "nohome")})
	got, err := b.Summaries(context.Background(), server)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "bad.db", filepath.Base(got[0].Path))
	assert.NotEmpty(t, got[0].Error)
	assert.Empty(t, got[0].Tables)

	assert.Equal(t, "good.db", filepath.Base(got[1].Path))
	assert.Empty(t, got[1].Error)
	assert.Positive(t, got[1].Size)
	assert.Equal(t, []Table{
		{Name: "networkPlayers", RowCount: 3},
		{Name: `odd "name"`, RowCount: 0},
	}, got[1].Tables)
}

func TestQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "players.db")
	createDB(t, path, 5)
	b := New(Options{})

	page, err := b.Query(context.Background(), path, "networkPlayers", 2, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, 2, page.Limit)
	assert.Equal(t, 1, page.Offset)
	assert.Equal(t, []string{"id", "username", "data"}, page.Columns)

	require.Len(t, page.Schema, 3)
	assert.Equal(t, "id", page.Schema[0].Name)
	assert.Equal(t, 1, page.Schema[0].PrimaryKey)
	assert.True(t, page.Schema[1].NotNull)
	require.NotNil(t, page.Schema[1].DefaultValue)
	assert.Equal(t, "'anon'", *page.Schema[1].DefaultValue)
	assert.Nil(t, page.Schema[2].DefaultValue)

	require.Len(t, page.Data, 2)
	assert.Equal(t, int64(2), page.Data[0]["id"])
	assert.Equal(t, "playerb", page.Data[0]["username"])
	assert.Equal(t, []byte{0xff, 0x00, 0x01}, page.Data[0]["data"], "binary blobs stay bytes")

	page, err = b.Query(context.Background(), path, `odd "name"`, 0, -5)
	require.NoError(t, err)
	assert.Equal(t, DefaultLimit, page.Limit)
	assert.Zero(t, page.Offset)
	assert.Empty(t, page.Data)

	page, err = b.Query(context.Background(), path, "networkPlayers", MaxLimit+1, 0)
	require.NoError(t, err)
	assert.Equal(t, MaxLimit, page.Limit)
}

func TestQueryErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "players.db")
	createDB(t, path, 1)
	b := New(Options{})
	ctx := context.Background()

	_, err := b.Query(ctx, path, "networkPlayers; DROP TABLE networkPlayers", 10, 0)
	require.ErrorIs(t, err, ErrTableNotFound)

	_, err = b.Query(ctx, path, "", 10, 0)
	require.ErrorIs(t, err, ErrTableRequired)

	_, err = b.Query(ctx, filepath.Join(dir, "missing.db"), "t", 10, 0)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = os.Stat(filepath.Join(dir, "missing.db"))
	require.True(t, os.IsNotExist(err), "read-only open must not create the file")

	_, err = b.Query(ctx, filepath.Join(dir, "players.txt"), "t", 10, 0)
	require.ErrorIs(t, err, ErrNotDatabase)
}

func TestDropTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "players.db")
	createDB(t, path, 2)
	b := New(Options{})
	ctx := context.Background()

	require.ErrorIs(t, b.DropTable(ctx, path, " "), ErrTableRequired)
	require.NoError(t, b.DropTable(ctx, path, `odd "name"`))
	require.NoError(t, b.DropTable(ctx, path, "never_existed"))

	tables, err := b.Tables(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, []Table{{Name: "networkPlayers", RowCount: 2}}, tables)
}

func TestDeleteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "players.db")
	createDB(t, path, 1)
	other := filepath.Join(dir, "server.ini")
	require.NoError(t, os.WriteFile(other, []byte("PVP=true\n"), 0o644))
	b := New(Options{})

	require.ErrorIs(t, b.DeleteFile(other), ErrNotDatabase)
	require.FileExists(t, other)

	require.NoError(t, b.DeleteFile(path))
	require.NoFileExists(t, path)
	require.ErrorIs(t, b.DeleteFile(path), ErrNotFound)
	require.ErrorIs(t, b.DeleteFile(""), ErrInvalidRequest)
}

func TestVerify(t *testing.T) {
	path := filepath.Join(t.TempDir(), "players.db")
	createDB(t, path, 10)
	b := New(Options{})

	issues, err := b.Verify(context.Background(), path, VerifyQuick)
	require.NoError(t, err)
	assert.Nil(t, issues)

	issues, err = b.Verify(context.Background(), path, VerifyFull)
	require.NoError(t, err)
	assert.Nil(t, issues)
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"plain"`, quoteIdent("plain"))
	assert.Equal(t, `"a""b"`, quoteIdent(`a"b`))
}

func TestDSN(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		readOnly bool
		want     string
	}{
		{"plain", "/srv/pz/db/servertest.db", false, "file:/srv/pz/db/servertest.db?_pragma=busy_timeout(5000)"},
		{"read only", "/srv/pz/db/servertest.db", true, "file:/srv/pz/db/servertest.db?_pragma=busy_timeout(5000)&mode=ro"},
		{"query and fragment", "/saves/a?b#c/players.db", true, "file:/saves/a%3Fb%23c/players.db?_pragma=busy_timeout(5000)&mode=ro"},
		{"percent and space", "/saves/100% done/players.db", false, "file:/saves/100%25%20done/players.db?_pragma=busy_timeout(5000)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dsn(tt.path, tt.readOnly, 5*time.Second))
		})
	}
}

func TestOpenPathWithURIDelimiters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "save?1#2", "players.db")
	createDB(t, path, 2)

	db, err := open(context.Background(), path, true, time.Second)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM networkPlayers`).Scan(&n))
	assert.Equal(t, 2, n)

	_, err = os.Stat(filepath.Join(filepath.Dir(filepath.Dir(path)), "save"))
	assert.True(t, os.IsNotExist(err), "no file created at the truncated path")
}

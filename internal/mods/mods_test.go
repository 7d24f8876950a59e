// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package mods

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pzpanel/pzpanel/internal/files"
	"github.com/pzpanel/pzpanel/internal/settings"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entries(t *testing.T, text string) *settings.Entries {
	t.Helper()
	e, err := settings.ParseConfig(text, settings.DialectFlatINI)
	require.NoError(t, err)
	return e
}

func TestFromEntries(t *testing.T) {
	tests := []struct {
		name    string
		ini     string
		ids     []string
		ws      []string
		warning bool
	}{
		{
			name: "workshop items win",
			ini:  "Mods=Hydrocraft;Brita\nWorkshopItems=111;222\n",
			ids:  []string{"111", "222"},
			ws:   []string{"111", "222"},
		},
		{
			name: "continuation lines",
			ini:  "WorkshopItems=111;222;\n333;444\nPVP=true\n",
			ids:  []string{"111", "222", "333", "444"},
			ws:   []string{"111", "222", "333", "444"},
		},
		{
			name:    "non numeric dropped with warning",
			ini:     "WorkshopItems=111;abc;222\n",
			ids:     []string{"111", "222"},
			ws:      []string{"111", "222"},
			warning: true,
		},
		{
			name: "mods fallback flags numeric ids",
			ini:  "Mods=Hydrocraft, 2392709985;Brita\n",
			ids:  []string{"Hydrocraft", "2392709985", "Brita"},
			ws:   []string{"", "2392709985", ""},
		},
		{
			name: "empty workshop items falls back",
			ini:  "WorkshopItems=\nMods=A\n",
			ids:  []string{"A"},
			ws:   []string{""},
		},
		{
			name: "nothing",
			ini:  "PVP=true\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := FromEntries(entries(t, tt.ini))
			require.Len(t, l.Mods, len(tt.ids))
			for i, m := range l.Mods {
				assert.Equal(t, tt.ids[i], m.ID)
				assert.Equal(t, tt.ids[i], m.Name)
				assert.Equal(t, tt.ws[i], m.WorkshopID)
			}
			assert.Equal(t, tt.warning, l.Warning != "")
		})
	}
}

func TestPatch(t *testing.T) {
	off := false
	mods := []Mod{
		{ID: "Hydrocraft"},
		{ID: "111", WorkshopID: "111"},
		{ID: "Disabled", Enabled: &off},
		{ID: "222", WorkshopID: "222"},
	}

	assert.Equal(t, settings.Patch{"Mods": "Hydrocraft", "WorkshopItems": "111;222"},
		Patch(entries(t, "PVP=true\n"), mods))

	assert.Equal(t, settings.Patch{"WorkshopItems": "111"},
		Patch(entries(t, "PVP=true\n"), []Mod{{ID: "111", WorkshopID: "111"}}),
		"missing keys are only added for non-empty lists")

	assert.Equal(t, settings.Patch{"Mods": "", "WorkshopItems": "111"},
		Patch(entries(t, "Mods=Old\n"), []Mod{{ID: "111", WorkshopID: "111"}}),
		"existing keys are cleared")
}

func TestCandidates(t *testing.T) {
	assert.Equal(t, []string{
		filepath.Join("/pz", "myserver.ini"),
		filepath.Join("/pz", "servertest.ini"),
		filepath.Join("/pz", "server.ini"),
	}, Candidates("/pz", "myserver"))
	assert.Equal(t, []string{
		filepath.Join("/pz", "servertest.ini"),
		filepath.Join("/pz", "server.ini"),
	}, Candidates("/pz", "servertest"))
}

func newService(t *testing.T, fileset map[string]string) (*Service, afero.Fs) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	for name, body := range fileset {
		require.NoError(t, afero.WriteFile(fsys, name, []byte(body), 0o644))
	}
	return New(files.NewStore(fsys)), fsys
}

func TestLocate(t *testing.T) {
	svc, _ := newService(t, map[string]string{
		"/pz/server.ini":     "",
		"/pz/servertest.ini": "",
	})

	p, err := svc.Locate("/pz", "", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/pz", "servertest.ini"), p)

	p, err = svc.Locate("/pz", "", "/elsewhere/custom.ini")
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean("/elsewhere/custom.ini"), p)

	_, err = svc.Locate("/empty", "", "")
	assert.ErrorIs(t, err, files.ErrNotFound)

	_, err = svc.Locate("", "", "")
	assert.ErrorIs(t, err, ErrNoServerPath)
}

func TestWriteReplacesContinuation(t *testing.T) {
	svc, fsys := newService(t, map[string]string{
		"/pz/servertest.ini": "PVP=true\nMods=A;B\nWorkshopItems=111;\n222\nPublic=false\n",
	})

	l, err := svc.Write(context.Background(), "/pz/servertest.ini", []Mod{
		{ID: "C"},
		{ID: "333", WorkshopID: "333"},
	})
	require.NoError(t, err)
	require.Len(t, l.Mods, 1)
	assert.Equal(t, "333", l.Mods[0].WorkshopID)

	raw, err := afero.ReadFile(fsys, "/pz/servertest.ini")
	require.NoError(t, err)
	assert.Equal(t, "PVP=true\nMods=C\nWorkshopItems=333\nPublic=false\n", string(raw))
}

func TestWriteAppendsMissingKeys(t *testing.T) {
	svc, fsys := newService(t, map[string]string{"/pz/server.ini": "PVP=true\n"})

	_, err := svc.Write(context.Background(), "/pz/server.ini", []Mod{
		{ID: "111", WorkshopID: "111"},
	})
	require.NoError(t, err)

	raw, err := afero.ReadFile(fsys, "/pz/server.ini")
	require.NoError(t, err)
	assert.Equal(t, "PVP=true\nWorkshopItems=111\n", string(raw))

	got, err := svc.Read(context.Background(), "/pz/server.ini")
	require.NoError(t, err)
	assert.Equal(t, "/pz/server.ini", got.File)
	require.Len(t, got.Mods, 1)
}

func TestWriteMissingFile(t *testing.T) {
	svc, _ := newService(t, nil)
	_, err := svc.Write(context.Background(), "/pz/server.ini", nil)
	assert.ErrorIs(t, err, files.ErrNotFound)
}

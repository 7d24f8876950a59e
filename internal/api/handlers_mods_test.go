// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pzpanel/pzpanel/internal/cache"
	"github.com/pzpanel/pzpanel/internal/config"
	"github.com/pzpanel/pzpanel/internal/workshop"
)

func TestMods(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodGet, "/api/mods", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, filepath.Join(h.dir, "servertest.ini"), body["file"], "server name decides the file")
	assert.NotEmpty(t, body["mods"])

	w = h.do(t, http.MethodPost, "/api/mods", map[string]any{
		"mods": []map[string]any{
			{"id": "ModC", "name": "ModC"},
			{"id": "Hydrocraft", "name": "Hydrocraft", "workshopId": "2392709985"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	raw, err := os.ReadFile(filepath.Join(h.dir, "servertest.ini"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\nMods=ModC\n")
	assert.Contains(t, string(raw), "\nWorkshopItems=2392709985\n")
	assert.Contains(t, string(raw), "# Server settings\n", "comments survive")

	explicit := filepath.Join(h.dir, "server.ini")
	w = h.do(t, http.MethodGet, "/api/mods?filePath="+explicit, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, explicit, decode(t, w)["file"])
}

func TestModsErrors(t *testing.T) {
	h := newHarness(t, func(cfg *config.AppConfig, _ *Deps) { cfg.Server.Path = "" })

	requireProblem(t, h.do(t, http.MethodGet, "/api/mods", nil), http.StatusBadRequest, "SERVER_PATH_REQUIRED")
	requireProblem(t, h.do(t, http.MethodPost, "/api/mods", map[string]any{"serverPath": "/tmp"}), http.StatusBadRequest, "INVALID_INPUT")
	requireProblem(t, h.do(t, http.MethodPost, "/api/mods/details", map[string]any{"modIds": []string{}}), http.StatusBadRequest, "INVALID_INPUT")
}

// newSteam serves the details and search endpoints with canned data.
func newSteam(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /ISteamRemoteStorage/GetPublishedFileDetails/v1/", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		count, _ := strconv.Atoi(r.PostForm.Get("itemcount"))
		var items []map[string]any
		for i := 0; i < count; i++ {
			id := r.PostForm.Get(fmt.Sprintf("publishedfileids[%d]", i))
			if id == "404404404" {
				items = append(items, map[string]any{"publishedfileid": id, "result": 9})
				continue
			}
			items = append(items, map[string]any{
				"publishedfileid": id,
				"result":          1,
				"title":           "Mod " + id,
				"description":     "Mod ID: mod" + id,
				"subscriptions":   10,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"response": map[string]any{"result": 1, "publishedfiledetails": items}})
	})
	mux.HandleFunc("GET /IPublishedFileService/QueryFiles/v1/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"response": map[string]any{
			"total": 1,
			"publishedfiledetails": []map[string]any{
				{"publishedfileid": "111111111", "result": 1, "title": "Found " + r.URL.Query().Get("search_text"), "subscriptions": 5},
			},
		}})
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func withWorkshop(ts *httptest.Server, key string) func(*config.AppConfig, *Deps) {
	return func(_ *config.AppConfig, d *Deps) {
		d.Workshop = workshop.New(workshop.Options{
			APIKey:            func() string { return key },
			APIBaseURL:        ts.URL,
			CommunityBaseURL:  ts.URL,
			RequestsPerSecond: 1000,
			Burst:             100,
			RetryInterval:     time.Millisecond,
			Cache:             cache.NewMemory(0),
			HTTPClient:        ts.Client(),
		})
	}
}

func TestWorkshop(t *testing.T) {
	ts := newSteam(t)
	h := newHarness(t, withWorkshop(ts, "key"))

	w := h.do(t, http.MethodPost, "/api/mods/details", map[string]any{"modIds": []string{"2392709985", "404404404", "abc"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	items := body["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "mod2392709985", items[0].(map[string]any)["modId"])
	assert.Equal(t, []any{"404404404"}, body["missing"])
	assert.Equal(t, []any{"abc"}, body["dropped"])

	w = h.do(t, http.MethodGet, "/api/steam-workshop?action=details&ids=2392709985,2169435993", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decode(t, w)["items"], 2)

	w = h.do(t, http.MethodGet, "/api/steam-workshop?action=search&q=cars&limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	results := decode(t, w)["results"].([]any)
	require.Len(t, results, 1)
	assert.Equal(t, "Found cars", results[0].(map[string]any)["title"])

	requireProblem(t, h.do(t, http.MethodGet, "/api/steam-workshop?action=nope", nil), http.StatusBadRequest, "INVALID_INPUT")
	requireProblem(t, h.do(t, http.MethodGet, "/api/steam-workshop?action=details", nil), http.StatusBadRequest, "INVALID_INPUT")
	requireProblem(t, h.do(t, http.MethodGet, "/api/steam-workshop?limit=-1", nil), http.StatusBadRequest, "INVALID_INPUT")
}

func TestWorkshopWithoutKey(t *testing.T) {
	ts := newSteam(t)
	h := newHarness(t, withWorkshop(ts, ""))
	requireProblem(t, h.do(t, http.MethodGet, "/api/steam-workshop?q=cars", nil), http.StatusServiceUnavailable, "STEAM_API_KEY_MISSING")
}

func TestWorkshopDisabled(t *testing.T) {
	h := newHarness(t)
	requireProblem(t, h.do(t, http.MethodGet, "/api/steam-workshop/collection?link=123456789", nil),
		http.StatusServiceUnavailable, "WORKSHOP_DISABLED")
	requireProblem(t, h.do(t, http.MethodGet, "/api/steam-workshop/collection", nil),
		http.StatusBadRequest, "INVALID_INPUT")
}

func TestParseLink(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodGet, "/api/steam-workshop/parse-link?link=https://steamcommunity.com/sharedfiles/filedetails/?id%3D2392709985", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "2392709985", decode(t, w)["id"])

	requireProblem(t, h.do(t, http.MethodGet, "/api/steam-workshop/parse-link?link=nothing", nil), http.StatusBadRequest, "INVALID_LINK")
}

func TestSplitIDs(t *testing.T) {
	assert.Equal(t, []string{"1", "2", "3"}, splitIDs(" 1, 2;3;; "))
	assert.Nil(t, splitIDs(""))
}

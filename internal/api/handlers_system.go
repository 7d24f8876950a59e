// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/pzpanel/pzpanel/internal/audit"
	"github.com/pzpanel/pzpanel/internal/database"
	"github.com/pzpanel/pzpanel/internal/log"
	"github.com/pzpanel/pzpanel/internal/telemetry"
)

var (
	errDatabaseDisabled = errors.New("database browser is not configured")
	errSystemDisabled   = errors.New("system stats are not configured")
)

func (s *Server) handleListDatabases(w http.ResponseWriter, r *http.Request) {
	if s.deps.Database == nil {
		writeError(w, r, errDatabaseDisabled)
		return
	}
	sp := s.serverPath(r.URL.Query().Get("serverPath"))
	sums, err := s.deps.Database.Summaries(r.Context(), sp)
	if err != nil {
		writeError(w, r, err)
		return
	}
	telemetry.Annotate(r.Context(), telemetry.DatabaseAttributes("discover", "")...)
	writeJSON(w, http.StatusOK, map[string]any{"serverPath": sp, "databases": sums})
}

func queryInt(raw, name string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, badRequest("%s must be a non-negative integer", name)
	}
	return n, nil
}

func (s *Server) handleQueryTable(w http.ResponseWriter, r *http.Request) {
	if s.deps.Database == nil {
		writeError(w, r, errDatabaseDisabled)
		return
	}
	q := r.URL.Query()
	path := strings.TrimSpace(q.Get("dbPath"))
	if path == "" {
		writeError(w, r, badRequest("dbPath is required"))
		return
	}
	limit, err := queryInt(q.Get("limit"), "limit", database.DefaultLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	offset, err := queryInt(q.Get("offset"), "offset", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	table := q.Get("table")
	page, err := s.deps.Database.Query(r.Context(), path, table, limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	telemetry.Annotate(r.Context(), telemetry.DatabaseAttributes("query", table)...)
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleVerifyDatabase(w http.ResponseWriter, r *http.Request) {
	if s.deps.Database == nil {
		writeError(w, r, errDatabaseDisabled)
		return
	}
	q := r.URL.Query()
	path := strings.TrimSpace(q.Get("dbPath"))
	if path == "" {
		writeError(w, r, badRequest("dbPath is required"))
		return
	}
	mode := database.VerifyQuick
	switch q.Get("mode") {
	case "", string(database.VerifyQuick):
	case string(database.VerifyFull):
		mode = database.VerifyFull
	default:
		writeError(w, r, badRequest("mode must be quick or full"))
		return
	}
	problems, err := s.deps.Database.Verify(r.Context(), path, mode)
	if err != nil {
		writeError(w, r, err)
		return
	}
	telemetry.Annotate(r.Context(), telemetry.DatabaseAttributes("verify", "")...)
	writeJSON(w, http.StatusOK, map[string]any{
		"path":     path,
		"mode":     mode,
		"ok":       len(problems) == 0,
		"problems": problems,
	})
}

type databaseRequest struct {
	Action    string `json:"action"`
	DBPath    string `json:"dbPath"`
	TableName string `json:"tableName"`
}

func (s *Server) handleDatabaseAction(w http.ResponseWriter, r *http.Request) {
	if s.deps.Database == nil {
		writeError(w, r, errDatabaseDisabled)
		return
	}
	var req databaseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.DBPath) == "" {
		writeError(w, r, badRequest("dbPath is required"))
		return
	}

	var message string
	switch req.Action {
	case "drop_table":
		if err := s.deps.Database.DropTable(r.Context(), req.DBPath, req.TableName); err != nil {
			writeError(w, r, err)
			return
		}
		message = "table " + req.TableName + " dropped"
	case "delete_db":
		if err := s.deps.Database.DeleteFile(req.DBPath); err != nil {
			writeError(w, r, err)
			return
		}
		message = "database deleted"
	default:
		writeError(w, r, badRequest("unknown action %q (drop_table, delete_db)", req.Action))
		return
	}
	telemetry.Annotate(r.Context(), telemetry.DatabaseAttributes(req.Action, req.TableName)...)
	event := audit.Event{Type: audit.EventDatabaseDelete, Action: message, Resource: req.DBPath}
	if req.Action == "drop_table" {
		event.Type = audit.EventDatabaseDropTable
		event.Details = map[string]string{"table": req.TableName}
	}
	s.audit.Record(r, event)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": message})
}

func (s *Server) handleSystem(w http.ResponseWriter, r *http.Request) {
	if s.deps.System == nil {
		writeError(w, r, errSystemDisabled)
		return
	}
	includeGame := r.URL.Query().Get("game") != "false"
	stats, err := s.deps.System.Collect(r.Context(), includeGame)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handlePanelLogs(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"logs":    log.GetRecentLogs(),
		"metrics": log.GetBufferMetrics(),
	})
}

func (s *Server) handleClearPanelLogs(w http.ResponseWriter, r *http.Request) {
	log.ClearRecentLogs()
	s.audit.Record(r, audit.Event{Type: audit.EventLogsClear, Action: "panel log buffer cleared"})
	w.WriteHeader(http.StatusNoContent)
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/pzpanel/pzpanel/internal/audit"
	"github.com/pzpanel/pzpanel/internal/configedit"
	"github.com/pzpanel/pzpanel/internal/files"
	"github.com/pzpanel/pzpanel/internal/settings"
	"github.com/pzpanel/pzpanel/internal/telemetry"
)

// patchValues accepts JSON strings, numbers, booleans and null as setting values.
type patchValues map[string]any

func (p patchValues) toPatch() (settings.Patch, error) {
	out := make(settings.Patch, len(p))
	for k, v := range p {
		if strings.TrimSpace(k) == "" {
			return nil, badRequest("setting keys must not be empty")
		}
		switch x := v.(type) {
		case nil:
			out[k] = ""
		case string:
			out[k] = x
		case bool:
			out[k] = strconv.FormatBool(x)
		case float64:
			out[k] = strconv.FormatFloat(x, 'f', -1, 64)
		default:
			return nil, badRequest("setting %s must be a string, number or boolean", k)
		}
	}
	return out, nil
}

type settingsRequest struct {
	ServerPath string      `json:"serverPath"`
	FilePath   string      `json:"filePath"`
	Settings   patchValues `json:"settings"`
	DryRun     bool        `json:"dryRun"`
}

func (s *Server) handleGetServerSettings(w http.ResponseWriter, r *http.Request) {
	sp := s.serverPath(r.URL.Query().Get("serverPath"))
	if sp == "" {
		writeError(w, r, badRequest("serverPath is required"))
		return
	}
	view, err := s.deps.ConfigEdit.Load(r.Context(), configedit.ServerSettingsPath(sp))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handlePostServerSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	sp := s.serverPath(req.ServerPath)
	if sp == "" {
		writeError(w, r, badRequest("serverPath is required"))
		return
	}
	s.saveSettings(w, r, configedit.ServerSettingsPath(sp), req)
}

func (s *Server) handlePatchFile(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.FilePath) == "" {
		writeError(w, r, files.ErrEmptyPath)
		return
	}
	s.saveSettings(w, r, req.FilePath, req)
}

func (s *Server) saveSettings(w http.ResponseWriter, r *http.Request, path string, req settingsRequest) {
	if req.Settings == nil {
		writeError(w, r, badRequest("settings object is required"))
		return
	}
	patch, err := req.Settings.toPatch()
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := s.deps.ConfigEdit.Save(r.Context(), path, patch, configedit.SaveOptions{DryRun: req.DryRun})
	if err != nil {
		writeError(w, r, err)
		return
	}
	telemetry.Annotate(r.Context(), telemetry.SettingsAttributes(path, res.Dialect.String(), len(patch), req.DryRun)...)
	if res.Written {
		s.audit.Record(r, audit.Event{
			Type:     audit.EventSettingsWrite,
			Action:   "settings saved",
			Resource: path,
			Details:  map[string]string{"keys": strconv.Itoa(len(patch))},
		})
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"settings": s.deps.Catalog.All()})
}

// parsedFile is a file read together with its parsed settings, when it has a known dialect.
type parsedFile struct {
	*files.Content
	Dialect  settings.Dialect  `json:"dialect"`
	Settings *settings.Entries `json:"settings,omitempty"`
	ParseErr string            `json:"parseError,omitempty"`
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dir := strings.TrimSpace(q.Get("directoryPath"))
	if dir == "" {
		writeError(w, r, files.ErrEmptyPath)
		return
	}
	var exts []string
	if raw := q.Get("extensions"); raw != "" {
		exts = strings.Split(raw, ",")
	}
	list, err := s.deps.Files.List(r.Context(), dir, exts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"directory": dir, "files": list})
}

func (s *Server) handleReadFile(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSpace(r.URL.Query().Get("filePath"))
	if path == "" {
		writeError(w, r, files.ErrEmptyPath)
		return
	}
	c, err := s.deps.Files.Read(r.Context(), path)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := parsedFile{Content: c}
	out.Dialect = settings.DetectDialect(c.Name, settings.SniffText(c.Text))
	if out.Dialect != settings.DialectUnknown {
		entries, perr := settings.ParseConfig(c.Text, out.Dialect)
		if perr != nil {
			out.ParseErr = perr.Error()
		} else {
			out.Settings = entries
		}
	}
	writeJSON(w, http.StatusOK, out)
}

type writeFileRequest struct {
	FilePath string  `json:"filePath"`
	Content  *string `json:"content"`
}

func (s *Server) handleWriteFile(w http.ResponseWriter, r *http.Request) {
	var req writeFileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.FilePath) == "" {
		writeError(w, r, files.ErrEmptyPath)
		return
	}
	if req.Content == nil {
		writeError(w, r, badRequest("content is required"))
		return
	}

	// Keep the file's current encoding and byte order mark.
	current, err := s.deps.Files.Read(r.Context(), req.FilePath)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.deps.Files.Write(r.Context(), req.FilePath, *req.Content, current.Encoding); err != nil {
		writeError(w, r, err)
		return
	}
	s.audit.Record(r, audit.Event{
		Type:     audit.EventFileWrite,
		Action:   "file written",
		Resource: req.FilePath,
		Details:  map[string]string{"bytes": strconv.Itoa(len(*req.Content))},
	})
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "path": req.FilePath})
}

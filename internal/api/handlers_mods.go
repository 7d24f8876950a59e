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
	"github.com/pzpanel/pzpanel/internal/mods"
	"github.com/pzpanel/pzpanel/internal/telemetry"
	"github.com/pzpanel/pzpanel/internal/workshop"
)

var errWorkshopDisabled = errors.New("workshop client is not configured")

func (s *Server) locateMods(serverPath, filePath string) (string, error) {
	return s.deps.Mods.Locate(s.serverPath(serverPath), s.cfg().Server.Name, filePath)
}

func (s *Server) handleGetMods(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	path, err := s.locateMods(q.Get("serverPath"), q.Get("filePath"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := s.deps.Mods.Read(r.Context(), path)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type modsRequest struct {
	ServerPath string     `json:"serverPath"`
	FilePath   string     `json:"filePath"`
	Mods       []mods.Mod `json:"mods"`
}

func (s *Server) handlePostMods(w http.ResponseWriter, r *http.Request) {
	var req modsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Mods == nil {
		writeError(w, r, badRequest("mods array is required"))
		return
	}
	path, err := s.locateMods(req.ServerPath, req.FilePath)
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := s.deps.Mods.Write(r.Context(), path, req.Mods)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.audit.Record(r, audit.Event{
		Type:     audit.EventModsWrite,
		Action:   "mod list saved",
		Resource: path,
		Details:  map[string]string{"mods": strconv.Itoa(len(list.Mods))},
	})
	writeJSON(w, http.StatusOK, list)
}

type modDetailsRequest struct {
	ModIDs []string `json:"modIds"`
}

func (s *Server) handleModDetails(w http.ResponseWriter, r *http.Request) {
	var req modDetailsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if len(req.ModIDs) == 0 {
		writeError(w, r, badRequest("modIds must not be empty"))
		return
	}
	s.writeDetails(w, r, req.ModIDs)
}

func (s *Server) writeDetails(w http.ResponseWriter, r *http.Request, ids []string) {
	if s.deps.Workshop == nil {
		writeError(w, r, errWorkshopDisabled)
		return
	}
	res, err := s.deps.Workshop.Details(r.Context(), ids)
	if err != nil {
		writeError(w, r, err)
		return
	}
	telemetry.Annotate(r.Context(), telemetry.WorkshopAttributes("details", len(res.Items), "")...)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleWorkshop(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	switch action := q.Get("action"); action {
	case "", "search":
		if s.deps.Workshop == nil {
			writeError(w, r, errWorkshopDisabled)
			return
		}
		limit := 0
		if raw := q.Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				writeError(w, r, badRequest("limit must be a non-negative integer"))
				return
			}
			limit = n
		}
		res, err := s.deps.Workshop.Search(r.Context(), workshop.SearchQuery{
			Text:  q.Get("q"),
			Sort:  workshop.ParseSort(q.Get("sort")),
			Limit: limit,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		telemetry.Annotate(r.Context(), telemetry.WorkshopAttributes("search", len(res.Results), "")...)
		writeJSON(w, http.StatusOK, res)
	case "details":
		ids := splitIDs(q.Get("ids"))
		if len(ids) == 0 {
			writeError(w, r, badRequest("ids is required"))
			return
		}
		s.writeDetails(w, r, ids)
	default:
		writeError(w, r, badRequest("unknown action %q", action))
	}
}

func (s *Server) handleCollection(w http.ResponseWriter, r *http.Request) {
	link := strings.TrimSpace(r.URL.Query().Get("link"))
	if link == "" {
		writeError(w, r, badRequest("link is required"))
		return
	}
	if s.deps.Workshop == nil {
		writeError(w, r, errWorkshopDisabled)
		return
	}
	res, err := s.deps.Workshop.Collection(r.Context(), link)
	if err != nil {
		writeError(w, r, err)
		return
	}
	telemetry.Annotate(r.Context(), telemetry.WorkshopAttributes("collection", len(res.Items), res.Source)...)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleParseLink(w http.ResponseWriter, r *http.Request) {
	id, err := workshop.ParseLink(r.URL.Query().Get("link"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

// splitIDs splits a comma or semicolon separated id list.
func splitIDs(raw string) []string {
	var out []string
	for _, f := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ';' }) {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

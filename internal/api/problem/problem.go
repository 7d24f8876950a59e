// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package problem writes RFC 7807 problem details responses.
package problem

import (
	"encoding/json"
	"net/http"

	"github.com/pzpanel/pzpanel/internal/log"
)

const (
	// HeaderRequestID carries the request id on requests and responses.
	HeaderRequestID = "X-Request-ID"
	// JSONKeyRequestID is the request id member of a problem body.
	JSONKeyRequestID = "requestId"
	// ContentType is the media type of problem bodies.
	ContentType = "application/problem+json"
)

// Problem is one problem response.
//
//   - Type: machine identifier, e.g. "database/locked".
//   - Title: short human label, e.g. "Conflict".
//   - Code: stable upper-case code, e.g. "DB_LOCKED".
//   - Detail: explanation of this occurrence.
//
// The dashboard front end reads the "error" member, so Write mirrors Detail
// there, falling back to Title.
type Problem struct {
	Status int
	Type   string
	Title  string
	Code   string
	Detail string
	Extra  map[string]any
}

// Write encodes p to w.
func Write(w http.ResponseWriter, r *http.Request, p Problem) {
	reqID := ""
	if r != nil {
		reqID = log.RequestIDFromContext(r.Context())
	}
	if reqID == "" {
		reqID = w.Header().Get(HeaderRequestID)
	}
	if p.Title == "" {
		p.Title = http.StatusText(p.Status)
	}

	res := map[string]any{
		"type":   p.Type,
		"title":  p.Title,
		"status": p.Status,
		"code":   p.Code,
		"error":  p.Title,
	}
	if reqID != "" {
		res[JSONKeyRequestID] = reqID
	}
	if p.Detail != "" {
		res["detail"] = p.Detail
		res["error"] = p.Detail
	}
	if r != nil {
		res["instance"] = r.URL.EscapedPath()
	}

	for k, v := range p.Extra {
		switch k {
		case "type", "title", "status", "detail", "instance", "code", "error":
			logger := log.WithComponent("api")
			logger.Warn().Str("key", k).Str("problem_type", p.Type).Msg("ignoring reserved key in problem extras")
			continue
		}
		res[k] = v
	}

	if reqID != "" {
		w.Header().Set(HeaderRequestID, reqID)
	}
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(p.Status)

	if err := json.NewEncoder(w).Encode(res); err != nil {
		logger := log.WithComponent("api")
		logger.Error().
			Err(err).
			Str("type", p.Type).
			Int("status", p.Status).
			Msg("failed to encode problem response")
	}
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/pzpanel/pzpanel/internal/api/problem"
	"github.com/pzpanel/pzpanel/internal/configedit"
	"github.com/pzpanel/pzpanel/internal/database"
	"github.com/pzpanel/pzpanel/internal/files"
	"github.com/pzpanel/pzpanel/internal/log"
	"github.com/pzpanel/pzpanel/internal/mods"
	"github.com/pzpanel/pzpanel/internal/rcon"
	"github.com/pzpanel/pzpanel/internal/resilience"
	"github.com/pzpanel/pzpanel/internal/settings"
	"github.com/pzpanel/pzpanel/internal/supervisor"
	"github.com/pzpanel/pzpanel/internal/telemetry"
	"github.com/pzpanel/pzpanel/internal/workshop"
)

// errBadRequest marks malformed request input.
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorClass struct {
	target error
	status int
	typ    string
	code   string
}

// errorClasses maps domain sentinels to problem responses. First match wins.
var errorClasses = []errorClass{
	{errBadRequest, http.StatusBadRequest, "request/invalid", "INVALID_INPUT"},
	{files.ErrEmptyPath, http.StatusBadRequest, "request/invalid", "PATH_REQUIRED"},
	{files.ErrNotFound, http.StatusNotFound, "files/not-found", "FILE_NOT_FOUND"},
	{files.ErrPermission, http.StatusForbidden, "files/permission", "PERMISSION_DENIED"},
	{files.ErrNotDir, http.StatusBadRequest, "files/not-dir", "NOT_A_DIRECTORY"},
	{files.ErrIsDir, http.StatusBadRequest, "files/is-dir", "IS_A_DIRECTORY"},
	{files.ErrTooLarge, http.StatusRequestEntityTooLarge, "files/too-large", "FILE_TOO_LARGE"},
	{configedit.ErrUnsupportedFile, http.StatusBadRequest, "settings/unsupported", "UNSUPPORTED_FILE"},
	{mods.ErrNoServerPath, http.StatusBadRequest, "mods/no-path", "SERVER_PATH_REQUIRED"},
	{workshop.ErrInvalidLink, http.StatusBadRequest, "workshop/invalid-link", "INVALID_LINK"},
	{workshop.ErrEmptyCollection, http.StatusNotFound, "workshop/empty-collection", "EMPTY_COLLECTION"},
	{errWorkshopDisabled, http.StatusServiceUnavailable, "workshop/disabled", "WORKSHOP_DISABLED"},
	{workshop.ErrNoAPIKey, http.StatusServiceUnavailable, "workshop/no-api-key", "STEAM_API_KEY_MISSING"},
	{resilience.ErrCircuitOpen, http.StatusServiceUnavailable, "workshop/circuit-open", "UPSTREAM_UNAVAILABLE"},
	{workshop.ErrUpstream, http.StatusBadGateway, "workshop/upstream", "UPSTREAM_ERROR"},
	{rcon.ErrNoPassword, http.StatusServiceUnavailable, "rcon/no-password", "RCON_PASSWORD_MISSING"},
	{rcon.ErrEmptyCommand, http.StatusBadRequest, "rcon/empty-command", "COMMAND_REQUIRED"},
	{rcon.ErrAuthFailed, http.StatusBadGateway, "rcon/auth", "RCON_AUTH_FAILED"},
	{errRCONUnavailable, http.StatusBadGateway, "rcon/unavailable", "RCON_UNAVAILABLE"},
	{errServerDisabled, http.StatusServiceUnavailable, "server/disabled", "SERVER_CONTROL_DISABLED"},
	{supervisor.ErrNoServerPath, http.StatusBadRequest, "server/no-path", "SERVER_PATH_REQUIRED"},
	{supervisor.ErrLauncherNotFound, http.StatusNotFound, "server/launcher", "LAUNCHER_NOT_FOUND"},
	{supervisor.ErrAlreadyRunning, http.StatusConflict, "server/running", "ALREADY_RUNNING"},
	{supervisor.ErrNotRunning, http.StatusConflict, "server/stopped", "NOT_RUNNING"},
	{supervisor.ErrClosed, http.StatusServiceUnavailable, "server/closed", "SHUTTING_DOWN"},
	{errDatabaseDisabled, http.StatusServiceUnavailable, "database/disabled", "DATABASE_DISABLED"},
	{errSystemDisabled, http.StatusServiceUnavailable, "system/disabled", "SYSTEM_STATS_DISABLED"},
	{database.ErrNoServerPath, http.StatusBadRequest, "database/no-path", "SERVER_PATH_REQUIRED"},
	{database.ErrNotFound, http.StatusNotFound, "database/not-found", "DATABASE_NOT_FOUND"},
	{database.ErrNotDatabase, http.StatusBadRequest, "database/not-db", "NOT_A_DATABASE"},
	{database.ErrTableRequired, http.StatusBadRequest, "database/table-required", "TABLE_REQUIRED"},
	{database.ErrTableNotFound, http.StatusNotFound, "database/table-not-found", "TABLE_NOT_FOUND"},
	{database.ErrInvalidRequest, http.StatusBadRequest, "database/invalid", "INVALID_INPUT"},
	{database.ErrLocked, http.StatusConflict, "database/locked", "DATABASE_LOCKED"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "system/timeout", "TIMEOUT"},
}

// problemFor classifies err. Unknown errors become an opaque 500.
func problemFor(err error) problem.Problem {
	var pe *settings.PatchError
	if errors.As(err, &pe) {
		return problem.Problem{
			Status: http.StatusBadRequest,
			Type:   "settings/invalid",
			Code:   "INVALID_SETTINGS",
			Detail: pe.Error(),
			Extra:  map[string]any{"problems": pe.Problems},
		}
	}
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return problem.Problem{
			Status: http.StatusRequestEntityTooLarge,
			Type:   "request/too-large",
			Code:   "BODY_TOO_LARGE",
			Detail: fmt.Sprintf("request body exceeds %d bytes", mbe.Limit),
		}
	}
	for _, c := range errorClasses {
		if errors.Is(err, c.target) {
			return problem.Problem{Status: c.status, Type: c.typ, Code: c.code, Detail: err.Error()}
		}
	}
	return problem.Problem{
		Status: http.StatusInternalServerError,
		Type:   "system/internal",
		Code:   "INTERNAL_ERROR",
		Detail: "An unexpected error occurred.",
	}
}

// writeError renders err as a problem response and records it on the active span.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	p := problemFor(err)
	if p.Status >= http.StatusInternalServerError {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().
			Err(err).
			Str(log.FieldEvent, "request.failed").
			Str(log.FieldPath, r.URL.Path).
			Msg("request failed")
	}
	telemetry.Annotate(r.Context(), telemetry.ErrorAttributes(p.Code)...)
	problem.Write(w, r, p)
}

// decodeJSON reads the request body into v.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return badRequest("request body is required")
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return err
		}
		return badRequest("invalid JSON body: %v", err)
	}
	return nil
}

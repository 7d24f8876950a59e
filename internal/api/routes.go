// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pzpanel/pzpanel/internal/api/middleware"
	"github.com/pzpanel/pzpanel/internal/api/problem"
	"github.com/pzpanel/pzpanel/internal/telemetry"
)

func (s *Server) routes() http.Handler {
	cfg := s.cfg()
	tracing := ""
	if cfg.Telemetry.Enabled {
		tracing = cfg.Telemetry.ServiceName
		if tracing == "" {
			tracing = telemetry.DefaultServiceName
		}
	}

	r := middleware.NewRouter(middleware.StackConfig{
		EnableCORS:            true,
		Origins:               func() []string { return s.cfg().API.CORSOrigins },
		EnableSecurityHeaders: true,
		EnableMetrics:         true,
		TracingService:        tracing,
		EnableLogging:         true,
		BodyLimit:             func() int64 { return s.cfg().API.MaxBodyBytes },
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		problem.Write(w, r, problem.Problem{Status: http.StatusNotFound, Type: "system/not-found", Code: "NOT_FOUND"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		problem.Write(w, r, problem.Problem{Status: http.StatusMethodNotAllowed, Type: "system/method", Code: "METHOD_NOT_ALLOWED"})
	})

	r.Get("/healthz", s.deps.Health.ServeHealth)
	r.Get("/readyz", s.deps.Health.ServeReady)

	limit := middleware.Reloadable(func() int { return s.cfg().API.RateLimit },
		func(a, b int) bool { return a == b }, middleware.MutationRateLimit)

	r.Route("/api", func(r chi.Router) {
		r.Get("/server-settings", s.handleGetServerSettings)
		r.With(limit).Post("/server-settings", s.handlePostServerSettings)
		r.Get("/settings/catalog", s.handleCatalog)

		r.Get("/files/list", s.handleListFiles)
		r.Get("/files/read", s.handleReadFile)
		r.With(limit).Post("/files/read", s.handleWriteFile)
		r.With(limit).Post("/files/settings", s.handlePatchFile)

		r.Get("/mods", s.handleGetMods)
		r.With(limit).Post("/mods", s.handlePostMods)
		r.With(limit).Post("/mods/details", s.handleModDetails)

		r.Get("/steam-workshop", s.handleWorkshop)
		r.Get("/steam-workshop/collection", s.handleCollection)
		r.Get("/steam-workshop/parse-link", s.handleParseLink)

		r.Get("/rcon", s.handleRCONStatus)
		r.With(limit).Post("/rcon", s.handleRCONCommand)

		r.Get("/server-control", s.handleControlStatus)
		r.With(limit).Post("/server-control", s.handleControl)
		r.Get("/server-control/stream", s.handleLogStream)
		r.Get("/server-config", s.handleServerConfig)

		r.Get("/database", s.handleListDatabases)
		r.Get("/database/table", s.handleQueryTable)
		r.Get("/database/verify", s.handleVerifyDatabase)
		r.With(limit).Post("/database", s.handleDatabaseAction)

		r.Get("/system", s.handleSystem)

		r.Get("/logs/panel", s.handlePanelLogs)
		r.With(limit).Delete("/logs/panel", s.handleClearPanelLogs)
	})
	return r
}

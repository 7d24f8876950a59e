// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api provides the HTTP API of the pzpanel dashboard.
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pzpanel/pzpanel/internal/audit"
	"github.com/pzpanel/pzpanel/internal/config"
	"github.com/pzpanel/pzpanel/internal/configedit"
	"github.com/pzpanel/pzpanel/internal/database"
	"github.com/pzpanel/pzpanel/internal/files"
	"github.com/pzpanel/pzpanel/internal/health"
	"github.com/pzpanel/pzpanel/internal/mods"
	"github.com/pzpanel/pzpanel/internal/rcon"
	"github.com/pzpanel/pzpanel/internal/settings"
	"github.com/pzpanel/pzpanel/internal/supervisor"
	"github.com/pzpanel/pzpanel/internal/system"
	"github.com/pzpanel/pzpanel/internal/workshop"
)

// GameServer is the process control surface used by the server-control routes.
type GameServer interface {
	Start(ctx context.Context, serverPath string) (supervisor.Status, error)
	Stop(ctx context.Context) error
	Status() supervisor.Status
	TailLogs(n int) []string
	Subscribe(buffer int) (<-chan string, func())
}

// SystemStats samples host and game process usage.
type SystemStats interface {
	Collect(ctx context.Context, includeGame bool) (*system.Stats, error)
}

// Deps are the collaborators the API dispatches to.
type Deps struct {
	// Config returns the current configuration; it is read per request.
	Config func() config.AppConfig

	Catalog    *settings.Catalog
	Files      *files.Store
	ConfigEdit *configedit.Service
	Mods       *mods.Service
	Workshop   *workshop.Client
	RCON       *rcon.Client
	Server     GameServer
	Database   *database.Browser
	System     SystemStats
	Health     *health.Manager
	Audit      *audit.Logger
}

// Server represents the HTTP API server.
type Server struct {
	deps      Deps
	audit     *audit.Logger
	upgrader  websocket.Upgrader
	pingEvery time.Duration
	handler   http.Handler
}

// New creates a Server. Middleware settings are taken from the configuration
// at construction time; handlers read the configuration per request.
func New(deps Deps) *Server {
	if deps.Config == nil {
		deps.Config = config.Defaults
	}
	if deps.Catalog == nil {
		deps.Catalog = settings.DefaultCatalog()
	}
	if deps.Files == nil {
		deps.Files = files.NewOSStore()
	}
	if deps.ConfigEdit == nil {
		deps.ConfigEdit = configedit.New(deps.Files, deps.Catalog)
	}
	if deps.Mods == nil {
		deps.Mods = mods.New(deps.Files)
	}
	if deps.RCON == nil {
		cfgFn := deps.Config
		deps.RCON = rcon.New(nil, func() rcon.Target { return RCONDefaults(cfgFn()) })
	}
	if deps.Health == nil {
		deps.Health = health.NewManager(deps.Config().Version)
	}

	if deps.Audit == nil {
		deps.Audit = audit.NewLogger()
	}

	s := &Server{deps: deps, audit: deps.Audit, pingEvery: 30 * time.Second}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	s.handler = s.routes()
	return s
}

// RCONDefaults returns the console target configured for the managed server.
func RCONDefaults(cfg config.AppConfig) rcon.Target {
	return rcon.Target{
		Host:     cfg.RCON.Host,
		Port:     cfg.RCON.Port,
		Password: cfg.RCON.Password,
		Timeout:  cfg.RCON.Timeout,
	}
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) cfg() config.AppConfig { return s.deps.Config() }

// serverPath returns the request supplied server directory, falling back to the configured one.
func (s *Server) serverPath(requested string) string {
	if p := strings.TrimSpace(requested); p != "" {
		return p
	}
	return s.cfg().Server.Path
}

// checkOrigin admits websocket upgrades from the same host or a configured CORS origin.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := strings.TrimSuffix(r.Header.Get("Origin"), "/")
	if origin == "" {
		return true
	}
	allowed := s.cfg().API.CORSOrigins
	if len(allowed) == 0 {
		return true
	}
	for _, o := range allowed {
		if o == "*" || strings.TrimSuffix(o, "/") == origin {
			return true
		}
	}
	host := origin
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	return host == r.Host
}

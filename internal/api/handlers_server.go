// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pzpanel/pzpanel/internal/audit"
	"github.com/pzpanel/pzpanel/internal/log"
	"github.com/pzpanel/pzpanel/internal/rcon"
	"github.com/pzpanel/pzpanel/internal/supervisor"
	"github.com/pzpanel/pzpanel/internal/telemetry"
)

const (
	defaultTailLines = 100
	maxTailLines     = 1000
	writeWait        = 10 * time.Second
)

var (
	errRCONUnavailable = errors.New("rcon: server unreachable")
	errServerDisabled  = errors.New("server control is not configured")
)

func (s *Server) handleRCONStatus(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	target, err := rconTarget(q.Get("host"), q.Get("port"), q.Get("password"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.deps.RCON.Status(r.Context(), target))
}

type rconRequest struct {
	Host     string       `json:"host"`
	Port     flexiblePort `json:"port"`
	Password string       `json:"password"`
	Command  string       `json:"command"`
	Message  string       `json:"message"`
}

// flexiblePort accepts a port as JSON number or string.
type flexiblePort string

func (p *flexiblePort) UnmarshalJSON(b []byte) error {
	*p = flexiblePort(strings.Trim(string(b), `"`))
	if *p == "null" {
		*p = ""
	}
	return nil
}

func rconTarget(host, port, password string) (rcon.Target, error) {
	t := rcon.Target{Host: strings.TrimSpace(host), Password: password}
	if port = strings.TrimSpace(port); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil || n < 1 || n > 65535 {
			return t, badRequest("port must be between 1 and 65535")
		}
		t.Port = n
	}
	return t, nil
}

func (s *Server) handleRCONCommand(w http.ResponseWriter, r *http.Request) {
	var req rconRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	target, err := rconTarget(req.Host, string(req.Port), req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var res *rcon.Result
	if strings.TrimSpace(req.Command) == "" && strings.TrimSpace(req.Message) != "" {
		res, err = s.deps.RCON.SendMessage(r.Context(), target, req.Message)
	} else {
		res, err = s.deps.RCON.Exec(r.Context(), target, req.Command)
	}
	if err != nil {
		if problemFor(err).Status == http.StatusInternalServerError {
			err = fmt.Errorf("%w: %w", errRCONUnavailable, err)
		}
		writeError(w, r, err)
		return
	}
	telemetry.Annotate(r.Context(), telemetry.ServerAttributes("rcon", rcon.Verb(res.Command))...)
	if verb := rcon.Verb(res.Command); verb == "quit" || verb == "save" {
		s.audit.Record(r, audit.Event{
			Type:     audit.EventRCONCommand,
			Action:   "console command executed",
			Resource: verb,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"command":    res.Command,
		"response":   res.Response,
		"durationMs": res.Duration.Milliseconds(),
	})
}

func tailLines(raw string) (int, error) {
	if raw == "" {
		return defaultTailLines, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, badRequest("lines must be a non-negative integer")
	}
	return min(n, maxTailLines), nil
}

type controlResponse struct {
	Success bool              `json:"success"`
	Action  string            `json:"action,omitempty"`
	Message string            `json:"message,omitempty"`
	Status  supervisor.Status `json:"status"`
	Logs    []string          `json:"logs,omitempty"`
}

func (s *Server) handleControlStatus(w http.ResponseWriter, r *http.Request) {
	if s.deps.Server == nil {
		writeError(w, r, errServerDisabled)
		return
	}
	n, err := tailLines(r.URL.Query().Get("lines"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, controlResponse{
		Success: true,
		Status:  s.deps.Server.Status(),
		Logs:    s.deps.Server.TailLogs(n),
	})
}

type controlRequest struct {
	Action     string `json:"action"`
	ServerPath string `json:"serverPath"`
	Lines      int    `json:"lines"`
}

func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	if s.deps.Server == nil {
		writeError(w, r, errServerDisabled)
		return
	}
	var req controlRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	action := strings.ToLower(strings.TrimSpace(req.Action))
	telemetry.Annotate(r.Context(), telemetry.ServerAttributes(action, "")...)

	resp := controlResponse{Success: true, Action: action}
	switch action {
	case "start":
		sp := s.serverPath(req.ServerPath)
		st, err := s.deps.Server.Start(r.Context(), sp)
		if err != nil {
			writeError(w, r, err)
			return
		}
		s.audit.Record(r, audit.Event{
			Type:     audit.EventServerStart,
			Action:   "game server started",
			Resource: sp,
			Details:  map[string]string{log.FieldPID: strconv.Itoa(st.PID)},
		})
		resp.Status = st
		resp.Message = "server started"
	case "stop":
		if err := s.deps.Server.Stop(r.Context()); err != nil {
			writeError(w, r, err)
			return
		}
		s.audit.Record(r, audit.Event{Type: audit.EventServerStop, Action: "game server stopped"})
		resp.Status = s.deps.Server.Status()
		resp.Message = "server stopped"
	case "status":
		resp.Status = s.deps.Server.Status()
	case "logs":
		n := req.Lines
		if n <= 0 {
			n = defaultTailLines
		}
		resp.Status = s.deps.Server.Status()
		resp.Logs = s.deps.Server.TailLogs(min(n, maxTailLines))
	default:
		writeError(w, r, badRequest("unknown action %q (start, stop, status, logs)", req.Action))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleLogStream upgrades to a websocket that replays the recent server
// output and then follows new lines until either side closes.
func (s *Server) handleLogStream(w http.ResponseWriter, r *http.Request) {
	if s.deps.Server == nil {
		writeError(w, r, errServerDisabled)
		return
	}
	n, err := tailLines(r.URL.Query().Get("lines"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	logger := log.WithComponentFromContext(r.Context(), "api")
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logger.Debug().Err(err).Str(log.FieldEvent, "logstream.upgrade_failed").Msg("websocket upgrade failed")
		return
	}
	defer func() { _ = conn.Close() }()

	lines, unsubscribe := s.deps.Server.Subscribe(256)
	defer unsubscribe()

	logger.Debug().Str(log.FieldEvent, "logstream.open").Msg("log stream opened")
	defer func() {
		logger.Debug().Str(log.FieldEvent, "logstream.closed").Msg("log stream closed")
	}()

	// Reader: discards client frames and notices close.
	closed := make(chan struct{})
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(line string) error {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteMessage(websocket.TextMessage, []byte(line))
	}
	for _, line := range s.deps.Server.TailLogs(n) {
		if err := send(line); err != nil {
			return
		}
	}

	ping := time.NewTicker(s.pingEvery)
	defer ping.Stop()
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(writeWait))
				return
			}
			if err := send(line); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}

func (s *Server) handleServerConfig(w http.ResponseWriter, r *http.Request) {
	sp := s.serverPath(r.URL.Query().Get("serverPath"))
	if sp == "" {
		writeError(w, r, supervisor.ErrNoServerPath)
		return
	}
	mem, err := supervisor.MemorySettings(s.deps.Files.Fs(), sp)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mem)
}

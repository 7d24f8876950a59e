// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package rcon runs Project Zomboid console commands over Source RCON.
package rcon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/gorcon/rcon"
	"github.com/rs/zerolog"

	xglog "github.com/pzpanel/pzpanel/internal/log"
	"github.com/pzpanel/pzpanel/internal/metrics"
)

const (
	DefaultHost    = "127.0.0.1"
	DefaultPort    = 27015
	DefaultTimeout = 5 * time.Second
)

var (
	// ErrNoPassword is returned when no RCON password is configured or supplied.
	ErrNoPassword = errors.New("rcon: password is not configured")
	// ErrEmptyCommand is returned by Exec for a blank command.
	ErrEmptyCommand = errors.New("rcon: command is empty")
	// ErrAuthFailed is returned when the server rejects the password.
	ErrAuthFailed = errors.New("rcon: authentication failed")
)

// Target addresses one RCON endpoint.
type Target struct {
	Host     string
	Port     int
	Password string
	Timeout  time.Duration
}

// Address returns host:port.
func (t Target) Address() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// Merge fills zero fields of t from defaults.
func (t Target) Merge(defaults Target) Target {
	if t.Host == "" {
		t.Host = defaults.Host
	}
	if t.Port == 0 {
		t.Port = defaults.Port
	}
	if t.Password == "" {
		t.Password = defaults.Password
	}
	if t.Timeout <= 0 {
		t.Timeout = defaults.Timeout
	}
	if t.Host == "" {
		t.Host = DefaultHost
	}
	if t.Port == 0 {
		t.Port = DefaultPort
	}
	if t.Timeout <= 0 {
		t.Timeout = DefaultTimeout
	}
	return t
}

// Conn is an open console session.
type Conn interface {
	Execute(command string) (string, error)
	Close() error
}

// Dialer opens console sessions.
type Dialer interface {
	Dial(ctx context.Context, t Target) (Conn, error)
}

// NetDialer dials real servers with gorcon.
type NetDialer struct{}

func (NetDialer) Dial(ctx context.Context, t Target) (Conn, error) {
	timeout := t.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		return nil, context.DeadlineExceeded
	}
	conn, err := rcon.Dial(t.Address(), t.Password,
		rcon.SetDialTimeout(timeout),
		rcon.SetDeadline(timeout),
	)
	if err != nil {
		if errors.Is(err, rcon.ErrAuthFailed) {
			return nil, ErrAuthFailed
		}
		return nil, err
	}
	return conn, nil
}

// Client runs commands against targets merged with the current defaults.
type Client struct {
	dialer   Dialer
	defaults func() Target
	logger   zerolog.Logger
}

// New creates a Client. defaults is consulted per call.
func New(dialer Dialer, defaults func() Target) *Client {
	if dialer == nil {
		dialer = NetDialer{}
	}
	if defaults == nil {
		defaults = func() Target { return Target{} }
	}
	return &Client{dialer: dialer, defaults: defaults, logger: xglog.WithComponent("rcon")}
}

// Status is the outcome of a status probe.
type Status struct {
	Online       bool     `json:"online"`
	Status       string   `json:"status"`
	Players      int      `json:"players"`
	PlayerList   []string `json:"playerList"`
	Message      string   `json:"message,omitempty"`
	Error        string   `json:"error,omitempty"`
	ResponseTime int64    `json:"responseTime"`
}

// Status connects and lists online players. Connection failures are
// reported as an offline status, not as an error.
func (c *Client) Status(ctx context.Context, t Target) Status {
	start := time.Now()
	t = t.Merge(c.defaults())
	st := Status{Status: "offline", PlayerList: []string{}}
	if t.Password == "" {
		st.Error = ErrNoPassword.Error()
		return st
	}

	out, err := c.run(ctx, t, "players")
	st.ResponseTime = time.Since(start).Milliseconds()
	if err != nil {
		st.Error = err.Error()
		c.logger.Debug().Err(err).
			Str(xglog.FieldEvent, "rcon.status").
			Str("addr", t.Address()).
			Msg("server offline")
		return st
	}
	st.Online = true
	st.Status = "online"
	st.PlayerList = ParsePlayers(out)
	st.Players = len(st.PlayerList)
	st.Message = "connected"
	return st
}

// Result is the output of one command.
type Result struct {
	Command  string        `json:"command"`
	Response string        `json:"response"`
	Duration time.Duration `json:"-"`
}

// Exec runs a console command. "players", "save" and "servermsg" are
// normalised; anything else is sent as typed.
func (c *Client) Exec(ctx context.Context, t Target, command string) (*Result, error) {
	t = t.Merge(c.defaults())
	if t.Password == "" {
		return nil, ErrNoPassword
	}
	command = strings.TrimSpace(command)
	if command == "" {
		return nil, ErrEmptyCommand
	}

	start := time.Now()
	wire := Normalize(command)
	out, err := c.run(ctx, t, wire)
	verb := Verb(wire)
	metrics.RecordRCONCommand(verb, err)
	if err != nil {
		c.logger.Warn().Err(err).
			Str(xglog.FieldEvent, "rcon.exec").
			Str("command", verb).
			Str("addr", t.Address()).
			Msg("command failed")
		return nil, err
	}
	if verb == "players" {
		players := ParsePlayers(out)
		out = fmt.Sprintf("Players connected (%d): %s", len(players), strings.Join(players, ", "))
	}
	res := &Result{Command: wire, Response: strings.TrimSpace(out), Duration: time.Since(start)}
	c.logger.Info().
		Str(xglog.FieldEvent, "rcon.exec").
		Str("command", verb).
		Dur("duration", res.Duration).
		Msg("command executed")
	return res, nil
}

// SendMessage broadcasts a server message.
func (c *Client) SendMessage(ctx context.Context, t Target, message string) (*Result, error) {
	return c.Exec(ctx, t, "servermsg "+message)
}

func (c *Client) run(ctx context.Context, t Target, command string) (string, error) {
	conn, err := c.dialer.Dial(ctx, t)
	if err != nil {
		return "", fmt.Errorf("connect %s: %w", t.Address(), err)
	}
	defer func() { _ = conn.Close() }()

	type reply struct {
		out string
		err error
	}
	done := make(chan reply, 1)
	go func() {
		out, err := conn.Execute(command)
		done <- reply{out, err}
	}()
	select {
	case r := <-done:
		return r.out, r.err
	case <-ctx.Done():
		_ = conn.Close()
		return "", ctx.Err()
	}
}

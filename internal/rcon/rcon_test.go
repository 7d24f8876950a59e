// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package rcon

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	replies map[string]string
	block   chan struct{}

	mu     sync.Mutex
	sent   []string
	closed bool
}

func (c *fakeConn) Execute(command string) (string, error) {
	c.mu.Lock()
	c.sent = append(c.sent, command)
	c.mu.Unlock()
	if c.block != nil {
		<-c.block
	}
	if out, ok := c.replies[command]; ok {
		return out, nil
	}
	return "", errors.New("unknown command")
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

type fakeDialer struct {
	conn   *fakeConn
	err    error
	target Target
}

func (d *fakeDialer) Dial(_ context.Context, t Target) (Conn, error) {
	d.target = t
	if d.err != nil {
		return nil, d.err
	}
	return d.conn, nil
}

func defaults() Target { return Target{Password: "secret"} }

func TestTargetMerge(t *testing.T) {
	got := Target{Port: 16261}.Merge(Target{Host: "10.0.0.2", Port: 1, Password: "pw"})
	assert.Equal(t, Target{Host: "10.0.0.2", Port: 16261, Password: "pw", Timeout: DefaultTimeout}, got)
	assert.Equal(t, "127.0.0.1:27015", Target{}.Merge(Target{}).Address())
	assert.Equal(t, "[::1]:27015", Target{Host: "::1", Port: 27015}.Address())
}

func TestStatusOnline(t *testing.T) {
	conn := &fakeConn{replies: map[string]string{"players": "Players connected (2): \n-Alice\n-Bob\n"}}
	d := &fakeDialer{conn: conn}
	c := New(d, defaults)

	st := c.Status(context.Background(), Target{Host: "example"})
	assert.True(t, st.Online)
	assert.Equal(t, "online", st.Status)
	assert.Equal(t, 2, st.Players)
	assert.Equal(t, []string{"Alice", "Bob"}, st.PlayerList)
	assert.Equal(t, "example", d.target.Host)
	assert.Equal(t, "secret", d.target.Password)
	assert.True(t, conn.closed)
}

func TestStatusOffline(t *testing.T) {
	c := New(&fakeDialer{err: errors.New("connection refused")}, defaults)
	st := c.Status(context.Background(), Target{})
	assert.False(t, st.Online)
	assert.Equal(t, "offline", st.Status)
	assert.Contains(t, st.Error, "connection refused")
	assert.Empty(t, st.PlayerList)

	c = New(&fakeDialer{}, nil)
	st = c.Status(context.Background(), Target{})
	assert.Equal(t, ErrNoPassword.Error(), st.Error)
}

func TestExec(t *testing.T) {
	conn := &fakeConn{replies: map[string]string{
		"players":                          "Players connected (1): \n-Alice\n",
		"save":                             "World saved\n",
		`servermsg "Restart in 5 minutes"`: "Message sent.",
		"kickuser Bob":                     "User Bob kicked.",
	}}
	c := New(&fakeDialer{conn: conn}, defaults)

	tests := []struct {
		in       string
		wire     string
		response string
	}{
		{"players", "players", "Players connected (1): Alice"},
		{" SAVE ", "save", "World saved"},
		{`servermsg "Restart in 5 minutes"`, `servermsg "Restart in 5 minutes"`, "Message sent."},
		{"kickuser Bob", "kickuser Bob", "User Bob kicked."},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			res, err := c.Exec(context.Background(), Target{}, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.wire, res.Command)
			assert.Equal(t, tt.response, res.Response)
		})
	}

	res, err := c.SendMessage(context.Background(), Target{}, "'Restart in 5 minutes'")
	require.NoError(t, err)
	assert.Equal(t, "Message sent.", res.Response)
}

func TestExecErrors(t *testing.T) {
	c := New(&fakeDialer{conn: &fakeConn{}}, nil)
	_, err := c.Exec(context.Background(), Target{}, "save")
	require.ErrorIs(t, err, ErrNoPassword)

	c = New(&fakeDialer{conn: &fakeConn{}}, defaults)
	_, err = c.Exec(context.Background(), Target{}, "   ")
	require.ErrorIs(t, err, ErrEmptyCommand)

	c = New(&fakeDialer{err: ErrAuthFailed}, defaults)
	_, err = c.Exec(context.Background(), Target{}, "save")
	require.ErrorIs(t, err, ErrAuthFailed)
}

func TestExecHonoursContext(t *testing.T) {
	conn := &fakeConn{block: make(chan struct{})}
	defer close(conn.block)
	c := New(&fakeDialer{conn: conn}, defaults)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.Exec(ctx, Target{}, "save")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestParsePlayers(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty server", "Players connected (0): ", []string{}},
		{"crlf", "Players connected (2):\r\n-Alice\r\n- Bob \r\n", []string{"Alice", "Bob"}},
		{"noise before header", "-ignored\nPlayers connected (1):\n-Carl", []string{"Carl"}},
		{"no header", "-Alice\n-Bob", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePlayers(tt.in))
		})
	}
}

func TestNormalizeAndVerb(t *testing.T) {
	assert.Equal(t, `servermsg "hi 'there'"`, Normalize(`ServerMsg "hi "there""`))
	assert.Equal(t, `servermsg ""`, Normalize("servermsg"))
	assert.Equal(t, "quit", Normalize("QUIT"))
	assert.Equal(t, "additem Bob Base.Axe", Normalize("additem Bob Base.Axe"))

	assert.Equal(t, "kickuser", Verb("KickUser Bob"))
	assert.Equal(t, "other", Verb("mysterious thing"))
}

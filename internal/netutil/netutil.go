// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package netutil opens the listeners the daemon serves on.
package netutil

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"

	xnetutil "golang.org/x/net/netutil"
)

// NormalizeListenAddr accepts a bare port ("3000"), a port with a leading
// colon or a full host:port and returns a host:port address.
func NormalizeListenAddr(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", fmt.Errorf("listen address is empty")
	}
	if _, err := strconv.Atoi(addr); err == nil {
		addr = ":" + addr
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "", fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 0 || n > 65535 {
		return "", fmt.Errorf("invalid listen port %q", port)
	}
	return net.JoinHostPort(host, port), nil
}

// Listen opens a TCP listener on addr. A positive maxConns caps the number
// of simultaneously accepted connections.
func Listen(ctx context.Context, addr string, maxConns int) (net.Listener, error) {
	norm, err := NormalizeListenAddr(addr)
	if err != nil {
		return nil, err
	}
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", norm)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", norm, err)
	}
	if maxConns > 0 {
		ln = xnetutil.LimitListener(ln, maxConns)
	}
	return ln, nil
}

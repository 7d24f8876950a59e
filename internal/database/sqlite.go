// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// open opens a single-connection pool on a game database. Read-only handles
// never create the file; writable handles never change its journal mode.
func open(ctx context.Context, path string, readOnly bool, busyTimeout time.Duration) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn(path, readOnly, busyTimeout))
	if err != nil {
		return nil, fmt.Errorf("sqlite: open failed: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, classify(fmt.Errorf("sqlite: ping failed: %w", err))
	}
	return db, nil
}

// dsn builds a file: URI for path. The path is percent-encoded so '?', '#'
// and '%' in save names stay part of it.
func dsn(path string, readOnly bool, busyTimeout time.Duration) string {
	u := (&url.URL{Path: filepath.ToSlash(path)}).EscapedPath()
	out := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)", u, busyTimeout.Milliseconds())
	if readOnly {
		out += "&mode=ro"
	}
	return out
}

// classify maps busy and locked errors onto ErrLocked.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return errors.Join(ErrLocked, err)
		}
	}
	return err
}

// quoteIdent quotes a table or column name for SQL.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// VerifyMode selects the integrity pragma.
type VerifyMode string

const (
	VerifyQuick VerifyMode = "quick"
	VerifyFull  VerifyMode = "full"
)

// Verify checks a database for structural corruption. It returns nil when
// healthy and the diagnostic rows otherwise.
func (b *Browser) Verify(ctx context.Context, path string, mode VerifyMode) ([]string, error) {
	if err := b.checkFile(path); err != nil {
		return nil, err
	}
	db, err := open(ctx, path, true, b.busyTimeout)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()

	pragma := "PRAGMA quick_check"
	if mode == VerifyFull {
		pragma = "PRAGMA integrity_check"
	}
	rows, err := db.QueryContext(ctx, pragma)
	if err != nil {
		return nil, classify(fmt.Errorf("integrity pragma failed: %w", err))
	}
	defer func() { _ = rows.Close() }()

	var results []string
	for rows.Next() {
		var res string
		if err := rows.Scan(&res); err != nil {
			return nil, fmt.Errorf("scan integrity result: %w", err)
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}

	if len(results) == 1 && strings.EqualFold(results[0], "ok") {
		return nil, nil
	}
	if len(results) == 0 {
		return []string{"no results returned from integrity check"}, nil
	}
	return results, nil
}

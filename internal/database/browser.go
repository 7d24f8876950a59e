// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package database browses the SQLite files a Project Zomboid server keeps
// for players, vehicles and world state.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"

	xglog "github.com/pzpanel/pzpanel/internal/log"
	"github.com/pzpanel/pzpanel/internal/metrics"
)

var (
	ErrNoServerPath   = errors.New("database: server path is not configured")
	ErrNotFound       = errors.New("database: file not found")
	ErrNotDatabase    = errors.New("database: not a .db file")
	ErrTableRequired  = errors.New("database: table name is required")
	ErrTableNotFound  = errors.New("database: table not found")
	ErrLocked         = errors.New("database: file is locked, stop the server first")
	ErrInvalidRequest = errors.New("database: invalid request")
)

const (
	DefaultLimit       = 100
	MaxLimit           = 1000
	DefaultBusyTimeout = 2 * time.Second
	dbExt              = ".db"
)

// Options configures a Browser.
type Options struct {
	// SearchDirs returns extra directories scanned for databases; read per call.
	SearchDirs  func() []string
	BusyTimeout time.Duration
	// Home overrides the user home directory used for ~/Zomboid.
	Home string
}

// Browser discovers, reads and prunes game databases.
type Browser struct {
	searchDirs  func() []string
	busyTimeout time.Duration
	home        string
	logger      zerolog.Logger
}

// New creates a Browser.
func New(opts Options) *Browser {
	if opts.SearchDirs == nil {
		opts.SearchDirs = func() []string { return nil }
	}
	if opts.BusyTimeout <= 0 {
		opts.BusyTimeout = DefaultBusyTimeout
	}
	if opts.Home == "" {
		opts.Home, _ = os.UserHomeDir()
	}
	return &Browser{
		searchDirs:  opts.SearchDirs,
		busyTimeout: opts.BusyTimeout,
		home:        opts.Home,
		logger:      xglog.WithComponent("database"),
	}
}

// Table is a table name with its row count.
type Table struct {
	Name     string `json:"name"`
	RowCount int64  `json:"rowCount"`
}

// Summary lists the tables of one database file.
type Summary struct {
	Path   string  `json:"path"`
	Size   int64   `json:"size"`
	Tables []Table `json:"tables"`
	Error  string  `json:"error,omitempty"`
}

// Column is one row of PRAGMA table_info.
type Column struct {
	CID          int     `json:"cid"`
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	NotNull      bool    `json:"notnull"`
	DefaultValue *string `json:"dflt_value"`
	PrimaryKey   int     `json:"pk"`
}

// Page is a slice of a table.
type Page struct {
	Table   string           `json:"table"`
	Schema  []Column         `json:"schema"`
	Columns []string         `json:"columns"`
	Total   int64            `json:"total"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
	Data    []map[string]any `json:"data"`
}

// searchRoots returns the directories scanned for serverPath. The boolean
// marks roots searched recursively.
func (b *Browser) searchRoots(serverPath string) []root {
	roots := []root{
		{filepath.Join(serverPath, "db"), false},
		{filepath.Join(serverPath, "..", "db"), false},
		{serverPath, false},
	}
	if b.home != "" {
		roots = append(roots,
			root{filepath.Join(b.home, "Zomboid", "db"), false},
			root{filepath.Join(b.home, "Zomboid", "Saves"), true},
		)
	}
	for _, d := range b.searchDirs() {
		if d = strings.TrimSpace(d); d != "" {
			roots = append(roots, root{d, false})
		}
	}
	return roots
}

type root struct {
	dir       string
	recursive bool
}

// Discover returns the .db files near serverPath, in search order without duplicates.
func (b *Browser) Discover(serverPath string) ([]string, error) {
	if strings.TrimSpace(serverPath) == "" {
		return nil, ErrNoServerPath
	}
	var out []string
	seen := map[string]bool{}
	for _, r := range b.searchRoots(serverPath) {
		info, err := os.Stat(r.dir)
		if err != nil || !info.IsDir() {
			continue
		}
		pattern := "*" + dbExt
		if r.recursive {
			pattern = "**/*" + dbExt
		}
		matches, err := doublestar.Glob(os.DirFS(r.dir), pattern, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
		if err != nil {
			b.logger.Debug().Err(err).Str(xglog.FieldPath, r.dir).Msg("database search failed")
			continue
		}
		sort.Strings(matches)
		for _, m := range matches {
			p := filepath.Join(r.dir, filepath.FromSlash(m))
			key := p
			if abs, err := filepath.Abs(p); err == nil {
				key = abs
			}
			if !seen[key] {
				seen[key] = true
				out = append(out, key)
			}
		}
	}
	return out, nil
}

// Summaries lists every discovered database with its tables. A file that
// cannot be read carries its error instead of failing the list.
func (b *Browser) Summaries(ctx context.Context, serverPath string) ([]Summary, error) {
	paths, err := b.Discover(serverPath)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(paths))
	for _, p := range paths {
		s := Summary{Path: p, Tables: []Table{}}
		if info, err := os.Stat(p); err == nil {
			s.Size = info.Size()
		}
		tables, err := b.Tables(ctx, p)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.Error = err.Error()
		} else {
			s.Tables = tables
		}
		out = append(out, s)
	}
	metrics.RecordDatabaseOp("summaries", nil)
	return out, nil
}

// Tables lists the tables of one database with row counts.
func (b *Browser) Tables(ctx context.Context, path string) ([]Table, error) {
	if err := b.checkFile(path); err != nil {
		return nil, err
	}
	db, err := open(ctx, path, true, b.busyTimeout)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()

	names, err := tableNames(ctx, db)
	if err != nil {
		return nil, err
	}
	tables := make([]Table, 0, len(names))
	for _, n := range names {
		var count int64
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quoteIdent(n)).Scan(&count); err != nil {
			count = 0
		}
		tables = append(tables, Table{Name: n, RowCount: count})
	}
	return tables, nil
}

func tableNames(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' ORDER BY name")
	if err != nil {
		return nil, classify(fmt.Errorf("list tables: %w", err))
	}
	defer func() { _ = rows.Close() }()
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, classify(rows.Err())
}

func hasTable(ctx context.Context, db *sql.DB, table string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name = ?", table).Scan(&n)
	if err != nil {
		return false, classify(err)
	}
	return n > 0, nil
}

// Query returns the schema, total row count and one page of rows of table.
// limit is clamped to [1, MaxLimit] with DefaultLimit for zero; offset below zero is zero.
func (b *Browser) Query(ctx context.Context, path, table string, limit, offset int) (*Page, error) {
	page, err := b.query(ctx, path, table, limit, offset)
	metrics.RecordDatabaseOp("query", err)
	return page, err
}

func (b *Browser) query(ctx context.Context, path, table string, limit, offset int) (*Page, error) {
	if table == "" {
		return nil, ErrTableRequired
	}
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	if err := b.checkFile(path); err != nil {
		return nil, err
	}
	db, err := open(ctx, path, true, b.busyTimeout)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()

	ok, err := hasTable(ctx, db, table)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}

	page := &Page{Table: table, Limit: limit, Offset: offset, Schema: []Column{}, Data: []map[string]any{}}
	if page.Schema, err = schema(ctx, db, table); err != nil {
		return nil, err
	}
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quoteIdent(table)).Scan(&page.Total); err != nil {
		return nil, classify(err)
	}

	rows, err := db.QueryContext(ctx, "SELECT * FROM "+quoteIdent(table)+" LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, classify(err)
	}
	defer func() { _ = rows.Close() }()
	if page.Columns, err = rows.Columns(); err != nil {
		return nil, err
	}
	for rows.Next() {
		vals := make([]any, len(page.Columns))
		ptrs := make([]any, len(vals))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(vals))
		for i, c := range page.Columns {
			row[c] = jsonValue(vals[i])
		}
		page.Data = append(page.Data, row)
	}
	return page, classify(rows.Err())
}

func schema(ctx context.Context, db *sql.DB, table string) ([]Column, error) {
	rows, err := db.QueryContext(ctx, "PRAGMA table_info("+quoteIdent(table)+")")
	if err != nil {
		return nil, classify(err)
	}
	defer func() { _ = rows.Close() }()
	cols := []Column{}
	for rows.Next() {
		var (
			c       Column
			notNull int
			dflt    sql.NullString
		)
		if err := rows.Scan(&c.CID, &c.Name, &c.Type, &notNull, &dflt, &c.PrimaryKey); err != nil {
			return nil, err
		}
		c.NotNull = notNull != 0
		if dflt.Valid {
			v := dflt.String
			c.DefaultValue = &v
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// jsonValue turns text blobs into strings; other blobs stay bytes and encode as base64.
func jsonValue(v any) any {
	if b, ok := v.([]byte); ok && utf8.Valid(b) {
		return string(b)
	}
	return v
}

// DropTable removes table from the database at path.
func (b *Browser) DropTable(ctx context.Context, path, table string) error {
	err := b.dropTable(ctx, path, table)
	metrics.RecordDatabaseOp("drop_table", err)
	return err
}

func (b *Browser) dropTable(ctx context.Context, path, table string) error {
	if strings.TrimSpace(table) == "" {
		return ErrTableRequired
	}
	if err := b.checkFile(path); err != nil {
		return err
	}
	db, err := open(ctx, path, false, b.busyTimeout)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(table)); err != nil {
		return classify(fmt.Errorf("drop table %s: %w", table, err))
	}
	b.logger.Info().
		Str(xglog.FieldEvent, "database.drop_table").
		Str(xglog.FieldPath, path).
		Str("table", table).
		Msg("table dropped")
	return nil
}

// DeleteFile removes a .db file. A file held open by the game server yields ErrLocked.
func (b *Browser) DeleteFile(path string) error {
	err := b.deleteFile(path)
	metrics.RecordDatabaseOp("delete_file", err)
	return err
}

func (b *Browser) deleteFile(path string) error {
	if err := b.checkFile(path); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if isLockError(err) {
			return fmt.Errorf("%w: %w", ErrLocked, err)
		}
		return fmt.Errorf("delete %s: %w", path, err)
	}
	b.logger.Info().
		Str(xglog.FieldEvent, "database.delete").
		Str(xglog.FieldPath, path).
		Msg("database file deleted")
	return nil
}

func isLockError(err error) bool {
	return errors.Is(err, syscall.EBUSY) || errors.Is(err, fs.ErrPermission) ||
		strings.Contains(strings.ToLower(err.Error()), "being used by another process")
}

// checkFile requires an existing regular file with the .db extension.
func (b *Browser) checkFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return ErrInvalidRequest
	}
	if !strings.EqualFold(filepath.Ext(path), dbExt) {
		return fmt.Errorf("%w: %s", ErrNotDatabase, path)
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotDatabase, path)
	}
	return nil
}

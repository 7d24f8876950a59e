// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package configedit reads and patches game server config files. It joins
// the files store with the settings round-trip engine: read fresh, patch,
// write back atomically. Concurrent writers are not serialized; the last
// write wins.
package configedit

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/pzpanel/pzpanel/internal/files"
	"github.com/pzpanel/pzpanel/internal/log"
	"github.com/pzpanel/pzpanel/internal/metrics"
	"github.com/pzpanel/pzpanel/internal/settings"
	"github.com/pzpanel/pzpanel/internal/telemetry"
)

// ServerSettingsFile is the file name of the main server config inside a server directory.
const ServerSettingsFile = "server.ini"

// ErrUnsupportedFile is returned for files whose dialect cannot be determined.
var ErrUnsupportedFile = errors.New("configedit: unsupported config file")

// View is a parsed config file as served to the dashboard.
type View struct {
	Path      string                        `json:"path"`
	Name      string                        `json:"name"`
	Dialect   settings.Dialect              `json:"dialect"`
	Encoding  files.Encoding                `json:"encoding"`
	Settings  *settings.Entries             `json:"settings"`
	Types     map[string]settings.ValueType `json:"types"`
	Annotated []settings.Annotated          `json:"annotated,omitempty"`
	Content   string                        `json:"content,omitempty"`
}

// SaveOptions tune Save.
type SaveOptions struct {
	// DryRun computes the change without writing.
	DryRun bool
	// IncludeContent returns the resulting text in Result.
	IncludeContent bool
}

// Result reports what Save did.
type Result struct {
	Path    string           `json:"path"`
	Dialect settings.Dialect `json:"dialect"`
	DryRun  bool             `json:"dryRun"`
	Written bool             `json:"written"`
	Change  settings.Change  `json:"change"`
	Content string           `json:"content,omitempty"`
}

// Service is the config file read-modify-write service.
type Service struct {
	store   *files.Store
	catalog *settings.Catalog
}

// New creates a Service. A nil catalog disables key validation and suggestions.
func New(store *files.Store, catalog *settings.Catalog) *Service {
	return &Service{
		store:   store,
		catalog: catalog,
	}
}

// ServerSettingsPath returns the server.ini path for a server directory.
func ServerSettingsPath(serverPath string) string {
	return filepath.Join(serverPath, ServerSettingsFile)
}

type loaded struct {
	content *files.Content
	doc     *settings.Document
}

func (s *Service) read(ctx context.Context, path string) (*loaded, error) {
	c, err := s.store.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	dialect := settings.DetectDialect(c.Name, settings.SniffText(c.Text))
	if dialect == settings.DialectUnknown {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, c.Name)
	}
	doc, err := settings.Parse(c.Text, dialect)
	if err != nil {
		return nil, err
	}
	return &loaded{content: c, doc: doc}, nil
}

// Load reads and parses a config file. FLAT_INI files are annotated with catalog metadata.
func (s *Service) Load(ctx context.Context, path string) (*View, error) {
	l, err := s.read(ctx, path)
	if err != nil {
		return nil, err
	}
	v := &View{
		Path:     l.content.Path,
		Name:     l.content.Name,
		Dialect:  l.doc.Dialect,
		Encoding: l.content.Encoding,
		Settings: l.doc.Entries,
		Types:    l.doc.Entries.Types(),
	}
	if s.catalog != nil && l.doc.Dialect == settings.DialectFlatINI {
		v.Annotated = s.catalog.Annotate(l.doc.Entries)
	}
	return v, nil
}

// Save applies patch to the file at path. The file is read again right before
// patching; its encoding and byte order mark are kept.
func (s *Service) Save(ctx context.Context, path string, patch settings.Patch, opts SaveOptions) (*Result, error) {
	logger := log.WithComponentFromContext(ctx, "configedit")

	l, err := s.read(ctx, path)
	if err != nil {
		return nil, err
	}
	dialect := l.doc.Dialect
	dl := dialect.String()

	err = patch.Check()
	if err == nil && s.catalog != nil && dialect == settings.DialectFlatINI {
		err = s.catalog.Validate(patch)
	}
	if err != nil {
		recordWrite(ctx, dl, "rejected", 0, 0)
		logger.Warn().
			Err(err).
			Str(log.FieldEvent, "settings.rejected").
			Str(log.FieldPath, path).
			Msg("patch rejected")
		return nil, err
	}

	var catalog *settings.Catalog
	if dialect == settings.DialectFlatINI {
		catalog = s.catalog
	}
	change, err := settings.Preview(l.doc, patch, catalog)
	if err != nil {
		return nil, err
	}

	res := &Result{Path: path, Dialect: dialect, DryRun: opts.DryRun, Change: change}
	if opts.IncludeContent || opts.DryRun {
		res.Content = change.Text
	}

	switch {
	case opts.DryRun:
		recordWrite(ctx, dl, "dry_run", len(change.Changed), len(change.Appended))
		return res, nil
	case change.Empty():
		recordWrite(ctx, dl, "noop", 0, 0)
		return res, nil
	}

	if err := s.store.Write(ctx, path, change.Text, l.content.Encoding); err != nil {
		recordWrite(ctx, dl, "error", 0, 0)
		return nil, err
	}
	res.Written = true
	recordWrite(ctx, dl, "written", len(change.Changed), len(change.Appended))

	logger.Info().
		Str(log.FieldEvent, "settings.write").
		Str(log.FieldPath, path).
		Str(log.FieldDialect, dl).
		Strs("changed", change.Changed).
		Strs("appended", change.Appended).
		Msg("config file updated")
	return res, nil
}

func recordWrite(ctx context.Context, dialect, outcome string, changed, appended int) {
	metrics.RecordSettingsWrite(dialect, outcome, changed, appended)
	telemetry.RecordSettingsWrite(ctx, dialect, outcome)
}

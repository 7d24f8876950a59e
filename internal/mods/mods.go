// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package mods reads and writes the mod list stored in a server's ini file:
// workshop item ids under WorkshopItems and in-game mod ids under Mods.
package mods

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/pzpanel/pzpanel/internal/files"
	"github.com/pzpanel/pzpanel/internal/log"
	"github.com/pzpanel/pzpanel/internal/metrics"
	"github.com/pzpanel/pzpanel/internal/settings"
)

const (
	KeyMods          = "Mods"
	KeyWorkshopItems = "WorkshopItems"
)

// ErrNoServerPath is returned when neither a server directory nor a file was given.
var ErrNoServerPath = errors.New("mods: server path or file path is required")

// Mod is one entry of the mod list.
type Mod struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	WorkshopID string `json:"workshopId,omitempty"`
	Enabled    *bool  `json:"enabled,omitempty"`
}

// IsEnabled reports whether the mod should be written; mods are enabled unless marked otherwise.
func (m Mod) IsEnabled() bool {
	return m.Enabled == nil || *m.Enabled
}

// List is the mod list of one ini file.
type List struct {
	File    string   `json:"file,omitempty"`
	Mods    []Mod    `json:"mods"`
	Dropped []string `json:"dropped,omitempty"`
	Warning string   `json:"warning,omitempty"`
}

// FromEntries builds the mod list from parsed ini entries. WorkshopItems is
// the primary source; Mods is used when it yields nothing.
func FromEntries(entries *settings.Entries) *List {
	l := &List{Mods: []Mod{}}

	if raw, ok := entries.Get(KeyWorkshopItems); ok {
		ids := settings.SplitIDs(raw.Raw)
		for _, id := range ids.IDs {
			l.Mods = append(l.Mods, Mod{ID: id, Name: id, WorkshopID: id})
		}
		l.Dropped = ids.Dropped
		if ids.Mismatch() {
			l.Warning = fmt.Sprintf("expected %d workshop ids but found %d", ids.Separators+1, len(ids.IDs))
		}
	}
	if len(l.Mods) > 0 {
		return l
	}

	if raw, ok := entries.Get(KeyMods); ok {
		for _, name := range settings.SplitList(raw.Raw, ";,") {
			m := Mod{ID: name, Name: name}
			if settings.IsWorkshopID(name) {
				m.WorkshopID = name
			}
			l.Mods = append(l.Mods, m)
		}
	}
	return l
}

// Patch converts a mod list into the ini keys to write. Mods without a
// workshop id go to Mods, the rest to WorkshopItems. A key missing from
// entries is only added when its list is non-empty.
func Patch(entries *settings.Entries, mods []Mod) settings.Patch {
	var regular, workshop []string
	for _, m := range mods {
		if !m.IsEnabled() {
			continue
		}
		if m.WorkshopID != "" {
			workshop = append(workshop, m.WorkshopID)
			continue
		}
		if m.ID != "" {
			regular = append(regular, m.ID)
		}
	}

	patch := settings.Patch{}
	if entries.Has(KeyMods) || len(regular) > 0 {
		patch[KeyMods] = settings.JoinList(regular)
	}
	if entries.Has(KeyWorkshopItems) || len(workshop) > 0 {
		patch[KeyWorkshopItems] = settings.JoinList(workshop)
	}
	return patch
}

// Service reads and writes mod lists through the files store.
type Service struct {
	store *files.Store
}

// New creates a Service.
func New(store *files.Store) *Service {
	return &Service{store: store}
}

// Candidates returns the ini files tried for a server directory, in order.
func Candidates(serverPath, serverName string) []string {
	var out []string
	if serverName != "" {
		out = append(out, filepath.Join(serverPath, serverName+".ini"))
	}
	for _, name := range []string{"servertest.ini", "server.ini"} {
		p := filepath.Join(serverPath, name)
		if len(out) == 0 || out[0] != p {
			out = append(out, p)
		}
	}
	return out
}

// Locate resolves the mods file. An explicit filePath wins; otherwise the
// first existing candidate in serverPath. When none exists the last candidate
// is returned with files.ErrNotFound.
func (s *Service) Locate(serverPath, serverName, filePath string) (string, error) {
	if filePath != "" {
		return filepath.Clean(filePath), nil
	}
	if serverPath == "" {
		return "", ErrNoServerPath
	}
	candidates := Candidates(serverPath, serverName)
	for _, p := range candidates {
		if s.store.Exists(p) {
			return p, nil
		}
	}
	last := candidates[len(candidates)-1]
	return last, &files.PathError{Op: "locate", Path: last, Err: files.ErrNotFound}
}

// Read loads the mod list from path.
func (s *Service) Read(ctx context.Context, path string) (*List, error) {
	c, err := s.store.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	entries, err := settings.ParseConfig(c.Text, settings.DialectFlatINI)
	if err != nil {
		return nil, err
	}
	l := FromEntries(entries)
	l.File = path

	if l.Warning != "" {
		log.FromContext(ctx).Warn().
			Str(log.FieldEvent, "mods.count_mismatch").
			Str(log.FieldPath, path).
			Strs("dropped", l.Dropped).
			Msg(l.Warning)
	}
	return l, nil
}

// Write replaces the mod lists in path and returns the list as it now reads.
func (s *Service) Write(ctx context.Context, path string, mods []Mod) (list *List, err error) {
	defer func() { metrics.RecordModsWrite(err) }()

	c, err := s.store.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	entries, err := settings.ParseConfig(c.Text, settings.DialectFlatINI)
	if err != nil {
		return nil, err
	}
	patch := Patch(entries, mods)
	text, err := settings.Serialize(c.Text, settings.DialectFlatINI, patch)
	if err != nil {
		return nil, err
	}
	if text != c.Text {
		if err := s.store.Write(ctx, path, text, c.Encoding); err != nil {
			return nil, err
		}
	}

	after, err := settings.ParseConfig(text, settings.DialectFlatINI)
	if err != nil {
		return nil, err
	}
	logger := log.WithComponentFromContext(ctx, "mods")
	logger.Info().
		Str(log.FieldEvent, "mods.write").
		Str(log.FieldPath, path).
		Int("mods", len(settings.SplitList(patch[KeyMods], ";"))).
		Int("workshopItems", len(settings.SplitList(patch[KeyWorkshopItems], ";"))).
		Msg("mod list updated")

	list = FromEntries(after)
	list.File = path
	return list, nil
}

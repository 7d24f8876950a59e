// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package files

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/renameio/v2"
	"github.com/pzpanel/pzpanel/internal/log"
	"github.com/spf13/afero"
)

// MaxReadBytes caps the size of a file returned by Read.
const MaxReadBytes = 8 << 20

// DefaultExtensions are listed when the caller does not pass any.
var DefaultExtensions = []string{".ini", ".lua"}

// Info describes one directory entry.
type Info struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
	Ext      string    `json:"extension"`
}

// Content is a decoded text file.
type Content struct {
	Info
	Text     string   `json:"content"`
	Encoding Encoding `json:"encoding"`
	BOM      bool     `json:"bom"`
}

// Store reads and writes server files through an afero filesystem.
type Store struct {
	fs afero.Fs
	os bool
}

// NewOSStore returns a store on the host filesystem with atomic replacing writes.
func NewOSStore() *Store {
	return &Store{fs: afero.NewOsFs(), os: true}
}

// NewStore wraps an arbitrary afero filesystem.
func NewStore(fsys afero.Fs) *Store {
	_, isOS := fsys.(*afero.OsFs)
	return &Store{fs: fsys, os: isOS}
}

// Fs exposes the underlying filesystem.
func (s *Store) Fs() afero.Fs { return s.fs }

// NormalizeExtensions lowercases extensions and ensures the leading dot.
// Empty input yields DefaultExtensions.
func NormalizeExtensions(exts []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), DefaultExtensions...)
	}
	return out
}

// extPattern turns [".ini", ".lua"] into "*{.ini,.lua}".
func extPattern(exts []string) string {
	quoted := make([]string, len(exts))
	for i, e := range exts {
		quoted[i] = doublestar.EscapeMeta(e)
	}
	return "*{" + strings.Join(quoted, ",") + "}"
}

// List returns the regular files in dir whose extension is one of exts, sorted by name.
// It does not descend into subdirectories.
func (s *Store) List(ctx context.Context, dir string, exts []string) ([]Info, error) {
	if dir == "" {
		return nil, ErrEmptyPath
	}
	st, err := s.fs.Stat(dir)
	if err != nil {
		return nil, classify("list", dir, err)
	}
	if !st.IsDir() {
		return nil, &PathError{Op: "list", Path: dir, Err: ErrNotDir}
	}

	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		return nil, classify("list", dir, err)
	}

	pattern := extPattern(NormalizeExtensions(exts))
	out := make([]Info, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		match, err := doublestar.Match(pattern, strings.ToLower(e.Name()))
		if err != nil {
			return nil, fmt.Errorf("match extensions: %w", err)
		}
		if !match {
			continue
		}
		out = append(out, Info{
			Name:     e.Name(),
			Path:     filepath.Join(dir, e.Name()),
			Size:     e.Size(),
			Modified: e.ModTime(),
			Ext:      strings.ToLower(filepath.Ext(e.Name())),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	log.FromContext(ctx).Debug().
		Str(log.FieldEvent, "files.list").
		Str(log.FieldPath, dir).
		Int("count", len(out)).
		Msg("listed directory")
	return out, nil
}

// Read loads and decodes a text file.
func (s *Store) Read(_ context.Context, path string) (*Content, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	st, err := s.fs.Stat(path)
	if err != nil {
		return nil, classify("read", path, err)
	}
	if st.IsDir() {
		return nil, &PathError{Op: "read", Path: path, Err: ErrIsDir}
	}
	if st.Size() > MaxReadBytes {
		return nil, &PathError{Op: "read", Path: path, Err: ErrTooLarge}
	}

	f, err := s.fs.Open(path)
	if err != nil {
		return nil, classify("read", path, err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, MaxReadBytes+1))
	if err != nil {
		return nil, classify("read", path, err)
	}
	text, enc, err := Decode(data)
	if err != nil {
		return nil, &PathError{Op: "read", Path: path, Err: err}
	}

	return &Content{
		Info: Info{
			Name:     filepath.Base(path),
			Path:     path,
			Size:     st.Size(),
			Modified: st.ModTime(),
			Ext:      strings.ToLower(filepath.Ext(path)),
		},
		Text:     text,
		Encoding: enc,
		BOM:      enc.HasBOM(),
	}, nil
}

// Write replaces the content of an existing, writable file, encoding text with enc.
// On the host filesystem the replacement is atomic and keeps the file mode.
func (s *Store) Write(ctx context.Context, path, text string, enc Encoding) error {
	if path == "" {
		return ErrEmptyPath
	}
	st, err := s.fs.Stat(path)
	if err != nil {
		return classify("write", path, err)
	}
	if st.IsDir() {
		return &PathError{Op: "write", Path: path, Err: ErrIsDir}
	}
	if st.Mode().Perm()&0o222 == 0 {
		return &PathError{Op: "write", Path: path, Err: ErrPermission}
	}

	data, err := Encode(text, enc)
	if err != nil {
		return &PathError{Op: "write", Path: path, Err: err}
	}

	if s.os {
		err = writeAtomic(ctx, path, data)
	} else {
		err = afero.WriteFile(s.fs, path, data, st.Mode().Perm())
	}
	if err != nil {
		return classify("write", path, err)
	}

	log.FromContext(ctx).Debug().
		Str(log.FieldEvent, "files.write").
		Str(log.FieldPath, path).
		Int("bytes", len(data)).
		Msg("file written")
	return nil
}

// writeAtomic uses renameio: temp file in the same dir, fsync, rename.
func writeAtomic(ctx context.Context, path string, data []byte) error {
	logger := log.FromContext(ctx)

	pending, err := renameio.NewPendingFile(path, renameio.WithExistingPermissions())
	if err != nil {
		return fmt.Errorf("create pending file: %w", err)
	}
	defer func() {
		if err := pending.Cleanup(); err != nil {
			logger.Debug().Err(err).Str(log.FieldPath, path).Msg("cleanup pending file")
		}
	}()

	if _, err := pending.Write(data); err != nil {
		return fmt.Errorf("write pending file: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace file: %w", err)
	}
	return nil
}

// Exists reports whether path names an existing regular file.
func (s *Store) Exists(path string) bool {
	st, err := s.fs.Stat(path)
	return err == nil && st.Mode().IsRegular()
}

// Remove deletes a file.
func (s *Store) Remove(path string) error {
	return classify("remove", path, s.fs.Remove(path))
}

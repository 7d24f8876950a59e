// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package settings

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Dialect identifies the syntax of a configuration file.
type Dialect int

const (
	DialectUnknown Dialect = iota
	DialectFlatINI
	DialectNestedTable
)

// RootMarker is the identifier of the root table in sandbox variable files.
const RootMarker = "SandboxVars"

// ErrUnsupportedDialect is returned when Parse or Serialize receives a dialect it cannot handle.
var ErrUnsupportedDialect = errors.New("unsupported config dialect")

func (d Dialect) String() string {
	switch d {
	case DialectFlatINI:
		return "flat_ini"
	case DialectNestedTable:
		return "nested_table"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (d Dialect) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Dialect) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "flat_ini", "ini":
		*d = DialectFlatINI
	case "nested_table", "lua":
		*d = DialectNestedTable
	case "unknown", "":
		*d = DialectUnknown
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedDialect, string(b))
	}
	return nil
}

// DetectDialect decides the dialect of a file from its name, consulting sniff
// only when the extension is not conclusive. sniff may be nil.
func DetectDialect(filename string, sniff func() bool) Dialect {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".ini":
		return DialectFlatINI
	case ".lua":
		return DialectNestedTable
	}
	if sniff != nil && sniff() {
		return DialectNestedTable
	}
	return DialectUnknown
}

// HasRootMarker reports whether text declares the sandbox variables root table.
func HasRootMarker(text string) bool {
	return strings.Contains(text, RootMarker)
}

// SniffText returns a sniff predicate over already loaded content.
func SniffText(text string) func() bool {
	return func() bool { return HasRootMarker(text) }
}

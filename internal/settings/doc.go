// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package settings parses and rewrites Project Zomboid server configuration files.
//
// Two dialects are supported: the flat key=value server.ini format and the
// nested Lua table format used by SandboxVars. Both share one contract:
// Parse turns text into an ordered set of entries, and Serialize applies a
// Patch to the original text while leaving every line it does not need to
// touch byte-for-byte intact (comments, blank lines, ordering, indentation).
//
// The package is pure. It performs no I/O and holds no state between calls;
// callers read the file, pick a Dialect with DetectDialect, and write the
// result back themselves.
package settings

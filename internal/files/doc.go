// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package files is the filesystem collaborator of the panel: directory
// listings filtered by extension, encoding-aware reads and atomic writes of
// existing server files.
package files

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads the panel configuration.
//
// Precedence, lowest first: built-in defaults, the YAML file (strict, unknown
// keys are rejected), then environment variables. `.env.local` and `.env` in
// the working directory are read into the environment first without
// overriding variables that are already set.
//
// A Holder keeps the current configuration, reloads it when the YAML file
// changes and notifies listeners after a successful reload.
package config

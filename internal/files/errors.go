// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package files

import (
	"errors"
	"io/fs"
)

var (
	// ErrNotFound is returned when a file or directory does not exist.
	ErrNotFound = errors.New("files: not found")
	// ErrPermission is returned when the file cannot be read or written.
	ErrPermission = errors.New("files: permission denied")
	// ErrNotDir is returned by List for a path that is not a directory.
	ErrNotDir = errors.New("files: not a directory")
	// ErrIsDir is returned by Read and Write for a directory path.
	ErrIsDir = errors.New("files: is a directory")
	// ErrTooLarge is returned by Read for files above MaxReadBytes.
	ErrTooLarge = errors.New("files: file too large")
	// ErrEmptyPath is returned when no path was given.
	ErrEmptyPath = errors.New("files: path is required")
)

// classify maps OS errors onto the package sentinels, keeping the cause.
func classify(op, path string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist):
		return &PathError{Op: op, Path: path, Err: ErrNotFound, cause: err}
	case errors.Is(err, fs.ErrPermission):
		return &PathError{Op: op, Path: path, Err: ErrPermission, cause: err}
	default:
		return &PathError{Op: op, Path: path, Err: err}
	}
}

// PathError records the operation and path that failed.
type PathError struct {
	Op   string
	Path string
	Err  error

	cause error
}

func (e *PathError) Error() string {
	if e.cause != nil {
		return e.Op + " " + e.Path + ": " + e.Err.Error() + ": " + e.cause.Error()
	}
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() []error {
	if e.cause != nil {
		return []error{e.Err, e.cause}
	}
	return []error{e.Err}
}

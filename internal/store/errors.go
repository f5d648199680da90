package store

import "errors"

var (
	// ErrConflict is the commit-time fallback: a database exclusion
	// constraint tripped on a window that passed the in-memory check.
	ErrConflict = errors.New("conflict")
	ErrNotFound = errors.New("not found")
)

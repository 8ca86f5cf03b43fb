// Package apperr holds sentinel errors shared across layers.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalid       = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	// ErrReadOnly is returned for edits while the console is synced from a spreadsheet.
	ErrReadOnly = errors.New("read-only while spreadsheet sync is enabled")
)

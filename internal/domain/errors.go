// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a concurrent modification conflict.
var ErrConflict = errors.New("conflict: resource was modified by another request")

// ErrValidation marks input that failed domain validation. Wrap it with the
// offending field so the HTTP layer can surface the message as a 400.
var ErrValidation = errors.New("validation failed")

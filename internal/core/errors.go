package core

import (
	"errors"
	"fmt"
)

// ErrManifestNotFound is returned when the lock manifest does not exist.
var ErrManifestNotFound = errors.New("manifest not found")

// ErrNoManifestPath is returned when no manifest path was given.
var ErrNoManifestPath = errors.New("manifest path is required")

// ParseError reports a manifest that could not be decoded.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("parsing manifest: %v", e.Err)
	}
	return fmt.Sprintf("parsing manifest %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

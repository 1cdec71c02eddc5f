package config

import (
	"errors"
	"fmt"
)

var (
	// ErrFileNotFound indicates an explicitly named config file is absent.
	ErrFileNotFound = errors.New("config file not found")

	// ErrValidation indicates a setting outside its allowed range.
	ErrValidation = errors.New("invalid configuration")
)

// ParseError reports a TOML file that failed to parse.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

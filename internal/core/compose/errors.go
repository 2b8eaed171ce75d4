// Package compose contains pure functions for summarizing Docker Compose files.
// This is part of the Functional Core - all functions are pure with no I/O.
package compose

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// Input validation errors
	ErrEmptyInput = errors.New("compose file is empty")

	// YAML parsing errors
	ErrInvalidYAML = errors.New("invalid YAML syntax")

	// Compose structure errors
	ErrNoServices   = errors.New("compose file must define at least one service")
	ErrInvalidSpec  = errors.New("invalid compose specification")
	ErrServiceImage = errors.New("service must have image or build")
)

// ParseError wraps errors with context about where parsing failed.
type ParseError struct {
	File    string // compose file name
	Field   string // e.g., "services.web"
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	prefix := e.File
	if e.Field != "" {
		if prefix != "" {
			prefix += ": "
		}
		prefix += e.Field
	}
	if prefix != "" {
		return fmt.Sprintf("%s: %s", prefix, e.Message)
	}
	return e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError.
func NewParseError(file, field, message string, err error) *ParseError {
	return &ParseError{
		File:    file,
		Field:   field,
		Message: message,
		Err:     err,
	}
}

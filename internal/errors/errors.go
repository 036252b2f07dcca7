// Package errors defines the typed error taxonomy for the codegraph engine.
//
// Fatal setup errors abort before scanning; per-file and per-query errors
// are recovered locally. Query errors carry enough structure (candidate
// lists, suggestions) for a caller to disambiguate without guessing.
package errors

import (
	"fmt"
	"strings"
)

// SetupError is fatal: the scan root does not exist, is not a directory,
// or is unreadable. Reported before any scanning begins.
type SetupError struct {
	Root       string
	Underlying error
}

// NewSetupError creates a fatal setup error for the given root.
func NewSetupError(root string, err error) *SetupError {
	return &SetupError{Root: root, Underlying: err}
}

// Error implements the error interface
func (e *SetupError) Error() string {
	return fmt.Sprintf("invalid scan root %s: %v", e.Root, e.Underlying)
}

// Unwrap returns the underlying error for errors.Is/As
func (e *SetupError) Unwrap() error {
	return e.Underlying
}

// FileReadError is recoverable: one file could not be read or decoded.
// The scanner records it and continues.
type FileReadError struct {
	Path       string
	Operation  string
	Underlying error
}

// NewFileReadError creates a per-file read error.
func NewFileReadError(op, path string, err error) *FileReadError {
	return &FileReadError{Path: path, Operation: op, Underlying: err}
}

// Error implements the error interface
func (e *FileReadError) Error() string {
	return fmt.Sprintf("file %s failed for %s: %v", e.Operation, e.Path, e.Underlying)
}

// Unwrap returns the underlying error
func (e *FileReadError) Unwrap() error {
	return e.Underlying
}

// AmbiguousIdentifierError means a query identifier matched more than one
// node. The full candidate list is surfaced; the engine never silently
// picks one.
type AmbiguousIdentifierError struct {
	Identifier string
	Candidates []string
}

// NewAmbiguousIdentifierError creates an ambiguity error naming all matches.
func NewAmbiguousIdentifierError(identifier string, candidates []string) *AmbiguousIdentifierError {
	return &AmbiguousIdentifierError{Identifier: identifier, Candidates: candidates}
}

// Error implements the error interface
func (e *AmbiguousIdentifierError) Error() string {
	return fmt.Sprintf("identifier %q matches %d files: %s (use a longer path to disambiguate)",
		e.Identifier, len(e.Candidates), strings.Join(e.Candidates, ", "))
}

// NotFoundError means a query identifier matched zero nodes. Suggestions
// are the closest known relative paths by string similarity.
type NotFoundError struct {
	Identifier  string
	Suggestions []string
}

// NewNotFoundError creates a not-found error with optional suggestions.
func NewNotFoundError(identifier string, suggestions []string) *NotFoundError {
	return &NotFoundError{Identifier: identifier, Suggestions: suggestions}
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("no file matches %q (use list_files to see known files)", e.Identifier)
	}
	return fmt.Sprintf("no file matches %q, did you mean: %s", e.Identifier, strings.Join(e.Suggestions, ", "))
}

// NoGraphError means a query arrived before any scan populated the graph.
type NoGraphError struct{}

// Error implements the error interface
func (e *NoGraphError) Error() string {
	return "no graph available: run scan first"
}

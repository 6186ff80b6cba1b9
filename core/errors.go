package core

import (
	"errors"
	"fmt"
)

// Sentinel errors, matched with errors.Is
var (
	// Content errors
	ErrPageNotFound      = errors.New("page not found")
	ErrLayoutNotFound    = errors.New("layout not found")
	ErrDirectoryNotFound = errors.New("directory not found")
	ErrDuplicateRoute    = errors.New("route already taken")

	// Plugin errors
	ErrPluginFailed = errors.New("plugin processing failed")

	// File watcher errors
	ErrWatcherNotRunning = errors.New("file watcher not running")
	ErrWatcherRunning    = errors.New("file watcher already running")

	// Search errors
	ErrSearchUnavailable = errors.New("search is not enabled")

	// Request errors
	ErrRateLimited  = errors.New("rate limited")
	ErrInvalidInput = errors.New("invalid input")
)

// ContentError wraps errors raised while loading the site content
type ContentError struct {
	Op   string
	Path string
	Err  error
}

func (e *ContentError) Error() string {
	return fmt.Sprintf("content %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ContentError) Unwrap() error {
	return e.Err
}

// NewContentError creates a new ContentError
func NewContentError(op, path string, err error) *ContentError {
	return &ContentError{
		Op:   op,
		Path: path,
		Err:  err,
	}
}

// PluginError is a failure of one plugin. File is empty when the plugin failed
// on the whole page set rather than on a single page.
type PluginError struct {
	Plugin string
	File   string
	Err    error
}

func (e *PluginError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("plugin %s: %v", e.Plugin, e.Err)
	}
	return fmt.Sprintf("plugin %s on %s: %v", e.Plugin, e.File, e.Err)
}

func (e *PluginError) Unwrap() error {
	return e.Err
}

// NewPluginError creates a new PluginError
func NewPluginError(plugin, file string, err error) *PluginError {
	return &PluginError{
		Plugin: plugin,
		File:   file,
		Err:    err,
	}
}

// ValidationError rejects a single config field or request parameter
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, fmt.Sprint(e.Value), e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

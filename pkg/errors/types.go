package errors

import (
	"fmt"
)

// MissingFieldError represents a missing required field.
type MissingFieldError struct {
	Field string
}

func (err MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", err.Field)
}

// FileNotFound represents when we were unable to access a file
// because the path didn't exist.
type FileNotFound struct {
	Path string
}

func (err FileNotFound) Error() string {
	return fmt.Sprintf("%q does not exist", err.Path)
}

// InvalidSlugError is returned for a project slug that can't be used as a
// single filename within the output directory.
type InvalidSlugError struct {
	Slug string
}

func (err InvalidSlugError) Error() string {
	return fmt.Sprintf("invalid project slug %q", err.Slug)
}

// DuplicateSlugError is returned when the same slug appears more than once
// in a single project listing.
type DuplicateSlugError struct {
	Slug string
}

func (err DuplicateSlugError) Error() string {
	return fmt.Sprintf("duplicate project slug %q", err.Slug)
}

// ProtectedNameError is returned when the file for a project would have a
// name reserved for externally managed files.
type ProtectedNameError struct {
	Slug string
	Name string
}

func (err ProtectedNameError) Error() string {
	return fmt.Sprintf("project %q maps to protected file %q", err.Slug, err.Name)
}

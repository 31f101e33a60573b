package domain

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Taxonomy
// =============================================================================

var (
	// ErrIOFault is returned when the filesystem cannot be read or written.
	ErrIOFault = errors.New("filesystem fault")

	// ErrNotFound is returned when a named entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateName is returned when a named entity already exists.
	ErrDuplicateName = errors.New("duplicate name")

	// Validation errors
	ErrEmptyContextPath     = errors.New("context path cannot be empty")
	ErrMalformedContextPath = errors.New("context path must start with '/'")
	ErrDuplicateContextPath = errors.New("context path is already in use")
	ErrMissingDocBase       = errors.New("document base directory is missing")
	ErrMissingWorkspaceItem = errors.New("workspace item must be set")
	ErrInvalidPort          = errors.New("invalid port")
	ErrInvalidScope         = errors.New("invalid library scope")
	ErrNotDescriptor        = errors.New("not a web.xml descriptor")
)

// IOFaultError wraps a filesystem failure with the operation and path.
type IOFaultError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOFaultError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOFaultError) Unwrap() []error {
	return []error{ErrIOFault, e.Err}
}

// NewIOFault creates a new IOFaultError.
func NewIOFault(op, path string, err error) *IOFaultError {
	return &IOFaultError{Op: op, Path: path, Err: err}
}

// ValidationError reports a rejected value. The registry it was raised
// against is left unchanged.
type ValidationError struct {
	Field   string
	Value   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s %q: %s", e.Field, e.Value, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a ValidationError whose message is taken from err.
func NewValidationError(field, value string, err error) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: err.Error(),
		Err:     err,
	}
}

// DuplicateNameError is returned when creating a named entity (server,
// run profile) whose display name is already taken.
type DuplicateNameError struct {
	Kind string
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("duplicate %s name: %q", e.Kind, e.Name)
}

func (e *DuplicateNameError) Unwrap() error {
	return ErrDuplicateName
}

package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound         = errors.New("resource not found")
	ErrRunNotFound      = fmt.Errorf("%w: run", ErrNotFound)
	ErrArtifactNotFound = fmt.Errorf("%w: artifact", ErrNotFound)

	// Precondition errors: the fitting collaborator skipped a required step,
	// or the contrast cannot be expressed on the fitted design
	ErrModelNotFit           = errors.New("model not fit")
	ErrCoefficientUnresolved = errors.New("coefficient unresolved for contrast")

	// Validation errors
	ErrDuplicateGene    = errors.New("duplicate gene in result partition")
	ErrInsufficientData = errors.New("insufficient data for analysis")
	ErrInvalidThreshold = errors.New("invalid significance threshold")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewValidationError(field string, reason string) error {
	return fmt.Errorf("validation failed for %s: %s", field, reason)
}

func NewCoefficientError(contrast string, available []string) error {
	return fmt.Errorf("%w: contrast %q, model coefficients %v", ErrCoefficientUnresolved, contrast, available)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsPreconditionError reports whether err means the external fitting
// collaborator has not delivered what the pipeline requires.
func IsPreconditionError(err error) bool {
	return errors.Is(err, ErrModelNotFit) ||
		errors.Is(err, ErrCoefficientUnresolved)
}

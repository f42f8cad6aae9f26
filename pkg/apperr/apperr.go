// Package apperr defines the error kinds shared by the PixelTyper packages.
//
// Call sites wrap one of the sentinels with context:
//
//	return fmt.Errorf("template %q: %w", name, apperr.ErrNotFound)
//
// and callers classify with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks bad or missing required input.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks a referenced template or image that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrLoad marks a file that exists but cannot be decoded.
	ErrLoad = errors.New("load error")
)

// Validation returns an ErrValidation-wrapped error with a formatted message.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrValidation)
}

// Kind returns the sentinel err wraps, or nil.
func Kind(err error) error {
	for _, k := range []error{ErrValidation, ErrNotFound, ErrLoad} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

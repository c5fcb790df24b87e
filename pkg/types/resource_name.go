// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidResourceName is the sentinel error wrapped by InvalidResourceNameError.
var ErrInvalidResourceName = errors.New("invalid resource name")

// resourceNameRegex matches names the CitizenFX server accepts as resource
// names: letters, digits, underscores and dashes, starting with a letter or
// digit. Bracketed category directories (e.g. "[gameplay]") are not resources
// and do not match.
var resourceNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

type (
	// ResourceName identifies a deployed resource: the directory name the
	// server runtime uses for "ensure"/"restart" commands. One plugin normally
	// maps to one resource of the same name.
	ResourceName string

	// InvalidResourceNameError is returned when a ResourceName value is empty
	// or contains characters the server runtime rejects.
	InvalidResourceNameError struct {
		Value ResourceName
	}
)

// String returns the string representation of the ResourceName.
func (n ResourceName) String() string { return string(n) }

// Validate returns an error if the ResourceName is empty or contains
// characters outside [a-zA-Z0-9_-].
func (n ResourceName) Validate() error {
	if !resourceNameRegex.MatchString(string(n)) {
		return &InvalidResourceNameError{Value: n}
	}
	return nil
}

// Error implements the error interface for InvalidResourceNameError.
func (e *InvalidResourceNameError) Error() string {
	return fmt.Sprintf("invalid resource name %q: must match [a-zA-Z0-9][a-zA-Z0-9_-]*", e.Value)
}

// Unwrap returns ErrInvalidResourceName for errors.Is() compatibility.
func (e *InvalidResourceNameError) Unwrap() error { return ErrInvalidResourceName }

// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

type (
	// PluginFailure records one plugin that failed to build while the rest
	// of the run continued.
	PluginFailure struct {
		Plugin string
		Err    error
	}

	// PartialFailureError is returned when the run finished but one or more
	// plugins failed. Callers map it to a distinct exit code so scripts can
	// tell "nothing built" from "some plugins built".
	PartialFailureError struct {
		Failures []PluginFailure
	}
)

// Error implements the error interface for PartialFailureError.
func (e *PartialFailureError) Error() string {
	names := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		names[i] = f.Plugin
	}
	return fmt.Sprintf("build finished with %d failed plugin(s): %s", len(e.Failures), strings.Join(names, ", "))
}

// Unwrap returns the joined per-plugin errors for errors.Is/As.
func (e *PartialFailureError) Unwrap() error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errors.Join(errs...)
}

// SPDX-License-Identifier: MPL-2.0

// Package toolrunner executes external frontend tool commands (package
// managers, bundler CLIs) for the webview build.
//
// Two runner implementations exist: native delegates to the system shell,
// virtual interprets the command with an embedded POSIX shell and needs no
// shell on the host. Both report results the same way so callers never
// branch on the mode.
package toolrunner

import (
	"context"
	"io"

	"cfxforge-cli/internal/config"
)

type (
	// Spec describes one command invocation.
	Spec struct {
		// Command is the full shell command line to run.
		Command string
		// Dir is the working directory.
		Dir string
		// Env holds extra KEY=VALUE entries appended to the inherited
		// environment.
		Env []string
		// Stdout and Stderr receive the command's output. Nil discards.
		Stdout io.Writer
		Stderr io.Writer
	}

	// Result is the outcome of one invocation. A non-zero ExitCode with a
	// nil Error means the tool ran and failed; a non-nil Error means the
	// tool could not be run at all.
	Result struct {
		ExitCode int
		Error    error
	}

	// Runner executes tool commands.
	Runner interface {
		// Name identifies the runner in logs and errors.
		Name() string
		// Available reports whether this runner can execute on the host.
		Available() bool
		// Run executes the spec and always returns a non-nil Result.
		Run(ctx context.Context, spec Spec) *Result
	}
)

// Failed reports whether the invocation did not complete with exit code 0.
func (r *Result) Failed() bool {
	return r.Error != nil || r.ExitCode != 0
}

// ForMode returns the runner selected by configuration.
func ForMode(mode config.RunnerMode) Runner {
	if mode == config.RunnerVirtual {
		return NewVirtualRunner()
	}
	return NewNativeRunner()
}

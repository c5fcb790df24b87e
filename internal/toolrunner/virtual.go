// SPDX-License-Identifier: MPL-2.0

package toolrunner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// VirtualRunner interprets commands with an embedded POSIX shell. External
// binaries referenced by the command are still resolved from PATH; only the
// shell itself is in-process, so commands behave the same on hosts without
// a usable system shell.
type VirtualRunner struct{}

// NewVirtualRunner creates an embedded-shell runner.
func NewVirtualRunner() *VirtualRunner {
	return &VirtualRunner{}
}

// Name returns the runner name.
func (r *VirtualRunner) Name() string { return "virtual" }

// Available always reports true; the shell is built in.
func (r *VirtualRunner) Available() bool { return true }

// Run parses and interprets the command.
func (r *VirtualRunner) Run(ctx context.Context, spec Spec) *Result {
	prog, err := syntax.NewParser().Parse(strings.NewReader(spec.Command), "command")
	if err != nil {
		return &Result{ExitCode: 1, Error: fmt.Errorf("parse command %q: %w", spec.Command, err)}
	}

	stdout := spec.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := spec.Stderr
	if stderr == nil {
		stderr = io.Discard
	}

	runner, err := interp.New(
		interp.Dir(spec.Dir),
		interp.Env(expand.ListEnviron(append(os.Environ(), spec.Env...)...)),
		interp.StdIO(nil, stdout, stderr),
	)
	if err != nil {
		return &Result{ExitCode: 1, Error: fmt.Errorf("create interpreter: %w", err)}
	}

	if err := runner.Run(ctx, prog); err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			return &Result{ExitCode: int(exitStatus)}
		}
		return &Result{ExitCode: 1, Error: fmt.Errorf("run %q: %w", spec.Command, err)}
	}
	return &Result{ExitCode: 0}
}

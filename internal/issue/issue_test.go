// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"strings"
	"testing"
)

func TestLookup(t *testing.T) {
	t.Parallel()

	for _, id := range Known() {
		iss := Lookup(id)
		if iss == nil {
			t.Fatalf("Lookup(%d) = nil", id)
		}
		if iss.Id() != id {
			t.Errorf("Lookup(%d).Id() = %d", id, iss.Id())
		}
		if strings.TrimSpace(string(iss.MarkdownMsg())) == "" {
			t.Errorf("issue %d has empty markdown body", id)
		}
	}

	if Lookup(Id(9999)) != nil {
		t.Error("Lookup(unknown) != nil")
	}
}

func TestIssue_Render(t *testing.T) {
	t.Parallel()

	// Stub the glamour renderer so the test asserts wiring, not styling.
	orig := render
	defer func() { render = orig }()
	var rendered string
	render = func(in, stylePath string) (string, error) {
		rendered = in
		return in, nil
	}

	out, err := frontendToolNotFoundIssue.Render("dark")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if out == "" || rendered == "" {
		t.Fatal("Render() produced empty output")
	}
	if !strings.Contains(rendered, "See also") {
		t.Error("doc links were not appended to the markdown body")
	}
}

func TestActionableError_FormatAndUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("exit status 127")
	err := NewErrorContext().
		WithOperation("build webview").
		WithResource("plugins/garage").
		WithSuggestion("Run 'npm install'").
		WithSuggestion("Use --skip-webview to bypass UI builds").
		Wrap(cause).
		Build()

	if err == nil {
		t.Fatal("Build() = nil")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false")
	}

	short := err.Format(false)
	for _, want := range []string{"failed to build webview", "plugins/garage", "exit status 127", "npm install"} {
		if !strings.Contains(short, want) {
			t.Errorf("Format(false) missing %q:\n%s", want, short)
		}
	}
	if strings.Contains(short, "Error chain") {
		t.Error("Format(false) includes the verbose error chain")
	}

	long := err.Format(true)
	if !strings.Contains(long, "Error chain") {
		t.Error("Format(true) missing the error chain")
	}
}

func TestErrorContext_RequiresOperation(t *testing.T) {
	t.Parallel()

	if got := NewErrorContext().WithResource("x").BuildError(); got != nil {
		t.Errorf("BuildError() without operation = %v, want nil", got)
	}
}

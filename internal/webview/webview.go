// SPDX-License-Identifier: MPL-2.0

// Package webview builds a plugin's in-game overlay with the shared frontend
// toolchain.
//
// Each build gets its own scaffold directory created under the shared
// webview project, so the project's own sources are never touched and a
// crashed build leaves nothing to restore. Builds are serialized; the
// frontend toolchain shares one dependency tree and one dev-server port.
package webview

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"cfxforge-cli/internal/fsutil"
	"cfxforge-cli/internal/issue"
	"cfxforge-cli/internal/toolrunner"
	"cfxforge-cli/pkg/pluginfile"
)

// OutdirPlaceholder is replaced in the configured build command with the
// plugin's overlay output directory.
const OutdirPlaceholder = "{outdir}"

const scaffoldIndexHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
  </head>
  <body>
    <div id="root"></div>
    <script type="module" src="/main.tsx"></script>
  </body>
</html>
`

// Overlays render on a transparent page over the game; default browser
// margins and opaque backgrounds would show as visible borders in-game.
const scaffoldResetCSS = `* {
  margin: 0;
  padding: 0;
  box-sizing: border-box;
}

html,
body,
#root {
  width: 100%;
  height: 100%;
  background: transparent;
  overflow: hidden;
}
`

type (
	// Builder runs overlay builds through the shared webview project.
	Builder struct {
		mu sync.Mutex

		runner     toolrunner.Runner
		webviewDir string
		command    string
		logger     *log.Logger
	}

	// BuildResult describes one overlay build.
	BuildResult struct {
		// OutputDir is where the built overlay was written.
		OutputDir string
		// HasIndexHTML and HasAssets report what the toolchain produced.
		HasIndexHTML bool
		HasAssets    bool
		// Success is true only when a loadable overlay exists in OutputDir.
		Success bool
	}
)

// NewBuilder creates a Builder running command (with OutdirPlaceholder)
// inside scaffolds under webviewDir.
func NewBuilder(runner toolrunner.Runner, webviewDir, command string, logger *log.Logger) *Builder {
	return &Builder{
		runner:     runner,
		webviewDir: webviewDir,
		command:    command,
		logger:     logger,
	}
}

// Build produces the overlay for one plugin into outDir. Plugins without a
// UI entry return an unsuccessful result and no error; the frontend
// toolchain is not invoked for them.
func (b *Builder) Build(ctx context.Context, p *pluginfile.Plugin, outDir string) (*BuildResult, error) {
	entry := p.UIEntry()
	if entry == "" {
		return &BuildResult{OutputDir: outDir}, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !fsutil.DirExists(b.webviewDir) {
		return &BuildResult{OutputDir: outDir}, fmt.Errorf("webview project %s does not exist", b.webviewDir)
	}

	scaffold, err := os.MkdirTemp(b.webviewDir, "cfxforge-ui-")
	if err != nil {
		return &BuildResult{OutputDir: outDir}, fmt.Errorf("create scaffold: %w", err)
	}
	defer os.RemoveAll(scaffold)

	if err := writeScaffold(scaffold, filepath.Join(p.Path, filepath.FromSlash(entry))); err != nil {
		return &BuildResult{OutputDir: outDir}, err
	}
	if err := fsutil.EnsureDir(outDir); err != nil {
		return &BuildResult{OutputDir: outDir}, err
	}

	command := strings.ReplaceAll(b.command, OutdirPlaceholder, outDir)
	b.logger.Debug("building overlay", "plugin", p.Name, "command", command)

	var stderr bytes.Buffer
	res := b.runner.Run(ctx, toolrunner.Spec{
		Command: command,
		Dir:     scaffold,
		Stderr:  &stderr,
	})
	if res.Failed() {
		cause := res.Error
		if cause == nil {
			cause = fmt.Errorf("exited with code %d: %s", res.ExitCode, lastLines(stderr.String(), 5))
		}
		return &BuildResult{OutputDir: outDir}, issue.NewErrorContext().
			WithOperation("build overlay").
			WithResource(p.Name).
			WithSuggestion("Run 'npm install' in the webview project").
			WithSuggestion("Use --skip-webview to bypass UI builds").
			WithIssue(issue.FrontendToolNotFoundId).
			Wrap(cause).
			BuildError()
	}

	result := &BuildResult{
		OutputDir:    outDir,
		HasIndexHTML: fsutil.FileExists(filepath.Join(outDir, "index.html")),
		HasAssets:    fsutil.DirExists(filepath.Join(outDir, "assets")),
	}
	result.Success = result.HasIndexHTML
	if !result.Success {
		return result, issue.NewErrorContext().
			WithOperation("build overlay").
			WithResource(p.Name).
			WithSuggestion("Run the build command manually from the webview project to inspect its output").
			WithIssue(issue.WebviewOutputMissingId).
			Wrap(fmt.Errorf("no index.html in %s", outDir)).
			BuildError()
	}
	return result, nil
}

// writeScaffold creates the entry files the toolchain builds from. The
// scaffold's main module does nothing but import the plugin's own UI entry.
func writeScaffold(dir, uiEntryAbs string) error {
	rel, err := filepath.Rel(dir, uiEntryAbs)
	if err != nil {
		return fmt.Errorf("resolve UI entry path: %w", err)
	}
	importPath := filepath.ToSlash(rel)
	if !strings.HasPrefix(importPath, ".") {
		importPath = "./" + importPath
	}

	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte(scaffoldIndexHTML), 0o644); err != nil {
		return fmt.Errorf("write scaffold index.html: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "reset.css"), []byte(scaffoldResetCSS), 0o644); err != nil {
		return fmt.Errorf("write scaffold reset.css: %w", err)
	}
	mainTSX := fmt.Sprintf("import \"./reset.css\";\nimport %q;\n", importPath)
	if err := os.WriteFile(filepath.Join(dir, "main.tsx"), []byte(mainTSX), 0o644); err != nil {
		return fmt.Errorf("write scaffold main.tsx: %w", err)
	}
	return nil
}

// lastLines returns the trailing n non-empty lines of s, for error messages.
func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

// SPDX-License-Identifier: MPL-2.0

// Package bundler transpiles a plugin's script sources into runnable
// JavaScript and copies its remaining assets into the output tree.
//
// Each script source becomes exactly one output file at the same relative
// path with a .js extension. Paths with a "server" segment are built for the
// Node server runtime, everything else for the in-game browser runtime. UI
// sources under ui/ are excluded here; the webview builder owns them.
package bundler

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/evanw/esbuild/pkg/api"

	"cfxforge-cli/internal/fsutil"
	"cfxforge-cli/pkg/pluginfile"
)

// externals are import specifiers left unresolved in bundles. The game
// runtime provides them at load time.
var externals = []string{"@citizenfx/*"}

type fileAction int

const (
	actionBundle fileAction = iota
	actionCopy
	actionSkip
)

type (
	// Options configure a Bundler.
	Options struct {
		// Force rebuilds every file even when the output is newer than the
		// source.
		Force bool
	}

	// Bundler writes one plugin's runnable output tree.
	Bundler struct {
		force  bool
		logger *log.Logger
	}

	// Result counts what a plugin bundle run did.
	Result struct {
		Bundled int
		Copied  int
		Skipped int
	}

	// FileError is a failure bundling or copying a single source file. The
	// rest of the plugin's files are still processed.
	FileError struct {
		File  string
		Cause error
	}
)

func (e *FileError) Error() string {
	return fmt.Sprintf("bundle %s: %v", e.File, e.Cause)
}

func (e *FileError) Unwrap() error { return e.Cause }

// New creates a Bundler logging through the given logger.
func New(logger *log.Logger, opts Options) *Bundler {
	return &Bundler{force: opts.Force, logger: logger}
}

// BundlePlugin processes every source file of the plugin into outDir.
// Per-file failures are collected and joined; a failing file never stops the
// remaining files from being processed.
func (b *Bundler) BundlePlugin(ctx context.Context, p *pluginfile.Plugin, outDir string) (*Result, error) {
	res := &Result{}
	var errs []error

	for _, file := range p.Files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		switch actionFor(file) {
		case actionSkip:
			continue
		case actionBundle:
			done, err := b.bundleScript(file, outDir)
			if err != nil {
				errs = append(errs, &FileError{File: file.RelPath, Cause: err})
				continue
			}
			if done {
				res.Bundled++
			} else {
				res.Skipped++
			}
		case actionCopy:
			done, err := b.copyAsset(file, outDir)
			if err != nil {
				errs = append(errs, &FileError{File: file.RelPath, Cause: err})
				continue
			}
			if done {
				res.Copied++
			} else {
				res.Skipped++
			}
		}
	}

	if len(errs) > 0 {
		return res, errors.Join(errs...)
	}
	return res, nil
}

// actionFor decides how one plugin file is handled.
func actionFor(f pluginfile.PluginFile) fileAction {
	switch {
	case f.IsDescriptor:
		return actionSkip
	case f.RelPath == pluginfile.ManifestFileName:
		// The manifest is always generated, never carried over from source.
		return actionSkip
	case strings.HasPrefix(f.RelPath, "ui/"):
		return actionSkip
	case strings.HasSuffix(f.RelPath, ".d.ts"):
		return actionSkip
	case pluginfile.IsScriptSource(f.RelPath):
		return actionBundle
	default:
		return actionCopy
	}
}

// bundleScript transpiles one script source into its .js output. Returns
// false when the existing output is already newer than the source.
func (b *Bundler) bundleScript(f pluginfile.PluginFile, outDir string) (bool, error) {
	outPath := filepath.Join(outDir, filepath.FromSlash(pluginfile.OutputScriptPath(f.RelPath)))
	if !b.force && fsutil.FileExists(outPath) && fsutil.Newer(outPath, f.AbsPath) {
		b.logger.Debug("output up to date", "file", f.RelPath)
		return false, nil
	}
	if err := fsutil.EnsureParent(outPath); err != nil {
		return false, err
	}

	opts := api.BuildOptions{
		EntryPoints: []string{f.AbsPath},
		Outfile:     outPath,
		Bundle:      true,
		Write:       true,
		External:    externals,
		Target:      api.ES2021,
		LogLevel:    api.LogLevelSilent,
	}
	if pluginfile.IsServerPath(f.RelPath) {
		opts.Platform = api.PlatformNode
		opts.Format = api.FormatCommonJS
	} else {
		opts.Platform = api.PlatformBrowser
		opts.Format = api.FormatIIFE
	}

	result := api.Build(opts)
	if len(result.Errors) > 0 {
		return false, buildError(result.Errors)
	}
	b.logger.Debug("bundled", "file", f.RelPath)
	return true, nil
}

// copyAsset mirrors a non-script file into the output tree. Returns false
// when the existing copy is already newer than the source.
func (b *Bundler) copyAsset(f pluginfile.PluginFile, outDir string) (bool, error) {
	outPath := filepath.Join(outDir, filepath.FromSlash(f.RelPath))
	if !b.force && fsutil.FileExists(outPath) && fsutil.Newer(outPath, f.AbsPath) {
		return false, nil
	}
	if err := fsutil.CopyFile(f.AbsPath, outPath); err != nil {
		return false, err
	}
	b.logger.Debug("copied", "file", f.RelPath)
	return true, nil
}

// buildError flattens esbuild diagnostics into one error value.
func buildError(msgs []api.Message) error {
	var sb strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			sb.WriteString("; ")
		}
		if msg.Location != nil {
			fmt.Fprintf(&sb, "%s:%d: ", msg.Location.File, msg.Location.Line)
		}
		sb.WriteString(msg.Text)
	}
	return errors.New(sb.String())
}

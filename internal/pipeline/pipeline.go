// SPDX-License-Identifier: MPL-2.0

// Package pipeline orchestrates a full content build: discover plugins,
// bundle their scripts, build overlays, write manifests and index the
// resulting resources.
//
// Stages run sequentially and a stage error aborts the run. Inside the
// plugins stage the granularity is finer: one plugin failing is recorded and
// the remaining plugins still build, surfaced afterwards as a
// PartialFailureError.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"cfxforge-cli/internal/bundler"
	"cfxforge-cli/internal/config"
	"cfxforge-cli/internal/discovery"
	"cfxforge-cli/internal/fsutil"
	"cfxforge-cli/internal/issue"
	"cfxforge-cli/internal/manifest"
	"cfxforge-cli/internal/reload"
	"cfxforge-cli/internal/toolrunner"
	"cfxforge-cli/internal/webview"
	"cfxforge-cli/pkg/pluginfile"
)

type (
	// Options select what a run does beyond the plain build.
	Options struct {
		// Clean removes the distribution tree before building.
		Clean bool
		// Force rebuilds outputs that are already up to date.
		Force bool
		// SkipWebview skips overlay builds entirely.
		SkipWebview bool
		// Plugin restricts the run to the named plugin. Empty builds all.
		Plugin string
	}

	// Summary reports what a run produced.
	Summary struct {
		BuildID     string
		Built       []string
		Failed      []PluginFailure
		Diagnostics []discovery.Diagnostic
		Resources   []reload.Resource
		Duration    time.Duration
	}

	// Orchestrator wires the build components together for one project.
	Orchestrator struct {
		cfg    *config.Config
		opts   Options
		logger *log.Logger

		pluginsDir string
		coreDir    string
		distDir    string

		bundler *bundler.Bundler
		webview *webview.Builder
	}

	stage struct {
		name string
		run  func(ctx context.Context, sum *Summary) error
	}
)

// New creates an Orchestrator for the project rooted at rootDir. Relative
// configured paths resolve against rootDir.
func New(cfg *config.Config, rootDir string, logger *log.Logger, opts Options) *Orchestrator {
	resolve := func(p string) string {
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Join(rootDir, p)
	}
	webviewDir := resolve(cfg.Paths.Webview)

	return &Orchestrator{
		cfg:        cfg,
		opts:       opts,
		logger:     logger,
		pluginsDir: resolve(cfg.Paths.Plugins),
		coreDir:    resolve(cfg.Paths.Core),
		distDir:    resolve(cfg.Paths.Dist),
		bundler:    bundler.New(logger, bundler.Options{Force: opts.Force}),
		webview: webview.NewBuilder(
			toolrunner.ForMode(cfg.Webview.Runner),
			webviewDir,
			cfg.Webview.BuildCommand,
			logger,
		),
	}
}

// DistDir returns the resolved distribution root.
func (o *Orchestrator) DistDir() string { return o.distDir }

// PluginsDir returns the resolved plugins root.
func (o *Orchestrator) PluginsDir() string { return o.pluginsDir }

// CoreDir returns the resolved core scripts directory.
func (o *Orchestrator) CoreDir() string { return o.coreDir }

// Run executes a full build. The returned Summary is valid even on error.
func (o *Orchestrator) Run(ctx context.Context) (*Summary, error) {
	sum := &Summary{BuildID: uuid.NewString()}
	start := time.Now()
	o.logger.Info("build started", "build_id", sum.BuildID)

	stages := []stage{
		{"clean", o.cleanStage},
		{"core", o.coreStage},
		{"plugins", o.pluginsStage},
		{"register", o.registerStage},
	}
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		if err := st.run(ctx, sum); err != nil {
			return sum, fmt.Errorf("stage %s: %w", st.name, err)
		}
	}

	sum.Duration = time.Since(start)
	o.logger.Info("build finished",
		"build_id", sum.BuildID,
		"built", len(sum.Built),
		"failed", len(sum.Failed),
		"duration", sum.Duration)

	if len(sum.Failed) > 0 {
		return sum, &PartialFailureError{Failures: sum.Failed}
	}
	return sum, nil
}

// RebuildPlugin rebuilds the single plugin rooted at dir. Used by the watch
// loop, which already knows the owning directory of a change.
func (o *Orchestrator) RebuildPlugin(ctx context.Context, dir string) (*pluginfile.Plugin, error) {
	disc, err := discovery.New(o.pluginsDir)
	if err != nil {
		return nil, err
	}
	p, err := disc.FindByDir(dir)
	if err != nil {
		return nil, err
	}
	if err := o.buildPlugin(ctx, p); err != nil {
		return p, err
	}
	return p, nil
}

// RebuildCore rebuilds the core resource. Used by the watch loop on core
// source changes.
func (o *Orchestrator) RebuildCore(ctx context.Context) error {
	sum := &Summary{}
	return o.coreStage(ctx, sum)
}

func (o *Orchestrator) cleanStage(_ context.Context, _ *Summary) error {
	if o.opts.Clean {
		o.logger.Debug("removing distribution tree", "dir", o.distDir)
		if err := os.RemoveAll(o.distDir); err != nil {
			return fmt.Errorf("clean %s: %w", o.distDir, err)
		}
	}
	return fsutil.EnsureDir(o.distDir)
}

// coreStage builds the core scripts directory as one resource. The core is
// optional, but when present it must build; a broken core aborts the run
// because every plugin depends on it at runtime.
func (o *Orchestrator) coreStage(ctx context.Context, sum *Summary) error {
	if !fsutil.DirExists(o.coreDir) {
		return nil
	}

	if !fsutil.FileExists(filepath.Join(o.coreDir, pluginfile.DescriptorFileName)) {
		// No descriptor: the core is prebuilt content, mirrored verbatim.
		return fsutil.CopyDir(o.coreDir, filepath.Join(o.distDir, filepath.Base(o.coreDir)))
	}

	p, err := pluginfile.Load(filepath.Dir(o.coreDir), o.coreDir)
	if err != nil {
		return fmt.Errorf("core resource: %w", err)
	}
	outDir := filepath.Join(o.distDir, p.Name)
	if err := o.buildInto(ctx, p, outDir); err != nil {
		return fmt.Errorf("core resource %s: %w", p.Name, err)
	}
	sum.Built = append(sum.Built, p.Name)
	return nil
}

func (o *Orchestrator) pluginsStage(ctx context.Context, sum *Summary) error {
	disc, err := discovery.New(o.pluginsDir)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("discover plugins").
			WithResource(o.pluginsDir).
			WithSuggestion("Check the paths.plugins setting in your config").
			WithSuggestion("Run from the project root, or pass an absolute plugins path").
			WithIssue(issue.PluginsRootNotFoundId).
			Wrap(err).
			BuildError()
	}

	res, err := disc.Discover(ctx)
	if err != nil {
		return err
	}
	sum.Diagnostics = append(sum.Diagnostics, res.Diagnostics...)
	for _, diag := range res.Diagnostics {
		o.logger.Warn(diag.Message, "path", diag.Path)
	}

	plugins := res.Plugins
	if o.opts.Plugin != "" {
		plugins = nil
		for _, p := range res.Plugins {
			if p.Name == o.opts.Plugin {
				plugins = append(plugins, p)
			}
		}
		if len(plugins) == 0 {
			return fmt.Errorf("plugin %q not found under %s", o.opts.Plugin, o.pluginsDir)
		}
	}

	for _, p := range plugins {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := o.buildPlugin(ctx, p); err != nil {
			o.logger.Error("plugin build failed", "plugin", p.Name, "err", err)
			sum.Failed = append(sum.Failed, PluginFailure{Plugin: p.Name, Err: err})
			continue
		}
		sum.Built = append(sum.Built, p.Name)
	}
	return nil
}

func (o *Orchestrator) registerStage(_ context.Context, sum *Summary) error {
	reg, err := reload.ScanRegistry(o.distDir)
	if err != nil {
		return err
	}
	sum.Resources = reg.Resources()
	return nil
}

// buildPlugin builds one plugin into its mirrored output directory.
func (o *Orchestrator) buildPlugin(ctx context.Context, p *pluginfile.Plugin) error {
	outDir := filepath.Join(o.distDir, filepath.FromSlash(pluginfile.OutputRelPath(p.RelPath)))
	return o.buildInto(ctx, p, outDir)
}

// buildInto runs the per-plugin steps in order: scripts, overlay, manifest.
// The manifest is written last so a manifest on disk always describes
// outputs that exist.
func (o *Orchestrator) buildInto(ctx context.Context, p *pluginfile.Plugin, outDir string) error {
	res, err := o.bundler.BundlePlugin(ctx, p, outDir)
	if err != nil {
		return err
	}
	o.logger.Debug("scripts processed",
		"plugin", p.Name, "bundled", res.Bundled, "copied", res.Copied, "skipped", res.Skipped)

	if p.HasUI && !o.opts.SkipWebview {
		// The compiled overlay lives in html/, the directory ui_page values
		// reference (e.g. "html/index.html"). The ui/ name is source-side only.
		htmlOut := filepath.Join(outDir, "html")
		if _, err := o.webview.Build(ctx, p, htmlOut); err != nil {
			return err
		}
	}

	return manifest.Write(p.Descriptor, outDir)
}

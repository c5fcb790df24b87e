// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"cfxforge-cli/internal/discovery"
	"cfxforge-cli/internal/fsutil"
	"cfxforge-cli/internal/pipeline"
	"cfxforge-cli/internal/reload"
	"cfxforge-cli/internal/watch"
	"cfxforge-cli/pkg/pluginfile"
	"cfxforge-cli/pkg/types"
)

var (
	watchDebounce    string
	watchNoReload    bool
	watchClear       bool
	watchSkipWebview bool

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Rebuild plugins on change and hot-reload them",
		Long: `Run a full build, then watch the plugin and core sources.

Changes are debounced per plugin: a burst of saves triggers one rebuild
of the owning plugin only. When live reload is enabled in the config,
the rebuilt resource is restarted on the running server.`,
		RunE: runWatch,
	}
)

func init() {
	watchCmd.Flags().StringVar(&watchDebounce, "debounce", "", "settle delay before rebuilding (e.g. 300ms), overrides config")
	watchCmd.Flags().BoolVar(&watchNoReload, "no-reload", false, "do not notify the server after rebuilds")
	watchCmd.Flags().BoolVar(&watchClear, "clear", false, "clear the terminal before each rebuild")
	watchCmd.Flags().BoolVar(&watchSkipWebview, "skip-webview", false, "skip webview overlay builds")
}

func runWatch(cmd *cobra.Command, _ []string) error {
	app, err := newApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
		return &ExitError{Code: types.ExitFailure, Err: err}
	}

	debounce := app.Config.DebounceDuration()
	if watchDebounce != "" {
		d, parseErr := time.ParseDuration(watchDebounce)
		if parseErr != nil {
			return &ExitError{Code: types.ExitFailure, Err: fmt.Errorf("--debounce: %w", parseErr)}
		}
		debounce = d
	}

	o := app.orchestrator(pipeline.Options{SkipWebview: watchSkipWebview})

	// Initial build. Plugin failures do not stop the watch; the broken
	// plugin rebuilds as soon as its sources are fixed.
	sum, err := o.Run(cmd.Context())
	printSummary(sum)
	if err != nil {
		var partial *pipeline.PartialFailureError
		if !errors.As(err, &partial) {
			fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
			return &ExitError{Code: types.ExitFailure, Err: err}
		}
		for _, f := range partial.Failures {
			fmt.Fprintln(os.Stderr, WarningStyle.Render("⚠ ")+ResourceStyle.Render(f.Plugin)+": "+formatErrorForDisplay(f.Err, verbose))
		}
	}

	disc, err := discovery.New(o.PluginsDir())
	if err != nil {
		return &ExitError{Code: types.ExitFailure, Err: err}
	}

	var client *reload.Client
	if app.Config.Reload.Enabled && !watchNoReload {
		if client, err = app.reloadClient(); err != nil {
			return &ExitError{Code: types.ExitFailure, Err: err}
		}
		app.Logger.Info("live reload enabled",
			"host", app.Config.Reload.Host, "port", app.Config.Reload.Port)
	}

	coreRoot := ""
	if fsutil.DirExists(o.CoreDir()) {
		coreRoot = o.CoreDir()
	}

	w, err := watch.New(watch.Config{
		PluginsRoot: o.PluginsDir(),
		CoreRoot:    coreRoot,
		Extensions:  app.Config.Watch.Extensions,
		Debounce:    debounce,
		ClearScreen: watchClear,
		OwnerDir:    disc.OwnerDir,
		OnPlugin: func(ctx context.Context, dir string, changed []string) error {
			return rebuildPlugin(ctx, app, o, client, dir, changed)
		},
		OnCore: func(ctx context.Context, changed []string) error {
			return rebuildCore(ctx, app, o, client, changed)
		},
	})
	if err != nil {
		return &ExitError{Code: types.ExitFailure, Err: err}
	}

	fmt.Println(SubtitleStyle.Render("Watching for changes. Press Ctrl-C to stop."))
	if err := w.Run(cmd.Context()); err != nil {
		return &ExitError{Code: types.ExitFailure, Err: err}
	}
	return nil
}

func rebuildPlugin(ctx context.Context, app *App, o *pipeline.Orchestrator, client *reload.Client, dir string, changed []string) error {
	app.Logger.Info("sources changed", "plugin", filepath.Base(dir), "files", len(changed))

	p, err := o.RebuildPlugin(ctx, dir)
	if err != nil {
		name := filepath.Base(dir)
		if p != nil {
			name = p.Name
		}
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("✗ ")+ResourceStyle.Render(name)+": "+err.Error())
		return nil
	}
	fmt.Println(SuccessStyle.Render("✓ ") + ResourceStyle.Render(p.Name) + SubtitleStyle.Render(" rebuilt"))

	// The server resolves resources by output directory name, which can
	// differ from the descriptor name.
	notify(ctx, app, client, p.ResourceName())
	return nil
}

func rebuildCore(ctx context.Context, app *App, o *pipeline.Orchestrator, client *reload.Client, changed []string) error {
	app.Logger.Info("core sources changed", "files", len(changed))

	if err := o.RebuildCore(ctx); err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("✗ core: ")+err.Error())
		return nil
	}
	fmt.Println(SuccessStyle.Render("✓ ") + ResourceStyle.Render("core") + SubtitleStyle.Render(" rebuilt"))

	// The core builds as a named resource only when it carries a descriptor.
	if desc, err := pluginfile.ParseFile(filepath.Join(o.CoreDir(), pluginfile.DescriptorFileName)); err == nil {
		notify(ctx, app, client, desc.Name)
	}
	return nil
}

// notify asks the server to restart a resource. Reload failures are
// reported but never stop the watch loop; the server may simply be down.
func notify(ctx context.Context, app *App, client *reload.Client, resource string) {
	if client == nil {
		return
	}
	if err := client.Restart(ctx, resource); err != nil {
		fmt.Fprintln(os.Stderr, WarningStyle.Render("⚠ reload: ")+err.Error())
		return
	}
	fmt.Println(SubtitleStyle.Render("↻ restarted ") + ResourceStyle.Render(resource))
}

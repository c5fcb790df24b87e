// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"cfxforge-cli/internal/config"
	"cfxforge-cli/pkg/types"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage cfxforge configuration",
	Long: `Manage cfxforge configuration.

Configuration is stored in:
  - Linux: ~/.config/cfxforge/config.cue
  - macOS: ~/Library/Application Support/cfxforge/config.cue
  - Windows: %APPDATA%\cfxforge\config.cue

A config.cue in the current directory takes precedence. Any setting can
be overridden with CFXFORGE_* environment variables, e.g.
CFXFORGE_PATHS_DIST or CFXFORGE_WATCH_DEBOUNCE.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

func init() {
	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
				return &ExitError{Code: types.ExitFailure, Err: err}
			}
			printConfig(cfg)
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		RunE: func(_ *cobra.Command, _ []string) error {
			path, err := config.ResolvedPath()
			if err != nil {
				return &ExitError{Code: types.ExitFailure, Err: err}
			}
			fmt.Println(path)
			return nil
		},
	})
}

func printConfig(cfg *config.Config) {
	section := func(name string) { fmt.Println(TitleStyle.Render(name)) }
	entry := func(key, value string) { fmt.Printf("  %s: %s\n", SubtitleStyle.Render(key), value) }

	section("paths")
	entry("plugins", cfg.Paths.Plugins)
	entry("core", cfg.Paths.Core)
	entry("dist", cfg.Paths.Dist)
	entry("webview", cfg.Paths.Webview)

	section("watch")
	entry("debounce", cfg.Watch.Debounce)
	entry("extensions", strings.Join(cfg.Watch.Extensions, " "))

	section("reload")
	entry("enabled", fmt.Sprintf("%t", cfg.Reload.Enabled))
	entry("host", cfg.Reload.Host)
	entry("port", fmt.Sprintf("%d", cfg.Reload.Port))
	if cfg.Reload.APIKey != "" {
		entry("api_key", "(set)")
	}

	section("webview")
	entry("build_command", cfg.Webview.BuildCommand)
	entry("runner", string(cfg.Webview.Runner))
}

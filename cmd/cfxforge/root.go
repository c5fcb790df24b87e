// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for cfxforge.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"cfxforge-cli/internal/config"
	"cfxforge-cli/internal/issue"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables verbose output
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "cfxforge",
		Short: "A build pipeline for game server content",
		Long: TitleStyle.Render("cfxforge") + SubtitleStyle.Render(" - A build pipeline for game server content") + `

cfxforge turns a tree of source plugins into deployable server resources:
it bundles TypeScript into runnable JavaScript, builds webview overlays,
generates resource manifests, and can watch sources to rebuild and
hot-reload resources on a running server.

Plugins are directories containing a plugin.json descriptor under the
plugins root, optionally grouped in category directories like [gameplay].

` + SubtitleStyle.Render("Quick Start:") + `
  1. Put plugins under src/plugins, each with a plugin.json
  2. Run a full build with: cfxforge build
  3. Iterate with: cfxforge watch

` + SubtitleStyle.Render("Examples:") + `
  cfxforge build               Build every plugin into the dist tree
  cfxforge build --plugin hud  Build a single plugin
  cfxforge watch               Rebuild on change and notify the server
  cfxforge restart garage      Ask the server to restart one resource
  cfxforge config show         Show current configuration`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/cfxforge/config.cue)")

	// Add subcommands
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(restartCmd)
	rootCmd.AddCommand(configCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(1)
	}
}

// initRootConfig applies the --config override before any command loads
// configuration.
func initRootConfig() {
	if cfgFile != "" {
		config.SetConfigFilePathOverride(cfgFile)
	}
}

// formatErrorForDisplay formats an error for user display. ActionableErrors
// render their suggestions plus any linked known-issue page; verbose mode
// shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		return err.Error()
	}
	msg := ae.Format(verboseMode)
	if page := renderKnownIssue(ae.IssueID); page != "" {
		msg += "\n" + page
	}
	return msg
}

// renderKnownIssue renders the catalog page for id, or "" when the id is
// unset, unknown, or rendering fails. A failed render never hides the error
// it was meant to explain.
func renderKnownIssue(id issue.Id) string {
	if id == 0 {
		return ""
	}
	entry := issue.Lookup(id)
	if entry == nil {
		return ""
	}
	rendered, err := entry.Render("dark")
	if err != nil {
		return ""
	}
	return rendered
}

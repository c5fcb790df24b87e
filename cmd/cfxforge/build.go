// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"cfxforge-cli/internal/pipeline"
	"cfxforge-cli/pkg/types"
)

var (
	buildClean       bool
	buildForce       bool
	buildPlugin      string
	buildSkipWebview bool

	buildCmd = &cobra.Command{
		Use:   "build",
		Short: "Build plugins into deployable resources",
		Long: `Build every plugin under the plugins root into the dist tree.

Scripts are bundled to JavaScript, webview overlays are built with the
shared frontend toolchain, and each resource gets a generated manifest.
A plugin that fails to build is reported and skipped; the rest of the
run continues and the command exits with status 2.`,
		RunE: runBuild,
	}
)

func init() {
	buildCmd.Flags().BoolVar(&buildClean, "clean", false, "remove the dist tree before building")
	buildCmd.Flags().BoolVar(&buildForce, "force", false, "rebuild outputs that are already up to date")
	buildCmd.Flags().StringVar(&buildPlugin, "plugin", "", "build only the named plugin")
	buildCmd.Flags().BoolVar(&buildSkipWebview, "skip-webview", false, "skip webview overlay builds")
}

func runBuild(cmd *cobra.Command, _ []string) error {
	app, err := newApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
		return &ExitError{Code: types.ExitFailure, Err: err}
	}

	o := app.orchestrator(pipeline.Options{
		Clean:       buildClean,
		Force:       buildForce,
		Plugin:      buildPlugin,
		SkipWebview: buildSkipWebview,
	})

	sum, err := o.Run(cmd.Context())
	printSummary(sum)

	if err != nil {
		var partial *pipeline.PartialFailureError
		if errors.As(err, &partial) {
			for _, f := range partial.Failures {
				fmt.Fprintln(os.Stderr, ErrorStyle.Render("✗ ")+ResourceStyle.Render(f.Plugin)+": "+formatErrorForDisplay(f.Err, verbose))
			}
			return &ExitError{Code: types.ExitPartial, Err: err}
		}
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
		return &ExitError{Code: types.ExitFailure, Err: err}
	}
	return nil
}

func printSummary(sum *pipeline.Summary) {
	if sum == nil {
		return
	}
	for _, name := range sum.Built {
		fmt.Println(SuccessStyle.Render("✓ ") + ResourceStyle.Render(name))
	}
	if len(sum.Built) > 0 {
		fmt.Println(SubtitleStyle.Render(fmt.Sprintf("%d resource(s) built in %s", len(sum.Built), sum.Duration.Round(time.Millisecond))))
	}
}

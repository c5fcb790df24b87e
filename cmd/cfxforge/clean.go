// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cfxforge-cli/internal/pipeline"
	"cfxforge-cli/pkg/types"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the dist tree",
	RunE: func(_ *cobra.Command, _ []string) error {
		app, err := newApp()
		if err != nil {
			fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
			return &ExitError{Code: types.ExitFailure, Err: err}
		}

		dist := app.orchestrator(pipeline.Options{}).DistDir()
		if err := os.RemoveAll(dist); err != nil {
			return &ExitError{Code: types.ExitFailure, Err: fmt.Errorf("clean %s: %w", dist, err)}
		}
		fmt.Println(SuccessStyle.Render("✓ ") + SubtitleStyle.Render("removed ") + dist)
		return nil
	},
}

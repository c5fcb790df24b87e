// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cfxforge-cli/internal/pipeline"
	"cfxforge-cli/internal/reload"
	"cfxforge-cli/pkg/types"
)

var restartCmd = &cobra.Command{
	Use:   "restart <resource>",
	Short: "Ask the running server to restart a resource",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
			return &ExitError{Code: types.ExitFailure, Err: err}
		}

		client, err := app.reloadClient()
		if err != nil {
			return &ExitError{Code: types.ExitFailure, Err: err}
		}

		name := args[0]
		// Warn when the resource is not in the dist tree; the server may
		// still know it from another deployment.
		dist := app.orchestrator(pipeline.Options{}).DistDir()
		if reg, regErr := reload.ScanRegistry(dist); regErr == nil {
			if _, ok := reg.Lookup(name); !ok {
				fmt.Fprintln(os.Stderr, WarningStyle.Render("⚠ ")+ResourceStyle.Render(name)+" is not in "+dist)
			}
		}

		if err := client.Restart(cmd.Context(), name); err != nil {
			return &ExitError{Code: types.ExitFailure, Err: err}
		}
		fmt.Println(SubtitleStyle.Render("↻ restarted ") + ResourceStyle.Render(name))
		return nil
	},
}

// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"cfxforge-cli/internal/config"
	"cfxforge-cli/internal/pipeline"
	"cfxforge-cli/internal/reload"
	"cfxforge-cli/pkg/types"
)

// App bundles the loaded configuration with the shared logger. Commands
// construct one App per invocation; nothing here is cached across runs.
type App struct {
	Config  *config.Config
	Logger  *log.Logger
	RootDir string
}

// newApp loads configuration and prepares the logger. The project root is
// the current working directory; configured relative paths resolve against
// it.
func newApp() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	root, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("determine working directory: %w", err)
	}

	level := log.InfoLevel
	if verbose || cfg.UI.Verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           level,
		Prefix:          "cfxforge",
	})

	return &App{Config: cfg, Logger: logger, RootDir: root}, nil
}

// orchestrator creates a build pipeline for this project.
func (a *App) orchestrator(opts pipeline.Options) *pipeline.Orchestrator {
	return pipeline.New(a.Config, a.RootDir, a.Logger, opts)
}

// reloadClient creates a client for the configured reload endpoint.
func (a *App) reloadClient() (*reload.Client, error) {
	port := types.ListenPort(a.Config.Reload.Port)
	if err := port.Validate(); err != nil {
		return nil, fmt.Errorf("reload.port: %w", err)
	}
	return reload.NewClient(a.Config.Reload.Host, port, a.Config.Reload.APIKey), nil
}

// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"time"

	"cfxforge-cli/pkg/types"
)

const (
	// RunnerNative runs the frontend build through the host system shell.
	RunnerNative RunnerMode = "native"
	// RunnerVirtual runs the frontend build through the embedded POSIX
	// interpreter (mvdan/sh), independent of the host shell.
	RunnerVirtual RunnerMode = "virtual"
)

var (
	// ErrInvalidRunnerMode is returned when a RunnerMode value is not recognized.
	ErrInvalidRunnerMode = errors.New("invalid runner mode")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// RunnerMode selects how the webview build command is executed.
	RunnerMode string

	// InvalidRunnerModeError is returned when a RunnerMode value is not
	// recognized. It wraps ErrInvalidRunnerMode for errors.Is() compatibility.
	InvalidRunnerModeError struct {
		Value RunnerMode
	}

	// InvalidConfigError collects field-level validation errors for a Config.
	// It wraps ErrInvalidConfig for errors.Is() compatibility.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// PathsConfig holds the directory roots the pipeline operates on. All
	// paths are relative to the project root unless absolute.
	PathsConfig struct {
		// Plugins is the plugins source root searched for plugin.json markers.
		Plugins string `mapstructure:"plugins"`
		// Core is the core runtime scripts directory, built as one resource.
		Core string `mapstructure:"core"`
		// Dist is the distribution root the build writes into.
		Dist string `mapstructure:"dist"`
		// Webview is the directory holding the shared frontend toolchain
		// (package.json, vite config) used for webview builds.
		Webview string `mapstructure:"webview"`
	}

	// WatchConfig holds file-watching parameters.
	WatchConfig struct {
		// Debounce is the settle delay before a change burst triggers a
		// rebuild, as a Go duration string (e.g. "300ms").
		Debounce string `mapstructure:"debounce"`
		// Extensions is the source-extension allow list; events for other
		// extensions never trigger rebuilds.
		Extensions []string `mapstructure:"extensions"`
	}

	// ReloadConfig holds the live reload server connection parameters.
	ReloadConfig struct {
		Enabled bool   `mapstructure:"enabled"`
		Host    string `mapstructure:"host"`
		Port    int    `mapstructure:"port"`
		APIKey  string `mapstructure:"api_key"`
	}

	// WebviewConfig holds frontend build invocation parameters.
	WebviewConfig struct {
		// BuildCommand is the shell command executed per webview build. The
		// {outdir} placeholder is replaced with the plugin's html output dir.
		BuildCommand string `mapstructure:"build_command"`
		// Runner selects native or virtual command execution.
		Runner RunnerMode `mapstructure:"runner"`
	}

	// UIConfig holds CLI output preferences.
	UIConfig struct {
		Verbose bool `mapstructure:"verbose"`
	}

	// Config is the merged tool configuration: defaults, then the CUE config
	// file, then CFXFORGE_* environment variables, then flags.
	Config struct {
		Paths   PathsConfig   `mapstructure:"paths"`
		Watch   WatchConfig   `mapstructure:"watch"`
		Reload  ReloadConfig  `mapstructure:"reload"`
		Webview WebviewConfig `mapstructure:"webview"`
		UI      UIConfig      `mapstructure:"ui"`
	}
)

// DefaultConfig returns the built-in configuration used when no config file
// or environment overrides are present.
func DefaultConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			Plugins: "src/plugins",
			Core:    "src/core",
			Dist:    "dist/resources",
			Webview: "src/webview",
		},
		Watch: WatchConfig{
			Debounce:   "300ms",
			Extensions: []string{".ts", ".tsx", ".js", ".jsx", ".css", ".json", ".lua", ".meta"},
		},
		Reload: ReloadConfig{
			Enabled: false,
			Host:    "127.0.0.1",
			Port:    30121,
		},
		Webview: WebviewConfig{
			BuildCommand: "npx vite build --base ./ --outDir {outdir} --emptyOutDir",
			Runner:       RunnerNative,
		},
		UI: UIConfig{},
	}
}

// Validate returns an error if any RunnerMode value is not recognized.
func (m RunnerMode) Validate() error {
	switch m {
	case RunnerNative, RunnerVirtual:
		return nil
	default:
		return &InvalidRunnerModeError{Value: m}
	}
}

// Error implements the error interface for InvalidRunnerModeError.
func (e *InvalidRunnerModeError) Error() string {
	return fmt.Sprintf("invalid runner mode %q: must be %q or %q", e.Value, RunnerNative, RunnerVirtual)
}

// Unwrap returns ErrInvalidRunnerMode for errors.Is() compatibility.
func (e *InvalidRunnerModeError) Unwrap() error { return ErrInvalidRunnerMode }

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %v", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// Validate checks constraints the CUE schema cannot express against the
// merged configuration (env vars bypass the schema).
func (c *Config) Validate() error {
	var errs []error

	if err := c.Webview.Runner.Validate(); err != nil {
		errs = append(errs, err)
	}
	if _, err := time.ParseDuration(c.Watch.Debounce); err != nil {
		errs = append(errs, fmt.Errorf("watch.debounce: %w", err))
	}
	if err := types.FilesystemPath(c.Paths.Plugins).Validate(); err != nil {
		errs = append(errs, fmt.Errorf("paths.plugins: %w", err))
	}
	if err := types.FilesystemPath(c.Paths.Dist).Validate(); err != nil {
		errs = append(errs, fmt.Errorf("paths.dist: %w", err))
	}
	if c.Reload.Enabled {
		if c.Reload.Host == "" {
			errs = append(errs, fmt.Errorf("reload.host is required when reload is enabled"))
		}
		if err := types.ListenPort(c.Reload.Port).Validate(); err != nil {
			errs = append(errs, fmt.Errorf("reload.port: %w", err))
		}
	}

	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// DebounceDuration returns the parsed watch debounce. Call Validate first;
// an unparsable value falls back to the default.
func (c *Config) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return 300 * time.Millisecond
	}
	return d
}

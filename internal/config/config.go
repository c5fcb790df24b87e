// SPDX-License-Identifier: MPL-2.0

package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"cfxforge-cli/internal/issue"

	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "cfxforge"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix is the prefix for environment overrides (CFXFORGE_PATHS_DIST etc.).
	EnvPrefix = "CFXFORGE"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the cfxforge configuration directory using
// platform-specific conventions: Windows uses %APPDATA%, macOS uses
// ~/Library/Application Support, and Linux/others use $XDG_CONFIG_HOME
// (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	// Allow tests to override the config directory
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// Load reads the merged configuration: defaults, then the config file
// (explicit override path, the config dir, or the current directory), then
// CFXFORGE_* environment variables.
func Load() (*Config, error) {
	cfg, _, err := loadWithOptions(LoadOptions{ConfigFilePath: configFilePathOverride})
	return cfg, err
}

// ResolvedPath returns the path of the config file that would be loaded, or
// "" when only defaults apply.
func ResolvedPath() (string, error) {
	_, path, err := loadWithOptions(LoadOptions{ConfigFilePath: configFilePathOverride})
	return path, err
}

// loadWithOptions performs option-driven config loading without mutating
// package globals.
func loadWithOptions(opts LoadOptions) (*Config, string, error) {
	v := viper.New()

	// Set defaults
	defaults := DefaultConfig()
	v.SetDefault("paths.plugins", defaults.Paths.Plugins)
	v.SetDefault("paths.core", defaults.Paths.Core)
	v.SetDefault("paths.dist", defaults.Paths.Dist)
	v.SetDefault("paths.webview", defaults.Paths.Webview)
	v.SetDefault("watch.debounce", defaults.Watch.Debounce)
	v.SetDefault("watch.extensions", defaults.Watch.Extensions)
	v.SetDefault("reload.enabled", defaults.Reload.Enabled)
	v.SetDefault("reload.host", defaults.Reload.Host)
	v.SetDefault("reload.port", defaults.Reload.Port)
	v.SetDefault("reload.api_key", defaults.Reload.APIKey)
	v.SetDefault("webview.build_command", defaults.Webview.BuildCommand)
	v.SetDefault("webview.runner", defaults.Webview.Runner)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)

	// Environment overrides: CFXFORGE_RELOAD_API_KEY → reload.api_key
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolvedPath := ""

	// If a custom config file path was given, use it exclusively.
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'cfxforge config show' to see the default configuration").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		if err := loadCUEIntoViper(v, opts.ConfigFilePath); err != nil {
			return nil, "", wrapConfigFileError(err, opts.ConfigFilePath)
		}
		resolvedPath = opts.ConfigFilePath
	} else {
		cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
		if err != nil {
			return nil, "", err
		}

		cuePath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
		localCuePath := ConfigFileName + "." + ConfigFileExt

		switch {
		case fileExists(cuePath):
			if err := loadCUEIntoViper(v, cuePath); err != nil {
				return nil, "", wrapConfigFileError(err, cuePath)
			}
			resolvedPath = cuePath
		case fileExists(localCuePath):
			if err := loadCUEIntoViper(v, localCuePath); err != nil {
				return nil, "", wrapConfigFileError(err, localCuePath)
			}
			resolvedPath = localCuePath
		}
		// No config file found: defaults only, not an error.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	// Env vars bypass the CUE schema, so re-validate the merged result.
	if err := cfg.Validate(); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Check runner is 'native' or 'virtual' and debounce is a duration like '300ms'").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(err).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

// wrapConfigFileError attaches user-facing context to a config parse failure.
func wrapConfigFileError(err error, path string) error {
	return issue.NewErrorContext().
		WithOperation("load configuration").
		WithResource(path).
		WithSuggestion("Check that the file contains valid CUE syntax").
		WithSuggestion("Verify the configuration values match the expected schema").
		WithSuggestion("See 'cfxforge config --help' for configuration options").
		WithIssue(issue.ConfigLoadFailedId).
		Wrap(err).
		BuildError()
}

// configDirWithOverride resolves the config directory, honoring an explicit
// override first.
func configDirWithOverride(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	return ConfigDir()
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}

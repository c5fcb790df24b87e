// SPDX-License-Identifier: MPL-2.0

package pluginfile

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"cfxforge-cli/pkg/types"

	"github.com/bytedance/sonic"
)

const (
	// DescriptorFileName is the marker file that makes a directory a plugin.
	DescriptorFileName = "plugin.json"

	// ManifestFileName is the generated resource manifest placed in each
	// plugin's output directory.
	ManifestFileName = "fxmanifest.lua"

	// DefaultFxVersion is the manifest fx_version emitted when the descriptor
	// does not pin one.
	DefaultFxVersion = "cerulean"

	// maxDescriptorSize bounds descriptor reads. Descriptors are small
	// metadata files; anything larger is almost certainly a mistake.
	maxDescriptorSize = 1 << 20
)

var (
	// ErrInvalidDescriptor is the sentinel error wrapped by DescriptorError.
	ErrInvalidDescriptor = errors.New("invalid plugin descriptor")

	// validOneSync enumerates accepted network-sync modes.
	validOneSync = []string{"on", "off", "legacy"}
)

type (
	// DataFile declares a game data file the runtime should load, rendered as
	// a `data_file 'TYPE' 'path'` manifest line.
	DataFile struct {
		Type string `json:"type"`
		Path string `json:"path"`
	}

	// Descriptor is the parsed plugin.json. Optional fields keep their zero
	// value when absent; the manifest generator omits them.
	Descriptor struct {
		// Name is the resource name. Required; must be a valid ResourceName.
		Name string `json:"name"`
		// Version is the plugin version string (e.g. "1.2.0").
		Version string `json:"version,omitempty"`
		// FxVersion pins the manifest fx_version. Empty means DefaultFxVersion.
		FxVersion string `json:"fx_version,omitempty"`
		// Games lists supported game identifiers (e.g. "gta5").
		Games []string `json:"games,omitempty"`
		// Author and Description are informational metadata.
		Author      string `json:"author,omitempty"`
		Description string `json:"description,omitempty"`

		// ClientScripts, ServerScripts and SharedScripts are glob patterns
		// resolved against the plugin directory.
		ClientScripts []string `json:"client_scripts,omitempty"`
		ServerScripts []string `json:"server_scripts,omitempty"`
		SharedScripts []string `json:"shared_scripts,omitempty"`

		// UIPage is the page the runtime loads as the in-game overlay,
		// relative to the plugin's output directory (e.g. "html/index.html").
		UIPage string `json:"ui_page,omitempty"`

		// Files lists static files the server streams to clients.
		Files []string `json:"files,omitempty"`
		// DataFiles declares game data file registrations.
		DataFiles []DataFile `json:"data_files,omitempty"`

		// Dependencies and Provides declare inter-resource relationships.
		Dependencies []string `json:"dependencies,omitempty"`
		Provides     []string `json:"provides,omitempty"`

		// Exports and ServerExports list exported script functions.
		Exports       []string `json:"exports,omitempty"`
		ServerExports []string `json:"server_exports,omitempty"`

		// Runtime constraints, rendered into the dependencies block as the
		// runtime's special slash-prefixed entries.
		ServerVersion string   `json:"server_version,omitempty"`
		PolicyTags    []string `json:"policy_tags,omitempty"`
		OneSync       string   `json:"onesync,omitempty"`
		Natives       []string `json:"natives,omitempty"`

		// Flags.
		ServerOnly bool   `json:"server_only,omitempty"`
		Loadscreen string `json:"loadscreen,omitempty"`
		IsMap      bool   `json:"map,omitempty"`
		Lua54      bool   `json:"lua54,omitempty"`
	}

	// DescriptorError is returned when a descriptor fails to decode or
	// validate. It wraps ErrInvalidDescriptor for errors.Is() compatibility.
	DescriptorError struct {
		Path  string
		Cause error
	}
)

// Error implements the error interface for DescriptorError.
func (e *DescriptorError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("invalid plugin descriptor %s: %v", e.Path, e.Cause)
	}
	return fmt.Sprintf("invalid plugin descriptor: %v", e.Cause)
}

// Unwrap returns the joined sentinel and cause for errors.Is/As.
func (e *DescriptorError) Unwrap() error { return errors.Join(ErrInvalidDescriptor, e.Cause) }

// Parse decodes and validates a descriptor from raw JSON bytes. The path is
// used only for error messages.
func Parse(data []byte, path string) (*Descriptor, error) {
	if len(data) > maxDescriptorSize {
		return nil, &DescriptorError{Path: path, Cause: fmt.Errorf("descriptor exceeds %d bytes", maxDescriptorSize)}
	}

	var d Descriptor
	if err := sonic.Unmarshal(data, &d); err != nil {
		return nil, &DescriptorError{Path: path, Cause: err}
	}
	if err := d.Validate(); err != nil {
		return nil, &DescriptorError{Path: path, Cause: err}
	}
	return &d, nil
}

// ParseFile reads and parses the descriptor at path.
func ParseFile(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plugin descriptor: %w", err)
	}
	return Parse(data, path)
}

// Validate checks the constraints JSON decoding cannot express: a present,
// runtime-acceptable name and a recognized network-sync mode.
func (d *Descriptor) Validate() error {
	var errs []error

	if strings.TrimSpace(d.Name) == "" {
		errs = append(errs, fmt.Errorf("name is required"))
	} else if err := types.ResourceName(d.Name).Validate(); err != nil {
		errs = append(errs, err)
	}

	if d.OneSync != "" && !contains(validOneSync, d.OneSync) {
		errs = append(errs, fmt.Errorf("onesync must be one of %v, got %q", validOneSync, d.OneSync))
	}

	for i, df := range d.DataFiles {
		if df.Type == "" || df.Path == "" {
			errs = append(errs, fmt.Errorf("data_files[%d]: both type and path are required", i))
		}
	}

	return errors.Join(errs...)
}

// ScriptPatterns returns the three categorized glob-pattern lists in
// client/server/shared order.
func (d *Descriptor) ScriptPatterns() (client, server, shared []string) {
	return d.ClientScripts, d.ServerScripts, d.SharedScripts
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

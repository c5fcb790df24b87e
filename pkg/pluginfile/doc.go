// SPDX-License-Identifier: MPL-2.0

// Package pluginfile defines the plugin descriptor file format and the
// in-memory records the build pipeline operates on.
//
// A plugin is a directory containing a plugin.json descriptor. The descriptor
// declares resource metadata (name, version, target runtime version) and glob
// patterns for the client/server/shared script lists. This package owns:
//
//   - the Descriptor schema and its JSON decoding/validation
//   - the Plugin / PluginFile / ScriptFiles records
//   - script glob resolution against a plugin directory
//   - the single source of truth for mapping source paths to output paths
//
// The output-path mapping lives here so the bundler, the manifest generator
// and the resource registry can never disagree about where a plugin's files
// land under the distribution root.
package pluginfile

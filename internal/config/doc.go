// SPDX-License-Identifier: MPL-2.0

// Package config loads the cfxforge tool configuration.
//
// Precedence, lowest to highest: built-in defaults, the config.cue file
// (explicit --config path, the platform config dir, or the current
// directory), CFXFORGE_* environment variables, and finally CLI flags
// applied by the command layer. The config file is CUE and is validated
// against an embedded schema before merging, so schema violations fail at
// load time with the offending key path.
package config

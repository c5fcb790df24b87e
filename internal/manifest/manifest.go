// SPDX-License-Identifier: MPL-2.0

// Package manifest renders a plugin descriptor into the fxmanifest.lua the
// game runtime reads from each resource directory.
//
// Output is deterministic: the same descriptor always produces the same
// bytes, fields render in a fixed order, and absent optional fields are
// omitted entirely. Script entries are rewritten to their transpiled .js
// paths so a manifest never references a TypeScript source.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cfxforge-cli/internal/fsutil"
	"cfxforge-cli/pkg/pluginfile"
)

// header marks generated manifests so hand edits are obviously futile.
const header = "-- Generated by cfxforge. Do not edit; regenerated on every build.\n"

// Generate renders the manifest for the given descriptor.
func Generate(d *pluginfile.Descriptor) string {
	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteByte('\n')

	fxVersion := d.FxVersion
	if fxVersion == "" {
		fxVersion = pluginfile.DefaultFxVersion
	}
	writeField(&sb, "fx_version", fxVersion)
	switch len(d.Games) {
	case 0:
	case 1:
		writeField(&sb, "game", d.Games[0])
	default:
		writeBlock(&sb, "games", d.Games)
	}
	sb.WriteByte('\n')

	writeField(&sb, "name", d.Name)
	writeField(&sb, "author", d.Author)
	writeField(&sb, "version", d.Version)
	writeField(&sb, "description", d.Description)

	writeField(&sb, "ui_page", d.UIPage)
	writeField(&sb, "loadscreen", d.Loadscreen)

	writeBlock(&sb, "client_scripts", rewriteAll(d.ClientScripts))
	writeBlock(&sb, "server_scripts", rewriteAll(d.ServerScripts))
	writeBlock(&sb, "shared_scripts", rewriteAll(d.SharedScripts))

	writeBlock(&sb, "files", d.Files)
	for _, df := range d.DataFiles {
		fmt.Fprintf(&sb, "data_file %s %s\n", quote(df.Type), quote(df.Path))
	}

	writeBlock(&sb, "dependencies", append(append([]string{}, d.Dependencies...), constraints(d)...))
	writeBlock(&sb, "provides", d.Provides)
	writeBlock(&sb, "exports", d.Exports)
	writeBlock(&sb, "server_exports", d.ServerExports)

	writeFlag(&sb, "this_is_a_map", d.IsMap)
	writeFlag(&sb, "server_only", d.ServerOnly)
	writeFlag(&sb, "lua54", d.Lua54)

	return sb.String()
}

// Write renders the manifest into dir as fxmanifest.lua.
func Write(d *pluginfile.Descriptor, dir string) error {
	if err := fsutil.EnsureDir(dir); err != nil {
		return err
	}
	path := filepath.Join(dir, pluginfile.ManifestFileName)
	if err := os.WriteFile(path, []byte(Generate(d)), 0o644); err != nil {
		return fmt.Errorf("write manifest %s: %w", path, err)
	}
	return nil
}

// constraints renders the descriptor's runtime requirements as the special
// slash-prefixed dependency entries the server understands.
func constraints(d *pluginfile.Descriptor) []string {
	var out []string
	if d.ServerVersion != "" {
		out = append(out, "/server:"+d.ServerVersion)
	}
	for _, tag := range d.PolicyTags {
		out = append(out, "/policy:"+tag)
	}
	switch d.OneSync {
	case "on":
		out = append(out, "/onesync")
	case "legacy":
		out = append(out, "/onesync:legacy")
	}
	for _, n := range d.Natives {
		out = append(out, "/native:"+n)
	}
	return out
}

func rewriteAll(patterns []string) []string {
	if len(patterns) == 0 {
		return nil
	}
	out := make([]string, len(patterns))
	for i, p := range patterns {
		out[i] = pluginfile.RewriteScriptPattern(p)
	}
	return out
}

func writeField(sb *strings.Builder, key, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(sb, "%s %s\n", key, quote(value))
}

func writeBlock(sb *strings.Builder, key string, values []string) {
	if len(values) == 0 {
		return
	}
	sb.WriteByte('\n')
	fmt.Fprintf(sb, "%s {\n", key)
	for _, v := range values {
		fmt.Fprintf(sb, "    %s,\n", quote(v))
	}
	sb.WriteString("}\n")
}

func writeFlag(sb *strings.Builder, key string, set bool) {
	if !set {
		return
	}
	fmt.Fprintf(sb, "%s 'yes'\n", key)
}

// quote renders a Lua single-quoted string literal.
func quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case '\'':
			sb.WriteString(`\'`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('\'')
	return sb.String()
}

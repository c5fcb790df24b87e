// SPDX-License-Identifier: MPL-2.0

package pluginfile

import (
	"path"
	"strings"
)

// scriptSourceExts are extensions the bundler transpiles. Declaration files
// (.d.ts) are type-only and are neither bundled nor copied.
var scriptSourceExts = []string{".ts", ".tsx", ".js", ".jsx"}

// OutputRelPath maps a plugin's path relative to the plugins root to its
// output directory relative to the distribution root. The mapping preserves
// parent (category) segments so the distribution tree mirrors the source
// tree; the plugins-root prefix is the only thing stripped, and it is
// stripped by construction because RelPath is already root-relative.
//
// Every consumer of the source→output mapping (bundler, manifest writer,
// resource registry) must go through this function.
func OutputRelPath(rel string) string {
	return path.Clean(strings.TrimPrefix(rel, "./"))
}

// IsScriptSource reports whether the given slash-separated path has a
// bundleable script extension. Declaration files are excluded.
func IsScriptSource(p string) bool {
	if strings.HasSuffix(p, ".d.ts") {
		return false
	}
	for _, ext := range scriptSourceExts {
		if strings.HasSuffix(p, ext) {
			return true
		}
	}
	return false
}

// OutputScriptPath rewrites a script source path to its bundled output path:
// the extension becomes .js, everything else is preserved. Non-script paths
// are returned unchanged.
func OutputScriptPath(p string) string {
	if !IsScriptSource(p) {
		return p
	}
	for _, ext := range scriptSourceExts {
		if strings.HasSuffix(p, ext) {
			return strings.TrimSuffix(p, ext) + ".js"
		}
	}
	return p
}

// RewriteScriptPattern rewrites the extension of a script glob pattern or
// path so manifests reference transpiled outputs, never sources. Patterns
// without a script extension pass through unchanged.
func RewriteScriptPattern(pat string) string {
	for _, ext := range scriptSourceExts {
		if strings.HasSuffix(pat, ext) {
			return strings.TrimSuffix(pat, ext) + ".js"
		}
	}
	return pat
}

// IsServerPath reports whether a slash-separated path contains a "server"
// segment, which selects the server-runtime bundling target.
func IsServerPath(p string) bool {
	for _, seg := range strings.Split(path.Clean(p), "/") {
		if seg == "server" {
			return true
		}
	}
	return false
}

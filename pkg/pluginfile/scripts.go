// SPDX-License-Identifier: MPL-2.0

package pluginfile

import (
	"fmt"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// ResolveScripts expands the descriptor's categorized glob patterns against
// the plugin directory. Matches within one pattern are sorted; pattern order
// is preserved and duplicates across patterns are dropped, so a descriptor
// can pin load order by listing specific files before a catch-all glob.
func (p *Plugin) ResolveScripts() (ScriptFiles, error) {
	if p.Descriptor == nil {
		return ScriptFiles{}, fmt.Errorf("plugin %s has no parsed descriptor", p.Name)
	}

	client, server, shared := p.Descriptor.ScriptPatterns()

	var (
		out ScriptFiles
		err error
	)
	if out.Client, err = expandPatterns(p.Path, client); err != nil {
		return ScriptFiles{}, fmt.Errorf("client_scripts: %w", err)
	}
	if out.Server, err = expandPatterns(p.Path, server); err != nil {
		return ScriptFiles{}, fmt.Errorf("server_scripts: %w", err)
	}
	if out.Shared, err = expandPatterns(p.Path, shared); err != nil {
		return ScriptFiles{}, fmt.Errorf("shared_scripts: %w", err)
	}
	return out, nil
}

// expandPatterns resolves doublestar globs relative to dir.
func expandPatterns(dir string, patterns []string) ([]string, error) {
	var (
		out  []string
		seen = map[string]bool{}
	)

	fsys := os.DirFS(dir)
	for _, pat := range patterns {
		matches, err := doublestar.Glob(fsys, pat)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pat, err)
		}
		sort.Strings(matches)
		for _, m := range matches {
			if seen[m] {
				continue
			}
			seen[m] = true
			out = append(out, m)
		}
	}
	return out, nil
}

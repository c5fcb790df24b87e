// SPDX-License-Identifier: MPL-2.0

// Package discovery scans the plugins root for descriptor marker files and
// produces the Plugin records the pipeline builds from.
//
// The plugins root is always passed explicitly; nothing here infers it from
// a discovered plugin's ancestors. Broken plugins (missing or malformed
// descriptors) are reported as diagnostics and skipped — a bad plugin never
// aborts the scan.
package discovery

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"cfxforge-cli/internal/fsutil"
	"cfxforge-cli/pkg/pluginfile"
)

// skippedDirNames are directory names the scan never descends into.
var skippedDirNames = map[string]bool{
	".git":         true,
	"node_modules": true,
	"dist":         true,
}

type (
	// Result bundles discovered plugins with the diagnostics produced while
	// scanning. Plugins are ordered by their root-relative path.
	Result struct {
		Plugins     []*pluginfile.Plugin
		Diagnostics []Diagnostic
	}

	// Discovery scans a plugins root for plugin directories.
	Discovery struct {
		root string
	}
)

// New creates a Discovery for the given plugins root.
func New(root string) (*Discovery, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve plugins root: %w", err)
	}
	if !fsutil.DirExists(abs) {
		return nil, fmt.Errorf("plugins root %s does not exist", abs)
	}
	return &Discovery{root: abs}, nil
}

// Root returns the absolute plugins root.
func (d *Discovery) Root() string { return d.root }

// Discover walks the plugins root and loads every directory containing a
// descriptor marker file. Directories under a discovered plugin are not
// searched again (plugins do not nest).
func (d *Discovery) Discover(ctx context.Context) (*Result, error) {
	res := &Result{}

	walkErr := filepath.WalkDir(d.root, func(path string, entry fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			// Inaccessible subtrees are skipped, not fatal; report and move on.
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				Severity: SeverityWarning,
				Code:     "path_inaccessible",
				Message:  fmt.Sprintf("skipping inaccessible path: %v", err),
				Path:     path,
				Cause:    err,
			})
			return fs.SkipDir
		}
		if !entry.IsDir() {
			return nil
		}
		if path != d.root && skippedDirNames[entry.Name()] {
			return fs.SkipDir
		}

		marker := filepath.Join(path, pluginfile.DescriptorFileName)
		if _, statErr := os.Stat(marker); statErr != nil {
			return nil
		}

		plugin, loadErr := pluginfile.Load(d.root, path)
		if loadErr != nil {
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				Severity: SeverityError,
				Code:     "descriptor_parse_skipped",
				Message:  fmt.Sprintf("plugin skipped: %v", loadErr),
				Path:     marker,
				Cause:    loadErr,
			})
			return fs.SkipDir
		}

		res.Plugins = append(res.Plugins, plugin)
		return fs.SkipDir
	})
	if walkErr != nil {
		return nil, fmt.Errorf("scan plugins root %s: %w", d.root, walkErr)
	}

	sort.Slice(res.Plugins, func(i, j int) bool {
		return res.Plugins[i].RelPath < res.Plugins[j].RelPath
	})
	return res, nil
}

// Find loads a single plugin by resource name. It scans like Discover and
// returns the first plugin whose descriptor name matches.
func (d *Discovery) Find(ctx context.Context, name string) (*pluginfile.Plugin, error) {
	res, err := d.Discover(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range res.Plugins {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("plugin %q not found under %s", name, d.root)
}

// FindByDir loads the plugin rooted at the given directory under the
// plugins root. Used by the watcher, which maps events to directories.
func (d *Discovery) FindByDir(dir string) (*pluginfile.Plugin, error) {
	marker := filepath.Join(dir, pluginfile.DescriptorFileName)
	if !fsutil.FileExists(marker) {
		return nil, fmt.Errorf("no %s in %s", pluginfile.DescriptorFileName, dir)
	}
	return pluginfile.Load(d.root, dir)
}

// OwnerDir maps a changed path to its owning plugin directory by ascending
// toward the plugins root until a directory with a descriptor marker is
// found. Returns false when the path belongs to no plugin (e.g., a file
// directly under a category directory).
func (d *Discovery) OwnerDir(path string) (string, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	if rel, relErr := filepath.Rel(d.root, abs); relErr != nil || rel == "." || filepath.IsAbs(rel) || len(rel) >= 2 && rel[:2] == ".." {
		return "", false
	}

	dir := abs
	if !fsutil.DirExists(dir) {
		dir = filepath.Dir(dir)
	}
	for {
		if fsutil.FileExists(filepath.Join(dir, pluginfile.DescriptorFileName)) {
			return dir, true
		}
		if dir == d.root {
			return "", false
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

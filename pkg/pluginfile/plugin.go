// SPDX-License-Identifier: MPL-2.0

package pluginfile

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

// uiEntryCandidates are the files that mark a plugin as having an in-game
// overlay, in lookup order. The first one present wins.
var uiEntryCandidates = []string{
	"ui/index.tsx",
	"ui/index.ts",
	"ui/index.jsx",
	"ui/index.js",
}

// skippedDirNames are directory names never considered plugin content.
var skippedDirNames = map[string]bool{
	".git":         true,
	"node_modules": true,
	"dist":         true,
}

type (
	// PluginFile is one source file belonging to a plugin.
	PluginFile struct {
		// Name is the base file name.
		Name string
		// RelPath is the path relative to the plugin directory, slash-separated.
		RelPath string
		// AbsPath is the absolute path on disk.
		AbsPath string
		// IsDescriptor marks the plugin.json marker file itself.
		IsDescriptor bool
	}

	// ScriptFiles holds the three ordered lists of resolved script paths
	// (relative to the plugin directory) produced by expanding the
	// descriptor's glob patterns.
	ScriptFiles struct {
		Client []string
		Server []string
		Shared []string
	}

	// Plugin is a discovered, parsed unit of deployable content. A Plugin is
	// immutable once loaded; rebuilds load a fresh record.
	Plugin struct {
		// Name is the resource name from the descriptor.
		Name string
		// Path is the absolute plugin directory.
		Path string
		// RelPath is the plugin directory relative to the plugins root,
		// slash-separated. Category directories ("[gameplay]") are part of it.
		RelPath string
		// Files are the plugin's discovered source files.
		Files []PluginFile
		// Descriptor is the parsed plugin.json.
		Descriptor *Descriptor
		// HasUI reports whether a UI entry file is present.
		HasUI bool
	}
)

// Total returns the number of resolved script files across all three lists.
func (s ScriptFiles) Total() int {
	return len(s.Client) + len(s.Server) + len(s.Shared)
}

// Load reads the plugin rooted at dir. The plugins root must be passed
// explicitly; the plugin's RelPath is computed against it, never inferred
// from ancestor counting. A missing or malformed descriptor fails the load —
// callers decide whether that skips the plugin or aborts the run.
func Load(root, dir string) (*Plugin, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve plugin directory: %w", err)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve plugins root: %w", err)
	}

	rel, err := filepath.Rel(absRoot, absDir)
	if err != nil {
		return nil, fmt.Errorf("plugin %s is not under plugins root %s: %w", absDir, absRoot, err)
	}

	desc, err := ParseFile(filepath.Join(absDir, DescriptorFileName))
	if err != nil {
		return nil, err
	}

	files, err := collectFiles(absDir)
	if err != nil {
		return nil, fmt.Errorf("scan plugin %s: %w", desc.Name, err)
	}

	return &Plugin{
		Name:       desc.Name,
		Path:       absDir,
		RelPath:    filepath.ToSlash(rel),
		Files:      files,
		Descriptor: desc,
		HasUI:      DetectUIEntry(absDir) != "",
	}, nil
}

// UIEntry returns the plugin's UI entry file path relative to the plugin
// directory, or "" when the plugin has no overlay.
func (p *Plugin) UIEntry() string {
	return DetectUIEntry(p.Path)
}

// ResourceName returns the name the game server knows this plugin by: the
// base name of its output directory. The descriptor's Name is metadata; the
// server resolves resources by folder name, so restarts must use this.
func (p *Plugin) ResourceName() string {
	return path.Base(OutputRelPath(p.RelPath))
}

// DetectUIEntry returns the relative path of the first UI entry candidate
// present under dir, or "" when none exists.
func DetectUIEntry(dir string) string {
	for _, cand := range uiEntryCandidates {
		if st, err := os.Stat(filepath.Join(dir, filepath.FromSlash(cand))); err == nil && !st.IsDir() {
			return cand
		}
	}
	return ""
}

// collectFiles walks the plugin directory and records every regular file.
func collectFiles(dir string) ([]PluginFile, error) {
	var files []PluginFile

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if path != dir && skippedDirNames[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return relErr
		}

		files = append(files, PluginFile{
			Name:         d.Name(),
			RelPath:      filepath.ToSlash(rel),
			AbsPath:      path,
			IsDescriptor: rel == DescriptorFileName,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// SPDX-License-Identifier: MPL-2.0

package reload

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"cfxforge-cli/internal/fsutil"
	"cfxforge-cli/pkg/pluginfile"
)

type (
	// Resource is one deployable resource found in the distribution tree.
	Resource struct {
		// Name is the resource name the server restarts it by.
		Name string
		// Dir is the resource's absolute output directory.
		Dir string
	}

	// Registry indexes the resources present in a distribution tree. It is
	// rebuilt after every build; resources never mutate in place.
	Registry struct {
		resources []Resource
	}
)

// ScanRegistry walks the distribution root and records every directory
// holding a resource manifest. Nested resource directories are not searched;
// a resource owns its whole subtree.
func ScanRegistry(distDir string) (*Registry, error) {
	reg := &Registry{}

	err := filepath.WalkDir(distDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() {
			return nil
		}
		manifest := filepath.Join(path, pluginfile.ManifestFileName)
		if !fsutil.FileExists(manifest) {
			return nil
		}
		reg.resources = append(reg.resources, Resource{
			Name: filepath.Base(path),
			Dir:  path,
		})
		return filepath.SkipDir
	})
	if err != nil {
		return nil, fmt.Errorf("scan distribution tree %s: %w", distDir, err)
	}

	sort.Slice(reg.resources, func(i, j int) bool {
		return reg.resources[i].Name < reg.resources[j].Name
	})
	return reg, nil
}

// Resources returns every indexed resource, ordered by name.
func (r *Registry) Resources() []Resource {
	return r.resources
}

// Lookup returns the resource with the given name.
func (r *Registry) Lookup(name string) (Resource, bool) {
	for _, res := range r.resources {
		if res.Name == name {
			return res, true
		}
	}
	return Resource{}, false
}

// ResourceForPath returns the resource whose directory contains the given
// path.
func (r *Registry) ResourceForPath(path string) (Resource, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Resource{}, false
	}
	for _, res := range r.resources {
		if abs == res.Dir || strings.HasPrefix(abs, res.Dir+string(filepath.Separator)) {
			return res, true
		}
	}
	return Resource{}, false
}

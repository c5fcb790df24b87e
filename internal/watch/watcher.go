// SPDX-License-Identifier: MPL-2.0

// Package watch provides file-watching with debounced per-plugin rebuilds.
//
// It monitors the plugins and core source roots, coalesces event bursts per
// owning plugin, and invokes a rebuild callback after a configurable settle
// delay. Each plugin debounces independently; a rebuild already in flight
// for one plugin never blocks events for another.
package watch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// defaultDebounce is the settle delay before a change burst triggers a
// rebuild. Editors typically write then rename a temp file; both events
// must coalesce into one rebuild.
const defaultDebounce = 300 * time.Millisecond

// defaultIgnores lists path patterns that never trigger rebuilds. These
// cover VCS metadata, dependency caches, build outputs, editor swap files,
// and OS metadata files that generate high-frequency noise.
var defaultIgnores = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/dist/**",
	"**/*.swp",
	"**/*.swo",
	"**/*~",
	"**/.DS_Store",
}

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// PluginsRoot is the plugins source root. Required.
		PluginsRoot string

		// CoreRoot is the core scripts directory. Empty disables core
		// watching.
		CoreRoot string

		// Extensions is the file-extension allow list (e.g. ".ts"). Events
		// for files with other extensions never trigger rebuilds. An empty
		// list allows all extensions.
		Extensions []string

		// Ignore are additional doublestar glob patterns for paths that
		// should never trigger rebuilds, merged with the built-in defaults.
		Ignore []string

		// Debounce is the settle delay after the last event before a rebuild
		// fires. Zero or negative values fall back to defaultDebounce.
		Debounce time.Duration

		// ClearScreen clears the terminal before each rebuild by writing
		// ANSI escape sequences to Stdout.
		ClearScreen bool

		// OwnerDir maps an absolute changed path to its owning plugin
		// directory. Required; paths with no owner are dropped.
		OwnerDir func(path string) (string, bool)

		// OnPlugin is called with the owning plugin directory and the
		// deduplicated changed paths once a plugin's burst settles.
		OnPlugin func(ctx context.Context, pluginDir string, changed []string) error

		// OnCore is called when core sources settle.
		OnCore func(ctx context.Context, changed []string) error

		// Stdout and Stderr are the writers for informational and error
		// messages. Nil values default to os.Stdout / os.Stderr.
		Stdout io.Writer
		Stderr io.Writer
	}

	// Watcher monitors the source roots and fires debounced per-plugin
	// rebuild callbacks. Run must be called exactly once.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		ignores  []string
		stdout   io.Writer
		stderr   io.Writer
		debounce time.Duration
		plugins  string
		core     string
		started  atomic.Bool
	}
)

// New creates a Watcher from the given Config. It registers every
// non-ignored directory under the configured roots for monitoring.
func New(cfg Config) (*Watcher, error) {
	if cfg.PluginsRoot == "" {
		return nil, fmt.Errorf("watch: plugins root is required")
	}
	if cfg.OwnerDir == nil {
		return nil, fmt.Errorf("watch: owner mapping is required")
	}

	plugins, err := filepath.Abs(cfg.PluginsRoot)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve plugins root: %w", err)
	}
	core := ""
	if cfg.CoreRoot != "" {
		if core, err = filepath.Abs(cfg.CoreRoot); err != nil {
			return nil, fmt.Errorf("watch: resolve core root: %w", err)
		}
	}

	if err := validatePatterns(cfg.Ignore); err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	stdout := cfg.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := cfg.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	ignores := make([]string, 0, len(defaultIgnores)+len(cfg.Ignore))
	ignores = append(ignores, defaultIgnores...)
	ignores = append(ignores, cfg.Ignore...)

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		ignores:  ignores,
		stdout:   stdout,
		stderr:   stderr,
		debounce: debounce,
		plugins:  plugins,
		core:     core,
	}

	for _, root := range w.roots() {
		if err := w.addDirectories(root); err != nil {
			if closeErr := fsw.Close(); closeErr != nil {
				fmt.Fprintf(stderr, "watch: close after init failure: %v\n", closeErr)
			}
			return nil, err
		}
	}
	return w, nil
}

// Run blocks until ctx is cancelled, routing filesystem events into the
// per-plugin debouncer. It returns nil on clean context cancellation and
// propagates fatal watcher errors. Run must be called exactly once.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return fmt.Errorf("watch: Run called more than once")
	}

	deb := newKeyedDebouncer(w.debounce, func(key string, paths []string) {
		w.dispatch(ctx, key, paths)
	})

	defer func() {
		deb.Stop()
		if closeErr := w.fsw.Close(); closeErr != nil {
			fmt.Fprintf(w.stderr, "watch: close fsnotify: %v\n", closeErr)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return fmt.Errorf("watch: fsnotify event channel closed unexpectedly")
			}
			w.handleEvent(evt, deb)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return fmt.Errorf("watch: fsnotify error channel closed unexpectedly")
			}
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			fmt.Fprintf(w.stderr, "watch: fsnotify error: %v\n", err)
		}
	}
}

func (w *Watcher) handleEvent(evt fsnotify.Event, deb *keyedDebouncer) {
	if evt.Op == fsnotify.Chmod {
		return
	}

	root, ok := w.rootFor(evt.Name)
	if !ok {
		return
	}
	rel, err := filepath.Rel(root, evt.Name)
	if err != nil {
		return
	}
	if w.isIgnored(rel) {
		return
	}

	// Auto-add newly created directories so recursive watches extend to
	// directories created after startup.
	if evt.Has(fsnotify.Create) {
		w.maybeAddDir(root, evt.Name)
	}
	if st, statErr := os.Stat(evt.Name); statErr == nil && st.IsDir() {
		return
	}

	if !w.allowedExtension(evt.Name) {
		return
	}

	if root == w.core {
		deb.Trigger(coreKey, evt.Name)
		return
	}
	owner, ok := w.cfg.OwnerDir(evt.Name)
	if !ok {
		return
	}
	deb.Trigger(owner, evt.Name)
}

// coreKey is the debounce key for core source changes. NUL never appears in
// a directory path, so it cannot collide with a plugin key.
const coreKey = "\x00core"

func (w *Watcher) dispatch(ctx context.Context, key string, paths []string) {
	if ctx.Err() != nil {
		return
	}

	if w.cfg.ClearScreen {
		// ANSI escape: clear screen and move cursor to top-left.
		fmt.Fprint(w.stdout, "\033[2J\033[H")
	}

	if key == coreKey {
		if w.cfg.OnCore != nil {
			if err := w.cfg.OnCore(ctx, paths); err != nil {
				fmt.Fprintf(w.stderr, "watch: core rebuild failed: %v\n", err)
			}
		}
		return
	}
	if w.cfg.OnPlugin != nil {
		if err := w.cfg.OnPlugin(ctx, key, paths); err != nil {
			fmt.Fprintf(w.stderr, "watch: rebuild failed for %s: %v\n", key, err)
		}
	}
}

func (w *Watcher) roots() []string {
	roots := []string{w.plugins}
	if w.core != "" {
		roots = append(roots, w.core)
	}
	return roots
}

// rootFor returns the watched root containing path. The core root wins when
// it is nested under the plugins root.
func (w *Watcher) rootFor(path string) (string, bool) {
	if w.core != "" && underDir(w.core, path) {
		return w.core, true
	}
	if underDir(w.plugins, path) {
		return w.plugins, true
	}
	return "", false
}

func underDir(dir, path string) bool {
	return path == dir || strings.HasPrefix(path, dir+string(filepath.Separator))
}

// addDirectories walks root and adds every non-ignored directory to the
// fsnotify watcher. Extension filtering applies to events, not to directory
// registration.
func (w *Watcher) addDirectories(root string) error {
	walkErr := filepath.WalkDir(root, func(path string, d os.DirEntry, walkDirErr error) error {
		if walkDirErr != nil {
			// Permission errors on individual dirs should not prevent
			// watching the rest of the tree.
			fmt.Fprintf(w.stderr, "watch: skipping inaccessible path %q: %v\n", path, walkDirErr)
			return nil //nolint:nilerr // intentional skip of inaccessible paths
		}
		if !d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil //nolint:nilerr // skip paths that cannot be made relative
		}
		if w.isIgnored(rel) || w.isIgnored(rel+"/") {
			return filepath.SkipDir
		}

		if addErr := w.fsw.Add(path); addErr != nil {
			return fmt.Errorf("watch: add directory %q: %w", path, addErr)
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("watch: walk directory tree: %w", walkErr)
	}
	return nil
}

// maybeAddDir adds path to the fsnotify watcher if it is a non-ignored
// directory created after the initial walk.
func (w *Watcher) maybeAddDir(root, path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return
	}
	if w.isIgnored(rel) || w.isIgnored(rel+"/") {
		return
	}
	if addErr := w.fsw.Add(path); addErr != nil {
		fmt.Fprintf(w.stderr, "watch: add new directory %q: %v\n", path, addErr)
	}
}

// isIgnored reports whether the root-relative path matches any ignore
// pattern.
func (w *Watcher) isIgnored(rel string) bool {
	normalized := filepath.ToSlash(rel)
	for _, pat := range w.ignores {
		if matched, matchErr := doublestar.Match(pat, normalized); matchErr == nil && matched {
			return true
		}
	}
	return false
}

// allowedExtension reports whether the path's extension is on the allow
// list.
func (w *Watcher) allowedExtension(path string) bool {
	if len(w.cfg.Extensions) == 0 {
		return true
	}
	ext := filepath.Ext(path)
	for _, allowed := range w.cfg.Extensions {
		if strings.EqualFold(ext, allowed) {
			return true
		}
	}
	return false
}

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string {
	out := make([]string, len(defaultIgnores))
	copy(out, defaultIgnores)
	return out
}

// validatePatterns checks that every ignore pattern is a valid doublestar
// glob, so invalid globs fail at construction time rather than silently
// never matching.
func validatePatterns(patterns []string) error {
	for _, pat := range patterns {
		if _, err := doublestar.Match(pat, ""); err != nil {
			return fmt.Errorf("watch: invalid ignore pattern %q: %w", pat, err)
		}
	}
	return nil
}

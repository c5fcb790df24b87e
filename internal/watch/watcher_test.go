// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// pluginTree creates a plugins root with one plugin under a category
// directory and returns (root, pluginDir).
func pluginTree(t *testing.T) (string, string) {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "[gameplay]", "garage")
	if err := os.MkdirAll(filepath.Join(dir, "client"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "plugin.json"), []byte(`{"name":"garage"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	return root, dir
}

// ownerBy maps any path under dir to dir, mirroring how the discovery layer
// resolves owning plugin directories.
func ownerBy(dir string) func(string) (string, bool) {
	return func(path string) (string, bool) {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return dir, true
		}
		return "", false
	}
}

type recorder struct {
	mu      sync.Mutex
	plugin  map[string][][]string
	core    [][]string
	fired   chan struct{}
	firedMu sync.Once
}

func newRecorder() *recorder {
	return &recorder{plugin: map[string][][]string{}, fired: make(chan struct{})}
}

func (r *recorder) onPlugin(_ context.Context, dir string, changed []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plugin[dir] = append(r.plugin[dir], changed)
	r.firedMu.Do(func() { close(r.fired) })
	return nil
}

func (r *recorder) onCore(_ context.Context, changed []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.core = append(r.core, changed)
	r.firedMu.Do(func() { close(r.fired) })
	return nil
}

func (r *recorder) pluginCalls(dir string) [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.plugin[dir]...)
}

func (r *recorder) coreCalls() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.core...)
}

func startWatcher(t *testing.T, cfg Config) (*Watcher, context.CancelFunc, chan error) {
	t.Helper()
	cfg.Stdout = &bytes.Buffer{}
	cfg.Stderr = &bytes.Buffer{}
	w, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := <-errCh; err != nil {
			t.Errorf("Run() error: %v", err)
		}
	})
	return w, cancel, errCh
}

// TestWatcherCoalescesEventBurst verifies a rapid burst of writes triggers
// exactly one rebuild for the owning plugin.
func TestWatcherCoalescesEventBurst(t *testing.T) {
	t.Parallel()

	root, dir := pluginTree(t)
	rec := newRecorder()

	startWatcher(t, Config{
		PluginsRoot: root,
		Extensions:  []string{".ts"},
		Debounce:    100 * time.Millisecond,
		OwnerDir:    ownerBy(dir),
		OnPlugin:    rec.onPlugin,
	})

	target := filepath.Join(dir, "client", "index.ts")
	for i := 0; i < 10; i++ {
		if err := os.WriteFile(target, []byte("console.log(1);\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-rec.fired:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for rebuild callback")
	}
	time.Sleep(300 * time.Millisecond)

	calls := rec.pluginCalls(dir)
	if len(calls) != 1 {
		t.Errorf("expected 1 rebuild, got %d", len(calls))
	}
	if len(calls) > 0 && (len(calls[0]) != 1 || calls[0][0] != target) {
		t.Errorf("unexpected changed paths: %v", calls[0])
	}
}

// TestWatcherFiltersExtensions confirms non-source extensions never trigger
// rebuilds while allowed ones do.
func TestWatcherFiltersExtensions(t *testing.T) {
	t.Parallel()

	root, dir := pluginTree(t)
	rec := newRecorder()

	startWatcher(t, Config{
		PluginsRoot: root,
		Extensions:  []string{".ts", ".lua"},
		Debounce:    50 * time.Millisecond,
		OwnerDir:    ownerBy(dir),
		OnPlugin:    rec.onPlugin,
	})

	if err := os.WriteFile(filepath.Join(dir, "notes.md"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)
	if calls := rec.pluginCalls(dir); len(calls) != 0 {
		t.Fatalf("markdown write should not trigger a rebuild, got %v", calls)
	}

	if err := os.WriteFile(filepath.Join(dir, "config.lua"), []byte("Config = {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-rec.fired:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for rebuild callback")
	}
}

// TestWatcherRoutesCoreChanges confirms core source changes reach OnCore,
// not OnPlugin.
func TestWatcherRoutesCoreChanges(t *testing.T) {
	t.Parallel()

	root, dir := pluginTree(t)
	core := t.TempDir()
	rec := newRecorder()

	startWatcher(t, Config{
		PluginsRoot: root,
		CoreRoot:    core,
		Extensions:  []string{".ts"},
		Debounce:    50 * time.Millisecond,
		OwnerDir:    ownerBy(dir),
		OnPlugin:    rec.onPlugin,
		OnCore:      rec.onCore,
	})

	target := filepath.Join(core, "main.ts")
	if err := os.WriteFile(target, []byte("console.log(0);\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-rec.fired:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for core callback")
	}
	time.Sleep(200 * time.Millisecond)

	if calls := rec.coreCalls(); len(calls) != 1 || calls[0][0] != target {
		t.Fatalf("unexpected core calls: %v", calls)
	}
	if calls := rec.pluginCalls(dir); len(calls) != 0 {
		t.Fatalf("core change must not trigger plugin rebuilds, got %v", calls)
	}
}

// TestWatcherExtendsToNewDirectories confirms files in directories created
// after startup still trigger rebuilds.
func TestWatcherExtendsToNewDirectories(t *testing.T) {
	t.Parallel()

	root, dir := pluginTree(t)
	rec := newRecorder()

	startWatcher(t, Config{
		PluginsRoot: root,
		Extensions:  []string{".ts"},
		Debounce:    50 * time.Millisecond,
		OwnerDir:    ownerBy(dir),
		OnPlugin:    rec.onPlugin,
	})

	newDir := filepath.Join(dir, "server")
	if err := os.Mkdir(newDir, 0o755); err != nil {
		t.Fatal(err)
	}
	// Give the watcher time to register the new directory.
	time.Sleep(200 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(newDir, "main.ts"), []byte("console.log(2);\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-rec.fired:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for rebuild in new directory")
	}
}

// TestWatcherIgnoresNoisePaths confirms built-in ignores suppress events.
func TestWatcherIgnoresNoisePaths(t *testing.T) {
	t.Parallel()

	root, dir := pluginTree(t)
	rec := newRecorder()

	nodeModules := filepath.Join(dir, "node_modules", "pkg")
	if err := os.MkdirAll(nodeModules, 0o755); err != nil {
		t.Fatal(err)
	}

	startWatcher(t, Config{
		PluginsRoot: root,
		Extensions:  []string{".ts"},
		Debounce:    50 * time.Millisecond,
		OwnerDir:    ownerBy(dir),
		OnPlugin:    rec.onPlugin,
	})

	if err := os.WriteFile(filepath.Join(nodeModules, "index.ts"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)

	if calls := rec.pluginCalls(dir); len(calls) != 0 {
		t.Fatalf("dependency cache writes should not trigger rebuilds, got %v", calls)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{OwnerDir: func(string) (string, bool) { return "", false }}); err == nil {
		t.Error("expected error for missing plugins root")
	}
	if _, err := New(Config{PluginsRoot: t.TempDir()}); err == nil {
		t.Error("expected error for missing owner mapping")
	}
	_, err := New(Config{
		PluginsRoot: t.TempDir(),
		OwnerDir:    func(string) (string, bool) { return "", false },
		Ignore:      []string{"[bad"},
	})
	if err == nil {
		t.Error("expected error for invalid ignore pattern")
	}
}

func TestRunTwiceFails(t *testing.T) {
	t.Parallel()

	w, err := New(Config{
		PluginsRoot: t.TempDir(),
		OwnerDir:    func(string) (string, bool) { return "", false },
		Stdout:      &bytes.Buffer{},
		Stderr:      &bytes.Buffer{},
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)

	if err := w.Run(ctx); err == nil {
		t.Error("second Run should fail")
	}

	cancel()
	if err := <-errCh; err != nil {
		t.Errorf("Run() error: %v", err)
	}
}

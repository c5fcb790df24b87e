// SPDX-License-Identifier: MPL-2.0

package bundler

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"cfxforge-cli/pkg/pluginfile"
)

func testLogger() *log.Logger { return log.New(io.Discard) }

// writePlugin creates a plugin directory with the given files and backdates
// every source so output mtimes compare strictly newer.
func writePlugin(t *testing.T, files map[string]string) *pluginfile.Plugin {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "garage")
	past := time.Now().Add(-time.Hour)
	for rel, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := os.Chtimes(p, past, past); err != nil {
			t.Fatal(err)
		}
	}
	plugin, err := pluginfile.Load(root, dir)
	if err != nil {
		t.Fatal(err)
	}
	return plugin
}

func TestActionFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		file pluginfile.PluginFile
		want fileAction
	}{
		{pluginfile.PluginFile{RelPath: "plugin.json", IsDescriptor: true}, actionSkip},
		{pluginfile.PluginFile{RelPath: "fxmanifest.lua"}, actionSkip},
		{pluginfile.PluginFile{RelPath: "ui/index.tsx"}, actionSkip},
		{pluginfile.PluginFile{RelPath: "client/types.d.ts"}, actionSkip},
		{pluginfile.PluginFile{RelPath: "client/index.ts"}, actionBundle},
		{pluginfile.PluginFile{RelPath: "server/main.tsx"}, actionBundle},
		{pluginfile.PluginFile{RelPath: "shared/util.js"}, actionBundle},
		{pluginfile.PluginFile{RelPath: "config.lua"}, actionCopy},
		{pluginfile.PluginFile{RelPath: "data/vehicles.meta"}, actionCopy},
	}
	for _, tc := range tests {
		if got := actionFor(tc.file); got != tc.want {
			t.Errorf("actionFor(%q) = %v, want %v", tc.file.RelPath, got, tc.want)
		}
	}
}

func TestBundlePlugin(t *testing.T) {
	t.Parallel()

	plugin := writePlugin(t, map[string]string{
		"plugin.json":     `{"name":"garage","client_scripts":["client/*.ts"]}`,
		"client/index.ts": "const greeting: string = \"hi\";\nconsole.log(greeting);\n",
		"server/main.ts":  "const port: number = 30120;\nconsole.log(port);\n",
		"config.lua":      "Config = {}\n",
		"client/api.d.ts": "declare const n: number;\n",
		"ui/index.tsx":    "export {};\n",
	})

	outDir := t.TempDir()
	b := New(testLogger(), Options{})
	res, err := b.BundlePlugin(context.Background(), plugin, outDir)
	if err != nil {
		t.Fatal(err)
	}
	if res.Bundled != 2 || res.Copied != 1 || res.Skipped != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}

	for _, rel := range []string{"client/index.js", "server/main.js", "config.lua"} {
		if _, err := os.Stat(filepath.Join(outDir, filepath.FromSlash(rel))); err != nil {
			t.Errorf("missing output %s: %v", rel, err)
		}
	}
	for _, rel := range []string{"client/index.ts", "client/api.d.ts", "ui/index.tsx", "plugin.json"} {
		if _, err := os.Stat(filepath.Join(outDir, filepath.FromSlash(rel))); err == nil {
			t.Errorf("unexpected output %s", rel)
		}
	}
}

func TestBundlePluginIsIdempotent(t *testing.T) {
	t.Parallel()

	plugin := writePlugin(t, map[string]string{
		"plugin.json":     `{"name":"garage","client_scripts":["client/*.ts"]}`,
		"client/index.ts": "console.log(1);\n",
		"config.lua":      "Config = {}\n",
	})

	outDir := t.TempDir()
	b := New(testLogger(), Options{})
	if _, err := b.BundlePlugin(context.Background(), plugin, outDir); err != nil {
		t.Fatal(err)
	}

	res, err := b.BundlePlugin(context.Background(), plugin, outDir)
	if err != nil {
		t.Fatal(err)
	}
	if res.Bundled != 0 || res.Copied != 0 || res.Skipped != 2 {
		t.Fatalf("second run should skip everything, got %+v", res)
	}

	forced := New(testLogger(), Options{Force: true})
	res, err = forced.BundlePlugin(context.Background(), plugin, outDir)
	if err != nil {
		t.Fatal(err)
	}
	if res.Bundled != 1 || res.Copied != 1 {
		t.Fatalf("forced run should redo everything, got %+v", res)
	}
}

func TestBundlePluginCollectsPerFileErrors(t *testing.T) {
	t.Parallel()

	plugin := writePlugin(t, map[string]string{
		"plugin.json":      `{"name":"garage","client_scripts":["client/*.ts"]}`,
		"client/broken.ts": "const = ;\n",
		"client/good.ts":   "console.log(2);\n",
	})

	outDir := t.TempDir()
	b := New(testLogger(), Options{})
	res, err := b.BundlePlugin(context.Background(), plugin, outDir)
	if err == nil {
		t.Fatal("expected an error for the broken source")
	}
	var fileErr *FileError
	if !errors.As(err, &fileErr) || fileErr.File != "client/broken.ts" {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Bundled != 1 {
		t.Fatalf("good file should still bundle, got %+v", res)
	}
	if _, statErr := os.Stat(filepath.Join(outDir, "client", "good.js")); statErr != nil {
		t.Errorf("missing output client/good.js: %v", statErr)
	}
}

func TestBundlePluginHonorsContext(t *testing.T) {
	t.Parallel()

	plugin := writePlugin(t, map[string]string{
		"plugin.json":     `{"name":"garage"}`,
		"client/index.ts": "console.log(3);\n",
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := New(testLogger(), Options{})
	if _, err := b.BundlePlugin(ctx, plugin, t.TempDir()); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}

// SPDX-License-Identifier: MPL-2.0

package pluginfile_test

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"cfxforge-cli/pkg/pluginfile"
)

// writePlugin lays out a plugin directory under root and returns its path.
func writePlugin(t *testing.T, root, rel, descriptor string, files map[string]string) string {
	t.Helper()

	dir := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, pluginfile.DescriptorFileName), []byte(descriptor), 0o644); err != nil {
		t.Fatal(err)
	}
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestLoad(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	dir := writePlugin(t, root, "[gameplay]/garage", `{"name": "garage", "client_scripts": ["client/*.ts"]}`, map[string]string{
		"client/index.ts": "console.log('hi')",
		"ui/index.tsx":    "export default null",
	})

	p, err := pluginfile.Load(root, dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if p.Name != "garage" {
		t.Errorf("Name = %q, want garage", p.Name)
	}
	if p.RelPath != "[gameplay]/garage" {
		t.Errorf("RelPath = %q, want [gameplay]/garage", p.RelPath)
	}
	if !p.HasUI {
		t.Error("HasUI = false, want true")
	}
	if got := p.UIEntry(); got != "ui/index.tsx" {
		t.Errorf("UIEntry() = %q, want ui/index.tsx", got)
	}

	var rels []string
	descriptorSeen := false
	for _, f := range p.Files {
		rels = append(rels, f.RelPath)
		if f.IsDescriptor {
			descriptorSeen = true
			if f.RelPath != pluginfile.DescriptorFileName {
				t.Errorf("descriptor flagged on %q", f.RelPath)
			}
		}
	}
	if !descriptorSeen {
		t.Error("no file flagged as descriptor")
	}
	for _, want := range []string{"plugin.json", "client/index.ts", "ui/index.tsx"} {
		if !slices.Contains(rels, want) {
			t.Errorf("Files missing %q, got %v", want, rels)
		}
	}
}

func TestResourceName(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	// The server resolves resources by output directory name, so a
	// descriptor name that differs from the directory must not win.
	dir := writePlugin(t, root, "[gameplay]/garage", `{"name": "garage_system"}`, nil)
	p, err := pluginfile.Load(root, dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := p.ResourceName(); got != "garage" {
		t.Errorf("ResourceName() = %q, want garage", got)
	}
	if p.Name != "garage_system" {
		t.Errorf("Name = %q, want garage_system", p.Name)
	}
}

func TestLoad_MalformedDescriptor(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	dir := writePlugin(t, root, "broken", `{"name":`, nil)

	if _, err := pluginfile.Load(root, dir); err == nil {
		t.Fatal("Load() error = nil, want error")
	}
}

func TestLoad_NoUI(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	dir := writePlugin(t, root, "headless", `{"name": "headless"}`, map[string]string{
		"server/main.ts": "",
	})

	p, err := pluginfile.Load(root, dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if p.HasUI {
		t.Error("HasUI = true, want false")
	}
	if got := p.UIEntry(); got != "" {
		t.Errorf("UIEntry() = %q, want empty", got)
	}
}

func TestResolveScripts(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	dir := writePlugin(t, root, "garage", `{
		"name": "garage",
		"client_scripts": ["client/boot.ts", "client/*.ts"],
		"server_scripts": ["server/**/*.ts"],
		"shared_scripts": ["shared/config.ts"]
	}`, map[string]string{
		"client/boot.ts":      "",
		"client/index.ts":     "",
		"server/main.ts":      "",
		"server/jobs/wash.ts": "",
		"shared/config.ts":    "",
	})

	p, err := pluginfile.Load(root, dir)
	if err != nil {
		t.Fatal(err)
	}

	scripts, err := p.ResolveScripts()
	if err != nil {
		t.Fatalf("ResolveScripts() error = %v", err)
	}

	// Explicitly listed boot.ts keeps first position despite the catch-all
	// glob matching it again.
	wantClient := []string{"client/boot.ts", "client/index.ts"}
	if !slices.Equal(scripts.Client, wantClient) {
		t.Errorf("Client = %v, want %v", scripts.Client, wantClient)
	}

	wantServer := []string{"server/jobs/wash.ts", "server/main.ts"}
	if !slices.Equal(scripts.Server, wantServer) {
		t.Errorf("Server = %v, want %v", scripts.Server, wantServer)
	}

	if scripts.Total() != 5 {
		t.Errorf("Total() = %d, want 5", scripts.Total())
	}
}

func TestResolveScripts_InvalidPattern(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	dir := writePlugin(t, root, "bad", `{"name": "bad", "client_scripts": ["client/[.ts"]}`, nil)

	p, err := pluginfile.Load(root, dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.ResolveScripts(); err == nil {
		t.Fatal("ResolveScripts() error = nil, want invalid pattern error")
	}
}

// SPDX-License-Identifier: MPL-2.0

package fsutil_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"cfxforge-cli/internal/fsutil"
)

func TestCopyFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "out", "nested", "dst.txt")

	if err := os.WriteFile(src, []byte("payload"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := fsutil.CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile() error = %v", err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "payload" {
		t.Errorf("dst content = %q, want %q", got, "payload")
	}

	st, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if st.Mode().Perm() != 0o600 {
		t.Errorf("dst mode = %v, want 0600", st.Mode().Perm())
	}
}

func TestCopyFile_MissingSource(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := fsutil.CopyFile(filepath.Join(dir, "nope"), filepath.Join(dir, "dst")); err == nil {
		t.Fatal("CopyFile() error = nil, want error")
	}
}

func TestCopyDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	for _, f := range []string{"a.txt", "sub/b.txt"} {
		p := filepath.Join(src, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(f), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	dst := filepath.Join(dir, "dst")
	if err := fsutil.CopyDir(src, dst); err != nil {
		t.Fatalf("CopyDir() error = %v", err)
	}

	for _, f := range []string{"a.txt", "sub/b.txt"} {
		got, err := os.ReadFile(filepath.Join(dst, filepath.FromSlash(f)))
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if string(got) != f {
			t.Errorf("%s content = %q, want %q", f, got, f)
		}
	}
}

func TestExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "f")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	if !fsutil.FileExists(file) {
		t.Error("FileExists(file) = false")
	}
	if fsutil.FileExists(dir) {
		t.Error("FileExists(dir) = true")
	}
	if !fsutil.DirExists(dir) {
		t.Error("DirExists(dir) = false")
	}
	if fsutil.DirExists(filepath.Join(dir, "missing")) {
		t.Error("DirExists(missing) = true")
	}
}

func TestNewer(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	older := filepath.Join(dir, "older")
	newer := filepath.Join(dir, "newer")

	if err := os.WriteFile(older, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(newer, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	// Force distinct mtimes; some filesystems have coarse timestamps.
	past := time.Now().Add(-time.Minute)
	if err := os.Chtimes(older, past, past); err != nil {
		t.Fatal(err)
	}

	if !fsutil.Newer(newer, older) {
		t.Error("Newer(newer, older) = false")
	}
	if fsutil.Newer(older, newer) {
		t.Error("Newer(older, newer) = true")
	}
	if fsutil.Newer(filepath.Join(dir, "missing"), older) {
		t.Error("Newer(missing, older) = true")
	}
}

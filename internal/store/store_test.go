package store

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

// setupTestRepo creates a temporary git repository with sample files for testing.
func setupTestRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()

	git := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
		cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
		out, err := cmd.CombinedOutput()
		if err != nil {
			t.Fatalf("git %v failed: %v\n%s", args, err, out)
		}
	}

	git("init")
	git("config", "user.email", "test@test.com")
	git("config", "user.name", "Test")

	srcDir := filepath.Join(dir, "src")
	if err := os.MkdirAll(srcDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("# README\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(srcDir, "main.go"), []byte("package main\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	git("add", "-A")
	git("commit", "-m", "initial commit")

	return dir
}

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

func TestMemory_ReadMissingReturnsTemplate(t *testing.T) {
	m := NewMemory()
	data, err := m.Read(context.Background(), "/src/app.py")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(data) != "#!/usr/bin/env python3\n# Python file\n\n" {
		t.Errorf("Read = %q, want python template", data)
	}
	st, _ := m.Stat(context.Background(), "/src/app.py")
	if st.Size != int64(len(data)) || !st.LastModifiedAt.IsZero() {
		t.Errorf("Stat = %+v, want template size and zero time", st)
	}
}

func TestMemory_WriteReadStat(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory().WithClock(func() time.Time { return at })
	ctx := context.Background()

	buf := []byte("hello")
	if err := m.Write(ctx, "/a.txt", buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	buf[0] = 'j'

	data, _ := m.Read(ctx, "/a.txt")
	if string(data) != "hello" {
		t.Errorf("Read = %q, stored bytes must not alias the caller's", data)
	}
	st, err := m.Stat(ctx, "/a.txt")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if st.Size != 5 || !st.LastModifiedAt.Equal(at) {
		t.Errorf("Stat = %+v", st)
	}
	if !m.Exists(ctx, "/a.txt") || m.Exists(ctx, "/b.txt") {
		t.Error("Exists mismatch")
	}
}

func TestMemory_RemoveRecursive(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	_ = m.MakeDir(ctx, "/src")
	_ = m.Write(ctx, "/src/a.ts", []byte("a"))
	_ = m.Write(ctx, "/src2.ts", []byte("b"))

	if err := m.Remove(ctx, "/src"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if m.Exists(ctx, "/src") || m.Exists(ctx, "/src/a.ts") {
		t.Error("expected /src and its children to be removed")
	}
	if !m.Exists(ctx, "/src2.ts") {
		t.Error("sibling with shared name prefix must survive")
	}
}

func TestMemory_RenameAndList(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	_ = m.MakeDir(ctx, "/src")
	_ = m.Write(ctx, "/src/a.ts", []byte("a"))

	if err := m.Rename(ctx, "/src", "/lib"); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	entries, err := m.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("List returned %d entries, want 2", len(entries))
	}
	if entries[0].Path != "/lib" || !entries[0].IsDir {
		t.Errorf("entries[0] = %+v", entries[0])
	}
	if entries[1].Path != "/lib/a.ts" || entries[1].Size != 1 {
		t.Errorf("entries[1] = %+v", entries[1])
	}
}

func TestMemory_WriteOverFolder(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	_ = m.MakeDir(ctx, "/src")
	err := m.Write(ctx, "/src", []byte("x"))
	if !errors.Is(err, ErrStoreFailure) {
		t.Errorf("Write over folder = %v, want ErrStoreFailure", err)
	}
}

func TestDisk_RoundTrip(t *testing.T) {
	root := t.TempDir()
	d := NewDisk(root, []string{".git"})
	ctx := context.Background()

	if err := d.Write(ctx, "/src/main.go", []byte("package main\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "src", "main.go")); err != nil {
		t.Fatalf("file not on disk: %v", err)
	}
	data, err := d.Read(ctx, "/src/main.go")
	if err != nil || string(data) != "package main\n" {
		t.Errorf("Read = %q, %v", data, err)
	}

	if err := d.Rename(ctx, "/src", "/cmd"); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if d.Exists(ctx, "/src/main.go") || !d.Exists(ctx, "/cmd/main.go") {
		t.Error("Rename did not move the folder")
	}

	if err := d.Remove(ctx, "/cmd"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if d.Exists(ctx, "/cmd") {
		t.Error("Remove left the folder behind")
	}
}

func TestDisk_RemoveRootRefused(t *testing.T) {
	d := NewDisk(t.TempDir(), nil)
	if err := d.Remove(context.Background(), "/"); !errors.Is(err, ErrStoreFailure) {
		t.Errorf("Remove(/) = %v, want ErrStoreFailure", err)
	}
}

func TestDisk_TraversalStaysInsideRoot(t *testing.T) {
	root := t.TempDir()
	d := NewDisk(filepath.Join(root, "ws"), nil)
	ctx := context.Background()

	if err := d.Write(ctx, "/../escape.txt", []byte("x")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "escape.txt")); err == nil {
		t.Error("write escaped the store root")
	}
	if !d.Exists(ctx, "/escape.txt") {
		t.Error("expected the write to land at the root of the store")
	}
}

func TestDisk_ListSkipsExcluded(t *testing.T) {
	root := t.TempDir()
	d := NewDisk(root, []string{"node_modules", ".*"})
	ctx := context.Background()
	_ = d.Write(ctx, "/a.ts", []byte("a"))
	_ = d.Write(ctx, "/node_modules/x/index.js", []byte("x"))
	_ = d.Write(ctx, "/.env", []byte("SECRET=1"))
	_ = d.MakeDir(ctx, "/docs")

	entries, err := d.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	got := make(map[string]bool)
	for _, e := range entries {
		got[e.Path] = e.IsDir
	}
	if len(got) != 2 {
		t.Errorf("List = %v, want /a.ts and /docs only", got)
	}
	if isDir, ok := got["/docs"]; !ok || !isDir {
		t.Error("expected /docs folder")
	}
	if isDir, ok := got["/a.ts"]; !ok || isDir {
		t.Error("expected /a.ts file")
	}
}

func TestGit_Read(t *testing.T) {
	requireGit(t)
	dir := setupTestRepo(t)
	g := NewGit(dir, "HEAD")
	ctx := context.Background()

	data, err := g.Read(ctx, "/src/main.go")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(data) != "package main\n" {
		t.Errorf("Read = %q", data)
	}

	data, err = g.Read(ctx, "/missing.md")
	if err != nil {
		t.Fatalf("Read missing failed: %v", err)
	}
	if string(data) != "# Markdown File\n\n" {
		t.Errorf("Read missing = %q, want markdown template", data)
	}
}

func TestGit_Stat(t *testing.T) {
	requireGit(t)
	g := NewGit(setupTestRepo(t), "HEAD")
	st, err := g.Stat(context.Background(), "/README.md")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if st.Size != int64(len("# README\n")) {
		t.Errorf("Size = %d", st.Size)
	}
	if st.LastModifiedAt.IsZero() {
		t.Error("expected commit time")
	}
}

func TestGit_List(t *testing.T) {
	requireGit(t)
	g := NewGit(setupTestRepo(t), "HEAD")
	entries, err := g.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	got := make(map[string]bool)
	for _, e := range entries {
		got[e.Path] = e.IsDir
		t.Logf("  entry: %s (dir=%v)", e.Path, e.IsDir)
	}
	for path, isDir := range map[string]bool{"/README.md": false, "/src": true, "/src/main.go": false} {
		if d, ok := got[path]; !ok || d != isDir {
			t.Errorf("missing %s (dir=%v)", path, isDir)
		}
	}
}

func TestGit_ReadOnly(t *testing.T) {
	requireGit(t)
	g := NewGit(setupTestRepo(t), "HEAD")
	ctx := context.Background()

	err := g.Write(ctx, "/README.md", []byte("x"))
	if !errors.Is(err, ErrReadOnly) || !errors.Is(err, ErrStoreFailure) {
		t.Errorf("Write = %v, want read-only store failure", err)
	}
	if err := g.Remove(ctx, "/README.md"); !errors.Is(err, ErrReadOnly) {
		t.Errorf("Remove = %v, want ErrReadOnly", err)
	}
}

func TestGit_InvalidRef(t *testing.T) {
	requireGit(t)
	g := NewGit(setupTestRepo(t), "nonexistent-branch")
	if _, err := g.List(context.Background()); err == nil {
		t.Error("expected error for invalid ref")
	}
}

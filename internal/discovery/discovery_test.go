package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/contextkit/contextkit/internal/models"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestDiscoverDeterministicOrderAndHash(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b.go", "package b")
	writeFile(t, root, "a.go", "package a")
	writeFile(t, root, "node_modules/x.go", "package x")

	src := models.Source{ID: "s1", RootPath: root, Include: []string{"**/*.go"}, Exclude: []string{"node_modules/**"}}
	files, skipped, err := Discover(src, Options{})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d (%v)", len(files), files)
	}
	if files[0].RelPath != "a.go" || files[1].RelPath != "b.go" {
		t.Errorf("expected lexicographic order a.go, b.go; got %s, %s", files[0].RelPath, files[1].RelPath)
	}
	for _, f := range files {
		if f.ContentHash == "" {
			t.Errorf("expected non-empty content hash for %s", f.RelPath)
		}
	}
	_ = skipped
}

func TestDiscoverSkipsBinaryAndOversized(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "bin.dat", "hello\x00world")
	path := filepath.Join(root, "big.go")
	big := make([]byte, 100)
	if err := os.WriteFile(path, big, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	src := models.Source{ID: "s1", RootPath: root}
	files, skipped, err := Discover(src, Options{MaxFileSize: 10})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("expected 0 yielded files, got %d", len(files))
	}
	if len(skipped) != 2 {
		t.Errorf("expected 2 skipped files, got %d", len(skipped))
	}
}

func TestDiscoverMissingRootIsFatal(t *testing.T) {
	src := models.Source{ID: "s1", RootPath: "/nonexistent/path/contextkit-test"}
	_, _, err := Discover(src, Options{})
	if err == nil {
		t.Fatal("expected error for missing source root")
	}
}

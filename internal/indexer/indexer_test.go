package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/contextkit/contextkit/internal/embedder"
	"github.com/contextkit/contextkit/internal/models"
	"github.com/contextkit/contextkit/internal/store"
	"github.com/contextkit/contextkit/internal/tokenizer"
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

func TestRunIndexesNewFilesAndIsIdempotent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "package a\n\nfunc A() {}\n")

	st, err := store.Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer st.Close()

	src := models.Source{ID: "s1", RootPath: root}
	prov := embedder.NewLocal(16)
	counter := tokenizer.New()

	stats, err := Run(context.Background(), st, src, prov, counter, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.FilesAdded != 1 {
		t.Errorf("expected 1 file added, got %d", stats.FilesAdded)
	}

	chunks, err := st.ListChunks("s1")
	if err != nil {
		t.Fatalf("ListChunks: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("expected at least one chunk to be stored")
	}

	stats2, err := Run(context.Background(), st, src, prov, counter, Options{})
	if err != nil {
		t.Fatalf("Run (rerun): %v", err)
	}
	if stats2.FilesUnchanged != 1 || stats2.FilesAdded != 0 {
		t.Errorf("expected rerun to see the file as unchanged, got %+v", stats2)
	}
}

func TestRunDetectsRemovedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "package a\n")
	writeFile(t, root, "b.go", "package b\n")

	st, err := store.Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer st.Close()

	src := models.Source{ID: "s1", RootPath: root}
	prov := embedder.NewLocal(16)
	counter := tokenizer.New()

	if _, err := Run(context.Background(), st, src, prov, counter, Options{}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if err := os.Remove(filepath.Join(root, "b.go")); err != nil {
		t.Fatalf("remove: %v", err)
	}

	stats, err := Run(context.Background(), st, src, prov, counter, Options{})
	if err != nil {
		t.Fatalf("Run (after removal): %v", err)
	}
	if stats.FilesRemoved != 1 {
		t.Errorf("expected 1 file removed, got %d", stats.FilesRemoved)
	}
}

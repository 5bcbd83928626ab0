package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/contextkit/contextkit/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "index.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsertAndGetSource(t *testing.T) {
	s := openTestStore(t)
	src := models.Source{ID: "src1", RootPath: "/tmp/proj", Include: []string{"**/*.go"}, LastIndexed: time.Now()}
	if err := s.UpsertSource(src); err != nil {
		t.Fatalf("UpsertSource: %v", err)
	}
	got, err := s.GetSource("src1")
	if err != nil {
		t.Fatalf("GetSource: %v", err)
	}
	if got.RootPath != src.RootPath || len(got.Include) != 1 {
		t.Errorf("unexpected source: %+v", got)
	}
}

func TestGetSourceNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetSource("missing")
	if err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestReplaceFileChunksIsTransactionalAndIdempotent(t *testing.T) {
	s := openTestStore(t)
	src := models.Source{ID: "src1", RootPath: "/tmp/proj"}
	if err := s.UpsertSource(src); err != nil {
		t.Fatalf("UpsertSource: %v", err)
	}

	chunks := []models.Chunk{
		{ID: "chunk_a", SourceID: "src1", FilePath: "a.go", Content: "package a", StartLine: 1, EndLine: 1, Tokens: 2, Kind: models.ChunkKindTokenBlock},
	}
	if err := s.ReplaceFileChunks("src1", "a.go", "hash1", chunks); err != nil {
		t.Fatalf("ReplaceFileChunks: %v", err)
	}

	got, err := s.ListChunks("src1")
	if err != nil {
		t.Fatalf("ListChunks: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(got))
	}

	// re-running with the same chunks should not duplicate rows
	if err := s.ReplaceFileChunks("src1", "a.go", "hash1", chunks); err != nil {
		t.Fatalf("ReplaceFileChunks (rerun): %v", err)
	}
	got, err = s.ListChunks("src1")
	if err != nil {
		t.Fatalf("ListChunks: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected still 1 chunk after idempotent rerun, got %d", len(got))
	}

	gen, err := s.Generation()
	if err != nil {
		t.Fatalf("Generation: %v", err)
	}
	if gen < 2 {
		t.Errorf("expected generation to have bumped at least twice, got %d", gen)
	}
}

func TestDeleteFileRemovesChunks(t *testing.T) {
	s := openTestStore(t)
	if err := s.UpsertSource(models.Source{ID: "src1", RootPath: "/tmp"}); err != nil {
		t.Fatalf("UpsertSource: %v", err)
	}
	chunks := []models.Chunk{{ID: "chunk_a", SourceID: "src1", FilePath: "a.go", Content: "x", StartLine: 1, EndLine: 1}}
	if err := s.ReplaceFileChunks("src1", "a.go", "h1", chunks); err != nil {
		t.Fatalf("ReplaceFileChunks: %v", err)
	}
	if err := s.DeleteFile("src1", "a.go"); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	got, err := s.ListChunks("src1")
	if err != nil {
		t.Fatalf("ListChunks: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected 0 chunks after delete, got %d", len(got))
	}
}

func TestCacheGetPutClear(t *testing.T) {
	s := openTestStore(t)
	if _, ok, err := s.CacheGet("k1"); err != nil || ok {
		t.Fatalf("expected cold-cache miss, got ok=%v err=%v", ok, err)
	}
	if err := s.CachePut("k1", []byte("value")); err != nil {
		t.Fatalf("CachePut: %v", err)
	}
	v, ok, err := s.CacheGet("k1")
	if err != nil || !ok || string(v) != "value" {
		t.Fatalf("expected cache hit 'value', got ok=%v v=%q err=%v", ok, v, err)
	}
	if err := s.CacheClear(); err != nil {
		t.Fatalf("CacheClear: %v", err)
	}
	if _, ok, _ := s.CacheGet("k1"); ok {
		t.Error("expected cache miss after clear")
	}
}

func TestRecordAndGetHistory(t *testing.T) {
	s := openTestStore(t)
	entry := models.HistoryEntry{RunID: "run1", Query: "how does auth work", Budget: 4000, Mode: "balanced", Format: "markdown", Sources: []string{"src1"}, ExecutedAt: time.Now(), TotalToken: 1200, NumChunks: 5}
	if err := s.RecordQuery(entry); err != nil {
		t.Fatalf("RecordQuery: %v", err)
	}
	hist, err := s.GetHistory(0)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(hist) != 1 || hist[0].RunID != "run1" || len(hist[0].Sources) != 1 {
		t.Fatalf("unexpected history: %+v", hist)
	}
}

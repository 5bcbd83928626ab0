package budget

import (
	"testing"

	"github.com/contextkit/contextkit/internal/models"
	"github.com/contextkit/contextkit/internal/tokenizer"
)

func TestFitSkipsOverflowingChunks(t *testing.T) {
	ranked := []models.Scored{
		{Chunk: models.Chunk{ID: "a", Tokens: 100}, Score: 0.9},
		{Chunk: models.Chunk{ID: "b", Tokens: 50}, Score: 0.8},
		{Chunk: models.Chunk{ID: "c", Tokens: 60}, Score: 0.7},
	}
	selected, skipped := Fit(ranked, 150)
	if len(selected) != 2 {
		t.Fatalf("expected 2 selected chunks, got %d", len(selected))
	}
	if selected[0].Chunk.ID != "a" || selected[1].Chunk.ID != "b" {
		t.Errorf("expected a then b selected, got %+v", selected)
	}
	if skipped != 1 {
		t.Errorf("expected 1 skipped chunk, got %d", skipped)
	}
}

func TestFitNeverTruncatesAChunk(t *testing.T) {
	ranked := []models.Scored{{Chunk: models.Chunk{ID: "a", Tokens: 500}, Score: 1}}
	selected, skipped := Fit(ranked, 100)
	if len(selected) != 0 || skipped != 1 {
		t.Fatalf("expected the oversized chunk to be skipped whole, got selected=%d skipped=%d", len(selected), skipped)
	}
}

func TestMergeOverlappingRangesInSameFile(t *testing.T) {
	counter := tokenizer.New()
	full := "line1\nline2\nline3\nline4\nline5\n"
	selected := []models.Scored{
		{Chunk: models.Chunk{FilePath: "f.go", StartLine: 1, EndLine: 2, Content: "line1\nline2"}, Score: 0.9},
		{Chunk: models.Chunk{FilePath: "f.go", StartLine: 2, EndLine: 3, Content: "line2\nline3"}, Score: 0.8},
	}
	merged := Merge(selected, map[string]string{"f.go": full}, counter)
	if len(merged) != 1 {
		t.Fatalf("expected overlapping chunks to merge into 1, got %d", len(merged))
	}
	if merged[0].Chunk.StartLine != 1 || merged[0].Chunk.EndLine != 3 {
		t.Errorf("expected merged range 1-3, got %d-%d", merged[0].Chunk.StartLine, merged[0].Chunk.EndLine)
	}
	if merged[0].Score != 0.9 {
		t.Errorf("expected merged score to be max of inputs (0.9), got %f", merged[0].Score)
	}
}

func TestMergeKeepsNonTouchingRangesSeparate(t *testing.T) {
	counter := tokenizer.New()
	selected := []models.Scored{
		{Chunk: models.Chunk{FilePath: "f.go", StartLine: 1, EndLine: 2, Content: "a"}, Score: 0.9},
		{Chunk: models.Chunk{FilePath: "f.go", StartLine: 10, EndLine: 12, Content: "b"}, Score: 0.8},
	}
	merged := Merge(selected, nil, counter)
	if len(merged) != 2 {
		t.Fatalf("expected distant ranges to stay separate, got %d", len(merged))
	}
}

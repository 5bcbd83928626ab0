package retriever

import (
	"testing"

	"github.com/contextkit/contextkit/internal/models"
)

func TestRetrieveExactRanksBySimilarity(t *testing.T) {
	query := []float32{1, 0, 0}
	candidates := []models.Chunk{
		{ID: "a", FilePath: "a.go", Embedding: []float32{1, 0, 0}},
		{ID: "b", FilePath: "b.go", Embedding: []float32{0, 1, 0}},
		{ID: "c", FilePath: "c.go", Embedding: []float32{0.7, 0.7, 0}},
	}
	results := Retrieve(query, candidates, Options{TopK: 2})
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Chunk.ID != "a" {
		t.Errorf("expected closest vector 'a' first, got %s", results[0].Chunk.ID)
	}
	if results[0].Similarity < results[1].Similarity {
		t.Errorf("expected descending similarity order, got %f then %f", results[0].Similarity, results[1].Similarity)
	}
}

func TestRetrieveFiltersBySource(t *testing.T) {
	query := []float32{1, 0}
	candidates := []models.Chunk{
		{ID: "a", SourceID: "s1", Embedding: []float32{1, 0}},
		{ID: "b", SourceID: "s2", Embedding: []float32{1, 0}},
	}
	results := Retrieve(query, candidates, Options{SourceIDs: []string{"s1"}})
	if len(results) != 1 || results[0].Chunk.ID != "a" {
		t.Fatalf("expected only source s1 chunk, got %+v", results)
	}
}

func TestRetrieveSkipsDimensionMismatch(t *testing.T) {
	query := []float32{1, 0, 0}
	candidates := []models.Chunk{
		{ID: "a", Embedding: []float32{1, 0}},
	}
	results := Retrieve(query, candidates, Options{})
	if len(results) != 0 {
		t.Errorf("expected mismatched-dimension chunk to be skipped, got %d results", len(results))
	}
}

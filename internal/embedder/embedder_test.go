package embedder

import (
	"context"
	"testing"
)

func TestLocalEmbedDeterministicAndNormalized(t *testing.T) {
	l := NewLocal(32)
	v1, err := l.Embed(context.Background(), []string{"func Greet() {}"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	v2, err := l.Embed(context.Background(), []string{"func Greet() {}"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(v1[0]) != 32 {
		t.Fatalf("expected 32 dims, got %d", len(v1[0]))
	}
	for i := range v1[0] {
		if v1[0][i] != v2[0][i] {
			t.Fatalf("expected deterministic embedding, differed at %d: %v vs %v", i, v1[0][i], v2[0][i])
		}
	}

	var sumSq float64
	for _, x := range v1[0] {
		sumSq += float64(x) * float64(x)
	}
	if sumSq < 0.99 || sumSq > 1.01 {
		t.Errorf("expected unit-normalized vector, sum of squares = %f", sumSq)
	}
}

func TestEmbedAllBatchesAndReportsProgress(t *testing.T) {
	l := NewLocal(8)
	texts := make([]string, 40)
	for i := range texts {
		texts[i] = "line"
	}

	var lastDone, lastTotal int
	vectors, err := EmbedAll(context.Background(), l, texts, BatchOptions{BatchSize: 16}, func(done, total int) {
		lastDone, lastTotal = done, total
	})
	if err != nil {
		t.Fatalf("EmbedAll: %v", err)
	}
	if len(vectors) != 40 {
		t.Fatalf("expected 40 vectors, got %d", len(vectors))
	}
	if lastDone != 40 || lastTotal != 40 {
		t.Errorf("expected final progress 40/40, got %d/%d", lastDone, lastTotal)
	}
}

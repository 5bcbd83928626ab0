package ranker

import (
	"testing"

	"github.com/contextkit/contextkit/internal/imports"
	"github.com/contextkit/contextkit/internal/models"
)

func TestRankOrdersByCompositeScore(t *testing.T) {
	candidates := []models.Scored{
		{Chunk: models.Chunk{FilePath: "auth/login.go", Content: "func Login() {}"}, Similarity: 0.5},
		{Chunk: models.Chunk{FilePath: "unrelated.md", Content: "nothing here"}, Similarity: 0.5},
	}
	results := Rank(candidates, Options{Query: "login auth"})
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Chunk.FilePath != "auth/login.go" {
		t.Errorf("expected auth/login.go to rank first, got %s", results[0].Chunk.FilePath)
	}
	if results[0].Score <= results[1].Score {
		t.Errorf("expected higher score for path+content match, got %f vs %f", results[0].Score, results[1].Score)
	}
}

func TestRankStopwordsDoNotContributeToMatch(t *testing.T) {
	candidates := []models.Scored{
		{Chunk: models.Chunk{FilePath: "the/the.go", Content: "the the the"}, Similarity: 0.1},
	}
	results := Rank(candidates, Options{Query: "the"})
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Signals.PathMatch != 0 || results[0].Signals.ContentMatch != 0 {
		t.Errorf("expected stopword query to contribute no match signal, got %+v", results[0].Signals)
	}
}

func TestRankImportBoostAppliesWithinDepth(t *testing.T) {
	graph := imports.Graph{
		"a.go": {"b.go"},
		"b.go": {"c.go"},
		"c.go": {"d.go"},
	}
	candidates := []models.Scored{
		{Chunk: models.Chunk{FilePath: "b.go"}, Similarity: 0.2},
		{Chunk: models.Chunk{FilePath: "d.go"}, Similarity: 0.2},
	}
	results := Rank(candidates, Options{ImportGraph: graph, SeedFiles: []string{"a.go"}})

	var bBoosted, dBoosted bool
	for _, r := range results {
		if r.Chunk.FilePath == "b.go" {
			bBoosted = r.Signals.ImportBoosted
		}
		if r.Chunk.FilePath == "d.go" {
			dBoosted = r.Signals.ImportBoosted
		}
	}
	if !bBoosted {
		t.Error("expected b.go (depth 1) to be import-boosted")
	}
	if dBoosted {
		t.Error("expected d.go (depth 3) to not be import-boosted within max depth 2")
	}
}

func TestRankSymbolMatchBoostsScore(t *testing.T) {
	symbolsByFile := map[string][]models.Symbol{
		"auth.go": {{Name: "Authenticate", FilePath: "auth.go"}},
	}
	candidates := []models.Scored{
		{Chunk: models.Chunk{FilePath: "auth.go", Content: "package auth"}, Similarity: 0.3},
	}
	results := Rank(candidates, Options{Query: "authenticate", SymbolsByFile: symbolsByFile})
	if results[0].Signals.SymbolMatch <= 0 {
		t.Errorf("expected positive symbol match, got %+v", results[0].Signals)
	}
}

func TestRankSymbolMatchExactNameScoresOne(t *testing.T) {
	symbolsByFile := map[string][]models.Symbol{
		"auth.go": {{Name: "Login", FilePath: "auth.go"}},
	}
	candidates := []models.Scored{
		{Chunk: models.Chunk{FilePath: "auth.go", Content: "package auth"}, Similarity: 0.3},
	}
	results := Rank(candidates, Options{Query: "login", SymbolsByFile: symbolsByFile})
	if results[0].Signals.SymbolMatch != 1 {
		t.Errorf("expected exact symbol name match to score 1, got %f", results[0].Signals.SymbolMatch)
	}
}

func TestRankSymbolMatchSubstringScoresFraction(t *testing.T) {
	symbolsByFile := map[string][]models.Symbol{
		"auth.go": {{Name: "LoginHandler", FilePath: "auth.go"}},
	}
	candidates := []models.Scored{
		{Chunk: models.Chunk{FilePath: "auth.go", Content: "package auth"}, Similarity: 0.3},
	}
	results := Rank(candidates, Options{Query: "login", SymbolsByFile: symbolsByFile})
	if results[0].Signals.SymbolMatch != 1 {
		t.Errorf("expected substring match of the only token to still score 1, got %f", results[0].Signals.SymbolMatch)
	}

	candidates2 := []models.Scored{
		{Chunk: models.Chunk{FilePath: "auth.go", Content: "package auth"}, Similarity: 0.3},
	}
	results2 := Rank(candidates2, Options{Query: "login unmatched", SymbolsByFile: symbolsByFile})
	if results2[0].Signals.SymbolMatch != 0.5 {
		t.Errorf("expected partial substring match to score 0.5, got %f", results2[0].Signals.SymbolMatch)
	}
}

func TestTokenizeQueryDropsShortTokens(t *testing.T) {
	tokens := tokenizeQuery("go to a db in ci")
	for _, tok := range tokens {
		if len(tok) < 3 {
			t.Errorf("expected no tokens shorter than 3 chars, got %q in %v", tok, tokens)
		}
	}
	found := false
	for _, tok := range tokens {
		if tok == "db" {
			found = true
		}
	}
	if found {
		t.Errorf("expected 2-char token %q to be dropped, got %v", "db", tokens)
	}
}

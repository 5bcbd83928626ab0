package symbols

import (
	"testing"

	"github.com/contextkit/contextkit/internal/models"
)

func TestExtractGoFunction(t *testing.T) {
	chunk := models.Chunk{
		ID:        "chunk_1",
		FilePath:  "widget.go",
		StartLine: 10,
		Content:   "func Greet(name string) string {\n\treturn name\n}",
	}
	syms := Extract(chunk)
	if len(syms) != 1 {
		t.Fatalf("expected 1 symbol, got %d", len(syms))
	}
	if syms[0].Name != "Greet" || syms[0].Kind != models.SymbolFunction {
		t.Errorf("unexpected symbol: %+v", syms[0])
	}
	if syms[0].StartLine != 10 || syms[0].EndLine != 12 {
		t.Errorf("expected absolute lines 10-12, got %d-%d", syms[0].StartLine, syms[0].EndLine)
	}
}

func TestExtractUnsupportedExtensionReturnsEmpty(t *testing.T) {
	chunk := models.Chunk{FilePath: "README.md", StartLine: 1, Content: "# Title\n"}
	if syms := Extract(chunk); len(syms) != 0 {
		t.Errorf("expected no symbols for unsupported extension, got %d", len(syms))
	}
}

func TestSearchExactBeforeFuzzy(t *testing.T) {
	all := []models.Symbol{
		{Name: "GreetAll", FilePath: "b.go", StartLine: 5},
		{Name: "Greet", FilePath: "a.go", StartLine: 1},
	}
	results := Search(all, "Greet", false, 0)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if !results[0].Exact || results[0].Symbol.Name != "Greet" {
		t.Errorf("expected exact match first, got %+v", results[0])
	}
	if results[1].Exact {
		t.Errorf("expected second match to be fuzzy, got %+v", results[1])
	}
}

func TestSearchExactOnlyExcludesFuzzy(t *testing.T) {
	all := []models.Symbol{{Name: "GreetAll", FilePath: "b.go"}}
	results := Search(all, "Greet", true, 0)
	if len(results) != 0 {
		t.Errorf("expected no results with exactOnly, got %d", len(results))
	}
}

func TestSearchLimit(t *testing.T) {
	all := []models.Symbol{
		{Name: "AGreet", FilePath: "a.go"},
		{Name: "BGreet", FilePath: "b.go"},
		{Name: "CGreet", FilePath: "c.go"},
	}
	results := Search(all, "Greet", false, 2)
	if len(results) != 2 {
		t.Errorf("expected limit to cap results at 2, got %d", len(results))
	}
}

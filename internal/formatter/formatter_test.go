package formatter

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/contextkit/contextkit/internal/models"
)

func sampleSelection() models.Selection {
	return models.Selection{
		Query: "how does auth work",
		Stats: models.SelectionStats{TotalTokens: 42, ChunksIncluded: 1, FilesIncluded: 1, TimeMS: 5},
		Items: []models.Scored{
			{
				Chunk:      models.Chunk{FilePath: "auth.go", StartLine: 1, EndLine: 3, Content: "func Login() {}"},
				Similarity: 0.9,
				Score:      0.88,
				Signals:    models.Signals{Similarity: 0.9, PathMatch: 1},
			},
		},
	}
}

func TestRenderMarkdownIncludesHeaderAndFence(t *testing.T) {
	out, err := Render(sampleSelection(), Options{Format: FormatMarkdown})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "auth.go (lines 1-3)") {
		t.Errorf("expected file header, got: %s", out)
	}
	if !strings.Contains(out, "```go") {
		t.Errorf("expected go fenced block, got: %s", out)
	}
}

func TestRenderMarkdownExplainAddsScoringDetails(t *testing.T) {
	out, err := Render(sampleSelection(), Options{Format: FormatMarkdown, Explain: true})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "Scoring Details") {
		t.Errorf("expected scoring details with --explain, got: %s", out)
	}
}

func TestRenderJSONRoundtrips(t *testing.T) {
	out, err := Render(sampleSelection(), Options{Format: FormatJSON})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	var doc jsonSelection
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("expected valid json, got error: %v\n%s", err, out)
	}
	if doc.Query != "how does auth work" {
		t.Errorf("unexpected roundtrip query: %q", doc.Query)
	}
	if len(doc.Chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(doc.Chunks))
	}
	c := doc.Chunks[0]
	if c.File != "auth.go" || c.Lines != [2]int{1, 3} {
		t.Errorf("unexpected chunk shape: %+v", c)
	}
	if doc.Stats.TotalTokens != 42 {
		t.Errorf("expected stats to carry through, got %+v", doc.Stats)
	}
}

func TestRenderJSONContextMatchesMarkdown(t *testing.T) {
	sel := sampleSelection()
	jsonOut, err := Render(sel, Options{Format: FormatJSON})
	if err != nil {
		t.Fatalf("Render json: %v", err)
	}
	var doc jsonSelection
	if err := json.Unmarshal([]byte(jsonOut), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	mdOut, err := Render(sel, Options{Format: FormatMarkdown})
	if err != nil {
		t.Fatalf("Render markdown: %v", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(mdOut), strings.TrimSpace(doc.Context)) {
		t.Errorf("P10: json context should reproduce the markdown chunk body up to whitespace\ncontext: %q\nmarkdown: %q", doc.Context, mdOut)
	}
}

func TestRenderXMLEscapesAndWrapsContent(t *testing.T) {
	sel := sampleSelection()
	sel.Items[0].Chunk.Content = "if a < b { return }"
	out, err := Render(sel, Options{Format: FormatXML})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "<![CDATA[") {
		t.Errorf("expected CDATA-wrapped content, got: %s", out)
	}
	if !strings.Contains(out, `file_path="auth.go"`) {
		t.Errorf("expected file_path attribute, got: %s", out)
	}
}

func TestRenderPlainUsesCommentHeader(t *testing.T) {
	out, err := Render(sampleSelection(), Options{Format: FormatPlain})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.HasPrefix(out, "// auth.go (lines 1-3)") {
		t.Errorf("expected plain text comment header, got: %s", out)
	}
}

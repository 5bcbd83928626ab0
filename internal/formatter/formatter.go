// Package formatter renders a finished Selection into the output formats
// consumed downstream by an LLM prompt or another tool: markdown (the
// default), xml, json, and plain text.
package formatter

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/contextkit/contextkit/internal/models"
)

// Format names a supported output format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatXML      Format = "xml"
	FormatJSON     Format = "json"
	FormatPlain    Format = "plain"
)

// Options configures rendering.
type Options struct {
	Format  Format
	Explain bool // include per-chunk scoring details
}

// Render produces the selection in the requested format. An unrecognized
// format falls back to markdown, matching the CLI default.
func Render(sel models.Selection, opts Options) (string, error) {
	switch opts.Format {
	case FormatXML:
		return renderXML(sel, opts)
	case FormatJSON:
		return renderJSON(sel)
	case FormatPlain:
		return renderPlain(sel), nil
	default:
		return renderMarkdown(sel, opts), nil
	}
}

func renderMarkdown(sel models.Selection, opts Options) string {
	var b strings.Builder
	b.WriteString(renderMarkdownChunks(sel.Items))

	fmt.Fprintf(&b, "---\n\n**Stats:** %d chunks, %d files, %d tokens (%dms)\n",
		sel.Stats.ChunksIncluded, sel.Stats.FilesIncluded, sel.Stats.TotalTokens, sel.Stats.TimeMS)
	if sel.Stats.ExcludedCount > 0 {
		fmt.Fprintf(&b, "%d chunks excluded by budget.\n", sel.Stats.ExcludedCount)
	}
	if opts.Explain {
		b.WriteString(explainSection(sel.Items))
	}
	return b.String()
}

// renderMarkdownChunks renders every chunk's `## <path> (lines S-E)`
// header and fenced code block, in order, with no stats or explain
// section appended. This is also the json format's `context` field, so
// the two formats agree on the code content up to whitespace (P10).
func renderMarkdownChunks(items []models.Scored) string {
	var b strings.Builder
	for _, item := range items {
		c := item.Chunk
		fmt.Fprintf(&b, "## %s (lines %d-%d)\n\n", c.FilePath, c.StartLine, c.EndLine)
		fmt.Fprintf(&b, "```%s\n%s\n```\n\n", fenceLang(c.FilePath), c.Content)
	}
	return b.String()
}

// explainSection appends a "Scoring Details" section listing every
// included chunk's five signals and final score as percentages
// (markdown + --explain only).
func explainSection(items []models.Scored) string {
	var b strings.Builder
	b.WriteString("\n## Scoring Details\n\n")
	for _, item := range items {
		c := item.Chunk
		s := item.Signals
		fmt.Fprintf(&b, "- %s (lines %d-%d): score=%.0f%% similarity=%.0f%% path=%.0f%% content=%.0f%% symbol=%.0f%% file_type=%.0f%%\n",
			c.FilePath, c.StartLine, c.EndLine,
			item.Score*100, s.Similarity*100, s.PathMatch*100, s.ContentMatch*100, s.SymbolMatch*100, s.FileTypeBoost*100)
	}
	return b.String()
}

func fenceLang(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".go":
		return "go"
	case ".ts", ".tsx":
		return "typescript"
	case ".js", ".jsx", ".mjs":
		return "javascript"
	case ".py":
		return "python"
	case ".rs":
		return "rust"
	case ".md":
		return "markdown"
	default:
		return ""
	}
}

func renderPlain(sel models.Selection) string {
	var b strings.Builder
	for _, item := range sel.Items {
		c := item.Chunk
		fmt.Fprintf(&b, "// %s (lines %d-%d)\n%s\n\n", c.FilePath, c.StartLine, c.EndLine, c.Content)
	}
	return b.String()
}

type xmlSelection struct {
	XMLName xml.Name  `xml:"selection"`
	Query   string    `xml:"query,attr"`
	Chunks  []xmlChunk `xml:"chunk"`
	Stats   xmlStats  `xml:"stats"`
}

type xmlChunk struct {
	FilePath  string  `xml:"file_path,attr"`
	StartLine int     `xml:"start_line,attr"`
	EndLine   int     `xml:"end_line,attr"`
	Score     float64 `xml:"score,attr,omitempty"`
	Content   string  `xml:",cdata"`
}

type xmlStats struct {
	TotalTokens    int `xml:"total_tokens"`
	ChunksIncluded int `xml:"chunks_included"`
	FilesIncluded  int `xml:"files_included"`
}

func renderXML(sel models.Selection, opts Options) (string, error) {
	doc := xmlSelection{
		Query: sel.Query,
		Stats: xmlStats{
			TotalTokens:    sel.Stats.TotalTokens,
			ChunksIncluded: sel.Stats.ChunksIncluded,
			FilesIncluded:  sel.Stats.FilesIncluded,
		},
	}
	for _, item := range sel.Items {
		c := item.Chunk
		score := 0.0
		if opts.Explain {
			score = item.Score
		}
		doc.Chunks = append(doc.Chunks, xmlChunk{
			FilePath:  c.FilePath,
			StartLine: c.StartLine,
			EndLine:   c.EndLine,
			Score:     score,
			Content:   c.Content,
		})
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("formatter: marshaling xml: %w", err)
	}
	return xml.Header + string(out), nil
}

// jsonSelection is the wire-format DTO for json output: a separate
// shape from models.Selection, since the wire format keys (file, lines,
// score) and the in-memory model (file_path, start_line/end_line,
// signals) intentionally diverge.
type jsonSelection struct {
	Query   string      `json:"query"`
	Context string      `json:"context"`
	Chunks  []jsonChunk `json:"chunks"`
	Stats   jsonStats   `json:"stats"`
}

type jsonChunk struct {
	File   string  `json:"file"`
	Lines  [2]int  `json:"lines"`
	Tokens int     `json:"tokens"`
	Score  float64 `json:"score"`
}

type jsonStats struct {
	TotalTokens      int   `json:"total_tokens"`
	ChunksConsidered int   `json:"chunks_considered"`
	ChunksIncluded   int   `json:"chunks_included"`
	FilesIncluded    int   `json:"files_included"`
	TimeMS           int64 `json:"time_ms"`
}

func renderJSON(sel models.Selection) (string, error) {
	doc := jsonSelection{
		Query:   sel.Query,
		Context: renderMarkdownChunks(sel.Items),
		Stats: jsonStats{
			TotalTokens:      sel.Stats.TotalTokens,
			ChunksConsidered: sel.Stats.ChunksConsidered,
			ChunksIncluded:   sel.Stats.ChunksIncluded,
			FilesIncluded:    sel.Stats.FilesIncluded,
			TimeMS:           sel.Stats.TimeMS,
		},
	}
	for _, item := range sel.Items {
		c := item.Chunk
		doc.Chunks = append(doc.Chunks, jsonChunk{
			File:   c.FilePath,
			Lines:  [2]int{c.StartLine, c.EndLine},
			Tokens: c.Tokens,
			Score:  item.Score,
		})
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("formatter: marshaling json: %w", err)
	}
	return string(out), nil
}

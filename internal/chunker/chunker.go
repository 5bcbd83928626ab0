// Package chunker splits a file's content into Chunks, either by a fixed
// token-count sliding window or, where the file's language is recognized,
// by top-level declaration boundaries.
package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"

	"github.com/contextkit/contextkit/internal/langscan"
	"github.com/contextkit/contextkit/internal/models"
	"github.com/contextkit/contextkit/internal/tokenizer"
)

// DefaultChunkSize is the target token count per token-block chunk.
const DefaultChunkSize = 500

// DefaultOverlap is how many trailing tokens of one token-block chunk are
// repeated at the start of the next, so a window boundary never strands a
// reference from its definition.
const DefaultOverlap = 50

// minHeaderTokens is the floor below which a leading header block (module
// doc comment, imports) isn't worth its own chunk.
const minHeaderTokens = 20

// Options configures a chunking run.
type Options struct {
	ChunkSize int
	Overlap   int
	UseSyntax bool
}

func (o Options) withDefaults() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.Overlap < 0 || o.Overlap >= o.ChunkSize {
		o.Overlap = DefaultOverlap
	}
	return o
}

// Chunk splits content into Chunks belonging to sourceID/filePath. When
// opts.UseSyntax is set and the file's extension is recognized by
// internal/langscan, declarations become individual chunks; otherwise (or
// on an unrecognized extension) content is split into token-count blocks.
func Chunk(sourceID, filePath, content string, counter tokenizer.Counter, opts Options) []models.Chunk {
	opts = opts.withDefaults()
	lines := strings.Split(content, "\n")

	if opts.UseSyntax {
		ext := strings.ToLower(filepath.Ext(filePath))
		if decls, ok := langscan.Scan(ext, lines); ok && len(decls) > 0 {
			return syntaxAwareChunks(sourceID, filePath, lines, decls, counter)
		}
	}

	return tokenBlockChunks(sourceID, filePath, lines, counter, opts)
}

func syntaxAwareChunks(sourceID, filePath string, lines []string, decls []langscan.Decl, counter tokenizer.Counter) []models.Chunk {
	var chunks []models.Chunk

	if first := decls[0].StartLine; first > 1 {
		header := strings.Join(lines[0:first-1], "\n")
		if counter.Count(header) > minHeaderTokens {
			chunks = append(chunks, newChunk(sourceID, filePath, header, 1, first-1, models.ChunkKindHeader, "", false, counter))
		}
	}

	for _, d := range decls {
		start := d.StartLine
		end := d.EndLine
		if end > len(lines) {
			end = len(lines)
		}
		body := strings.Join(lines[start-1:end], "\n")
		chunks = append(chunks, newChunk(sourceID, filePath, body, start, end, mapKind(d.Kind), d.Name, d.Exported, counter))
	}

	return chunks
}

// IsDeclarationKind reports whether kind is a header or declaration-level
// chunk kind, the filter map mode applies: signature-only views restrict
// a selection to these kinds instead of token-block prose.
func IsDeclarationKind(kind models.ChunkKind) bool {
	switch kind {
	case models.ChunkKindHeader, models.ChunkKindFunction, models.ChunkKindClass, models.ChunkKindInterface, models.ChunkKindType:
		return true
	default:
		return false
	}
}

func mapKind(k langscan.Kind) models.ChunkKind {
	switch k {
	case langscan.KindFunction, langscan.KindMethod:
		return models.ChunkKindFunction
	case langscan.KindClass:
		return models.ChunkKindClass
	case langscan.KindInterface:
		return models.ChunkKindInterface
	default:
		return models.ChunkKindType
	}
}

func tokenBlockChunks(sourceID, filePath string, lines []string, counter tokenizer.Counter, opts Options) []models.Chunk {
	if len(lines) == 1 && lines[0] == "" {
		return nil
	}

	lineTokens := make([]int, len(lines))
	for i, l := range lines {
		lineTokens[i] = counter.Count(l)
	}

	var chunks []models.Chunk
	start := 0
	for start < len(lines) {
		end := start
		total := 0
		for end < len(lines) {
			next := total + lineTokens[end]
			if next > opts.ChunkSize && end > start {
				break
			}
			total += lineTokens[end]
			end++
			if lineTokens[end-1] > opts.ChunkSize {
				// a single oversized line becomes its own chunk
				break
			}
		}
		if end == start {
			end = start + 1 // guarantee forward progress
		}

		body := strings.Join(lines[start:end], "\n")
		chunks = append(chunks, newChunk(sourceID, filePath, body, start+1, end, models.ChunkKindTokenBlock, "", false, counter))

		if end >= len(lines) {
			break
		}

		// step back by Overlap tokens' worth of lines for the next window
		back := end
		backTokens := 0
		for back > start && backTokens < opts.Overlap {
			backTokens += lineTokens[back-1]
			back--
		}
		if back <= start {
			back = end
		}
		start = back
	}

	return chunks
}

func newChunk(sourceID, filePath, content string, startLine, endLine int, kind models.ChunkKind, unitName string, exported bool, counter tokenizer.Counter) models.Chunk {
	return models.Chunk{
		ID:        stableID(sourceID, filePath, startLine, content),
		SourceID:  sourceID,
		FilePath:  filePath,
		Content:   content,
		StartLine: startLine,
		EndLine:   endLine,
		Tokens:    counter.Count(content),
		Kind:      kind,
		UnitName:  unitName,
		Exported:  exported,
	}
}

// stableID computes the deterministic chunk id: a chunk's id depends only
// on its content and position, never on wall-clock time or insertion
// order, so re-indexing an unchanged file reproduces the same ids.
func stableID(sourceID, filePath string, startLine int, content string) string {
	h := sha256.New()
	h.Write([]byte(sourceID))
	h.Write([]byte{0})
	h.Write([]byte(filePath))
	h.Write([]byte{0})
	h.Write([]byte(itoa(startLine)))
	h.Write([]byte{0})
	h.Write([]byte(content))
	return "chunk_" + hex.EncodeToString(h.Sum(nil))
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

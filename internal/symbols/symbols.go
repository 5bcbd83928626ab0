// Package symbols extracts named declarations (functions, classes,
// interfaces, types) from already-chunked content and supports exact and
// fuzzy name search over the extracted set.
package symbols

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/contextkit/contextkit/internal/langscan"
	"github.com/contextkit/contextkit/internal/models"
)

// Extract scans a chunk's content for top-level declarations and returns
// one Symbol per declaration, with line numbers translated back into the
// owning file's absolute numbering. An unrecognized extension yields an
// empty, non-error result: symbol extraction is best-effort coverage, not
// a required property of every chunk.
func Extract(chunk models.Chunk) []models.Symbol {
	ext := strings.ToLower(filepath.Ext(chunk.FilePath))
	lines := strings.Split(chunk.Content, "\n")
	decls, ok := langscan.Scan(ext, lines)
	if !ok {
		return nil
	}

	symbols := make([]models.Symbol, 0, len(decls))
	for _, d := range decls {
		symbols = append(symbols, models.Symbol{
			Name:      d.Name,
			Kind:      mapKind(d.Kind),
			StartLine: chunk.StartLine + d.StartLine - 1,
			EndLine:   chunk.StartLine + d.EndLine - 1,
			Signature: d.Signature,
			FilePath:  chunk.FilePath,
			ChunkID:   chunk.ID,
		})
	}
	return symbols
}

func mapKind(k langscan.Kind) models.SymbolKind {
	switch k {
	case langscan.KindFunction:
		return models.SymbolFunction
	case langscan.KindMethod:
		return models.SymbolMethod
	case langscan.KindClass:
		return models.SymbolClass
	case langscan.KindInterface:
		return models.SymbolInterface
	case langscan.KindConstant:
		return models.SymbolConstant
	default:
		return models.SymbolType
	}
}

// Match is a search result: the matched Symbol plus whether it was an
// exact (case-insensitive) name match rather than a substring match.
type Match struct {
	Symbol models.Symbol
	Exact  bool
}

// Search ranks symbols against a name query: exact matches first (sorted
// by file path then start line), then substring matches sorted by name
// length (shorter names are more specific) and then file path. When
// exactOnly is set, substring matches are excluded entirely.
func Search(all []models.Symbol, query string, exactOnly bool, limit int) []Match {
	q := strings.ToLower(query)

	var exact, fuzzy []models.Symbol
	for _, s := range all {
		name := strings.ToLower(s.Name)
		if name == q {
			exact = append(exact, s)
		} else if !exactOnly && strings.Contains(name, q) {
			fuzzy = append(fuzzy, s)
		}
	}

	sort.Slice(exact, func(i, j int) bool {
		return lessByPathThenLine(exact[i], exact[j])
	})
	sort.Slice(fuzzy, func(i, j int) bool {
		if len(fuzzy[i].Name) != len(fuzzy[j].Name) {
			return len(fuzzy[i].Name) < len(fuzzy[j].Name)
		}
		return lessByPathThenLine(fuzzy[i], fuzzy[j])
	})

	results := make([]Match, 0, len(exact)+len(fuzzy))
	for _, s := range exact {
		results = append(results, Match{Symbol: s, Exact: true})
	}
	for _, s := range fuzzy {
		results = append(results, Match{Symbol: s, Exact: false})
	}

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

func lessByPathThenLine(a, b models.Symbol) bool {
	if a.FilePath != b.FilePath {
		return a.FilePath < b.FilePath
	}
	return a.StartLine < b.StartLine
}

// Package ranker turns retriever similarity scores into a composite
// relevance score by blending in path, content, and symbol-name overlap
// with the query, an extension-based file-type boost, and an optional
// import-graph proximity boost.
package ranker

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/registry"

	"github.com/contextkit/contextkit/internal/imports"
	"github.com/contextkit/contextkit/internal/models"
)

const (
	weightSimilarity    = 0.55
	weightPathMatch     = 0.15
	weightContentMatch  = 0.15
	weightSymbolMatch   = 0.10
	weightFileTypeBoost = 0.05

	importBoost    = 0.08
	importMaxDepth = 2
)

var codeExts = map[string]bool{
	".go": true, ".py": true, ".ts": true, ".tsx": true, ".js": true, ".jsx": true, ".rs": true,
}

var wordRe = regexp.MustCompile(`[A-Za-z0-9_]+`)

var stopFilter analysis.TokenFilter

func init() {
	cache := registry.NewCache()
	if f, err := cache.TokenFilterNamed(en.StopName); err == nil {
		stopFilter = f
	}
}

// Options configures ranking.
type Options struct {
	Query         string
	SymbolsByFile map[string][]models.Symbol // file path -> symbols in that file, for symbol_match
	ImportGraph   imports.Graph               // forward import graph, for the import boost
	SeedFiles     []string                    // files of the retrieved candidates, the boost's BFS roots
}

// Rank scores each candidate and returns them sorted by descending
// composite score, with deterministic ties broken by similarity then
// (file path, start line).
func Rank(candidates []models.Scored, opts Options) []models.Scored {
	tokens := tokenizeQuery(opts.Query)
	boosted := importBoostedFiles(opts.ImportGraph, opts.SeedFiles)

	out := make([]models.Scored, len(candidates))
	for i, c := range candidates {
		sig := computeSignals(c, tokens, opts.SymbolsByFile)
		score := weightSimilarity*sig.Similarity +
			weightPathMatch*sig.PathMatch +
			weightContentMatch*sig.ContentMatch +
			weightSymbolMatch*sig.SymbolMatch +
			weightFileTypeBoost*sig.FileTypeBoost

		if boosted[c.Chunk.FilePath] {
			score += importBoost
			sig.ImportBoosted = true
		}
		if score > 1 {
			score = 1
		}

		out[i] = c
		out[i].Signals = sig
		out[i].Score = score
	}

	sortByScore(out)
	return out
}

func computeSignals(c models.Scored, tokens []string, symbolsByFile map[string][]models.Symbol) models.Signals {
	pathLower := strings.ToLower(c.Chunk.FilePath)
	contentLower := strings.ToLower(c.Chunk.Content)

	return models.Signals{
		Similarity:    clamp01(c.Similarity),
		PathMatch:     tokenOverlapRatio(tokens, pathLower),
		ContentMatch:  tokenOverlapRatio(tokens, contentLower),
		SymbolMatch:   symbolMatchScore(tokens, c.Chunk.FilePath, symbolsByFile),
		FileTypeBoost: fileTypeBoost(c.Chunk.FilePath),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func tokenOverlapRatio(tokens []string, haystack string) float64 {
	if len(tokens) == 0 {
		return 0
	}
	hits := 0
	for _, tok := range tokens {
		if strings.Contains(haystack, tok) {
			hits++
		}
	}
	return float64(hits) / float64(len(tokens))
}

// symbolMatchScore is 1 if any query token exactly equals a symbol name in
// the chunk's file, else the fraction of query tokens matching any symbol
// name as a substring.
func symbolMatchScore(tokens []string, filePath string, symbolsByFile map[string][]models.Symbol) float64 {
	if len(tokens) == 0 || symbolsByFile == nil {
		return 0
	}
	syms := symbolsByFile[filePath]
	if len(syms) == 0 {
		return 0
	}
	hits := 0
	for _, tok := range tokens {
		for _, s := range syms {
			name := strings.ToLower(s.Name)
			if name == tok {
				return 1
			}
			if strings.Contains(name, tok) {
				hits++
				break
			}
		}
	}
	return float64(hits) / float64(len(tokens))
}

func fileTypeBoost(filePath string) float64 {
	if codeExts[strings.ToLower(filepath.Ext(filePath))] {
		return 1
	}
	return 0
}

// importBoostedFiles BFS-walks the import graph from seedFiles out to
// importMaxDepth hops, visiting each file at most once, and returns the
// set of files reachable within that radius.
func importBoostedFiles(graph imports.Graph, seedFiles []string) map[string]bool {
	boosted := make(map[string]bool)
	if graph == nil || len(seedFiles) == 0 {
		return boosted
	}

	visited := make(map[string]bool)
	type frontierEntry struct {
		file  string
		depth int
	}
	var frontier []frontierEntry
	for _, f := range seedFiles {
		if !visited[f] {
			visited[f] = true
			frontier = append(frontier, frontierEntry{file: f, depth: 0})
		}
	}

	for len(frontier) > 0 {
		cur := frontier[0]
		frontier = frontier[1:]
		if cur.depth >= importMaxDepth {
			continue
		}
		for _, next := range graph[cur.file] {
			boosted[next] = true
			if visited[next] {
				continue
			}
			visited[next] = true
			frontier = append(frontier, frontierEntry{file: next, depth: cur.depth + 1})
		}
	}
	return boosted
}

func sortByScore(items []models.Scored) {
	// insertion sort keeps this stable and simple; ranker input sizes are
	// bounded by the retriever's top-k, never the full index.
	for i := 1; i < len(items); i++ {
		j := i
		for j > 0 && less(items[j], items[j-1]) {
			items[j], items[j-1] = items[j-1], items[j]
			j--
		}
	}
}

func less(a, b models.Scored) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Similarity != b.Similarity {
		return a.Similarity > b.Similarity
	}
	if a.Chunk.FilePath != b.Chunk.FilePath {
		return a.Chunk.FilePath < b.Chunk.FilePath
	}
	return a.Chunk.StartLine < b.Chunk.StartLine
}

// tokenizeQuery splits text into the query-token set used by every match
// signal: lowercased, length >= 3, excluding stopwords.
func tokenizeQuery(text string) []string {
	words := wordRe.FindAllString(strings.ToLower(text), -1)
	if len(words) == 0 {
		return nil
	}

	stream := make(analysis.TokenStream, 0, len(words))
	for i, w := range words {
		stream = append(stream, &analysis.Token{Term: []byte(w), Position: i + 1, Type: analysis.AlphaNumeric})
	}
	if stopFilter != nil {
		stream = stopFilter.Filter(stream)
	}

	out := make([]string, 0, len(stream))
	for _, tok := range stream {
		if len(tok.Term) < 3 {
			continue
		}
		out = append(out, string(tok.Term))
	}
	return out
}

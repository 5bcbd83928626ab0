package cli

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/contextkit/contextkit/internal/budget"
	"github.com/contextkit/contextkit/internal/chunker"
	"github.com/contextkit/contextkit/internal/ctxerr"
	"github.com/contextkit/contextkit/internal/formatter"
	"github.com/contextkit/contextkit/internal/imports"
	"github.com/contextkit/contextkit/internal/models"
	"github.com/contextkit/contextkit/internal/ranker"
	"github.com/contextkit/contextkit/internal/retriever"
	"github.com/contextkit/contextkit/internal/symbols"
)

// NewSelectCommand creates the select command: the core query operation.
func NewSelectCommand() *cobra.Command {
	var (
		budgetTokens   int
		format         string
		mode           string
		sourceIDs      []string
		explain        bool
		includeImports bool
		noCache        bool
	)

	cmd := &cobra.Command{
		Use:   "select <query>",
		Short: "Select the smallest relevant set of chunks for a query within a token budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelect(cmd.Context(), selectParams{
				query:          args[0],
				budget:         budgetTokens,
				format:         format,
				mode:           mode,
				sourceIDs:      sourceIDs,
				explain:        explain,
				includeImports: includeImports,
				noCache:        noCache,
			})
		},
	}

	cmd.Flags().IntVarP(&budgetTokens, "budget", "b", 0, "token budget (default: project config)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: markdown, xml, json, plain")
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "selection mode: full, map")
	cmd.Flags().StringSliceVarP(&sourceIDs, "sources", "s", nil, "restrict to these source ids")
	cmd.Flags().BoolVar(&explain, "explain", false, "include per-chunk scoring details")
	cmd.Flags().BoolVar(&includeImports, "include-imports", false, "boost chunks reachable via the import graph of the top results")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the query cache")

	return cmd
}

type selectParams struct {
	query          string
	budget         int
	format         string
	mode           string
	sourceIDs      []string
	explain        bool
	includeImports bool
	noCache        bool
}

// Selection modes: full returns the ranked chunks as-is; map restricts
// the selection to header/declaration-kind chunks, a signature-only view.
const (
	modeFull = "full"
	modeMap  = "map"
)

func runSelect(ctx context.Context, p selectParams) error {
	start := time.Now()

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if p.budget <= 0 {
		p.budget = a.cfg.DefaultBudget
	}
	if p.format == "" {
		p.format = a.cfg.DefaultFormat
	}
	if p.mode == "" {
		p.mode = a.cfg.DefaultMode
	}

	gen, err := a.store.Generation()
	if err != nil {
		return err
	}
	cacheKey := selectionCacheKey(p, gen)

	if !p.noCache {
		if cached, ok, err := a.store.CacheGet(cacheKey); err == nil && ok {
			fmt.Print(string(cached))
			return nil
		}
	}

	candidates, err := a.store.GetAllChunksWithEmbeddings()
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		return ctxerr.New(ctxerr.IndexEmpty, "no indexed chunks found").
			WithSuggestion("run `contextkit index` after registering a source")
	}

	queryVecs, err := a.embed.Embed(ctx, []string{p.query})
	if err != nil {
		return ctxerr.Wrap(ctxerr.EmbeddingError, "embedding query", err)
	}

	retrieved := retriever.Retrieve(queryVecs[0], candidates, retriever.Options{TopK: retriever.DefaultTopK, SourceIDs: p.sourceIDs})

	if p.mode == modeMap {
		retrieved = filterDeclarationChunks(retrieved)
	}

	symbolsByFile := buildSymbolIndex(retrieved)
	var graph imports.Graph
	var seedFiles []string
	if p.includeImports {
		graph, seedFiles = buildImportGraph(retrieved)
	}

	ranked := ranker.Rank(retrieved, ranker.Options{
		Query:         p.query,
		SymbolsByFile: symbolsByFile,
		ImportGraph:   graph,
		SeedFiles:     seedFiles,
	})

	considered := len(ranked)
	selected, skipped := budget.Fit(ranked, p.budget)

	fullContent := buildFullFileContent(selected)
	merged := budget.Merge(selected, fullContent, a.tok)

	totalTokens := 0
	filesSeen := map[string]bool{}
	for _, item := range merged {
		totalTokens += item.Chunk.Tokens
		filesSeen[item.Chunk.FilePath] = true
	}

	sel := models.Selection{
		Query: p.query,
		Stats: models.SelectionStats{
			TotalTokens:      totalTokens,
			ChunksConsidered: considered,
			ChunksIncluded:   len(merged),
			FilesIncluded:    len(filesSeen),
			TimeMS:           time.Since(start).Milliseconds(),
			ExcludedCount:    skipped,
		},
		Items: merged,
	}

	rendered, err := formatter.Render(sel, formatter.Options{Format: formatter.Format(p.format), Explain: p.explain})
	if err != nil {
		return err
	}

	fmt.Print(rendered)

	if !p.noCache {
		_ = a.store.CachePut(cacheKey, []byte(rendered))
	}

	_ = a.store.RecordQuery(models.HistoryEntry{
		RunID:      uuid.NewString(),
		Query:      p.query,
		Budget:     p.budget,
		Mode:       p.mode,
		Format:     p.format,
		Sources:    p.sourceIDs,
		ExecutedAt: time.Now(),
		TotalToken: totalTokens,
		NumChunks:  len(merged),
	})

	return nil
}

func selectionCacheKey(p selectParams, generation int64) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%d\x00%s\x00%s\x00%s\x00%d", strings.ToLower(strings.TrimSpace(p.query)), p.budget, p.mode, p.format, strings.Join(p.sourceIDs, ","), generation)
	return hex.EncodeToString(h.Sum(nil))
}

// filterDeclarationChunks restricts items to header/declaration-kind
// chunks, the signature-only view map mode returns: functionally
// equivalent to full mode operating over chunks filtered to
// header/declaration-kind chunks.
func filterDeclarationChunks(items []models.Scored) []models.Scored {
	out := make([]models.Scored, 0, len(items))
	for _, item := range items {
		if chunker.IsDeclarationKind(item.Chunk.Kind) {
			out = append(out, item)
		}
	}
	return out
}

func buildSymbolIndex(items []models.Scored) map[string][]models.Symbol {
	byFile := make(map[string][]models.Symbol)
	for _, item := range items {
		syms := symbols.Extract(item.Chunk)
		if len(syms) > 0 {
			byFile[item.Chunk.FilePath] = append(byFile[item.Chunk.FilePath], syms...)
		}
	}
	return byFile
}

func buildImportGraph(items []models.Scored) (imports.Graph, []string) {
	known := make(map[string]bool, len(items))
	seedFiles := make([]string, 0, len(items))
	seenSeed := map[string]bool{}
	for _, item := range items {
		known[item.Chunk.FilePath] = true
		if !seenSeed[item.Chunk.FilePath] {
			seenSeed[item.Chunk.FilePath] = true
			seedFiles = append(seedFiles, item.Chunk.FilePath)
		}
	}

	var edges []models.ImportEdge
	for _, item := range items {
		ext := extOf(item.Chunk.FilePath)
		raws := imports.Extract(ext, item.Chunk.Content)
		edges = append(edges, imports.Resolve(item.Chunk.FilePath, raws, known)...)
	}
	return imports.BuildGraph(edges), seedFiles
}

func extOf(path string) string {
	i := strings.LastIndex(path, ".")
	if i < 0 {
		return ""
	}
	return strings.ToLower(path[i:])
}

// buildFullFileContent reconstructs each file's full text from the
// chunks present in selected, used by budget.Merge to recover interior
// lines dropped between adjacent chunks. It is necessarily partial: only
// lines covered by some selected chunk are available.
func buildFullFileContent(selected []models.Scored) map[string]string {
	byFile := make(map[string]map[int]string)
	for _, item := range selected {
		c := item.Chunk
		lines := strings.Split(c.Content, "\n")
		if byFile[c.FilePath] == nil {
			byFile[c.FilePath] = make(map[int]string)
		}
		for i, line := range lines {
			byFile[c.FilePath][c.StartLine+i] = line
		}
	}

	out := make(map[string]string, len(byFile))
	for file, lineMap := range byFile {
		maxLine := 0
		for ln := range lineMap {
			if ln > maxLine {
				maxLine = ln
			}
		}
		lines := make([]string, maxLine)
		for ln, text := range lineMap {
			lines[ln-1] = text
		}
		out[file] = strings.Join(lines, "\n")
	}
	return out
}

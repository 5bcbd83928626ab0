// Package mcpserver exposes the same select and symbol search
// capabilities as the CLI over the Model Context Protocol, so an
// editor or agent can call them as tools instead of shelling out.
package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/contextkit/contextkit/internal/budget"
	"github.com/contextkit/contextkit/internal/chunker"
	"github.com/contextkit/contextkit/internal/config"
	"github.com/contextkit/contextkit/internal/embedder"
	"github.com/contextkit/contextkit/internal/formatter"
	"github.com/contextkit/contextkit/internal/models"
	"github.com/contextkit/contextkit/internal/ranker"
	"github.com/contextkit/contextkit/internal/retriever"
	"github.com/contextkit/contextkit/internal/store"
	"github.com/contextkit/contextkit/internal/symbols"
	"github.com/contextkit/contextkit/internal/tokenizer"
)

const (
	// ServerName and ServerVersion identify this process to an MCP client.
	ServerName    = "contextkit"
	ServerVersion = "0.1.0"

	defaultMaxTokens = 8000
	defaultTopK      = retriever.DefaultTopK
)

// Server wraps an already-opened project store and serves it over MCP.
type Server struct {
	Store *store.Store
	Embed embedder.Provider
	Tok   *tokenizer.Tiktoken
	Cfg   config.Config
}

// New builds a Server from an opened project.
func New(st *store.Store, embed embedder.Provider, tok *tokenizer.Tiktoken, cfg config.Config) *Server {
	return &Server{Store: st, Embed: embed, Tok: tok, Cfg: cfg}
}

// Run registers the select and symbol tools and serves them over stdio
// until the stdio session ends. ctx is not passed to the stdio server, so
// canceling it does not stop serving.
func (s *Server) Run(ctx context.Context) error {
	mcpServer := server.NewMCPServer(ServerName, ServerVersion, server.WithToolCapabilities(true))

	mcpServer.AddTool(s.selectTool(), s.handleSelect)
	mcpServer.AddTool(s.symbolTool(), s.handleSymbol)

	return server.ServeStdio(mcpServer)
}

func (s *Server) selectTool() mcp.Tool {
	return mcp.NewTool("select",
		mcp.WithDescription("Select the smallest relevant set of code chunks for a natural-language query within a token budget"),
		mcp.WithString("query", mcp.Required(), mcp.Description("Natural-language description of what context is needed")),
		mcp.WithNumber("budget", mcp.Description("Token budget (default: project config)")),
		mcp.WithString("mode", mcp.Description("Selection mode: full, map (signature-only)")),
		mcp.WithString("format", mcp.Description("Output format: markdown, xml, json, plain")),
	)
}

func (s *Server) symbolTool() mcp.Tool {
	return mcp.NewTool("symbol",
		mcp.WithDescription("Search the index for a function, class, interface, or type by name"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Symbol name or substring to search for")),
		mcp.WithBoolean("exact", mcp.Description("Only return exact (case-insensitive) name matches")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of matches to return (default: 20)")),
	)
}

func (s *Server) handleSelect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := request.GetString("query", "")
	if strings.TrimSpace(query) == "" {
		return mcp.NewToolResultError("query must not be empty"), nil
	}
	budgetTokens := request.GetInt("budget", s.Cfg.DefaultBudget)
	if budgetTokens <= 0 {
		budgetTokens = defaultMaxTokens
	}
	mode := request.GetString("mode", s.Cfg.DefaultMode)
	format := request.GetString("format", s.Cfg.DefaultFormat)

	sel, err := s.runSelect(ctx, query, budgetTokens, mode)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("select failed: %v", err)), nil
	}

	rendered, err := formatter.Render(sel, formatter.Options{Format: formatter.Format(format)})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("rendering selection: %v", err)), nil
	}
	return mcp.NewToolResultText(rendered), nil
}

func (s *Server) runSelect(ctx context.Context, query string, budgetTokens int, mode string) (models.Selection, error) {
	var sel models.Selection

	candidates, err := s.Store.GetAllChunksWithEmbeddings()
	if err != nil {
		return sel, err
	}
	if len(candidates) == 0 {
		return sel, fmt.Errorf("no indexed chunks found; run index first")
	}

	queryVecs, err := s.Embed.Embed(ctx, []string{query})
	if err != nil {
		return sel, err
	}

	retrieved := retriever.Retrieve(queryVecs[0], candidates, retriever.Options{TopK: defaultTopK})

	if mode == "map" {
		retrieved = filterDeclarationChunks(retrieved)
	}

	symbolsByFile := make(map[string][]models.Symbol)
	for _, item := range retrieved {
		if syms := symbols.Extract(item.Chunk); len(syms) > 0 {
			symbolsByFile[item.Chunk.FilePath] = append(symbolsByFile[item.Chunk.FilePath], syms...)
		}
	}

	ranked := ranker.Rank(retrieved, ranker.Options{Query: query, SymbolsByFile: symbolsByFile})

	considered := len(ranked)
	selected, skipped := budget.Fit(ranked, budgetTokens)

	fullContent := buildFullFileContent(selected)
	merged := budget.Merge(selected, fullContent, s.Tok)

	totalTokens := 0
	filesSeen := map[string]bool{}
	for _, item := range merged {
		totalTokens += item.Chunk.Tokens
		filesSeen[item.Chunk.FilePath] = true
	}

	sel = models.Selection{
		Query: query,
		Stats: models.SelectionStats{
			TotalTokens:      totalTokens,
			ChunksConsidered: considered,
			ChunksIncluded:   len(merged),
			FilesIncluded:    len(filesSeen),
			ExcludedCount:    skipped,
		},
		Items: merged,
	}
	return sel, nil
}

func (s *Server) handleSymbol(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := request.GetString("name", "")
	if strings.TrimSpace(name) == "" {
		return mcp.NewToolResultError("name must not be empty"), nil
	}
	exact := request.GetBool("exact", false)
	limit := request.GetInt("limit", 20)

	sources, err := s.Store.ListSources()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing sources: %v", err)), nil
	}

	var all []models.Symbol
	for _, src := range sources {
		chunks, err := s.Store.ListChunks(src.ID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("listing chunks: %v", err)), nil
		}
		for _, c := range chunks {
			all = append(all, symbols.Extract(c)...)
		}
	}

	matches := symbols.Search(all, name, exact, limit)
	var b strings.Builder
	if len(matches) == 0 {
		b.WriteString("No matching symbols found.\n")
	}
	for _, m := range matches {
		tag := "fuzzy"
		if m.Exact {
			tag = "exact"
		}
		fmt.Fprintf(&b, "[%s] %s %s  %s:%d-%d\n", tag, m.Symbol.Kind, m.Symbol.Name, m.Symbol.FilePath, m.Symbol.StartLine, m.Symbol.EndLine)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// filterDeclarationChunks restricts items to header/declaration-kind
// chunks for map mode's signature-only view, mirroring the CLI's
// select.go filter of the same name.
func filterDeclarationChunks(items []models.Scored) []models.Scored {
	out := make([]models.Scored, 0, len(items))
	for _, item := range items {
		if chunker.IsDeclarationKind(item.Chunk.Kind) {
			out = append(out, item)
		}
	}
	return out
}

// buildFullFileContent mirrors the CLI select path: it reconstructs each
// file's available text from the chunks chosen so far, for budget.Merge
// to recover lines between adjacent chunks.
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

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/contextkit/contextkit/internal/models"
	"github.com/contextkit/contextkit/internal/symbols"
)

// NewSymbolCommand creates the symbol search command.
func NewSymbolCommand() *cobra.Command {
	var (
		exact     bool
		limit     int
		sourceIDs []string
	)

	cmd := &cobra.Command{
		Use:   "symbol <name>",
		Short: "Search for a function, class, interface, or type by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSymbol(args[0], exact, limit, sourceIDs)
		},
	}
	cmd.Flags().BoolVar(&exact, "exact", false, "only return exact (case-insensitive) name matches")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of matches to return")
	cmd.Flags().StringSliceVarP(&sourceIDs, "sources", "s", nil, "restrict search to these source ids")
	return cmd
}

func runSymbol(query string, exact bool, limit int, sourceIDs []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sources, err := sourcesToSearch(a, sourceIDs)
	if err != nil {
		return err
	}

	var all []models.Symbol
	for _, src := range sources {
		chunks, err := a.store.ListChunks(src.ID)
		if err != nil {
			return err
		}
		for _, c := range chunks {
			all = append(all, symbols.Extract(c)...)
		}
	}

	matches := symbols.Search(all, query, exact, limit)
	if len(matches) == 0 {
		fmt.Println("No matching symbols found.")
		return nil
	}
	for _, m := range matches {
		tag := "fuzzy"
		if m.Exact {
			tag = "exact"
		}
		fmt.Printf("[%s] %s %s  %s:%d-%d\n", tag, m.Symbol.Kind, m.Symbol.Name, m.Symbol.FilePath, m.Symbol.StartLine, m.Symbol.EndLine)
	}
	return nil
}

func sourcesToSearch(a *app, sourceIDs []string) ([]models.Source, error) {
	if len(sourceIDs) == 0 {
		return a.store.ListSources()
	}
	out := make([]models.Source, 0, len(sourceIDs))
	for _, id := range sourceIDs {
		src, err := a.store.GetSource(id)
		if err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, nil
}

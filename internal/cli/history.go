package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/contextkit/contextkit/internal/ctxerr"
)

// NewHistoryCommand creates the history command: lists, clears, or
// re-runs past select runs recorded by the query_history table.
func NewHistoryCommand() *cobra.Command {
	var (
		limit   int
		clear   bool
		runID   string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show, clear, or re-run recorded query history",
		RunE: func(cmd *cobra.Command, args []string) error {
			if clear {
				return runHistoryClear()
			}
			if runID != "" {
				return runHistoryRun(cmd.Context(), runID, noCache)
			}
			return runHistoryList(limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of entries to show (0 for all)")
	cmd.Flags().BoolVar(&clear, "clear", false, "clear all recorded history")
	cmd.Flags().StringVar(&runID, "run", "", "re-run the recorded query with this run id")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the query cache when re-running")
	return cmd
}

func runHistoryList(limit int) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	entries, err := a.store.GetHistory(limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No query history recorded.")
		return nil
	}
	for _, e := range entries {
		sources := strings.Join(e.Sources, ",")
		if sources == "" {
			sources = "all"
		}
		fmt.Printf("%s  %s  budget=%d mode=%s chunks=%d tokens=%d sources=%s  %q\n",
			e.ExecutedAt.Format("2006-01-02 15:04:05"), e.RunID, e.Budget, e.Mode, e.NumChunks, e.TotalToken, sources, e.Query)
	}
	return nil
}

// runHistoryRun looks up a recorded query by run id and re-executes it
// through the same select pipeline.
func runHistoryRun(ctx context.Context, runID string, noCache bool) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	entry, ok, err := a.store.GetHistoryByRunID(runID)
	a.Close()
	if err != nil {
		return err
	}
	if !ok {
		return ctxerr.New(ctxerr.InvalidUsage, fmt.Sprintf("no history entry with run id %q", runID))
	}

	return runSelect(ctx, selectParams{
		query:     entry.Query,
		budget:    entry.Budget,
		format:    entry.Format,
		mode:      entry.Mode,
		sourceIDs: entry.Sources,
		noCache:   noCache,
	})
}

func runHistoryClear() error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.store.ClearHistory(); err != nil {
		return err
	}
	if !quiet {
		fmt.Println("Query history cleared.")
	}
	return nil
}

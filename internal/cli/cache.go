package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCacheCommand groups query-cache maintenance subcommands.
func NewCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the query result cache",
	}
	cmd.AddCommand(newCacheClearCommand(), newCacheStatsCommand())
	return cmd
}

func newCacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear every cached query result",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.store.CacheClear(); err != nil {
				return err
			}
			if !quiet {
				fmt.Println("Query cache cleared.")
			}
			return nil
		},
	}
}

func newCacheStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show query cache entry and hit counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()
			stats, err := a.store.CacheStats()
			if err != nil {
				return err
			}
			fmt.Printf("entries: %d  hits: %d\n", stats.Entries, stats.Hits)
			return nil
		},
	}
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewStatusCommand creates the status command: a quick summary of the
// current project's index.
func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show a summary of the current index",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus()
		},
	}
}

func runStatus() error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	stats, err := a.store.GetIndexStats()
	if err != nil {
		return err
	}
	cacheStats, err := a.store.CacheStats()
	if err != nil {
		return err
	}

	fmt.Printf("root:       %s\n", a.root)
	fmt.Printf("sources:    %d\n", stats.SourceCount)
	fmt.Printf("files:      %d\n", stats.FileCount)
	fmt.Printf("chunks:     %d\n", stats.ChunkCount)
	fmt.Printf("tokens:     %d\n", stats.TotalTokens)
	fmt.Printf("generation: %d\n", stats.Generation)
	fmt.Printf("cache:      %d entries, %d hits\n", cacheStats.Entries, cacheStats.Hits)
	return nil
}

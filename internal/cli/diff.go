package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/contextkit/contextkit/internal/discovery"
	"github.com/contextkit/contextkit/internal/models"
)

// NewDiffCommand creates the diff command: a dry run of what `index`
// would add, modify, or remove, without writing anything.
func NewDiffCommand() *cobra.Command {
	var sourceID string

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Show what would change on the next index run, without writing",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(sourceID)
		},
	}
	cmd.Flags().StringVar(&sourceID, "source", "", "limit to this source id (default: all)")
	return cmd
}

func runDiff(sourceID string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sources, err := sourcesToSearch(a, nonEmptySlice(sourceID))
	if err != nil {
		return err
	}

	for _, src := range sources {
		discovered, _, err := discovery.Discover(src, discovery.Options{Include: src.Include, Exclude: src.Exclude})
		if err != nil {
			return err
		}
		existing, err := a.store.ListFiles(src.ID)
		if err != nil {
			return err
		}
		existingByPath := make(map[string]models.File, len(existing))
		for _, f := range existing {
			existingByPath[f.RelPath] = f
		}

		seen := make(map[string]bool, len(discovered))
		var added, modified int
		for _, f := range discovered {
			seen[f.RelPath] = true
			if prior, ok := existingByPath[f.RelPath]; ok {
				if prior.ContentHash != f.ContentHash {
					modified++
					fmt.Printf("~ %s\n", f.RelPath)
				}
			} else {
				added++
				fmt.Printf("+ %s\n", f.RelPath)
			}
		}
		var removed int
		for _, f := range existing {
			if !seen[f.RelPath] {
				removed++
				fmt.Printf("- %s\n", f.RelPath)
			}
		}
		fmt.Printf("%s: %d added, %d modified, %d removed\n", src.RootPath, added, modified, removed)
	}
	return nil
}

func nonEmptySlice(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}

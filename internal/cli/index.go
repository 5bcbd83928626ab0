package cli

import (
	"context"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/contextkit/contextkit/internal/chunker"
	"github.com/contextkit/contextkit/internal/ctxerr"
	"github.com/contextkit/contextkit/internal/indexer"
	"github.com/contextkit/contextkit/internal/models"
)

// NewIndexCommand creates the index command.
func NewIndexCommand() *cobra.Command {
	var sourceID string

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Index registered sources: discover, chunk, embed, and store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd.Context(), sourceID)
		},
	}
	cmd.Flags().StringVar(&sourceID, "source", "", "index only this source id (default: all registered sources)")
	return cmd
}

func runIndex(ctx context.Context, sourceID string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	var sources []models.Source
	if sourceID != "" {
		src, err := a.store.GetSource(sourceID)
		if err != nil {
			return err
		}
		sources = []models.Source{src}
	} else {
		sources, err = a.store.ListSources()
		if err != nil {
			return err
		}
		if len(sources) == 0 {
			return ctxerr.New(ctxerr.NoSources, "no sources registered").
				WithSuggestion("run `contextkit source add <path>` first")
		}
	}

	chunkOpts := chunker.Options{ChunkSize: a.cfg.ChunkSize, Overlap: a.cfg.ChunkOverlap, UseSyntax: true}

	for _, src := range sources {
		var bar *progressbar.ProgressBar
		opts := indexer.Options{
			ChunkOptions: chunkOpts,
			Progress: func(p indexer.Progress) {
				if quiet {
					return
				}
				if p.Stage == indexer.StageStore && p.FilesTotal > 0 {
					if bar == nil {
						bar = progressbar.Default(int64(p.FilesTotal), fmt.Sprintf("indexing %s", src.RootPath))
					}
					bar.Set(p.FilesDone)
				}
			},
		}

		stats, err := indexer.Run(ctx, a.store, src, a.embed, a.tok, opts)
		if err != nil {
			return err
		}
		if !quiet {
			fmt.Printf("%s: +%d ~%d -%d (=%d unchanged), %d chunks written\n",
				src.RootPath, stats.FilesAdded, stats.FilesModified, stats.FilesRemoved, stats.FilesUnchanged, stats.ChunksWritten)
		}
	}
	return nil
}

package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/contextkit/contextkit/internal/models"
)

// exportDoc is the top-level shape written by `contextkit export`.
type exportDoc struct {
	Sources []models.Source `json:"sources"`
	Files   []models.File   `json:"files"`
	Chunks  []models.Chunk  `json:"chunks"`
}

// NewExportCommand creates the export command: dumps the whole index as
// JSON, for inspection or migration.
func NewExportCommand() *cobra.Command {
	var (
		noEmbeddings bool
		output       string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Dump the full index as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(noEmbeddings, output)
		},
	}
	cmd.Flags().BoolVar(&noEmbeddings, "no-embeddings", false, "omit embedding vectors to shrink the output")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	return cmd
}

func runExport(noEmbeddings bool, output string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sources, err := a.store.ListSources()
	if err != nil {
		return err
	}

	doc := exportDoc{Sources: sources}

	var allEmbedded []models.Chunk
	if !noEmbeddings {
		allEmbedded, err = a.store.GetAllChunksWithEmbeddings()
		if err != nil {
			return err
		}
	}

	for _, src := range sources {
		files, err := a.store.ListFiles(src.ID)
		if err != nil {
			return err
		}
		doc.Files = append(doc.Files, files...)

		chunks, err := a.store.ListChunks(src.ID)
		if err != nil {
			return err
		}
		if !noEmbeddings {
			bySourceID := make([]models.Chunk, 0, len(chunks))
			for _, c := range allEmbedded {
				if c.SourceID == src.ID {
					bySourceID = append(bySourceID, c)
				}
			}
			chunks = bySourceID
		}
		doc.Chunks = append(doc.Chunks, chunks...)
	}

	encoded, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	if output == "" {
		fmt.Println(string(encoded))
		return nil
	}
	return os.WriteFile(output, encoded, 0o644)
}

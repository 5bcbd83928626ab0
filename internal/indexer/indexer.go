// Package indexer orchestrates a single source's indexing run: discover
// files, diff them against what's already stored, chunk and embed
// whatever changed, and write the result back to the store. A re-run
// over unchanged content is a no-op past the diff stage.
package indexer

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/contextkit/contextkit/internal/chunker"
	"github.com/contextkit/contextkit/internal/ctxerr"
	"github.com/contextkit/contextkit/internal/discovery"
	"github.com/contextkit/contextkit/internal/embedder"
	"github.com/contextkit/contextkit/internal/models"
	"github.com/contextkit/contextkit/internal/store"
	"github.com/contextkit/contextkit/internal/tokenizer"
)

// DefaultEmbedConcurrency bounds how many files embed concurrently during
// an index run.
const DefaultEmbedConcurrency = 4

// Stage names the phase an index run is currently in, for progress
// reporting.
type Stage string

const (
	StageDiscover Stage = "discover"
	StageDiff     Stage = "diff"
	StageChunk    Stage = "chunk"
	StageEmbed    Stage = "embed"
	StageStore    Stage = "store"
)

// Progress is reported as an index run advances.
type Progress struct {
	Stage      Stage
	SourceID   string
	FilesTotal int
	FilesDone  int
}

// ProgressFunc receives Progress updates; nil is a valid no-op callback.
type ProgressFunc func(Progress)

// Options configures an index run.
type Options struct {
	ChunkOptions     chunker.Options
	EmbedConcurrency int
	Progress         ProgressFunc
}

func (o Options) withDefaults() Options {
	if o.EmbedConcurrency <= 0 {
		o.EmbedConcurrency = DefaultEmbedConcurrency
	}
	return o
}

// Stats summarizes one index run.
type Stats struct {
	FilesAdded    int
	FilesModified int
	FilesRemoved  int
	FilesUnchanged int
	ChunksWritten int
}

func (o Options) report(p Progress) {
	if o.Progress != nil {
		o.Progress(p)
	}
}

// Run indexes a single source: it walks the source's root, diffs
// discovered files against st's file table by content hash, then
// chunks, embeds, and stores whatever is new or changed, and deletes
// whatever was removed. ctx cancellation stops the run between files;
// files already written are left committed since each file's write is
// its own transaction.
func Run(ctx context.Context, st *store.Store, source models.Source, prov embedder.Provider, counter tokenizer.Counter, opts Options) (Stats, error) {
	opts = opts.withDefaults()
	var stats Stats

	opts.report(Progress{Stage: StageDiscover, SourceID: source.ID})
	discovered, _, err := discovery.Discover(source, discovery.Options{Include: source.Include, Exclude: source.Exclude})
	if err != nil {
		return stats, ctxerr.Wrap(ctxerr.PathNotFound, "discovering source files", err)
	}

	existing, err := st.ListFiles(source.ID)
	if err != nil {
		return stats, err
	}
	existingByPath := make(map[string]models.File, len(existing))
	for _, f := range existing {
		existingByPath[f.RelPath] = f
	}

	opts.report(Progress{Stage: StageDiff, SourceID: source.ID, FilesTotal: len(discovered)})
	var toIndex []discovery.DiscoveredFile
	seen := make(map[string]bool, len(discovered))
	for _, f := range discovered {
		seen[f.RelPath] = true
		if prior, ok := existingByPath[f.RelPath]; ok {
			if prior.ContentHash == f.ContentHash {
				stats.FilesUnchanged++
				continue
			}
			stats.FilesModified++
		} else {
			stats.FilesAdded++
		}
		toIndex = append(toIndex, f)
	}

	for _, f := range existing {
		if !seen[f.RelPath] {
			if err := st.DeleteFile(source.ID, f.RelPath); err != nil {
				return stats, err
			}
			stats.FilesRemoved++
		}
	}

	if len(toIndex) == 0 {
		return stats, nil
	}

	opts.report(Progress{Stage: StageChunk, SourceID: source.ID, FilesTotal: len(toIndex)})
	fileChunks := make([][]models.Chunk, len(toIndex))
	for i, f := range toIndex {
		fileChunks[i] = chunker.Chunk(source.ID, f.RelPath, string(f.Content), counter, opts.ChunkOptions)
	}

	opts.report(Progress{Stage: StageEmbed, SourceID: source.ID, FilesTotal: len(toIndex)})
	if err := embedFiles(ctx, prov, fileChunks, opts); err != nil {
		return stats, ctxerr.Wrap(ctxerr.EmbeddingError, "embedding chunks", err)
	}

	opts.report(Progress{Stage: StageStore, SourceID: source.ID, FilesTotal: len(toIndex)})
	for i, f := range toIndex {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if err := st.ReplaceFileChunks(source.ID, f.RelPath, f.ContentHash, fileChunks[i]); err != nil {
			return stats, err
		}
		stats.ChunksWritten += len(fileChunks[i])
		opts.report(Progress{Stage: StageStore, SourceID: source.ID, FilesTotal: len(toIndex), FilesDone: i + 1})
	}

	source.LastIndexed = time.Now()
	if err := st.UpsertSource(source); err != nil {
		return stats, err
	}

	return stats, nil
}

// embedFiles embeds every file's chunks concurrently, bounded by
// opts.EmbedConcurrency, writing each file's vectors back into its own
// chunk slice in place.
func embedFiles(ctx context.Context, prov embedder.Provider, fileChunks [][]models.Chunk, opts Options) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.EmbedConcurrency)

	fp := prov.Fingerprint()
	for i := range fileChunks {
		i := i
		g.Go(func() error {
			chunks := fileChunks[i]
			if len(chunks) == 0 {
				return nil
			}
			texts := make([]string, len(chunks))
			for j, c := range chunks {
				texts[j] = c.Content
			}
			vectors, err := embedder.EmbedAll(ctx, prov, texts, embedder.BatchOptions{}, nil)
			if err != nil {
				return fmt.Errorf("embedding file %s: %w", chunks[0].FilePath, err)
			}
			for j := range chunks {
				chunks[j].Embedding = vectors[j]
				chunks[j].ModelFP = fp
			}
			return nil
		})
	}
	return g.Wait()
}

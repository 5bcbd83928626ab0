// Package retriever finds the chunks most similar to a query embedding.
// Below annGraphThreshold candidates it scores every chunk by exact
// cosine similarity; above it, it builds an approximate HNSW graph so
// retrieval stays sublinear as an index grows past tens of thousands of
// chunks.
package retriever

import (
	"math"
	"sort"

	"github.com/coder/hnsw"

	"github.com/contextkit/contextkit/internal/models"
)

// DefaultTopK is how many candidates Retrieve returns by default.
const DefaultTopK = 50

// annGraphThreshold is the candidate-pool size above which Retrieve
// switches from brute-force cosine scoring to an HNSW approximate graph.
const annGraphThreshold = 50_000

// Options configures a retrieval call.
type Options struct {
	TopK        int
	SourceIDs   []string // empty means no source filter
}

func (o Options) withDefaults() Options {
	if o.TopK <= 0 {
		o.TopK = DefaultTopK
	}
	return o
}

// Retrieve scores candidates against queryVec and returns the top-k most
// similar chunks, each paired with its cosine similarity in [-1, 1].
func Retrieve(queryVec []float32, candidates []models.Chunk, opts Options) []models.Scored {
	opts = opts.withDefaults()

	filtered := candidates
	if len(opts.SourceIDs) > 0 {
		allowed := make(map[string]bool, len(opts.SourceIDs))
		for _, id := range opts.SourceIDs {
			allowed[id] = true
		}
		filtered = filtered[:0]
		for _, c := range candidates {
			if allowed[c.SourceID] {
				filtered = append(filtered, c)
			}
		}
	}

	if len(filtered) > annGraphThreshold {
		return retrieveApprox(queryVec, filtered, opts.TopK)
	}
	return retrieveExact(queryVec, filtered, opts.TopK)
}

func retrieveExact(queryVec []float32, candidates []models.Chunk, topK int) []models.Scored {
	scored := make([]models.Scored, 0, len(candidates))
	for _, c := range candidates {
		if len(c.Embedding) != len(queryVec) {
			continue
		}
		scored = append(scored, models.Scored{Chunk: c, Similarity: cosineSimilarity(queryVec, c.Embedding)})
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Similarity != scored[j].Similarity {
			return scored[i].Similarity > scored[j].Similarity
		}
		return tieBreak(scored[i].Chunk, scored[j].Chunk)
	})
	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored
}

func retrieveApprox(queryVec []float32, candidates []models.Chunk, topK int) []models.Scored {
	graph := hnsw.NewGraph[int]()
	graph.Distance = hnsw.CosineDistance

	indexByKey := make(map[int]int, len(candidates))
	key := 0
	for i, c := range candidates {
		if len(c.Embedding) != len(queryVec) {
			continue
		}
		vec := normalized(c.Embedding)
		graph.Add(hnsw.MakeNode(key, vec))
		indexByKey[key] = i
		key++
	}

	q := normalized(queryVec)
	nodes := graph.Search(q, topK)

	scored := make([]models.Scored, 0, len(nodes))
	for _, n := range nodes {
		idx, ok := indexByKey[n.Key]
		if !ok {
			continue
		}
		c := candidates[idx]
		scored = append(scored, models.Scored{Chunk: c, Similarity: cosineSimilarity(queryVec, c.Embedding)})
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Similarity != scored[j].Similarity {
			return scored[i].Similarity > scored[j].Similarity
		}
		return tieBreak(scored[i].Chunk, scored[j].Chunk)
	})
	return scored
}

func tieBreak(a, b models.Chunk) bool {
	if a.FilePath != b.FilePath {
		return a.FilePath < b.FilePath
	}
	return a.StartLine < b.StartLine
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func normalized(v []float32) []float32 {
	out := make([]float32, len(v))
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	norm := math.Sqrt(sumSq)
	if norm == 0 {
		copy(out, v)
		return out
	}
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

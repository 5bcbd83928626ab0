// Package embedder turns chunk text into fixed-length vectors. The
// interface is provider-agnostic; Local is a dependency-free deterministic
// provider used when no external embedding service is configured, so
// indexing and retrieval work out of the box.
package embedder

import (
	"context"
	"crypto/sha256"
	"math"

	"github.com/cenkalti/backoff/v5"
)

// DefaultBatchSize is how many texts are sent to a Provider per call.
const DefaultBatchSize = 16

// Provider embeds a batch of texts into vectors, one per input, in order.
type Provider interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Fingerprint() string
}

// BatchOptions configures batched embedding with retry.
type BatchOptions struct {
	BatchSize int
}

func (o BatchOptions) withDefaults() BatchOptions {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	return o
}

// ProgressFunc reports batch completion during EmbedAll.
type ProgressFunc func(done, total int)

// EmbedAll embeds texts in batches, retrying each batch with exponential
// backoff so a transient provider error doesn't fail an entire index run.
func EmbedAll(ctx context.Context, p Provider, texts []string, opts BatchOptions, progress ProgressFunc) ([][]float32, error) {
	opts = opts.withDefaults()
	out := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += opts.BatchSize {
		end := start + opts.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		vectors, err := backoff.Retry(ctx, func() ([][]float32, error) {
			return p.Embed(ctx, batch)
		}, backoff.WithMaxTries(5))
		if err != nil {
			return nil, err
		}

		out = append(out, vectors...)
		if progress != nil {
			progress(end, len(texts))
		}
	}
	return out, nil
}

// Local deterministically hashes text into a unit vector. It never calls
// out to a network service, so `contextkit index` works with zero
// configuration; a real semantic provider is wired in by implementing
// Provider against an external API and swapping it in at the indexer.
type Local struct {
	dims int
}

// NewLocal constructs a Local provider with the given vector dimension.
func NewLocal(dims int) *Local {
	if dims <= 0 {
		dims = 256
	}
	return &Local{dims: dims}
}

// Embed hashes each text into dims float32 components via repeated SHA-256
// over a rolling seed, then L2-normalizes the result.
func (l *Local) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = hashEmbed(t, l.dims)
	}
	return out, nil
}

// Dimensions reports the vector length this provider produces.
func (l *Local) Dimensions() int { return l.dims }

// Fingerprint identifies the embedding model/version, stored alongside
// every embedding so a later model swap can be detected.
func (l *Local) Fingerprint() string { return "local-hash-v1" }

func hashEmbed(text string, dims int) []float32 {
	vec := make([]float32, dims)
	seed := []byte(text)
	block := sha256.Sum256(seed)
	for i := 0; i < dims; i++ {
		if i > 0 && i%len(block) == 0 {
			block = sha256.Sum256(block[:])
		}
		b := block[i%len(block)]
		vec[i] = (float32(b)/255.0)*2 - 1
	}
	normalize(vec)
	return vec
}

func normalize(vec []float32) {
	var sumSq float64
	for _, v := range vec {
		sumSq += float64(v) * float64(v)
	}
	norm := math.Sqrt(sumSq)
	if norm == 0 {
		return
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
}

// Package tokenizer provides approximate token counts for text. It is the
// sole source of truth the budget fitter (internal/budget) relies on, so
// every count must be cheap and stable across processes.
package tokenizer

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// ModelFingerprint identifies the counting model used, so mixed counts
// never silently corrupt budget decisions.
const ModelFingerprint = "cl100k_base"

// heuristicDivisor approximates tokens-per-byte for the fallback counter,
// matching the rough 4-bytes-per-token rule of thumb used when the real
// encoder can't be loaded (e.g. no network access to fetch BPE ranks).
const heuristicDivisor = 4

// Counter returns an integer token count for a string.
type Counter interface {
	Count(text string) int
	Fingerprint() string
}

// Tiktoken counts tokens using OpenAI's cl100k_base byte-pair encoding. It
// falls back to a length-based heuristic if the encoding can't be loaded,
// so indexing never hard-fails on a tokenizer outage.
type Tiktoken struct {
	mu  sync.Mutex
	enc *tiktoken.Tiktoken
}

// New constructs a Tiktoken counter, lazily loading the encoding on first
// use so construction itself can never fail.
func New() *Tiktoken {
	return &Tiktoken{}
}

func (t *Tiktoken) load() *tiktoken.Tiktoken {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.enc != nil {
		return t.enc
	}
	enc, err := tiktoken.GetEncoding(ModelFingerprint)
	if err != nil {
		// Leave enc nil; Count falls back to the heuristic below.
		return nil
	}
	t.enc = enc
	return t.enc
}

// Count returns the token count for text. count("") == 0.
func (t *Tiktoken) Count(text string) int {
	if len(text) == 0 {
		return 0
	}
	enc := t.load()
	if enc == nil {
		return fallbackCount(text)
	}
	return len(enc.Encode(text, nil, nil))
}

// Fingerprint identifies the model used for counting.
func (t *Tiktoken) Fingerprint() string {
	return ModelFingerprint
}

func fallbackCount(text string) int {
	n := len(text) / heuristicDivisor
	if n == 0 && len(text) > 0 {
		n = 1
	}
	return n
}

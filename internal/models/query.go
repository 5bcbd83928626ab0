package models

import "time"

// CacheEntry is a persisted query-result cache row. The key is the
// fingerprint of (normalized query, budget, mode, format, source filter
// set, index generation); the value is the fully rendered selection.
type CacheEntry struct {
	Key       string    `json:"key"`
	Value     []byte    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	Hits      int       `json:"hits"`
}

// HistoryEntry is an append-only record of an executed select query.
type HistoryEntry struct {
	RunID      string    `json:"run_id"`
	Query      string    `json:"query"`
	Budget     int       `json:"budget"`
	Mode       string    `json:"mode"`
	Format     string    `json:"format"`
	Sources    []string  `json:"sources"`
	ExecutedAt time.Time `json:"executed_at"`
	TotalToken int       `json:"total_tokens"`
	NumChunks  int       `json:"num_chunks"`
}

// SelectionStats summarizes a select operation for the formatter and
// history log.
type SelectionStats struct {
	TotalTokens      int   `json:"total_tokens"`
	ChunksConsidered int   `json:"chunks_considered"`
	ChunksIncluded   int   `json:"chunks_included"`
	FilesIncluded    int   `json:"files_included"`
	TimeMS           int64 `json:"time_ms"`
	ExcludedCount    int   `json:"excluded_count"`
}

// Selection is the full output of a select operation: the chosen, merged
// chunks plus stats, ready for formatting.
type Selection struct {
	Query string         `json:"query"`
	Stats SelectionStats `json:"stats"`
	Items []Scored       `json:"items"`
}

package models

import "time"

// Source is a registered root directory within a project. Sources are
// created by explicit registration and mutated only by re-index; they are
// never implicitly removed.
type Source struct {
	ID          string    `json:"id"`
	RootPath    string    `json:"root_path"`
	Include     []string  `json:"include"`
	Exclude     []string  `json:"exclude"`
	LastIndexed time.Time `json:"last_indexed"`
}

// File belongs to exactly one Source and owns zero or more Chunks.
type File struct {
	SourceID    string    `json:"source_id"`
	RelPath     string    `json:"rel_path"`
	ContentHash string    `json:"content_hash"`
	LastIndexed time.Time `json:"last_indexed"`
}

package models

// SymbolKind enumerates the top-level declaration kinds the symbol
// extractor recognizes.
type SymbolKind string

const (
	SymbolFunction  SymbolKind = "function"
	SymbolClass     SymbolKind = "class"
	SymbolInterface SymbolKind = "interface"
	SymbolType      SymbolKind = "type"
	SymbolConstant  SymbolKind = "constant"
	SymbolMethod    SymbolKind = "method"
)

// Symbol is a top-level declaration recognized inside a chunk, with line
// numbers absolute in the owning file.
type Symbol struct {
	Name      string     `json:"name"`
	Kind      SymbolKind `json:"kind"`
	StartLine int        `json:"start_line"`
	EndLine   int        `json:"end_line"`
	Signature string     `json:"signature"`
	FilePath  string     `json:"file_path"`
	ChunkID   string     `json:"chunk_id"`
}

// ImportEdge is a directed file->file dependency derived from chunk
// content at select-time, used only for the ranker's import boost. It
// lives only in memory.
type ImportEdge struct {
	From string
	To   string
}

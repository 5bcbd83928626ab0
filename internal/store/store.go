// Package store is the sole persistence layer: a single SQLite database
// file per project holding sources, files, chunks (with embeddings),
// the query cache, and query history. Every write that touches chunks
// bumps a generation counter; select folds it into its query-cache key,
// so re-indexing invalidates cached results without a content diff.
package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/vmihailenco/msgpack/v5"

	_ "github.com/mattn/go-sqlite3"

	"github.com/contextkit/contextkit/internal/ctxerr"
	"github.com/contextkit/contextkit/internal/models"
)

// cacheFrontSize bounds the in-process LRU sitting in front of the
// persisted query cache table.
const cacheFrontSize = 256

// Store wraps a single SQLite connection plus a small prepared-statement
// cache and an in-memory LRU fronting the persisted query cache.
type Store struct {
	db        *sql.DB
	stmtCache *stmtCache
	cacheLRU  *lru.Cache[string, []byte]
}

type stmtCache struct {
	mu    sync.RWMutex
	stmts map[string]*sql.Stmt
}

// IndexStats summarizes the index for the status command.
type IndexStats struct {
	SourceCount int
	FileCount   int
	ChunkCount  int
	TotalTokens int
	Generation  int64
}

// Open creates or opens the database at path and ensures the schema
// exists. Callers must Close the returned Store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, ctxerr.Wrap(ctxerr.DatabaseError, "opening index database", err)
	}
	if err := db.Ping(); err != nil {
		return nil, ctxerr.Wrap(ctxerr.DatabaseError, "connecting to index database", err)
	}

	front, _ := lru.New[string, []byte](cacheFrontSize)
	s := &Store{
		db:        db,
		stmtCache: &stmtCache{stmts: make(map[string]*sql.Stmt)},
		cacheLRU:  front,
	}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sources (
			id TEXT PRIMARY KEY,
			root_path TEXT NOT NULL,
			include TEXT NOT NULL,
			exclude TEXT NOT NULL,
			last_indexed DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS files (
			source_id TEXT NOT NULL,
			rel_path TEXT NOT NULL,
			content_hash TEXT NOT NULL,
			last_indexed DATETIME NOT NULL,
			PRIMARY KEY (source_id, rel_path),
			FOREIGN KEY (source_id) REFERENCES sources(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS chunks (
			id TEXT PRIMARY KEY,
			source_id TEXT NOT NULL,
			file_path TEXT NOT NULL,
			content TEXT NOT NULL,
			start_line INTEGER NOT NULL,
			end_line INTEGER NOT NULL,
			tokens INTEGER NOT NULL,
			kind TEXT NOT NULL,
			unit_name TEXT,
			exported INTEGER NOT NULL DEFAULT 0,
			embedding BLOB,
			model_fp TEXT,
			FOREIGN KEY (source_id) REFERENCES sources(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS query_cache (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			created_at DATETIME NOT NULL,
			hits INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS query_history (
			run_id TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			budget INTEGER NOT NULL,
			mode TEXT NOT NULL,
			format TEXT NOT NULL,
			sources TEXT NOT NULL,
			executed_at DATETIME NOT NULL,
			total_tokens INTEGER NOT NULL,
			num_chunks INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_source ON chunks(source_id);`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_file ON chunks(source_id, file_path);`,
		`CREATE INDEX IF NOT EXISTS idx_files_source ON files(source_id);`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return ctxerr.Wrap(ctxerr.DatabaseError, "creating schema", err)
		}
	}
	return nil
}

func (s *Store) prepared(key, query string) (*sql.Stmt, error) {
	s.stmtCache.mu.RLock()
	if stmt, ok := s.stmtCache.stmts[key]; ok {
		s.stmtCache.mu.RUnlock()
		return stmt, nil
	}
	s.stmtCache.mu.RUnlock()

	s.stmtCache.mu.Lock()
	defer s.stmtCache.mu.Unlock()
	if stmt, ok := s.stmtCache.stmts[key]; ok {
		return stmt, nil
	}
	stmt, err := s.db.Prepare(query)
	if err != nil {
		return nil, err
	}
	s.stmtCache.stmts[key] = stmt
	return stmt, nil
}

// --- sources ---------------------------------------------------------

// UpsertSource creates or updates a source's registration.
func (s *Store) UpsertSource(src models.Source) error {
	include, _ := msgpack.Marshal(src.Include)
	exclude, _ := msgpack.Marshal(src.Exclude)
	_, err := s.db.Exec(`
		INSERT INTO sources (id, root_path, include, exclude, last_indexed)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			root_path = excluded.root_path,
			include = excluded.include,
			exclude = excluded.exclude,
			last_indexed = excluded.last_indexed`,
		src.ID, src.RootPath, include, exclude, src.LastIndexed)
	if err != nil {
		return ctxerr.Wrap(ctxerr.DatabaseError, "upserting source", err)
	}
	return nil
}

// ListSources returns all registered sources, ordered by id.
func (s *Store) ListSources() ([]models.Source, error) {
	rows, err := s.db.Query(`SELECT id, root_path, include, exclude, last_indexed FROM sources ORDER BY id`)
	if err != nil {
		return nil, ctxerr.Wrap(ctxerr.DatabaseError, "listing sources", err)
	}
	defer rows.Close()

	var out []models.Source
	for rows.Next() {
		var src models.Source
		var include, exclude []byte
		if err := rows.Scan(&src.ID, &src.RootPath, &include, &exclude, &src.LastIndexed); err != nil {
			return nil, ctxerr.Wrap(ctxerr.DatabaseError, "scanning source row", err)
		}
		_ = msgpack.Unmarshal(include, &src.Include)
		_ = msgpack.Unmarshal(exclude, &src.Exclude)
		out = append(out, src)
	}
	return out, rows.Err()
}

// GetSource fetches a single source by id.
func (s *Store) GetSource(id string) (models.Source, error) {
	row := s.db.QueryRow(`SELECT id, root_path, include, exclude, last_indexed FROM sources WHERE id = ?`, id)
	var src models.Source
	var include, exclude []byte
	if err := row.Scan(&src.ID, &src.RootPath, &include, &exclude, &src.LastIndexed); err != nil {
		if err == sql.ErrNoRows {
			return src, ctxerr.New(ctxerr.SourceNotFound, fmt.Sprintf("no source registered with id %q", id))
		}
		return src, ctxerr.Wrap(ctxerr.DatabaseError, "getting source", err)
	}
	_ = msgpack.Unmarshal(include, &src.Include)
	_ = msgpack.Unmarshal(exclude, &src.Exclude)
	return src, nil
}

// DeleteSource removes a source and, via ON DELETE CASCADE, its files and
// chunks.
func (s *Store) DeleteSource(id string) error {
	res, err := s.db.Exec(`DELETE FROM sources WHERE id = ?`, id)
	if err != nil {
		return ctxerr.Wrap(ctxerr.DatabaseError, "deleting source", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ctxerr.New(ctxerr.SourceNotFound, fmt.Sprintf("no source registered with id %q", id))
	}
	return s.bumpGeneration()
}

// --- files + chunks ----------------------------------------------------

// ReplaceFileChunks atomically replaces every chunk belonging to
// (sourceID, relPath) with newChunks and updates the file's content hash
// and last-indexed timestamp. Re-running it with unchanged content and
// chunks is idempotent.
func (s *Store) ReplaceFileChunks(sourceID, relPath, contentHash string, newChunks []models.Chunk) error {
	tx, err := s.db.Begin()
	if err != nil {
		return ctxerr.Wrap(ctxerr.DatabaseError, "beginning transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM chunks WHERE source_id = ? AND file_path = ?`, sourceID, relPath); err != nil {
		return ctxerr.Wrap(ctxerr.DatabaseError, "clearing old chunks", err)
	}

	insert, err := tx.Prepare(`
		INSERT INTO chunks (id, source_id, file_path, content, start_line, end_line, tokens, kind, unit_name, exported, embedding, model_fp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return ctxerr.Wrap(ctxerr.DatabaseError, "preparing chunk insert", err)
	}
	defer insert.Close()

	for _, c := range newChunks {
		var embeddingBlob []byte
		if len(c.Embedding) > 0 {
			embeddingBlob, err = msgpack.Marshal(c.Embedding)
			if err != nil {
				return ctxerr.Wrap(ctxerr.DatabaseError, "encoding chunk embedding", err)
			}
		}
		exported := 0
		if c.Exported {
			exported = 1
		}
		if _, err := insert.Exec(c.ID, sourceID, relPath, c.Content, c.StartLine, c.EndLine, c.Tokens, string(c.Kind), c.UnitName, exported, embeddingBlob, c.ModelFP); err != nil {
			return ctxerr.Wrap(ctxerr.DatabaseError, "inserting chunk", err)
		}
	}

	if _, err := tx.Exec(`
		INSERT INTO files (source_id, rel_path, content_hash, last_indexed)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(source_id, rel_path) DO UPDATE SET
			content_hash = excluded.content_hash,
			last_indexed = excluded.last_indexed`,
		sourceID, relPath, contentHash, time.Now()); err != nil {
		return ctxerr.Wrap(ctxerr.DatabaseError, "upserting file", err)
	}

	if err := bumpGenerationTx(tx); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteFile removes a file and its chunks.
func (s *Store) DeleteFile(sourceID, relPath string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return ctxerr.Wrap(ctxerr.DatabaseError, "beginning transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM chunks WHERE source_id = ? AND file_path = ?`, sourceID, relPath); err != nil {
		return ctxerr.Wrap(ctxerr.DatabaseError, "deleting chunks", err)
	}
	if _, err := tx.Exec(`DELETE FROM files WHERE source_id = ? AND rel_path = ?`, sourceID, relPath); err != nil {
		return ctxerr.Wrap(ctxerr.DatabaseError, "deleting file", err)
	}
	if err := bumpGenerationTx(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// GetFile fetches a single file's index row.
func (s *Store) GetFile(sourceID, relPath string) (models.File, bool, error) {
	row := s.db.QueryRow(`SELECT source_id, rel_path, content_hash, last_indexed FROM files WHERE source_id = ? AND rel_path = ?`, sourceID, relPath)
	var f models.File
	if err := row.Scan(&f.SourceID, &f.RelPath, &f.ContentHash, &f.LastIndexed); err != nil {
		if err == sql.ErrNoRows {
			return f, false, nil
		}
		return f, false, ctxerr.Wrap(ctxerr.DatabaseError, "getting file", err)
	}
	return f, true, nil
}

// ListFiles returns every indexed file for a source, ordered by path.
func (s *Store) ListFiles(sourceID string) ([]models.File, error) {
	rows, err := s.db.Query(`SELECT source_id, rel_path, content_hash, last_indexed FROM files WHERE source_id = ? ORDER BY rel_path`, sourceID)
	if err != nil {
		return nil, ctxerr.Wrap(ctxerr.DatabaseError, "listing files", err)
	}
	defer rows.Close()

	var out []models.File
	for rows.Next() {
		var f models.File
		if err := rows.Scan(&f.SourceID, &f.RelPath, &f.ContentHash, &f.LastIndexed); err != nil {
			return nil, ctxerr.Wrap(ctxerr.DatabaseError, "scanning file row", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// ListChunks returns every chunk for a source, without embeddings.
func (s *Store) ListChunks(sourceID string) ([]models.Chunk, error) {
	return s.queryChunks(`SELECT id, source_id, file_path, content, start_line, end_line, tokens, kind, unit_name, exported, NULL, model_fp FROM chunks WHERE source_id = ? ORDER BY file_path, start_line`, sourceID)
}

// GetAllChunksWithEmbeddings returns every embedded chunk across all
// sources, for the retriever's in-memory candidate pool.
func (s *Store) GetAllChunksWithEmbeddings() ([]models.Chunk, error) {
	rows, err := s.db.Query(`SELECT id, source_id, file_path, content, start_line, end_line, tokens, kind, unit_name, exported, embedding, model_fp FROM chunks WHERE embedding IS NOT NULL`)
	if err != nil {
		return nil, ctxerr.Wrap(ctxerr.DatabaseError, "loading embedded chunks", err)
	}
	defer rows.Close()
	return scanChunkRows(rows)
}

func (s *Store) queryChunks(query string, args ...interface{}) ([]models.Chunk, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, ctxerr.Wrap(ctxerr.DatabaseError, "querying chunks", err)
	}
	defer rows.Close()
	return scanChunkRows(rows)
}

func scanChunkRows(rows *sql.Rows) ([]models.Chunk, error) {
	var out []models.Chunk
	for rows.Next() {
		var c models.Chunk
		var kind string
		var exported int
		var unitName sql.NullString
		var modelFP sql.NullString
		var embeddingBlob []byte
		if err := rows.Scan(&c.ID, &c.SourceID, &c.FilePath, &c.Content, &c.StartLine, &c.EndLine, &c.Tokens, &kind, &unitName, &exported, &embeddingBlob, &modelFP); err != nil {
			return nil, ctxerr.Wrap(ctxerr.DatabaseError, "scanning chunk row", err)
		}
		c.Kind = models.ChunkKind(kind)
		c.Exported = exported != 0
		c.UnitName = unitName.String
		c.ModelFP = modelFP.String
		if len(embeddingBlob) > 0 {
			_ = msgpack.Unmarshal(embeddingBlob, &c.Embedding)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// --- generation counter -----------------------------------------------

func (s *Store) bumpGeneration() error {
	tx, err := s.db.Begin()
	if err != nil {
		return ctxerr.Wrap(ctxerr.DatabaseError, "beginning transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck
	if err := bumpGenerationTx(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func bumpGenerationTx(tx *sql.Tx) error {
	_, err := tx.Exec(`
		INSERT INTO meta (key, value) VALUES ('generation', '1')
		ON CONFLICT(key) DO UPDATE SET value = CAST(CAST(value AS INTEGER) + 1 AS TEXT)`)
	if err != nil {
		return ctxerr.Wrap(ctxerr.DatabaseError, "bumping generation counter", err)
	}
	return nil
}

// Generation returns the current index generation: any write touching
// chunks increments it, so a query-cache key built from it goes stale.
func (s *Store) Generation() (int64, error) {
	row := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'generation'`)
	var v string
	if err := row.Scan(&v); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, ctxerr.Wrap(ctxerr.DatabaseError, "reading generation counter", err)
	}
	var gen int64
	_, _ = fmt.Sscanf(v, "%d", &gen)
	return gen, nil
}

// GetIndexStats summarizes the index for the status command.
func (s *Store) GetIndexStats() (IndexStats, error) {
	var stats IndexStats
	row := s.db.QueryRow(`SELECT COUNT(*) FROM sources`)
	if err := row.Scan(&stats.SourceCount); err != nil {
		return stats, ctxerr.Wrap(ctxerr.DatabaseError, "counting sources", err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM files`).Scan(&stats.FileCount); err != nil {
		return stats, ctxerr.Wrap(ctxerr.DatabaseError, "counting files", err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(tokens), 0) FROM chunks`).Scan(&stats.ChunkCount, &stats.TotalTokens); err != nil {
		return stats, ctxerr.Wrap(ctxerr.DatabaseError, "counting chunks", err)
	}
	gen, err := s.Generation()
	if err != nil {
		return stats, err
	}
	stats.Generation = gen
	return stats, nil
}

package store

import (
	"database/sql"
	"time"

	"github.com/contextkit/contextkit/internal/ctxerr"
	"github.com/contextkit/contextkit/internal/models"
)

// CacheGet checks the in-process LRU first, falling back to the
// persisted table and populating the LRU on a hit. A miss at both levels
// returns ok=false rather than an error: a cold cache is not fallible.
func (s *Store) CacheGet(key string) ([]byte, bool, error) {
	if v, ok := s.cacheLRU.Get(key); ok {
		return v, true, nil
	}

	row := s.db.QueryRow(`SELECT value FROM query_cache WHERE key = ?`, key)
	var value []byte
	if err := row.Scan(&value); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, ctxerr.Wrap(ctxerr.DatabaseError, "reading query cache", err)
	}

	if _, err := s.db.Exec(`UPDATE query_cache SET hits = hits + 1 WHERE key = ?`, key); err != nil {
		return nil, false, ctxerr.Wrap(ctxerr.DatabaseError, "recording cache hit", err)
	}
	s.cacheLRU.Add(key, value)
	return value, true, nil
}

// CachePut stores a rendered selection under key, replacing any prior
// entry, and refreshes the in-process LRU.
func (s *Store) CachePut(key string, value []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO query_cache (key, value, created_at, hits)
		VALUES (?, ?, ?, 0)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, created_at = excluded.created_at, hits = 0`,
		key, value, time.Now())
	if err != nil {
		return ctxerr.Wrap(ctxerr.DatabaseError, "writing query cache", err)
	}
	s.cacheLRU.Add(key, value)
	return nil
}

// CacheClear drops every cached query result, persisted and in-process.
func (s *Store) CacheClear() error {
	if _, err := s.db.Exec(`DELETE FROM query_cache`); err != nil {
		return ctxerr.Wrap(ctxerr.DatabaseError, "clearing query cache", err)
	}
	s.cacheLRU.Purge()
	return nil
}

// CacheStats reports entry count and total hits, for `contextkit cache`.
type CacheStats struct {
	Entries int
	Hits    int
}

// CacheStats summarizes the persisted query cache.
func (s *Store) CacheStats() (CacheStats, error) {
	var st CacheStats
	row := s.db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(hits), 0) FROM query_cache`)
	if err := row.Scan(&st.Entries, &st.Hits); err != nil {
		return st, ctxerr.Wrap(ctxerr.DatabaseError, "reading cache stats", err)
	}
	return st, nil
}

// RecordQuery appends an entry to the query history log.
func (s *Store) RecordQuery(entry models.HistoryEntry) error {
	sourcesBlob, err := encodeStrings(entry.Sources)
	if err != nil {
		return ctxerr.Wrap(ctxerr.DatabaseError, "encoding history sources", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO query_history (run_id, query, budget, mode, format, sources, executed_at, total_tokens, num_chunks)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.RunID, entry.Query, entry.Budget, entry.Mode, entry.Format, sourcesBlob, entry.ExecutedAt, entry.TotalToken, entry.NumChunks)
	if err != nil {
		return ctxerr.Wrap(ctxerr.DatabaseError, "recording query history", err)
	}
	return nil
}

// GetHistory returns the most recent history entries, newest first,
// capped at limit (0 means no cap).
func (s *Store) GetHistory(limit int) ([]models.HistoryEntry, error) {
	query := `SELECT run_id, query, budget, mode, format, sources, executed_at, total_tokens, num_chunks FROM query_history ORDER BY executed_at DESC`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = s.db.Query(query+` LIMIT ?`, limit)
	} else {
		rows, err = s.db.Query(query)
	}
	if err != nil {
		return nil, ctxerr.Wrap(ctxerr.DatabaseError, "listing query history", err)
	}
	defer rows.Close()

	var out []models.HistoryEntry
	for rows.Next() {
		var e models.HistoryEntry
		var sourcesBlob []byte
		if err := rows.Scan(&e.RunID, &e.Query, &e.Budget, &e.Mode, &e.Format, &sourcesBlob, &e.ExecutedAt, &e.TotalToken, &e.NumChunks); err != nil {
			return nil, ctxerr.Wrap(ctxerr.DatabaseError, "scanning history row", err)
		}
		e.Sources = decodeStrings(sourcesBlob)
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetHistoryByRunID returns a single history entry by its run id, or
// ok=false if no entry with that id was recorded.
func (s *Store) GetHistoryByRunID(runID string) (models.HistoryEntry, bool, error) {
	row := s.db.QueryRow(`SELECT run_id, query, budget, mode, format, sources, executed_at, total_tokens, num_chunks FROM query_history WHERE run_id = ?`, runID)

	var e models.HistoryEntry
	var sourcesBlob []byte
	err := row.Scan(&e.RunID, &e.Query, &e.Budget, &e.Mode, &e.Format, &sourcesBlob, &e.ExecutedAt, &e.TotalToken, &e.NumChunks)
	if err == sql.ErrNoRows {
		return models.HistoryEntry{}, false, nil
	}
	if err != nil {
		return models.HistoryEntry{}, false, ctxerr.Wrap(ctxerr.DatabaseError, "reading history entry", err)
	}
	e.Sources = decodeStrings(sourcesBlob)
	return e, true, nil
}

// ClearHistory deletes every recorded history entry.
func (s *Store) ClearHistory() error {
	if _, err := s.db.Exec(`DELETE FROM query_history`); err != nil {
		return ctxerr.Wrap(ctxerr.DatabaseError, "clearing query history", err)
	}
	return nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package docindex manages the local document chunk index queried by the
// vector-index source adapter. Ingestion (parsing, chunking, embedding)
// happens upstream; this package owns the query side plus a loader for
// prepared chunk files.
package docindex

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// Chunk is one indexed document passage.
type Chunk struct {
	ID          string    `json:"id" yaml:"id"`
	DocumentID  string    `json:"document_id" yaml:"document_id"`
	Title       string    `json:"title" yaml:"title"`
	Text        string    `json:"text" yaml:"text"`
	PublishedAt time.Time `json:"published_at,omitempty" yaml:"published_at,omitempty"`
}

// ChunkFile is the on-disk format the loader consumes: one YAML document
// per source file, produced by the upstream ingestion pipeline.
type ChunkFile struct {
	DocumentID  string    `yaml:"document_id"`
	Title       string    `yaml:"title"`
	PublishedAt time.Time `yaml:"published_at,omitempty"`
	Chunks      []string  `yaml:"chunks"`
}

// Index manages the chunk SQLite database.
type Index struct {
	db         *sql.DB
	maxResults int
}

// Open opens or creates the chunk index at cfg.DBPath.
func Open(cfg types.DocIndexConfig) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening index database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}

	idx := &Index{db: db, maxResults: maxResults}
	if err := idx.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating index schema: %w", err)
	}
	return idx, nil
}

// Close releases the database connection.
func (idx *Index) Close() error {
	return idx.db.Close()
}

func (idx *Index) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS chunks (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			document_id TEXT NOT NULL,
			title TEXT,
			text TEXT NOT NULL,
			published_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_document ON chunks(document_id)`,
	}
	for _, stmt := range statements {
		if _, err := idx.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	var ftsExists int
	if err := idx.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='chunks_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE chunks_fts USING fts5(text, content=chunks, content_rowid=rowid)`,
			`CREATE TRIGGER chunks_ai AFTER INSERT ON chunks BEGIN
				INSERT INTO chunks_fts(rowid, text) VALUES (new.rowid, new.text);
			END`,
			`CREATE TRIGGER chunks_ad AFTER DELETE ON chunks BEGIN
				INSERT INTO chunks_fts(chunks_fts, rowid, text) VALUES('delete', old.rowid, old.text);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := idx.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// LoadSummary holds counts from a chunk-file loading run.
type LoadSummary struct {
	Documents int
	Chunks    int
	Failed    int
}

// Load ingests prepared chunk YAML files from dir into the index.
// Re-loading a document replaces its chunks.
func (idx *Index) Load(ctx context.Context, dir string) (LoadSummary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return LoadSummary{}, fmt.Errorf("reading chunk directory %s: %w", dir, err)
	}

	var summary LoadSummary
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			summary.Failed++
			continue
		}

		var cf ChunkFile
		if err := yaml.Unmarshal(data, &cf); err != nil || cf.DocumentID == "" {
			summary.Failed++
			continue
		}

		n, err := idx.loadDocument(ctx, cf)
		if err != nil {
			summary.Failed++
			continue
		}
		summary.Documents++
		summary.Chunks += n
	}
	return summary, nil
}

func (idx *Index) loadDocument(ctx context.Context, cf ChunkFile) (int, error) {
	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, cf.DocumentID); err != nil {
		return 0, fmt.Errorf("deleting old chunks: %w", err)
	}

	publishedAt := ""
	if !cf.PublishedAt.IsZero() {
		publishedAt = cf.PublishedAt.UTC().Format(time.RFC3339)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (id, document_id, title, text, published_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	n := 0
	for i, text := range cf.Chunks {
		if strings.TrimSpace(text) == "" {
			continue
		}
		id := fmt.Sprintf("%s#%d", cf.DocumentID, i)
		if _, err := stmt.ExecContext(ctx, id, cf.DocumentID, cf.Title, text, publishedAt); err != nil {
			return 0, fmt.Errorf("inserting chunk %s: %w", id, err)
		}
		n++
	}

	return n, tx.Commit()
}

// Search runs a full-text query over indexed chunks, best match first.
// limit zero uses the index default.
func (idx *Index) Search(ctx context.Context, query string, limit int) ([]Chunk, error) {
	if limit <= 0 {
		limit = idx.maxResults
	}

	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}

	rows, err := idx.db.QueryContext(ctx,
		`SELECT c.id, c.document_id, c.title, c.text, c.published_at
		 FROM chunks_fts
		 JOIN chunks c ON c.rowid = chunks_fts.rowid
		 WHERE chunks_fts MATCH ?
		 ORDER BY chunks_fts.rank
		 LIMIT ?`,
		match, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var (
			c           Chunk
			title       sql.NullString
			publishedAt sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.DocumentID, &title, &c.Text, &publishedAt); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		if title.Valid {
			c.Title = title.String
		}
		if publishedAt.Valid && publishedAt.String != "" {
			if t, err := time.Parse(time.RFC3339, publishedAt.String); err == nil {
				c.PublishedAt = t
			}
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// Count returns the number of indexed chunks.
func (idx *Index) Count(ctx context.Context) (int, error) {
	var n int
	if err := idx.db.QueryRowContext(ctx, `SELECT count(*) FROM chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// ftsQuery converts free text into a safe FTS5 match expression by
// quoting each term.
func ftsQuery(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	quoted := make([]string, 0, len(fields))
	for _, f := range fields {
		quoted = append(quoted, `"`+strings.ReplaceAll(f, `"`, ``)+`"`)
	}
	return strings.Join(quoted, " OR ")
}

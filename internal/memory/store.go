// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package memory persists conversation turns and serves them back as
// retrieval context. The store is the pipeline's memory sink (best-effort
// persistence after an answer is finalized) and the backing service of the
// memory source adapter.
package memory

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// Turn is one persisted question/answer exchange.
type Turn struct {
	ID         string    `json:"id" yaml:"id"`
	SessionID  string    `json:"session_id" yaml:"session_id"`
	UserID     string    `json:"user_id" yaml:"user_id"`
	Question   string    `json:"question" yaml:"question"`
	Answer     string    `json:"answer" yaml:"answer"`
	Confidence float64   `json:"confidence" yaml:"confidence"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
}

// Store manages the conversation memory SQLite database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// Open opens or creates the memory database at cfg.DBPath, creating the
// schema if it does not exist.
func Open(cfg types.MemoryConfig) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating memory directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening memory database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating memory schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS turns (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			session_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			confidence REAL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='turns_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE turns_fts USING fts5(question, answer, content=turns, content_rowid=rowid)`,
			`CREATE TRIGGER turns_ai AFTER INSERT ON turns BEGIN
				INSERT INTO turns_fts(rowid, question, answer) VALUES (new.rowid, new.question, new.answer);
			END`,
			`CREATE TRIGGER turns_ad AFTER DELETE ON turns BEGIN
				INSERT INTO turns_fts(turns_fts, rowid, question, answer) VALUES('delete', old.rowid, old.question, old.answer);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// SaveTurn persists one exchange. It is the memory sink: callers invoke it
// after the answer has already been returned, and treat errors as
// log-only.
func (s *Store) SaveTurn(ctx context.Context, turn Turn) error {
	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO turns (id, session_id, user_id, question, answer, confidence, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		turn.ID, turn.SessionID, turn.UserID, turn.Question, turn.Answer,
		turn.Confidence, turn.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting turn: %w", err)
	}
	return nil
}

// Persist implements the pipeline's memory sink: one turn per finished
// exchange.
func (s *Store) Persist(ctx context.Context, req types.AskRequest, answer types.StructuredAnswer) error {
	return s.SaveTurn(ctx, Turn{
		SessionID:  req.SessionID,
		UserID:     req.UserID,
		Question:   req.QuestionText,
		Answer:     answer.MainAnswer,
		Confidence: answer.OverallConfidence,
	})
}

// Search runs a full-text query over stored turns, best match first.
// limit zero uses the store default.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]Turn, error) {
	if limit <= 0 {
		limit = s.maxResults
	}

	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT t.id, t.session_id, t.user_id, t.question, t.answer, t.confidence, t.created_at
		 FROM turns_fts
		 JOIN turns t ON t.rowid = turns_fts.rowid
		 WHERE turns_fts MATCH ?
		 ORDER BY turns_fts.rank
		 LIMIT ?`,
		match, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying memory: %w", err)
	}
	defer rows.Close()

	return scanTurns(rows)
}

// Recent returns the newest turns, for CLI inspection.
func (s *Store) Recent(ctx context.Context, limit int) ([]Turn, error) {
	if limit <= 0 {
		limit = s.maxResults
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, user_id, question, answer, confidence, created_at
		 FROM turns ORDER BY rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying recent turns: %w", err)
	}
	defer rows.Close()

	return scanTurns(rows)
}

func scanTurns(rows *sql.Rows) ([]Turn, error) {
	var turns []Turn
	for rows.Next() {
		var (
			t          Turn
			confidence sql.NullFloat64
			createdAt  string
		)
		if err := rows.Scan(&t.ID, &t.SessionID, &t.UserID, &t.Question, &t.Answer, &confidence, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		if confidence.Valid {
			t.Confidence = confidence.Float64
		}
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			t.CreatedAt = ts
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// ftsQuery converts free text into a safe FTS5 match expression by
// quoting each term. Empty input yields an empty expression.
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

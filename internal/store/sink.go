package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/itsmostafa/docai/internal/export"
)

const resultsTable = "docai_results"

const createResultsTable = `
CREATE TABLE IF NOT EXISTS docai_results (
	id            BIGSERIAL PRIMARY KEY,
	run_id        UUID NOT NULL,
	filename      TEXT NOT NULL,
	language      TEXT NOT NULL DEFAULT '',
	document_type TEXT NOT NULL DEFAULT '',
	is_contract   TEXT NOT NULL DEFAULT '',
	field_name    TEXT NOT NULL DEFAULT '',
	page          TEXT NOT NULL DEFAULT '',
	text          TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS docai_results_run_id_idx ON docai_results (run_id);
`

// ResultSink stores spreadsheet rows in Postgres.
type ResultSink struct {
	db *sql.DB
}

// OpenResultSink connects to dsn and ensures the results table exists.
func OpenResultSink(ctx context.Context, dsn string) (*ResultSink, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	s := NewResultSink(db)
	if err := s.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("schema setup failed: %w", err)
	}
	return s, nil
}

// NewResultSink wraps an open database.
func NewResultSink(db *sql.DB) *ResultSink {
	return &ResultSink{db: db}
}

// EnsureSchema creates the results table if needed.
func (s *ResultSink) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, createResultsTable)
	return err
}

// Save bulk inserts rows under a new run id and returns it.
func (s *ResultSink) Save(ctx context.Context, rows []export.Row) (uuid.UUID, error) {
	runID := uuid.New()
	if len(rows) == 0 {
		return runID, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(resultsTable,
		"run_id", "filename", "language", "document_type", "is_contract",
		"field_name", "page", "text",
	))
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, runID.String(), r.Filename, r.Language, r.DocumentType,
			r.Contract, r.FieldName, r.Page, r.Text); err != nil {
			return uuid.Nil, fmt.Errorf("failed to copy row for %s: %w", r.Filename, err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("failed to execute bulk insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return runID, nil
}

// Count returns the number of rows stored for a run.
func (s *ResultSink) Count(ctx context.Context, runID uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT count(*) FROM "+resultsTable+" WHERE run_id = $1", runID.String()).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *ResultSink) Close() error {
	return s.db.Close()
}

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/andresmejia3/ocrline/internal/ocr"
	"github.com/andresmejia3/ocrline/internal/types"
	"github.com/andresmejia3/ocrline/internal/utils"
	"github.com/jackc/pgx/v5"
)

// Store manages the PostgreSQL connection holding the recognition history.
type Store struct {
	conn   *pgx.Conn
	engine string
}

// Run is one row of the recognition history.
type Run struct {
	ID        int64
	ImageID   string
	Path      string
	Engine    string
	Lang      string
	LineCount int
	Lines     []types.Record
	Error     string
	CreatedAt time.Time
}

// New establishes a connection to the database and ensures the schema is initialized.
// engine is stored with every run so history shows which backend produced it.
func New(ctx context.Context, connString, engine string) (*Store, error) {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, err
	}

	// Initialize schema (Auto-Migration)
	if err := initSchema(ctx, conn); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	return &Store{conn: conn, engine: engine}, nil
}

// initSchema creates the history table if it doesn't exist (Auto-Migration).
func initSchema(ctx context.Context, conn *pgx.Conn) error {
	query := `
		CREATE TABLE IF NOT EXISTS recognition_runs (
			id BIGSERIAL PRIMARY KEY,
			image_id TEXT NOT NULL DEFAULT '',
			path TEXT NOT NULL,
			engine TEXT NOT NULL,
			lang TEXT NOT NULL,
			line_count INT NOT NULL DEFAULT 0,
			lines JSONB,
			error TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS recognition_runs_image_id_idx ON recognition_runs (image_id);
	`
	_, err := conn.Exec(ctx, query)
	return err
}

// Close terminates the database connection.
func (s *Store) Close(ctx context.Context) {
	s.conn.Close(ctx)
}

// RecordRun implements ocr.Recorder. Failed runs are stored with their error and no lines.
func (s *Store) RecordRun(ctx context.Context, path string, cfg ocr.Config, lines []types.Record, runErr error) error {
	// Unreadable files (e.g. a missing path) simply have no fingerprint.
	imageID, _ := utils.FingerprintImage(path)

	var linesJSON []byte
	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
	} else {
		var err error
		if linesJSON, err = json.Marshal(lines); err != nil {
			return fmt.Errorf("failed to encode lines: %w", err)
		}
	}

	_, err := s.conn.Exec(ctx, `
		INSERT INTO recognition_runs (image_id, path, engine, lang, line_count, lines, error)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7)
	`, imageID, path, s.engine, cfg.Lang, len(lines), nullableJSON(linesJSON), errMsg)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

func nullableJSON(b []byte) *string {
	if b == nil {
		return nil
	}
	s := string(b)
	return &s
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.conn.Query(ctx, `
		SELECT id, image_id, path, engine, lang, line_count, COALESCE(lines::text, ''), error, created_at
		FROM recognition_runs
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var linesText string
		if err := rows.Scan(&r.ID, &r.ImageID, &r.Path, &r.Engine, &r.Lang, &r.LineCount, &linesText, &r.Error, &r.CreatedAt); err != nil {
			return nil, err
		}
		if linesText != "" {
			if err := json.Unmarshal([]byte(linesText), &r.Lines); err != nil {
				return nil, fmt.Errorf("run %d: failed to decode lines: %w", r.ID, err)
			}
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Reset drops the history table.
// This is useful for development to force a schema refresh without migrations.
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.conn.Exec(ctx, `DROP TABLE IF EXISTS recognition_runs CASCADE;`)
	return err
}

// Package sessions persists the lifecycle of recorded sessions in SQLite so
// the CLI can report history and resume bookkeeping across runs.
package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"keyreel/internal/config"
)

// Store manages session persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the session database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.LogDir, "sessions.db"))
}

// OpenPath opens the session database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Create inserts a new session row in the recording state.
func (s *Store) Create(ctx context.Context, sessionID, outputDir, roiJSON string) (*Record, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO sessions (
            session_id, output_dir, status, roi_json, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID,
		outputDir,
		StatusRecording,
		nullableString(roiJSON),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.getByID(ctx, id)
}

// GetBySessionID fetches a session row, or nil when none exists.
func (s *Store) GetBySessionID(ctx context.Context, sessionID string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM sessions WHERE session_id = ?`, sessionID)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return record, nil
}

// FindByOutputDir returns the most recent session rooted at a directory.
func (s *Store) FindByOutputDir(ctx context.Context, outputDir string) (*Record, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+recordColumns+` FROM sessions WHERE output_dir = ? ORDER BY id DESC LIMIT 1`,
		outputDir,
	)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by output dir: %w", err)
	}
	return record, nil
}

// List returns the most recent sessions, newest first. A non-positive limit
// returns every row.
func (s *Store) List(ctx context.Context, limit int) ([]*Record, error) {
	query := `SELECT ` + recordColumns + ` FROM sessions ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	records := make([]*Record, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return records, nil
}

// SetStatus advances a session to a new lifecycle state.
func (s *Store) SetStatus(ctx context.Context, sessionID string, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("unknown session status %q", status)
	}
	return s.update(ctx, sessionID,
		`UPDATE sessions SET status = ?, updated_at = ? WHERE session_id = ?`,
		status, now(), sessionID)
}

// SetDuration records the final recording duration.
func (s *Store) SetDuration(ctx context.Context, sessionID string, durationMs int64) error {
	return s.update(ctx, sessionID,
		`UPDATE sessions SET duration_ms = ?, updated_at = ? WHERE session_id = ?`,
		durationMs, now(), sessionID)
}

// MarkFailed moves a session into a terminal failure state with a message.
// The status must be failed or timed_out.
func (s *Store) MarkFailed(ctx context.Context, sessionID string, status Status, message string) error {
	if status != StatusFailed && status != StatusTimedOut {
		return fmt.Errorf("status %q is not a failure state", status)
	}
	return s.update(ctx, sessionID,
		`UPDATE sessions SET status = ?, error_message = ?, updated_at = ? WHERE session_id = ?`,
		status, nullableString(message), now(), sessionID)
}

func (s *Store) update(ctx context.Context, sessionID, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("session %q not found", sessionID)
	}
	return nil
}

func (s *Store) getByID(ctx context.Context, id int64) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM sessions WHERE id = ?`, id)
	record, err := scanRecord(row)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return record, nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

// Store manages the registry database.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or connects to the registry database and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create registry dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RunStart describes a stage invocation.
type RunStart struct {
	RunID   string
	Stage   string
	Scene   int
	Chapter int
}

// Run is one recorded stage invocation.
type Run struct {
	ID         int64     `json:"id"`
	RunID      string    `json:"run_id"`
	Stage      string    `json:"stage"`
	Scene      int       `json:"scene,omitempty"`
	Chapter    int       `json:"chapter,omitempty"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// ArtifactRecord indexes the latest write of an artifact path.
type ArtifactRecord struct {
	Path      string
	Kind      string
	Scene     int
	Chapter   int
	SHA256    string
	Stage     string
	RunID     string
	UpdatedAt time.Time
}

// BeginRun inserts a running row and returns its id.
func (s *Store) BeginRun(ctx context.Context, start RunStart) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (run_id, stage, scene_id, chapter_no, status, started_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		start.RunID,
		start.Stage,
		nullableInt(start.Scene),
		nullableInt(start.Chapter),
		StatusRunning,
		formatTime(time.Now()),
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// FinishRun records the outcome of a run.
func (s *Store) FinishRun(ctx context.Context, id int64, status, message string) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE runs SET status = ?, error_message = ?, finished_at = ? WHERE id = ?`,
		status,
		nullableString(message),
		formatTime(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("update run %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update run %d: %w", id, sql.ErrNoRows)
	}
	return nil
}

// RecordArtifact upserts the index row for an artifact path.
func (s *Store) RecordArtifact(ctx context.Context, rec ArtifactRecord) error {
	updated := rec.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO artifacts (path, kind, scene_id, chapter_no, sha256, stage, run_id, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(path) DO UPDATE SET
            kind = excluded.kind,
            scene_id = excluded.scene_id,
            chapter_no = excluded.chapter_no,
            sha256 = excluded.sha256,
            stage = excluded.stage,
            run_id = excluded.run_id,
            updated_at = excluded.updated_at`,
		rec.Path,
		rec.Kind,
		nullableInt(rec.Scene),
		nullableInt(rec.Chapter),
		rec.SHA256,
		rec.Stage,
		rec.RunID,
		formatTime(updated),
	)
	if err != nil {
		return fmt.Errorf("record artifact %s: %w", rec.Path, err)
	}
	return nil
}

// Artifacts lists every indexed artifact ordered by path.
func (s *Store) Artifacts(ctx context.Context) ([]ArtifactRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, kind, scene_id, chapter_no, sha256, stage, run_id, updated_at
         FROM artifacts ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("query artifacts: %w", err)
	}
	defer rows.Close()

	var out []ArtifactRecord
	for rows.Next() {
		var (
			rec     ArtifactRecord
			scene   sql.NullInt64
			chapter sql.NullInt64
			updated string
		)
		if err := rows.Scan(&rec.Path, &rec.Kind, &scene, &chapter, &rec.SHA256, &rec.Stage, &rec.RunID, &updated); err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		rec.Scene = int(scene.Int64)
		rec.Chapter = int(chapter.Int64)
		rec.UpdatedAt = parseTime(updated)
		out = append(out, rec)
	}
	return out, rows.Err()
}

const runColumns = "id, run_id, stage, scene_id, chapter_no, status, error_message, started_at, finished_at"

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *run)
	}
	return out, rows.Err()
}

// LastRun returns the newest run of a stage. The boolean is false when the
// stage never ran.
func (s *Store) LastRun(ctx context.Context, stage string) (*Run, bool, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+runColumns+" FROM runs WHERE stage = ? ORDER BY id DESC LIMIT 1", stage)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return run, true, nil
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run      Run
		scene    sql.NullInt64
		chapter  sql.NullInt64
		message  sql.NullString
		started  string
		finished sql.NullString
	)
	if err := scanner.Scan(&run.ID, &run.RunID, &run.Stage, &scene, &chapter, &run.Status, &message, &started, &finished); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	run.Scene = int(scene.Int64)
	run.Chapter = int(chapter.Int64)
	run.Error = message.String
	run.StartedAt = parseTime(started)
	if finished.Valid {
		run.FinishedAt = parseTime(finished.String)
	}
	return &run, nil
}

func nullableInt(v int) any {
	if v <= 0 {
		return nil
	}
	return v
}

func nullableString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

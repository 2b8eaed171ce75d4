package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// =============================================================================
// SQLiteStore
// =============================================================================

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// dsnPath returns the database file named by dsn, without a "file:" scheme
// or query parameters.
func dsnPath(dsn string) string {
	path, _, _ := strings.Cut(dsn, "?")
	return strings.TrimPrefix(path, "file:")
}

// withForeignKeys appends _foreign_keys=on unless dsn already sets it.
func withForeignKeys(dsn string) string {
	_, query, hasQuery := strings.Cut(dsn, "?")
	if !hasQuery {
		return dsn + "?_foreign_keys=on"
	}
	for _, param := range strings.Split(query, "&") {
		key, _, _ := strings.Cut(param, "=")
		if key == "_foreign_keys" || key == "_fk" {
			return dsn
		}
	}
	return dsn + "&_foreign_keys=on"
}

// NewSQLiteStore creates a new SQLite store and runs migrations.
// The parent directory of a file DSN is created if needed.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	if path := dsnPath(dsn); path != "" && path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, NewStoreError("NewSQLiteStore", "", "", err.Error(), ErrConnectionFailed)
			}
		}
	}

	db, err := sqlx.Open("sqlite3", withForeignKeys(dsn))
	if err != nil {
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to open database", ErrConnectionFailed)
	}
	// One connection: an in-memory database is private to its connection,
	// and a single writer avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to ping database", ErrConnectionFailed)
	}

	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", err.Error(), ErrMigrationFailed)
	}

	return &SQLiteStore{db: db}, nil
}

// runMigrations runs database migrations using embedded SQL files.
func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// Run Operations
// =============================================================================

// runRow represents a run row in the database.
type runRow struct {
	ID          string  `db:"id"`
	StartedAt   string  `db:"started_at"`
	FinishedAt  *string `db:"finished_at"`
	FailedSteps int     `db:"failed_steps"`
	ProjectRoot string  `db:"project_root"`
}

func (s *SQLiteStore) CreateRun(ctx context.Context, run *Run) error {
	query := `
		INSERT INTO runs (id, started_at, finished_at, failed_steps, project_root)
		VALUES (:id, :started_at, :finished_at, :failed_steps, :project_root)`

	row := map[string]any{
		"id":           run.ID,
		"started_at":   formatTime(run.StartedAt),
		"finished_at":  formatTimePtr(run.FinishedAt),
		"failed_steps": run.FailedSteps,
		"project_root": run.ProjectRoot,
	}

	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: runs.id") {
			return NewStoreError("CreateRun", "run", run.ID, "run with this ID already exists", ErrDuplicateID)
		}
		return NewStoreError("CreateRun", "run", run.ID, err.Error(), err)
	}
	return nil
}

func (s *SQLiteStore) FinishRun(ctx context.Context, id string, finishedAt time.Time, failedSteps int) error {
	query := `UPDATE runs SET finished_at = ?, failed_steps = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, formatTime(finishedAt), failedSteps, id)
	if err != nil {
		return NewStoreError("FinishRun", "run", id, err.Error(), err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return NewStoreError("FinishRun", "run", id, "run not found", ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	query := `SELECT * FROM runs WHERE id = ?`

	var row runRow
	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetRun", "run", id, "run not found", ErrNotFound)
		}
		return nil, NewStoreError("GetRun", "run", id, err.Error(), err)
	}
	return rowToRun(&row)
}

// ListRuns returns the most recent runs first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	query := `SELECT * FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`

	var rows []runRow
	if err := s.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, NewStoreError("ListRuns", "run", "", err.Error(), err)
	}

	runs := make([]Run, 0, len(rows))
	for i := range rows {
		run, err := rowToRun(&rows[i])
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, nil
}

func rowToRun(row *runRow) (*Run, error) {
	startedAt, err := parseTime(row.StartedAt)
	if err != nil {
		return nil, NewStoreError("rowToRun", "run", row.ID, "invalid started_at", ErrInvalidData)
	}
	run := &Run{
		ID:          row.ID,
		StartedAt:   startedAt,
		FailedSteps: row.FailedSteps,
		ProjectRoot: row.ProjectRoot,
	}
	if row.FinishedAt != nil {
		t, err := parseTime(*row.FinishedAt)
		if err != nil {
			return nil, NewStoreError("rowToRun", "run", row.ID, "invalid finished_at", ErrInvalidData)
		}
		run.FinishedAt = &t
	}
	return run, nil
}

// =============================================================================
// Step Operations
// =============================================================================

// stepRow represents a step_results row in the database.
type stepRow struct {
	RunID      string `db:"run_id"`
	Step       int    `db:"step"`
	Name       string `db:"name"`
	Command    string `db:"command"`
	Dir        string `db:"dir"`
	ExitCode   int    `db:"exit_code"`
	Error      string `db:"error"`
	DurationMS int64  `db:"duration_ms"`
	StartedAt  string `db:"started_at"`
}

func (s *SQLiteStore) RecordStep(ctx context.Context, step *StepResult) error {
	query := `
		INSERT INTO step_results (
			run_id, step, name, command, dir, exit_code, error, duration_ms, started_at
		) VALUES (
			:run_id, :step, :name, :command, :dir, :exit_code, :error, :duration_ms, :started_at
		)`

	row := stepRow{
		RunID:      step.RunID,
		Step:       step.Step,
		Name:       step.Name,
		Command:    step.Command,
		Dir:        step.Dir,
		ExitCode:   step.ExitCode,
		Error:      step.Error,
		DurationMS: step.Duration.Milliseconds(),
		StartedAt:  formatTime(step.StartedAt),
	}

	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		id := fmt.Sprintf("%s/%d", step.RunID, step.Step)
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return NewStoreError("RecordStep", "step", id, "run does not exist", ErrForeignKey)
		}
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return NewStoreError("RecordStep", "step", id, "step already recorded", ErrDuplicateID)
		}
		return NewStoreError("RecordStep", "step", id, err.Error(), err)
	}
	return nil
}

// ListSteps returns the steps of a run in execution order.
func (s *SQLiteStore) ListSteps(ctx context.Context, runID string) ([]StepResult, error) {
	query := `SELECT * FROM step_results WHERE run_id = ? ORDER BY step`

	var rows []stepRow
	if err := s.db.SelectContext(ctx, &rows, query, runID); err != nil {
		return nil, NewStoreError("ListSteps", "step", runID, err.Error(), err)
	}

	steps := make([]StepResult, 0, len(rows))
	for _, row := range rows {
		startedAt, err := parseTime(row.StartedAt)
		if err != nil {
			return nil, NewStoreError("ListSteps", "step", runID, "invalid started_at", ErrInvalidData)
		}
		steps = append(steps, StepResult{
			RunID:     row.RunID,
			Step:      row.Step,
			Name:      row.Name,
			Command:   row.Command,
			Dir:       row.Dir,
			ExitCode:  row.ExitCode,
			Error:     row.Error,
			Duration:  time.Duration(row.DurationMS) * time.Millisecond,
			StartedAt: startedAt,
		})
	}
	return steps, nil
}

// =============================================================================
// Helpers
// =============================================================================

// timeLayout is fixed-width so that stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

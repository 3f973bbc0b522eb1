package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/nicole-dwenger/cdsspatial-preprocessing/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	city        TEXT NOT NULL,
	seed        INTEGER NOT NULL,
	ratio       REAL NOT NULL,
	status      TEXT NOT NULL DEFAULT 'running',
	dot_count   INTEGER NOT NULL DEFAULT 0,
	error       TEXT,
	started_at  DATETIME NOT NULL,
	finished_at DATETIME
);

CREATE TABLE IF NOT EXISTS dots (
	run_id    TEXT NOT NULL REFERENCES runs(id),
	city      TEXT NOT NULL,
	longitude REAL NOT NULL,
	latitude  REAL NOT NULL,
	category  TEXT NOT NULL,
	region_id TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_city ON runs(city, started_at);
CREATE INDEX IF NOT EXISTS idx_dots_city ON dots(city);
`

// Migrate creates the schema if it does not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteMigration); err != nil {
		return eris.Wrap(err, "sqlite: migrate")
	}
	return nil
}

// CreateRun inserts a new run row.
func (s *SQLiteStore) CreateRun(ctx context.Context, run *model.Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, city, seed, ratio, status, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.City, run.Seed, run.Ratio, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: create run")
	}
	return nil
}

// CompleteRun marks a run completed with its final dot count.
func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, dotCount int) error {
	return s.finishRun(ctx, runID, model.RunStatusCompleted, dotCount, "")
}

// FailRun marks a run failed and records the error message.
func (s *SQLiteStore) FailRun(ctx context.Context, runID string, runErr error) error {
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	return s.finishRun(ctx, runID, model.RunStatusFailed, 0, msg)
}

func (s *SQLiteStore) finishRun(ctx context.Context, runID string, status model.RunStatus, dotCount int, msg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, dot_count = ?, error = ?, finished_at = ? WHERE id = ?`,
		string(status), dotCount, nullIfEmpty(msg), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish run %s", runID)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return eris.Errorf("sqlite: run %s not found", runID)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, city, seed, ratio, status, dot_count, error, started_at, finished_at
		 FROM runs WHERE id = ?`, runID)
	run, err := scanRun(row.Scan)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("sqlite: run %s not found", runID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get run")
	}
	return run, nil
}

// ListRuns lists runs matching the filter, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, city, seed, ratio, status, dot_count, error, started_at, finished_at FROM runs WHERE 1=1`
	var args []any
	if filter.City != "" {
		query += ` AND city = ?`
		args = append(args, filter.City)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY started_at DESC`
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += ` LIMIT ? OFFSET ?`
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.Run
	for rows.Next() {
		run, err := scanRun(rows.Scan)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate runs")
	}
	return runs, nil
}

// SaveDots replaces the stored dot set for the run's city in one
// transaction.
func (s *SQLiteStore) SaveDots(ctx context.Context, runID string, collection *model.DotCollection) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin save dots")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM dots WHERE city = ?`, collection.City); err != nil {
		return eris.Wrap(err, "sqlite: clear previous dots")
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO dots (run_id, city, longitude, latitude, category, region_id) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare dot insert")
	}
	defer stmt.Close() //nolint:errcheck

	for i := range collection.Dots {
		d := &collection.Dots[i]
		if _, err := stmt.ExecContext(ctx, runID, collection.City, d.Lon, d.Lat, d.Category, d.RegionID); err != nil {
			return eris.Wrap(err, "sqlite: insert dot")
		}
	}

	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "sqlite: commit save dots")
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanFn func(dest ...any) error

func scanRun(scan scanFn) (*model.Run, error) {
	var run model.Run
	var status string
	var errMsg sql.NullString
	var finished sql.NullTime
	if err := scan(
		&run.ID, &run.City, &run.Seed, &run.Ratio, &status,
		&run.DotCount, &errMsg, &run.StartedAt, &finished,
	); err != nil {
		return nil, err
	}
	run.Status = model.RunStatus(status)
	if errMsg.Valid {
		run.Error = errMsg.String
	}
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	return &run, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/nicole-dwenger/cdsspatial-preprocessing/internal/db"
	"github.com/nicole-dwenger/cdsspatial-preprocessing/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	city        TEXT NOT NULL,
	seed        BIGINT NOT NULL,
	ratio       DOUBLE PRECISION NOT NULL,
	status      TEXT NOT NULL DEFAULT 'running',
	dot_count   INTEGER NOT NULL DEFAULT 0,
	error       TEXT,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS dots (
	run_id    TEXT NOT NULL REFERENCES runs(id),
	city      TEXT NOT NULL,
	longitude DOUBLE PRECISION NOT NULL,
	latitude  DOUBLE PRECISION NOT NULL,
	category  TEXT NOT NULL,
	region_id TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_city ON runs(city, started_at);
CREATE INDEX IF NOT EXISTS idx_dots_city ON dots(city);
`

// Migrate creates the schema if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	return nil
}

// CreateRun inserts a new run row.
func (s *PostgresStore) CreateRun(ctx context.Context, run *model.Run) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, city, seed, ratio, status, started_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		run.ID, run.City, run.Seed, run.Ratio, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: create run")
	}
	return nil
}

// CompleteRun marks a run completed with its final dot count.
func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, dotCount int) error {
	return s.finishRun(ctx, runID, model.RunStatusCompleted, dotCount, "")
}

// FailRun marks a run failed and records the error message.
func (s *PostgresStore) FailRun(ctx context.Context, runID string, runErr error) error {
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	return s.finishRun(ctx, runID, model.RunStatusFailed, 0, msg)
}

func (s *PostgresStore) finishRun(ctx context.Context, runID string, status model.RunStatus, dotCount int, msg string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, dot_count = $2, error = NULLIF($3, ''), finished_at = $4 WHERE id = $5`,
		string(status), dotCount, msg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: finish run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: run %s not found", runID)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, city, seed, ratio, status, dot_count, COALESCE(error, ''), started_at, finished_at
		 FROM runs WHERE id = $1`, runID)

	var run model.Run
	var status string
	var finished *time.Time
	err := row.Scan(&run.ID, &run.City, &run.Seed, &run.Ratio, &status,
		&run.DotCount, &run.Error, &run.StartedAt, &finished)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("postgres: run %s not found", runID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get run")
	}
	run.Status = model.RunStatus(status)
	run.FinishedAt = finished
	return &run, nil
}

// ListRuns lists runs matching the filter, newest first.
func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, city, seed, ratio, status, dot_count, COALESCE(error, ''), started_at, finished_at
		FROM runs
		WHERE ($1 = '' OR city = $1) AND ($2 = '' OR status = $2)
		ORDER BY started_at DESC
		LIMIT $3 OFFSET $4`

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx, query, filter.City, string(filter.Status), limit, filter.Offset)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var run model.Run
		var status string
		var finished *time.Time
		if err := rows.Scan(&run.ID, &run.City, &run.Seed, &run.Ratio, &status,
			&run.DotCount, &run.Error, &run.StartedAt, &finished); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		run.Status = model.RunStatus(status)
		run.FinishedAt = finished
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate runs")
	}
	return runs, nil
}

// dotColumns is the COPY column order for the dots table.
var dotColumns = []string{"run_id", "city", "longitude", "latitude", "category", "region_id"}

// SaveDots replaces the stored dot set for the run's city in one
// transaction, bulk-loading the new rows via COPY.
func (s *PostgresStore) SaveDots(ctx context.Context, runID string, collection *model.DotCollection) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin save dots")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM dots WHERE city = $1`, collection.City); err != nil {
		return eris.Wrap(err, "postgres: clear previous dots")
	}

	rows := make([][]any, 0, len(collection.Dots))
	for i := range collection.Dots {
		d := &collection.Dots[i]
		rows = append(rows, []any{runID, collection.City, d.Lon, d.Lat, d.Category, d.RegionID})
	}
	if _, err := db.CopyFrom(ctx, tx, "dots", dotColumns, rows); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return eris.Wrap(err, "postgres: commit save dots")
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

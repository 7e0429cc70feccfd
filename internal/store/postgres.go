package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// PgxPool is the subset of pgxpool.Pool used by PostgresStore. It exists so
// tests can substitute pgxmock.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store backed by a pgx connection pool.
type PostgresStore struct {
	pool PgxPool
}

// NewPostgresWithPool wraps an existing pool. Used by tests.
func NewPostgresWithPool(pool PgxPool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// NewPostgres connects to the given DSN and returns a PostgresStore.
func NewPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse dsn")
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	query      JSONB NOT NULL,
	status     TEXT NOT NULL DEFAULT 'queued',
	result     JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, query model.Query) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	queryJSON, err := json.Marshal(query)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal query")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO runs (id, query, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, queryJSON, string(model.RunStatusQueued), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:        id,
		Query:     query,
		Status:    model.RunStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run status %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) UpdateRunResult(ctx context.Context, runID string, status model.RunStatus, result *model.RunResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal result")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET result = $1, status = $2, updated_at = $3 WHERE id = $4`,
		resultJSON, string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run result %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, query, status, result, created_at, updated_at FROM runs WHERE id = $1`,
		runID,
	)
	return scanPgRun(row)
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	q := `SELECT id, query, status, result, created_at, updated_at FROM runs`
	var args []any
	if filter.Status != "" {
		q += ` WHERE status = $1`
		args = append(args, string(filter.Status))
	}
	q += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		if len(args) > 0 {
			q += ` LIMIT $2`
		} else {
			q += ` LIMIT $1`
		}
		args = append(args, filter.Limit)
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		run, err := scanPgRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: iterate runs")
}

func scanPgRun(row pgx.Row) (*model.Run, error) {
	var (
		run        model.Run
		queryJSON  []byte
		resultJSON []byte
	)
	if err := row.Scan(&run.ID, &queryJSON, &run.Status, &resultJSON, &run.CreatedAt, &run.UpdatedAt); err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrap(err, "run not found")
		}
		return nil, eris.Wrap(err, "postgres: scan run")
	}
	if err := json.Unmarshal(queryJSON, &run.Query); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal query")
	}
	if len(resultJSON) > 0 {
		run.Result = &model.RunResult{}
		if err := json.Unmarshal(resultJSON, run.Result); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal result")
		}
	}
	return &run, nil
}

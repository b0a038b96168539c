package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/brandscope/internal/model"
)

// pool is the subset of pgxpool.Pool the store uses. Tests substitute
// a pgxmock pool through this interface.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_record": `INSERT INTO stage_records (id, stage, url, payload, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
	"get_record":    `SELECT id, stage, url, payload, created_at, updated_at FROM stage_records WHERE id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	p, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: p}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS stage_records (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	stage      TEXT NOT NULL,
	url        TEXT NOT NULL,
	payload    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_stage_records_stage ON stage_records(stage);
CREATE INDEX IF NOT EXISTS idx_stage_records_url ON stage_records(url);
CREATE INDEX IF NOT EXISTS idx_stage_records_stage_created ON stage_records(stage, created_at DESC);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveStage(ctx context.Context, stage model.Stage, url string, payload any) (string, error) {
	if _, ok := model.ParseStage(string(stage)); !ok {
		return "", eris.Errorf("postgres: unknown stage %q", stage)
	}

	id := uuid.New().String()
	now := time.Now().UTC()

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return "", eris.Wrapf(err, "postgres: marshal %s payload", stage)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO stage_records (id, stage, url, payload, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, string(stage), url, payloadJSON, now, now,
	)
	if err != nil {
		return "", eris.Wrapf(err, "postgres: insert %s record", stage)
	}
	return id, nil
}

func (s *PostgresStore) GetRecord(ctx context.Context, id string) (*model.StageRecord, error) {
	var r model.StageRecord
	var payload []byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, stage, url, payload, created_at, updated_at FROM stage_records WHERE id = $1`,
		id,
	).Scan(&r.ID, &r.Stage, &r.URL, &payload, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get record %s", id)
	}
	r.Payload = payload
	return &r, nil
}

func (s *PostgresStore) ListRecords(ctx context.Context, filter RecordFilter) ([]model.StageRecord, error) {
	query := `SELECT id, stage, url, payload, created_at, updated_at FROM stage_records WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Stage != "" {
		query += fmt.Sprintf(` AND stage = $%d`, argIdx)
		args = append(args, string(filter.Stage))
		argIdx++
	}
	if filter.URL != "" {
		query += fmt.Sprintf(` AND url = $%d`, argIdx)
		args = append(args, filter.URL)
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
		argIdx++
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list records")
	}
	defer rows.Close()

	var records []model.StageRecord
	for rows.Next() {
		var r model.StageRecord
		var payload []byte
		if err := rows.Scan(&r.ID, &r.Stage, &r.URL, &payload, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan record")
		}
		r.Payload = payload
		records = append(records, r)
	}
	return records, eris.Wrap(rows.Err(), "postgres: list records iterate")
}

func (s *PostgresStore) LatestByStage(ctx context.Context, url string) (map[model.Stage]model.StageRecord, error) {
	query := `SELECT DISTINCT ON (stage) id, stage, url, payload, created_at, updated_at
	          FROM stage_records`
	args := []any{}
	if url != "" {
		query += ` WHERE url = $1`
		args = append(args, url)
	}
	query += ` ORDER BY stage, created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: latest by stage")
	}
	defer rows.Close()

	latest := make(map[model.Stage]model.StageRecord)
	for rows.Next() {
		var r model.StageRecord
		var payload []byte
		if err := rows.Scan(&r.ID, &r.Stage, &r.URL, &payload, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan latest record")
		}
		r.Payload = payload
		latest[r.Stage] = r
	}
	return latest, eris.Wrap(rows.Err(), "postgres: latest by stage iterate")
}

func (s *PostgresStore) StageStats(ctx context.Context) ([]model.StageStats, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT stage, COUNT(*), MIN(created_at), MAX(created_at)
		 FROM stage_records GROUP BY stage ORDER BY stage`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: stage stats")
	}
	defer rows.Close()

	var stats []model.StageStats
	for rows.Next() {
		var st model.StageStats
		if err := rows.Scan(&st.Stage, &st.Count, &st.Earliest, &st.Latest); err != nil {
			return nil, eris.Wrap(err, "postgres: scan stage stats")
		}
		stats = append(stats, st)
	}
	return stats, eris.Wrap(rows.Err(), "postgres: stage stats iterate")
}

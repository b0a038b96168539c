package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/brandscope/internal/model"
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
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS stage_records (
	id         TEXT PRIMARY KEY,
	stage      TEXT NOT NULL,
	url        TEXT NOT NULL,
	payload    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_stage_records_stage ON stage_records(stage);
CREATE INDEX IF NOT EXISTS idx_stage_records_url ON stage_records(url);
CREATE INDEX IF NOT EXISTS idx_stage_records_stage_created ON stage_records(stage, created_at DESC);
`

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveStage(ctx context.Context, stage model.Stage, url string, payload any) (string, error) {
	if _, ok := model.ParseStage(string(stage)); !ok {
		return "", eris.Errorf("sqlite: unknown stage %q", stage)
	}

	id := uuid.New().String()
	now := time.Now().UTC()

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return "", eris.Wrapf(err, "sqlite: marshal %s payload", stage)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO stage_records (id, stage, url, payload, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, string(stage), url, string(payloadJSON), now, now,
	)
	if err != nil {
		return "", eris.Wrapf(err, "sqlite: insert %s record", stage)
	}
	return id, nil
}

func (s *SQLiteStore) GetRecord(ctx context.Context, id string) (*model.StageRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, stage, url, payload, created_at, updated_at FROM stage_records WHERE id = ?`,
		id,
	)

	r, err := scanRecord(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get record %s", id)
	}
	return r, nil
}

func (s *SQLiteStore) ListRecords(ctx context.Context, filter RecordFilter) ([]model.StageRecord, error) {
	query := `SELECT id, stage, url, payload, created_at, updated_at FROM stage_records WHERE true`
	args := []any{}

	if filter.Stage != "" {
		query += ` AND stage = ?`
		args = append(args, string(filter.Stage))
	}
	if filter.URL != "" {
		query += ` AND url = ?`
		args = append(args, filter.URL)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list records")
	}
	defer rows.Close()

	var records []model.StageRecord
	for rows.Next() {
		r, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan record")
		}
		records = append(records, *r)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: list records iterate")
}

func (s *SQLiteStore) LatestByStage(ctx context.Context, url string) (map[model.Stage]model.StageRecord, error) {
	query := `SELECT id, stage, url, payload, created_at, updated_at FROM stage_records`
	args := []any{}
	if url != "" {
		query += ` WHERE url = ?`
		args = append(args, url)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: latest by stage")
	}
	defer rows.Close()

	// Rows arrive newest first, so the first row seen per stage wins.
	latest := make(map[model.Stage]model.StageRecord)
	for rows.Next() {
		r, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan latest record")
		}
		if _, seen := latest[r.Stage]; !seen {
			latest[r.Stage] = *r
		}
	}
	return latest, eris.Wrap(rows.Err(), "sqlite: latest by stage iterate")
}

func (s *SQLiteStore) StageStats(ctx context.Context) ([]model.StageStats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT stage, COUNT(*) FROM stage_records GROUP BY stage ORDER BY stage`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: stage stats")
	}
	defer rows.Close()

	var stats []model.StageStats
	for rows.Next() {
		var st model.StageStats
		if err := rows.Scan(&st.Stage, &st.Count); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan stage stats")
		}
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: stage stats iterate")
	}

	for i := range stats {
		earliest, err := s.stageBound(ctx, stats[i].Stage, "ASC")
		if err != nil {
			return nil, err
		}
		latest, err := s.stageBound(ctx, stats[i].Stage, "DESC")
		if err != nil {
			return nil, err
		}
		stats[i].Earliest = earliest
		stats[i].Latest = latest
	}
	return stats, nil
}

// stageBound returns the oldest or newest created_at for a stage.
func (s *SQLiteStore) stageBound(ctx context.Context, stage model.Stage, dir string) (*time.Time, error) {
	var t time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT created_at FROM stage_records WHERE stage = ? ORDER BY created_at `+dir+` LIMIT 1`,
		string(stage),
	).Scan(&t)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: %s bound for %s", dir, stage)
	}
	return &t, nil
}

// scanRecord reads one stage_records row through the given scan function.
func scanRecord(scan func(dest ...any) error) (*model.StageRecord, error) {
	var r model.StageRecord
	var payload string
	if err := scan(&r.ID, &r.Stage, &r.URL, &payload, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.Payload = json.RawMessage(payload)
	return &r, nil
}

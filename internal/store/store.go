package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/brandscope/internal/model"
)

// RecordFilter specifies criteria for listing stage records.
type RecordFilter struct {
	Stage  model.Stage `json:"stage,omitempty"`
	URL    string      `json:"url,omitempty"`
	Limit  int         `json:"limit,omitempty"`
	Offset int         `json:"offset,omitempty"`
}

// Store defines the persistence interface for pipeline stage results.
type Store interface {
	// SaveStage persists a stage payload for a URL and returns the record ID.
	// The payload is marshaled to JSON.
	SaveStage(ctx context.Context, stage model.Stage, url string, payload any) (string, error)

	// GetRecord fetches a single record by ID.
	GetRecord(ctx context.Context, id string) (*model.StageRecord, error)

	// ListRecords returns records matching the filter, newest first.
	ListRecords(ctx context.Context, filter RecordFilter) ([]model.StageRecord, error)

	// LatestByStage returns the most recent record per stage, optionally
	// scoped to one URL.
	LatestByStage(ctx context.Context, url string) (map[model.Stage]model.StageRecord, error)

	// StageStats returns per-stage record counts and time bounds.
	StageStats(ctx context.Context) ([]model.StageStats, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

// Open constructs a Store from a driver name and connection string.
// SQLite stores are migrated on open; postgres migration runs separately.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "postgres":
		return NewPostgres(ctx, dsn, nil)
	case "sqlite":
		s, err := NewSQLite(dsn)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}

package analyzer

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/brandscope/internal/fetch"
	"github.com/sells-group/brandscope/internal/model"
	"github.com/sells-group/brandscope/internal/store"
	"github.com/sells-group/brandscope/pkg/llm"
)

// --- LLM Mock ---

type mockLLM struct {
	mock.Mock
}

func (m *mockLLM) Complete(ctx context.Context, req llm.Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// --- Fetcher Mock ---

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Fetch(ctx context.Context, rawURL string) (*fetch.Page, error) {
	args := m.Called(ctx, rawURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fetch.Page), args.Error(1)
}

// --- Store Mock ---

type mockStore struct {
	mock.Mock
}

func (m *mockStore) SaveStage(ctx context.Context, stage model.Stage, url string, payload any) (string, error) {
	args := m.Called(ctx, stage, url, payload)
	return args.String(0), args.Error(1)
}

func (m *mockStore) GetRecord(ctx context.Context, id string) (*model.StageRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StageRecord), args.Error(1)
}

func (m *mockStore) ListRecords(ctx context.Context, filter store.RecordFilter) ([]model.StageRecord, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.StageRecord), args.Error(1)
}

func (m *mockStore) LatestByStage(ctx context.Context, url string) (map[model.Stage]model.StageRecord, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[model.Stage]model.StageRecord), args.Error(1)
}

func (m *mockStore) StageStats(ctx context.Context) ([]model.StageStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.StageStats), args.Error(1)
}

func (m *mockStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

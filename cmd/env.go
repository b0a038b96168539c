package main

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/brandscope/internal/analyzer"
	"github.com/sells-group/brandscope/internal/config"
	"github.com/sells-group/brandscope/internal/fetch"
	"github.com/sells-group/brandscope/internal/model"
	"github.com/sells-group/brandscope/internal/registry"
	"github.com/sells-group/brandscope/internal/store"
	"github.com/sells-group/brandscope/pkg/llm"
)

// env bundles the wired dependencies a command needs.
type env struct {
	Store    store.Store
	Analyzer *analyzer.Analyzer
}

func (e *env) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// validURL accepts only http and https landing page URLs.
func validURL(rawURL string) bool {
	return strings.HasPrefix(rawURL, "http://") || strings.HasPrefix(rawURL, "https://")
}

func initStore(ctx context.Context) (store.Store, error) {
	dsn := cfg.Store.DatabaseURL
	if cfg.Store.Driver == "sqlite" && dsn == "" {
		dsn = "brandscope.db"
	}
	return store.Open(ctx, cfg.Store.Driver, dsn)
}

// newCompletionClient builds the configured completion provider, wrapped
// with the shared request rate limiter.
func newCompletionClient(c *config.Config) (llm.Client, error) {
	var client llm.Client
	switch strings.ToLower(c.LLM.Provider) {
	case "glm":
		client = llm.NewGLM(c.GLM.Key,
			llm.WithGLMBaseURL(c.GLM.BaseURL),
			llm.WithGLMModel(c.GLM.Model),
		)
	case "anthropic":
		client = llm.NewClaude(c.Anthropic.Key,
			llm.WithClaudeModel(c.Anthropic.Model),
		)
	default:
		return nil, eris.Errorf("unsupported llm provider: %s", c.LLM.Provider)
	}

	if c.LLM.RPS > 0 {
		client = llm.Limit(client, c.LLM.RPS, c.LLM.Burst)
	}
	return client, nil
}

// loadMapping loads the category mapping override when configured, falling
// back to the built-in registry.
func loadMapping(path string) (*registry.Mapping, error) {
	if path == "" {
		return registry.Default(), nil
	}
	return registry.LoadFile(path)
}

// initAnalyzer validates config, opens the store, and wires the full
// analysis pipeline.
func initAnalyzer(ctx context.Context) (*env, error) {
	if err := cfg.Validate("analyze"); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	client, err := newCompletionClient(cfg)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	mapping, err := loadMapping(cfg.Registry.Path)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	mode, ok := model.ParseMode(cfg.Analyzer.Mode)
	if !ok {
		_ = st.Close()
		return nil, eris.Errorf("unsupported analyzer mode: %s", cfg.Analyzer.Mode)
	}

	fetcher := fetch.New(
		fetch.WithTimeout(time.Duration(cfg.Fetch.TimeoutSecs)*time.Second),
		fetch.WithMaxRunes(cfg.Analyzer.PageTextLimit),
	)

	a, err := analyzer.New(analyzer.Config{
		Registry:            mapping,
		LLM:                 client,
		Fetcher:             fetcher,
		Store:               st,
		Mode:                mode,
		Workers:             cfg.Analyzer.Workers,
		QuestionsPerSegment: cfg.Analyzer.QuestionsPerSegment,
		AnswersPerQuestion:  cfg.Analyzer.AnswersPerQuestion,
	})
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	zap.L().Info("analyzer ready",
		zap.String("mode", string(mode)),
		zap.String("provider", cfg.LLM.Provider),
		zap.String("store", cfg.Store.Driver),
	)

	return &env{Store: st, Analyzer: a}, nil
}

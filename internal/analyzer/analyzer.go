// Package analyzer implements the four-stage landing page analysis
// pipeline: category classification, user segment derivation, question
// generation, and answer generation with brand extraction. Each stage
// persists its result before the next runs, so partial progress survives
// downstream failures.
package analyzer

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/brandscope/internal/fetch"
	"github.com/sells-group/brandscope/internal/model"
	"github.com/sells-group/brandscope/internal/registry"
	"github.com/sells-group/brandscope/internal/store"
	"github.com/sells-group/brandscope/pkg/llm"
)

const (
	defaultWorkers             = 5
	defaultQuestionsPerSegment = 3
	defaultAnswersPerQuestion  = 3

	// maxModelItems caps how many lines of a model classification
	// response are kept.
	maxModelItems = 5
)

// Config wires an Analyzer's dependencies and tuning knobs.
type Config struct {
	Registry *registry.Mapping
	LLM      llm.Client
	Fetcher  fetch.Fetcher
	Store    store.Store // optional; stages are not persisted when nil

	Mode                model.Mode
	Workers             int
	QuestionsPerSegment int
	AnswersPerQuestion  int
}

// Analyzer runs the analysis pipeline against a landing page URL.
type Analyzer struct {
	registry *registry.Mapping
	llm      llm.Client
	fetcher  fetch.Fetcher
	store    store.Store

	mode                model.Mode
	workers             int
	questionsPerSegment int
	answersPerQuestion  int
}

// New constructs an Analyzer, applying defaults for unset tuning fields.
func New(cfg Config) (*Analyzer, error) {
	if cfg.LLM == nil {
		return nil, eris.New("analyzer: completion client is required")
	}
	if cfg.Fetcher == nil {
		return nil, eris.New("analyzer: fetcher is required")
	}

	a := &Analyzer{
		registry:            cfg.Registry,
		llm:                 cfg.LLM,
		fetcher:             cfg.Fetcher,
		store:               cfg.Store,
		mode:                cfg.Mode,
		workers:             cfg.Workers,
		questionsPerSegment: cfg.QuestionsPerSegment,
		answersPerQuestion:  cfg.AnswersPerQuestion,
	}
	if a.registry == nil {
		a.registry = registry.Default()
	}
	if a.mode == "" {
		a.mode = model.ModeRules
	}
	if a.workers <= 0 {
		a.workers = defaultWorkers
	}
	if a.questionsPerSegment <= 0 {
		a.questionsPerSegment = defaultQuestionsPerSegment
	}
	if a.answersPerQuestion <= 0 {
		a.answersPerQuestion = defaultAnswersPerQuestion
	}
	return a, nil
}

// Overrides carries per-run tuning accepted at the request boundary.
// Zero fields keep the configured values.
type Overrides struct {
	Mode                model.Mode
	QuestionsPerSegment int
	AnswersPerQuestion  int
}

// RunWith executes the full pipeline with per-run overrides applied.
func (a *Analyzer) RunWith(ctx context.Context, rawURL string, o Overrides) (*model.AnalysisReport, error) {
	run := *a
	if o.Mode != "" {
		run.mode = o.Mode
	}
	if o.QuestionsPerSegment > 0 {
		run.questionsPerSegment = o.QuestionsPerSegment
	}
	if o.AnswersPerQuestion > 0 {
		run.answersPerQuestion = o.AnswersPerQuestion
	}
	return run.Run(ctx, rawURL)
}

// Run executes the full pipeline and wraps the outcome in a report.
func (a *Analyzer) Run(ctx context.Context, rawURL string) (*model.AnalysisReport, error) {
	start := time.Now()

	result, err := a.ExtractBrands(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	categories := make([]string, 0, len(result))
	for category := range result {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	report := &model.AnalysisReport{
		URL:         rawURL,
		Categories:  categories,
		Result:      result,
		Timestamp:   time.Now().UTC(),
		ElapsedSecs: time.Since(start).Seconds(),
	}

	zap.L().Info("analysis complete",
		zap.String("url", rawURL),
		zap.Int("categories", len(categories)),
		zap.Float64("elapsed_secs", report.ElapsedSecs),
	)
	return report, nil
}

// persist saves a stage payload, logging rather than failing the pipeline
// when the write goes wrong.
func (a *Analyzer) persist(ctx context.Context, stage model.Stage, rawURL string, payload any) {
	if a.store == nil {
		return
	}
	id, err := a.store.SaveStage(ctx, stage, rawURL, payload)
	if err != nil {
		zap.L().Warn("stage save failed",
			zap.String("stage", string(stage)),
			zap.String("url", rawURL),
			zap.Error(err),
		)
		return
	}
	zap.L().Debug("stage saved",
		zap.String("stage", string(stage)),
		zap.String("record_id", id),
	)
}

// pageText fetches the landing page and returns its reduced text. Fetch
// failures degrade to an empty string so classification can continue.
func (a *Analyzer) pageText(ctx context.Context, rawURL string) string {
	page, err := a.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		zap.L().Warn("page fetch failed", zap.String("url", rawURL), zap.Error(err))
		return ""
	}
	return page.Text
}

// splitLines breaks a completion into trimmed non-empty lines, keeping at
// most max of them.
func splitLines(content string, max int) []string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}

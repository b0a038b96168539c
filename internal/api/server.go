// Package api exposes the query API over stored analysis results plus an
// asynchronous trigger for new runs.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/brandscope/internal/analyzer"
	"github.com/sells-group/brandscope/internal/model"
	"github.com/sells-group/brandscope/internal/store"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

// Runner triggers a full analysis for a URL with per-request tuning.
type Runner interface {
	RunWith(ctx context.Context, rawURL string, o analyzer.Overrides) (*model.AnalysisReport, error)
}

// Server serves the query and analyze endpoints.
type Server struct {
	store    store.Store
	analyzer Runner
	router   chi.Router
}

// NewServer builds the HTTP handler around a store and an analyzer.
func NewServer(st store.Store, analyzer Runner) *Server {
	s := &Server{store: st, analyzer: analyzer}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
	}))

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Post("/analyze", s.handleAnalyze)
	r.Get("/stages/stats", s.handleStageStats)
	r.Get("/results/latest", s.handleLatestResults)
	r.Get("/results/by-url", s.handleResultsByURL)
	r.Get("/results/{stage}", s.handleStageResults)
	r.Get("/result/{id}", s.handleSingleResult)

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	stages := make([]string, 0, len(model.AllStages()))
	for _, st := range model.AllStages() {
		stages = append(stages, string(st))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"service": "brandscope query api",
		"version": Version,
		"stages":  stages,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "unhealthy",
			"database": "disconnected",
			"error":    err.Error(),
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status":   "healthy",
		"database": "connected",
	})
}

type analyzeRequest struct {
	URL                 string `json:"url"`
	QuestionsPerSegment int    `json:"questions_per_segment"`
	AnswersPerQuestion  int    `json:"answers_per_question"`
	UseModel            *bool  `json:"use_model"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !validURL(req.URL) {
		respondError(w, http.StatusBadRequest, "url must start with http:// or https://")
		return
	}

	overrides := analyzer.Overrides{
		QuestionsPerSegment: req.QuestionsPerSegment,
		AnswersPerQuestion:  req.AnswersPerQuestion,
	}
	if req.UseModel != nil {
		overrides.Mode = model.ModeRules
		if *req.UseModel {
			overrides.Mode = model.ModeModel
		}
	}

	// The analysis outlives the request; detach it from the request
	// context so a client disconnect does not cancel it.
	ctx := context.WithoutCancel(r.Context())
	go func() {
		report, err := s.analyzer.RunWith(ctx, req.URL, overrides)
		if err != nil {
			zap.L().Error("analysis failed", zap.String("url", req.URL), zap.Error(err))
			return
		}
		zap.L().Info("analysis finished",
			zap.String("url", req.URL),
			zap.Int("categories", len(report.Categories)),
			zap.Float64("elapsed_secs", report.ElapsedSecs),
		)
	}()

	respondJSON(w, http.StatusAccepted, map[string]string{
		"status": "accepted",
		"url":    req.URL,
	})
}

func (s *Server) handleStageStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.StageStats(r.Context())
	if err != nil {
		zap.L().Error("stage stats query failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if stats == nil {
		stats = []model.StageStats{}
	}
	respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleLatestResults(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 5, 1, 50)

	results := make(map[string][]model.StageRecord, len(model.AllStages()))
	for _, stage := range model.AllStages() {
		records, err := s.store.ListRecords(r.Context(), store.RecordFilter{
			Stage: stage,
			Limit: limit,
		})
		if err != nil {
			zap.L().Error("latest results query failed",
				zap.String("stage", string(stage)), zap.Error(err))
			respondError(w, http.StatusInternalServerError, "query failed")
			return
		}
		if records == nil {
			records = []model.StageRecord{}
		}
		results[string(stage)] = records
	}
	respondJSON(w, http.StatusOK, results)
}

func (s *Server) handleResultsByURL(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if !validURL(rawURL) {
		respondError(w, http.StatusBadRequest, "url must start with http:// or https://")
		return
	}

	results := make(map[string][]model.StageRecord, len(model.AllStages()))
	for _, stage := range model.AllStages() {
		records, err := s.store.ListRecords(r.Context(), store.RecordFilter{
			Stage: stage,
			URL:   rawURL,
		})
		if err != nil {
			zap.L().Error("results by url query failed",
				zap.String("stage", string(stage)), zap.Error(err))
			respondError(w, http.StatusInternalServerError, "query failed")
			return
		}
		if records == nil {
			records = []model.StageRecord{}
		}
		results[string(stage)] = records
	}
	respondJSON(w, http.StatusOK, results)
}

func (s *Server) handleStageResults(w http.ResponseWriter, r *http.Request) {
	stage, ok := model.ParseStage(chi.URLParam(r, "stage"))
	if !ok {
		respondError(w, http.StatusNotFound, "unknown stage")
		return
	}

	records, err := s.store.ListRecords(r.Context(), store.RecordFilter{
		Stage:  stage,
		Limit:  queryInt(r, "limit", 10, 1, 100),
		Offset: queryInt(r, "skip", 0, 0, 1<<30),
	})
	if err != nil {
		zap.L().Error("stage results query failed",
			zap.String("stage", string(stage)), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if records == nil {
		records = []model.StageRecord{}
	}
	respondJSON(w, http.StatusOK, records)
}

func (s *Server) handleSingleResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	record, err := s.store.GetRecord(r.Context(), id)
	if err != nil {
		zap.L().Error("record query failed", zap.String("id", id), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if record == nil {
		respondError(w, http.StatusNotFound, "record not found")
		return
	}
	respondJSON(w, http.StatusOK, record)
}

func validURL(rawURL string) bool {
	return strings.HasPrefix(rawURL, "http://") || strings.HasPrefix(rawURL, "https://")
}

// queryInt reads an integer query parameter, falling back to def and
// clamping to [min, max].
func queryInt(r *http.Request, name string, def, min, max int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("response encode failed", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

package model

import "time"

// Mode selects how categories and segments are determined.
type Mode string

const (
	// ModeRules matches the registry's keyword patterns against page text.
	ModeRules Mode = "rules"
	// ModeModel asks the language model to label the page.
	ModeModel Mode = "model"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModeRules, ModeModel:
		return Mode(s), true
	}
	return "", false
}

// CategorySet lists the product categories detected for one URL.
// Rule mode preserves registry order; model mode preserves the model's
// line order, capped at five entries.
type CategorySet []string

// SegmentMap maps category name to its target user segments.
type SegmentMap map[string][]string

// QuestionMap maps category → segment → generated questions.
type QuestionMap map[string]map[string][]string

// AnswerMap maps category → segment → question → generated answers.
type AnswerMap map[string]map[string]map[string][]string

// BrandedAnswer pairs one generated answer with the brand names extracted
// from it, in first-occurrence order with within-answer duplicates removed.
type BrandedAnswer struct {
	Answer string   `json:"answer"`
	Brands []string `json:"brands"`
}

// AnalysisResult is the terminal artifact of the pipeline:
// category → segment → question → branded answers.
type AnalysisResult map[string]map[string]map[string][]BrandedAnswer

// AnalysisReport is the envelope returned by a full pipeline run.
type AnalysisReport struct {
	URL         string         `json:"url"`
	Categories  CategorySet    `json:"categories"`
	Result      AnalysisResult `json:"result"`
	Timestamp   time.Time      `json:"timestamp"`
	ElapsedSecs float64        `json:"elapsed_secs"`
}

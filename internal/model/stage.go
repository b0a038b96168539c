package model

import (
	"encoding/json"
	"time"
)

// Stage identifies one persisted pipeline stage.
type Stage string

const (
	StageCategories Stage = "categories"
	StageSegments   Stage = "segments"
	StageQuestions  Stage = "questions"
	StageAnswers    Stage = "answers"
	StageBrands     Stage = "brands"
	StageCombined   Stage = "combined"
)

// AllStages returns every valid stage in pipeline order.
func AllStages() []Stage {
	return []Stage{
		StageCategories,
		StageSegments,
		StageQuestions,
		StageAnswers,
		StageBrands,
		StageCombined,
	}
}

// ParseStage validates a stage name.
func ParseStage(s string) (Stage, bool) {
	for _, st := range AllStages() {
		if Stage(s) == st {
			return st, true
		}
	}
	return "", false
}

// StageRecord is one persisted stage payload for a URL.
type StageRecord struct {
	ID        string          `json:"id"`
	Stage     Stage           `json:"stage"`
	URL       string          `json:"url"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// StageStats summarizes the stored records for one stage.
type StageStats struct {
	Stage    Stage      `json:"stage"`
	Count    int        `json:"count"`
	Earliest *time.Time `json:"earliest,omitempty"`
	Latest   *time.Time `json:"latest,omitempty"`
}

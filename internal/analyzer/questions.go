package analyzer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sells-group/brandscope/internal/model"
	"github.com/sells-group/brandscope/pkg/llm"
)

// segmentKey addresses one (category, segment) pair in the question
// fan-out.
type segmentKey struct {
	category string
	segment  string
}

// GenerateQuestions produces brand-recommendation questions for every
// derived user segment, fanning out one completion call per segment.
// An empty segment map short-circuits without persisting anything.
func (a *Analyzer) GenerateQuestions(ctx context.Context, rawURL string) (model.QuestionMap, error) {
	segments, err := a.DeriveSegments(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return model.QuestionMap{}, nil
	}

	var keys []segmentKey
	for category, groups := range segments {
		for _, segment := range groups {
			keys = append(keys, segmentKey{category: category, segment: segment})
		}
	}

	results, err := fanOut(ctx, a.workers, keys, func(ctx context.Context, k segmentKey) []string {
		return a.questionsFor(ctx, k.category, k.segment)
	})
	if err != nil {
		return nil, err
	}

	questions := model.QuestionMap{}
	for k, qs := range results {
		if questions[k.category] == nil {
			questions[k.category] = map[string][]string{}
		}
		questions[k.category][k.segment] = qs
	}

	a.persist(ctx, model.StageQuestions, rawURL, questions)
	return questions, nil
}

// questionsFor asks the provider for questions on one segment. A failed
// call yields a single sentinel question so the coordinate stays visible
// downstream.
func (a *Analyzer) questionsFor(ctx context.Context, category, segment string) []string {
	resp, err := a.llm.Complete(ctx, llm.Request{
		Prompt:      questionsPrompt(category, segment, a.questionsPerSegment),
		Temperature: tempQuestions,
	})
	if err != nil {
		zap.L().Warn("question generation failed",
			zap.String("category", category),
			zap.String("segment", segment),
			zap.Error(err),
		)
		return []string{fmt.Sprintf("%s类%s用户相关问题（生成失败）", category, segment)}
	}
	return splitLines(resp, a.questionsPerSegment)
}

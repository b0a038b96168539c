package analyzer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sells-group/brandscope/internal/model"
	"github.com/sells-group/brandscope/pkg/llm"
)

// questionKey addresses one (category, segment, question) triple in the
// answer fan-out.
type questionKey struct {
	category string
	segment  string
	question string
}

// GenerateAnswers produces answers for every generated question, fanning
// out one completion call per question. An empty question map
// short-circuits without persisting anything.
func (a *Analyzer) GenerateAnswers(ctx context.Context, rawURL string) (model.AnswerMap, error) {
	questions, err := a.GenerateQuestions(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return model.AnswerMap{}, nil
	}

	var keys []questionKey
	for category, segs := range questions {
		for segment, qs := range segs {
			for _, question := range qs {
				keys = append(keys, questionKey{category: category, segment: segment, question: question})
			}
		}
	}

	results, err := fanOut(ctx, a.workers, keys, func(ctx context.Context, k questionKey) []string {
		return a.answersFor(ctx, k.category, k.segment, k.question)
	})
	if err != nil {
		return nil, err
	}

	answers := model.AnswerMap{}
	for k, as := range results {
		if answers[k.category] == nil {
			answers[k.category] = map[string]map[string][]string{}
		}
		if answers[k.category][k.segment] == nil {
			answers[k.category][k.segment] = map[string][]string{}
		}
		answers[k.category][k.segment][k.question] = as
	}

	a.persist(ctx, model.StageAnswers, rawURL, answers)
	return answers, nil
}

// answersFor asks the provider to answer one question with quoted brand
// names. A failed call yields a single sentinel answer.
func (a *Analyzer) answersFor(ctx context.Context, category, segment, question string) []string {
	resp, err := a.llm.Complete(ctx, llm.Request{
		Prompt:      answersPrompt(question, category, segment, a.answersPerQuestion),
		Temperature: tempAnswers,
	})
	if err != nil {
		zap.L().Warn("answer generation failed",
			zap.String("category", category),
			zap.String("segment", segment),
			zap.String("question", question),
			zap.Error(err),
		)
		return []string{fmt.Sprintf("针对%s的回答（生成失败）", question)}
	}
	return splitLines(resp, a.answersPerQuestion)
}

package analyzer

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/brandscope/internal/model"
	"github.com/sells-group/brandscope/pkg/llm"
)

// ClassifyCategories identifies the product categories on the landing
// page. Rule mode matches registry patterns against the page text; model
// mode asks the completion provider. Failures degrade to an empty set.
func (a *Analyzer) ClassifyCategories(ctx context.Context, rawURL string) (model.CategorySet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var categories model.CategorySet
	if a.mode == model.ModeModel {
		categories = a.classifyWithModel(ctx, rawURL)
	} else {
		categories = a.classifyWithRules(ctx, rawURL)
	}

	a.persist(ctx, model.StageCategories, rawURL, map[string]model.CategorySet{
		"categories": categories,
	})
	return categories, nil
}

func (a *Analyzer) classifyWithRules(ctx context.Context, rawURL string) model.CategorySet {
	text := strings.ToLower(a.pageText(ctx, rawURL))
	if text == "" {
		return nil
	}

	var categories model.CategorySet
	for _, cat := range a.registry.Categories() {
		if cat.Matches(text) {
			categories = append(categories, cat.Name)
		}
	}
	return categories
}

func (a *Analyzer) classifyWithModel(ctx context.Context, rawURL string) model.CategorySet {
	text := a.pageText(ctx, rawURL)

	resp, err := a.llm.Complete(ctx, llm.Request{
		Prompt:      categoriesPrompt(text),
		Temperature: tempCategories,
	})
	if err != nil {
		zap.L().Warn("category classification failed", zap.String("url", rawURL), zap.Error(err))
		return nil
	}
	return splitLines(resp, maxModelItems)
}

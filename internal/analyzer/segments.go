package analyzer

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/brandscope/internal/model"
	"github.com/sells-group/brandscope/pkg/llm"
)

// DeriveSegments determines the target user segments per classified
// category. A category with no matching segments is omitted entirely.
// Model mode queries the provider once per category, in order.
func (a *Analyzer) DeriveSegments(ctx context.Context, rawURL string) (model.SegmentMap, error) {
	categories, err := a.ClassifyCategories(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	var segments model.SegmentMap
	if a.mode == model.ModeModel {
		segments = a.segmentsWithModel(ctx, rawURL, categories)
	} else {
		segments = a.segmentsWithRules(ctx, rawURL, categories)
	}

	a.persist(ctx, model.StageSegments, rawURL, segments)
	return segments, nil
}

func (a *Analyzer) segmentsWithRules(ctx context.Context, rawURL string, categories model.CategorySet) model.SegmentMap {
	segments := model.SegmentMap{}
	if len(categories) == 0 {
		return segments
	}

	text := strings.ToLower(a.pageText(ctx, rawURL))
	if text == "" {
		return segments
	}

	for _, name := range categories {
		cat, ok := a.registry.Lookup(name)
		if !ok {
			continue
		}
		var matched []string
		for _, seg := range cat.Segments {
			if seg.Matches(text) {
				matched = append(matched, seg.Name)
			}
		}
		if len(matched) > 0 {
			sort.Strings(matched)
			segments[name] = matched
		}
	}
	return segments
}

func (a *Analyzer) segmentsWithModel(ctx context.Context, rawURL string, categories model.CategorySet) model.SegmentMap {
	segments := model.SegmentMap{}
	if len(categories) == 0 {
		return segments
	}

	text := a.pageText(ctx, rawURL)
	for _, category := range categories {
		resp, err := a.llm.Complete(ctx, llm.Request{
			Prompt:      segmentsPrompt(text, category),
			Temperature: tempSegments,
		})
		if err != nil {
			zap.L().Warn("segment derivation failed",
				zap.String("url", rawURL),
				zap.String("category", category),
				zap.Error(err),
			)
			continue
		}
		if groups := splitLines(resp, maxModelItems); len(groups) > 0 {
			segments[category] = groups
		}
	}
	return segments
}

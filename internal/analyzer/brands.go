package analyzer

import (
	"context"
	"regexp"
	"strings"

	"github.com/sells-group/brandscope/internal/model"
)

var (
	// quotedRe captures double-quoted spans, where answers are told to
	// put brand names.
	quotedRe = regexp.MustCompile(`"([^"]+)"`)

	// brandJunkRe strips everything that is not a letter, digit,
	// underscore, whitespace, ampersand, or hyphen. The allowed set
	// mirrors the \w word class plus space/&/-, so underscore stays
	// in on purpose.
	brandJunkRe = regexp.MustCompile(`[^\p{L}\p{N}_\s&-]`)

	whitespaceRe = regexp.MustCompile(`\s+`)
)

// ExtractBrands runs the full pipeline and annotates every answer with
// the brand names quoted inside it. The result is persisted both as the
// brands stage and as the combined record.
func (a *Analyzer) ExtractBrands(ctx context.Context, rawURL string) (model.AnalysisResult, error) {
	answers, err := a.GenerateAnswers(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if len(answers) == 0 {
		return model.AnalysisResult{}, nil
	}

	result := model.AnalysisResult{}
	for category, segs := range answers {
		for segment, qa := range segs {
			for question, answerList := range qa {
				branded := make([]model.BrandedAnswer, 0, len(answerList))
				for _, answer := range answerList {
					branded = append(branded, model.BrandedAnswer{
						Answer: answer,
						Brands: BrandsFromAnswer(answer),
					})
				}
				if result[category] == nil {
					result[category] = map[string]map[string][]model.BrandedAnswer{}
				}
				if result[category][segment] == nil {
					result[category][segment] = map[string][]model.BrandedAnswer{}
				}
				result[category][segment][question] = branded
			}
		}
	}

	a.persist(ctx, model.StageBrands, rawURL, result)
	a.persist(ctx, model.StageCombined, rawURL, result)
	return result, nil
}

// BrandsFromAnswer extracts the distinct brand names quoted in an
// answer, in order of first appearance. Each name is trimmed, stripped
// of symbols, and whitespace-collapsed before deduplication.
func BrandsFromAnswer(answer string) []string {
	matches := quotedRe.FindAllStringSubmatch(answer, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	var brands []string
	for _, m := range matches {
		brand := strings.TrimSpace(m[1])
		brand = brandJunkRe.ReplaceAllString(brand, "")
		brand = whitespaceRe.ReplaceAllString(brand, " ")
		if brand == "" {
			continue
		}
		if _, dup := seen[brand]; dup {
			continue
		}
		seen[brand] = struct{}{}
		brands = append(brands, brand)
	}
	return brands
}

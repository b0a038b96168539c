package analyzer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/brandscope/internal/model"
	"github.com/sells-group/brandscope/pkg/llm"
)

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(Config{Fetcher: &mockFetcher{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "completion client")

	_, err = New(Config{LLM: &mockLLM{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetcher")
}

func TestNew_AppliesDefaults(t *testing.T) {
	a, err := New(Config{LLM: &mockLLM{}, Fetcher: &mockFetcher{}})
	require.NoError(t, err)

	assert.Equal(t, model.ModeRules, a.mode)
	assert.Equal(t, defaultWorkers, a.workers)
	assert.Equal(t, defaultQuestionsPerSegment, a.questionsPerSegment)
	assert.Equal(t, defaultAnswersPerQuestion, a.answersPerQuestion)
	assert.NotNil(t, a.registry)
}

func TestRun_BuildsReport(t *testing.T) {
	f := &mockFetcher{}
	l := &mockLLM{}
	wireFashionQuestions(f, l)
	l.On("Complete", mock.Anything, mock.MatchedBy(func(req llm.Request) bool {
		return req.Temperature == tempAnswers
	})).Return(`推荐"Nike"`, nil)

	a := newRulesAnalyzer(t, f, l)
	report, err := a.Run(context.Background(), testURL)
	require.NoError(t, err)

	assert.Equal(t, testURL, report.URL)
	assert.Equal(t, model.CategorySet{"服装"}, report.Categories)
	assert.Contains(t, report.Result, "服装")
	assert.False(t, report.Timestamp.IsZero())
	assert.GreaterOrEqual(t, report.ElapsedSecs, 0.0)
}

func TestRun_EmptyPipeline(t *testing.T) {
	f := &mockFetcher{}
	f.On("Fetch", mock.Anything, testURL).Return(nil, assert.AnError)

	a := newRulesAnalyzer(t, f, &mockLLM{})
	report, err := a.Run(context.Background(), testURL)
	require.NoError(t, err)

	assert.Empty(t, report.Categories)
	assert.Empty(t, report.Result)
}

func TestRunWith_Overrides(t *testing.T) {
	f := &mockFetcher{}
	l := &mockLLM{}
	wireFashionQuestions(f, l)
	l.On("Complete", mock.Anything, mock.MatchedBy(func(req llm.Request) bool {
		return req.Temperature == tempAnswers
	})).Return("回答一\n回答二\n回答三\n回答四", nil)

	a := newRulesAnalyzer(t, f, l)
	report, err := a.RunWith(context.Background(), testURL, Overrides{AnswersPerQuestion: 2})
	require.NoError(t, err)

	for _, segments := range report.Result {
		for _, questions := range segments {
			for _, answers := range questions {
				assert.Len(t, answers, 2)
			}
		}
	}
	// The override must not stick to the analyzer itself.
	assert.Equal(t, defaultAnswersPerQuestion, a.answersPerQuestion)
}

func TestRun_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := newRulesAnalyzer(t, &mockFetcher{}, &mockLLM{})
	_, err := a.Run(ctx, testURL)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
		max     int
		want    []string
	}{
		{"trims and drops blanks", " a \n\n b\n \nc", 0, []string{"a", "b", "c"}},
		{"caps at max", "a\nb\nc", 2, []string{"a", "b"}},
		{"empty content", "", 5, nil},
		{"whitespace only", "  \n \t\n", 5, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitLines(tt.content, tt.max))
		})
	}
}

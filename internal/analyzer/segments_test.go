package analyzer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/brandscope/internal/fetch"
	"github.com/sells-group/brandscope/internal/model"
	"github.com/sells-group/brandscope/pkg/llm"
)

func TestDeriveSegments_Rules(t *testing.T) {
	f := &mockFetcher{}
	f.On("Fetch", mock.Anything, testURL).Return(&fetch.Page{
		URL:  testURL,
		Text: "女士服装 时尚潮流新品",
	}, nil)

	a := newRulesAnalyzer(t, f, &mockLLM{})
	segments, err := a.DeriveSegments(context.Background(), testURL)
	require.NoError(t, err)

	// Segment names sorted within the category.
	assert.Equal(t, model.SegmentMap{
		"服装": {"女性", "时尚达人"},
	}, segments)
}

func TestDeriveSegments_Rules_OmitsCategoryWithoutSegments(t *testing.T) {
	// Text matches the equipment category pattern but none of its
	// segment keywords.
	f := &mockFetcher{}
	f.On("Fetch", mock.Anything, testURL).Return(&fetch.Page{
		URL:  testURL,
		Text: "各类器材现货",
	}, nil)

	a := newRulesAnalyzer(t, f, &mockLLM{})
	segments, err := a.DeriveSegments(context.Background(), testURL)
	require.NoError(t, err)
	assert.Empty(t, segments)
}

func TestDeriveSegments_Rules_EmptyCategories(t *testing.T) {
	f := &mockFetcher{}
	f.On("Fetch", mock.Anything, testURL).Return(&fetch.Page{
		URL:  testURL,
		Text: "fresh groceries",
	}, nil)

	a := newRulesAnalyzer(t, f, &mockLLM{})
	segments, err := a.DeriveSegments(context.Background(), testURL)
	require.NoError(t, err)
	assert.Empty(t, segments)
}

func TestDeriveSegments_Model_OnePromptPerCategory(t *testing.T) {
	f := &mockFetcher{}
	f.On("Fetch", mock.Anything, testURL).Return(&fetch.Page{URL: testURL, Text: "page text"}, nil)

	l := &mockLLM{}
	l.On("Complete", mock.Anything, mock.MatchedBy(func(req llm.Request) bool {
		return req.Temperature == tempCategories
	})).Return("服装\n鞋类", nil).Once()
	l.On("Complete", mock.Anything, mock.MatchedBy(func(req llm.Request) bool {
		return req.Temperature == tempSegments && strings.Contains(req.Prompt, `"服装"`)
	})).Return("女性\n时尚达人", nil)
	l.On("Complete", mock.Anything, mock.MatchedBy(func(req llm.Request) bool {
		return req.Temperature == tempSegments && strings.Contains(req.Prompt, `"鞋类"`)
	})).Return("跑步爱好者", nil)

	a := newModelAnalyzer(t, f, l)
	segments, err := a.DeriveSegments(context.Background(), testURL)
	require.NoError(t, err)
	assert.Equal(t, model.SegmentMap{
		"服装": {"女性", "时尚达人"},
		"鞋类": {"跑步爱好者"},
	}, segments)
	l.AssertExpectations(t)
}

func TestDeriveSegments_Model_FailedCategorySkipped(t *testing.T) {
	f := &mockFetcher{}
	f.On("Fetch", mock.Anything, testURL).Return(&fetch.Page{URL: testURL, Text: "page text"}, nil)

	l := &mockLLM{}
	l.On("Complete", mock.Anything, mock.MatchedBy(func(req llm.Request) bool {
		return req.Temperature == tempCategories
	})).Return("服装\n鞋类", nil).Once()
	l.On("Complete", mock.Anything, mock.MatchedBy(func(req llm.Request) bool {
		return req.Temperature == tempSegments && strings.Contains(req.Prompt, `"服装"`)
	})).Return("", assert.AnError)
	l.On("Complete", mock.Anything, mock.MatchedBy(func(req llm.Request) bool {
		return req.Temperature == tempSegments && strings.Contains(req.Prompt, `"鞋类"`)
	})).Return("跑步爱好者", nil)

	a := newModelAnalyzer(t, f, l)
	segments, err := a.DeriveSegments(context.Background(), testURL)
	require.NoError(t, err)
	assert.Equal(t, model.SegmentMap{"鞋类": {"跑步爱好者"}}, segments)
}

func TestDeriveSegments_PersistsEvenWhenEmpty(t *testing.T) {
	f := &mockFetcher{}
	f.On("Fetch", mock.Anything, testURL).Return(&fetch.Page{
		URL:  testURL,
		Text: "fresh groceries",
	}, nil)

	st := &mockStore{}
	st.On("SaveStage", mock.Anything, model.StageCategories, testURL, mock.Anything).
		Return("rec-1", nil)
	st.On("SaveStage", mock.Anything, model.StageSegments, testURL, mock.Anything).
		Return("rec-2", nil)

	a, err := New(Config{LLM: &mockLLM{}, Fetcher: f, Store: st})
	require.NoError(t, err)

	_, err = a.DeriveSegments(context.Background(), testURL)
	require.NoError(t, err)
	st.AssertExpectations(t)
}

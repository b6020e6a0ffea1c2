package composer

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsDigest/internal/domain"
)

type stubPicker struct {
	pick  domain.Pick
	err   error
	calls int
	seen  []domain.PickCandidate
}

func (s *stubPicker) PickTopStory(_ context.Context, candidates []domain.PickCandidate) (domain.Pick, error) {
	s.calls++
	s.seen = candidates
	return s.pick, s.err
}

var base = time.Date(2025, time.March, 1, 8, 0, 0, 0, time.UTC)

func article(id string, score *int, ingested time.Duration, actionable bool, cats ...string) domain.Article {
	return domain.Article{
		ID:             id,
		Title:          "Title " + id,
		Source:         "src",
		Summary:        "Summary " + id,
		Categories:     cats,
		RelevanceScore: score,
		IsActionable:   actionable,
		IngestedAt:     base.Add(ingested),
	}
}

func ids(plan domain.NewsletterPlan) []string {
	return plan.ArticleIDs()
}

func TestComposeRankingExample(t *testing.T) {
	t.Parallel()

	articles := []domain.Article{
		article("A", domain.IntPtr(7), 0, false, "llm"),
		article("B", domain.IntPtr(9), time.Hour, false, "research"),
		article("C", domain.IntPtr(7), 2*time.Hour, true, "tools"),
		article("D", nil, 3*time.Hour, true),
	}
	matches := []domain.TrendingMatch{{ArticleID: "A", ExternalScore: 321}}

	plan, err := New(nil, nil).Compose(context.Background(), articles, matches, Options{SkipEditorialPick: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"B", "C", "A"}, ids(plan))
	assert.Equal(t, 3, plan.TotalCount)

	require.NotNil(t, plan.TopStory)
	assert.Equal(t, "B", plan.TopStory.Article.ID)
	assert.Empty(t, plan.TopStoryIntro)

	require.NotNil(t, plan.TryThis)
	assert.Equal(t, "C", plan.TryThis.Article.ID)
	assert.Equal(t, 2, plan.TryThis.Rank)

	a := plan.Articles[2]
	assert.True(t, a.IsTrending)
	require.NotNil(t, a.ExternalScore)
	assert.Equal(t, 321, *a.ExternalScore)
	assert.Equal(t, []string{"LLM"}, a.Tags)

	for i, c := range plan.Articles {
		assert.Equal(t, i+1, c.Rank)
	}
}

func TestComposeRepeatable(t *testing.T) {
	t.Parallel()

	articles := []domain.Article{
		article("A", domain.IntPtr(7), 0, false, "llm"),
		article("B", domain.IntPtr(9), time.Hour, false, "research"),
		article("C", domain.IntPtr(7), 2*time.Hour, true, "tools"),
	}
	matches := []domain.TrendingMatch{{ArticleID: "C", ExternalScore: 88}}
	c := New(&stubPicker{pick: domain.Pick{ArticleID: "C", Intro: "Try it."}}, nil)

	first, err := c.Compose(context.Background(), articles, matches, Options{})
	require.NoError(t, err)
	second, err := c.Compose(context.Background(), articles, matches, Options{})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "C", first.TopStory.Article.ID)
}

func TestComposeEditorialPick(t *testing.T) {
	t.Parallel()

	picker := &stubPicker{pick: domain.Pick{ArticleID: "A", Intro: "Why it matters."}}
	articles := []domain.Article{
		article("A", domain.IntPtr(6), 0, false),
		article("B", domain.IntPtr(8), 0, false),
	}

	plan, err := New(picker, nil).Compose(context.Background(), articles, nil, Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, picker.calls)
	require.NotNil(t, plan.TopStory)
	assert.Equal(t, "A", plan.TopStory.Article.ID)
	assert.Equal(t, "Why it matters.", plan.TopStoryIntro)
	assert.False(t, plan.Articles[0].IsTopStory)
	assert.True(t, plan.Articles[1].IsTopStory)
	assert.Nil(t, plan.TryThis)
}

func TestComposePickerFailureFallsBack(t *testing.T) {
	t.Parallel()

	articles := []domain.Article{
		article("A", domain.IntPtr(6), 0, false),
		article("B", domain.IntPtr(8), 0, false),
	}

	cases := map[string]*stubPicker{
		"error":      {err: errors.New("timeout")},
		"unknown id": {pick: domain.Pick{ArticleID: "zzz", Intro: "nope"}},
		"empty id":   {pick: domain.Pick{}},
	}
	for name, picker := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			plan, err := New(picker, nil).Compose(context.Background(), articles, nil, Options{})
			require.NoError(t, err)
			require.NotNil(t, plan.TopStory)
			assert.Equal(t, "B", plan.TopStory.Article.ID)
			assert.Equal(t, 1, plan.TopStory.Rank)
			assert.Empty(t, plan.TopStoryIntro)
		})
	}
}

func TestComposePickOutsideCandidateWindowRejected(t *testing.T) {
	t.Parallel()

	var articles []domain.Article
	for i := 0; i < 12; i++ {
		articles = append(articles, article(fmt.Sprintf("a%02d", i), domain.IntPtr(10-i/2), 0, false))
	}
	picker := &stubPicker{pick: domain.Pick{ArticleID: "a11", Intro: "x"}}

	plan, err := New(picker, nil).Compose(context.Background(), articles, nil, Options{})
	require.NoError(t, err)

	assert.Len(t, picker.seen, PickCandidates)
	assert.Equal(t, "a00", plan.TopStory.Article.ID)
	assert.Len(t, plan.Articles, 12)
}

func TestComposeSkipDoesNotCallPicker(t *testing.T) {
	t.Parallel()

	picker := &stubPicker{pick: domain.Pick{ArticleID: "A"}}
	_, err := New(picker, nil).Compose(context.Background(),
		[]domain.Article{article("A", domain.IntPtr(5), 0, false)}, nil, Options{SkipEditorialPick: true})
	require.NoError(t, err)
	assert.Zero(t, picker.calls)
}

func TestComposeNothingEligible(t *testing.T) {
	t.Parallel()

	picker := &stubPicker{}
	_, err := New(picker, nil).Compose(context.Background(),
		[]domain.Article{article("A", nil, 0, true)}, nil, Options{})
	require.ErrorIs(t, err, ErrNothingToCompose)
	assert.Zero(t, picker.calls)

	_, err = New(picker, nil).Compose(context.Background(), nil, nil, Options{})
	require.ErrorIs(t, err, ErrNothingToCompose)
}

func TestComposeTruncatesAndTopStoryMayBeTryThis(t *testing.T) {
	t.Parallel()

	var articles []domain.Article
	for i := 0; i < 20; i++ {
		articles = append(articles, article(fmt.Sprintf("a%02d", i), domain.IntPtr(5), time.Duration(i)*time.Minute, true))
	}

	plan, err := New(nil, nil).Compose(context.Background(), articles, nil, Options{})
	require.NoError(t, err)

	assert.Len(t, plan.Articles, DefaultMaxArticles)
	assert.Equal(t, DefaultMaxArticles, plan.TotalCount)
	assert.Equal(t, "a19", plan.Articles[0].Article.ID, "newer ingestion wins on score tie")
	assert.Same(t, plan.TopStory, plan.TryThis)
	assert.True(t, plan.TopStory.IsTopStory)
	assert.True(t, plan.TopStory.IsTryThis)

	tries := 0
	for _, c := range plan.Articles {
		if c.IsTryThis {
			tries++
		}
	}
	assert.Equal(t, 1, tries)
}

func TestTagLabels(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"Open Source", "Vision", "quantum"}, tagLabels([]string{"open-source", "computer-vision", "quantum"}))
	assert.Empty(t, tagLabels(nil))
}

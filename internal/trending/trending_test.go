package trending

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsDigest/internal/domain"
)

type stubSource struct {
	stories []domain.Story
	err     error
	limit   int
}

func (s *stubSource) TopStories(_ context.Context, limit int) ([]domain.Story, error) {
	s.limit = limit
	return s.stories, s.err
}

func TestKeywords(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"openai", "releases", "gpt", "model", "today"}, Keywords("OpenAI releases GPT-5 model today"))
	assert.Empty(t, Keywords("How to do it"))
	assert.Empty(t, Keywords(""))
}

func TestTitlesMatch(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		a, b string
		want bool
	}{
		{"reworded headline", "OpenAI releases GPT-5 model today", "GPT-5 model released by OpenAI", true},
		{"unrelated", "Rust compiler gets faster builds", "Cooking recipes for summer evenings", false},
		{"only stop words", "What is the new thing", "The new thing is what", false},
		{"single shared keyword", "Anthropic raises funding", "Anthropic publishes paper", false},
		{"five keywords two shared", "alpha beta gamma delta epsilon", "alpha beta omega sigma kappa lambda theta", true},
		{"six keywords two shared", "alpha beta gamma delta epsilon zeta", "alpha beta omega sigma kappa lambda theta", false},
		{"six keywords three shared", "alpha beta gamma delta epsilon zeta", "alpha beta gamma sigma kappa lambda theta", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, TitlesMatch(tc.a, tc.b))
		})
	}
}

func TestTitlesMatchSymmetricWithoutRepeatedWords(t *testing.T) {
	t.Parallel()

	pairs := []struct {
		a, b string
		want bool
	}{
		{"OpenAI releases GPT-5 model today", "GPT-5 model released by OpenAI", true},
		{"Anthropic raises funding round", "Local bakery wins award", false},
		{"alpha beta gamma delta epsilon", "alpha beta omega sigma kappa", true},
		{"Rust compiler gets faster builds", "Cooking recipes for summer evenings", false},
	}

	for _, p := range pairs {
		assert.Equal(t, p.want, TitlesMatch(p.a, p.b), "%q vs %q", p.a, p.b)
		assert.Equal(t, TitlesMatch(p.a, p.b), TitlesMatch(p.b, p.a), "%q vs %q", p.a, p.b)
	}
}

func TestTitlesMatchTieUsesFirstTitle(t *testing.T) {
	t.Parallel()

	// Duplicate tokens in the shorter list count individually, so the
	// comparison is not symmetric when lengths tie.
	assert.True(t, TitlesMatch("model model model", "model release notes"))
	assert.False(t, TitlesMatch("model release notes", "model model model"))
}

func TestThreshold(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 2, threshold(1))
	assert.Equal(t, 2, threshold(5))
	assert.Equal(t, 3, threshold(6))
	assert.Equal(t, 4, threshold(10))
}

func TestFindMatchesFirstStoryOnlyAndSorted(t *testing.T) {
	t.Parallel()

	stories := []domain.Story{
		{ID: 1, Title: "GPT-5 model released by OpenAI", Score: 100},
		{ID: 2, Title: "OpenAI GPT model launch recap", Score: 900},
		{ID: 3, Title: "Gemini agents reach production workloads", Score: 500},
	}
	candidates := []Candidate{
		{ID: "a", Title: "OpenAI releases GPT-5 model today"},
		{ID: "b", Title: "Google Gemini agents in production workloads"},
		{ID: "c", Title: "Nothing related here"},
	}

	matches := FindMatches(candidates, stories)
	require.Len(t, matches, 2)

	assert.Equal(t, "b", matches[0].ArticleID)
	assert.Equal(t, int64(3), matches[0].ExternalStoryID)
	assert.Equal(t, 500, matches[0].ExternalScore)

	assert.Equal(t, "a", matches[1].ArticleID)
	assert.Equal(t, int64(1), matches[1].ExternalStoryID, "first matching story wins even if a later one scores higher")
}

func TestCorrelatorDetect(t *testing.T) {
	t.Parallel()

	src := &stubSource{stories: []domain.Story{{ID: 7, Title: "GPT-5 model released by OpenAI", Score: 42, URL: "https://x"}}}
	c := NewCorrelator(src, 0, nil)

	matches, err := c.Detect(context.Background(), CandidatesFrom([]domain.Article{
		{ID: "a", Title: "OpenAI releases GPT-5 model today"},
	}))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "https://x", matches[0].ExternalURL)
	assert.Equal(t, DefaultStoryLimit, src.limit)
}

func TestCorrelatorDetectPropagatesFetchError(t *testing.T) {
	t.Parallel()

	boom := errors.New("503")
	c := NewCorrelator(&stubSource{err: boom}, 10, nil)

	_, err := c.Detect(context.Background(), []Candidate{{ID: "a", Title: "anything at all"}})
	require.ErrorIs(t, err, boom)
}

func TestCorrelatorDetectNoCandidates(t *testing.T) {
	t.Parallel()

	src := &stubSource{err: errors.New("must not be called")}
	matches, err := NewCorrelator(src, 5, nil).Detect(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

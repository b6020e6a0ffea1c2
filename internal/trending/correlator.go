package trending

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

// DefaultStoryLimit is how many top stories are fetched per detection.
const DefaultStoryLimit = 30

// Candidate is the part of an article needed for matching.
type Candidate struct {
	ID    string
	Title string
}

// CandidatesFrom projects articles onto match candidates.
func CandidatesFrom(articles []domain.Article) []Candidate {
	out := make([]Candidate, 0, len(articles))
	for _, a := range articles {
		out = append(out, Candidate{ID: a.ID, Title: a.Title})
	}
	return out
}

// Correlator matches candidate articles against the external trending feed.
type Correlator struct {
	source ports.TrendingSource
	limit  int
	logger *slog.Logger
}

// NewCorrelator wires a trending source; non-positive limit uses DefaultStoryLimit.
func NewCorrelator(source ports.TrendingSource, limit int, logger *slog.Logger) *Correlator {
	if limit <= 0 {
		limit = DefaultStoryLimit
	}
	return &Correlator{source: source, limit: limit, logger: logger}
}

// Detect fetches trending stories and returns matches ordered by external
// score, highest first. Fetch failures are returned to the caller.
func (c *Correlator) Detect(ctx context.Context, candidates []Candidate) ([]domain.TrendingMatch, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	stories, err := c.source.TopStories(ctx, c.limit)
	if err != nil {
		return nil, fmt.Errorf("fetch top stories: %w", err)
	}

	matches := FindMatches(candidates, stories)
	if c.logger != nil {
		c.logger.Debug("trending detection done", "stories", len(stories), "candidates", len(candidates), "matches", len(matches))
	}
	return matches, nil
}

// FindMatches pairs each candidate with its first matching story.
func FindMatches(candidates []Candidate, stories []domain.Story) []domain.TrendingMatch {
	var matches []domain.TrendingMatch
	for _, cand := range candidates {
		for _, story := range stories {
			if !TitlesMatch(cand.Title, story.Title) {
				continue
			}
			matches = append(matches, domain.TrendingMatch{
				ArticleID:       cand.ID,
				ArticleTitle:    cand.Title,
				ExternalStoryID: story.ID,
				ExternalTitle:   story.Title,
				ExternalScore:   story.Score,
				ExternalURL:     story.URL,
			})
			break
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].ExternalScore > matches[j].ExternalScore
	})
	return matches
}

package composer

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

const (
	// DefaultMaxArticles caps the ranked list of a plan.
	DefaultMaxArticles = 15
	// PickCandidates is how many top-ranked articles the editorial picker sees.
	PickCandidates = 10
)

// ErrNothingToCompose means no input article carried a relevance score.
var ErrNothingToCompose = errors.New("no enriched articles to compose")

// Options tune a single composition.
type Options struct {
	MaxArticles       int
	SkipEditorialPick bool
}

// Composer turns enriched articles into a NewsletterPlan.
type Composer struct {
	picker ports.EditorialPicker
	logger *slog.Logger
}

// New wires an optional editorial picker. A nil picker always falls back to
// the highest-ranked article as the top story.
func New(picker ports.EditorialPicker, logger *slog.Logger) *Composer {
	return &Composer{picker: picker, logger: logger}
}

// Compose ranks articles, flags trending and actionable entries and chooses
// the top story.
func (c *Composer) Compose(ctx context.Context, articles []domain.Article, matches []domain.TrendingMatch, opts Options) (domain.NewsletterPlan, error) {
	maxArticles := opts.MaxArticles
	if maxArticles <= 0 {
		maxArticles = DefaultMaxArticles
	}

	ranked := rank(articles, maxArticles)
	if len(ranked) == 0 {
		return domain.NewsletterPlan{}, ErrNothingToCompose
	}

	trendingScores := make(map[string]int, len(matches))
	for _, m := range matches {
		if _, seen := trendingScores[m.ArticleID]; !seen {
			trendingScores[m.ArticleID] = m.ExternalScore
		}
	}

	composed := make([]domain.ComposedArticle, len(ranked))
	for i, a := range ranked {
		composed[i] = domain.ComposedArticle{
			Article: a,
			Rank:    i + 1,
			Tags:    tagLabels(a.Categories),
		}
		if score, ok := trendingScores[a.ID]; ok {
			s := score
			composed[i].IsTrending = true
			composed[i].ExternalScore = &s
		}
	}

	tryThis := -1
	for i := range composed {
		if composed[i].Article.IsActionable {
			composed[i].IsTryThis = true
			tryThis = i
			break
		}
	}

	top := -1
	var intro string
	if !opts.SkipEditorialPick && c.picker != nil {
		top, intro = c.pickTopStory(ctx, composed)
	}
	if top < 0 {
		top = 0
		intro = ""
	}
	composed[top].IsTopStory = true

	plan := domain.NewsletterPlan{
		TopStory:      &composed[top],
		TopStoryIntro: intro,
		Articles:      composed,
		TotalCount:    len(composed),
	}
	if tryThis >= 0 {
		plan.TryThis = &composed[tryThis]
	}
	return plan, nil
}

// pickTopStory returns the index of the chosen article or -1 when the picker
// failed or answered with an id outside the candidate set.
func (c *Composer) pickTopStory(ctx context.Context, composed []domain.ComposedArticle) (int, string) {
	n := len(composed)
	if n > PickCandidates {
		n = PickCandidates
	}

	candidates := make([]domain.PickCandidate, n)
	for i := 0; i < n; i++ {
		a := composed[i].Article
		candidates[i] = domain.PickCandidate{
			ID:         a.ID,
			Title:      a.Title,
			Score:      a.Score(),
			Source:     a.Source,
			IsTrending: composed[i].IsTrending,
			Summary:    a.Summary,
		}
	}

	pick, err := c.picker.PickTopStory(ctx, candidates)
	if err != nil {
		c.warn("editorial pick failed", "error", err)
		return -1, ""
	}

	for i := 0; i < n; i++ {
		if composed[i].Article.ID == pick.ArticleID {
			return i, pick.Intro
		}
	}
	c.warn("editorial pick returned unknown article", "article_id", pick.ArticleID)
	return -1, ""
}

// rank drops unenriched articles, orders by score then ingestion time (both
// descending) and truncates.
func rank(articles []domain.Article, limit int) []domain.Article {
	eligible := make([]domain.Article, 0, len(articles))
	for _, a := range articles {
		if a.RelevanceScore != nil {
			eligible = append(eligible, a)
		}
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		si, sj := *eligible[i].RelevanceScore, *eligible[j].RelevanceScore
		if si != sj {
			return si > sj
		}
		return eligible[i].IngestedAt.After(eligible[j].IngestedAt)
	})

	if len(eligible) > limit {
		eligible = eligible[:limit]
	}
	return eligible
}

func tagLabels(categories []string) []string {
	labels := make([]string, 0, len(categories))
	for _, c := range categories {
		labels = append(labels, domain.CategoryLabel(c))
	}
	return labels
}

func (c *Composer) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}

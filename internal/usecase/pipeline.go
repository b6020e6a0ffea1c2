package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"NewsDigest/internal/composer"
	"NewsDigest/internal/dedup"
	"NewsDigest/internal/domain"
	"NewsDigest/internal/logging"
	"NewsDigest/internal/ports"
	"NewsDigest/internal/render"
	"NewsDigest/internal/trending"
)

const (
	// DefaultCandidateLimit is how many eligible articles are checked for trending.
	DefaultCandidateLimit = 20
	telegramPreviewItems  = 10
)

// PipelineDeps wires all driven adapters into the digest pipeline.
type PipelineDeps struct {
	Source         ports.ItemSource
	Articles       ports.ArticleRepository
	Issues         ports.IssueRepository
	Dedup          *dedup.Deduplicator
	Enricher       ports.Enricher
	Correlator     *trending.Correlator
	Composer       *composer.Composer
	Notifier       ports.Notifier
	Logger         *slog.Logger
	EnrichDelay    time.Duration
	CandidateLimit int
	MaxArticles    int
}

// DigestOptions tune a single run.
type DigestOptions struct {
	DryRun    bool
	SkipLLM   bool
	OutputDir string
}

// DigestResult reports what a run did.
type DigestResult struct {
	Fetched      int
	Stored       int
	Duplicates   int
	Enriched     int
	EnrichFailed int
	Matches      []domain.TrendingMatch
	Plan         *domain.NewsletterPlan
	Legacy       bool
	Markdown     string
	OutputPath   string
	Issue        *domain.NewsletterIssue
}

// Pipeline implements the daily digest workflow.
type Pipeline struct {
	source         ports.ItemSource
	articles       ports.ArticleRepository
	issues         ports.IssueRepository
	dedup          *dedup.Deduplicator
	enricher       ports.Enricher
	correlator     *trending.Correlator
	composer       *composer.Composer
	notifier       ports.Notifier
	logger         *slog.Logger
	enrichDelay    time.Duration
	candidateLimit int
	maxArticles    int
	sleep          func(ctx context.Context, d time.Duration) error
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	dd := deps.Dedup
	if dd == nil && deps.Articles != nil {
		dd = dedup.New(deps.Articles)
	}
	comp := deps.Composer
	if comp == nil {
		comp = composer.New(nil, logger)
	}
	candidates := deps.CandidateLimit
	if candidates <= 0 {
		candidates = DefaultCandidateLimit
	}
	maxArticles := deps.MaxArticles
	if maxArticles <= 0 {
		maxArticles = composer.DefaultMaxArticles
	}

	return &Pipeline{
		source:         deps.Source,
		articles:       deps.Articles,
		issues:         deps.Issues,
		dedup:          dd,
		enricher:       deps.Enricher,
		correlator:     deps.Correlator,
		composer:       comp,
		notifier:       deps.Notifier,
		logger:         logger,
		enrichDelay:    deps.EnrichDelay,
		candidateLimit: candidates,
		maxArticles:    maxArticles,
		sleep:          sleepCtx,
	}
}

// RunDigest polls, stores, enriches, correlates and composes the digest for day.
func (p *Pipeline) RunDigest(ctx context.Context, day time.Time, opts DigestOptions) (DigestResult, error) {
	var result DigestResult
	if p.articles == nil {
		return result, errors.New("pipeline has no article repository")
	}

	if err := p.ingest(ctx, day, opts, &result); err != nil {
		return result, err
	}

	if err := p.enrich(ctx, opts, &result); err != nil {
		return result, err
	}

	result.Matches = p.detectTrending(ctx)

	eligible, err := p.articles.ListArticles(ctx, ports.ArticleFilter{Eligible: true, Limit: p.maxArticles})
	if err != nil {
		return result, fmt.Errorf("list eligible articles: %w", err)
	}

	plan, err := p.composer.Compose(ctx, eligible, result.Matches, composer.Options{
		MaxArticles:       p.maxArticles,
		SkipEditorialPick: opts.SkipLLM,
	})
	switch {
	case errors.Is(err, composer.ErrNothingToCompose):
		p.logger.Info("no enriched articles, falling back to legacy digest")
		return result, p.writeLegacy(ctx, day, opts, &result)
	case err != nil:
		return result, fmt.Errorf("compose newsletter: %w", err)
	}

	result.Plan = &plan
	result.Markdown = render.ComposedMarkdown(plan, day)
	p.logger.Info("newsletter composed",
		"articles", plan.TotalCount,
		"trending", plan.TrendingCount(),
		"top_story", plan.TopStory.Article.Title,
	)

	if err := p.writeFile(day, opts, &result); err != nil {
		return result, err
	}
	if opts.DryRun {
		return result, nil
	}

	if p.issues != nil {
		issue, err := p.issues.CreateIssue(ctx, "AI News Digest - "+day.Format(render.DateLayout), plan.ArticleIDs())
		if err != nil {
			return result, fmt.Errorf("create issue: %w", err)
		}
		result.Issue = &issue
		p.logger.Info("draft issue created", "issue", issue.IssueNumber)
	}

	if p.notifier != nil {
		if err := p.notifier.PublishDigest(ctx, render.TelegramSummary(plan, day, telegramPreviewItems)); err != nil {
			p.logger.Warn("publish digest failed", "error", err)
		}
	}

	return result, nil
}

func (p *Pipeline) ingest(ctx context.Context, day time.Time, opts DigestOptions, result *DigestResult) error {
	if p.source == nil {
		return nil
	}

	items, err := p.source.FetchDaily(ctx, day)
	if err != nil {
		p.logger.Warn("polling failed", "error", err)
		return nil
	}
	result.Fetched = len(items)

	for _, item := range items {
		dup, err := p.dedup.CheckDuplicate(ctx, item.URL, item.Title)
		if err != nil {
			return fmt.Errorf("check duplicate: %w", err)
		}
		if dup != nil {
			result.Duplicates++
			continue
		}

		if !opts.DryRun {
			if _, err := p.articles.CreateArticle(ctx, toArticleInput(item)); err != nil {
				return fmt.Errorf("store article %q: %w", item.Title, err)
			}
		}
		result.Stored++
	}

	p.logger.Info("polling done", "found", result.Fetched, "new", result.Stored, "duplicates", result.Duplicates)
	return nil
}

func toArticleInput(item domain.RawItem) domain.NewArticleInput {
	sourceType := item.SourceType
	if !sourceType.Valid() {
		sourceType = domain.SourceFeed
	}
	return domain.NewArticleInput{
		Source:      item.Source,
		SourceType:  sourceType,
		OriginalURL: item.URL,
		Title:       item.Title,
		RawContent:  item.Content,
		PublishedAt: item.PublishedAt,
	}
}

func (p *Pipeline) enrich(ctx context.Context, opts DigestOptions, result *DigestResult) error {
	if opts.SkipLLM || p.enricher == nil {
		p.logger.Info("skipping enrichment")
		return nil
	}

	pending, err := p.articles.ListArticles(ctx, ports.ArticleFilter{Unenriched: true})
	if err != nil {
		return fmt.Errorf("list unenriched articles: %w", err)
	}

	for i, article := range pending {
		enrichment, err := p.enricher.Enrich(ctx, article.RawContent, article.Title, article.Source)
		if err != nil {
			result.EnrichFailed++
			p.logger.Warn("enrichment failed", "article", article.ID, "error", err)
		} else {
			if !opts.DryRun {
				if err := p.articles.UpdateArticleEnrichment(ctx, article.ID, enrichment); err != nil {
					return fmt.Errorf("save enrichment %s: %w", article.ID, err)
				}
			}
			result.Enriched++
			p.logger.Debug("article enriched",
				"article", article.ID,
				"score", enrichment.RelevanceScore,
				"actionable", enrichment.IsActionable,
			)
		}

		if i < len(pending)-1 && p.enrichDelay > 0 {
			if err := p.sleep(ctx, p.enrichDelay); err != nil {
				return err
			}
		}
	}

	p.logger.Info("enrichment done", "enriched", result.Enriched, "total", len(pending))
	return nil
}

func (p *Pipeline) detectTrending(ctx context.Context) []domain.TrendingMatch {
	if p.correlator == nil {
		return nil
	}

	top, err := p.articles.ListArticles(ctx, ports.ArticleFilter{Eligible: true, Limit: p.candidateLimit})
	if err != nil {
		p.logger.Warn("list trending candidates failed", "error", err)
		return nil
	}

	matches, err := p.correlator.Detect(ctx, trending.CandidatesFrom(top))
	if err != nil {
		p.logger.Warn("trending detection failed", "error", err)
		return nil
	}
	for _, m := range matches {
		p.logger.Info("trending match", "article", m.ArticleTitle, "score", m.ExternalScore)
	}
	return matches
}

func (p *Pipeline) writeLegacy(ctx context.Context, day time.Time, opts DigestOptions, result *DigestResult) error {
	articles, err := p.legacyArticles(ctx, day)
	if err != nil {
		return err
	}
	if len(articles) == 0 {
		p.logger.Info("no articles to include in digest")
		return nil
	}

	result.Legacy = true
	result.Markdown = render.LegacyMarkdown(articles, day)
	return p.writeFile(day, opts, result)
}

// legacyArticles returns the articles ingested on day, or every pending one
// when nothing arrived that day.
func (p *Pipeline) legacyArticles(ctx context.Context, day time.Time) ([]domain.Article, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	recent, err := p.articles.ListArticles(ctx, ports.ArticleFilter{IngestedSince: start})
	if err != nil {
		return nil, fmt.Errorf("list today's articles: %w", err)
	}
	var today []domain.Article
	for _, a := range recent {
		if a.IngestedAt.Before(end) {
			today = append(today, a)
		}
	}
	if len(today) > 0 {
		return today, nil
	}

	pending, err := p.articles.ListArticles(ctx, ports.ArticleFilter{Status: domain.StatusPending})
	if err != nil {
		return nil, fmt.Errorf("list pending articles: %w", err)
	}
	return pending, nil
}

func (p *Pipeline) writeFile(day time.Time, opts DigestOptions, result *DigestResult) error {
	dir := opts.OutputDir
	if dir == "" {
		dir = "output"
	}
	path := filepath.Join(dir, render.DigestFileName(day))

	if opts.DryRun {
		p.logger.Info("dry run, digest not written", "path", path)
		return nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(result.Markdown), 0o644); err != nil {
		return fmt.Errorf("write digest: %w", err)
	}
	result.OutputPath = path
	p.logger.Info("digest written", "path", path)
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

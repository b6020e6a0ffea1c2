package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"NewsDigest/internal/dedup"
	"NewsDigest/internal/domain"
	"NewsDigest/internal/logging"
	"NewsDigest/internal/ports"
)

// ErrDuplicateArticle means an equivalent article is already stored.
var ErrDuplicateArticle = errors.New("duplicate article")

// CurationDeps wires the editorial use cases.
type CurationDeps struct {
	Articles    ports.ArticleRepository
	Subscribers ports.SubscriberRepository
	Issues      ports.IssueRepository
	Newsletters ports.NewsletterParser
	Logger      *slog.Logger
}

// Curation groups manual editorial operations.
type Curation struct {
	articles    ports.ArticleRepository
	subscribers ports.SubscriberRepository
	issues      ports.IssueRepository
	newsletters ports.NewsletterParser
	dedup       *dedup.Deduplicator
	logger      *slog.Logger
}

// NewCuration constructs the curation use cases.
func NewCuration(deps CurationDeps) *Curation {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Curation{
		articles:    deps.Articles,
		subscribers: deps.Subscribers,
		issues:      deps.Issues,
		newsletters: deps.Newsletters,
		dedup:       dedup.New(deps.Articles),
		logger:      logger,
	}
}

// AddArticle stores a manually submitted article unless it duplicates one.
func (c *Curation) AddArticle(ctx context.Context, input domain.NewArticleInput) (domain.Article, error) {
	if strings.TrimSpace(input.Title) == "" {
		return domain.Article{}, errors.New("article title is empty")
	}
	if input.SourceType == "" {
		input.SourceType = domain.SourceManual
	}

	dup, err := c.dedup.CheckDuplicate(ctx, input.OriginalURL, input.Title)
	if err != nil {
		return domain.Article{}, err
	}
	if dup != nil {
		return *dup, fmt.Errorf("%w: %s", ErrDuplicateArticle, dup.ID)
	}

	article, err := c.articles.CreateArticle(ctx, input)
	if err != nil {
		return domain.Article{}, fmt.Errorf("create article: %w", err)
	}
	c.logger.Info("article added", "id", article.ID, "source", article.Source)
	return article, nil
}

// ListArticles returns articles, optionally narrowed to one status.
func (c *Curation) ListArticles(ctx context.Context, status domain.CurationStatus) ([]domain.Article, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("invalid status %q", status)
	}
	return c.articles.ListArticles(ctx, ports.ArticleFilter{Status: status})
}

// SetStatus moves an article to a new curation status.
func (c *Curation) SetStatus(ctx context.Context, id string, status domain.CurationStatus) (domain.Article, error) {
	if !status.Valid() {
		return domain.Article{}, fmt.Errorf("invalid status %q", status)
	}
	if err := c.articles.UpdateArticleStatus(ctx, id, status); err != nil {
		return domain.Article{}, fmt.Errorf("update status: %w", err)
	}
	return c.articles.GetArticle(ctx, id)
}

// Duplicates reports duplicate groups across the store.
func (c *Curation) Duplicates(ctx context.Context) ([]dedup.Group, error) {
	return c.dedup.FindAllDuplicates(ctx)
}

// AddSubscriber registers an active subscriber.
func (c *Curation) AddSubscriber(ctx context.Context, email string) (domain.Subscriber, error) {
	sub, err := c.subscribers.CreateSubscriber(ctx, email)
	if err != nil {
		return domain.Subscriber{}, fmt.Errorf("add subscriber: %w", err)
	}
	c.logger.Info("subscriber added", "email", sub.Email)
	return sub, nil
}

// ListSubscribers returns subscribers, optionally only active ones.
func (c *Curation) ListSubscribers(ctx context.Context, activeOnly bool) ([]domain.Subscriber, error) {
	return c.subscribers.ListSubscribers(ctx, activeOnly)
}

// RemoveSubscriber unsubscribes the subscriber owning email. It reports
// false when the subscriber had already left.
func (c *Curation) RemoveSubscriber(ctx context.Context, email string) (bool, error) {
	sub, err := c.subscribers.GetSubscriberByEmail(ctx, email)
	if err != nil {
		return false, fmt.Errorf("find subscriber: %w", err)
	}
	return c.subscribers.Unsubscribe(ctx, sub.UnsubscribeToken)
}

// ListIssues returns every issue, newest first.
func (c *Curation) ListIssues(ctx context.Context) ([]domain.NewsletterIssue, error) {
	return c.issues.ListIssues(ctx)
}

// IngestReport summarizes a newsletter ingestion.
type IngestReport struct {
	Extracted  int
	Stored     []domain.Article
	Duplicates int
}

// IngestNewsletter extracts stories from a newsletter body and stores the new ones.
func (c *Curation) IngestNewsletter(ctx context.Context, r io.Reader, from string, received time.Time) (IngestReport, error) {
	var report IngestReport
	if c.newsletters == nil {
		return report, errors.New("no newsletter parser configured")
	}

	items, err := c.newsletters.Parse(r, from, &received)
	if err != nil {
		return report, fmt.Errorf("parse newsletter: %w", err)
	}
	report.Extracted = len(items)

	for _, item := range items {
		dup, err := c.dedup.CheckDuplicate(ctx, item.URL, item.Title)
		if err != nil {
			return report, err
		}
		if dup != nil {
			report.Duplicates++
			continue
		}
		article, err := c.articles.CreateArticle(ctx, toArticleInput(item))
		if err != nil {
			return report, fmt.Errorf("store article %q: %w", item.Title, err)
		}
		report.Stored = append(report.Stored, article)
	}

	c.logger.Info("newsletter ingested",
		"from", from,
		"extracted", report.Extracted,
		"new", len(report.Stored),
		"duplicates", report.Duplicates,
	)
	return report, nil
}

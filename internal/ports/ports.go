package ports

import (
	"context"
	"io"
	"time"

	"NewsDigest/internal/domain"
)

// ItemSource pulls fresh raw items from upstream feeds and listings.
type ItemSource interface {
	FetchDaily(ctx context.Context, day time.Time) ([]domain.RawItem, error)
}

// NewsletterParser extracts stories from a newsletter email body.
type NewsletterParser interface {
	Parse(r io.Reader, from string, received *time.Time) ([]domain.RawItem, error)
}

// ArticleFilter narrows ListArticles results. Zero value lists everything
// ordered by ingestion time, newest first.
type ArticleFilter struct {
	Status        domain.CurationStatus
	Unenriched    bool
	Eligible      bool
	IngestedSince time.Time
	Limit         int
}

// ArticleRepository persists articles and their enrichment.
type ArticleRepository interface {
	CreateArticle(ctx context.Context, input domain.NewArticleInput) (domain.Article, error)
	GetArticle(ctx context.Context, id string) (domain.Article, error)
	GetArticlesByIDs(ctx context.Context, ids []string) ([]domain.Article, error)
	FindArticleByURL(ctx context.Context, url string) (*domain.Article, error)
	ListArticles(ctx context.Context, filter ArticleFilter) ([]domain.Article, error)
	UpdateArticleStatus(ctx context.Context, id string, status domain.CurationStatus) error
	UpdateArticleEnrichment(ctx context.Context, id string, enrichment domain.Enrichment) error
}

// SubscriberRepository manages newsletter recipients.
type SubscriberRepository interface {
	CreateSubscriber(ctx context.Context, email string) (domain.Subscriber, error)
	GetSubscriberByEmail(ctx context.Context, email string) (domain.Subscriber, error)
	ListSubscribers(ctx context.Context, activeOnly bool) ([]domain.Subscriber, error)
	Unsubscribe(ctx context.Context, token string) (bool, error)
}

// IssueRepository manages numbered newsletter issues.
type IssueRepository interface {
	CreateIssue(ctx context.Context, title string, articleIDs []string) (domain.NewsletterIssue, error)
	GetIssueByNumber(ctx context.Context, number int) (domain.NewsletterIssue, error)
	LatestIssue(ctx context.Context) (domain.NewsletterIssue, error)
	ListIssues(ctx context.Context) ([]domain.NewsletterIssue, error)
	MarkIssueSent(ctx context.Context, id string, sentAt time.Time) error
}

// Enricher derives summary, categories, score and actionable flag for an article.
type Enricher interface {
	Enrich(ctx context.Context, rawContent, title, source string) (domain.Enrichment, error)
}

// EditorialPicker chooses the lead story among ranked finalists.
type EditorialPicker interface {
	PickTopStory(ctx context.Context, candidates []domain.PickCandidate) (domain.Pick, error)
}

// TrendingSource returns the currently popular external stories.
type TrendingSource interface {
	TopStories(ctx context.Context, limit int) ([]domain.Story, error)
}

// Message is a single outbound email.
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
	Text    string
	Headers map[string]string
}

// Mailer delivers outbound email and returns the provider message id.
type Mailer interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// Notifier streams short digests to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}

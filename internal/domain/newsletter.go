package domain

import "time"

// TrendingMatch links a stored article to a popular external story.
type TrendingMatch struct {
	ArticleID       string
	ArticleTitle    string
	ExternalStoryID int64
	ExternalTitle   string
	ExternalScore   int
	ExternalURL     string
}

// Story is a single item of the external trending feed.
type Story struct {
	ID    int64
	Title string
	URL   string
	Score int
}

// ComposedArticle is an article placed inside a newsletter plan.
type ComposedArticle struct {
	Article       Article
	Rank          int
	Tags          []string
	IsTopStory    bool
	IsTryThis     bool
	IsTrending    bool
	ExternalScore *int
}

// NewsletterPlan is the structured output of composition.
type NewsletterPlan struct {
	TopStory      *ComposedArticle
	TopStoryIntro string
	TryThis       *ComposedArticle
	Articles      []ComposedArticle
	TotalCount    int
}

// ArticleIDs returns the ids of the planned articles in rank order.
func (p NewsletterPlan) ArticleIDs() []string {
	ids := make([]string, 0, len(p.Articles))
	for _, c := range p.Articles {
		ids = append(ids, c.Article.ID)
	}
	return ids
}

// TrendingCount returns how many planned articles are trending.
func (p NewsletterPlan) TrendingCount() int {
	n := 0
	for _, c := range p.Articles {
		if c.IsTrending {
			n++
		}
	}
	return n
}

// PickCandidate is what the editorial picker sees of an article.
type PickCandidate struct {
	ID         string
	Title      string
	Score      int
	Source     string
	IsTrending bool
	Summary    string
}

// Pick is the editorial picker's answer.
type Pick struct {
	ArticleID string
	Intro     string
}

// SubscriberStatus enumerates subscription states.
type SubscriberStatus string

const (
	SubscriberPending      SubscriberStatus = "pending"
	SubscriberActive       SubscriberStatus = "active"
	SubscriberUnsubscribed SubscriberStatus = "unsubscribed"
)

// Subscriber receives newsletter issues by email.
type Subscriber struct {
	ID               string
	Email            string
	Status           SubscriberStatus
	UnsubscribeToken string
	SubscribedAt     time.Time
	ConfirmedAt      *time.Time
}

// IssueStatus enumerates delivery states of an issue.
type IssueStatus string

const (
	IssueDraft     IssueStatus = "draft"
	IssueScheduled IssueStatus = "scheduled"
	IssueSent      IssueStatus = "sent"
)

// NewsletterIssue is a numbered, deliverable selection of articles.
type NewsletterIssue struct {
	ID           string
	IssueNumber  int
	Title        string
	ArticleIDs   []string
	Status       IssueStatus
	ScheduledFor *time.Time
	SentAt       *time.Time
	CreatedAt    time.Time
}

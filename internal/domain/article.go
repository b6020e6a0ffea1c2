package domain

import "time"

// SourceType tells where an article entered the system.
type SourceType string

const (
	SourceFeed   SourceType = "feed"
	SourceEmail  SourceType = "email"
	SourceManual SourceType = "manual"
)

// Valid reports whether the source type is one of the known values.
func (s SourceType) Valid() bool {
	switch s {
	case SourceFeed, SourceEmail, SourceManual:
		return true
	}
	return false
}

// CurationStatus enumerates editorial milestones of an article.
type CurationStatus string

const (
	StatusPending   CurationStatus = "pending"
	StatusSelected  CurationStatus = "selected"
	StatusRejected  CurationStatus = "rejected"
	StatusPublished CurationStatus = "published"
)

// Valid reports whether the status is one of the known values.
func (s CurationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusSelected, StatusRejected, StatusPublished:
		return true
	}
	return false
}

// Article is a core entity describing ingested content and its enrichment.
// A nil RelevanceScore means the article has not been enriched yet.
type Article struct {
	ID             string
	Source         string
	SourceType     SourceType
	OriginalURL    string
	Title          string
	RawContent     string
	Summary        string
	Categories     []string
	CurationStatus CurationStatus
	RelevanceScore *int
	IsActionable   bool
	PublishedAt    *time.Time
	IngestedAt     time.Time
}

// Enriched reports whether the article carries a relevance score.
func (a Article) Enriched() bool {
	return a.RelevanceScore != nil
}

// Score returns the relevance score or zero for unenriched articles.
func (a Article) Score() int {
	if a.RelevanceScore == nil {
		return 0
	}
	return *a.RelevanceScore
}

// Enrichment is the LLM-derived metadata attached to an article.
type Enrichment struct {
	Summary        string
	Categories     []string
	RelevanceScore int
	IsActionable   bool
}

// RawItem is a freshly polled item before it becomes an Article.
type RawItem struct {
	Title       string
	Content     string
	URL         string
	Source      string
	SourceType  SourceType
	PublishedAt *time.Time
}

// NewArticleInput carries the fields accepted when storing a new article.
type NewArticleInput struct {
	Source      string
	SourceType  SourceType
	OriginalURL string
	Title       string
	RawContent  string
	PublishedAt *time.Time
}

// IntPtr is a helper for optional scores.
func IntPtr(v int) *int {
	return &v
}

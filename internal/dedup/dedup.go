package dedup

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

// Match kinds reported by GroupDuplicates.
const (
	KindURL   = "url"
	KindTitle = "title"
)

var (
	nonAlnumExpr = regexp.MustCompile(`[^a-z0-9\s]`)
	spaceExpr    = regexp.MustCompile(`\s+`)
)

// Group is a set of articles considered the same story.
type Group struct {
	Kind     string
	Key      string
	Articles []domain.Article
}

// NormalizeTitle lowercases, strips punctuation and collapses whitespace.
func NormalizeTitle(title string) string {
	s := strings.ToLower(title)
	s = nonAlnumExpr.ReplaceAllString(s, "")
	s = spaceExpr.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// FindDuplicate returns the first article in existing that duplicates the
// candidate. A URL hit wins over any title comparison.
func FindDuplicate(existing []domain.Article, url, title string) *domain.Article {
	if url != "" {
		for i := range existing {
			if existing[i].OriginalURL == url {
				return &existing[i]
			}
		}
	}

	normalized := NormalizeTitle(title)
	if normalized == "" {
		return nil
	}
	for i := range existing {
		if NormalizeTitle(existing[i].Title) == normalized {
			return &existing[i]
		}
	}
	return nil
}

// GroupDuplicates reports every URL group and every title group of size two
// or more. An article may appear in both kinds of group.
func GroupDuplicates(articles []domain.Article) []Group {
	var (
		groups    []Group
		urlOrder  []string
		byURL     = map[string][]domain.Article{}
		titleKeys []string
		byTitle   = map[string][]domain.Article{}
	)

	for _, a := range articles {
		if a.OriginalURL != "" {
			if _, ok := byURL[a.OriginalURL]; !ok {
				urlOrder = append(urlOrder, a.OriginalURL)
			}
			byURL[a.OriginalURL] = append(byURL[a.OriginalURL], a)
		}
		key := NormalizeTitle(a.Title)
		if key == "" {
			continue
		}
		if _, ok := byTitle[key]; !ok {
			titleKeys = append(titleKeys, key)
		}
		byTitle[key] = append(byTitle[key], a)
	}

	for _, u := range urlOrder {
		if members := byURL[u]; len(members) >= 2 {
			groups = append(groups, Group{Kind: KindURL, Key: u, Articles: members})
		}
	}
	for _, k := range titleKeys {
		if members := byTitle[k]; len(members) >= 2 {
			groups = append(groups, Group{Kind: KindTitle, Key: k, Articles: members})
		}
	}
	return groups
}

// Deduplicator applies the duplicate rules against the article store.
type Deduplicator struct {
	repo ports.ArticleRepository
}

// New wires a deduplicator over repo.
func New(repo ports.ArticleRepository) *Deduplicator {
	return &Deduplicator{repo: repo}
}

// CheckDuplicate returns the stored article that duplicates url/title, or nil.
func (d *Deduplicator) CheckDuplicate(ctx context.Context, url, title string) (*domain.Article, error) {
	if url != "" {
		hit, err := d.repo.FindArticleByURL(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("find by url: %w", err)
		}
		if hit != nil {
			return hit, nil
		}
	}

	if NormalizeTitle(title) == "" {
		return nil, nil
	}

	existing, err := d.repo.ListArticles(ctx, ports.ArticleFilter{})
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return FindDuplicate(existing, "", title), nil
}

// FindAllDuplicates groups the whole store. It never mutates anything.
func (d *Deduplicator) FindAllDuplicates(ctx context.Context) ([]Group, error) {
	all, err := d.repo.ListArticles(ctx, ports.ArticleFilter{})
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return GroupDuplicates(all), nil
}

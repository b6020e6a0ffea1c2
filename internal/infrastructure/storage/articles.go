package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

var _ ports.ArticleRepository = (*Store)(nil)

var articleColumns = []string{
	"id", "source", "source_type", "original_url", "title", "raw_content", "summary",
	"categories", "curation_status", "relevance_score", "is_actionable", "published_at", "ingested_at",
}

// CreateArticle stores a new pending, unenriched article.
func (s *Store) CreateArticle(ctx context.Context, input domain.NewArticleInput) (domain.Article, error) {
	if strings.TrimSpace(input.Title) == "" {
		return domain.Article{}, fmt.Errorf("article title is empty")
	}
	if !input.SourceType.Valid() {
		return domain.Article{}, fmt.Errorf("invalid source type %q", input.SourceType)
	}

	article := domain.Article{
		ID:             uuid.NewString(),
		Source:         input.Source,
		SourceType:     input.SourceType,
		OriginalURL:    input.OriginalURL,
		Title:          input.Title,
		RawContent:     input.RawContent,
		Categories:     []string{},
		CurationStatus: domain.StatusPending,
		PublishedAt:    input.PublishedAt,
		IngestedAt:     s.now().UTC().Truncate(0),
	}

	_, err := s.exec(ctx, s.sb.Insert("articles").
		Columns("id", "source", "source_type", "original_url", "title", "raw_content",
			"categories", "curation_status", "is_actionable", "published_at", "ingested_at").
		Values(article.ID, article.Source, string(article.SourceType), nullString(article.OriginalURL),
			article.Title, article.RawContent, "[]", string(article.CurationStatus), 0,
			formatOptionalTime(article.PublishedAt), formatTime(article.IngestedAt)))
	if err != nil {
		return domain.Article{}, fmt.Errorf("insert article: %w", err)
	}
	return article, nil
}

// GetArticle loads a single article by id.
func (s *Store) GetArticle(ctx context.Context, id string) (domain.Article, error) {
	list, err := s.selectArticles(ctx, s.sb.Select(articleColumns...).From("articles").Where(sq.Eq{"id": id}))
	if err != nil {
		return domain.Article{}, err
	}
	if len(list) == 0 {
		return domain.Article{}, fmt.Errorf("article %s: %w", id, ErrNotFound)
	}
	return list[0], nil
}

// GetArticlesByIDs loads articles in the order of ids, skipping unknown ones.
func (s *Store) GetArticlesByIDs(ctx context.Context, ids []string) ([]domain.Article, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	q := s.sb.Select(articleColumns...).From("articles")
	if s.driver == DriverPostgres {
		q = q.Where("id = ANY(?)", pq.Array(ids))
	} else {
		q = q.Where(sq.Eq{"id": ids})
	}

	list, err := s.selectArticles(ctx, q)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]domain.Article, len(list))
	for _, a := range list {
		byID[a.ID] = a
	}
	ordered := make([]domain.Article, 0, len(list))
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			ordered = append(ordered, a)
			delete(byID, id)
		}
	}
	return ordered, nil
}

// FindArticleByURL returns the newest article with exactly this URL, or nil.
func (s *Store) FindArticleByURL(ctx context.Context, url string) (*domain.Article, error) {
	if url == "" {
		return nil, nil
	}
	list, err := s.selectArticles(ctx, s.sb.Select(articleColumns...).From("articles").
		Where(sq.Eq{"original_url": url}).OrderBy("ingested_at DESC").Limit(1))
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return &list[0], nil
}

// ListArticles returns articles matching filter, newest first unless the
// eligible ordering is requested.
func (s *Store) ListArticles(ctx context.Context, filter ports.ArticleFilter) ([]domain.Article, error) {
	q := s.sb.Select(articleColumns...).From("articles")

	if filter.Status != "" {
		q = q.Where(sq.Eq{"curation_status": string(filter.Status)})
	}
	if filter.Unenriched {
		q = q.Where(sq.Eq{"relevance_score": nil})
	}
	if !filter.IngestedSince.IsZero() {
		q = q.Where(sq.GtOrEq{"ingested_at": formatTime(filter.IngestedSince)})
	}
	if filter.Eligible {
		q = q.Where(sq.NotEq{"relevance_score": nil}).
			Where(sq.Eq{"curation_status": []string{string(domain.StatusPending), string(domain.StatusSelected)}}).
			OrderBy("relevance_score DESC", "ingested_at DESC")
	} else {
		q = q.OrderBy("ingested_at DESC")
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}

	return s.selectArticles(ctx, q)
}

// UpdateArticleStatus sets the curation status explicitly.
func (s *Store) UpdateArticleStatus(ctx context.Context, id string, status domain.CurationStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid curation status %q", status)
	}
	res, err := s.exec(ctx, s.sb.Update("articles").
		Set("curation_status", string(status)).
		Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return requireAffected(res, "article "+id)
}

// UpdateArticleEnrichment stores summary, categories, score and actionable flag.
func (s *Store) UpdateArticleEnrichment(ctx context.Context, id string, e domain.Enrichment) error {
	cats := domain.FilterCategories(e.Categories)
	raw, err := json.Marshal(cats)
	if err != nil {
		return fmt.Errorf("marshal categories: %w", err)
	}

	actionable := 0
	if e.IsActionable {
		actionable = 1
	}

	res, err := s.exec(ctx, s.sb.Update("articles").
		Set("summary", nullString(e.Summary)).
		Set("categories", string(raw)).
		Set("relevance_score", e.RelevanceScore).
		Set("is_actionable", actionable).
		Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("update enrichment: %w", err)
	}
	return requireAffected(res, "article "+id)
}

func (s *Store) selectArticles(ctx context.Context, q sq.SelectBuilder) ([]domain.Article, error) {
	rows, err := s.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	var out []domain.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

func scanArticle(rows *sql.Rows) (domain.Article, error) {
	var (
		a                    domain.Article
		sourceType, status   string
		originalURL, summary sql.NullString
		categories           string
		score                sql.NullInt64
		actionable           int64
		publishedAt          sql.NullString
		ingestedAt           string
	)
	if err := rows.Scan(&a.ID, &a.Source, &sourceType, &originalURL, &a.Title, &a.RawContent,
		&summary, &categories, &status, &score, &actionable, &publishedAt, &ingestedAt); err != nil {
		return domain.Article{}, fmt.Errorf("scan article: %w", err)
	}

	a.SourceType = domain.SourceType(sourceType)
	a.CurationStatus = domain.CurationStatus(status)
	a.OriginalURL = originalURL.String
	a.Summary = summary.String
	a.IsActionable = actionable != 0
	a.PublishedAt = parseOptionalTime(publishedAt)
	a.IngestedAt = parseTime(ingestedAt)
	if score.Valid {
		a.RelevanceScore = domain.IntPtr(int(score.Int64))
	}

	a.Categories = []string{}
	if categories != "" {
		if err := json.Unmarshal([]byte(categories), &a.Categories); err != nil {
			return domain.Article{}, fmt.Errorf("decode categories of %s: %w", a.ID, err)
		}
	}
	return a, nil
}

func requireAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

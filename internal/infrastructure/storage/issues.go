package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

var _ ports.IssueRepository = (*Store)(nil)

var issueColumns = []string{"id", "issue_number", "title", "article_ids", "status", "scheduled_for", "sent_at", "created_at"}

// CreateIssue stores a draft issue numbered one past the current maximum.
func (s *Store) CreateIssue(ctx context.Context, title string, articleIDs []string) (domain.NewsletterIssue, error) {
	if articleIDs == nil {
		articleIDs = []string{}
	}
	raw, err := json.Marshal(articleIDs)
	if err != nil {
		return domain.NewsletterIssue{}, fmt.Errorf("marshal article ids: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.NewsletterIssue{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query, args, err := s.sb.Select("COALESCE(MAX(issue_number), 0)").From("newsletter_issues").ToSql()
	if err != nil {
		return domain.NewsletterIssue{}, fmt.Errorf("build query: %w", err)
	}
	var maxNumber int
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&maxNumber); err != nil {
		return domain.NewsletterIssue{}, fmt.Errorf("max issue number: %w", err)
	}

	issue := domain.NewsletterIssue{
		ID:          uuid.NewString(),
		IssueNumber: maxNumber + 1,
		Title:       title,
		ArticleIDs:  articleIDs,
		Status:      domain.IssueDraft,
		CreatedAt:   s.now().UTC().Truncate(0),
	}

	query, args, err = s.sb.Insert("newsletter_issues").
		Columns("id", "issue_number", "title", "article_ids", "status", "created_at").
		Values(issue.ID, issue.IssueNumber, issue.Title, string(raw), string(issue.Status), formatTime(issue.CreatedAt)).
		ToSql()
	if err != nil {
		return domain.NewsletterIssue{}, fmt.Errorf("build query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return domain.NewsletterIssue{}, fmt.Errorf("insert issue: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.NewsletterIssue{}, fmt.Errorf("commit issue: %w", err)
	}
	return issue, nil
}

// GetIssueByNumber loads one issue.
func (s *Store) GetIssueByNumber(ctx context.Context, number int) (domain.NewsletterIssue, error) {
	list, err := s.selectIssues(ctx, s.sb.Select(issueColumns...).From("newsletter_issues").
		Where(sq.Eq{"issue_number": number}))
	if err != nil {
		return domain.NewsletterIssue{}, err
	}
	if len(list) == 0 {
		return domain.NewsletterIssue{}, fmt.Errorf("issue #%d: %w", number, ErrNotFound)
	}
	return list[0], nil
}

// LatestIssue returns the highest-numbered issue.
func (s *Store) LatestIssue(ctx context.Context) (domain.NewsletterIssue, error) {
	list, err := s.selectIssues(ctx, s.sb.Select(issueColumns...).From("newsletter_issues").
		OrderBy("issue_number DESC").Limit(1))
	if err != nil {
		return domain.NewsletterIssue{}, err
	}
	if len(list) == 0 {
		return domain.NewsletterIssue{}, fmt.Errorf("latest issue: %w", ErrNotFound)
	}
	return list[0], nil
}

// ListIssues returns every issue, newest number first.
func (s *Store) ListIssues(ctx context.Context) ([]domain.NewsletterIssue, error) {
	return s.selectIssues(ctx, s.sb.Select(issueColumns...).From("newsletter_issues").OrderBy("issue_number DESC"))
}

// MarkIssueSent records delivery time.
func (s *Store) MarkIssueSent(ctx context.Context, id string, sentAt time.Time) error {
	res, err := s.exec(ctx, s.sb.Update("newsletter_issues").
		Set("status", string(domain.IssueSent)).
		Set("sent_at", formatTime(sentAt)).
		Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("mark issue sent: %w", err)
	}
	return requireAffected(res, "issue "+id)
}

func (s *Store) selectIssues(ctx context.Context, q sq.SelectBuilder) ([]domain.NewsletterIssue, error) {
	rows, err := s.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query issues: %w", err)
	}
	defer rows.Close()

	var out []domain.NewsletterIssue
	for rows.Next() {
		var (
			issue                domain.NewsletterIssue
			articleIDs, status   string
			scheduledFor, sentAt sql.NullString
			createdAt            string
		)
		if err := rows.Scan(&issue.ID, &issue.IssueNumber, &issue.Title, &articleIDs, &status,
			&scheduledFor, &sentAt, &createdAt); err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}
		issue.Status = domain.IssueStatus(status)
		issue.ScheduledFor = parseOptionalTime(scheduledFor)
		issue.SentAt = parseOptionalTime(sentAt)
		issue.CreatedAt = parseTime(createdAt)
		if err := json.Unmarshal([]byte(articleIDs), &issue.ArticleIDs); err != nil {
			return nil, fmt.Errorf("decode article ids of issue %d: %w", issue.IssueNumber, err)
		}
		out = append(out, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/logging"
	"NewsDigest/internal/ports"
	"NewsDigest/internal/render"
)

const defaultSendDelay = 100 * time.Millisecond

var (
	// ErrNoArticles means an issue would be empty.
	ErrNoArticles = errors.New("no articles to send")
	// ErrNoSubscribers means nobody would receive the issue.
	ErrNoSubscribers = errors.New("no active subscribers")
)

// SenderDeps wires storage and the mailer into issue delivery.
type SenderDeps struct {
	Articles    ports.ArticleRepository
	Subscribers ports.SubscriberRepository
	Issues      ports.IssueRepository
	Mailer      ports.Mailer
	Logger      *slog.Logger
	From        string
	BaseURL     string
	SendDelay   time.Duration
}

// SendResult is the outcome for one subscriber.
type SendResult struct {
	Subscriber domain.Subscriber
	MessageID  string
	Err        error
}

// DeliveryPlan is what a send would do.
type DeliveryPlan struct {
	Articles    []domain.Article
	Subscribers []domain.Subscriber
}

// DeliveryReport summarizes a send.
type DeliveryReport struct {
	Issue   domain.NewsletterIssue
	Results []SendResult
	Sent    int
	Failed  int
}

// Sender delivers newsletter issues to active subscribers.
type Sender struct {
	articles    ports.ArticleRepository
	subscribers ports.SubscriberRepository
	issues      ports.IssueRepository
	mailer      ports.Mailer
	logger      *slog.Logger
	from        string
	baseURL     string
	delay       time.Duration
	now         func() time.Time
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewSender constructs the delivery use case.
func NewSender(deps SenderDeps) *Sender {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	delay := deps.SendDelay
	if delay == 0 {
		delay = defaultSendDelay
	}
	return &Sender{
		articles:    deps.Articles,
		subscribers: deps.Subscribers,
		issues:      deps.Issues,
		mailer:      deps.Mailer,
		logger:      logger,
		from:        deps.From,
		baseURL:     strings.TrimSuffix(deps.BaseURL, "/"),
		delay:       delay,
		now:         time.Now,
		sleep:       sleepCtx,
	}
}

// Prepare resolves the articles and recipients of a send. Without explicit
// ids the selected articles are used.
func (s *Sender) Prepare(ctx context.Context, articleIDs []string) (DeliveryPlan, error) {
	var (
		articles []domain.Article
		err      error
	)
	if len(articleIDs) > 0 {
		articles, err = s.articles.GetArticlesByIDs(ctx, articleIDs)
	} else {
		articles, err = s.articles.ListArticles(ctx, ports.ArticleFilter{Status: domain.StatusSelected})
	}
	if err != nil {
		return DeliveryPlan{}, fmt.Errorf("load articles: %w", err)
	}
	if len(articles) == 0 {
		return DeliveryPlan{}, ErrNoArticles
	}

	subscribers, err := s.subscribers.ListSubscribers(ctx, true)
	if err != nil {
		return DeliveryPlan{}, fmt.Errorf("load subscribers: %w", err)
	}
	if len(subscribers) == 0 {
		return DeliveryPlan{}, ErrNoSubscribers
	}

	return DeliveryPlan{Articles: articles, Subscribers: subscribers}, nil
}

// Send creates a new issue from plan and delivers it.
func (s *Sender) Send(ctx context.Context, title string, plan DeliveryPlan) (DeliveryReport, error) {
	if s.mailer == nil {
		return DeliveryReport{}, errors.New("no mailer configured")
	}
	if strings.TrimSpace(title) == "" {
		return DeliveryReport{}, errors.New("issue title is empty")
	}

	ids := make([]string, 0, len(plan.Articles))
	for _, a := range plan.Articles {
		ids = append(ids, a.ID)
	}
	issue, err := s.issues.CreateIssue(ctx, title, ids)
	if err != nil {
		return DeliveryReport{}, fmt.Errorf("create issue: %w", err)
	}
	s.logger.Info("issue created", "issue", issue.IssueNumber, "articles", len(ids))

	return s.Deliver(ctx, issue, plan)
}

// Deliver mails an existing issue. The issue is marked sent and its articles
// published only when at least one message went out.
func (s *Sender) Deliver(ctx context.Context, issue domain.NewsletterIssue, plan DeliveryPlan) (DeliveryReport, error) {
	report := DeliveryReport{Issue: issue}

	for i, sub := range plan.Subscribers {
		res := s.sendOne(ctx, issue, plan.Articles, sub)
		report.Results = append(report.Results, res)
		if res.Err != nil {
			report.Failed++
			s.logger.Warn("send failed", "email", sub.Email, "error", res.Err)
		} else {
			report.Sent++
			s.logger.Debug("sent", "email", sub.Email, "message_id", res.MessageID)
		}

		if i < len(plan.Subscribers)-1 {
			if err := s.sleep(ctx, s.delay); err != nil {
				return report, err
			}
		}
	}

	if report.Sent == 0 {
		return report, nil
	}

	sentAt := s.now().UTC()
	if err := s.issues.MarkIssueSent(ctx, issue.ID, sentAt); err != nil {
		return report, fmt.Errorf("mark issue sent: %w", err)
	}
	report.Issue.Status = domain.IssueSent
	report.Issue.SentAt = &sentAt

	for _, a := range plan.Articles {
		if err := s.articles.UpdateArticleStatus(ctx, a.ID, domain.StatusPublished); err != nil {
			return report, fmt.Errorf("publish article %s: %w", a.ID, err)
		}
	}

	s.logger.Info("issue delivered", "issue", issue.IssueNumber, "sent", report.Sent, "failed", report.Failed)
	return report, nil
}

func (s *Sender) sendOne(ctx context.Context, issue domain.NewsletterIssue, articles []domain.Article, sub domain.Subscriber) SendResult {
	unsubscribeURL := UnsubscribeURL(s.baseURL, sub.UnsubscribeToken)
	data := render.TemplateData{Issue: issue, Articles: articles, UnsubscribeURL: unsubscribeURL}

	html, err := render.IssueHTML(data)
	if err != nil {
		return SendResult{Subscriber: sub, Err: err}
	}
	text, err := render.IssueText(data)
	if err != nil {
		return SendResult{Subscriber: sub, Err: err}
	}

	id, err := s.mailer.Send(ctx, ports.Message{
		From:    s.from,
		To:      sub.Email,
		Subject: render.Subject(issue),
		HTML:    html,
		Text:    text,
		Headers: map[string]string{"List-Unsubscribe": "<" + unsubscribeURL + ">"},
	})
	return SendResult{Subscriber: sub, MessageID: id, Err: err}
}

// UnsubscribeURL builds the per-subscriber opt-out link.
func UnsubscribeURL(baseURL, token string) string {
	return strings.TrimSuffix(baseURL, "/") + "/unsubscribe/" + token
}

package usecase

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

var errNotFound = errors.New("not found")

// memStore is an in-memory repository used by the use case tests.
type memStore struct {
	mu          sync.Mutex
	clock       time.Time
	articles    []domain.Article
	subscribers []domain.Subscriber
	issues      []domain.NewsletterIssue
}

func newMemStore(start time.Time) *memStore {
	return &memStore{clock: start}
}

func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memStore) seed(a domain.Article) domain.Article {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CurationStatus == "" {
		a.CurationStatus = domain.StatusPending
	}
	if a.IngestedAt.IsZero() {
		a.IngestedAt = m.tick()
	}
	m.articles = append(m.articles, a)
	return a
}

func (m *memStore) CreateArticle(_ context.Context, in domain.NewArticleInput) (domain.Article, error) {
	return m.seed(domain.Article{
		Source:      in.Source,
		SourceType:  in.SourceType,
		OriginalURL: in.OriginalURL,
		Title:       in.Title,
		RawContent:  in.RawContent,
		PublishedAt: in.PublishedAt,
	}), nil
}

func (m *memStore) GetArticle(_ context.Context, id string) (domain.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.articles {
		if a.ID == id {
			return a, nil
		}
	}
	return domain.Article{}, errNotFound
}

func (m *memStore) GetArticlesByIDs(ctx context.Context, ids []string) ([]domain.Article, error) {
	var out []domain.Article
	for _, id := range ids {
		if a, err := m.GetArticle(ctx, id); err == nil {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) FindArticleByURL(_ context.Context, url string) (*domain.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.articles {
		if a.OriginalURL == url {
			found := a
			return &found, nil
		}
	}
	return nil, nil
}

func (m *memStore) ListArticles(_ context.Context, f ports.ArticleFilter) ([]domain.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Article
	for _, a := range m.articles {
		if f.Status != "" && a.CurationStatus != f.Status {
			continue
		}
		if f.Unenriched && a.Enriched() {
			continue
		}
		if !f.IngestedSince.IsZero() && a.IngestedAt.Before(f.IngestedSince) {
			continue
		}
		if f.Eligible && (!a.Enriched() || (a.CurationStatus != domain.StatusPending && a.CurationStatus != domain.StatusSelected)) {
			continue
		}
		out = append(out, a)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if f.Eligible && out[i].Score() != out[j].Score() {
			return out[i].Score() > out[j].Score()
		}
		return out[i].IngestedAt.After(out[j].IngestedAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memStore) UpdateArticleStatus(_ context.Context, id string, status domain.CurationStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.articles {
		if m.articles[i].ID == id {
			m.articles[i].CurationStatus = status
			return nil
		}
	}
	return errNotFound
}

func (m *memStore) UpdateArticleEnrichment(_ context.Context, id string, e domain.Enrichment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.articles {
		if m.articles[i].ID == id {
			m.articles[i].Summary = e.Summary
			m.articles[i].Categories = e.Categories
			m.articles[i].RelevanceScore = domain.IntPtr(e.RelevanceScore)
			m.articles[i].IsActionable = e.IsActionable
			return nil
		}
	}
	return errNotFound
}

func (m *memStore) CreateSubscriber(_ context.Context, email string) (domain.Subscriber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub := domain.Subscriber{
		ID:               uuid.NewString(),
		Email:            email,
		Status:           domain.SubscriberActive,
		UnsubscribeToken: "tok-" + email,
		SubscribedAt:     m.tick(),
	}
	m.subscribers = append(m.subscribers, sub)
	return sub, nil
}

func (m *memStore) GetSubscriberByEmail(_ context.Context, email string) (domain.Subscriber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.subscribers {
		if s.Email == email {
			return s, nil
		}
	}
	return domain.Subscriber{}, errNotFound
}

func (m *memStore) ListSubscribers(_ context.Context, activeOnly bool) ([]domain.Subscriber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Subscriber
	for _, s := range m.subscribers {
		if activeOnly && s.Status != domain.SubscriberActive {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (m *memStore) Unsubscribe(_ context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.subscribers {
		if m.subscribers[i].UnsubscribeToken == token && m.subscribers[i].Status != domain.SubscriberUnsubscribed {
			m.subscribers[i].Status = domain.SubscriberUnsubscribed
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) CreateIssue(_ context.Context, title string, ids []string) (domain.NewsletterIssue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	issue := domain.NewsletterIssue{
		ID:          uuid.NewString(),
		IssueNumber: len(m.issues) + 1,
		Title:       title,
		ArticleIDs:  append([]string(nil), ids...),
		Status:      domain.IssueDraft,
		CreatedAt:   m.tick(),
	}
	m.issues = append(m.issues, issue)
	return issue, nil
}

func (m *memStore) GetIssueByNumber(_ context.Context, n int) (domain.NewsletterIssue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, is := range m.issues {
		if is.IssueNumber == n {
			return is, nil
		}
	}
	return domain.NewsletterIssue{}, errNotFound
}

func (m *memStore) LatestIssue(ctx context.Context) (domain.NewsletterIssue, error) {
	m.mu.Lock()
	n := len(m.issues)
	m.mu.Unlock()
	return m.GetIssueByNumber(ctx, n)
}

func (m *memStore) ListIssues(_ context.Context) ([]domain.NewsletterIssue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]domain.NewsletterIssue(nil), m.issues...)
	sort.Slice(out, func(i, j int) bool { return out[i].IssueNumber > out[j].IssueNumber })
	return out, nil
}

func (m *memStore) MarkIssueSent(_ context.Context, id string, sentAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.issues {
		if m.issues[i].ID == id {
			m.issues[i].Status = domain.IssueSent
			m.issues[i].SentAt = &sentAt
			return nil
		}
	}
	return errNotFound
}

func (m *memStore) byTitle(title string) domain.Article {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.articles {
		if a.Title == title {
			return a
		}
	}
	return domain.Article{}
}

type fakeSource struct {
	items []domain.RawItem
	err   error
}

func (f fakeSource) FetchDaily(context.Context, time.Time) ([]domain.RawItem, error) {
	return f.items, f.err
}

// fakeEnricher scores articles from a title lookup; unknown titles fail.
type fakeEnricher struct {
	byTitle map[string]domain.Enrichment
	calls   int
}

func (f *fakeEnricher) Enrich(_ context.Context, _, title, _ string) (domain.Enrichment, error) {
	f.calls++
	e, ok := f.byTitle[title]
	if !ok {
		return domain.Enrichment{}, errors.New("model unavailable")
	}
	return e, nil
}

type fakeTrending struct {
	stories []domain.Story
	err     error
}

func (f fakeTrending) TopStories(context.Context, int) ([]domain.Story, error) {
	return f.stories, f.err
}

type fakePicker struct {
	pick domain.Pick
	err  error
}

func (f fakePicker) PickTopStory(context.Context, []domain.PickCandidate) (domain.Pick, error) {
	return f.pick, f.err
}

type fakeNotifier struct {
	messages []string
}

func (f *fakeNotifier) PublishDigest(_ context.Context, text string) error {
	f.messages = append(f.messages, text)
	return nil
}

type fakeMailer struct {
	fail map[string]bool
	sent []ports.Message
}

func (f *fakeMailer) Send(_ context.Context, msg ports.Message) (string, error) {
	if f.fail[msg.To] {
		return "", errors.New("rejected")
	}
	f.sent = append(f.sent, msg)
	return "msg-" + msg.To, nil
}

type fakeParser struct {
	items []domain.RawItem
}

func (f fakeParser) Parse(_ io.Reader, _ string, received *time.Time) ([]domain.RawItem, error) {
	out := make([]domain.RawItem, len(f.items))
	for i, it := range f.items {
		it.PublishedAt = received
		out[i] = it
	}
	return out, nil
}

type fakeDriver struct {
	fired   []time.Time
	stopped bool
}

func (f *fakeDriver) Start(_ context.Context, job func(time.Time)) error {
	for _, t := range f.fired {
		job(t)
	}
	return nil
}

func (f *fakeDriver) Stop(context.Context) error {
	f.stopped = true
	return nil
}

package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/scanner"
)

// FeedScanner polls RSS and Atom feeds. Each category is one feed whose name
// becomes the source key of its items.
type FeedScanner struct {
	client *http.Client
	logger *slog.Logger
}

// NewFeedScanner wires an HTTP client used by the feed parser.
func NewFeedScanner(client *http.Client, logger *slog.Logger) *FeedScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &FeedScanner{client: client, logger: logger}
}

// Name identifies the strategy inside the registry.
func (f *FeedScanner) Name() string {
	return "feed"
}

// Scan fetches every configured feed. A failing feed is logged and skipped;
// the scan only fails when no feed could be read.
func (f *FeedScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.RawItem, error) {
	if len(req.Categories) == 0 {
		return nil, fmt.Errorf("no feeds provided for site %s", req.SiteName)
	}

	var (
		items []domain.RawItem
		errs  []error
	)
	for _, cat := range req.Categories {
		feed, err := f.fetch(ctx, cat.URL)
		if err != nil {
			errs = append(errs, fmt.Errorf("feed %s: %w", cat.Name, err))
			if f.logger != nil {
				f.logger.Warn("feed poll failed", "feed", cat.Name, "url", cat.URL, "error", err)
			}
			continue
		}

		source := cat.Name
		if source == "" {
			source = req.SiteName
		}
		for _, it := range feed.Items {
			items = append(items, FeedItemToRaw(it, source))
		}
		if f.logger != nil {
			f.logger.Debug("feed polled", "feed", cat.Name, "items", len(feed.Items))
		}
	}

	if len(errs) == len(req.Categories) {
		return nil, errors.Join(errs...)
	}
	return items, nil
}

func (f *FeedScanner) fetch(ctx context.Context, url string) (*gofeed.Feed, error) {
	fp := gofeed.NewParser()
	fp.Client = f.client
	fp.UserAgent = userAgent
	feed, err := fp.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return feed, nil
}

// FeedItemToRaw converts a parsed feed entry into a raw item.
func FeedItemToRaw(item *gofeed.Item, source string) domain.RawItem {
	title := strings.TrimSpace(item.Title)
	if title == "" {
		title = "Untitled"
	}

	content := item.Description
	if content == "" {
		content = item.Content
	}

	raw := domain.RawItem{
		Title:      title,
		Content:    PlainText(content),
		URL:        item.Link,
		Source:     source,
		SourceType: domain.SourceFeed,
	}

	switch {
	case item.PublishedParsed != nil:
		t := item.PublishedParsed.UTC()
		raw.PublishedAt = &t
	case item.UpdatedParsed != nil:
		t := item.UpdatedParsed.UTC()
		raw.PublishedAt = &t
	}
	return raw
}

// PlainText strips markup from an HTML fragment and collapses whitespace.
func PlainText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return strings.Join(strings.Fields(fragment), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.Join(strings.Fields(fragment), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

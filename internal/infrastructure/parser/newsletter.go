package parser

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

// Known newsletter source keys.
const (
	SourceAlphaSignal = "alphasignal"
	SourceTheBatch    = "the-batch"
	SourceImportAI    = "import-ai"
	SourceTheRundown  = "the-rundown"
)

const minContentLen = 50

var (
	leadingEmojiExpr = regexp.MustCompile(`^[\x{1F000}-\x{1FFFF}\x{2600}-\x{26FF}\x{2700}-\x{27BF}]+\s*`)
	senderSanitize   = regexp.MustCompile(`(?i)[^a-z0-9]`)
)

// ExtractedArticle is one story pulled out of a newsletter email.
type ExtractedArticle struct {
	Title   string
	Content string
	URL     string
}

// newsletterRule describes how one newsletter lays out its stories.
type newsletterRule struct {
	fallbackTitle  string
	titleSelector  string
	minTitleLen    int
	skipTitles     []string
	joinParagraphs bool
	cleanTitle     bool
}

var newsletterRules = map[string]newsletterRule{
	SourceAlphaSignal: {
		fallbackTitle: "AlphaSignal Newsletter",
		titleSelector: "h2, h3, strong",
		minTitleLen:   5,
		skipTitles:    []string{"unsubscribe", "view in browser"},
	},
	SourceTheBatch: {
		fallbackTitle: "The Batch Newsletter",
		titleSelector: "h2, h3",
		minTitleLen:   5,
	},
	SourceImportAI: {
		fallbackTitle: "Import AI Newsletter",
		titleSelector: "strong, b, h2, h3",
		minTitleLen:   5,
		skipTitles:    []string{"unsubscribe", "view in browser", "import ai", "forward this"},
	},
	SourceTheRundown: {
		fallbackTitle:  "The Rundown AI Newsletter",
		titleSelector:  "h2, h3, strong",
		minTitleLen:    3,
		skipTitles:     []string{"unsubscribe", "view in browser", "share this", "advertise", "sponsor"},
		joinParagraphs: true,
		cleanTitle:     true,
	},
}

// IdentifySource maps a From header to a newsletter source key. Unknown
// senders become a slug of the mailbox name.
func IdentifySource(from string) string {
	lower := strings.ToLower(from)
	switch {
	case strings.Contains(lower, "deeplearning.ai"), strings.Contains(lower, "the batch"):
		return SourceTheBatch
	case strings.Contains(lower, "alphasignal"):
		return SourceAlphaSignal
	case strings.Contains(lower, "import ai"):
		return SourceImportAI
	case strings.Contains(lower, "rundown"):
		return SourceTheRundown
	}

	local := from
	if at := strings.Index(local, "@"); at >= 0 {
		local = local[:at]
	}
	return strings.ToLower(senderSanitize.ReplaceAllString(local, "-"))
}

// ExtractArticles splits a newsletter body into stories using the layout of
// its source. Unknown sources yield the whole text as one article.
func ExtractArticles(r io.Reader, source string) ([]ExtractedArticle, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse newsletter: %w", err)
	}

	rule, ok := newsletterRules[source]
	if !ok {
		return []ExtractedArticle{{Title: "Newsletter", Content: strings.TrimSpace(doc.Text())}}, nil
	}

	var articles []ExtractedArticle
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		title := strings.TrimSpace(table.Find(rule.titleSelector).First().Text())
		content := tableContent(table, rule.joinParagraphs)
		link, _ := table.Find("a[href]").First().Attr("href")

		if title == "" || utf8.RuneCountInString(title) <= rule.minTitleLen || utf8.RuneCountInString(content) <= minContentLen {
			return
		}
		lowerTitle := strings.ToLower(title)
		for _, skip := range rule.skipTitles {
			if strings.Contains(lowerTitle, skip) {
				return
			}
		}
		if rule.cleanTitle {
			title = strings.TrimSpace(leadingEmojiExpr.ReplaceAllString(title, ""))
		}

		articles = append(articles, ExtractedArticle{Title: title, Content: content, URL: link})
	})

	if len(articles) == 0 {
		return []ExtractedArticle{{Title: rule.fallbackTitle, Content: strings.TrimSpace(doc.Text())}}, nil
	}
	return articles, nil
}

func tableContent(table *goquery.Selection, join bool) string {
	paragraphs := table.Find("p")
	if !join {
		return strings.TrimSpace(paragraphs.Text())
	}
	var parts []string
	paragraphs.Each(func(_ int, p *goquery.Selection) {
		if text := strings.TrimSpace(p.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, " ")
}

// NewsletterParser turns a newsletter email body into raw items.
type NewsletterParser struct{}

var _ ports.NewsletterParser = NewsletterParser{}

// Parse identifies the sender and extracts its stories as email items.
func (NewsletterParser) Parse(r io.Reader, from string, received *time.Time) ([]domain.RawItem, error) {
	source := IdentifySource(from)
	extracted, err := ExtractArticles(r, source)
	if err != nil {
		return nil, err
	}

	items := make([]domain.RawItem, 0, len(extracted))
	for _, a := range extracted {
		items = append(items, domain.RawItem{
			Title:       a.Title,
			Content:     a.Content,
			URL:         a.URL,
			Source:      source,
			SourceType:  domain.SourceEmail,
			PublishedAt: received,
		})
	}
	return items, nil
}

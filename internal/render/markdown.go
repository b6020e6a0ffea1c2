// Package render turns newsletter plans and issues into markdown, HTML and text.
package render

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"NewsDigest/internal/domain"
)

const (
	// DateLayout is the day format used in headings and file names.
	DateLayout = "2006-01-02"

	previewLen       = 300
	uncategorizedTag = "Uncategorized"
)

// DigestFileName returns the markdown file name for a day.
func DigestFileName(day time.Time) string {
	return day.Format(DateLayout) + "-digest.md"
}

// ComposedMarkdown renders a ranked plan as a markdown digest.
func ComposedMarkdown(plan domain.NewsletterPlan, day time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# AI News Digest - %s\n\n", day.Format(DateLayout))
	fmt.Fprintf(&b, "*%d article(s) collected, ranked by relevance*\n\n", plan.TotalCount)

	if plan.TopStory != nil {
		b.WriteString("## Top Story\n\n")
		writeComposed(&b, *plan.TopStory, plan.TopStoryIntro)
	}

	if plan.TryThis != nil && !plan.TryThis.IsTopStory {
		b.WriteString("## Try This\n\n")
		writeComposed(&b, *plan.TryThis, "")
	}

	var remaining []domain.ComposedArticle
	for _, c := range plan.Articles {
		if c.IsTopStory || c.IsTryThis {
			continue
		}
		remaining = append(remaining, c)
	}

	if len(remaining) > 0 {
		b.WriteString("## More Stories\n\n")
		for _, c := range remaining {
			writeComposed(&b, c, "")
		}
	}

	return b.String()
}

func writeComposed(b *strings.Builder, c domain.ComposedArticle, intro string) {
	a := c.Article

	badges := make([]string, 0, len(c.Tags)+2)
	if c.IsTrending {
		badges = append(badges, "`Trending`")
	}
	if c.IsTryThis {
		badges = append(badges, "`Try This`")
	}
	for _, tag := range c.Tags {
		badges = append(badges, "`"+tag+"`")
	}

	fmt.Fprintf(b, "### %s%s\n", a.Title, linkSuffix(a.OriginalURL))
	fmt.Fprintf(b, "*Source: %s* | Score: %d/10 | %s\n\n", a.Source, a.Score(), strings.Join(badges, " "))

	if intro != "" {
		fmt.Fprintf(b, "> %s\n\n", intro)
	}

	b.WriteString(Body(a))
	b.WriteString("\n\n")
}

// LegacyMarkdown renders articles grouped by category, used when nothing is
// enriched yet. An article appears once per category; untagged ones go last.
func LegacyMarkdown(articles []domain.Article, day time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# AI News Digest - %s\n\n", day.Format(DateLayout))
	fmt.Fprintf(&b, "*%d article(s) collected*\n\n", len(articles))

	byCategory := make(map[string][]domain.Article)
	var uncategorized []domain.Article
	for _, a := range articles {
		if len(a.Categories) == 0 {
			uncategorized = append(uncategorized, a)
			continue
		}
		for _, cat := range a.Categories {
			byCategory[cat] = append(byCategory[cat], a)
		}
	}

	names := make([]string, 0, len(byCategory))
	for name := range byCategory {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		writeLegacySection(&b, name, byCategory[name])
	}
	if len(uncategorized) > 0 {
		writeLegacySection(&b, uncategorizedTag, uncategorized)
	}

	return b.String()
}

func writeLegacySection(b *strings.Builder, heading string, articles []domain.Article) {
	fmt.Fprintf(b, "## %s\n\n", heading)
	for _, a := range articles {
		fmt.Fprintf(b, "### %s%s\n", a.Title, linkSuffix(a.OriginalURL))
		fmt.Fprintf(b, "*Source: %s*\n\n", a.Source)
		b.WriteString(Body(a))
		b.WriteString("\n\n")
	}
}

// Body returns the summary, or a preview of the raw content when there is none.
func Body(a domain.Article) string {
	if a.Summary != "" {
		return a.Summary
	}
	r := []rune(a.RawContent)
	if len(r) <= previewLen {
		return strings.TrimSpace(a.RawContent)
	}
	return strings.TrimSpace(string(r[:previewLen])) + "..."
}

func linkSuffix(url string) string {
	if url == "" {
		return ""
	}
	return fmt.Sprintf(" ([link](%s))", url)
}

var telegramEscaper = strings.NewReplacer("*", "", "_", " ", "`", "'", "[", "(", "]", ")")

// TelegramSummary renders a short plan overview for chat delivery.
func TelegramSummary(plan domain.NewsletterPlan, day time.Time, limit int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "*AI News Digest - %s*\n", day.Format(DateLayout))
	fmt.Fprintf(&b, "%d article(s), %d trending\n", plan.TotalCount, plan.TrendingCount())

	if plan.TopStory != nil {
		fmt.Fprintf(&b, "\n*Top Story:* %s\n", telegramEscaper.Replace(plan.TopStory.Article.Title))
		if plan.TopStoryIntro != "" {
			fmt.Fprintf(&b, "%s\n", telegramEscaper.Replace(plan.TopStoryIntro))
		}
	}

	b.WriteString("\n")
	for i, c := range plan.Articles {
		if limit > 0 && i >= limit {
			fmt.Fprintf(&b, "... and %d more\n", len(plan.Articles)-limit)
			break
		}
		title := telegramEscaper.Replace(c.Article.Title)
		if c.Article.OriginalURL != "" {
			title = fmt.Sprintf("[%s](%s)", title, c.Article.OriginalURL)
		}
		fmt.Fprintf(&b, "%d. %s (%d/10)\n", c.Rank, title, c.Article.Score())
	}

	return b.String()
}

package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

const (
	maxContentChars = 4000
	enrichMaxTokens = 500
	pickMaxTokens   = 300
)

// CompletionRequest is a single system+user exchange.
type CompletionRequest struct {
	System    string
	User      string
	MaxTokens int
}

// Completer is the provider-specific transport behind Service.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Service implements enrichment and editorial picking on top of a Completer.
type Service struct {
	completer Completer
	logger    *slog.Logger
}

var (
	_ ports.Enricher        = (*Service)(nil)
	_ ports.EditorialPicker = (*Service)(nil)
)

// NewService wires a completer.
func NewService(completer Completer, logger *slog.Logger) *Service {
	return &Service{completer: completer, logger: logger}
}

var enrichSystemPrompt = `You are an AI news analyst for a newsletter targeting developers and AI practitioners.

For each article, provide ALL of the following in a single JSON response:

1. "summary": A 2-3 sentence summary. Be factual and neutral. No preamble.
2. "categories": Array of 1-3 categories from this list: ` + strings.Join(domain.Categories, ", ") + `
3. "relevance_score": Integer 1-10 rating how important this is to an AI-focused developer audience:
   - 10: Major breakthrough, paradigm shift, or critical industry event
   - 8-9: Significant new model, tool release, or important research result
   - 6-7: Useful update, interesting research, or notable industry move
   - 4-5: Incremental update, niche research, or minor news
   - 1-3: Tangential, redundant, or low-signal content
4. "is_actionable": true if the article announces a specific tool, product, API, or update a developer could try today. false otherwise.

Respond with ONLY valid JSON. No markdown fences, no extra text.`

const pickSystemPrompt = `You are the editor of an AI newsletter for developers. Pick the single most important article to lead the newsletter as the "Top Story". Consider significance to the AI developer community, novelty and timeliness. Trending articles deserve extra weight.

Respond with ONLY valid JSON:
{"article_id": "the-id-you-chose", "intro": "One compelling sentence that hooks the reader and explains why this matters."}`

// Enrich asks the model for article metadata. Transport errors are returned;
// malformed answers degrade to DefaultEnrichment.
func (s *Service) Enrich(ctx context.Context, rawContent, title, source string) (domain.Enrichment, error) {
	content := truncateRunes(rawContent, maxContentChars)
	user := fmt.Sprintf("Source: %s\nTitle: %s\n\nContent: %s", source, title, content)

	text, err := s.completer.Complete(ctx, CompletionRequest{
		System:    enrichSystemPrompt,
		User:      user,
		MaxTokens: enrichMaxTokens,
	})
	if err != nil {
		return domain.Enrichment{}, fmt.Errorf("enrich %q: %w", title, err)
	}

	enrichment, ok := ParseEnrichment(text, title, source)
	if !ok && s.logger != nil {
		s.logger.Warn("malformed enrichment, using defaults", "title", title)
	}
	return enrichment, nil
}

// PickTopStory asks the model to choose the lead among candidates.
func (s *Service) PickTopStory(ctx context.Context, candidates []domain.PickCandidate) (domain.Pick, error) {
	if len(candidates) == 0 {
		return domain.Pick{}, fmt.Errorf("no candidates")
	}

	text, err := s.completer.Complete(ctx, CompletionRequest{
		System:    pickSystemPrompt,
		User:      "Here are today's top articles. Pick the lead story:\n\n" + FormatCandidates(candidates),
		MaxTokens: pickMaxTokens,
	})
	if err != nil {
		return domain.Pick{}, fmt.Errorf("pick top story: %w", err)
	}

	pick, err := ParsePick(text)
	if err != nil {
		return domain.Pick{}, err
	}
	for _, c := range candidates {
		if c.ID == pick.ArticleID {
			return pick, nil
		}
	}
	return domain.Pick{}, fmt.Errorf("picked unknown article %q", pick.ArticleID)
}

// FormatCandidates renders the candidate list shown to the editor model.
func FormatCandidates(candidates []domain.PickCandidate) string {
	blocks := make([]string, 0, len(candidates))
	for _, c := range candidates {
		trending := ""
		if c.IsTrending {
			trending = " [TRENDING ON HN]"
		}
		summary := c.Summary
		if summary == "" {
			summary = "No summary"
		}
		blocks = append(blocks, fmt.Sprintf("[%s] %q (score: %d, source: %s)%s\nSummary: %s",
			c.ID, c.Title, c.Score, c.Source, trending, summary))
	}
	return strings.Join(blocks, "\n\n")
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
